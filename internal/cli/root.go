// Package cli implements the voice-assistant command tree.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"voice-assistant-client/internal/app"
	"voice-assistant-client/internal/config"
)

var cfgPath string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "voice-assistant",
	Short: "Terminal client for the voice-AI backend",
	Long: `A terminal client for a voice-AI backend: speak or type, get a
spoken reply.

The client keeps a persistent WebSocket to the backend and falls back to
discrete REST calls whenever the socket is down. Context files can be
uploaded from disk or from a drive so the assistant can answer questions
about them.

Quick Start:
  voice-assistant chat                  # Hold a conversation
  voice-assistant upload notes.md       # Upload a context file
  voice-assistant status                # Check backend service health`,
	SilenceUsage: true,
}

// Execute runs the command tree.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "Path to a YAML config file")
}

// newApp loads configuration and builds a started application.
func newApp() (*app.Application, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	a, err := app.New(cfg)
	if err != nil {
		return nil, err
	}
	if err := a.Start(); err != nil {
		return nil, err
	}
	return a, nil
}
