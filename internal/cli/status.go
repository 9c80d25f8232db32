package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	connectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	disconnectedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("196")).
				Bold(true)
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check backend service health",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Shutdown()

		ctx := cmd.Context()
		services := []struct {
			id    string
			label string
		}{
			{"assembly", "AssemblyAI"},
			{"llm", "LLM API"},
		}
		for _, svc := range services {
			state := disconnectedStyle.Render("Not connected")
			if a.Rest.CheckStatus(ctx, svc.id) {
				state = connectedStyle.Render("Connected")
			}
			fmt.Printf("%s: %s\n", svc.label, state)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
