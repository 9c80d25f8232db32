package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"voice-assistant-client/internal/app"
	"voice-assistant-client/internal/audio"
	"voice-assistant-client/internal/observability/logging"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Hold a voice or text conversation",
	Long: `Start an interactive conversation. Typed lines are sent as text
turns; /record toggles microphone capture for a voice turn.

Commands inside the chat:
  /record           Start recording; repeat to stop and send
  /record <path>    Send a prerecorded WAV file
  /upload <paths>   Upload context files for this session
  /files            List uploaded files
  /delete <name>    Remove an uploaded file
  /clear            Reset the conversation and file list
  /quit             Leave the chat`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Shutdown()

		a.Channel.Connect()

		a.Console.ShowNotice("Session " + a.Session.ID())
		a.Console.ShowNotice("Type a message, or /record to speak. /quit to leave.")

		scanner := bufio.NewScanner(os.Stdin)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		for {
			fmt.Print("> ")
			if !scanner.Scan() {
				return scanner.Err()
			}
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			if line == "/quit" || line == "/exit" {
				return nil
			}
			if strings.HasPrefix(line, "/") {
				runChatCommand(cmd, a, line)
				continue
			}
			// Failures surface on the status line; the chat goes on.
			_ = a.Runner.Text(cmd.Context(), line)
		}
	},
}

func runChatCommand(cmd *cobra.Command, a *app.Application, line string) {
	ctx := cmd.Context()
	name, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	switch name {
	case "/record":
		if rest != "" {
			// A path argument sends a prerecorded WAV instead of capturing.
			encoded, err := audio.FromFile(rest)
			if err != nil {
				a.Console.ShowStatus("Error: " + err.Error())
				return
			}
			_ = a.Runner.Audio(ctx, encoded)
			return
		}
		if !a.Recorder.Active() {
			if err := a.Recorder.Start(ctx); err != nil {
				a.Console.ShowStatus("Error: " + err.Error())
				return
			}
			a.Console.ShowStatus("Recording... /record again to stop")
			return
		}
		encoded, err := a.Recorder.Stop()
		if err != nil {
			a.Console.ShowStatus("Error: " + err.Error())
			return
		}
		_ = a.Runner.Audio(ctx, encoded)

	case "/upload":
		if rest == "" {
			a.Console.ShowNotice("Usage: /upload <paths>")
			return
		}
		res, err := a.Ingestor.UploadPaths(ctx, a.Session.ID(), strings.Fields(rest))
		for _, notice := range res.Notices {
			a.Console.ShowNotice(notice)
		}
		if err != nil {
			a.Console.ShowStatus("Error: " + err.Error())
		}

	case "/files":
		a.Console.ShowFiles(a.Ingestor.Visible())

	case "/delete":
		if rest == "" {
			a.Console.ShowNotice("Usage: /delete <name>")
			return
		}
		if err := a.Ingestor.Delete(ctx, a.Session.ID(), rest); err != nil {
			a.Console.ShowStatus("Error: " + err.Error())
			return
		}
		a.Console.ShowFiles(a.Ingestor.Visible())

	case "/clear":
		id := a.Runner.Reset()
		a.Ingestor.Clear()
		sessionLog := logging.WithSession(id)
		sessionLog.Info().Msg("Conversation cleared")
		a.Console.ShowNotice("Conversation cleared. New session " + id)

	default:
		a.Console.ShowNotice("Unknown command: " + name)
	}
}

func init() {
	rootCmd.AddCommand(chatCmd)
}
