package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"voice-assistant-client/internal/models"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history [session-id]",
	Short: "Show archived conversations",
	Long: `Without arguments, list archived session ids, most recent first.
With a session id, print that conversation's messages in order.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Shutdown()

		if len(args) == 0 {
			sessions, err := a.Store.Sessions(historyLimit)
			if err != nil {
				return err
			}
			if len(sessions) == 0 {
				fmt.Println("No archived conversations")
				return nil
			}
			for _, id := range sessions {
				fmt.Println(id)
			}
			return nil
		}

		msgs, err := a.Store.Messages(args[0], historyLimit)
		if err != nil {
			return err
		}
		for _, m := range msgs {
			a.Console.ShowEntry(models.TranscriptEntry{Role: m.Role, Text: m.Content})
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 0, "Maximum entries to show (0 = all)")
	rootCmd.AddCommand(historyCmd)
}
