package cli

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"voice-assistant-client/internal/ingest"
)

var (
	uploadFromDrive bool
	driveToken      string
	driveFileIDs    []string
)

var uploadCmd = &cobra.Command{
	Use:   "upload [files...]",
	Short: "Upload context files for the conversation",
	Long: `Upload local files, or drive files with --drive, so the assistant
can use them as conversation context.

Files are validated against the backend's document allow-list and hashed
before upload. Rejected files are reported individually; the rest of the
batch still goes through.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Shutdown()

		ctx := cmd.Context()

		if !uploadFromDrive {
			if len(args) == 0 {
				return errors.New("no files given")
			}
			res, err := a.Ingestor.UploadPaths(ctx, a.Session.ID(), args)
			for _, notice := range res.Notices {
				a.Console.ShowNotice(notice)
			}
			return err
		}

		if len(driveFileIDs) == 0 {
			return errors.New("--drive requires at least one --file-id")
		}
		token := driveToken
		if token == "" {
			token = os.Getenv("VOICE_DRIVE_TOKEN")
		}
		if token == "" {
			return errors.New("--drive requires --token or VOICE_DRIVE_TOKEN")
		}

		// The backend serves the integration credentials; a failure here
		// means the drive integration is not configured server-side.
		if _, err := a.Rest.FetchConfig(ctx); err != nil {
			return err
		}

		if authorized, _ := a.Store.DriveAuthorized(); authorized {
			a.Logger.Debug().Msg("Prior drive grant recorded, trying the silent path")
		}

		client := ingest.NewDriveClient()
		var picker ingest.Picker = ingest.NewIDPicker(client, token, driveFileIDs)
		picked, err := picker.Pick(ctx)
		if err != nil {
			return err
		}
		if len(picked) == 0 {
			a.Console.ShowNotice("No files picked")
			return nil
		}

		res, err := a.Ingestor.UploadDrive(ctx, a.Session.ID(), token, picked, client)
		for _, notice := range res.Notices {
			a.Console.ShowNotice(notice)
		}
		if err != nil {
			return err
		}

		if len(res.Uploaded) > 0 {
			if err := a.Store.SetDriveAuthorized(true); err != nil {
				a.Logger.Warn().Err(err).Msg("Failed to persist drive grant hint")
			}
		}
		return nil
	},
}

func init() {
	uploadCmd.Flags().BoolVar(&uploadFromDrive, "drive", false, "Upload from the drive instead of local paths")
	uploadCmd.Flags().StringVar(&driveToken, "token", "", "Drive access token (or VOICE_DRIVE_TOKEN)")
	uploadCmd.Flags().StringSliceVar(&driveFileIDs, "file-id", nil, "Drive file id to upload (repeatable)")
	rootCmd.AddCommand(uploadCmd)
}
