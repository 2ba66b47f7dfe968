package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/bnema/wadash/internal/domain"
	"github.com/bnema/wadash/internal/ports"
)

func newCampaignsCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "campaigns",
		Short: "Upload and start WhatsApp template campaigns",
	}

	cmd.AddCommand(newCampaignUploadCmd(app), newCampaignStartCmd(app))

	return cmd
}

func newCampaignUploadCmd(app *app) *cobra.Command {
	var name string
	var templateName string

	cmd := &cobra.Command{
		Use:   "upload <recipients.csv>",
		Short: "Upload a recipient list as a new campaign",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			file, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("open campaign file: %w", err)
			}
			defer func() { _ = file.Close() }()

			var campaign domain.Campaign
			err = app.fetch(cmd, "Uploading campaign...", func(ctx context.Context) error {
				var uploadErr error
				campaign, uploadErr = app.api.UploadCampaign(ctx, ports.CampaignUpload{
					FileName:     filepath.Base(path),
					Name:         name,
					TemplateName: templateName,
					Content:      file,
				})
				return uploadErr
			})
			if err != nil {
				return err
			}

			if app.flags.json {
				return writeJSON(cmd, campaign)
			}
			return writeLine(cmd, "Uploaded campaign %s (%s) with %d recipients", campaign.Name, campaign.ID, campaign.Recipients)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Campaign name (default: file name without .csv)")
	cmd.Flags().StringVar(&templateName, "template", "", "WhatsApp template name")

	return cmd
}

func newCampaignStartCmd(app *app) *cobra.Command {
	var templateType string

	cmd := &cobra.Command{
		Use:   "start <campaign-id>",
		Short: "Start sending an uploaded campaign",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			err := app.fetch(cmd, "Starting campaign...", func(ctx context.Context) error {
				return app.api.StartCampaign(ctx, id, templateType)
			})
			if err != nil {
				return err
			}

			if app.flags.json {
				return writeJSON(cmd, map[string]string{"campaignId": id, "templateType": templateType})
			}
			return writeLine(cmd, "Started campaign %s with template %s", id, templateType)
		},
	}

	cmd.Flags().StringVar(&templateType, "template-type", "", "Template type to send")
	_ = cmd.MarkFlagRequired("template-type")

	return cmd
}
