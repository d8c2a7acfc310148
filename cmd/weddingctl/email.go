package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/weddingplanner/weddingplanner/internal/config"
	"github.com/weddingplanner/weddingplanner/internal/email"
	"github.com/weddingplanner/weddingplanner/internal/logger"
	"github.com/weddingplanner/weddingplanner/internal/model"
)

func newSendTestEmailCmd() *cobra.Command {
	var to, template string

	cmd := &cobra.Command{
		Use:   "send-test-email",
		Short: "Send a test message through the configured email provider",
		RunE: func(cmd *cobra.Command, args []string) error {
			if to == "" {
				return fmt.Errorf("--to is required")
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			log := logger.NewWithWriter(cmd.ErrOrStderr(), cfg.Log.Level, "text")

			sender, err := email.NewSender(cmd.Context(), cfg.Email, log)
			if err != nil {
				return err
			}
			mailer := email.NewMailer(sender, cfg.Email, cfg.Chapa.Currency, log)

			switch template {
			case "generic":
				id, err := mailer.SendEmail(cmd.Context(), to, "Wedding Planner test email",
					"<p>This is a test message from weddingctl sent at "+time.Now().Format(time.RFC1123)+".</p>")
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "sent %s via %s\n", id, cfg.Email.Provider)
			case "vendor-approval":
				vendor := &model.Vendor{
					BusinessName: "Test Vendor",
					User:         model.User{FirstName: "Test", Email: to},
				}
				if err := mailer.SendVendorApproval(cmd.Context(), vendor); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "sent vendor approval via %s\n", cfg.Email.Provider)
			default:
				return fmt.Errorf("unknown template %q (generic, vendor-approval)", template)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "recipient address")
	cmd.Flags().StringVar(&template, "template", "generic", "generic or vendor-approval")
	return cmd
}
