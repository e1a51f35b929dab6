package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yungbote/outbound-messaging-backend/internal/app"
	"github.com/yungbote/outbound-messaging-backend/internal/services"
)

func sendCmd() *cobra.Command {
	var (
		in     services.SendOutboundInput
		dryRun bool
	)
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send one outbound message and print the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.New(cmd.Context(), app.Options{Version: Version, DryRun: dryRun})
			if err != nil {
				return fmt.Errorf("failed to initialize app: %w", err)
			}
			defer a.Close()

			res, err := a.Services.Outbound.Send(cmd.Context(), in)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(res); err != nil {
				return err
			}
			if !res.Success {
				return fmt.Errorf("send rejected: %s", res.ErrorMessage)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&in.To, "to", "", "customer address (E.164 or whatsapp:+...)")
	f.StringVar(&in.From, "from", "", "sending address; defaults to TWILIO_FROM_NUMBER")
	f.StringVar(&in.Body, "body", "", "message text")
	f.StringVar(&in.ContentTemplateSID, "template", "", "content template SID")
	f.BoolVar(&in.OpenChat, "open-chat", false, "open an agent task immediately")
	f.BoolVar(&in.KnownAgentRouting, "route-to-me", false, "route replies to the sending worker")
	f.StringVar(&in.WorkerSID, "worker-sid", "", "sending worker SID")
	f.StringVar(&in.WorkerFriendlyName, "worker", "", "sending worker friendly name")
	f.StringVar(&in.WorkspaceSID, "workspace", "", "TaskRouter workspace SID override")
	f.StringVar(&in.WorkflowSID, "workflow", "", "TaskRouter workflow SID override")
	f.StringVar(&in.QueueSID, "queue", "", "TaskRouter queue SID override")
	f.StringVar(&in.InboundStudioFlow, "reply-flow", "", "Studio flow SID for customer replies")
	f.BoolVar(&dryRun, "dry-run", false, "use the in-memory messaging platform")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}
