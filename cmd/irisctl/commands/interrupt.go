package commands

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/ryunzz/iris/pkg/client"
)

// NewInterruptCommand creates the interrupt command
func NewInterruptCommand(logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "interrupt",
		Short: "Manage the daemon's interrupt queue",
	}

	cmd.AddCommand(
		newInterruptMotionCommand(logger),
		newInterruptClearCommand(),
	)

	return cmd
}

// newInterruptMotionCommand creates the interrupt motion command
func newInterruptMotionCommand(logger *slog.Logger) *cobra.Command {
	var payloadJSON string
	cmd := &cobra.Command{
		Use:   "motion",
		Short: "Queue a motion alert",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := cmd.Context().Value(ClientContextKey).(client.Interface)

			payload := map[string]any{}
			if payloadJSON != "" {
				if err := json.Unmarshal([]byte(payloadJSON), &payload); err != nil {
					return fmt.Errorf("invalid payload JSON: %w", err)
				}
			}

			if err := c.SendMotionAlert(payload); err != nil {
				return fmt.Errorf("failed to queue motion alert: %w", err)
			}

			logger.Debug("motion alert queued", "payload", payload)
			pterm.Success.Println("Motion alert queued")
			return nil
		},
	}
	cmd.Flags().StringVar(&payloadJSON, "payload", "", "Optional JSON payload attached to the alert")
	return cmd
}

// newInterruptClearCommand creates the interrupt clear command
func newInterruptClearCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Drop all pending interrupts",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := cmd.Context().Value(ClientContextKey).(client.Interface)

			cleared, err := c.ClearInterrupts()
			if err != nil {
				return fmt.Errorf("failed to clear interrupts: %w", err)
			}

			pterm.Success.Printf("Cleared %d interrupt(s)\n", cleared)
			return nil
		},
	}
	return cmd
}
