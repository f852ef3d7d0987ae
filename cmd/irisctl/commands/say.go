package commands

import (
	"fmt"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/ryunzz/iris/pkg/client"
)

// NewSayCommand creates the say command
func NewSayCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "say [text...]",
		Short: "Feed a transcript line into the voice pipeline",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := cmd.Context().Value(ClientContextKey).(client.Interface)

			text := strings.Join(args, " ")
			if err := c.PushTranscript(text); err != nil {
				return fmt.Errorf("failed to push transcript: %w", err)
			}

			pterm.Success.Printf("Sent: %s\n", text)
			return nil
		},
	}
	return cmd
}
