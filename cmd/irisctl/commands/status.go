package commands

import (
	"fmt"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/ryunzz/iris/pkg/client"
)

// NewStatusCommand creates the status command
func NewStatusCommand() *cobra.Command {
	var parseable bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon health",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := cmd.Context().Value(ClientContextKey).(client.Interface)
			health, err := c.Health()
			if err != nil {
				return fmt.Errorf("failed to get daemon health: %w", err)
			}

			if parseable {
				fmt.Printf("status=%q service=%q queue_size=%d devices_online=%d\n",
					health.Status, health.Service, health.QueueSize, health.DevicesOnline)
				return nil
			}

			ts := time.Unix(int64(health.Timestamp), 0)
			table := pterm.TableData{
				[]string{pterm.Bold.Sprint("Status"), pterm.Bold.Sprint(health.Status)},
				[]string{"Service", health.Service},
				[]string{"Queue Size", fmt.Sprintf("%d", health.QueueSize)},
				[]string{"Devices Online", fmt.Sprintf("%d", health.DevicesOnline)},
				[]string{"Reported At", ts.Format(time.RFC1123Z)},
			}
			pterm.DefaultTable.WithData(table).Render()
			return nil
		},
	}
	cmd.Flags().BoolVarP(&parseable, "parseable", "p", false, "Output in parseable format (key=value)")
	return cmd
}
