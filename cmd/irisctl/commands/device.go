package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/ryunzz/iris/pkg/client"
)

// formatDevice formats a device record in key=value form
func formatDevice(d client.Device) string {
	parts := []string{
		fmt.Sprintf("type=%q", d.Type),
		fmt.Sprintf("name=%q", d.Name),
		fmt.Sprintf("ip=%q", d.IP),
		fmt.Sprintf("port=%d", d.Port),
		fmt.Sprintf("online=%v", d.Online),
		fmt.Sprintf("manual=%v", d.Manual),
	}
	if d.Hostname != "" {
		parts = append(parts, fmt.Sprintf("hostname=%q", d.Hostname))
	}
	if !d.LastSeen.IsZero() {
		parts = append(parts, fmt.Sprintf("lastseen=%d", d.LastSeen.Unix()))
	}
	return strings.Join(parts, " ")
}

func formatLastSeen(t time.Time) string {
	if t.IsZero() {
		return "N/A"
	}
	return t.Format(time.RFC1123Z)
}

// NewDeviceCommand creates the device command
func NewDeviceCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "device",
		Short: "Inspect registered devices",
	}

	cmd.AddCommand(
		newDeviceListCommand(),
		newDeviceStatusCommand(),
	)

	return cmd
}

// newDeviceListCommand creates the device list command
func newDeviceListCommand() *cobra.Command {
	var parseable bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List known devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := cmd.Context().Value(ClientContextKey).(client.Interface)
			devices, err := c.GetDevices()
			if err != nil {
				return fmt.Errorf("failed to get devices: %w", err)
			}

			if len(devices) == 0 {
				if parseable {
					return nil
				}
				pterm.Info.Println("No devices known")
				return nil
			}

			if parseable {
				for _, d := range devices {
					fmt.Println(formatDevice(d))
				}
				return nil
			}

			table := pterm.TableData{
				[]string{"Type", "Name", "Address", "Online", "Last Seen"},
			}
			for _, d := range devices {
				online := "no"
				if d.Online {
					online = "yes"
				}
				table = append(table, []string{
					d.Type,
					d.Name,
					fmt.Sprintf("%s:%d", d.IP, d.Port),
					online,
					formatLastSeen(d.LastSeen),
				})
			}
			pterm.DefaultTable.WithHasHeader().WithData(table).Render()
			return nil
		},
	}
	cmd.Flags().BoolVarP(&parseable, "parseable", "p", false, "Output in parseable format (key=value)")
	return cmd
}

// newDeviceStatusCommand creates the device status command
func newDeviceStatusCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status [type] [online|offline]",
		Short: "Report a device as online or offline",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := cmd.Context().Value(ClientContextKey).(client.Interface)

			status := strings.ToLower(args[1])
			switch status {
			case "online", "offline":
			default:
				return fmt.Errorf("invalid status: %s. Must be online or offline", args[1])
			}

			if err := c.SetDeviceStatus(args[0], status); err != nil {
				return fmt.Errorf("failed to report device status: %w", err)
			}

			pterm.Success.Printf("Reported %s as %s\n", args[0], status)
			return nil
		},
	}
	return cmd
}
