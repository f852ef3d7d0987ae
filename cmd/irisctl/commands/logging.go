package commands

import (
	"fmt"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/ryunzz/iris/pkg/client"
)

// NewLoggingCommand creates the logging command
func NewLoggingCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logging",
		Short: "Inspect and change daemon logging at runtime",
	}

	cmd.AddCommand(
		newLoggingFiltersCommand(),
		newLoggingLevelCommand(),
	)

	return cmd
}

// newLoggingFiltersCommand creates the logging filters command
func newLoggingFiltersCommand() *cobra.Command {
	var parseable bool
	cmd := &cobra.Command{
		Use:   "filters",
		Short: "List active log filters",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := cmd.Context().Value(ClientContextKey).(client.Interface)

			level, filters, err := c.GetLogFilters()
			if err != nil {
				return fmt.Errorf("failed to get log filters: %w", err)
			}

			if parseable {
				fmt.Printf("level=%q filters=%d\n", level, len(filters))
				for _, f := range filters {
					fmt.Printf("type=%q pattern=%q level=%q enabled=%v\n",
						f.Type, f.Pattern, f.Level, f.Enabled)
				}
				return nil
			}

			pterm.Info.Printf("Global level: %s\n", level)
			if len(filters) == 0 {
				pterm.Info.Println("No filters active")
				return nil
			}

			table := pterm.TableData{
				[]string{"Type", "Pattern", "Level", "Enabled"},
			}
			for _, f := range filters {
				table = append(table, []string{
					f.Type, f.Pattern, f.Level, fmt.Sprintf("%v", f.Enabled),
				})
			}
			pterm.DefaultTable.WithHasHeader().WithData(table).Render()
			return nil
		},
	}
	cmd.Flags().BoolVarP(&parseable, "parseable", "p", false, "Output in parseable format (key=value)")
	return cmd
}

// newLoggingLevelCommand creates the logging level command
func newLoggingLevelCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "level [debug|info|warn|error]",
		Short: "Change the daemon's log level",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := cmd.Context().Value(ClientContextKey).(client.Interface)

			level := strings.ToLower(args[0])
			applied, err := c.SetLogLevel(level)
			if err != nil {
				return fmt.Errorf("failed to set log level: %w", err)
			}

			pterm.Success.Printf("Log level set to %s\n", applied)
			return nil
		},
	}
	return cmd
}
