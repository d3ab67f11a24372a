package cli

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// ConfigCommand prints the effective configuration.
func ConfigCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := GetAppConfig(cmd)

			rows := pterm.TableData{
				{"Key", "Value"},
				{"name", cfg.Name},
				{"host", cfg.Host},
				{"ip_address", cfg.IPAddress},
				{"local_port", fmt.Sprint(cfg.LocalPort)},
				{"remote_port", fmt.Sprint(cfg.RemotePort)},
				{"receive_timeout", cfg.ReceiveTimeout.String()},
				{"fragment_threshold", fmt.Sprint(cfg.FragmentThreshold)},
				{"horizontal_flip", fmt.Sprint(cfg.HorizontalFlip)},
				{"vertical_flip", fmt.Sprint(cfg.VerticalFlip)},
				{"timestamp", fmt.Sprint(cfg.Timestamp)},
				{"log_level", cfg.LogLevel},
				{"mqtt.broker", cfg.MQTT.Broker},
				{"http.listen", cfg.HTTP.Listen},
			}
			return pterm.DefaultTable.WithHasHeader().WithData(rows).WithWriter(cmd.OutOrStdout()).Render()
		},
	}
}
