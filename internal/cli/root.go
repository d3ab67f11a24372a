// Package cli implements the p2pcam command line.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/backkem/p2pcam/internal/config"
	"github.com/backkem/p2pcam/pkg/camera"
	"github.com/spf13/cobra"
)

type ctxKey string

const appCtxKey ctxKey = "appConfig"

type rootOpts struct {
	configPath string
	host       string
	ipAddress  string
	logLevel   string
}

// NewRootCommand builds the p2pcam command tree.
func NewRootCommand() *cobra.Command {
	var opts rootOpts

	rootCmd := &cobra.Command{
		Use:   "p2pcam",
		Short: "p2pcam streams still images from P2P UDP cameras",
		Long: `p2pcam talks the proprietary UDP protocol of low-cost "P2P" IP cameras:
it negotiates a session, reassembles JPEG frames from the fragment stream and
keeps the stream alive. Frames can be saved, published to MQTT or served over HTTP.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			if cmd.Flags().Changed("host") {
				cfg.Host = opts.host
			}
			if cmd.Flags().Changed("ip-address") {
				cfg.IPAddress = opts.ipAddress
			}
			if cmd.Flags().Changed("log-level") {
				cfg.LogLevel = opts.logLevel
			}

			if err := cfg.Validate(); err != nil {
				return err
			}

			cmd.SetContext(context.WithValue(cmd.Context(), appCtxKey, cfg))
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to config file (YAML, TOML or JSON)")
	rootCmd.PersistentFlags().StringVar(&opts.host, "host", "", "Local address to bind")
	rootCmd.PersistentFlags().StringVar(&opts.ipAddress, "ip-address", "", "Camera IP address")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level (trace, debug, info, warn, error, off)")

	rootCmd.AddCommand(SnapshotCommand())
	rootCmd.AddCommand(WatchCommand())
	rootCmd.AddCommand(ServeCommand())
	rootCmd.AddCommand(ConfigCommand())

	return rootCmd
}

// GetAppConfig returns the configuration loaded by the root command.
func GetAppConfig(cmd *cobra.Command) *config.Config {
	if v := cmd.Context().Value(appCtxKey); v != nil {
		if cfg, ok := v.(*config.Config); ok {
			return cfg
		}
	}
	return nil
}

// newSession creates a camera session from the loaded configuration.
func newSession(cmd *cobra.Command) (*camera.Session, *config.Config, error) {
	cfg := GetAppConfig(cmd)
	if cfg == nil {
		return nil, nil, errors.New("configuration not loaded")
	}
	s, err := camera.NewSession(cfg.Camera(cfg.LoggerFactory()))
	if err != nil {
		return nil, nil, err
	}
	return s, cfg, nil
}

// interrupted reports whether err is the user stopping the command.
func interrupted(ctx context.Context, err error) bool {
	return ctx.Err() != nil && errors.Is(err, ctx.Err())
}
