package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/backkem/p2pcam/pkg/httpapi"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// ServeCommand serves snapshots over HTTP.
func ServeCommand() *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve snapshots over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			session, cfg, err := newSession(cmd)
			if err != nil {
				return err
			}
			defer session.Close()

			if cmd.Flags().Changed("listen") {
				cfg.HTTP.Listen = listen
			}
			server := httpapi.NewServer(session, cfg.HTTPServer(cfg.LoggerFactory()))

			pterm.DefaultSection.Println("Serving camera")
			pterm.DefaultBasicText.Println("  Camera:", cfg.IPAddress)
			pterm.DefaultBasicText.Println("  Listen:", cfg.HTTP.Listen)
			pterm.DefaultBasicText.Println("  Snapshot: GET /api/v1/snapshot")

			return server.Start(ctx)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "HTTP listen address (default from config, :8080)")
	return cmd
}
