package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

type snapshotOpts struct {
	out string
}

// SnapshotCommand retrieves one frame and writes it to a file.
func SnapshotCommand() *cobra.Command {
	var opts snapshotOpts

	cmd := &cobra.Command{
		Use:     "snapshot",
		Aliases: []string{"snap"},
		Short:   "Retrieve one image",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			session, cfg, err := newSession(cmd)
			if err != nil {
				return err
			}
			defer session.Close()

			pterm.DefaultSection.Println("Retrieving snapshot")
			pterm.DefaultBasicText.Println("  Camera:", cfg.IPAddress)
			pterm.DefaultBasicText.Println("  Session:", session.ID())

			frame, err := session.RetrieveImage(ctx)
			if err != nil {
				if interrupted(ctx, err) {
					pterm.Warning.Println("interrupted")
					return nil
				}
				return err
			}

			if err := os.WriteFile(opts.out, frame, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", opts.out, err)
			}
			pterm.Success.Printfln("wrote %d bytes to %s", len(frame), opts.out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.out, "out", "o", "snapshot.jpg", "Output file")
	return cmd
}
