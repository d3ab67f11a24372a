package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/backkem/p2pcam/pkg/camera"
	"github.com/backkem/p2pcam/pkg/publish"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

type watchOpts struct {
	dir        string
	mqttBroker string
	count      uint64
}

// WatchCommand streams frames continuously, saving and/or publishing each one.
func WatchCommand() *cobra.Command {
	var opts watchOpts

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream images continuously",
		Long:  "Stream images until interrupted. Each frame is written to --dir and/or published to the MQTT broker.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			ctx, cancel := context.WithCancel(ctx)
			defer cancel()

			session, cfg, err := newSession(cmd)
			if err != nil {
				return err
			}
			defer session.Close()

			if cmd.Flags().Changed("mqtt-broker") {
				cfg.MQTT.Broker = opts.mqttBroker
			}

			var handlers []camera.FrameHandler
			if opts.dir != "" {
				if err := os.MkdirAll(opts.dir, 0o755); err != nil {
					return err
				}
				handlers = append(handlers, saveFrames(opts.dir))
			}
			if cfg.MQTT.Broker != "" {
				pub, err := publish.New(cfg.Publish(cfg.LoggerFactory()))
				if err != nil {
					return err
				}
				if err := pub.Connect(ctx); err != nil {
					return err
				}
				defer pub.Close()
				handlers = append(handlers, pub.HandleFrame)
				pterm.DefaultBasicText.Println("  Topic:", pub.Topic())
			}

			var seen uint64
			session.OnFrame(func(ctx context.Context, frame []byte) error {
				seen++
				if opts.count > 0 && seen >= opts.count {
					defer cancel()
				}
				for _, h := range handlers {
					if err := h(ctx, frame); err != nil {
						return err
					}
				}
				return nil
			})

			pterm.DefaultSection.Println("Watching camera")
			pterm.DefaultBasicText.Println("  Camera:", cfg.IPAddress)
			pterm.DefaultBasicText.Println("  Session:", session.ID())

			err = session.Start(ctx)
			st := session.Stats()
			pterm.Info.Printfln("%d frames, %d fragments, %d handshakes, %d faults",
				st.Frames, st.Fragments, st.HandshakeAttempts, st.Faults)
			if err != nil && !interrupted(ctx, err) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.dir, "dir", "", "Directory to write frames to")
	cmd.Flags().StringVar(&opts.mqttBroker, "mqtt-broker", "", "MQTT broker to publish frames to")
	cmd.Flags().Uint64Var(&opts.count, "count", 0, "Stop after this many frames (0: unlimited)")
	return cmd
}

func saveFrames(dir string) camera.FrameHandler {
	var index uint64
	return func(_ context.Context, frame []byte) error {
		index++
		path := filepath.Join(dir, fmt.Sprintf("frame-%06d.jpg", index))
		return os.WriteFile(path, frame, 0o644)
	}
}
