package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/petems/speaker-tap/internal/audio"
	"github.com/petems/speaker-tap/internal/observe"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type captureFlags struct {
	direction   string
	device      string
	duration    time.Duration
	out         string
	metricsAddr string
	strict      bool
}

func newCaptureCmd(root *rootFlags) *cobra.Command {
	var flags captureFlags

	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Capture audio as raw little-endian float32 samples",
		Long: `Capture from a speaker (loopback) or microphone and write raw
little-endian float32 samples at the device's native rate. The rate is
logged when the capture starts. Stops after --duration, on interrupt, or
when the device stops delivering audio.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := root.load(cmd)
			if err != nil {
				return err
			}
			ac := &env.cfg.Audio
			if cmd.Flags().Changed("direction") {
				ac.Direction = flags.direction
			}
			if cmd.Flags().Changed("device") {
				ac.DeviceID = flags.device
			}
			if flags.strict {
				ac.StrictStart = true
			}
			if !cmd.Flags().Changed("metrics-addr") {
				flags.metricsAddr = env.cfg.Metrics.Addr
			}
			if _, err := audio.ParseDirection(ac.Direction); err != nil {
				return err
			}

			sink, closeSink, err := openSink(cmd, flags.out)
			if err != nil {
				return err
			}
			defer closeSink()

			ctx := cmd.Context()
			if flags.duration > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, flags.duration)
				defer cancel()
			}

			g, gctx := errgroup.WithContext(ctx)
			metricsCtx, stopMetrics := context.WithCancel(gctx)
			defer stopMetrics()

			if flags.metricsAddr != "" {
				handler, shutdown, err := observe.InitProvider(Version)
				if err != nil {
					return fmt.Errorf("failed to initialize metrics: %w", err)
				}
				defer shutdown(context.Background())
				g.Go(func() error {
					env.log.Info().Str("addr", flags.metricsAddr).Msg("Serving metrics")
					return observe.Serve(metricsCtx, flags.metricsAddr, handler)
				})
			}

			application, backend, err := env.newApp()
			if err != nil {
				return err
			}
			defer backend.Close()

			g.Go(func() error {
				defer stopMetrics()
				stats, err := application.Capture(gctx, sink)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Captured %d samples (%s at %d Hz) from %s\n",
					stats.Samples, stats.Duration().Round(time.Millisecond), stats.SampleRate, stats.Device.Name)
				return nil
			})
			return g.Wait()
		},
	}

	cmd.Flags().StringVarP(&flags.direction, "direction", "d", "speaker", "speaker or microphone")
	cmd.Flags().StringVar(&flags.device, "device", "", `device id from "devices", or "default"`)
	cmd.Flags().DurationVar(&flags.duration, "duration", 0, "stop after this long (0 runs until interrupted)")
	cmd.Flags().StringVarP(&flags.out, "out", "o", "-", `output file, "-" for stdout`)
	cmd.Flags().StringVar(&flags.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	cmd.Flags().BoolVar(&flags.strict, "strict", false, "fail if the device cannot be opened instead of producing an empty stream")
	return cmd
}

func openSink(cmd *cobra.Command, path string) (io.Writer, func(), error) {
	if path == "" || path == "-" {
		return cmd.OutOrStdout(), func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create %s: %w", path, err)
	}
	return f, func() { f.Close() }, nil
}
