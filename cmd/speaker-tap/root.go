package main

import (
	"fmt"

	"github.com/petems/speaker-tap/internal/app"
	"github.com/petems/speaker-tap/internal/audio"
	"github.com/petems/speaker-tap/internal/config"
	"github.com/petems/speaker-tap/internal/logging"
	"github.com/petems/speaker-tap/internal/permissions"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type rootFlags struct {
	configPath string
	backend    string
	logLevel   string
}

// env is what every subcommand needs once flags and config are resolved.
type env struct {
	cfg     *config.Config
	cfgPath string
	log     zerolog.Logger
}

func (f *rootFlags) load(cmd *cobra.Command) (*env, error) {
	path := f.configPath
	if path == "" {
		path = config.Path()
	}
	cfg, err := config.LoadFrom(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cmd.Flags().Changed("backend") {
		cfg.Audio.Backend = f.backend
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
	return &env{cfg: cfg, cfgPath: path, log: logging.NewWithLevel(cfg.LogLevel)}, nil
}

// newApp initializes the configured backend. The caller closes it.
func (e *env) newApp() (*app.App, audio.Backend, error) {
	backend, err := audio.NewBackend(e.cfg.Audio.Backend, e.log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize audio: %w", err)
	}
	return app.New(app.Config{
		Backend:     backend,
		Config:      e.cfg,
		ConfigPath:  e.cfgPath,
		Logger:      e.log,
		Permissions: permissions.EnsureMicrophone,
	}), backend, nil
}

func newRootCmd() *cobra.Command {
	var flags rootFlags

	cmd := &cobra.Command{
		Use:   "speaker-tap",
		Short: "Capture speaker or microphone audio as a raw float32 sample stream",
		Example: `  speaker-tap devices --direction speaker
  speaker-tap capture --duration 10s --out meeting.f32
  speaker-tap capture --direction mic --device default --out - | ffplay -f f32le -ar 48000 -ac 1 -`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file (default "+config.Path()+")")
	cmd.PersistentFlags().StringVar(&flags.backend, "backend", audio.BackendAuto, "audio backend: auto, malgo, pulse, portaudio")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "info", "log level: debug, info, warn, error")

	cmd.AddCommand(
		newDevicesCmd(&flags),
		newCaptureCmd(&flags),
		newVersionCmd(),
	)
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "speaker-tap %s (%s)\n", Version, Commit)
		},
	}
}
