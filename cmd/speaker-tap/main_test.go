package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/petems/speaker-tap/internal/audio"
)

func TestVersionCommand(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.HasPrefix(out.String(), "speaker-tap "+Version) {
		t.Errorf("unexpected version output %q", out.String())
	}
}

func TestPrintDevices(t *testing.T) {
	var out bytes.Buffer
	printDevices(&out, []audio.Device{
		{ID: "spk-1", Name: "Speakers", Default: true},
		{ID: "hdmi", Name: "HDMI Output"},
	})

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header and 2 rows, got %q", out.String())
	}
	if !strings.HasPrefix(lines[1], "*") || !strings.Contains(lines[1], "spk-1") {
		t.Errorf("expected default marked on first row, got %q", lines[1])
	}
	if strings.HasPrefix(lines[2], "*") {
		t.Errorf("expected second row unmarked, got %q", lines[2])
	}
}

func TestLoadAppliesFlagOverrides(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cmd := newRootCmd()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := cmd.ParseFlags([]string{"--config", path, "--backend", "pulse", "--log-level", "debug"}); err != nil {
		t.Fatalf("ParseFlags: %v", err)
	}

	flags := &rootFlags{
		configPath: path,
		backend:    "pulse",
		logLevel:   "debug",
	}
	env, err := flags.load(cmd)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if env.cfg.Audio.Backend != "pulse" {
		t.Errorf("expected backend override, got %q", env.cfg.Audio.Backend)
	}
	if env.cfg.LogLevel != "debug" {
		t.Errorf("expected log level override, got %q", env.cfg.LogLevel)
	}
	if env.cfgPath != path {
		t.Errorf("expected config path %q, got %q", path, env.cfgPath)
	}
}

func TestCaptureRejectsUnknownDirection(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cmd := newRootCmd()
	cmd.SetArgs([]string{
		"--config", filepath.Join(t.TempDir(), "config.json"),
		"capture", "--direction", "camera",
	})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error for unknown direction")
	}
}
