package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func generateFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("generate", pflag.ContinueOnError)
	flags.String("in", "-", "")
	flags.String("out", "-", "")
	flags.Int("workers", 0, "")
	flags.Bool("indent", false, "")
	flags.Bool("watch", false, "")
	flags.Float64("global-regen", 400e9, "")
	flags.String("regen-window", "15d", "")
	flags.String("log-level", "info", "")
	return flags
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load("", generateFlags())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.In != "-" || cfg.Out != "-" {
		t.Fatalf("unexpected io defaults: %+v", cfg)
	}
	if cfg.GlobalRegen != 400e9 {
		t.Fatalf("global regen = %v", cfg.GlobalRegen)
	}
	if cfg.RegenWindow != 15*24*time.Hour {
		t.Fatalf("regen window = %v", cfg.RegenWindow)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("log level = %q", cfg.LogLevel)
	}
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "rcparams.yaml")
	content := "in: specs.json\nout: file.json\nworkers: 2\nregen-window: 7d\n"
	if err := os.WriteFile(cfgFile, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("RCPARAMS_WORKERS", "6")
	t.Setenv("RCPARAMS_GLOBAL_REGEN", "8e11")

	flags := generateFlags()
	if err := flags.Parse([]string{"--out", "flag.json"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := Load(cfgFile, flags)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.In != "specs.json" {
		t.Fatalf("in = %q, want file value", cfg.In)
	}
	if cfg.Out != "flag.json" {
		t.Fatalf("out = %q, want flag value", cfg.Out)
	}
	if cfg.Workers != 6 {
		t.Fatalf("workers = %d, want env value", cfg.Workers)
	}
	if cfg.GlobalRegen != 8e11 {
		t.Fatalf("global regen = %v, want env value", cfg.GlobalRegen)
	}
	if cfg.RegenWindow != 7*24*time.Hour {
		t.Fatalf("regen window = %v", cfg.RegenWindow)
	}
}

func TestLoadRejectsWatchOnStdin(t *testing.T) {
	chdirTemp(t)

	flags := generateFlags()
	if err := flags.Parse([]string{"--watch"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	if _, err := Load("", flags); err == nil {
		t.Fatalf("expected error for watch without input file")
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), generateFlags()); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}

func TestLoadVerify(t *testing.T) {
	chdirTemp(t)

	flags := pflag.NewFlagSet("verify", pflag.ContinueOnError)
	flags.String("in", "-", "")
	flags.String("log-level", "info", "")
	if err := flags.Parse([]string{"--in", "derived.json"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := LoadVerify("", flags)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.In != "derived.json" || cfg.LogLevel != "info" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestParseWindow(t *testing.T) {
	cases := map[string]time.Duration{
		"1296000": 15 * 24 * time.Hour,
		"15d":     15 * 24 * time.Hour,
		" 2d ":    48 * time.Hour,
		"36h":     36 * time.Hour,
		"90m":     90 * time.Minute,
	}
	for input, want := range cases {
		got, err := ParseWindow(input)
		if err != nil {
			t.Fatalf("ParseWindow(%q): %v", input, err)
		}
		if got != want {
			t.Fatalf("ParseWindow(%q) = %v, want %v", input, got, want)
		}
	}

	for _, input := range []string{"", "0", "0d", "-5m", "d", "ten days"} {
		if _, err := ParseWindow(input); err == nil {
			t.Fatalf("ParseWindow(%q): expected error", input)
		}
	}
}

func chdirTemp(t *testing.T) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
