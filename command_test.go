package main

import (
	"bytes"
	"errors"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"livpconv/format"
	"livpconv/livp"
	"livpconv/logger"
)

func testConsole(buf *bytes.Buffer) *logger.Console {
	return logger.NewConsole(&logger.RichLoggerOptions{Output: buf})
}

func TestParseConfigDefaults(t *testing.T) {
	dir := t.TempDir()
	var buf bytes.Buffer

	cfg, err := ParseConfig([]string{dir}, testConsole(&buf))
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	if cfg.OutputFormat != format.JPEG || cfg.Quality != 75 || cfg.Workers != 1 {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if cfg.LogFile != DefaultLogFile || cfg.SpillThreshold != livp.DefaultSpillThreshold {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if cfg.Input.Dir != dir || len(cfg.Input.Files) != 0 || cfg.Input.Recursive {
		t.Errorf("unexpected input %+v", cfg.Input)
	}
	if cfg.KeepExif || cfg.Output != "" {
		t.Errorf("unexpected defaults %+v", cfg)
	}
}

func TestParseConfigFlags(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(t.TempDir(), "out")
	var buf bytes.Buffer

	cfg, err := ParseConfig([]string{
		"-f", "PNG", "-o", out, "-quality", "90", "-workers", "4",
		"-recursive", "-keep-exif", "-log-file", "failures.log", dir,
	}, testConsole(&buf))
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	if cfg.OutputFormat != format.PNG {
		t.Errorf("format = %v, want PNG", cfg.OutputFormat)
	}
	opts := cfg.ConverterOptions()
	if opts.OutputDir != out || opts.Quality != 90 || opts.Workers != 4 || !opts.KeepExif {
		t.Errorf("unexpected options %+v", opts)
	}
	if !cfg.Input.Recursive || cfg.LogFile != "failures.log" {
		t.Errorf("unexpected config %+v", cfg)
	}
}

func TestParseConfigFileList(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.heic")
	b := filepath.Join(dir, "b.livp")
	for _, p := range []string{a, b} {
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	var buf bytes.Buffer

	cfg, err := ParseConfig([]string{"-format", "jpeg", a, b}, testConsole(&buf))
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	if cfg.Input.Dir != "" || len(cfg.Input.Files) != 2 || cfg.Input.Files[1] != b {
		t.Errorf("unexpected input %+v", cfg.Input)
	}
	if cfg.OutputFormat != format.JPEG {
		t.Errorf("format = %v, want JPEG", cfg.OutputFormat)
	}
}

func TestParseConfigFileValuesAndOverrides(t *testing.T) {
	dir := t.TempDir()
	conf := filepath.Join(t.TempDir(), "livpconv.toml")
	content := `
format = "png"
quality = 50
workers = 3
keep_exif = true
log_file = ""
spill_threshold = 1024
`
	if err := os.WriteFile(conf, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer

	cfg, err := ParseConfig([]string{"-config", conf, "-quality", "60", dir}, testConsole(&buf))
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	if cfg.OutputFormat != format.PNG {
		t.Errorf("format = %v, want PNG from file", cfg.OutputFormat)
	}
	if cfg.Quality != 60 {
		t.Errorf("quality = %d, want the flag value 60", cfg.Quality)
	}
	if cfg.Workers != 3 || !cfg.KeepExif || cfg.LogFile != "" || cfg.SpillThreshold != 1024 {
		t.Errorf("file values not applied: %+v", cfg)
	}
}

func TestParseConfigFileErrors(t *testing.T) {
	dir := t.TempDir()
	unknown := filepath.Join(dir, "unknown.toml")
	if err := os.WriteFile(unknown, []byte("colour = true\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	broken := filepath.Join(dir, "broken.toml")
	if err := os.WriteFile(broken, []byte("quality = \n"), 0o644); err != nil {
		t.Fatal(err)
	}

	for _, conf := range []string{unknown, broken, filepath.Join(dir, "missing.toml")} {
		var buf bytes.Buffer
		if _, err := ParseConfig([]string{"-config", conf, dir}, testConsole(&buf)); err == nil {
			t.Errorf("%s: expected an error", filepath.Base(conf))
		}
	}
}

func TestParseConfigRejects(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		args []string
	}{
		{"quality too low", []string{"-quality", "0", dir}},
		{"quality too high", []string{"-quality", "101", dir}},
		{"no workers", []string{"-workers", "0", dir}},
		{"unknown format", []string{"-f", "gif", dir}},
		{"log file with directory", []string{"-log-file", "logs/x.log", dir}},
		{"negative spill threshold", []string{"-spill-threshold", "-1", dir}},
		{"no input", nil},
		{"missing input", []string{filepath.Join(dir, "nope")}},
		{"unknown flag", []string{"-resize", "50", dir}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if _, err := ParseConfig(tt.args, testConsole(&buf)); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestParseConfigVersion(t *testing.T) {
	var buf bytes.Buffer
	cfg, err := ParseConfig([]string{"-version"}, testConsole(&buf))
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	if !cfg.ShowVersion {
		t.Fatal("ShowVersion not set")
	}
	if !strings.Contains(buf.String(), "Version: "+Version) {
		t.Errorf("version box missing: %q", buf.String())
	}
}

func TestParseConfigHelp(t *testing.T) {
	var buf bytes.Buffer
	_, err := ParseConfig([]string{"-h"}, testConsole(&buf))
	if !errors.Is(err, flag.ErrHelp) {
		t.Fatalf("err = %v, want flag.ErrHelp", err)
	}
	out := buf.String()
	for _, want := range []string{"Usage: livpconv", "-o, -output directory", "-f, -format format", "-keep-exif", "(default jpg)"} {
		if !strings.Contains(out, want) {
			t.Errorf("usage lacks %q:\n%s", want, out)
		}
	}
	for _, alias := range []string{"-output", "-format"} {
		if n := strings.Count(out, alias); n != 1 {
			t.Errorf("%s listed %d times, want once:\n%s", alias, n, out)
		}
	}
}
