package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"livpconv/convert"
	"livpconv/format"
	"livpconv/livp"
	"livpconv/logger"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Output         string `toml:"output"`
	Format         string `toml:"format"`
	Quality        int    `toml:"quality"`
	Workers        int    `toml:"workers"`
	Recursive      bool   `toml:"recursive"`
	KeepExif       bool   `toml:"keep_exif"`
	LogFile        string `toml:"log_file"`
	SpillThreshold int64  `toml:"spill_threshold"`
	NoColor        bool   `toml:"no_color"`
	LogJSON        bool   `toml:"log_json"`
	Verbose        bool   `toml:"verbose"`

	ConfigFile   string        `toml:"-"`
	ShowVersion  bool          `toml:"-"`
	OutputFormat format.Output `toml:"-"`
	Input        convert.Input `toml:"-"`
}

var (
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

const DefaultLogFile = "conversion.log"

func defaultConfig() *Config {
	return &Config{
		Format:         "jpg",
		Quality:        75,
		Workers:        1,
		LogFile:        DefaultLogFile,
		SpillThreshold: livp.DefaultSpillThreshold,
	}
}

func newFlagSet(cfg *Config) *flag.FlagSet {
	fs := flag.NewFlagSet("livpconv", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.Output, "o", cfg.Output, "Output `directory` (default: <input>/converted)")
	fs.StringVar(&cfg.Output, "output", cfg.Output, "Output `directory` (default: <input>/converted)")
	fs.StringVar(&cfg.Format, "f", cfg.Format, "Output `format`: jpg or png")
	fs.StringVar(&cfg.Format, "format", cfg.Format, "Output `format`: jpg or png")
	fs.IntVar(&cfg.Quality, "quality", cfg.Quality, "JPEG quality (1-100)")
	fs.IntVar(&cfg.Workers, "workers", cfg.Workers, "Number of concurrent workers")
	fs.BoolVar(&cfg.Recursive, "recursive", cfg.Recursive, "Convert files in subdirectories too")
	fs.BoolVar(&cfg.KeepExif, "keep-exif", cfg.KeepExif, "Copy EXIF metadata into the output")
	fs.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "Failure log name inside the output directory (empty disables it)")
	fs.Int64Var(&cfg.SpillThreshold, "spill-threshold", cfg.SpillThreshold, "Embedded images larger than this many bytes are extracted to a scratch file")
	fs.StringVar(&cfg.ConfigFile, "config", "", "TOML configuration file")
	fs.BoolVar(&cfg.NoColor, "no-color", cfg.NoColor, "Disable colored output")
	fs.BoolVar(&cfg.LogJSON, "log-json", cfg.LogJSON, "Log records as JSON")
	fs.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "Log every conversion step")
	fs.BoolVar(&cfg.ShowVersion, "version", false, "Show version information")

	return fs
}

// ParseConfig reads flags, an optional TOML file and the positional
// inputs. Flags given on the command line win over file values.
func ParseConfig(args []string, console *logger.Console) (*Config, error) {
	cfg := defaultConfig()
	fs := newFlagSet(cfg)

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			printUsage(fs, console)
		}
		return nil, err
	}

	if cfg.ShowVersion {
		versionInfo := fmt.Sprintf(
			"Version: %s\nBuild date: %s\nGit commit: %s",
			Version, BuildDate, GitCommit,
		)
		console.Box("livpconv version information", versionInfo)
		return cfg, nil
	}

	if cfg.ConfigFile != "" {
		set := make(map[string]bool)
		fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
		if err := cfg.loadFile(cfg.ConfigFile, set); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if fs.NArg() == 0 {
		printUsage(fs, console)
		return nil, fmt.Errorf("no input path specified")
	}
	in, err := resolveInput(fs.Args())
	if err != nil {
		return nil, err
	}
	in.Recursive = cfg.Recursive
	cfg.Input = in

	return cfg, nil
}

// shortFlags maps long flag names to their one-letter aliases.
var shortFlags = map[string]string{
	"output": "o",
	"format": "f",
}

func isShortAlias(name string) bool {
	for _, short := range shortFlags {
		if short == name {
			return true
		}
	}
	return false
}

// printUsage lists each flag once, with its alias on the same line.
func printUsage(fs *flag.FlagSet, console *logger.Console) {
	console.Info("Usage: livpconv [options] <directory | file...>")
	console.Info("Options:")

	fs.VisitAll(func(f *flag.Flag) {
		if isShortAlias(f.Name) {
			return
		}
		names := "-" + f.Name
		if short, ok := shortFlags[f.Name]; ok {
			names = "-" + short + ", " + names
		}
		typ, usage := flag.UnquoteUsage(f)
		if typ != "" {
			names += " " + typ
		}
		if f.DefValue != "" && f.DefValue != "false" {
			usage += fmt.Sprintf(" (default %s)", f.DefValue)
		}
		console.Log("  %s", names)
		console.Log("      %s", usage)
	})
}

// loadFile applies the keys present in a TOML file, skipping any whose
// flag was set explicitly.
func (cfg *Config) loadFile(path string, set map[string]bool) error {
	var file Config
	md, err := toml.DecodeFile(path, &file)
	if err != nil {
		return fmt.Errorf("config file %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("config file %s: unknown key %q", path, undecoded[0].String())
	}

	use := func(key string, flags ...string) bool {
		if !md.IsDefined(key) {
			return false
		}
		for _, f := range flags {
			if set[f] {
				return false
			}
		}
		return true
	}

	if use("output", "o", "output") {
		cfg.Output = file.Output
	}
	if use("format", "f", "format") {
		cfg.Format = file.Format
	}
	if use("quality", "quality") {
		cfg.Quality = file.Quality
	}
	if use("workers", "workers") {
		cfg.Workers = file.Workers
	}
	if use("recursive", "recursive") {
		cfg.Recursive = file.Recursive
	}
	if use("keep_exif", "keep-exif") {
		cfg.KeepExif = file.KeepExif
	}
	if use("log_file", "log-file") {
		cfg.LogFile = file.LogFile
	}
	if use("spill_threshold", "spill-threshold") {
		cfg.SpillThreshold = file.SpillThreshold
	}
	if use("no_color", "no-color") {
		cfg.NoColor = file.NoColor
	}
	if use("log_json", "log-json") {
		cfg.LogJSON = file.LogJSON
	}
	if use("verbose", "verbose") {
		cfg.Verbose = file.Verbose
	}
	return nil
}

func (cfg *Config) Validate() error {
	out, err := format.ParseOutput(cfg.Format)
	if err != nil {
		return err
	}
	cfg.OutputFormat = out

	if cfg.Quality < 1 || cfg.Quality > 100 {
		return fmt.Errorf("quality must be in range 1-100, got %d", cfg.Quality)
	}
	if cfg.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", cfg.Workers)
	}
	if cfg.SpillThreshold < 0 {
		return fmt.Errorf("spill threshold must not be negative, got %d", cfg.SpillThreshold)
	}
	if strings.ContainsAny(cfg.LogFile, `/\`) {
		return fmt.Errorf("log file %q must be a plain file name", cfg.LogFile)
	}
	return nil
}

// resolveInput turns positional arguments into a directory or an explicit
// file list. Every path must exist.
func resolveInput(args []string) (convert.Input, error) {
	for _, a := range args {
		if _, err := os.Stat(a); err != nil {
			return convert.Input{}, fmt.Errorf("input path: %w", err)
		}
	}
	if len(args) == 1 {
		if fi, _ := os.Stat(args[0]); fi.IsDir() {
			return convert.Input{Dir: args[0]}, nil
		}
	}
	return convert.Input{Files: args}, nil
}

func (cfg *Config) ConverterOptions() convert.Options {
	return convert.Options{
		Format:         cfg.OutputFormat,
		OutputDir:      cfg.Output,
		Workers:        cfg.Workers,
		Quality:        cfg.Quality,
		KeepExif:       cfg.KeepExif,
		SpillThreshold: cfg.SpillThreshold,
	}
}

// NewConsole builds the console the batch reports to, honoring the color,
// JSON and verbosity settings.
func (cfg *Config) NewConsole(out io.Writer) *logger.Console {
	opts := logger.DefaultOptions()
	opts.Output = out
	opts.TimeFormat = "15:04:05"
	opts.EnableColors = !cfg.NoColor
	opts.EnableJSON = cfg.LogJSON
	if cfg.Verbose {
		opts.Level = slog.LevelDebug
	}
	return logger.NewConsole(opts)
}
