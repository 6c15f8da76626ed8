package main

import (
	"context"
	"fmt"
	"path/filepath"

	"livpconv/convert"
	"livpconv/logger"
)

const (
	exitOK        = 0
	exitFailure   = 1
	exitCancelled = 130
)

// Runner wires a Converter to the console and the failure log for one
// batch and turns the report into an exit status.
type Runner struct {
	Config  *Config
	Console *logger.Console
	// Decoder replaces the HEIC decoder when set.
	Decoder convert.Decoder
}

func NewRunner(cfg *Config, console *logger.Console) *Runner {
	return &Runner{Config: cfg, Console: console}
}

func (r *Runner) Run(ctx context.Context) int {
	conv := convert.New(r.Config.ConverterOptions())
	conv.Logger = r.Console.Logger
	if r.Decoder != nil {
		conv.Decoder = r.Decoder
	}

	r.Console.Info("Scanning %s (format: %s, workers: %d)",
		describeInput(r.Config.Input), r.Config.OutputFormat, r.Config.Workers)

	spinner := r.startSpinner("Looking for LIVP and HEIC files")
	batch, err := conv.Scan(r.Config.Input)
	spinner.Stop(err == nil, "")
	if err != nil {
		r.Console.Error("Configuration error: %v", err)
		return exitFailure
	}

	sinks := convert.MultiSink{consoleSink{r.Console}}
	var failureLog *logger.FailureLog
	if r.Config.LogFile != "" {
		failureLog = logger.NewFailureLog(filepath.Join(batch.OutputDir, r.Config.LogFile))
		sinks = append(sinks, &fileSink{log: failureLog, console: r.Console})
	}
	conv.Reports = sinks

	var bar *logger.ProgressBar
	if len(batch.Tasks) > 0 {
		r.Console.Info("Converting %d files to %s (%d skipped)", len(batch.Tasks), r.Config.OutputFormat, len(batch.Skipped))
		if !r.Config.LogJSON {
			bar = r.Console.NewProgressBar(len(batch.Tasks), "Converting")
			conv.Progress = bar
		}
	}

	report, err := conv.Run(ctx, batch)
	if bar != nil {
		bar.Complete()
	}
	if failureLog != nil {
		if cerr := failureLog.Close(); cerr != nil {
			r.Console.Warn("closing failure log: %v", cerr)
		}
	}
	if err != nil {
		r.Console.Error("%v", err)
		return exitFailure
	}

	displayResults(r.Console, report)
	return r.exitStatus(report, batch)
}

// exitStatus reports the outcome of a finished batch. An interrupt that
// arrives after every task finished does not count as a cancellation.
func (r *Runner) exitStatus(report *convert.Report, batch *convert.Batch) int {
	switch {
	case report.Cancelled() > 0:
		r.Console.Warn("Interrupted: %d files were not converted", report.Cancelled())
		return exitCancelled
	case report.AllFailed():
		r.Console.Error("No file could be converted")
		return exitFailure
	case report.Failed() > 0:
		r.Console.Warn("%d of %d files failed, see %s", report.Failed(), report.Attempted(), r.failureLogName(batch))
	case report.Attempted() > 0:
		r.Console.Success("All files converted to %s", report.OutputDir)
	}
	return exitOK
}

func (r *Runner) startSpinner(message string) interface{ Stop(bool, string) } {
	if r.Config.LogJSON || r.Config.NoColor {
		return noSpinner{}
	}
	return r.Console.StartSpinner(message)
}

type noSpinner struct{}

func (noSpinner) Stop(bool, string) {}

func (r *Runner) failureLogName(b *convert.Batch) string {
	if r.Config.LogFile == "" {
		return "the messages above"
	}
	return filepath.Join(b.OutputDir, r.Config.LogFile)
}

func describeInput(in convert.Input) string {
	if in.Dir != "" {
		if in.Recursive {
			return in.Dir + " (recursive)"
		}
		return in.Dir
	}
	if len(in.Files) == 1 {
		return in.Files[0]
	}
	return fmt.Sprintf("%d files", len(in.Files))
}

func displayResults(console *logger.Console, report *convert.Report) {
	in, out := report.Bytes()

	table := console.NewTable([]string{"Metric", "Value"})
	table.AddRow("Output directory", report.OutputDir)
	table.AddRow("Converted files", fmt.Sprintf("%d/%d", report.Succeeded(), report.Attempted()))
	table.AddRow("Failed files", fmt.Sprintf("%d", report.Failed()))
	if n := report.Cancelled(); n > 0 {
		table.AddRow("Not started", fmt.Sprintf("%d", n))
	}
	table.AddRow("Skipped files", fmt.Sprintf("%d", report.SkippedCount()))
	table.AddRow("Input size", formatSize(in))
	table.AddRow("Output size", formatSize(out))
	table.AddRow("Elapsed", logger.FormatDuration(report.Elapsed))

	console.Info("Conversion summary:")
	table.Print()
}

func formatSize(n int64) string {
	return fmt.Sprintf("%.2f MB", float64(n)/1024/1024)
}

// consoleSink shows failures and the empty-batch notice to the user.
type consoleSink struct {
	console *logger.Console
}

func (s consoleSink) TaskFailed(f convert.Failure) {
	s.console.Error("Failed to convert %s (%s): %s", f.File, f.Kind, f.Message)
}

func (s consoleSink) NoSupportedFiles(location string) {
	s.console.Warn("No LIVP or HEIC files found in %s", location)
}

// fileSink persists failures. The empty-batch notice is not written so
// that an empty run leaves the output directory empty.
type fileSink struct {
	log     *logger.FailureLog
	console *logger.Console
	warned  bool
}

func (s *fileSink) TaskFailed(f convert.Failure) {
	if err := s.log.Failure(f.File, string(f.Kind), f.Message); err != nil && !s.warned {
		s.warned = true
		s.console.Warn("%v", err)
	}
}

func (*fileSink) NoSupportedFiles(string) {}
