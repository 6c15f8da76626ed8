package convert

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"livpconv/encoder"
	"livpconv/format"
	"livpconv/heic"
	"livpconv/livp"
)

type Decoder interface {
	Decode(src heic.Source) (*heic.Picture, error)
}

type Options struct {
	Format format.Output
	// OutputDir defaults to the "converted" subdirectory of the input.
	OutputDir      string
	Workers        int
	Quality        int
	KeepExif       bool
	SpillThreshold int64
}

// Converter runs batches. Tasks are independent: whatever happens to one
// task is recorded in its Outcome and the batch carries on.
type Converter struct {
	Options  Options
	Decoder  Decoder
	Encoder  encoder.Encoder
	Progress ProgressSink
	Reports  ReportSink
	// Logger gets per-stage detail at debug level and collision warnings.
	// Failures reach users through Reports.
	Logger   *slog.Logger
}

func New(opts Options) *Converter {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Converter{
		Options:  opts,
		Decoder:  heic.Decoder{KeepExif: opts.KeepExif},
		Encoder:  encoder.Encoder{Quality: opts.Quality},
		Progress: nopSink{},
		Reports:  nopSink{},
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// Convert scans in and runs the resulting batch.
func (c *Converter) Convert(ctx context.Context, in Input) (*Report, error) {
	b, err := c.Scan(in)
	if err != nil {
		return nil, err
	}
	return c.Run(ctx, b)
}

// Run converts every task of b. The only error it returns is a failure to
// create the output directory, before any task starts. Cancelling ctx stops
// new tasks from starting; running tasks finish.
func (c *Converter) Run(ctx context.Context, b *Batch) (*Report, error) {
	start := time.Now()
	report := &Report{
		OutputDir: b.OutputDir,
		Outcomes:  make([]Outcome, len(b.Tasks)),
		Skipped:   append([]string(nil), b.Skipped...),
	}

	if err := os.MkdirAll(b.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	for _, s := range b.Skipped {
		c.Logger.Debug("skipping unsupported file", "file", baseName(s))
	}

	if len(b.Tasks) == 0 {
		c.Logger.Debug("no supported files found", "location", b.Location)
		c.Reports.NoSupportedFiles(b.Location)
		report.Elapsed = time.Since(start)
		return report, nil
	}

	for _, t := range b.Tasks {
		if t.Overwrites != "" {
			c.Logger.Warn("output name collision, later file wins",
				"output", baseName(t.Output), "file", baseName(t.Source), "previous", baseName(t.Overwrites))
		}
	}

	c.runParallel(ctx, b.Tasks, report)

	for i := range report.Outcomes {
		if report.Outcomes[i].State == Pending {
			report.Outcomes[i] = Outcome{Task: b.Tasks[i], State: Cancelled}
		}
	}
	report.Elapsed = time.Since(start)
	return report, nil
}

func (c *Converter) runParallel(ctx context.Context, tasks []Task, report *Report) {
	workers := c.Options.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(tasks) {
		workers = len(tasks)
	}

	jobs := make(chan int, workers)

	var (
		mu        sync.Mutex
		completed int
		wg        sync.WaitGroup
	)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if ctx.Err() != nil {
					mu.Lock()
					report.Outcomes[i] = Outcome{Task: tasks[i], State: Cancelled}
					mu.Unlock()
					continue
				}

				outcome := c.runTask(tasks[i])

				mu.Lock()
				report.Outcomes[i] = outcome
				completed++
				if outcome.State == Failed {
					c.Logger.Debug("conversion failed",
						"file", baseName(outcome.Task.Source), "kind", string(outcome.Kind), "error", outcome.Err)
					c.Reports.TaskFailed(outcome.failure())
				}
				c.Progress.Progress(completed, len(tasks))
				mu.Unlock()
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i := range tasks {
			select {
			case <-ctx.Done():
				return
			case jobs <- i:
			}
		}
	}()

	wg.Wait()
}

// runTask walks one task through its stages. It never panics and never
// returns an error: both end up in the Outcome.
func (c *Converter) runTask(t Task) (out Outcome) {
	start := time.Now()
	out = Outcome{Task: t, State: Pending}
	stage := Pending

	defer func() {
		if r := recover(); r != nil {
			out.State = Failed
			out.FailedIn = stage
			out.Err = fmt.Errorf("panic: %v", r)
			out.Kind = Classify(out.Err, stage)
		}
		out.Duration = time.Since(start)
	}()

	fail := func(err error) Outcome {
		out.State = Failed
		out.FailedIn = stage
		out.Err = err
		out.Kind = Classify(err, stage)
		return out
	}

	stage = Classifying
	fi, err := os.Stat(t.Source)
	if err != nil {
		return fail(err)
	}
	out.InputBytes = fi.Size()
	if err := os.MkdirAll(filepath.Dir(t.Output), 0o755); err != nil {
		return fail(err)
	}

	var src heic.Source
	switch t.Kind {
	case format.Container:
		stage = Extracting
		m, err := livp.Open(t.Source, livp.Options{
			SpillThreshold: c.Options.SpillThreshold,
			ScratchDir:     filepath.Dir(t.Output),
		})
		if err != nil {
			return fail(err)
		}
		defer m.Close()
		c.Logger.Debug("extracted member", "file", baseName(t.Source), "member", m.Name, "spilled", m.Spilled())
		src = m
	case format.Direct:
		f, err := os.Open(t.Source)
		if err != nil {
			return fail(err)
		}
		defer f.Close()
		src = f
	default:
		return fail(fmt.Errorf("unsupported input kind %v", t.Kind))
	}

	stage = Decoding
	pic, err := c.Decoder.Decode(src)
	if err != nil {
		return fail(err)
	}

	stage = Encoding
	res, err := c.Encoder.WriteFile(t.Output, pic.Image, t.Format, pic.Exif)
	if err != nil {
		return fail(err)
	}
	if res.ExifErr != nil {
		c.Logger.Warn("exif not copied", "file", baseName(t.Source), "error", res.ExifErr)
	}

	out.State = Succeeded
	out.OutputBytes = res.Size
	c.Logger.Debug("converted", "file", baseName(t.Source), "output", baseName(t.Output),
		"mode", res.Mode.String(), "width", pic.Image.Width, "height", pic.Image.Height)
	return out
}
