package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Console is the user-facing side of the converter: glyph-prefixed
// messages through a RichHandler plus direct writes for the progress bar,
// boxes and tables.
type Console struct {
	Logger    *slog.Logger
	Out       io.Writer
	Colorized bool
}

func NewConsole(opts *RichLoggerOptions) *Console {
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Console{
		Logger:    NewRichLogger(opts),
		Out:       opts.Output,
		Colorized: opts.EnableColors && !opts.EnableJSON,
	}
}

func (c *Console) StartTimer(name string) *Timer {
	return &Timer{
		Name:      name,
		StartTime: time.Now(),
		Console:   c,
	}
}

func (c *Console) decorate(color, glyph, format string, args []interface{}) string {
	msg := fmt.Sprintf(format, args...)
	if glyph != "" {
		msg = glyph + " " + msg
	}
	if c.Colorized && color != "" {
		msg = color + msg + Reset
	}
	return msg
}

func (c *Console) Success(format string, args ...interface{}) {
	c.Logger.Info(c.decorate(Green+Bold, "✓", format, args))
}

func (c *Console) Info(format string, args ...interface{}) {
	c.Logger.Info(c.decorate(Blue+Bold, "ℹ", format, args))
}

func (c *Console) Log(format string, args ...interface{}) {
	c.Logger.Info(c.decorate(White, "", format, args))
}

func (c *Console) Warn(format string, args ...interface{}) {
	c.Logger.Warn(c.decorate(Yellow+Bold, "⚠", format, args))
}

func (c *Console) Error(format string, args ...interface{}) {
	c.Logger.Error(c.decorate(Red+Bold, "✖", format, args))
}

func (c *Console) StartSpinner(message string) *Spinner {
	s := &Spinner{
		Message: message,
		Frames:  []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
		Console: c,
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}

	s.Start()
	return s
}

func (c *Console) NewProgressBar(total int, label string) *ProgressBar {
	return NewProgressBar(c.Out, total, label)
}

func (c *Console) NewTable(headers []string) *Table {
	return NewTable(c.Out, headers)
}

func (c *Console) Box(title string, content string) {
	lines := strings.Split(content, "\n")
	maxWidth := len(title)

	for _, line := range lines {
		if len(line) > maxWidth {
			maxWidth = len(line)
		}
	}

	maxWidth += 4

	fmt.Fprintln(c.Out, "┌"+"─"+title+"─"+strings.Repeat("─", maxWidth-len(title)-2)+"┐")

	for _, line := range lines {
		fmt.Fprintln(c.Out, "│ "+line+strings.Repeat(" ", maxWidth-len(line))+" │")
	}

	fmt.Fprintln(c.Out, "└"+strings.Repeat("─", maxWidth+2)+"┘")
}
