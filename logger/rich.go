package logger

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"sync"
)

const (
	Reset   = "\033[0m"
	Bold    = "\033[1m"
	Dim     = "\033[2m"
	Red     = "\033[31m"
	Green   = "\033[32m"
	Yellow  = "\033[33m"
	Blue    = "\033[34m"
	Magenta = "\033[35m"
	Cyan    = "\033[36m"
	White   = "\033[37m"
	BgRed   = "\033[41m"
)

type RichLoggerOptions struct {
	Output           io.Writer
	TimeFormat       string
	Level            slog.Level
	AddSource        bool
	EnableJSON       bool
	EnableColors     bool
	CompactJSON      bool
	EnableSeparators bool
}

func DefaultOptions() *RichLoggerOptions {
	return &RichLoggerOptions{
		Level:            slog.LevelInfo,
		AddSource:        false,
		EnableColors:     true,
		TimeFormat:       "2006-01-02 15:04:05.000",
		Output:           os.Stdout,
		CompactJSON:      true,
		EnableSeparators: false,
	}
}

// PlainOptions suits files: no colors, no separators, second resolution.
func PlainOptions(w io.Writer) *RichLoggerOptions {
	return &RichLoggerOptions{
		Level:      slog.LevelInfo,
		TimeFormat: "2006-01-02 15:04:05",
		Output:     w,
	}
}

type RichHandler struct {
	opts   *RichLoggerOptions
	mu     *sync.Mutex
	attrs  []slog.Attr
	groups []string
}

func NewRichHandler(opts *RichLoggerOptions) *RichHandler {
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &RichHandler{
		opts: opts,
		mu:   &sync.Mutex{},
	}
}

func (h *RichHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.Level
}

func (h *RichHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	h2 := h.clone()
	for _, a := range attrs {
		h2.attrs = append(h2.attrs, h.qualify(a))
	}
	return h2
}

func (h *RichHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	h2 := h.clone()
	h2.groups = append(h2.groups, name)
	return h2
}

// clone shares the mutex so that derived handlers never interleave writes.
func (h *RichHandler) clone() *RichHandler {
	return &RichHandler{
		opts:   h.opts,
		mu:     h.mu,
		attrs:  append([]slog.Attr(nil), h.attrs...),
		groups: append([]string(nil), h.groups...),
	}
}

func (h *RichHandler) qualify(a slog.Attr) slog.Attr {
	if len(h.groups) == 0 {
		return a
	}
	a.Key = strings.Join(h.groups, ".") + "." + a.Key
	return a
}

func (h *RichHandler) collect(record slog.Record) []slog.Attr {
	attrs := append([]slog.Attr(nil), h.attrs...)
	record.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, flatten(h.qualify(a))...)
		return true
	})
	return attrs
}

func flatten(a slog.Attr) []slog.Attr {
	a.Value = a.Value.Resolve()
	if a.Value.Kind() != slog.KindGroup {
		if a.Key == "" {
			return nil
		}
		return []slog.Attr{a}
	}
	var out []slog.Attr
	for _, ga := range a.Value.Group() {
		if a.Key != "" {
			ga.Key = a.Key + "." + ga.Key
		}
		out = append(out, flatten(ga)...)
	}
	return out
}

func (h *RichHandler) Handle(ctx context.Context, record slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.opts.EnableJSON {
		return h.handleJSON(ctx, record)
	}

	return h.handleText(ctx, record)
}

func (h *RichHandler) source(record slog.Record) (string, int) {
	fs := runtime.CallersFrames([]uintptr{record.PC})
	f, _ := fs.Next()
	return f.File, f.Line
}

func (h *RichHandler) handleJSON(_ context.Context, record slog.Record) error {
	jsonMap := make(map[string]interface{})

	if h.opts.TimeFormat != "" {
		jsonMap["time"] = record.Time.Format(h.opts.TimeFormat)
	}
	jsonMap["level"] = record.Level.String()
	if h.opts.AddSource && record.PC != 0 {
		file, line := h.source(record)
		jsonMap["source"] = fmt.Sprintf("%s:%d", file, line)
	}
	jsonMap["msg"] = record.Message

	for _, a := range h.collect(record) {
		v := a.Value.Any()
		if err, ok := v.(error); ok {
			v = err.Error()
		}
		jsonMap[a.Key] = v
	}

	var jsonData []byte
	var err error
	if h.opts.CompactJSON {
		jsonData, err = json.Marshal(jsonMap)
	} else {
		jsonData, err = json.MarshalIndent(jsonMap, "", "  ")
	}
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(h.opts.Output, string(jsonData))
	return err
}

var levelColors = map[slog.Level]string{
	slog.LevelDebug: Cyan,
	slog.LevelInfo:  Green,
	slog.LevelWarn:  Yellow,
	slog.LevelError: Red,
}

func (h *RichHandler) paint(b *strings.Builder, color, s string) {
	if h.opts.EnableColors && color != "" {
		b.WriteString(color)
		b.WriteString(s)
		b.WriteString(Reset)
		return
	}
	b.WriteString(s)
}

func (h *RichHandler) handleText(_ context.Context, record slog.Record) error {
	var builder strings.Builder

	if h.opts.TimeFormat != "" && !record.Time.IsZero() {
		h.paint(&builder, Blue, record.Time.Format(h.opts.TimeFormat))
		builder.WriteString(" ")
	}

	h.paint(&builder, levelColors[record.Level]+Bold, fmt.Sprintf("%-5s", strings.ToUpper(record.Level.String())))
	builder.WriteString(" ")

	if h.opts.AddSource && record.PC != 0 {
		file, line := h.source(record)
		if lastSlash := strings.LastIndex(file, "/"); lastSlash >= 0 {
			file = file[lastSlash+1:]
		}
		h.paint(&builder, Magenta, fmt.Sprintf("%s:%d", file, line))
		builder.WriteString(" ")
	}

	h.paint(&builder, White+Bold, record.Message)

	for _, a := range h.collect(record) {
		builder.WriteString(" ")
		h.paint(&builder, Dim, a.Key+"=")
		builder.WriteString(formatValue(a.Value))
	}

	if h.opts.EnableSeparators {
		builder.WriteString("\n")
		h.paint(&builder, Blue, strings.Repeat("─", 80))
	}

	_, err := fmt.Fprintln(h.opts.Output, builder.String())
	return err
}

func formatValue(v slog.Value) string {
	s := v.String()
	if v.Kind() == slog.KindString && (s == "" || strings.ContainsAny(s, " \t\"=")) {
		return fmt.Sprintf("%q", s)
	}
	if v.Kind() == slog.KindAny {
		if err, ok := v.Any().(error); ok {
			return fmt.Sprintf("%q", err.Error())
		}
	}
	return s
}

func NewRichLogger(opts *RichLoggerOptions) *slog.Logger {
	if opts == nil {
		opts = DefaultOptions()
	}
	return slog.New(NewRichHandler(opts))
}
