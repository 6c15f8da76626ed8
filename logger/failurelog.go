package logger

import (
	"fmt"
	"log/slog"
	"os"
	"sync"
)

// FailureLog appends one timestamped line per failed conversion to a text
// file. The file is opened on the first record, so a batch without
// failures leaves nothing behind.
type FailureLog struct {
	path string

	mu     sync.Mutex
	file   *os.File
	logger *slog.Logger
	err    error
}

func NewFailureLog(path string) *FailureLog {
	return &FailureLog{path: path}
}

func (l *FailureLog) Path() string { return l.path }

// Failure records one failed file. After the first open error every
// later call returns that error without retrying.
func (l *FailureLog) Failure(file, kind, message string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.open(); err != nil {
		return err
	}
	l.logger.Error("Failed to convert "+file, "kind", kind, "error", message)
	return nil
}

func (l *FailureLog) open() error {
	if l.logger != nil || l.err != nil {
		return l.err
	}
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		l.err = fmt.Errorf("open failure log: %w", err)
		return l.err
	}
	l.file = f
	l.logger = NewRichLogger(PlainOptions(f))
	return nil
}

func (l *FailureLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	l.logger = nil
	l.err = os.ErrClosed
	return err
}
