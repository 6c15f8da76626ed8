package logger

import (
	"fmt"
	"sync"
	"time"
)

// Spinner animates while the input is being enumerated. Stop waits for
// the animation goroutine so the next line starts clean.
type Spinner struct {
	Frames  []string
	Message string
	Console *Console

	once    sync.Once
	done    chan struct{}
	stopped chan struct{}
}

func (s *Spinner) Start() {
	go func() {
		defer close(s.stopped)
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()

		for i := 0; ; i++ {
			fmt.Fprintf(s.Console.Out, "\r%s %s ", s.Frames[i%len(s.Frames)], s.Message)
			select {
			case <-s.done:
				fmt.Fprintf(s.Console.Out, "\r%*s\r", len(s.Message)+4, "")
				return
			case <-ticker.C:
			}
		}
	}()
}

func (s *Spinner) Stop(success bool, message string) {
	s.once.Do(func() {
		close(s.done)
		<-s.stopped
	})

	if message == "" {
		return
	}
	if success {
		s.Console.Success("%s", message)
	} else {
		s.Console.Error("%s", message)
	}
}
