package convert

import (
	"time"

	"livpconv/format"
)

// State is the position of a task in its life cycle:
// Pending → Classifying → (Extracting) → Decoding → Encoding → Succeeded,
// or Failed from any non-terminal state. Cancelled tasks never left Pending.
type State int

const (
	Pending State = iota
	Classifying
	Extracting
	Decoding
	Encoding
	Succeeded
	Failed
	Cancelled
)

var stateNames = [...]string{
	Pending:     "pending",
	Classifying: "classifying",
	Extracting:  "extracting",
	Decoding:    "decoding",
	Encoding:    "encoding",
	Succeeded:   "succeeded",
	Failed:      "failed",
	Cancelled:   "cancelled",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

func (s State) Terminal() bool {
	return s == Succeeded || s == Failed || s == Cancelled
}

// Task is one input file's conversion attempt.
type Task struct {
	Source string
	Kind   format.Kind
	Output string
	Format format.Output
	// Overwrites names an earlier task in the same batch that maps to the
	// same output path.
	Overwrites string
}

type Outcome struct {
	Task  Task
	State State
	// FailedIn is the stage that was running when the task failed.
	FailedIn State
	Kind     ErrorKind
	Err      error

	InputBytes  int64
	OutputBytes int64
	Duration    time.Duration
}

// Failure is the record handed to a ReportSink for each failed task.
type Failure struct {
	File    string
	Kind    ErrorKind
	Message string
}

// Report holds task outcomes in enumeration order plus the skipped inputs.
type Report struct {
	OutputDir string
	Outcomes  []Outcome
	Skipped   []string
	Elapsed   time.Duration
}

func (r *Report) count(s State) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.State == s {
			n++
		}
	}
	return n
}

func (r *Report) Succeeded() int { return r.count(Succeeded) }

func (r *Report) Failed() int { return r.count(Failed) }

func (r *Report) Cancelled() int { return r.count(Cancelled) }

func (r *Report) SkippedCount() int { return len(r.Skipped) }

// Attempted counts tasks that reached Succeeded or Failed.
func (r *Report) Attempted() int { return r.Succeeded() + r.Failed() }

// AllFailed reports a batch where tasks ran and none of them succeeded.
func (r *Report) AllFailed() bool {
	return r.Attempted() > 0 && r.Succeeded() == 0
}

func (r *Report) Failures() []Failure {
	var out []Failure
	for _, o := range r.Outcomes {
		if o.State == Failed {
			out = append(out, o.failure())
		}
	}
	return out
}

func (r *Report) Bytes() (in, out int64) {
	for _, o := range r.Outcomes {
		if o.State == Succeeded {
			in += o.InputBytes
			out += o.OutputBytes
		}
	}
	return in, out
}

func (o Outcome) failure() Failure {
	f := Failure{File: baseName(o.Task.Source), Kind: o.Kind}
	if o.Err != nil {
		f.Message = o.Err.Error()
	}
	return f
}
