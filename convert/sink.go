package convert

// ProgressSink receives (completed, total) after every task that reaches
// Succeeded or Failed. Calls are serialized and completed never decreases.
type ProgressSink interface {
	Progress(completed, total int)
}

type ProgressFunc func(completed, total int)

func (f ProgressFunc) Progress(completed, total int) { f(completed, total) }

// ReportSink receives one record per failed task and one notice when a
// batch finds nothing to convert. Calls are serialized.
type ReportSink interface {
	TaskFailed(f Failure)
	NoSupportedFiles(location string)
}

type nopSink struct{}

func (nopSink) Progress(int, int)       {}
func (nopSink) TaskFailed(Failure)      {}
func (nopSink) NoSupportedFiles(string) {}

// MultiSink fans records out to every sink in order.
type MultiSink []ReportSink

func (m MultiSink) TaskFailed(f Failure) {
	for _, s := range m {
		s.TaskFailed(f)
	}
}

func (m MultiSink) NoSupportedFiles(location string) {
	for _, s := range m {
		s.NoSupportedFiles(location)
	}
}
