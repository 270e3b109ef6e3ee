package sequencer

// ProgressSink displays run progress. Every method is called on the UI
// thread: Begin from Run itself, Step before each step starts, End just
// before the completion callback.
type ProgressSink interface {
	Begin(total int)
	Step(index, total int, title, status string)
	End()
}

// NopSink discards progress.
type NopSink struct{}

func (NopSink) Begin(int) {}

func (NopSink) Step(int, int, string, string) {}

func (NopSink) End() {}
