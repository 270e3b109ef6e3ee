// Package metrics records timing data for sequencer runs so the status bar
// and the history store can report how long operations took.
package metrics

import (
	"fmt"
	"sync"
	"time"
)

// StepTiming is the measured duration of one sequencer step.
type StepTiming struct {
	Title    string        `json:"title"`
	Thread   string        `json:"thread"`
	Duration time.Duration `json:"duration"`
	Failed   bool          `json:"failed"`
}

// RunMetrics summarizes one sequencer run.
type RunMetrics struct {
	RunID      string        `json:"run_id"`
	Name       string        `json:"name"`
	Steps      []StepTiming  `json:"steps"`
	Elapsed    time.Duration `json:"elapsed"`
	Succeeded  bool          `json:"succeeded"`
	Canceled   bool          `json:"canceled"`
	FinishedAt time.Time     `json:"finished_at"`
}

// WorkerTime returns the total time spent in worker steps.
func (m RunMetrics) WorkerTime() time.Duration {
	var total time.Duration
	for _, s := range m.Steps {
		if s.Thread == "worker" {
			total += s.Duration
		}
	}
	return total
}

// FormatElapsed returns a compact duration string (e.g., "850ms", "1.2s").
func (m RunMetrics) FormatElapsed() string {
	return FormatDuration(m.Elapsed)
}

// FormatStatus returns a one-line status bar summary
// (e.g., "Fit parameters ok in 1.2s, worker 1.1s").
func (m RunMetrics) FormatStatus() string {
	result := "ok"
	switch {
	case m.Canceled:
		result = "canceled"
	case !m.Succeeded:
		result = "failed"
	}
	status := fmt.Sprintf("%s %s in %s", m.Name, result, m.FormatElapsed())
	if w := m.WorkerTime(); w > 0 {
		status += ", worker " + FormatDuration(w)
	}
	return status
}

// FormatDuration renders d with millisecond precision below one second and
// one decimal of seconds above it.
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

// DefaultCapacity is the number of runs a Recorder keeps.
const DefaultCapacity = 50

// Recorder keeps the most recent run metrics. Safe for concurrent use:
// runs are recorded from worker goroutines and read on the UI thread.
type Recorder struct {
	mu       sync.Mutex
	runs     []RunMetrics
	capacity int
	total    int
	failures int
}

// NewRecorder creates a recorder keeping up to capacity runs.
func NewRecorder(capacity int) *Recorder {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Recorder{capacity: capacity}
}

// Record appends m, evicting the oldest run when full.
func (r *Recorder) Record(m RunMetrics) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.total++
	if !m.Succeeded {
		r.failures++
	}
	r.runs = append(r.runs, m)
	if len(r.runs) > r.capacity {
		r.runs = r.runs[len(r.runs)-r.capacity:]
	}
}

// Last returns the most recent run.
func (r *Recorder) Last() (RunMetrics, bool) {
	if r == nil {
		return RunMetrics{}, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.runs) == 0 {
		return RunMetrics{}, false
	}
	return r.runs[len(r.runs)-1], true
}

// Runs returns a copy of the retained runs, oldest first.
func (r *Recorder) Runs() []RunMetrics {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]RunMetrics, len(r.runs))
	copy(out, r.runs)
	return out
}

// Totals returns the number of runs recorded and how many of them failed,
// including runs already evicted.
func (r *Recorder) Totals() (runs, failures int) {
	if r == nil {
		return 0, 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.total, r.failures
}
