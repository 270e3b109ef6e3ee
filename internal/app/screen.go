package app

import (
	"fmt"

	"github.com/zjrosen/aftershock/internal/ui/modal"
)

// Screen is the controller's presenter. The controller calls it on the
// update loop, either from a key handler or from a posted closure; Model
// drains what it queued after every message.
type Screen struct {
	busy   bool
	title  string
	status string
	index  int
	total  int

	dialogs []modal.Config
	notices []string

	// reportStale is set when an operation completes and the rendered
	// forecast may no longer match the controller.
	reportStale bool
}

// NewScreen creates an idle screen.
func NewScreen() *Screen {
	return &Screen{}
}

// Begin marks a run as started.
func (s *Screen) Begin(total int) {
	s.busy = true
	s.total = total
	s.index = 0
	s.title = ""
	s.status = ""
}

// Step records the step about to run.
func (s *Screen) Step(index, total int, title, status string) {
	s.index = index
	s.total = total
	s.title = title
	s.status = status
}

// End marks the run as finished.
func (s *Screen) End() {
	s.busy = false
	s.reportStale = true
}

// ShowError queues a message dialog.
func (s *Screen) ShowError(title, message string) {
	s.dialogs = append(s.dialogs, modal.Config{Title: title, Message: message, Kind: modal.KindError})
}

// ShowNotice queues a transient notice.
func (s *Screen) ShowNotice(message string) {
	s.notices = append(s.notices, message)
}

// Busy reports whether a run is in progress.
func (s *Screen) Busy() bool { return s.busy }

// Progress describes the running step, e.g. "Fetch aftershocks (2/3)".
func (s *Screen) Progress() string {
	if !s.busy {
		return ""
	}
	if s.title == "" {
		return "Starting"
	}
	text := fmt.Sprintf("%s (%d/%d)", s.title, s.index+1, s.total)
	if s.status != "" {
		text += " " + s.status
	}
	return text
}

func (s *Screen) takeDialog() (modal.Config, bool) {
	if len(s.dialogs) == 0 {
		return modal.Config{}, false
	}
	d := s.dialogs[0]
	s.dialogs = s.dialogs[1:]
	return d, true
}

func (s *Screen) takeNotices() []string {
	n := s.notices
	s.notices = nil
	return n
}
