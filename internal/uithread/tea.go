package uithread

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// RunMsg carries a closure onto the Bubble Tea update loop. The root model
// must call Exec when it receives one.
type RunMsg struct {
	fn func()
}

// Exec runs the carried closure. A zero RunMsg is a no-op.
func (m RunMsg) Exec() {
	if m.fn != nil {
		m.fn()
	}
}

// Sender is the subset of *tea.Program used to deliver messages.
type Sender interface {
	Send(msg tea.Msg)
}

// TeaPoster posts closures to a running Bubble Tea program. Closures are
// delivered in post order by a single forwarding goroutine, so Post never
// blocks, even when called from inside Update while the program is busy.
//
// The program usually needs the poster before it exists (the model holds
// collaborators built on it), so the sender can be bound later with Bind.
// Closures posted before that are held until then.
type TeaPoster struct {
	mu     sync.Mutex
	sender Sender
	queue  []func()
	closed bool

	wake      chan struct{}
	done      chan struct{}
	startOnce sync.Once
	closeOnce sync.Once
}

// NewTeaPoster creates a poster that delivers through sender, which may be
// nil until Bind is called.
func NewTeaPoster(sender Sender) *TeaPoster {
	return &TeaPoster{
		sender: sender,
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// Bind sets the program to deliver to and flushes anything already posted.
func (p *TeaPoster) Bind(sender Sender) {
	p.mu.Lock()
	p.sender = sender
	p.mu.Unlock()
	p.signal()
}

// Post queues fn for the update loop. Closures posted after Close are
// dropped.
func (p *TeaPoster) Post(fn func()) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.queue = append(p.queue, fn)
	p.mu.Unlock()

	p.startOnce.Do(func() { go p.forward() })
	p.signal()
}

// Close stops forwarding. Queued closures are dropped.
func (p *TeaPoster) Close() {
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		p.queue = nil
		p.mu.Unlock()
		close(p.done)
	})
}

func (p *TeaPoster) signal() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

func (p *TeaPoster) forward() {
	for {
		select {
		case <-p.wake:
		case <-p.done:
			return
		}
		for {
			p.mu.Lock()
			if p.sender == nil || len(p.queue) == 0 || p.closed {
				p.mu.Unlock()
				break
			}
			fn := p.queue[0]
			p.queue = p.queue[1:]
			sender := p.sender
			p.mu.Unlock()

			sender.Send(RunMsg{fn: fn})
		}
	}
}

// Cmd turns fn into a tea.Cmd that runs fn on the update loop. Used by code
// that is already inside Update and wants to defer work to the next turn.
func Cmd(fn func()) tea.Cmd {
	return func() tea.Msg {
		return RunMsg{fn: fn}
	}
}
