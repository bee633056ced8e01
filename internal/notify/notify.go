// Package notify carries user-facing notices from the orchestration layer
// to whatever front end is attached.
package notify

import "sync"

type Kind int

const (
	// Info is a transient, non-error notice.
	Info Kind = iota
	// Error is a transient failure notice, shown once.
	Error
	// Persistent stays visible until the condition is fixed, such as a
	// missing server configuration.
	Persistent
)

func (k Kind) String() string {
	switch k {
	case Error:
		return "error"
	case Persistent:
		return "persistent"
	default:
		return "info"
	}
}

type Notice struct {
	Kind    Kind
	Title   string
	Message string
}

type Notifier interface {
	Notify(n Notice)
}

// Func adapts a function to a Notifier.
type Func func(Notice)

func (f Func) Notify(n Notice) { f(n) }

// Nop drops every notice.
var Nop Notifier = Func(func(Notice) {})

// Recorder keeps every notice. Safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	notices []Notice
}

func (r *Recorder) Notify(n Notice) {
	r.mu.Lock()
	r.notices = append(r.notices, n)
	r.mu.Unlock()
}

func (r *Recorder) Notices() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notice(nil), r.notices...)
}
