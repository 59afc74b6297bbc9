package credential

import (
	"sync"
	"time"
)

// NoticeLifetime is how long a notice stays visible before auto-dismissing.
const NoticeLifetime = 5 * time.Second

// Level classifies a notice.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notice is a transient operator-facing message.
type Notice struct {
	Level   Level
	Message string
	Posted  time.Time
}

// Notifier receives success and failure notices from the component. Every
// operation reports its own outcome here; nothing propagates to a global
// handler.
type Notifier interface {
	Notify(level Level, message string)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(level Level, message string)

func (f NotifierFunc) Notify(level Level, message string) { f(level, message) }

// Noticeboard is a Notifier that retains notices for NoticeLifetime.
type Noticeboard struct {
	mu      sync.Mutex
	notices []Notice
	now     func() time.Time
}

// NewNoticeboard creates an empty noticeboard.
func NewNoticeboard() *Noticeboard {
	return &Noticeboard{now: time.Now}
}

// Notify records a notice.
func (b *Noticeboard) Notify(level Level, message string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.notices = append(b.notices, Notice{Level: level, Message: message, Posted: b.now()})
}

// Active returns the notices still within their lifetime and prunes the rest.
func (b *Noticeboard) Active() []Notice {
	b.mu.Lock()
	defer b.mu.Unlock()

	cutoff := b.now().Add(-NoticeLifetime)
	kept := b.notices[:0]
	for _, n := range b.notices {
		if n.Posted.After(cutoff) {
			kept = append(kept, n)
		}
	}
	b.notices = kept

	out := make([]Notice, len(kept))
	copy(out, kept)
	return out
}
