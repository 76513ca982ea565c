package clock

import (
	"sync"
	"time"
)

// Clock supplies the current time. Every deadline comparison in the system
// goes through a Clock so tests can pin or advance time deterministically.
type Clock interface {
	Now() time.Time
}

// System is the wall-clock implementation used in production wiring.
type System struct{}

func NewSystem() System { return System{} }

func (System) Now() time.Time { return time.Now().UTC() }

// Fake is a manually-advanced clock for tests. Safe for concurrent use.
type Fake struct {
	mu  sync.RWMutex
	now time.Time
}

func NewFake(start time.Time) *Fake {
	return &Fake{now: start.UTC()}
}

func (f *Fake) Now() time.Time {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.now
}

// Advance moves the fake clock forward by d.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

// Set pins the fake clock to t.
func (f *Fake) Set(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = t.UTC()
}
