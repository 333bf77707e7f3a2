// Package views tracks UI views that must suppress automatic locking while open.
package views

import (
	"context"
	"sort"
	"sync"
)

// Tracker counts open blocking views by name. The same view may be opened
// more than once; it stays open until every opener has released it.
type Tracker struct {
	mu   sync.Mutex
	open map[string]int
}

// NewTracker returns a Tracker with no open views.
func NewTracker() *Tracker {
	return &Tracker{open: make(map[string]int)}
}

// Open marks name as open and returns a release func. Calling release more
// than once has no further effect.
func (t *Tracker) Open(name string) (release func()) {
	t.mu.Lock()
	t.open[name]++
	t.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { t.Close(name) })
	}
}

// Close releases one opener of name. Closing a view that is not open is a no-op.
func (t *Tracker) Close(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	n, ok := t.open[name]
	if !ok {
		return
	}
	if n <= 1 {
		delete(t.open, name)
		return
	}
	t.open[name] = n - 1
}

// IsBlockingViewOpen reports whether any blocking view is open.
func (t *Tracker) IsBlockingViewOpen(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.open) > 0, nil
}

// Names returns the sorted names of open views.
func (t *Tracker) Names() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	names := make([]string, 0, len(t.open))
	for name := range t.open {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
