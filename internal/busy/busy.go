// Package busy implements a reference-counted busy indicator: it reports
// busy while at least one tracked operation is outstanding, so overlapping
// lookups cannot clear each other's indicator.
package busy

import (
	"sync"
	"sync/atomic"

	"github.com/voyagen/wolfflix/internal/metrics"
)

// Tracker counts outstanding operations.
type Tracker struct {
	n atomic.Int64
}

// Default is the process-wide tracker used by the provider client.
var Default = &Tracker{}

// Begin marks an operation as started. The returned func marks it finished;
// calling it more than once has no further effect.
func (t *Tracker) Begin() (done func()) {
	t.n.Add(1)
	metrics.InFlight.Inc()
	var once sync.Once
	return func() {
		once.Do(func() {
			t.n.Add(-1)
			metrics.InFlight.Dec()
		})
	}
}

// Busy reports whether any operation is outstanding.
func (t *Tracker) Busy() bool {
	return t.n.Load() > 0
}

// InFlight returns the number of outstanding operations.
func (t *Tracker) InFlight() int64 {
	return t.n.Load()
}
