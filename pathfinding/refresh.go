package pathfinding

import (
	"time"

	"github.com/jakecoffman/cp"
)

const DefaultRefreshInterval = 100 * time.Millisecond

// TargetLocator reports where the shared destination currently is. ok is
// false while there is nothing to track.
type TargetLocator interface {
	CurrentWorldPosition() (p cp.Vector, ok bool)
}

type LocatorFunc func() (cp.Vector, bool)

func (f LocatorFunc) CurrentWorldPosition() (cp.Vector, bool) {
	return f()
}

// Refresher decides when the field is recomputed: at most once per interval,
// and only when the target has moved to another cell or the field was marked
// dirty. It is the only thing that triggers passes implicitly.
type Refresher struct {
	field    *Field
	locator  TargetLocator
	interval time.Duration

	last    Coord
	hasLast bool
	lastRun time.Time
	dirty   bool
}

func NewRefresher(field *Field, locator TargetLocator, interval time.Duration) *Refresher {
	if interval < 0 {
		interval = 0
	}
	return &Refresher{field: field, locator: locator, interval: interval, dirty: true}
}

func (r *Refresher) Interval() time.Duration { return r.interval }

func (r *Refresher) SetInterval(d time.Duration) {
	if d >= 0 {
		r.interval = d
	}
}

// MarkDirty forces a pass on the next Update, bypassing the interval, e.g.
// after the grid was rebuilt.
func (r *Refresher) MarkDirty() {
	r.dirty = true
}

// Update polls the locator and runs a pass if one is due. It reports whether
// a pass ran.
func (r *Refresher) Update(now time.Time) bool {
	if r.locator == nil {
		return false
	}
	p, ok := r.locator.CurrentWorldPosition()
	if !ok {
		return false
	}
	cell := r.field.Grid().WorldToGrid(p)

	if !r.dirty {
		if r.hasLast && now.Sub(r.lastRun) < r.interval {
			return false
		}
		if r.hasLast && cell == r.last {
			return false
		}
	}

	r.field.Compute(cell)
	r.last = cell
	r.hasLast = true
	r.lastRun = now
	r.dirty = false
	return true
}
