// Package deps implements the per-batch dependency tracker: which
// variables an evaluation read, which handler commands wrote, and the
// earliest GetTimeAndClamp wake-up boundary seen along the way.
package deps

import (
	"math"

	"github.com/boldui/core/protocol"
)

// VarID names a variable by its owning scene and key, the unit the
// tracker accumulates reads and writes over.
type VarID struct {
	Scene protocol.SceneID
	Key   string
}

// Tracker accumulates reads/writes/next_wakeup for one evaluation batch
// (one update application or one input event dispatch).
type Tracker struct {
	Reads      map[VarID]struct{}
	Writes     map[VarID]struct{}
	NextWakeup float64
}

// New returns a Tracker with an empty accumulation and no pending wake-up.
func New() *Tracker {
	return &Tracker{
		Reads:      make(map[VarID]struct{}),
		Writes:     make(map[VarID]struct{}),
		NextWakeup: math.Inf(1),
	}
}

// RecordRead notes that v was read during evaluation.
func (t *Tracker) RecordRead(v VarID) {
	t.Reads[v] = struct{}{}
}

// RecordWrite notes that v was written by a handler command.
func (t *Tracker) RecordWrite(v VarID) {
	t.Writes[v] = struct{}{}
}

// RecordWakeup folds a GetTimeAndClamp high boundary into the running
// minimum; a nil wakeup (no boundary pending) leaves NextWakeup unchanged.
func (t *Tracker) RecordWakeup(wakeup *float64) {
	if wakeup == nil {
		return
	}
	if *wakeup < t.NextWakeup {
		t.NextWakeup = *wakeup
	}
}

// HasWakeup reports whether any GetTimeAndClamp recorded a finite boundary.
func (t *Tracker) HasWakeup() bool {
	return !math.IsInf(t.NextWakeup, 1)
}

// Intersects reports whether any key in writes also appears in t.Reads —
// the redraw-scheduling test: a root scene whose var_deps intersects the
// batch's writes gets a redraw.
func (t *Tracker) Intersects(writes map[VarID]struct{}) bool {
	for v := range writes {
		if _, ok := t.Reads[v]; ok {
			return true
		}
	}
	return false
}
