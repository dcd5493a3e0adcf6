package archive

import "sync/atomic"

// ProgressDone is the terminal sentinel reported once an operation has fully
// completed. It is distinct from 100 so a consumer can tell "at 100%, still
// flushing" apart from "finished".
const ProgressDone = 101

// Progress is a shared percentage counter between a worker and a
// presentation layer. The worker stores values, consumers poll with Get.
// The value is advisory only; no ordering guarantees are needed, so plain
// atomic loads and stores suffice.
type Progress struct {
	pct atomic.Uint32
}

// NewProgress returns a Progress starting at zero.
func NewProgress() *Progress { return &Progress{} }

// Set updates the counter to the given percentage (0-100).
func (p *Progress) Set(pct uint32) { p.pct.Store(pct) }

// Get reads the current value.
func (p *Progress) Get() uint32 { return p.pct.Load() }

// Done marks the operation complete.
func (p *Progress) Done() { p.Set(ProgressDone) }
