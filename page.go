// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package dmaheap

// Page is an opaque reference to a physical page frame provided by the
// host memory system. Callers never touch mem directly; it exists so the
// default Host implementation can simulate physically-backed storage.
type Page struct {
	mem       []byte
	residency Residency
}

// Residency reports where this page's backing memory lives.
func (p *Page) Residency() Residency { return p.residency }

// Run is an immutable record of a contiguous physical run produced by an
// allocation attempt. Runs are transient: they exist from the moment the
// packer obtains them until the moment they are installed into a
// scatter/gather table, at which point Order and FromPool have been
// consumed and the Run values are discarded.
type Run struct {
	// Base is the base page handle of the run.
	Base *Page
	// Order is the run's order as originally allocated; it is retained
	// even if the run was later split, solely for free-path symmetry.
	Order Order
	// FromPool is an optimistic label: true if the pool's counters were
	// non-zero immediately before this run was requested. A pool may
	// race and refill from the host (or drain) between the inspection
	// and the allocation that produced this run, so the label can be
	// wrong; mislabelling only affects the aggregate readiness
	// heuristic and is otherwise harmless.
	FromPool bool

	// pages holds the constituent single pages when this run was split
	// for FlagFaultUserMappings. Nil for an unsplit run.
	pages []*Page
}

// residency returns the run's residency, taken from its base page.
func (r *Run) residency() Residency {
	return r.Base.residency
}

// Split reports whether this run was split into single pages.
func (r *Run) Split() bool { return r.pages != nil }
