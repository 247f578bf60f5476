// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package dmaheap

import "sync"

// PagePool caches freed runs of a single fixed order, split into two
// LIFO stacks by residency, so repeat allocation at that order amortises
// the zeroing and host-reclaim cost of going back to the kernel page
// allocator.
//
// Every run ever pushed onto a stack was obtained as a run of exactly
// order; PagePool never mixes orders, and no run is ever resident on two
// pools or on both of a pool's stacks at once.
//
// All four operations take pool's mutex; PagePool has no condition
// variables and performs no waiting beyond the mutex itself, so a
// concurrent shrinker invocation can never block indefinitely behind a
// single allocation.
type PagePool struct {
	_ noCopy

	mu sync.Mutex

	order  Order
	intent AllocIntent
	host   Host

	highStack []*Run
	lowStack  []*Run
	highCount int
	lowCount  int
}

// NewPagePool constructs a PagePool for the given order, using intent
// when it must refill from host.
func NewPagePool(order Order, intent AllocIntent, host Host) *PagePool {
	return &PagePool{order: order, intent: intent, host: host}
}

// Order returns the fixed order this pool caches.
func (p *PagePool) Order() Order { return p.order }

// Alloc serves a run in preference order: high memory, then low memory,
// then a fresh host allocation at this pool's order. It returns a nil
// run and a non-nil error only if the fresh allocation fails.
//
// alloc() prefers high memory when both stacks are non-empty: high
// memory is cheaper to release back to the system, so keeping low
// memory warm favors kernel-critical paths that need it.
func (p *PagePool) Alloc() (*Run, error) {
	p.mu.Lock()
	if n := len(p.highStack); n > 0 {
		run := p.highStack[n-1]
		p.highStack = p.highStack[:n-1]
		p.highCount--
		p.mu.Unlock()
		return run, nil
	}
	if n := len(p.lowStack); n > 0 {
		run := p.lowStack[n-1]
		p.lowStack = p.lowStack[:n-1]
		p.lowCount--
		p.mu.Unlock()
		return run, nil
	}
	p.mu.Unlock()

	return p.host.AllocRun(p.order, p.intent)
}

// Free zeroes run, then pushes it onto the high or low stack according
// to its residency. A pooled page is always zero: zeroing happens here,
// at return time, not at Alloc time.
func (p *PagePool) Free(run *Run) {
	_ = p.host.ZeroRun(run)

	p.mu.Lock()
	defer p.mu.Unlock()
	switch run.residency() {
	case ResidencyHigh:
		p.highStack = append(p.highStack, run)
		p.highCount++
	default:
		p.lowStack = append(p.lowStack, run)
		p.lowCount++
	}
}

// Shrink pops runs off the stacks — low stack first, then high — and
// returns them to the host until the pool holds at most target runs or
// both stacks are empty. It reports how many runs it relinquished. Both
// counts are in runs of this pool's order, the same unit as CountHigh
// and CountLow.
func (p *PagePool) Shrink(target int) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	reclaimed := 0
	for p.highCount+p.lowCount > target && p.lowCount > 0 {
		n := len(p.lowStack)
		run := p.lowStack[n-1]
		p.lowStack = p.lowStack[:n-1]
		p.lowCount--
		p.host.FreeRun(run)
		reclaimed++
	}
	for p.highCount+p.lowCount > target && p.highCount > 0 {
		n := len(p.highStack)
		run := p.highStack[n-1]
		p.highStack = p.highStack[:n-1]
		p.highCount--
		p.host.FreeRun(run)
		reclaimed++
	}
	return reclaimed
}

// CountHigh returns the number of high-memory runs currently cached.
func (p *PagePool) CountHigh() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.highCount
}

// CountLow returns the number of low-memory runs currently cached.
func (p *PagePool) CountLow() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lowCount
}

// Occupied reports whether either stack currently holds a run. The
// packer uses this, under the pool's mutex, to optimistically label a
// run it is about to request as from_pool; the pool may race and refill
// or drain between this call and the following Alloc.
func (p *PagePool) Occupied() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.highCount+p.lowCount > 0
}
