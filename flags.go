// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package dmaheap

// BufferFlags are the buffer flag bits recognized by this allocator. Any
// other bits a caller sets are ignored.
type BufferFlags uint32

const (
	// FlagCached requests a CPU-cacheable mapping. Cached buffers bypass
	// the page pools entirely, both on allocate and on free.
	FlagCached BufferFlags = 1 << iota
	// FlagFaultUserMappings indicates the buffer will be mapped page by
	// page via a fault handler; multi-page runs are split into
	// constituent single pages so each can be installed independently.
	FlagFaultUserMappings
	// FlagNoZeroed skips zeroing on free. Because a pooled page must
	// always be zero (see PagePool), a NoZeroed run is never returned to
	// a pool — it is freed directly to the host instead.
	FlagNoZeroed
	// FlagSyncForce forces a DMA sync before the buffer is marked ready.
	FlagSyncForce
)

// AllocIntent is a bundle of allocation-intent flags communicated to the
// Host when a pool or the contiguous heap must refill from it.
type AllocIntent uint32

const (
	intentUserClass AllocIntent = 1 << iota
	intentNoWarn
	intentNoRetry
	intentNoWake
	intentNoWait
)

// LowOrderIntent is used for single-page (order 0) allocation and
// refill: user-class, no warning, allow normal reclaim.
var LowOrderIntent = intentUserClass | intentNoWarn

// HighOrderIntent is used for order > 0 allocation and refill:
// user-class, no warning, no retry, no wake of background reclaim, no
// waiting. Higher-order allocations that cannot be satisfied quickly
// fail fast so the packer can fall back to a smaller order rather than
// stall or trigger an expensive reclaim cascade.
var HighOrderIntent = intentUserClass | intentNoWarn | intentNoRetry | intentNoWake | intentNoWait

// intentFor returns the allocation-intent bundle for order o.
func intentFor(o Order) AllocIntent {
	if o == 0 {
		return LowOrderIntent
	}
	return HighOrderIntent
}
