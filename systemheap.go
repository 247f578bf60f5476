// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package dmaheap

import (
	"fmt"
	"unsafe"
)

// SystemHeap owns the pool array and implements the buffer-facing
// allocate/free contract (HeapOps), deciding pool bypass for cached
// buffers and driving zeroing and readiness.
type SystemHeap struct {
	pools  [len(Orders)]*PagePool
	packer *Packer
	host   Host
	device DeviceHandle

	helpers GenericHelpers

	// tablePoolCap is read once by NewSystemHeap after options run.
	tablePoolCap int

	// tablePool recycles *SGTable scratch objects across allocate/free
	// cycles instead of allocating one per call.
	tablePool *BoundedPool[*SGTable]
}

// Option configures a SystemHeap at construction time.
type Option func(*SystemHeap)

// WithHost overrides the default in-process Host simulator with a
// caller-supplied implementation (a real kernel binding, or a test
// double).
func WithHost(host Host) Option {
	return func(h *SystemHeap) { h.host = host }
}

// WithGenericHelpers overrides the kernel-virtual-mapping and
// user-mapping delegates that MapKernel/UnmapKernel/MapUser call
// through to.
func WithGenericHelpers(helpers GenericHelpers) Option {
	return func(h *SystemHeap) { h.helpers = helpers }
}

// WithTablePoolCapacity sets the capacity of the scatter/gather table
// recycling pool (rounded up to a power of two by BoundedPool). Default
// is 64.
func WithTablePoolCapacity(capacity int) Option {
	return func(h *SystemHeap) { h.tablePoolCap = capacity }
}

// NewSystemHeap constructs a SystemHeap with one PagePool per order in
// Orders, backed by device for DMA sync.
func NewSystemHeap(device DeviceHandle, opts ...Option) *SystemHeap {
	h := &SystemHeap{
		device:       device,
		host:         newMemHost(),
		helpers:      defaultGenericHelpers(),
		tablePoolCap: 64,
	}
	for _, opt := range opts {
		opt(h)
	}
	for i, o := range Orders {
		h.pools[i] = NewPagePool(o, intentFor(o), h.host)
	}
	h.packer = NewPacker(h.pools, h.host)

	h.tablePool = NewBoundedPool[*SGTable](h.tablePoolCap)
	h.tablePool.SetNonblock(true)
	h.tablePool.Fill(func() *SGTable { return &SGTable{} })
	return h
}

// Allocate pads size up to a whole number of pages, packs it into runs,
// assembles a scatter/gather table, and latches readiness when the
// result is already known to be zeroed and cache-clean.
//
// align is accepted but no stronger alignment than one page is
// guaranteed; this design relies on the host's natural page alignment.
func (h *SystemHeap) Allocate(buf *Buffer, size int64, align int64, flags BufferFlags) error {
	_ = align
	size = pageAlign(size)

	runs, err := h.packer.Pack(size, flags)
	if err != nil {
		return ErrOutOfMemory
	}

	table := h.checkoutTable()
	buildSGTable(table, runs, flags&FlagFaultUserMappings != 0)

	allFromPool := true
	for _, r := range runs {
		if !r.FromPool {
			allFromPool = false
			break
		}
	}

	if flags&FlagSyncForce != 0 {
		_ = h.host.DMASync(h.device, table)
	}
	// Pooled pages are already zeroed and cache-clean from a prior
	// free, so no pre-use DMA sync is required on first use in that
	// case; otherwise the buffer is deferred-ready and a later mapping
	// path must arrange cache coherence before first device access.
	if allFromPool || flags&FlagSyncForce != 0 {
		buf.MarkReady()
	}

	buf.Size = size
	buf.Flags = flags
	buf.PrivVirt = table
	buf.SGTable = table
	return nil
}

// Free zeroes non-cached, non-NoZeroed pages via the matching pool's
// Free (the pool always zeroes on return), then returns every run either
// to its pool or directly to the host.
//
// NoZeroed is treated as an additional pool-bypass condition: a pooled
// page must always be zero, so a buffer that explicitly skipped zeroing
// can never be pushed onto a pool.
func (h *SystemHeap) Free(buf *Buffer) {
	table := buf.SGTable
	if table == nil {
		return
	}

	bypassPool := buf.Flags&FlagCached != 0 ||
		buf.Flags&FlagFaultUserMappings != 0 ||
		buf.Flags&FlagNoZeroed != 0

	for _, e := range table.Entries {
		order := orderFromLength(e.Length)
		run := &Run{Base: e.Page, Order: order}
		if bypassPool {
			h.host.FreeRun(run)
			continue
		}
		h.poolForOrder(order).Free(run)
	}

	h.releaseTable(table)
	buf.SGTable = nil
	buf.PrivVirt = nil
}

// MapDMA returns the already-assembled table as-is; DMA address
// resolution is deferred to a downstream mapper.
func (h *SystemHeap) MapDMA(buf *Buffer) (*SGTable, error) {
	return buf.SGTable, nil
}

// UnmapDMA is a no-op.
func (h *SystemHeap) UnmapDMA(buf *Buffer) error {
	_ = buf
	return nil
}

// MapKernel delegates to the generic kernel-mapping helper supplied by
// the subsystem.
func (h *SystemHeap) MapKernel(buf *Buffer) (unsafe.Pointer, error) {
	return h.helpers.MapKernel(buf)
}

// UnmapKernel delegates to the generic kernel-unmapping helper.
func (h *SystemHeap) UnmapKernel(buf *Buffer) error {
	return h.helpers.UnmapKernel(buf)
}

// MapUser delegates to the generic user-mapping helper.
func (h *SystemHeap) MapUser(buf *Buffer, vma *VMA) error {
	return h.helpers.MapUser(buf, vma)
}

// Shrink invokes Shrink(targetPerPool) on every order's pool, fanning
// out the host's memory-pressure hook across the pool array, and
// reports the total number of runs relinquished.
func (h *SystemHeap) Shrink(targetPerPool int) int {
	total := 0
	for _, p := range h.pools {
		total += p.Shrink(targetPerPool)
	}
	return total
}

// Close tears the heap down, returning every pooled resident to the
// host.
func (h *SystemHeap) Close() {
	for _, p := range h.pools {
		p.Shrink(0)
	}
}

// DumpDebug emits, per order, the high and low residency counts and
// their byte totals, in the format:
//
//	"<high_count> order <o> highmem pages in pool = <bytes> total"
//	"<low_count> order <o> lowmem pages in pool = <bytes> total"
func (h *SystemHeap) DumpDebug(w func(string)) {
	for i, o := range Orders {
		p := h.pools[i]
		hc, lc := p.CountHigh(), p.CountLow()
		w(fmt.Sprintf("%d order %d highmem pages in pool = %d total", hc, int(o), int64(hc)*o.Bytes()))
		w(fmt.Sprintf("%d order %d lowmem pages in pool = %d total", lc, int(o), int64(lc)*o.Bytes()))
	}
}

func (h *SystemHeap) poolForOrder(o Order) *PagePool {
	return h.pools[indexOfOrder(o)]
}

func (h *SystemHeap) checkoutTable() *SGTable {
	idx, err := h.tablePool.Get()
	if err != nil {
		return &SGTable{}
	}
	t := h.tablePool.Value(idx)
	t.poolIdx = idx
	t.pooled = true
	return t
}

func (h *SystemHeap) releaseTable(t *SGTable) {
	if !t.pooled {
		return
	}
	t.Entries = t.Entries[:0]
	_ = h.tablePool.Put(t.poolIdx)
}
