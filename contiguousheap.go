// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package dmaheap

import "unsafe"

// ContiguousHeap is a degenerate, one-shot allocator for a single
// physically-contiguous run, included only because it shares HeapOps
// with SystemHeap. It has no pool, no tiered orders, and no readiness
// latch.
type ContiguousHeap struct {
	host    Host
	helpers GenericHelpers
}

// NewContiguousHeap constructs a ContiguousHeap.
func NewContiguousHeap(opts ...Option) *ContiguousHeap {
	h := &SystemHeap{host: newMemHost(), helpers: defaultGenericHelpers()}
	for _, opt := range opts {
		opt(h)
	}
	return &ContiguousHeap{host: h.host, helpers: h.helpers}
}

// Allocate pads size up to a whole page and obtains it as a single
// physically-contiguous run via the host's general allocator, then
// constructs a one-entry scatter/gather table.
func (h *ContiguousHeap) Allocate(buf *Buffer, size int64, align int64, flags BufferFlags) error {
	_ = align
	size = pageAlign(size)

	page, err := h.host.AllocContiguous(size, LowOrderIntent)
	if err != nil {
		return ErrOutOfMemory
	}

	table := &SGTable{Entries: []SGEntry{{Page: page, Length: size}}}
	buf.Size = size
	buf.Flags = flags
	buf.PrivVirt = table
	buf.SGTable = table
	return nil
}

// Free releases the buffer's single run directly to the host. Cached or
// not, ContiguousHeap never pools anything.
func (h *ContiguousHeap) Free(buf *Buffer) {
	table := buf.SGTable
	if table == nil {
		return
	}
	for _, e := range table.Entries {
		h.host.FreePage(e.Page)
	}
	buf.SGTable = nil
	buf.PrivVirt = nil
}

// MapDMA returns the already-assembled one-entry table as-is.
func (h *ContiguousHeap) MapDMA(buf *Buffer) (*SGTable, error) {
	return buf.SGTable, nil
}

// UnmapDMA is a no-op.
func (h *ContiguousHeap) UnmapDMA(buf *Buffer) error {
	_ = buf
	return nil
}

// MapKernel delegates to the generic kernel-mapping helper.
func (h *ContiguousHeap) MapKernel(buf *Buffer) (unsafe.Pointer, error) {
	return h.helpers.MapKernel(buf)
}

// UnmapKernel delegates to the generic kernel-unmapping helper.
func (h *ContiguousHeap) UnmapKernel(buf *Buffer) error {
	return h.helpers.UnmapKernel(buf)
}

// MapUser delegates to the generic user-mapping helper.
func (h *ContiguousHeap) MapUser(buf *Buffer, vma *VMA) error {
	return h.helpers.MapUser(buf, vma)
}

// PhysAddr exposes the physical address backing buf's single run, as
// the originating design calls for.
func (h *ContiguousHeap) PhysAddr(buf *Buffer) uintptr {
	if buf.SGTable == nil || len(buf.SGTable.Entries) == 0 {
		return 0
	}
	page := buf.SGTable.Entries[0].Page
	if len(page.mem) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&page.mem[0]))
}
