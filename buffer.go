// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package dmaheap

import (
	"sync/atomic"
	"unsafe"
)

// Buffer is the external, buffer-facing contract the heap reads and
// writes. The top-level shared-buffer subsystem that issues allocation
// requests and holds per-client bookkeeping is out of scope here; Buffer
// is the minimal slice of that subsystem's bookkeeping a HeapOps
// implementation needs.
type Buffer struct {
	// Size is the requested size in bytes, set by Allocate to the
	// page-aligned size actually backing the buffer.
	Size int64
	// Flags is the buffer flag set recognized by this allocator (see
	// BufferFlags); any other bits are ignored.
	Flags BufferFlags
	// PrivVirt is an opaque slot the heap uses to stash the scatter/
	// gather table handle.
	PrivVirt any
	// SGTable is the scatter/gather table handle used on the free path.
	SGTable *SGTable

	ready atomic.Bool
}

// MarkReady latches buffer readiness. It is a one-way latch: once set,
// it stays set for the buffer's lifetime.
func (b *Buffer) MarkReady() { b.ready.Store(true) }

// Ready reports whether the buffer has been latched ready.
func (b *Buffer) Ready() bool { return b.ready.Load() }

// VMA is an opaque reference to the virtual memory area a buffer is
// being mapped into; user-space mapping and the page-fault handler are
// out of scope for this component, so VMA carries no behavior here.
type VMA struct {
	Addr unsafe.Pointer
	Size int64
}

// HeapOps is the heap-operations interface consumed by the outer
// shared-buffer subsystem: a record of function pointers in the
// originating design, realized here as a method set.
type HeapOps interface {
	Allocate(buf *Buffer, size int64, align int64, flags BufferFlags) error
	Free(buf *Buffer)
	MapDMA(buf *Buffer) (*SGTable, error)
	UnmapDMA(buf *Buffer) error
	MapKernel(buf *Buffer) (unsafe.Pointer, error)
	UnmapKernel(buf *Buffer) error
	MapUser(buf *Buffer, vma *VMA) error
}

// GenericHelpers holds the kernel-virtual-mapping and user-mapping
// helpers that a HeapOps implementation delegates to; these live in the
// outer subsystem and are out of scope here, so the defaults return
// ErrNotSupported. Supply your own via an Option to NewSystemHeap.
type GenericHelpers struct {
	MapKernel   func(buf *Buffer) (unsafe.Pointer, error)
	UnmapKernel func(buf *Buffer) error
	MapUser     func(buf *Buffer, vma *VMA) error
}

func defaultGenericHelpers() GenericHelpers {
	return GenericHelpers{
		MapKernel:   func(*Buffer) (unsafe.Pointer, error) { return nil, ErrNotSupported },
		UnmapKernel: func(*Buffer) error { return ErrNotSupported },
		MapUser:     func(*Buffer, *VMA) error { return ErrNotSupported },
	}
}
