// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package dmaheap

// DeviceHandle is an opaque reference to the DMA-capable device a heap
// syncs against. It is passed through to Host.DMASync unexamined.
type DeviceHandle any

// Host is the external collaborator that owns physical page frames. It
// models the kernel page allocator and the DMA sync primitive that the
// system heap and contiguous heap drive; this interface is the seam a
// real kernel build (or a test double) plugs into.
type Host interface {
	// AllocRun allocates a fresh, physically-contiguous run of
	// order.Pages() pages under the given allocation intent. Returns an
	// error only on allocation failure.
	AllocRun(order Order, intent AllocIntent) (*Run, error)
	// AllocContiguous allocates a single physically-contiguous run sized
	// to hold size bytes, for the degenerate contiguous heap. size must
	// already be page-aligned.
	AllocContiguous(size int64, intent AllocIntent) (*Page, error)
	// FreeRun releases a run (obtained from AllocRun or reconstructed
	// from a scatter/gather entry) back to the host. Never fails.
	FreeRun(run *Run)
	// FreePage releases a single page (obtained from AllocContiguous, or
	// from SplitRun) back to the host. Never fails.
	FreePage(page *Page)
	// ZeroRun zeroes every byte of run. Zeroing errors are not expected
	// in the default implementation; a real kernel host should contain
	// them rather than propagate, so that freeing always completes.
	ZeroRun(run *Run) error
	// SplitRun splits a run into its constituent single pages so each
	// may be mapped independently into user space. The returned pages
	// alias the run's memory; the run itself must not be used again.
	SplitRun(run *Run) []*Page
	// DMASync issues a DMA sync for the given scatter/gather table
	// against dev.
	DMASync(dev DeviceHandle, table *SGTable) error
}

// memHost is the default Host: a Go-heap-backed simulator built on
// page-aligned memory, letting the allocator state machine run and be
// tested without a kernel build.
type memHost struct{}

// newMemHost returns the default in-process Host implementation.
func newMemHost() Host { return memHost{} }

func (memHost) AllocRun(order Order, intent AllocIntent) (*Run, error) {
	mem := AlignedMem(int(order.Bytes()), PageSize)
	return &Run{
		Base:  &Page{mem: mem, residency: residencyFor(intent)},
		Order: order,
	}, nil
}

func (memHost) AllocContiguous(size int64, intent AllocIntent) (*Page, error) {
	mem := AlignedMem(int(size), PageSize)
	return &Page{mem: mem, residency: residencyFor(intent)}, nil
}

func (memHost) FreeRun(run *Run) {
	// Go's GC reclaims the backing array; nothing to do but drop the
	// reference, which the caller does by discarding run.
	_ = run
}

func (memHost) FreePage(page *Page) {
	_ = page
}

func (memHost) ZeroRun(run *Run) error {
	clear(run.Base.mem)
	return nil
}

func (memHost) SplitRun(run *Run) []*Page {
	n := int(run.Order.Pages())
	pages := make([]*Page, n)
	ps := int(PageSize)
	for i := range n {
		pages[i] = &Page{
			mem:       run.Base.mem[i*ps : (i+1)*ps : (i+1)*ps],
			residency: run.Base.residency,
		}
	}
	return pages
}

func (memHost) DMASync(dev DeviceHandle, table *SGTable) error {
	_, _ = dev, table
	return nil
}

// residencyFor derives a simulated residency class from the allocation
// intent actually used: high-order intent (order > 0) is modeled as
// high memory, low-order intent as directly-mapped low memory.
func residencyFor(intent AllocIntent) Residency {
	if intent&intentNoWait != 0 {
		return ResidencyHigh
	}
	return ResidencyLow
}
