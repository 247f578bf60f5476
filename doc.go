// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package dmaheap implements a tiered page-allocation backend for a
// shared-buffer subsystem that hands out physically-discontiguous memory
// regions to DMA-capable peripherals (GPU, display, camera, codec).
//
// # Allocation orders
//
// Allocations are decomposed over a fixed, descending set of orders (a
// run of order o spans 1<<o pages):
//
//	Order  Pages  Bytes (4 KiB page)
//	────   ────   ──────────────────
//	8      256    1 MiB
//	4      16     64 KiB
//	0      1      4 KiB
//
// # Packer
//
// Packer.Pack greedily decomposes a requested byte size into an ordered
// list of runs, largest order first, biasing the resulting scatter/gather
// table toward a small number of large runs:
//
//	runs, err := packer.Pack(size, flags)
//
// # Page pools
//
// Each order owns a PagePool: a mutex-guarded pair of LIFO stacks (high
// memory, low memory) caching freed runs so repeat allocation avoids the
// zeroing and reclaim cost of going back to the host. Non-cached buffers
// are served from the pool; cached buffers bypass it entirely.
//
// # System heap
//
// SystemHeap ties pools and packer together behind the buffer-facing
// allocate/free contract (HeapOps):
//
//	heap := dmaheap.NewSystemHeap(dev)
//	buf := &dmaheap.Buffer{}
//	if err := heap.Allocate(buf, size, 0, dmaheap.FlagCached); err != nil {
//	    // handle dmaheap.ErrOutOfMemory
//	}
//	defer heap.Free(buf)
//
// # Contiguous heap
//
// ContiguousHeap is a degenerate, one-shot allocator for a single
// physically-contiguous run; it implements the same HeapOps contract but
// owns no pools, no tiered orders, and no readiness latch.
//
// # Host abstraction
//
// The real page source (kernel page allocator, DMA sync primitive) is
// modeled by the Host interface so the allocator state machine can be
// exercised without a kernel build. The default implementation is a
// Go-heap-backed simulator built on page-aligned memory helpers.
//
// # Dependencies
//
// dmaheap depends on:
//   - iox: Semantic error types (ErrWouldBlock)
//   - spin: Spin-wait primitives used by the scatter/gather table pool
package dmaheap
