// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package dmaheap

import "math/bits"

// Order is the base-2 logarithm of a run's page count: a run of order o
// spans 1<<o contiguous pages.
type Order int

// Orders is the fixed, descending set of allowed orders shared by every
// pool and the packer. It is compile-time and never mutated.
var Orders = [...]Order{8, 4, 0}

// Pages returns the page count spanned by a run of this order.
func (o Order) Pages() int64 { return 1 << uint(o) }

// Bytes returns the byte extent spanned by a run of this order, given the
// current PageSize.
func (o Order) Bytes() int64 { return o.Pages() * int64(PageSize) }

// valid reports whether o is a member of Orders.
func (o Order) valid() bool {
	for _, candidate := range Orders {
		if candidate == o {
			return true
		}
	}
	return false
}

// pageAlign rounds size up to a whole number of pages.
func pageAlign(size int64) int64 {
	ps := int64(PageSize)
	return (size + ps - 1) / ps * ps
}

// orderFromLength reconstructs the order of a run from a scatter/gather
// entry's byte length. It panics if length is not page_size<<o for some o
// in Orders — reaching that state is a programming error, not a runtime
// condition.
func orderFromLength(length int64) Order {
	ps := int64(PageSize)
	if length <= 0 || length%ps != 0 {
		panic("dmaheap: scatter/gather entry length is not a page multiple")
	}
	pages := length / ps
	o := Order(bits.Len64(uint64(pages)) - 1)
	if pages != 1<<uint(o) || !o.valid() {
		panic("dmaheap: scatter/gather entry length does not match an allowed order")
	}
	return o
}

// indexOfOrder returns the position of o within Orders. It panics if o is
// not a member of the order set.
func indexOfOrder(o Order) int {
	for i, candidate := range Orders {
		if candidate == o {
			return i
		}
	}
	panic("dmaheap: order not in order set")
}
