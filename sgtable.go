// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package dmaheap

// SGEntry is one scatter/gather table entry: a page pointer, a byte
// length, and an offset within the page. The offset is always zero here
// — this allocator never hands out a buffer that starts mid-page.
type SGEntry struct {
	Page   *Page
	Length int64
	Offset int64
}

// SGTable is the ordered list describing a logical buffer as a sequence
// of physical runs, consumed by DMA engines. Entry orders are
// non-increasing in table position, mirroring the packer's pack order.
type SGTable struct {
	Entries []SGEntry

	// poolIdx/pooled track whether this table was checked out of
	// SystemHeap's scatter/gather table recycling pool, so Free knows
	// whether to return it.
	poolIdx int
	pooled  bool
}

// buildSGTable assembles an SGTable from packed runs in pack order. When
// faultUserMappings is set, every run of order > 0 was already split by
// the packer, so one entry is emitted per page instead of one per run.
func buildSGTable(table *SGTable, runs []Run, faultUserMappings bool) {
	table.Entries = table.Entries[:0]
	for _, run := range runs {
		if faultUserMappings && run.Split() {
			for _, p := range run.pages {
				table.Entries = append(table.Entries, SGEntry{Page: p, Length: int64(PageSize)})
			}
			continue
		}
		table.Entries = append(table.Entries, SGEntry{Page: run.Base, Length: run.Order.Bytes()})
	}
}

// TotalBytes returns the sum of every entry's byte length.
func (t *SGTable) TotalBytes() int64 {
	var total int64
	for _, e := range t.Entries {
		total += e.Length
	}
	return total
}

// IoVecFromSGTable converts an SGTable into a slice of IoVec descriptors
// suitable for a vectored DMA/syscall interface. Each IoVec aliases the
// underlying page memory without copying.
func IoVecFromSGTable(table *SGTable) []IoVec {
	if len(table.Entries) == 0 {
		return nil
	}
	vec := make([]IoVec, len(table.Entries))
	for i, e := range table.Entries {
		var base *byte
		if len(e.Page.mem) > 0 {
			base = &e.Page.mem[e.Offset]
		}
		vec[i] = IoVec{Base: base, Len: uint64(e.Length)}
	}
	return vec
}
