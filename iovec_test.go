// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package dmaheap_test

import (
	"testing"
	"unsafe"

	"code.hybscloud.com/dmaheap"
)

func TestIoVecFromBytesSlice(t *testing.T) {
	t.Run("empty slice", func(t *testing.T) {
		addr, n := dmaheap.IoVecFromBytesSlice(nil)
		if addr != 0 || n != 0 {
			t.Errorf("expected (0, 0), got (%d, %d)", addr, n)
		}
	})

	t.Run("single buffer", func(t *testing.T) {
		buf := make([]byte, 128)
		buf[0] = 0xAB
		iov := [][]byte{buf}
		addr, n := dmaheap.IoVecFromBytesSlice(iov)
		if n != 1 {
			t.Errorf("expected n=1, got %d", n)
		}
		if addr == 0 {
			t.Error("expected non-zero address")
		}
	})

	t.Run("multiple buffers", func(t *testing.T) {
		bufs := [][]byte{
			make([]byte, 64),
			make([]byte, 128),
			make([]byte, 256),
		}
		addr, n := dmaheap.IoVecFromBytesSlice(bufs)
		if n != 3 {
			t.Errorf("expected n=3, got %d", n)
		}
		if addr == 0 {
			t.Error("expected non-zero address")
		}
	})
}

func TestIoVecAddrLen(t *testing.T) {
	t.Run("empty slice", func(t *testing.T) {
		addr, n := dmaheap.IoVecAddrLen(nil)
		if addr != 0 || n != 0 {
			t.Errorf("expected (0, 0), got (%d, %d)", addr, n)
		}
	})

	t.Run("non-empty slice", func(t *testing.T) {
		vec := make([]dmaheap.IoVec, 4)
		addr, n := dmaheap.IoVecAddrLen(vec)
		if n != 4 {
			t.Errorf("expected n=4, got %d", n)
		}
		if addr == 0 {
			t.Error("expected non-zero address")
		}
		expectedAddr := uintptr(unsafe.Pointer(&vec[0]))
		if addr != expectedAddr {
			t.Errorf("expected addr=%d, got %d", expectedAddr, addr)
		}
	})
}

func TestIoVecFromSGTable(t *testing.T) {
	heap := dmaheap.NewSystemHeap(nil)
	var buf dmaheap.Buffer
	if err := heap.Allocate(&buf, int64(dmaheap.PageSize), 0, 0); err != nil {
		t.Fatalf("Allocate() failed: %v", err)
	}
	defer heap.Free(&buf)

	vec := dmaheap.IoVecFromSGTable(buf.SGTable)
	if len(vec) != len(buf.SGTable.Entries) {
		t.Fatalf("IoVecFromSGTable len = %d, want %d", len(vec), len(buf.SGTable.Entries))
	}
	for i, v := range vec {
		if v.Len != uint64(buf.SGTable.Entries[i].Length) {
			t.Errorf("vec[%d].Len = %d, want %d", i, v.Len, buf.SGTable.Entries[i].Length)
		}
		if v.Base == nil {
			t.Errorf("vec[%d].Base is nil", i)
		}
	}
}

func TestIoVecFromSGTable_Empty(t *testing.T) {
	vec := dmaheap.IoVecFromSGTable(&dmaheap.SGTable{})
	if vec != nil {
		t.Error("expected nil for empty table")
	}
}
