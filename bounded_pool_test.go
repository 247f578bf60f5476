// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package dmaheap_test

import (
	"sync"
	"testing"

	"code.hybscloud.com/dmaheap"
	"code.hybscloud.com/iox"
	"code.hybscloud.com/spin"
)

func TestBoundedPool_BasicGetPut(t *testing.T) {
	const capacity = 16
	pool := dmaheap.NewBoundedPool[int](capacity)

	counter := 0
	pool.Fill(func() int {
		v := counter * 10
		counter++
		return v
	})

	indices := make([]int, capacity)
	for i := range capacity {
		idx, err := pool.Get()
		if err != nil {
			t.Fatalf("Get() failed at iteration %d: %v", i, err)
		}
		indices[i] = idx
	}

	for _, idx := range indices {
		err := pool.Put(idx)
		if err != nil {
			t.Fatalf("Put(%d) failed: %v", idx, err)
		}
	}

	for i := range capacity {
		_, err := pool.Get()
		if err != nil {
			t.Fatalf("Second Get() failed at iteration %d: %v", i, err)
		}
	}
}

func TestBoundedPool_NonblockingEmpty(t *testing.T) {
	const capacity = 4
	pool := dmaheap.NewBoundedPool[int](capacity)
	pool.SetNonblock(true)

	pool.Fill(func() int { return 0 })

	for range capacity {
		_, err := pool.Get()
		if err != nil {
			t.Fatalf("Get() failed: %v", err)
		}
	}

	_, err := pool.Get()
	if err != iox.ErrWouldBlock {
		t.Errorf("expected iox.ErrWouldBlock, got %v", err)
	}
}

func TestBoundedPool_NonblockingFull(t *testing.T) {
	const capacity = 4
	pool := dmaheap.NewBoundedPool[int](capacity)
	pool.SetNonblock(true)

	pool.Fill(func() int { return 0 })

	err := pool.Put(0)
	if err != iox.ErrWouldBlock {
		t.Errorf("expected iox.ErrWouldBlock on full pool, got %v", err)
	}
}

func TestBoundedPool_Concurrent(t *testing.T) {
	const capacity = 64
	const goroutines = 16
	const iterations = 2000

	pool := dmaheap.NewBoundedPool[int](capacity)
	pool.Fill(func() int { return 0 })

	var wg sync.WaitGroup
	wg.Add(goroutines)

	for g := range goroutines {
		go func(id int) {
			defer wg.Done()
			for i := range iterations {
				idx, err := pool.Get()
				if err != nil {
					t.Errorf("goroutine %d iteration %d: Get() failed: %v", id, i, err)
					return
				}
				_ = pool.Value(idx)
				spin.Yield()
				err = pool.Put(idx)
				if err != nil {
					t.Errorf("goroutine %d iteration %d: Put() failed: %v", id, i, err)
					return
				}
			}
		}(g)
	}

	wg.Wait()
}

func TestBoundedPool_HighContention(t *testing.T) {
	const capacity = 8
	const goroutines = 16
	const iterations = 2000

	pool := dmaheap.NewBoundedPool[int](capacity)
	pool.Fill(func() int { return 0 })

	var wg sync.WaitGroup
	wg.Add(goroutines)

	for range goroutines {
		go func() {
			defer wg.Done()
			for range iterations {
				idx, err := pool.Get()
				if err != nil {
					spin.Yield()
					continue
				}
				spin.Yield()
				_ = pool.Put(idx)
			}
		}()
	}

	wg.Wait()
}

func TestBoundedPool_Cap(t *testing.T) {
	const capacity = 32
	pool := dmaheap.NewBoundedPool[int](capacity)
	if pool.Cap() != capacity {
		t.Errorf("Cap() = %d, want %d", pool.Cap(), capacity)
	}
}

func TestBoundedPool_Value(t *testing.T) {
	const capacity = 8
	pool := dmaheap.NewBoundedPool[string](capacity)

	pool.Fill(func() string { return "item" })

	idx, err := pool.Get()
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}

	pool.SetValue(idx, "modified")
	if pool.Value(idx) != "modified" {
		t.Errorf("Value(%d) = %q, want %q", idx, pool.Value(idx), "modified")
	}

	err = pool.Put(idx)
	if err != nil {
		t.Fatalf("Put() failed: %v", err)
	}
}

func TestNewBoundedPool_InvalidCapacity(t *testing.T) {
	t.Run("zero capacity", func(t *testing.T) {
		defer func() {
			if r := recover(); r == nil {
				t.Error("NewBoundedPool(0) did not panic")
			}
		}()
		_ = dmaheap.NewBoundedPool[int](0)
	})

	t.Run("negative capacity", func(t *testing.T) {
		defer func() {
			if r := recover(); r == nil {
				t.Error("NewBoundedPool(-1) did not panic")
			}
		}()
		_ = dmaheap.NewBoundedPool[int](-1)
	})
}

func TestBoundedPool_Value_PanicUnfilled(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Value() on unfilled pool did not panic")
		}
	}()
	pool := dmaheap.NewBoundedPool[int](8)
	_ = pool.Value(0)
}

func TestBoundedPool_SetValue_PanicUnfilled(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("SetValue() on unfilled pool did not panic")
		}
	}()
	pool := dmaheap.NewBoundedPool[int](8)
	pool.SetValue(0, 42)
}

func TestBoundedPool_Value_PanicInvalidIndirect(t *testing.T) {
	pool := dmaheap.NewBoundedPool[int](8)
	pool.Fill(func() int { return 0 })

	t.Run("negative index", func(t *testing.T) {
		defer func() {
			if r := recover(); r == nil {
				t.Error("Value(-1) did not panic")
			}
		}()
		_ = pool.Value(-1)
	})

	t.Run("out of range index", func(t *testing.T) {
		defer func() {
			if r := recover(); r == nil {
				t.Error("Value(capacity) did not panic")
			}
		}()
		_ = pool.Value(pool.Cap())
	})
}

func TestBoundedPool_SetValue_PanicInvalidIndirect(t *testing.T) {
	pool := dmaheap.NewBoundedPool[int](8)
	pool.Fill(func() int { return 0 })

	t.Run("negative index", func(t *testing.T) {
		defer func() {
			if r := recover(); r == nil {
				t.Error("SetValue(-1, v) did not panic")
			}
		}()
		pool.SetValue(-1, 42)
	})

	t.Run("out of range index", func(t *testing.T) {
		defer func() {
			if r := recover(); r == nil {
				t.Error("SetValue(capacity, v) did not panic")
			}
		}()
		pool.SetValue(pool.Cap(), 42)
	})
}

func TestBoundedPool_Get_PanicUnfilled(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Get() on unfilled pool did not panic")
		}
	}()
	pool := dmaheap.NewBoundedPool[int](8)
	_, _ = pool.Get()
}

func TestBoundedPool_Put_PanicUnfilled(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Put() on unfilled pool did not panic")
		}
	}()
	pool := dmaheap.NewBoundedPool[int](8)
	_ = pool.Put(0)
}

func TestBoundedPool_BlockingGet(t *testing.T) {
	const capacity = 4
	pool := dmaheap.NewBoundedPool[int](capacity)
	pool.Fill(func() int { return 0 })

	indices := make([]int, capacity)
	for i := range capacity {
		idx, err := pool.Get()
		if err != nil {
			t.Fatalf("Get() failed: %v", err)
		}
		indices[i] = idx
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for range 1000 {
			spin.Yield()
		}
		_ = pool.Put(indices[0])
	}()

	idx, err := pool.Get()
	if err != nil {
		t.Fatalf("blocking Get() failed: %v", err)
	}
	_ = idx

	<-done
}

func TestBoundedPool_BlockingPut(t *testing.T) {
	const capacity = 4
	pool := dmaheap.NewBoundedPool[int](capacity)
	pool.Fill(func() int { return 0 })

	done := make(chan struct{})
	go func() {
		defer close(done)
		for range 1000 {
			spin.Yield()
		}
		_, _ = pool.Get()
	}()

	err := pool.Put(0)
	if err != nil {
		t.Fatalf("blocking Put() failed: %v", err)
	}

	<-done
}

// TestSGTablePool covers BoundedPool instantiated over *SGTable, the
// shape SystemHeap actually uses to recycle scatter/gather tables.
func TestSGTablePool(t *testing.T) {
	const capacity = 16
	pool := dmaheap.NewBoundedPool[*dmaheap.SGTable](capacity)
	if pool.Cap() != capacity {
		t.Errorf("Cap() = %d, want %d", pool.Cap(), capacity)
	}
	pool.Fill(func() *dmaheap.SGTable { return &dmaheap.SGTable{} })

	idx, err := pool.Get()
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	tbl := pool.Value(idx)
	if tbl == nil {
		t.Fatal("Value() returned nil table")
	}
	if err := pool.Put(idx); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}
}
