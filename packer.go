// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package dmaheap

// Packer greedily decomposes a byte-aligned size into an ordered,
// non-empty list of runs whose summed byte extents equal the requested
// size, largest order first.
type Packer struct {
	pools [len(Orders)]*PagePool
	host  Host
}

// NewPacker constructs a Packer over pools (indexed the same way as
// Orders) and host.
func NewPacker(pools [len(Orders)]*PagePool, host Host) *Packer {
	return &Packer{pools: pools, host: host}
}

// Pack decomposes size (already page-aligned by the caller) into runs.
//
// A monotonically non-increasing cap, starting at the largest order,
// prevents pathological mixtures such as several 1-page runs followed by
// a large run, biasing the buffer toward a small number of large runs.
//
// If no order can satisfy the current remainder, Pack frees every run
// already collected and returns ErrOutOfMemory.
func (pk *Packer) Pack(size int64, flags BufferFlags) ([]Run, error) {
	remaining := size
	ceiling := Orders[0]
	var out []Run

	for remaining > 0 {
		served := false
		for i, o := range Orders {
			if o > ceiling || o.Bytes() > remaining {
				continue
			}
			run, ok := pk.allocRun(i, o, flags)
			if !ok {
				continue
			}
			out = append(out, *run)
			remaining -= o.Bytes()
			ceiling = o
			served = true
			break
		}
		if !served {
			pk.unwind(out, flags)
			return nil, ErrOutOfMemory
		}
	}
	return out, nil
}

// allocRun attempts to obtain one run of order o (at order-set position
// i), honoring the cached-bypass and fault-user-mapping policies.
func (pk *Packer) allocRun(i int, o Order, flags BufferFlags) (*Run, bool) {
	cached := flags&FlagCached != 0

	// For each order considered, decide from_pool before calling
	// alloc_run: an optimistic label that may race with a concurrent
	// refill or drain (see Run.FromPool).
	var fromPool bool
	if !cached {
		fromPool = pk.pools[i].Occupied()
	}

	var run *Run
	var err error
	if cached {
		run, err = pk.host.AllocRun(o, intentFor(o))
	} else {
		run, err = pk.pools[i].Alloc()
	}
	if err != nil || run == nil {
		return nil, false
	}
	run.FromPool = fromPool

	if flags&FlagFaultUserMappings != 0 && o > 0 {
		run.pages = pk.host.SplitRun(run)
	}
	return run, true
}

// unwind frees every run already collected when a pack attempt fails
// partway through, so no buffer state is left mutated.
func (pk *Packer) unwind(runs []Run, flags BufferFlags) {
	cached := flags&FlagCached != 0
	for i := range runs {
		run := runs[i]
		switch {
		case run.Split():
			for _, p := range run.pages {
				pk.host.FreePage(p)
			}
		case cached:
			pk.host.FreeRun(&run)
		default:
			pk.pools[indexOfOrder(run.Order)].Free(&run)
		}
	}
}
