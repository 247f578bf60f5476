// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package dmaheap

import "errors"

var (
	// ErrOutOfMemory is returned when the packer could not produce a
	// run for some remainder, or the scatter/gather table could not be
	// assembled. Any runs already obtained for the failed attempt are
	// freed before this is returned; no buffer state is left mutated.
	ErrOutOfMemory = errors.New("dmaheap: out of memory")

	// ErrNotSupported is returned by the default GenericHelpers: the
	// kernel-virtual-mapping and user-mapping paths are owned by the
	// outer shared-buffer subsystem and are out of scope here.
	ErrNotSupported = errors.New("dmaheap: operation not supported")
)
