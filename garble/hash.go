//
// hash.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package garble

import (
	"hash"

	"golang.org/x/crypto/blake2b"
)

// RunningHash accumulates every byte a generator emits (or an
// evaluator receives) over the life of one circuit instance into a
// single incremental digest, so that at the end of the run both
// parties can commit to, and later verify, that they processed
// identical gate traffic. Bytes are buffered in a spill slice and
// only folded into the underlying digest once the spill grows past
// the configured chunk size, so a circuit with many small gates does
// not pay a hash-state update per byte.
type RunningHash struct {
	h     hash.Hash
	spill []byte
	chunk int
}

// NewRunningHash creates a RunningHash that spills into the digest
// every chunkBytes accumulated bytes. chunkBytes <= 0 selects a
// 10 MiB default.
func NewRunningHash(chunkBytes int) (*RunningHash, error) {
	h, err := blake2b.New256(nil)
	if err != nil {
		return nil, err
	}
	if chunkBytes <= 0 {
		chunkBytes = 10 * 1024 * 1024
	}
	return &RunningHash{h: h, chunk: chunkBytes}, nil
}

// Update appends data to the running hash.
func (r *RunningHash) Update(data []byte) {
	r.spill = append(r.spill, data...)
	if len(r.spill) >= r.chunk {
		r.h.Write(r.spill)
		r.spill = r.spill[:0]
	}
}

// Sum folds any buffered spill into the digest and returns the
// current 32 byte BLAKE2b sum. Sum may be called repeatedly; it does
// not reset the accumulated state.
func (r *RunningHash) Sum() []byte {
	if len(r.spill) > 0 {
		r.h.Write(r.spill)
		r.spill = r.spill[:0]
	}
	return r.h.Sum(nil)
}
