//
// decommit.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package garble

import (
	"golang.org/x/crypto/blake2b"
)

// Decommitment is a label concatenated with a fresh random salt,
// 2*K bytes long, the opening the generator reveals after the
// evaluator has already received and stored its commitment.
type Decommitment []byte

// NewDecommitment builds a decommitment from a K-byte label and a
// K-byte salt.
func NewDecommitment(label, salt []byte) Decommitment {
	d := make(Decommitment, len(label)+len(salt))
	copy(d, label)
	copy(d[len(label):], salt)
	return d
}

// Label returns the label half of the decommitment.
func (d Decommitment) Label(K int) []byte {
	return d[:K]
}

// Salt returns the salt half of the decommitment.
func (d Decommitment) Salt(K int) []byte {
	return d[K:]
}

// Commit returns the K-byte commitment to a decommitment: the first K
// bytes of BLAKE2b-256(decommitment), K = ceil(k/8).
func Commit(d Decommitment, k int) []byte {
	sum := blake2b.Sum256(d)
	return sum[:ByteLen(k)]
}

// DecommitBuffer holds one decommitment per (wire, bit) pair for the
// generator's input wires: entry 2*i+b is the decommitment for
// generator input wire i taking value b. The generator fills it while
// garbling; PassCheck replays it against the evaluator's stored
// commitments.
type DecommitBuffer struct {
	K       int
	entries [][]byte
}

// NewDecommitBuffer allocates a buffer for n generator input wires
// under security parameter k.
func NewDecommitBuffer(k, n int) *DecommitBuffer {
	return &DecommitBuffer{K: ByteLen(k), entries: make([][]byte, 2*n)}
}

// Set stores the decommitment for wire i's bit value.
func (b *DecommitBuffer) Set(i int, bit byte, d Decommitment) {
	b.entries[2*i+int(bit&1)] = d
}

// Get returns the decommitment for wire i's bit value.
func (b *DecommitBuffer) Get(i int, bit byte) Decommitment {
	return b.entries[2*i+int(bit&1)]
}

// Len returns the number of (wire, bit) slots the buffer holds.
func (b *DecommitBuffer) Len() int {
	return len(b.entries)
}
