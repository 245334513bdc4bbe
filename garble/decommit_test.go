//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package garble

import (
	"bytes"
	"crypto/rand"
	"testing"
)

func TestDecommitCommitRoundTrip(t *testing.T) {
	k := 128
	label, _ := RandomLabel(rand.Reader, k)
	salt, _ := RandomLabel(rand.Reader, k)

	d := NewDecommitment(label.Bytes(k), salt.Bytes(k))
	if !bytes.Equal(d.Label(ByteLen(k)), label.Bytes(k)) {
		t.Fatal("decommitment does not preserve the label half")
	}

	c1 := Commit(d, k)
	c2 := Commit(d, k)
	if !bytes.Equal(c1, c2) {
		t.Fatal("commit is not deterministic")
	}

	other, _ := RandomLabel(rand.Reader, k)
	d2 := NewDecommitment(other.Bytes(k), salt.Bytes(k))
	if bytes.Equal(Commit(d2, k), c1) {
		t.Fatal("different labels produced the same commitment")
	}
}

func TestDecommitBufferRoundsPerWire(t *testing.T) {
	buf := NewDecommitBuffer(128, 3)
	if buf.Len() != 6 {
		t.Fatalf("expected 6 slots for 3 wires, got %d", buf.Len())
	}
	d := Decommitment([]byte("decommit-for-wire-1-bit-1"))
	buf.Set(1, 1, d)
	if !bytes.Equal(buf.Get(1, 1), d) {
		t.Fatal("stored decommitment not retrievable")
	}
	if buf.Get(1, 0) != nil {
		t.Fatal("unrelated slot should remain empty")
	}
}
