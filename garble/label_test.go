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

func TestLabelBytesRoundTrip(t *testing.T) {
	for _, k := range []int{80, 128} {
		l, err := RandomLabel(rand.Reader, k)
		if err != nil {
			t.Fatal(err)
		}
		b := l.Bytes(k)
		if len(b) != ByteLen(k) {
			t.Fatalf("k=%d: got %d bytes, want %d", k, len(b), ByteLen(k))
		}
		got := LabelFromBytes(b)
		if !got.Equal(l.Mask(k)) {
			t.Fatalf("k=%d: round trip mismatch: %s != %s", k, got, l.Mask(k))
		}
	}
}

func TestLabelMask(t *testing.T) {
	full := Label{D0: ^uint64(0), D1: ^uint64(0)}
	m := full.Mask(80)
	if m.D0 != lowMask(16) {
		t.Fatalf("D0 = %016x, want %016x", m.D0, lowMask(16))
	}
	if m.D1 != ^uint64(0) {
		t.Fatalf("D1 = %016x, want all ones", m.D1)
	}
}

func TestLabelXorIdentity(t *testing.T) {
	a, _ := RandomLabel(rand.Reader, 128)
	b, _ := RandomLabel(rand.Reader, 128)
	if !a.Xor(b).Xor(b).Equal(a) {
		t.Fatal("xor is not its own inverse")
	}
}

func TestLabelLsb(t *testing.T) {
	a := Label{D0: 1, D1: 2}
	if a.Lsb() != 0 {
		t.Fatal("expected lsb 0")
	}
	a = a.WithLsb(1)
	if a.Lsb() != 1 {
		t.Fatal("expected lsb 1 after WithLsb(1)")
	}
	a = a.WithLsb(0)
	if a.Lsb() != 0 {
		t.Fatal("expected lsb 0 after WithLsb(0)")
	}
}

func TestTweakBroadcast(t *testing.T) {
	tw := Tweak(42)
	if tw.D0 != 42 || tw.D1 != 42 {
		t.Fatalf("tweak halves not equal: %s", tw)
	}
}

func TestLabelFromBytesZeroExtends(t *testing.T) {
	data := []byte{0xff, 0xff}
	l := LabelFromBytes(data)
	if l.D0 != 0 {
		t.Fatal("expected D0 zero for a short input")
	}
	if l.D1 != 0xffff {
		t.Fatalf("D1 = %x, want 0xffff", l.D1)
	}
	if !bytes.Equal(l.Bytes(16), data) {
		t.Fatal("round trip through Bytes(16) mismatch")
	}
}
