//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package garble

import (
	"crypto/rand"
	"testing"

	"github.com/kalervo-j/yaogc/circuit"
)

func setupInputBindingPair(t *testing.T, genBits []byte, seed string) (*Generator, *Evaluator) {
	t.Helper()
	circ := &circuit.Circuit{NumWires: len(genBits), GenInpCount: len(genBits)}
	gen, err := NewGenerator(K128(), circ, genBits, genBits, []byte(seed), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	for i := range genBits {
		g := circuit.Gate{ID: i, Kind: circuit.GenInp, Input0: circuit.NoWire, Input1: circuit.NoWire, Output: circuit.Wire(i)}
		if _, err := gen.NextGate(g); err != nil {
			t.Fatal(err)
		}
	}
	ev, err := NewEvaluator(K128(), circ, nil, genBits, gen.GenInpDecommitments())
	if err != nil {
		t.Fatal(err)
	}
	return gen, ev
}

func TestInputBindingConsistentRecoversZero(t *testing.T) {
	gen, ev := setupInputBindingPair(t, []byte{1, 0, 1, 1}, "seed-a")

	row := []byte{1, 0, 1, 0}
	published := gen.GenNextGenInpCom(row, 7)

	got := ev.EvlNextGenInpCom(row, 7, published)
	if got != 0 {
		t.Fatalf("gen_inp_hash for a consistent instance = %d, want 0", got)
	}
}

func TestInputBindingDetectsTamperedPublication(t *testing.T) {
	gen, ev := setupInputBindingPair(t, []byte{1, 0, 1, 1}, "seed-b")

	row := []byte{0, 1, 1, 0}
	published := gen.GenNextGenInpCom(row, 3)

	// Flip the low bit of each half's last byte: whichever half
	// EvlNextGenInpCom ends up reading, its recovered label's lsb
	// comes out flipped.
	Kb := ByteLen(128)
	tampered := append([]byte{}, published...)
	tampered[Kb-1] ^= 0x01
	tampered[2*Kb-1] ^= 0x01

	got := ev.EvlNextGenInpCom(row, 3, tampered)
	if got == 0 {
		t.Fatal("tampered publication was not detected by gen_inp_hash")
	}
}

func TestInputBindingDetectsMismatchedDecommitment(t *testing.T) {
	genBits := []byte{1, 0, 1, 1}
	gen, ev := setupInputBindingPair(t, genBits, "seed-c")

	row := []byte{1, 1, 0, 0}
	published := gen.GenNextGenInpCom(row, 9)

	// A second, independently-garbled circuit instance never actually
	// received wire 0's active decommitment out of band -- simulate a
	// cheating generator by handing the evaluator the inactive side
	// instead.
	otherGen, err := NewCommitGenerator(K128(), gen.circ, genBits, genBits, []byte("seed-c-commit"), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	for i := range genBits {
		g := circuit.Gate{ID: i, Kind: circuit.GenInp, Input0: circuit.NoWire, Input1: circuit.NoWire, Output: circuit.Wire(i)}
		if _, err := otherGen.NextGate(g); err != nil {
			t.Fatal(err)
		}
	}
	ev.genInpDecommit[0] = otherGen.Decommitments().Get(0, 1-genBits[0])

	got := ev.EvlNextGenInpCom(row, 9, published)
	if got == 0 {
		t.Fatal("mismatched decommitment across instances went undetected by gen_inp_hash")
	}
}
