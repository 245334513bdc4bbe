//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package garble

import (
	"bytes"
	"crypto/rand"
	"strings"
	"testing"

	"github.com/kalervo-j/yaogc/circuit"
)

// run drives a full generator/evaluator pair over circ with the given
// generator input bits and pre-selected evaluator input labels (the
// test's stand-in for an oblivious-transfer exchange run ahead of
// time), returning the evaluator's decoded outputs and the generator's
// decoded outputs.
func run(t *testing.T, cfg Config, circ *circuit.Circuit, genBits []byte,
	evlBits []byte) (map[circuit.Wire]byte, map[circuit.Wire]byte) {

	t.Helper()

	gen, err := NewGenerator(cfg, circ, genBits, genBits, []byte("seed-a"), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}

	// Run the generator once up front to learn every EVL_INP wire's
	// (Z0, Z1) pair, then hand the evaluator the label matching her
	// real bit directly -- standing in for the oblivious-transfer
	// subprotocol, which is out of scope for this engine.
	var evlLabels [][]byte
	var evlIx int
	var wireBytes [][]byte
	for _, g := range circ.Gates {
		out, err := gen.NextGate(g)
		if err != nil {
			t.Fatal(err)
		}
		wireBytes = append(wireBytes, out)
		if g.Kind == circuit.EvlInp {
			K := cfg.ByteLen()
			z0, z1 := out[:K], out[K:]
			if evlBits[evlIx] == 0 {
				evlLabels = append(evlLabels, z0)
			} else {
				evlLabels = append(evlLabels, z1)
			}
			evlIx++
		}
	}

	ev, err := NewEvaluator(cfg, circ, evlLabels, genBits, gen.GenInpDecommitments())
	if err != nil {
		t.Fatal(err)
	}
	for i, g := range circ.Gates {
		var in []byte
		if g.Kind != circuit.EvlInp {
			in = wireBytes[i]
		}
		if err := ev.NextGate(g, in); err != nil {
			t.Fatal(err)
		}
	}

	genOut, err := gen.DecodeGenOutputs(ev.GenOutLabels())
	if err != nil {
		t.Fatal(err)
	}

	if !bytes.Equal(gen.Hash().Sum(), ev.Hash().Sum()) {
		t.Fatal("generator and evaluator transcripts diverged")
	}

	return ev.EvlOutputs(), genOut
}

func mustParse(t *testing.T, src string) *circuit.Circuit {
	t.Helper()
	c, err := circuit.Parse(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestE2EAndGenInputs(t *testing.T) {
	src := `3 3
2 0
gen_inp 0
gen_inp 1
gate2 evl_out 2 0 1 0001
`
	circ := mustParse(t, src)
	for _, cfg := range []Config{K128(), K80(), {K: 128}} {
		for a := byte(0); a < 2; a++ {
			for b := byte(0); b < 2; b++ {
				evlOut, _ := run(t, cfg, circ, []byte{a, b}, nil)
				want := a & b
				if evlOut[2] != want {
					t.Fatalf("cfg=%+v AND(%d,%d): got %d, want %d",
						cfg, a, b, evlOut[2], want)
				}
			}
		}
	}
}

func TestE2EXorGenAndEvlInput(t *testing.T) {
	src := `3 3
1 1
gen_inp 0
evl_inp 1
gate2 evl_out 2 0 1 0110
`
	circ := mustParse(t, src)
	for a := byte(0); a < 2; a++ {
		for b := byte(0); b < 2; b++ {
			evlOut, _ := run(t, K128(), circ, []byte{a}, []byte{b})
			want := a ^ b
			if evlOut[2] != want {
				t.Fatalf("XOR(%d,%d): got %d, want %d", a, b, evlOut[2], want)
			}
		}
	}
}

func TestE2EChainOfThreeANDs(t *testing.T) {
	// out = (g0 & e0) & (g1 & e1), with a spare unused third input pair
	// carried through to exercise a circuit whose generator/evaluator
	// input counts exceed what the final gate reads.
	src := `9 9
3 3
gen_inp 0
gen_inp 1
gen_inp 2
evl_inp 3
evl_inp 4
evl_inp 5
gate2 int 6 0 3 0001
gate2 int 7 1 4 0001
gate2 evl_out 8 6 7 0001
`
	circ := mustParse(t, src)
	for g0 := byte(0); g0 < 2; g0++ {
		for e0 := byte(0); e0 < 2; e0++ {
			for g1 := byte(0); g1 < 2; g1++ {
				for e1 := byte(0); e1 < 2; e1++ {
					evlOut, _ := run(t, K128(), circ,
						[]byte{g0, g1, 1}, []byte{e0, e1, 1})
					want := (g0 & e0) & (g1 & e1)
					got := evlOut[8]
					if got != want {
						t.Fatalf("chain(%d,%d,%d,%d): got %d want %d",
							g0, e0, g1, e1, got, want)
					}
				}
			}
		}
	}
}

func TestE2EGenOutput(t *testing.T) {
	src := `3 3
2 0
gen_inp 0
gen_inp 1
gate2 gen_out 2 0 1 0110
`
	circ := mustParse(t, src)
	for a := byte(0); a < 2; a++ {
		for b := byte(0); b < 2; b++ {
			_, genOut := run(t, K128(), circ, []byte{a, b}, nil)
			want := a ^ b
			if genOut[2] != want {
				t.Fatalf("gen_out XOR(%d,%d): got %d, want %d", a, b, genOut[2], want)
			}
		}
	}
}

func TestE2ETamperDetected(t *testing.T) {
	src := `3 3
2 0
gen_inp 0
gen_inp 1
gate2 evl_out 2 0 1 0001
`
	circ := mustParse(t, src)

	genBits := []byte{1, 1}
	gen, err := NewGenerator(K128(), circ, genBits, genBits, []byte("seed-b"), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	var wireBytes [][]byte
	for _, g := range circ.Gates {
		out, err := gen.NextGate(g)
		if err != nil {
			t.Fatal(err)
		}
		wireBytes = append(wireBytes, out)
	}
	// Flip a bit in the final gate's ciphertext before it reaches the
	// evaluator.
	wireBytes[2] = append([]byte{}, wireBytes[2]...)
	wireBytes[2][0] ^= 0x01

	ev, err := NewEvaluator(K128(), circ, nil, genBits, gen.GenInpDecommitments())
	if err != nil {
		t.Fatal(err)
	}
	for i, g := range circ.Gates {
		if err := ev.NextGate(g, wireBytes[i]); err != nil {
			t.Fatal(err)
		}
	}

	if bytes.Equal(gen.Hash().Sum(), ev.Hash().Sum()) {
		t.Fatal("tampered transcript was not detected by the running hash")
	}
}

func TestPassCheckCatchesMismatch(t *testing.T) {
	circ := mustParse(t, `2 2
1 0
gen_inp 0
gate2 evl_out 1 0 0 0001
`)
	genBits := []byte{1}
	gen, err := NewCommitGenerator(K128(), circ, genBits, genBits, []byte("seed-c"), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	var wireBytes [][]byte
	for _, g := range circ.Gates {
		out, err := gen.NextGate(g)
		if err != nil {
			t.Fatal(err)
		}
		wireBytes = append(wireBytes, out)
	}

	ev, err := NewEvaluator(K128(), circ, nil, genBits, gen.GenInpDecommitments())
	if err != nil {
		t.Fatal(err)
	}
	for i, g := range circ.Gates {
		if err := ev.NextGate(g, wireBytes[i]); err != nil {
			t.Fatal(err)
		}
	}

	// commitments is what the evaluator actually observed on the wire
	// during GEN_INP; decommitments is what the generator opens under
	// a cut-and-choose challenge.
	commitments := ev.GenInpCommitments()
	d := gen.Decommitments()
	decommitments := []Decommitment{d.Get(0, 1)}

	if err := PassCheck(128, commitments, decommitments); err != nil {
		t.Fatalf("honest decommitments rejected: %v", err)
	}

	// Swap in the decommitment for the wrong bit: the commitment the
	// evaluator stored no longer matches.
	decommitments[0] = d.Get(0, 0)
	if err := PassCheck(128, commitments, decommitments); err == nil {
		t.Fatal("pass_check accepted a mismatched decommitment")
	}
}
