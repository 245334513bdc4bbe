//
// circuit.go
//
// Copyright (c) 2019-2021 Markku Rossi
//
// All rights reserved.
//

// Package circuit implements the boolean-circuit data model consumed
// by the garbling engine: wires, gates, and the whole-circuit
// metadata (input/output wire counts per party) a loaded circuit must
// carry. Circuit optimization and compilation from a higher-level
// language are out of scope; this package only describes the shape a
// circuit loader hands to package garble.
package circuit

import "fmt"

// Wire specifies a wire ID. Wire IDs are dense and monotonically
// increasing in topological order: a gate's inputs always name wires
// produced by earlier gates (or the reserved input wires), never
// itself or a later gate.
type Wire int

func (w Wire) String() string {
	return fmt.Sprintf("w%d", w)
}

// GateKind classifies a Gate by how its output wire is produced and
// who contributed the bits behind it.
type GateKind byte

// Gate kinds.
const (
	// Internal is an ordinary 1- or 2-input gate computed from
	// earlier wires.
	Internal GateKind = iota
	// GenInp introduces one of the generator's input wires.
	GenInp
	// EvlInp introduces one of the evaluator's input wires.
	EvlInp
	// GenOut tags an internal gate's output wire as a generator
	// output.
	GenOut
	// EvlOut tags an internal gate's output wire as an evaluator
	// output.
	EvlOut
)

func (k GateKind) String() string {
	switch k {
	case Internal:
		return "INTERNAL"
	case GenInp:
		return "GEN_INP"
	case EvlInp:
		return "EVL_INP"
	case GenOut:
		return "GEN_OUT"
	case EvlOut:
		return "EVL_OUT"
	default:
		return fmt.Sprintf("{GateKind %d}", k)
	}
}

// NoWire marks an unused input slot on a 1-arity or input gate.
const NoWire Wire = -1

// Gate specifies one step of the circuit: an input gate introducing a
// fresh wire, or a 1- or 2-input truth table over earlier wires.
// Table packs the truth table bit-per-row: for a 2-input gate bit r
// (r = (b1<<1)|b0 over the real boolean input values) holds the
// gate's output for that row, so XOR is exactly the byte 0x6 and AND
// is 0x8; for a 1-input gate only bits 0 and 1 are meaningful
// (indexed by the single real input bit).
type Gate struct {
	ID     int
	Kind   GateKind
	Table  byte
	Input0 Wire
	Input1 Wire
	Output Wire
}

func (g Gate) String() string {
	switch g.Kind {
	case GenInp, EvlInp:
		return fmt.Sprintf("%s -> %v", g.Kind, g.Output)
	default:
		if g.Arity() == 1 {
			return fmt.Sprintf("%s(%v) table=%01b -> %v",
				g.Kind, g.Input0, g.Table&0x3, g.Output)
		}
		return fmt.Sprintf("%s(%v,%v) table=%04b -> %v",
			g.Kind, g.Input0, g.Input1, g.Table&0xf, g.Output)
	}
}

// Arity returns the number of input wires the gate reads: 0 for an
// input gate, 1 or 2 for an internal/output gate.
func (g Gate) Arity() int {
	switch g.Kind {
	case GenInp, EvlInp:
		return 0
	}
	if g.Input1 == NoWire {
		return 1
	}
	return 2
}

// IsXOR reports whether the gate is free-XOR eligible: its table
// value is the canonical XOR pattern for its arity (2-input 0x6,
// 1-input 0x1). The 1-input value 0x1 is also NOT's truth table (see
// Gate); Parse emits such gates from gate1 records, and with free-XOR
// enabled the garble engine gives their output wire the input wire's
// label, so they pass their input value through unchanged.
func (g Gate) IsXOR() bool {
	switch g.Kind {
	case Internal, GenOut, EvlOut:
	default:
		return false
	}
	if g.Input1 == NoWire {
		return g.Table&0x3 == 0x1
	}
	return g.Table&0xf == 0x6
}

// Stats tallies the gate kinds present in a circuit.
type Stats struct {
	GenInp    int
	EvlInp    int
	GenOut    int
	EvlOut    int
	Internal1 int
	Internal2 int
	XOR       int
}

func (s Stats) String() string {
	return fmt.Sprintf(
		"gen_inp=%d evl_inp=%d gen_out=%d evl_out=%d int1=%d int2=%d xor=%d",
		s.GenInp, s.EvlInp, s.GenOut, s.EvlOut, s.Internal1, s.Internal2, s.XOR)
}

// Circuit specifies a boolean circuit as a flat, topologically sorted
// gate list plus the wire-count metadata the garbling engine needs
// before it sees a single gate.
type Circuit struct {
	NumGates    int
	NumWires    int
	GenInpCount int
	EvlInpCount int
	GenOutCount int
	EvlOutCount int
	Gates       []Gate
	Stats       Stats
}

func (c *Circuit) String() string {
	return fmt.Sprintf(
		"#gates=%d #wires=%d gen_inp=%d evl_inp=%d gen_out=%d evl_out=%d",
		c.NumGates, c.NumWires, c.GenInpCount, c.EvlInpCount,
		c.GenOutCount, c.EvlOutCount)
}

// Cost computes the relative computational cost of the circuit: free
// XOR gates cost nothing, every other internal gate costs one
// ciphertext row per evaluated row.
func (c *Circuit) Cost() int {
	return c.Stats.Internal2 - c.Stats.XOR + c.Stats.Internal1
}

// Dump prints a debug dump of the circuit.
func (c *Circuit) Dump() {
	fmt.Printf("circuit %s\n", c)
	for _, g := range c.Gates {
		fmt.Printf("%04d\t%s\n", g.ID, g)
	}
}

// ComputeStats recomputes the gate-kind tally from the Gates slice.
// Loaders call this once after building the gate list.
func (c *Circuit) ComputeStats() {
	var s Stats
	for _, g := range c.Gates {
		switch g.Kind {
		case GenInp:
			s.GenInp++
			continue
		case EvlInp:
			s.EvlInp++
			continue
		}
		if g.Kind == GenOut {
			s.GenOut++
		}
		if g.Kind == EvlOut {
			s.EvlOut++
		}
		if g.Arity() == 1 {
			s.Internal1++
		} else {
			s.Internal2++
		}
		if g.IsXOR() {
			s.XOR++
		}
	}
	c.Stats = s
}
