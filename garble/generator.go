//
// generator.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package garble

import (
	"fmt"
	"io"

	"github.com/kalervo-j/yaogc/circuit"
)

// Generator runs the garbling side of a single circuit instance: for
// every gate in topological order, NextGate produces the bytes the
// evaluator needs to learn exactly one output label, without ever
// learning which one.
type Generator struct {
	cfg  Config
	circ *circuit.Circuit
	prng *PRNG
	rand io.Reader

	r     Label
	wires *WireTable
	hash  *RunningHash

	genInputBits []byte
	genInpMask   []byte
	genInpIx     int
	evlInpIx     int

	genInpDecommit []Decommitment
	genInpPair     [][2]Decommitment
	decommit       *DecommitBuffer
	saltPRNG       *PRNG
	genTags        map[circuit.Wire]byte
}

// NewGenerator creates a Generator for circ. genInputBits holds the
// generator's own input bits, one byte (0 or 1) per generator input
// wire in circuit order. genInpMask holds, for the same wires, which
// half of the transmitted commitment pair (D[2i+0] or D[2i+1]) the
// evaluator must read back to recover the active one, and which half
// GenNextGenInpCom folds into the cross-instance input-binding check.
// The wire bytes themselves are always D[2i+0]=label(0), D[2i+1]=
// label(1) in that fixed order; the mask never reorders them, it only
// names the side that is active. In this engine genInputBits and
// genInpMask carry the same values -- the generator never reveals an
// input it does not also mask by -- but they are threaded separately
// to keep the commitment-pair selection explicit rather than implicit
// in genInputBits. seed deterministically drives every label the
// generator samples and, through a second PRNG derived from it, every
// decommitment salt; rand is used only for the global offset R.
func NewGenerator(cfg Config, circ *circuit.Circuit, genInputBits, genInpMask []byte,
	seed []byte, rand io.Reader) (*Generator, error) {

	if len(genInputBits) != circ.GenInpCount {
		return nil, fmt.Errorf(
			"garble: expected %d generator input bits, got %d",
			circ.GenInpCount, len(genInputBits))
	}
	if len(genInpMask) != circ.GenInpCount {
		return nil, fmt.Errorf(
			"garble: expected %d generator input mask bits, got %d",
			circ.GenInpCount, len(genInpMask))
	}
	prng, err := NewPRNG(seed)
	if err != nil {
		return nil, err
	}
	r, err := RandomLabel(rand, cfg.K)
	if err != nil {
		return nil, err
	}
	r = r.WithLsb(1)

	hash, err := NewRunningHash(cfg.hashChunkBytes())
	if err != nil {
		return nil, err
	}
	saltPRNG, err := NewPRNG(append(append([]byte{}, seed...), "salt"...))
	if err != nil {
		return nil, err
	}

	return &Generator{
		cfg:            cfg,
		circ:           circ,
		prng:           prng,
		rand:           rand,
		r:              r,
		wires:          NewWireTable(circ.NumWires),
		hash:           hash,
		genInputBits:   genInputBits,
		genInpMask:     genInpMask,
		genInpDecommit: make([]Decommitment, circ.GenInpCount),
		genInpPair:     make([][2]Decommitment, circ.GenInpCount),
		saltPRNG:       saltPRNG,
		genTags:        make(map[circuit.Wire]byte),
	}, nil
}

// NewCommitGenerator creates a Generator that additionally retains the
// decommitment for BOTH values of every generator input wire, not just
// the active one, the "Better Yao" cut-and-choose variant where the
// generator must later open every wire's full commitment pair under
// challenge to prove it garbled the same input it bound earlier.
func NewCommitGenerator(cfg Config, circ *circuit.Circuit, genInputBits, genInpMask []byte,
	seed []byte, rand io.Reader) (*Generator, error) {

	gen, err := NewGenerator(cfg, circ, genInputBits, genInpMask, seed, rand)
	if err != nil {
		return nil, err
	}
	gen.decommit = NewDecommitBuffer(cfg.K, circ.GenInpCount)
	return gen, nil
}

// Decommitments returns the generator's full input-wire decommitment
// buffer, holding both sides of every generator-input wire. It is nil
// unless the Generator was created with NewCommitGenerator.
func (gen *Generator) Decommitments() *DecommitBuffer {
	return gen.decommit
}

// GenInpDecommitments returns the active decommitment for every
// generator input wire, in circuit order. This is the out-of-band
// material the generator hands the evaluator directly (never over the
// garbled-gate stream) so she can recover each wire's active label and
// the input-binding protocol in GenNextGenInpCom/EvlNextGenInpCom can
// later verify consistency across circuit instances.
func (gen *Generator) GenInpDecommitments() []Decommitment {
	return gen.genInpDecommit
}

// R returns the circuit instance's global free-XOR offset.
func (gen *Generator) R() Label {
	return gen.r
}

// Hash returns the running hash of every byte this generator has
// emitted so far.
func (gen *Generator) Hash() *RunningHash {
	return gen.hash
}

// NextGate garbles gate g and returns the bytes to send to the
// evaluator. For a GEN_INP gate, that is a pair of k-byte commitment
// hashes, D[2i+0] for the wire's literal zero label and D[2i+1] for its
// literal one label, never a label itself -- the evaluator learns the
// active label only from the decommitment the generator hands her out
// of band (GenInpDecommitments) and recovers the matching commitment by
// indexing this pair with the shared mask bit, and the commitment pair
// is what lets her later catch a generator who opens a different label
// than the one she was given. For an EVL_INP gate, the return value is
// the (Z0, Z1) label pair meant for the oblivious-transfer subprotocol,
// not the evaluator's garbled-circuit transport: the caller must route
// it to its OT sender instead of appending it to the stream NextGate's
// other return values populate.
func (gen *Generator) NextGate(g circuit.Gate) ([]byte, error) {
	var out []byte

	switch g.Kind {
	case circuit.GenInp:
		z0 := gen.prng.Label(gen.cfg.K)
		z1 := z0.Xor(gen.r)
		gen.wires.Set(int(g.Output), z0)

		if gen.genInpIx >= len(gen.genInputBits) {
			return nil, fmt.Errorf("garble: too many gen_inp gates")
		}
		bit := gen.genInputBits[gen.genInpIx]

		salt0 := gen.saltPRNG.Label(gen.cfg.K).Bytes(gen.cfg.K)
		salt1 := gen.saltPRNG.Label(gen.cfg.K).Bytes(gen.cfg.K)
		d0 := NewDecommitment(z0.Bytes(gen.cfg.K), salt0)
		d1 := NewDecommitment(z1.Bytes(gen.cfg.K), salt1)
		gen.genInpPair[gen.genInpIx] = [2]Decommitment{d0, d1}

		dActive := d0
		if bit != 0 {
			dActive = d1
		}
		gen.genInpDecommit[gen.genInpIx] = dActive

		if gen.decommit != nil {
			gen.decommit.Set(gen.genInpIx, 0, d0)
			gen.decommit.Set(gen.genInpIx, 1, d1)
		}

		// The wire always carries D[2i+0]=label(0), D[2i+1]=label(1),
		// in that fixed order: the mask only selects which half the
		// evaluator reads back (NextGate on the Evaluator side), it
		// never reorders what the generator transmits.
		K := gen.cfg.K
		out = append(Commit(d0, K), Commit(d1, K)...)
		gen.genInpIx++

	case circuit.EvlInp:
		z0 := gen.prng.Label(gen.cfg.K)
		z1 := z0.Xor(gen.r)
		gen.wires.Set(int(g.Output), z0)
		gen.evlInpIx++
		// The (Z0, Z1) pair travels to the oblivious-transfer
		// subprotocol, not the garbled-circuit transcript, so it is
		// returned to the caller but never folded into the running
		// hash both sides compare at the end of the run.
		return append(z0.Bytes(gen.cfg.K), z1.Bytes(gen.cfg.K)...), nil

	default:
		z0, cipher, err := gen.garbleGate(g)
		if err != nil {
			return nil, err
		}
		gen.wires.Set(int(g.Output), z0)
		out = cipher
		if g.Kind == circuit.GenOut {
			gen.genTags[g.Output] = z0.Lsb()
			out = append(out, z0.Lsb())
		} else if g.Kind == circuit.EvlOut {
			out = append(out, z0.Lsb())
		}
	}

	gen.hash.Update(out)
	return out, nil
}

func (gen *Generator) garbleGate(g circuit.Gate) (Label, []byte, error) {
	tweak := Tweak(uint64(g.ID))

	if g.Arity() == 1 {
		a0 := gen.wires.Get(int(g.Input0))
		if gen.cfg.FreeXOR && g.IsXOR() {
			return a0, nil, nil
		}
		z0, cipher := gen.garbleInternal1(tweak, a0, g.Table)
		return z0, cipher, nil
	}

	a0 := gen.wires.Get(int(g.Input0))
	b0 := gen.wires.Get(int(g.Input1))
	if gen.cfg.FreeXOR && g.IsXOR() {
		return a0.Xor(b0), nil, nil
	}
	z0, cipher := gen.garbleInternal2(tweak, a0, b0, g.Table)
	return z0, cipher, nil
}

func (gen *Generator) garbleInternal1(tweak, a0 Label, table byte) (Label, []byte) {
	K := gen.cfg.ByteLen()
	a1 := a0.Xor(gen.r)
	pa := a0.Lsb()
	labelA := func(bit byte) Label {
		if bit == 0 {
			return a0
		}
		return a1
	}
	target := func(z0 Label, bit byte) Label {
		if truthBit(table, bit) == 0 {
			return z0
		}
		return z0.Xor(gen.r)
	}

	if gen.cfg.GRR {
		h0 := KDF128(tweak, labelA(pa), gen.cfg.K)
		var z0 Label
		if truthBit(table, pa) == 0 {
			z0 = h0
		} else {
			z0 = h0.Xor(gen.r)
		}
		other := 1 - pa
		h1 := KDF128(tweak, labelA(other), gen.cfg.K)
		c := h1.Xor(target(z0, other))
		return z0, c.Bytes(gen.cfg.K)
	}

	z0 := gen.prng.Label(gen.cfg.K)
	buf := make([]byte, 2*K)
	for bx := byte(0); bx < 2; bx++ {
		h := KDF128(tweak, labelA(bx), gen.cfg.K)
		c := h.Xor(target(z0, bx))
		idx := pa ^ bx
		copy(buf[int(idx)*K:], c.Bytes(gen.cfg.K))
	}
	return z0, buf
}

func (gen *Generator) garbleInternal2(tweak, a0, b0 Label, table byte) (Label, []byte) {
	K := gen.cfg.ByteLen()
	a1 := a0.Xor(gen.r)
	b1 := b0.Xor(gen.r)
	pa := a0.Lsb()
	pb := b0.Lsb()
	rows := rowsByPermuteIndex(pa, pb)

	labelA := func(bit byte) Label {
		if bit == 0 {
			return a0
		}
		return a1
	}
	labelB := func(bit byte) Label {
		if bit == 0 {
			return b0
		}
		return b1
	}
	truthAt := func(bx, by byte) byte {
		return truthBit(table, by<<1|bx)
	}
	target := func(z0 Label, bx, by byte) Label {
		if truthAt(bx, by) == 0 {
			return z0
		}
		return z0.Xor(gen.r)
	}

	if gen.cfg.GRR {
		r0 := rows[0]
		h0 := KDF256(tweak, labelA(r0.bx), labelB(r0.by), gen.cfg.K)
		var z0 Label
		if truthAt(r0.bx, r0.by) == 0 {
			z0 = h0
		} else {
			z0 = h0.Xor(gen.r)
		}
		buf := make([]byte, 3*K)
		for idx := 1; idx < 4; idx++ {
			rr := rows[idx]
			h := KDF256(tweak, labelA(rr.bx), labelB(rr.by), gen.cfg.K)
			c := h.Xor(target(z0, rr.bx, rr.by))
			copy(buf[(idx-1)*K:], c.Bytes(gen.cfg.K))
		}
		return z0, buf
	}

	z0 := gen.prng.Label(gen.cfg.K)
	buf := make([]byte, 4*K)
	for idx, rr := range rows {
		h := KDF256(tweak, labelA(rr.bx), labelB(rr.by), gen.cfg.K)
		c := h.Xor(target(z0, rr.bx, rr.by))
		copy(buf[idx*K:], c.Bytes(gen.cfg.K))
	}
	return z0, buf
}

// DecodeGenOutputs decodes the generator's own circuit outputs from
// the active labels the evaluator sends back after evaluation. recv
// maps a GEN_OUT wire to the label bytes the evaluator computed for
// it.
func (gen *Generator) DecodeGenOutputs(recv map[circuit.Wire][]byte) (
	map[circuit.Wire]byte, error) {

	out := make(map[circuit.Wire]byte, len(gen.genTags))
	for wire, tag := range gen.genTags {
		data, ok := recv[wire]
		if !ok {
			return nil, fmt.Errorf("garble: missing gen_out label for %v", wire)
		}
		label := LabelFromBytes(data)
		out[wire] = label.Lsb() ^ tag
	}
	return out, nil
}
