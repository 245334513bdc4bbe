//
// evaluator.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package garble

import (
	"fmt"

	"github.com/kalervo-j/yaogc/circuit"
)

// Evaluator runs the evaluation side of a single circuit instance: for
// every gate in topological order, NextGate consumes the bytes the
// generator produced for it and learns exactly one label per wire.
type Evaluator struct {
	cfg  Config
	circ *circuit.Circuit

	wires *WireTable
	hash  *RunningHash

	evlInputLabels [][]byte
	evlInpIx       int
	genInpIx       int

	genInpMask     []byte
	genInpDecommit []Decommitment
	genInpCommit   [][]byte

	genOutLabels map[circuit.Wire][]byte
	evlOutBits   map[circuit.Wire]byte
}

// NewEvaluator creates an Evaluator for circ. evlInputLabels holds the
// evaluator's own input labels, one per evaluator input wire in
// circuit order, as produced by the oblivious-transfer subprotocol run
// ahead of evaluation. genInpMask and genInpDecommit are the
// out-of-band material the generator hands over for every generator
// input wire: genInpMask[i] says which half of the commitment pair the
// generator actually used, and genInpDecommit[i] is the matching
// active decommitment (GenInpDecommitments on the generator side),
// letting this evaluator recover the active label without ever seeing
// it travel over the garbled-gate stream in the clear.
func NewEvaluator(cfg Config, circ *circuit.Circuit, evlInputLabels [][]byte,
	genInpMask []byte, genInpDecommit []Decommitment) (*Evaluator, error) {

	if len(evlInputLabels) != circ.EvlInpCount {
		return nil, fmt.Errorf(
			"garble: expected %d evaluator input labels, got %d",
			circ.EvlInpCount, len(evlInputLabels))
	}
	if len(genInpMask) != circ.GenInpCount || len(genInpDecommit) != circ.GenInpCount {
		return nil, fmt.Errorf(
			"garble: expected %d generator input mask bits and decommitments, got %d and %d",
			circ.GenInpCount, len(genInpMask), len(genInpDecommit))
	}
	hash, err := NewRunningHash(cfg.hashChunkBytes())
	if err != nil {
		return nil, err
	}
	return &Evaluator{
		cfg:            cfg,
		circ:           circ,
		wires:          NewWireTable(circ.NumWires),
		hash:           hash,
		evlInputLabels: evlInputLabels,
		genInpMask:     genInpMask,
		genInpDecommit: genInpDecommit,
		genInpCommit:   make([][]byte, circ.GenInpCount),
		genOutLabels:   make(map[circuit.Wire][]byte),
		evlOutBits:     make(map[circuit.Wire]byte),
	}, nil
}

// Hash returns the running hash of every byte this evaluator has
// consumed so far. A correct run's final sum equals the generator's.
func (e *Evaluator) Hash() *RunningHash {
	return e.hash
}

// NextGate evaluates gate g using in, the bytes the generator
// produced for it (exactly CipherLen(cfg, g) bytes, except for
// EVL_INP gates, whose active label arrives out of band from the
// oblivious-transfer subprotocol rather than in).
func (e *Evaluator) NextGate(g circuit.Gate, in []byte) error {
	switch g.Kind {
	case circuit.GenInp:
		K := e.cfg.ByteLen()
		if len(in) < 2*K {
			return ErrBufferUnderrun
		}
		if e.genInpIx >= len(e.genInpMask) {
			return fmt.Errorf("garble: too many gen_inp gates")
		}
		m := e.genInpMask[e.genInpIx]
		commit := append([]byte{}, in[int(m)*K:int(m)*K+K]...)
		e.genInpCommit[e.genInpIx] = commit

		d := e.genInpDecommit[e.genInpIx]
		e.wires.Set(int(g.Output), LabelFromBytes(d.Label(K)))
		e.genInpIx++

		e.hash.Update(in[:2*K])
		return nil

	case circuit.EvlInp:
		if e.evlInpIx >= len(e.evlInputLabels) {
			return fmt.Errorf("garble: too many evl_inp gates")
		}
		e.wires.Set(int(g.Output), LabelFromBytes(e.evlInputLabels[e.evlInpIx]))
		e.evlInpIx++
		return nil

	default:
		return e.evalGate(g, in)
	}
}

func (e *Evaluator) evalGate(g circuit.Gate, in []byte) error {
	tweak := Tweak(uint64(g.ID))
	K := e.cfg.ByteLen()

	var z Label
	var cipherLen int
	if g.Arity() == 1 {
		ea := e.wires.Get(int(g.Input0))
		if e.cfg.FreeXOR && g.IsXOR() {
			z = ea
		} else {
			label, clen, err := e.evalInternal1(tweak, ea, g.Table, in)
			if err != nil {
				return err
			}
			z = label
			cipherLen = clen
		}
	} else {
		ea := e.wires.Get(int(g.Input0))
		eb := e.wires.Get(int(g.Input1))
		if e.cfg.FreeXOR && g.IsXOR() {
			z = ea.Xor(eb)
		} else {
			label, clen, err := e.evalInternal2(tweak, ea, eb, g.Table, in)
			if err != nil {
				return err
			}
			z = label
			cipherLen = clen
		}
	}
	e.wires.Set(int(g.Output), z)
	e.hash.Update(in[:cipherLen])

	if g.Kind == circuit.GenOut || g.Kind == circuit.EvlOut {
		if len(in) < cipherLen+1 {
			return ErrBufferUnderrun
		}
		tag := in[cipherLen]
		e.hash.Update(in[cipherLen : cipherLen+1])
		if g.Kind == circuit.GenOut {
			e.genOutLabels[g.Output] = append([]byte{}, z.Bytes(K)...)
		} else {
			e.evlOutBits[g.Output] = z.Lsb() ^ tag
		}
	}
	return nil
}

func (e *Evaluator) evalInternal1(tweak, ea Label, table byte, in []byte) (
	Label, int, error) {

	K := e.cfg.ByteLen()
	idx := ea.Lsb()
	h := KDF128(tweak, ea, e.cfg.K)

	if e.cfg.GRR {
		if len(in) < K {
			return Label{}, 0, ErrBufferUnderrun
		}
		if idx == 0 {
			return h, K, nil
		}
		c := LabelFromBytes(in[:K])
		return c.Xor(h), K, nil
	}
	if len(in) < 2*K {
		return Label{}, 0, ErrBufferUnderrun
	}
	pos := int(idx) * K
	c := LabelFromBytes(in[pos : pos+K])
	return c.Xor(h), 2 * K, nil
}

func (e *Evaluator) evalInternal2(tweak, ea, eb Label, table byte, in []byte) (
	Label, int, error) {

	K := e.cfg.ByteLen()
	idx := eb.Lsb()<<1 | ea.Lsb()
	h := KDF256(tweak, ea, eb, e.cfg.K)

	if e.cfg.GRR {
		if len(in) < 3*K {
			return Label{}, 0, ErrBufferUnderrun
		}
		if idx == 0 {
			return h, 3 * K, nil
		}
		pos := int(idx-1) * K
		c := LabelFromBytes(in[pos : pos+K])
		return c.Xor(h), 3 * K, nil
	}
	if len(in) < 4*K {
		return Label{}, 0, ErrBufferUnderrun
	}
	pos := int(idx) * K
	c := LabelFromBytes(in[pos : pos+K])
	return c.Xor(h), 4 * K, nil
}

// GenOutLabels returns the active labels computed for every GEN_OUT
// wire, the values the caller must ship back to the generator so it
// can decode its own circuit output via DecodeGenOutputs.
func (e *Evaluator) GenOutLabels() map[circuit.Wire][]byte {
	return e.genOutLabels
}

// EvlOutputs returns the evaluator's own decoded circuit output bits,
// one per EVL_OUT wire.
func (e *Evaluator) EvlOutputs() map[circuit.Wire]byte {
	return e.evlOutBits
}

// GenInpCommitments returns the commitment this evaluator actually
// observed on the wire for every generator input wire, the one at
// offset m*K selected by genInpMask. PassCheck compares these against
// the decommitments the generator opens under a cut-and-choose
// challenge to catch a generator who committed to one label but later
// claims to have garbled another.
func (e *Evaluator) GenInpCommitments() [][]byte {
	return e.genInpCommit
}
