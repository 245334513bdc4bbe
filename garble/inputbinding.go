//
// inputbinding.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package garble

// GenNextGenInpCom folds a subset of this circuit instance's
// mask-indexed generator-input decommitments -- D[2j+mask[j]], the
// same half the wire transmits first when mask[j]=0 and second when
// mask[j]=1 -- into a single k-bit value and returns it masked under a
// fresh output-label pair, the half-gate-style commitment that lets an
// auditor confirm two circuit instances were garbled from the same
// generator input without learning it. row holds one selector byte per
// generator input wire (nonzero means "fold wire j into the
// combination"); kx names the other circuit instance this commitment
// is being tied to.
func (gen *Generator) GenNextGenInpCom(row []byte, kx uint64) []byte {
	k := gen.cfg.K
	Kb := gen.cfg.ByteLen()

	msg := make([]byte, 2*Kb)
	for j, sel := range row {
		if sel == 0 {
			continue
		}
		d := gen.genInpPair[j][gen.genInpMask[j]]
		for i := range msg {
			msg[i] ^= d[i]
		}
	}

	out0 := gen.prng.Label(k).WithLsb(0)
	out1 := out0.Xor(gen.r)

	in0 := LabelFromBytes(msg[:Kb])
	in1 := in0.Xor(gen.r)

	tweak := Tweak(kx)
	c0 := KDF128(tweak, in0, k).Xor(out0)
	c1 := KDF128(tweak, in1, k).Xor(out1)

	bit := in0.Lsb()
	if bit == 0 {
		return append(c0.Bytes(k), c1.Bytes(k)...)
	}
	return append(c1.Bytes(k), c0.Bytes(k)...)
}

// EvlNextGenInpCom recomputes the same XOR-combined value from the
// evaluator's own copy of the active decommitments, uses its low bit
// to pick which half of published (the bytes GenNextGenInpCom
// returned) carries the matching masked label, strips the mask and
// returns the recovered label's low bit: gen_inp_hash[kx], the single
// bit two auditors compare to confirm input consistency across
// circuit instances without exchanging the generator's labels.
func (ev *Evaluator) EvlNextGenInpCom(row []byte, kx uint64, published []byte) byte {
	k := ev.cfg.K
	Kb := ev.cfg.ByteLen()

	msg := make([]byte, 2*Kb)
	for j, sel := range row {
		if sel == 0 {
			continue
		}
		d := ev.genInpDecommit[j]
		for i := range msg {
			msg[i] ^= d[i]
		}
	}

	aesKey := LabelFromBytes(msg[:Kb])
	bit := aesKey.Lsb()
	c := KDF128(Tweak(kx), aesKey, k)

	offset := int(bit) * Kb
	outKey := LabelFromBytes(published[offset : offset+Kb]).Xor(c)
	return outKey.Lsb()
}
