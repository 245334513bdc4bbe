//
// kdf.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package garble

import (
	"crypto/aes"
)

// kdfHash implements a single tweakable-PRF evaluation: it keys AES
// with tweak XOR a and encrypts a, then XORs the ciphertext with a,
// the Davies-Meyer construction ot.MITCCRH uses to turn a per-gate
// tweak into a correlation-robust hash without a fixed global AES
// key.
func kdfHash(tweak, a Label) Label {
	key := tweak.Xor(a)
	var keyBuf, in, out [16]byte
	kb := key.Bytes(128)
	copy(keyBuf[:], kb)
	ab := a.Bytes(128)
	copy(in[:], ab)

	block, err := aes.NewCipher(keyBuf[:])
	if err != nil {
		panic(err)
	}
	block.Encrypt(out[:], in[:])

	return LabelFromBytes(out[:]).Xor(a)
}

// KDF128 derives a k-bit pseudorandom label from a single 128 bit
// input keyed by the tweak, used by the 1-input gate kernels and by
// the cross-instance input binding (GenNextGenInpCom/EvlNextGenInpCom).
func KDF128(tweak, a Label, k int) Label {
	return kdfHash(tweak, a).Mask(k)
}

// KDF256 derives a k-bit pseudorandom label from two 128 bit inputs
// keyed by the gate's tweak, used by the 2-input gate kernels to
// combine both input labels into one ciphertext row.
func KDF256(tweak, a, b Label, k int) Label {
	h := kdfHash(tweak, a)
	return kdfHash(h, b).Mask(k)
}
