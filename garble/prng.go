//
// prng.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package garble

import (
	"crypto/aes"
	"crypto/cipher"

	"golang.org/x/crypto/blake2b"
)

// PRNG implements the deterministic AES-CTR label generator the
// generator side uses to derive fresh GEN_INP labels and wire masks
// from a single seed, the same AES-CTR construction otext.prgAESCTR
// uses to expand IKNP OT extension seeds.
type PRNG struct {
	stream cipher.Stream
}

// NewPRNG creates a PRNG seeded from an arbitrary-length seed. The
// seed is compressed to an AES-128 key with BLAKE2b so callers are
// not required to supply exactly 16 bytes of entropy.
func NewPRNG(seed []byte) (*PRNG, error) {
	key := blake2b.Sum256(seed)
	block, err := aes.NewCipher(key[:16])
	if err != nil {
		return nil, err
	}
	var iv [16]byte
	return &PRNG{stream: cipher.NewCTR(block, iv[:])}, nil
}

// Read fills buf with keystream bytes.
func (p *PRNG) Read(buf []byte) {
	for i := range buf {
		buf[i] = 0
	}
	p.stream.XORKeyStream(buf, buf)
}

// Label draws a fresh, uniformly random k-bit Label from the PRNG
// stream.
func (p *PRNG) Label(k int) Label {
	buf := make([]byte, ByteLen(k))
	p.Read(buf)
	return LabelFromBytes(buf).Mask(k)
}
