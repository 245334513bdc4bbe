//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package garble

import (
	"bytes"
	"testing"
)

func TestRunningHashDeterministic(t *testing.T) {
	h1, err := NewRunningHash(0)
	if err != nil {
		t.Fatal(err)
	}
	h2, err := NewRunningHash(0)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 1000; i++ {
		data := []byte{byte(i), byte(i >> 8)}
		h1.Update(data)
		h2.Update(data)
	}
	if !bytes.Equal(h1.Sum(), h2.Sum()) {
		t.Fatal("identical byte streams produced different sums")
	}
}

func TestRunningHashDetectsTamper(t *testing.T) {
	h1, _ := NewRunningHash(0)
	h2, _ := NewRunningHash(0)

	h1.Update([]byte("gate-0-ciphertext"))
	h2.Update([]byte("gate-0-ciphertext"))

	h1.Update([]byte("gate-1-ciphertext"))
	h2.Update([]byte("gate-1-tampered!!"))

	if bytes.Equal(h1.Sum(), h2.Sum()) {
		t.Fatal("tampered byte stream produced identical sum")
	}
}

func TestRunningHashSpillChunking(t *testing.T) {
	// A tiny chunk size forces many internal spill flushes; the final
	// sum must still match a single large chunk over the same bytes.
	small, err := NewRunningHash(4)
	if err != nil {
		t.Fatal(err)
	}
	large, err := NewRunningHash(1024)
	if err != nil {
		t.Fatal(err)
	}

	data := bytes.Repeat([]byte{0xab}, 257)
	for i := 0; i < len(data); i += 3 {
		end := i + 3
		if end > len(data) {
			end = len(data)
		}
		small.Update(data[i:end])
		large.Update(data[i:end])
	}

	if !bytes.Equal(small.Sum(), large.Sum()) {
		t.Fatal("chunk size affected the final digest")
	}
}
