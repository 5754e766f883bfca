// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chainhash

import "testing"

// TestHashWriterMatchesHashH ensures streaming through a HashWriter
// produces the same result as hashing the concatenated input directly.
func TestHashWriterMatchesHashH(t *testing.T) {
	data := []byte("the quick brown fox jumps over the lazy dog")

	w := NewHashWriter()
	_, _ = w.Write(data[:10])
	_, _ = w.Write(data[10:])
	got := w.Finalize()

	want := HashH(data)
	if got != want {
		t.Errorf("HashWriter: got %v want %v", got, want)
	}
}

// TestDoubleHashWriterMatchesDoubleHashH ensures streaming through a
// DoubleHashWriter matches DoubleHashH over the same input.
func TestDoubleHashWriterMatchesDoubleHashH(t *testing.T) {
	data := []byte("spv header chain")

	w := NewDoubleHashWriter()
	_, _ = w.Write(data)
	got := w.Finalize()

	want := DoubleHashH(data)
	if got != want {
		t.Errorf("DoubleHashWriter: got %v want %v", got, want)
	}
}

// TestDoubleHashBMatchesTwoSingleHashes sanity-checks DoubleHashB applies
// SHA-256 twice.
func TestDoubleHashBMatchesTwoSingleHashes(t *testing.T) {
	data := []byte("genesis")
	want := HashB(HashB(data))
	got := DoubleHashB(data)
	if string(got) != string(want) {
		t.Errorf("DoubleHashB: got %x want %x", got, want)
	}
}
