// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/btcspv/spvchain/chainhash"
)

// TestBlockHeaderSerializeDeserialize ensures a header survives a
// Serialize/Deserialize round trip and reports the fixed 80-byte size.
func TestBlockHeaderSerializeDeserialize(t *testing.T) {
	prevHash := chainhash.Hash{0x01}
	merkleRoot := chainhash.Hash{0x02}
	h := NewBlockHeader(1, &prevHash, &merkleRoot, 0x1d00ffff, 12345)
	h.SetTimestamp(1231006505)

	if h.SerializeSize() != BlockHeaderLen {
		t.Fatalf("SerializeSize: got %d want %d", h.SerializeSize(), BlockHeaderLen)
	}

	var buf bytes.Buffer
	if err := h.Serialize(&buf); err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if buf.Len() != BlockHeaderLen {
		t.Fatalf("serialized length: got %d want %d", buf.Len(), BlockHeaderLen)
	}

	got, err := ParseBlockHeader(buf.Bytes())
	if err != nil {
		t.Fatalf("ParseBlockHeader: %v", err)
	}

	if got.Version != h.Version || got.PrevHash != h.PrevHash ||
		got.MerkleRoot != h.MerkleRoot || got.Timestamp != h.Timestamp ||
		got.Bits != h.Bits || got.Nonce != h.Nonce {
		t.Errorf("round trip mismatch: got %+v want %+v", got, h)
	}
}

// TestBlockHashCaching ensures BlockHash caches its result and that the
// Set* mutators invalidate the cache.
func TestBlockHashCaching(t *testing.T) {
	prevHash := chainhash.Hash{}
	merkleRoot := chainhash.Hash{}
	h := NewBlockHeader(1, &prevHash, &merkleRoot, 0x1d00ffff, 0)

	first := h.BlockHash()
	h.SetNonce(1)
	second := h.BlockHash()

	if first == second {
		t.Errorf("expected BlockHash to change after SetNonce invalidated the cache")
	}

	third := h.BlockHash()
	if second != third {
		t.Errorf("expected a cached BlockHash to be stable across calls")
	}
}

// TestParseBlockHeaderTruncated ensures a too-short buffer is rejected.
func TestParseBlockHeaderTruncated(t *testing.T) {
	if _, err := ParseBlockHeader(make([]byte, BlockHeaderLen-1)); err == nil {
		t.Errorf("expected an error parsing a truncated header")
	}
}

// block1HeaderHex is the canonical serialization of the mainnet block 1
// header.
const block1HeaderHex = "010000006fe28c0ab6f1b372c1a6a246ae63f74f931e8365e15a089c68d619000000000" +
	"0982051fd1e4ba744bbbe680e1fee14677ba1a3c3540bf7b1cdb606e857233e0e61bc6649ffff001d01e36299"

// TestParseBlockHeaderMainnetBlock1 parses the real mainnet block 1 header
// and checks both its own hash and its reference to the genesis hash.
func TestParseBlockHeaderMainnetBlock1(t *testing.T) {
	raw, err := hex.DecodeString(block1HeaderHex)
	if err != nil {
		t.Fatalf("decoding fixture: %v", err)
	}

	h, err := ParseBlockHeader(raw)
	if err != nil {
		t.Fatalf("ParseBlockHeader: %v", err)
	}

	const wantHash = "00000000839a8e6886ab5951d76f411475428afc90947ee320161bbf18eb6048"
	if got := h.BlockHash().String(); got != wantHash {
		t.Errorf("block 1 hash: got %s want %s", got, wantHash)
	}

	const wantPrev = "000000000019d6689c085ae165831e934ff763ae46a2a6c172b3f1b60a8ce26f"
	if got := h.PrevHash.String(); got != wantPrev {
		t.Errorf("block 1 prev hash: got %s want %s", got, wantPrev)
	}

	var buf bytes.Buffer
	if err := h.Serialize(&buf); err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if !bytes.Equal(buf.Bytes(), raw) {
		t.Errorf("block 1 header did not round trip byte for byte")
	}
}
