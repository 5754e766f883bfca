// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"testing"

	"github.com/davecgh/go-spew/spew"

	"github.com/btcspv/spvchain/chainhash"
)

func sampleHeader() BlockHeader {
	return BlockHeader{
		Version:    1,
		PrevHash:   chainhash.Hash{},
		MerkleRoot: chainhash.Hash{},
		Timestamp:  1231006505,
		Bits:       0x1d00ffff,
		Nonce:      2083236893,
	}
}

func sampleBlock() *MsgBlock {
	header := sampleHeader()
	blk := NewMsgBlock(&header)
	blk.AddTransaction(sampleNonWitnessTx())
	return blk
}

// TestMsgBlockSerializeDeserialize ensures a block with a body survives a
// Serialize/ParseMsgBlock round trip byte for byte.
func TestMsgBlockSerializeDeserialize(t *testing.T) {
	blk := sampleBlock()

	var buf bytes.Buffer
	if err := blk.Serialize(&buf); err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	got, err := ParseMsgBlock(buf.Bytes())
	if err != nil {
		t.Fatalf("ParseMsgBlock: %v", err)
	}

	var gotBuf bytes.Buffer
	if err := got.Serialize(&gotBuf); err != nil {
		t.Fatalf("Serialize (decoded): %v", err)
	}
	if !bytes.Equal(buf.Bytes(), gotBuf.Bytes()) {
		t.Errorf("round trip mismatch: got %v, want %v", spew.Sdump(got), spew.Sdump(blk))
	}
	if len(got.Transactions) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(got.Transactions))
	}
	if blk.BlockHash() != got.BlockHash() {
		t.Errorf("block hash mismatch after round trip")
	}
}

// TestMsgBlockHeaderOnlyHasWellDefinedHash checks that a header-only block
// (Transactions == nil) still computes a hash, since it delegates entirely
// to the embedded header.
func TestMsgBlockHeaderOnlyHasWellDefinedHash(t *testing.T) {
	header := sampleHeader()
	blk := NewMsgBlock(&header)
	if blk.Transactions != nil {
		t.Fatalf("expected a freshly constructed block to have no transactions")
	}
	if blk.BlockHash() != header.BlockHash() {
		t.Errorf("expected header-only block hash to match its header's hash")
	}
}

// TestMsgBlockSerializeSize checks that SerializeSize agrees with the
// length of an actual Serialize call.
func TestMsgBlockSerializeSize(t *testing.T) {
	blk := sampleBlock()

	var buf bytes.Buffer
	if err := blk.Serialize(&buf); err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if got := blk.SerializeSize(); got != buf.Len() {
		t.Errorf("SerializeSize: got %d want %d", got, buf.Len())
	}
}

// TestMsgBlockOversizedTxCountRejected ensures Deserialize rejects a claimed
// transaction count too large for the block size budget to hold, rather
// than allocating it.
func TestMsgBlockOversizedTxCountRejected(t *testing.T) {
	var buf bytes.Buffer
	header := sampleHeader()
	if err := header.Serialize(&buf); err != nil {
		t.Fatalf("Serialize header: %v", err)
	}
	if err := WriteVarInt(&buf, uint64(maxTxPerBlock)+1); err != nil {
		t.Fatalf("WriteVarInt: %v", err)
	}

	blk := new(MsgBlock)
	if err := blk.Deserialize(bytes.NewReader(buf.Bytes())); err == nil {
		t.Errorf("expected an oversized transaction count to be rejected")
	}
}
