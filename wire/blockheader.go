// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"io"

	"github.com/pkg/errors"

	"github.com/btcspv/spvchain/chainhash"
)

// BlockHeaderLen is the number of bytes in the serialized block header
// layout: version, prev hash, merkle root, time, bits, nonce.
const BlockHeaderLen = 80

// BlockHeader defines the header of a block. Unlike the multi-parent shape
// this package's ancestry carries for DAG chains, it has exactly one
// predecessor, matching Bitcoin's single-chain model.
type BlockHeader struct {
	// Version of the block. This is not the same as the protocol version.
	Version uint32

	// PrevHash is the hash of the previous block header in the chain.
	PrevHash chainhash.Hash

	// MerkleRoot is the merkle tree reference to the hash of all
	// transactions for the block.
	MerkleRoot chainhash.Hash

	// Timestamp is the time the block was created, encoded as Unix seconds.
	Timestamp uint32

	// Bits is the compact-encoded difficulty target for the block.
	Bits uint32

	// Nonce used to generate the block.
	Nonce uint32

	cachedHash *chainhash.Hash
}

// BlockHash computes the block identifier hash for the given block header,
// caching it on first call. Mutations go through the SetXxx setters (test
// harnesses only), which invalidate the cache; production code treats
// headers as immutable once constructed.
func (h *BlockHeader) BlockHash() chainhash.Hash {
	if h.cachedHash != nil {
		return *h.cachedHash
	}

	var buf bytes.Buffer
	buf.Grow(BlockHeaderLen)
	_ = writeBlockHeader(&buf, h)

	hash := chainhash.DoubleHashH(buf.Bytes())
	h.cachedHash = &hash
	return hash
}

func (h *BlockHeader) invalidateCache() {
	h.cachedHash = nil
}

// SetNonce sets the header's nonce field, invalidating any cached hash.
// Exists for miners/test harnesses; production headers are immutable.
func (h *BlockHeader) SetNonce(nonce uint32) {
	h.Nonce = nonce
	h.invalidateCache()
}

// SetTimestamp sets the header's timestamp field, invalidating any cached
// hash.
func (h *BlockHeader) SetTimestamp(ts uint32) {
	h.Timestamp = ts
	h.invalidateCache()
}

// BtcDecode decodes r using the wire protocol encoding into the receiver.
func (h *BlockHeader) BtcDecode(r io.Reader) error {
	return readBlockHeader(r, h)
}

// BtcEncode encodes the receiver to w using the wire protocol encoding.
func (h *BlockHeader) BtcEncode(w io.Writer) error {
	return writeBlockHeader(w, h)
}

// Deserialize decodes a header from r into the receiver.
func (h *BlockHeader) Deserialize(r io.Reader) error {
	return readBlockHeader(r, h)
}

// Serialize encodes the receiver to w exactly as it appears on the wire.
func (h *BlockHeader) Serialize(w io.Writer) error {
	return writeBlockHeader(w, h)
}

// SerializeSize returns the number of bytes it would take to serialize the
// block header.
func (h *BlockHeader) SerializeSize() int {
	return BlockHeaderLen
}

// NewBlockHeader returns a new BlockHeader using the provided version, prev
// block hash, merkle root hash, difficulty bits, and nonce, leaving the
// timestamp zero for the caller to set explicitly.
func NewBlockHeader(version uint32, prevHash, merkleRootHash *chainhash.Hash,
	bits uint32, nonce uint32) *BlockHeader {

	return &BlockHeader{
		Version:    version,
		PrevHash:   *prevHash,
		MerkleRoot: *merkleRootHash,
		Bits:       bits,
		Nonce:      nonce,
	}
}

func readBlockHeader(r io.Reader, bh *BlockHeader) error {
	if err := readElement(r, &bh.Version); err != nil {
		return err
	}
	if err := readElement(r, &bh.PrevHash); err != nil {
		return err
	}
	if err := readElement(r, &bh.MerkleRoot); err != nil {
		return err
	}
	if err := readElement(r, &bh.Timestamp); err != nil {
		return err
	}
	if err := readElement(r, &bh.Bits); err != nil {
		return err
	}
	return readElement(r, &bh.Nonce)
}

func writeBlockHeader(w io.Writer, bh *BlockHeader) error {
	if err := writeElement(w, bh.Version); err != nil {
		return err
	}
	if err := writeElement(w, bh.PrevHash); err != nil {
		return err
	}
	if err := writeElement(w, bh.MerkleRoot); err != nil {
		return err
	}
	if err := writeElement(w, bh.Timestamp); err != nil {
		return err
	}
	if err := writeElement(w, bh.Bits); err != nil {
		return err
	}
	return writeElement(w, bh.Nonce)
}

// ParseBlockHeader parses the canonical 80-byte wire encoding of a block
// header.
func ParseBlockHeader(b []byte) (*BlockHeader, error) {
	if len(b) < BlockHeaderLen {
		return nil, errors.Wrapf(ErrTruncated, "block header requires %d bytes, got %d", BlockHeaderLen, len(b))
	}
	h := new(BlockHeader)
	if err := readBlockHeader(bytes.NewReader(b[:BlockHeaderLen]), h); err != nil {
		return nil, err
	}
	return h, nil
}
