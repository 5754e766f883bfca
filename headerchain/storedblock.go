// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package headerchain implements the stored-block abstraction, the block
// store (in-memory and memory-mapped on-disk), header/transaction
// verification, and the chain engine that ties them together: header
// ingestion, difficulty retargeting, reorg handling, and notifications.
package headerchain

import (
	"bytes"
	"encoding/binary"
	"math/big"

	"github.com/pkg/errors"

	"github.com/btcspv/spvchain/chainhash"
	"github.com/btcspv/spvchain/pow"
	"github.com/btcspv/spvchain/wire"
)

// CompactV1Size and CompactV2Size are the two on-disk record sizes: v1
// carries the full 32-byte chain work, v2 truncates it to 12
// bytes and is used whenever the cumulative work still fits.
const (
	CompactV1Size = 32 + 4 + wire.BlockHeaderLen
	CompactV2Size = 12 + 4 + wire.BlockHeaderLen
)

// maxV2Work is the largest chain_work value (2^96 - 1) that still fits in
// v2's 12-byte truncated field.
var maxV2Work = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 96), big.NewInt(1))

// StoredBlock is a header together with its cumulative chain work and
// height, as accepted by the chain engine. StoredBlocks are immutable once
// constructed; BuildNext derives a child rather than mutating the parent.
type StoredBlock struct {
	Header    wire.BlockHeader
	ChainWork *big.Int
	Height    uint32
}

// Hash returns the stored block's header hash.
func (s *StoredBlock) Hash() chainhash.Hash {
	return s.Header.BlockHash()
}

// BuildNext derives the StoredBlock that results from accepting header as
// this block's successor: height+1, and chain_work increased by the new
// header's proof-of-work contribution.
func (s *StoredBlock) BuildNext(header *wire.BlockHeader) (*StoredBlock, error) {
	work, err := pow.WorkFromBits(header.Bits)
	if err != nil {
		return nil, errors.Wrap(err, "computing header work")
	}
	return &StoredBlock{
		Header:    *header,
		ChainWork: new(big.Int).Add(s.ChainWork, work),
		Height:    s.Height + 1,
	}, nil
}

// CompactEncodeV1 serializes the stored block using the 116-byte layout:
// chain_work as a big-endian 32-byte field, height as big-endian u32, then
// the 80-byte header.
func (s *StoredBlock) CompactEncodeV1() ([]byte, error) {
	buf := make([]byte, CompactV1Size)
	if err := putBigEndianWork(buf[:32], s.ChainWork); err != nil {
		return nil, err
	}
	binary.BigEndian.PutUint32(buf[32:36], s.Height)
	if err := encodeHeaderInto(buf[36:], &s.Header); err != nil {
		return nil, err
	}
	return buf, nil
}

// CompactEncodeV2 serializes the stored block using the 96-byte layout:
// chain_work truncated to 12 big-endian bytes, height as big-endian u32,
// then the 80-byte header. Returns an error if chain_work no longer fits
// in 12 bytes; callers must fall back to CompactEncodeV1 in that case.
func (s *StoredBlock) CompactEncodeV2() ([]byte, error) {
	if s.ChainWork.Cmp(maxV2Work) > 0 {
		return nil, errors.New("chain work exceeds v2's 12-byte field, use v1")
	}
	buf := make([]byte, CompactV2Size)
	if err := putBigEndianWork(buf[:12], s.ChainWork); err != nil {
		return nil, err
	}
	binary.BigEndian.PutUint32(buf[12:16], s.Height)
	if err := encodeHeaderInto(buf[16:], &s.Header); err != nil {
		return nil, err
	}
	return buf, nil
}

// CompactEncode picks v2 when the chain work fits, falling back to v1 once
// the cumulative work overflows the truncated field, and returns the chosen
// encoding's bytes.
func (s *StoredBlock) CompactEncode() ([]byte, error) {
	if buf, err := s.CompactEncodeV2(); err == nil {
		return buf, nil
	}
	return s.CompactEncodeV1()
}

// CompactDecode decodes either a v1 (116-byte) or v2 (96-byte) compact
// stored-block record, dispatching on the record's length.
func CompactDecode(buf []byte) (*StoredBlock, error) {
	switch len(buf) {
	case CompactV1Size:
		return CompactDecodeV1(buf)
	case CompactV2Size:
		return CompactDecodeV2(buf)
	default:
		return nil, errors.Errorf("compact stored block: unexpected record size %d", len(buf))
	}
}

// CompactDecodeV1 decodes a 116-byte compact stored-block record.
func CompactDecodeV1(buf []byte) (*StoredBlock, error) {
	if len(buf) != CompactV1Size {
		return nil, errors.Errorf("compact v1 stored block requires %d bytes, got %d", CompactV1Size, len(buf))
	}
	work := new(big.Int).SetBytes(buf[:32])
	height := binary.BigEndian.Uint32(buf[32:36])
	header, err := wire.ParseBlockHeader(buf[36:])
	if err != nil {
		return nil, err
	}
	return &StoredBlock{Header: *header, ChainWork: work, Height: height}, nil
}

// CompactDecodeV2 decodes a 96-byte compact stored-block record.
func CompactDecodeV2(buf []byte) (*StoredBlock, error) {
	if len(buf) != CompactV2Size {
		return nil, errors.Errorf("compact v2 stored block requires %d bytes, got %d", CompactV2Size, len(buf))
	}
	work := new(big.Int).SetBytes(buf[:12])
	height := binary.BigEndian.Uint32(buf[12:16])
	header, err := wire.ParseBlockHeader(buf[16:])
	if err != nil {
		return nil, err
	}
	return &StoredBlock{Header: *header, ChainWork: work, Height: height}, nil
}

func putBigEndianWork(dst []byte, work *big.Int) error {
	b := work.Bytes()
	if len(b) > len(dst) {
		return errors.Errorf("chain work does not fit in %d bytes", len(dst))
	}
	// Left-pad with zeros: big.Int.Bytes returns the minimal big-endian
	// representation, shorter than the field whenever work is small.
	copy(dst[len(dst)-len(b):], b)
	return nil
}

func encodeHeaderInto(dst []byte, h *wire.BlockHeader) error {
	var buf bytes.Buffer
	buf.Grow(wire.BlockHeaderLen)
	if err := h.Serialize(&buf); err != nil {
		return err
	}
	copy(dst, buf.Bytes())
	return nil
}
