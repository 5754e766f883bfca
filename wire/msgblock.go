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

// maxTxPerBlock bounds the number of transactions a decoder will allocate
// for, derived from the minimum possible transaction size so a malicious
// varint can't claim more transactions than the block could possibly hold.
const maxTxPerBlock = MaxBlockSize / 60

// MsgBlock defines a block: a header plus an optional list of transactions.
// A header-only block (Transactions == nil) still has a well-defined hash,
// since BlockHash operates on the header alone.
type MsgBlock struct {
	Header       BlockHeader
	Transactions []*MsgTx
}

// AddTransaction adds a transaction to the message.
func (msg *MsgBlock) AddTransaction(tx *MsgTx) {
	msg.Transactions = append(msg.Transactions, tx)
}

// BlockHash computes the block identifier hash, delegating to the header.
func (msg *MsgBlock) BlockHash() chainhash.Hash {
	return msg.Header.BlockHash()
}

// Serialize encodes the block to w: the 80-byte header followed by a
// VarInt transaction count and each transaction's canonical encoding.
func (msg *MsgBlock) Serialize(w io.Writer) error {
	if err := msg.Header.Serialize(w); err != nil {
		return err
	}
	if err := WriteVarInt(w, uint64(len(msg.Transactions))); err != nil {
		return err
	}
	for _, tx := range msg.Transactions {
		if err := tx.Serialize(w); err != nil {
			return err
		}
	}
	return nil
}

// SerializeSize returns the number of bytes it would take to serialize the
// block.
func (msg *MsgBlock) SerializeSize() int {
	var buf bytes.Buffer
	_ = msg.Serialize(&buf)
	return buf.Len()
}

// Deserialize decodes a block from r.
func (msg *MsgBlock) Deserialize(r io.Reader) error {
	if err := msg.Header.Deserialize(r); err != nil {
		return err
	}

	txCount, err := ReadVarInt(r)
	if err != nil {
		return err
	}
	if txCount > maxTxPerBlock {
		return errors.Wrapf(ErrMalformed, "tx count %d exceeds max transactions per block", txCount)
	}

	txs := make([]*MsgTx, txCount)
	for i := range txs {
		tx := new(MsgTx)
		if err := tx.Deserialize(r); err != nil {
			return err
		}
		txs[i] = tx
	}
	msg.Transactions = txs
	return nil
}

// ParseMsgBlock parses the canonical wire encoding of a block.
func ParseMsgBlock(b []byte) (*MsgBlock, error) {
	blk := new(MsgBlock)
	if err := blk.Deserialize(bytes.NewReader(b)); err != nil {
		return nil, err
	}
	return blk, nil
}

// NewMsgBlock returns a new block message with the provided header and no
// transactions.
func NewMsgBlock(header *BlockHeader) *MsgBlock {
	return &MsgBlock{Header: *header}
}
