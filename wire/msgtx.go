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

// witnessMarkerByte and witnessFlagByte are the two bytes that, when found
// in place of the input count, signal a segwit-serialized transaction.
const (
	witnessMarkerByte = 0x00
	witnessFlagByte   = 0x01
)

// maxTxInPerMessage and its siblings cap the element counts accepted when
// decoding transactions; a larger count is rejected as malformed, avoiding a
// denial-of-service amplification where a tiny varint claims an enormous
// element count.
const (
	maxTxInPerMessage       = MaxBlockSize / 41
	maxTxOutPerMessage      = MaxBlockSize / 9
	maxWitnessItemsPerInput = 10000
	maxWitnessItemSize      = MaxBlockSize
)

// OutPoint defines a bitcoin transaction outpoint, identifying a prior
// transaction output by its id and index.
type OutPoint struct {
	Hash  chainhash.Hash
	Index uint32
}

// NewOutPoint returns a new bitcoin transaction outpoint point with the
// provided hash and index.
func NewOutPoint(hash *chainhash.Hash, index uint32) *OutPoint {
	return &OutPoint{Hash: *hash, Index: index}
}

// IsCoinBase reports whether the outpoint is the distinguished null input a
// coinbase transaction's sole TxIn must reference.
func (o *OutPoint) IsCoinBase() bool {
	return o.Index == 0xffffffff && o.Hash == (chainhash.Hash{})
}

func readOutPoint(r io.Reader, op *OutPoint) error {
	if err := readElement(r, &op.Hash); err != nil {
		return err
	}
	return readElement(r, &op.Index)
}

func writeOutPoint(w io.Writer, op *OutPoint) error {
	if err := writeElement(w, op.Hash); err != nil {
		return err
	}
	return writeElement(w, op.Index)
}

// TxWitness is the witness stack for a single transaction input: zero or
// more length-prefixed byte pushes.
type TxWitness [][]byte

func readTxWitness(r io.Reader) (TxWitness, error) {
	count, err := ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	if count > maxWitnessItemsPerInput {
		return nil, errors.Wrapf(ErrMalformed, "witness stack size %d exceeds max", count)
	}

	stack := make(TxWitness, count)
	for i := range stack {
		item, err := ReadVarBytes(r, maxWitnessItemSize, "witness item")
		if err != nil {
			return nil, err
		}
		stack[i] = item
	}
	return stack, nil
}

func writeTxWitness(w io.Writer, wit TxWitness) error {
	if err := WriteVarInt(w, uint64(len(wit))); err != nil {
		return err
	}
	for _, item := range wit {
		if err := WriteVarBytes(w, item); err != nil {
			return err
		}
	}
	return nil
}

// TxIn defines a bitcoin transaction input.
type TxIn struct {
	PreviousOutPoint OutPoint
	SignatureScript  []byte
	Sequence         uint32
	Witness          TxWitness
}

// NewTxIn returns a new bitcoin transaction input with the provided
// previous outpoint and signature script, with a default sequence.
func NewTxIn(prevOut *OutPoint, signatureScript []byte) *TxIn {
	return &TxIn{
		PreviousOutPoint: *prevOut,
		SignatureScript:  signatureScript,
		Sequence:         0xffffffff,
	}
}

// TxOut defines a bitcoin transaction output.
type TxOut struct {
	Value    uint64
	PkScript []byte
}

// NewTxOut returns a new bitcoin transaction output with the provided
// amount and script.
func NewTxOut(value uint64, pkScript []byte) *TxOut {
	return &TxOut{Value: value, PkScript: pkScript}
}

// MsgTx is a bitcoin transaction: a version, a set of
// inputs and outputs, an optional per-input witness (present iff any input
// carries one), and a lock time.
type MsgTx struct {
	Version  uint32
	TxIn     []*TxIn
	TxOut    []*TxOut
	LockTime uint32
}

// NewMsgTx returns a new bitcoin transaction with the given version and no
// transaction inputs or outputs. Also, the lock
// time is set to zero to indicate the transaction is valid immediately as
// opposed to some time in future.
func NewMsgTx(version uint32) *MsgTx {
	return &MsgTx{Version: version}
}

// AddTxIn adds a transaction input to the message.
func (msg *MsgTx) AddTxIn(ti *TxIn) {
	msg.TxIn = append(msg.TxIn, ti)
}

// AddTxOut adds a transaction output to the message.
func (msg *MsgTx) AddTxOut(to *TxOut) {
	msg.TxOut = append(msg.TxOut, to)
}

// HasWitness reports whether any input of the transaction carries a
// witness stack; the writer uses this to decide whether to emit the
// segwit marker/flag.
func (msg *MsgTx) HasWitness() bool {
	for _, txIn := range msg.TxIn {
		if len(txIn.Witness) > 0 {
			return true
		}
	}
	return false
}

// IsCoinBase determines whether the transaction is a coinbase: exactly one
// input, referencing the null outpoint.
func (msg *MsgTx) IsCoinBase() bool {
	return len(msg.TxIn) == 1 && msg.TxIn[0].PreviousOutPoint.IsCoinBase()
}

// TxHash computes the transaction id: the double-SHA-256 hash of the
// transaction serialized WITHOUT the segwit marker, flag, or witness data.
func (msg *MsgTx) TxHash() chainhash.Hash {
	var buf bytes.Buffer
	_ = msg.serialize(&buf, false)
	return chainhash.DoubleHashH(buf.Bytes())
}

// WitnessHash computes the witness id: the double-SHA-256 hash of the
// transaction's full segwit serialization (marker, flag, and witness
// stacks included, even if the transaction carries no witness data).
func (msg *MsgTx) WitnessHash() chainhash.Hash {
	var buf bytes.Buffer
	_ = msg.serialize(&buf, true)
	return chainhash.DoubleHashH(buf.Bytes())
}

// Serialize encodes the transaction using the canonical wire form: segwit
// framing (marker/flag/witness) is emitted only when at least one input
// carries a witness stack.
func (msg *MsgTx) Serialize(w io.Writer) error {
	return msg.serialize(w, msg.HasWitness())
}

func (msg *MsgTx) serialize(w io.Writer, includeWitness bool) error {
	if err := writeElement(w, msg.Version); err != nil {
		return err
	}

	if includeWitness {
		if err := writeElement(w, uint8(witnessMarkerByte)); err != nil {
			return err
		}
		if err := writeElement(w, uint8(witnessFlagByte)); err != nil {
			return err
		}
	}

	if err := WriteVarInt(w, uint64(len(msg.TxIn))); err != nil {
		return err
	}
	for _, ti := range msg.TxIn {
		if err := writeOutPoint(w, &ti.PreviousOutPoint); err != nil {
			return err
		}
		if err := WriteVarBytes(w, ti.SignatureScript); err != nil {
			return err
		}
		if err := writeElement(w, ti.Sequence); err != nil {
			return err
		}
	}

	if err := WriteVarInt(w, uint64(len(msg.TxOut))); err != nil {
		return err
	}
	for _, to := range msg.TxOut {
		if err := writeElement(w, to.Value); err != nil {
			return err
		}
		if err := WriteVarBytes(w, to.PkScript); err != nil {
			return err
		}
	}

	if includeWitness {
		for _, ti := range msg.TxIn {
			if err := writeTxWitness(w, ti.Witness); err != nil {
				return err
			}
		}
	}

	return writeElement(w, msg.LockTime)
}

// Deserialize decodes a transaction from r, auto-detecting the segwit
// marker+flag bytes in place of the input count.
func (msg *MsgTx) Deserialize(r io.Reader) error {
	var version uint32
	if err := readElement(r, &version); err != nil {
		return err
	}
	msg.Version = version

	firstByte, err := ReadVarInt(r)
	if err != nil {
		return err
	}

	segwit := false
	var txInCount uint64
	if firstByte == witnessMarkerByte {
		flag, err := readByte(r)
		if err != nil {
			return err
		}
		if flag != witnessFlagByte {
			return errors.Wrap(ErrMalformed, "unsupported segwit flag byte")
		}
		segwit = true
		txInCount, err = ReadVarInt(r)
		if err != nil {
			return err
		}
	} else {
		txInCount = firstByte
	}

	if txInCount > maxTxInPerMessage {
		return errors.Wrapf(ErrMalformed, "tx input count %d exceeds max", txInCount)
	}

	txIns := make([]*TxIn, txInCount)
	for i := range txIns {
		ti := new(TxIn)
		if err := readOutPoint(r, &ti.PreviousOutPoint); err != nil {
			return err
		}
		sigScript, err := ReadVarBytes(r, MaxBlockSize, "signature script")
		if err != nil {
			return err
		}
		ti.SignatureScript = sigScript
		if err := readElement(r, &ti.Sequence); err != nil {
			return err
		}
		txIns[i] = ti
	}
	msg.TxIn = txIns

	txOutCount, err := ReadVarInt(r)
	if err != nil {
		return err
	}
	if txOutCount > maxTxOutPerMessage {
		return errors.Wrapf(ErrMalformed, "tx output count %d exceeds max", txOutCount)
	}

	txOuts := make([]*TxOut, txOutCount)
	for i := range txOuts {
		to := new(TxOut)
		var value uint64
		if err := readElement(r, &value); err != nil {
			return err
		}
		to.Value = value
		pkScript, err := ReadVarBytes(r, MaxBlockSize, "public key script")
		if err != nil {
			return err
		}
		to.PkScript = pkScript
		txOuts[i] = to
	}
	msg.TxOut = txOuts

	if segwit {
		for _, ti := range msg.TxIn {
			wit, err := readTxWitness(r)
			if err != nil {
				return err
			}
			ti.Witness = wit
		}
	}

	return readElement(r, &msg.LockTime)
}

func readByte(r io.Reader) (byte, error) {
	var b [1]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, wrapShortRead(err)
	}
	return b[0], nil
}

// ParseMsgTx parses the canonical wire encoding of a transaction.
func ParseMsgTx(b []byte) (*MsgTx, error) {
	tx := new(MsgTx)
	if err := tx.Deserialize(bytes.NewReader(b)); err != nil {
		return nil, err
	}
	return tx, nil
}
