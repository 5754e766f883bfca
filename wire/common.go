// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package wire implements the Bitcoin wire serialization used by the
// header-chain engine: headers, transactions, and blocks.
package wire

import (
	"io"

	"github.com/pkg/errors"

	"github.com/btcspv/spvchain/chainhash"
	"github.com/btcspv/spvchain/util/binaryserializer"
)

// MaxBlockSize is the maximum number of bytes a serialized block may occupy.
const MaxBlockSize = 1000000

// MaxSigOpsPerBlock is the maximum number of legacy signature operations
// allowed per block.
const MaxSigOpsPerBlock = MaxBlockSize / 50

// Codec failure kinds. Readers surface exactly one of these per failed
// call.
var (
	// ErrTruncated is returned when a read would need more bytes than the
	// reader has available.
	ErrTruncated = errors.New("truncated: unexpected end of data")

	// ErrMalformed is returned for a structurally invalid encoding (e.g. a
	// declared length the remaining buffer can't satisfy).
	ErrMalformed = errors.New("malformed encoding")

	// ErrNonCanonicalVarInt names a VarInt that is well-formed but encoded
	// with more bytes than the canonical minimal form requires. ReadVarInt
	// accepts such encodings and does not return it.
	ErrNonCanonicalVarInt = errors.New("non-canonical varint encoding")
)

func wrapShortRead(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return ErrTruncated
	}
	return errors.WithStack(err)
}

func readElement(r io.Reader, element interface{}) error {
	switch e := element.(type) {
	case *uint8:
		v, err := binaryserializer.Uint8(r)
		if err != nil {
			return wrapShortRead(err)
		}
		*e = v
		return nil
	case *uint32:
		v, err := binaryserializer.Uint32(r)
		if err != nil {
			return wrapShortRead(err)
		}
		*e = v
		return nil
	case *uint64:
		v, err := binaryserializer.Uint64(r)
		if err != nil {
			return wrapShortRead(err)
		}
		*e = v
		return nil
	case *int64:
		v, err := binaryserializer.Uint64(r)
		if err != nil {
			return wrapShortRead(err)
		}
		*e = int64(v)
		return nil
	case *chainhash.Hash:
		_, err := io.ReadFull(r, e[:])
		if err != nil {
			return wrapShortRead(err)
		}
		return nil
	}
	return errors.Errorf("readElement: unhandled type %T", element)
}

func writeElement(w io.Writer, element interface{}) error {
	switch e := element.(type) {
	case uint8:
		return errors.WithStack(binaryserializer.PutUint8(w, e))
	case uint32:
		return errors.WithStack(binaryserializer.PutUint32(w, e))
	case uint64:
		return errors.WithStack(binaryserializer.PutUint64(w, e))
	case int64:
		return errors.WithStack(binaryserializer.PutUint64(w, uint64(e)))
	case chainhash.Hash:
		_, err := w.Write(e[:])
		return errors.WithStack(err)
	}
	return errors.Errorf("writeElement: unhandled type %T", element)
}

// ReadVarInt reads a variable length integer from r and returns it as a
// uint64. Non-canonical encodings (a multi-byte form that could have fit in
// a shorter one) are accepted by the reader per the lenient-reader allowance
// in the byte codec's design, but are rejected in WriteVarInt's output.
func ReadVarInt(r io.Reader) (uint64, error) {
	discriminator, err := binaryserializer.Uint8(r)
	if err != nil {
		return 0, wrapShortRead(err)
	}

	var rv uint64
	switch discriminator {
	case 0xff:
		sv, err := binaryserializer.Uint64(r)
		if err != nil {
			return 0, wrapShortRead(err)
		}
		rv = sv
	case 0xfe:
		sv, err := binaryserializer.Uint32(r)
		if err != nil {
			return 0, wrapShortRead(err)
		}
		rv = uint64(sv)
	case 0xfd:
		sv, err := binaryserializer.Uint16(r)
		if err != nil {
			return 0, wrapShortRead(err)
		}
		rv = uint64(sv)
	default:
		rv = uint64(discriminator)
	}
	return rv, nil
}

// WriteVarInt serializes val to w using the shortest possible
// representation.
func WriteVarInt(w io.Writer, val uint64) error {
	if val < 0xfd {
		return errors.WithStack(binaryserializer.PutUint8(w, uint8(val)))
	}
	if val <= 0xffff {
		if err := binaryserializer.PutUint8(w, 0xfd); err != nil {
			return errors.WithStack(err)
		}
		return errors.WithStack(binaryserializer.PutUint16(w, uint16(val)))
	}
	if val <= 0xffffffff {
		if err := binaryserializer.PutUint8(w, 0xfe); err != nil {
			return errors.WithStack(err)
		}
		return errors.WithStack(binaryserializer.PutUint32(w, uint32(val)))
	}
	if err := binaryserializer.PutUint8(w, 0xff); err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(binaryserializer.PutUint64(w, val))
}

// VarIntSerializeSize returns the number of bytes it would take to serialize
// val as a variable length integer.
func VarIntSerializeSize(val uint64) int {
	if val < 0xfd {
		return 1
	}
	if val <= 0xffff {
		return 3
	}
	if val <= 0xffffffff {
		return 5
	}
	return 9
}

// ReadVarBytes reads a variable length byte slice prefixed by a VarInt, and
// bounds the slice length against maxAllowed to avoid allocating absurd
// buffers from hostile input.
func ReadVarBytes(r io.Reader, maxAllowed uint64, fieldName string) ([]byte, error) {
	count, err := ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	if count > maxAllowed {
		return nil, errors.Wrapf(ErrMalformed, "%s exceeds max allowed size (%d > %d)", fieldName, count, maxAllowed)
	}

	b := make([]byte, count)
	_, err = io.ReadFull(r, b)
	if err != nil {
		return nil, wrapShortRead(err)
	}
	return b, nil
}

// WriteVarBytes writes a variable length byte slice to w as a VarInt
// followed by the bytes themselves.
func WriteVarBytes(w io.Writer, b []byte) error {
	if err := WriteVarInt(w, uint64(len(b))); err != nil {
		return err
	}
	_, err := w.Write(b)
	return errors.WithStack(err)
}
