// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"testing"
)

// TestVarIntRoundTrip exercises WriteVarInt/ReadVarInt across every size
// discriminator boundary.
func TestVarIntRoundTrip(t *testing.T) {
	tests := []uint64{
		0, 1, 0xfc, 0xfd, 0xfe, 0xffff,
		0x10000, 0xffffffff,
		0x100000000, 0xffffffffffffffff,
	}

	for _, val := range tests {
		var buf bytes.Buffer
		if err := WriteVarInt(&buf, val); err != nil {
			t.Fatalf("WriteVarInt(%d): %v", val, err)
		}
		got, err := ReadVarInt(&buf)
		if err != nil {
			t.Fatalf("ReadVarInt after writing %d: %v", val, err)
		}
		if got != val {
			t.Errorf("VarInt round trip: got %d want %d", got, val)
		}
		if buf.Len() != 0 {
			t.Errorf("VarInt(%d): %d leftover bytes after read", val, buf.Len())
		}
	}
}

// TestVarIntSerializeSize ensures the claimed size matches what
// WriteVarInt actually emits.
func TestVarIntSerializeSize(t *testing.T) {
	tests := []uint64{0, 0xfc, 0xfd, 0xffff, 0x10000, 0xffffffff, 0x100000000}
	for _, val := range tests {
		var buf bytes.Buffer
		if err := WriteVarInt(&buf, val); err != nil {
			t.Fatalf("WriteVarInt(%d): %v", val, err)
		}
		if got, want := buf.Len(), VarIntSerializeSize(val); got != want {
			t.Errorf("VarIntSerializeSize(%d): got %d want %d", val, want, got)
		}
	}
}

// TestVarBytesRoundTrip exercises WriteVarBytes/ReadVarBytes.
func TestVarBytesRoundTrip(t *testing.T) {
	data := []byte{0xde, 0xad, 0xbe, 0xef}

	var buf bytes.Buffer
	if err := WriteVarBytes(&buf, data); err != nil {
		t.Fatalf("WriteVarBytes: %v", err)
	}

	got, err := ReadVarBytes(&buf, 1024, "test field")
	if err != nil {
		t.Fatalf("ReadVarBytes: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("VarBytes round trip: got %x want %x", got, data)
	}
}

// TestReadVarBytesRejectsOversizedLength ensures the max-allowed bound is
// enforced before allocating.
func TestReadVarBytesRejectsOversizedLength(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteVarInt(&buf, 100); err != nil {
		t.Fatalf("WriteVarInt: %v", err)
	}
	if _, err := ReadVarBytes(&buf, 10, "test field"); err == nil {
		t.Errorf("expected an error when the declared length exceeds maxAllowed")
	}
}

// TestReadVarIntTruncated ensures a short read surfaces ErrTruncated.
func TestReadVarIntTruncated(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteByte(0xfe) // claims a 4-byte value follows; none does
	if _, err := ReadVarInt(&buf); err == nil {
		t.Errorf("expected a truncated-read error")
	}
}
