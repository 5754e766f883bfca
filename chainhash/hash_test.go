// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chainhash

import (
	"bytes"
	"strings"
	"testing"
)

// TestHashString ensures String renders a hash in byte-reversed order,
// the convention block explorers use.
func TestHashString(t *testing.T) {
	wantStr := strings.Repeat("0", HashSize*2-2) + "01"
	hash := Hash{}
	hash[0] = 0x01

	if hash.String() != wantStr {
		t.Errorf("String: got %s want %s", hash.String(), wantStr)
	}
}

// TestHashFromStrRoundTrip ensures a hash survives a String/NewHashFromStr
// round trip.
func TestHashFromStrRoundTrip(t *testing.T) {
	var orig Hash
	for i := range orig {
		orig[i] = byte(i)
	}

	h, err := NewHashFromStr(orig.String())
	if err != nil {
		t.Fatalf("NewHashFromStr: %v", err)
	}
	if !h.IsEqual(&orig) {
		t.Errorf("round trip mismatch: got %v want %v", h, orig)
	}
}

// TestHashFromStrOddLength ensures an odd-length string is zero-padded at
// the front rather than rejected.
func TestHashFromStrOddLength(t *testing.T) {
	h, err := NewHashFromStr("1")
	if err != nil {
		t.Fatalf("NewHashFromStr: %v", err)
	}
	want := Hash{}
	want[0] = 0x01
	if !h.IsEqual(&want) {
		t.Errorf("got %v want %v", h, want)
	}
}

// TestHashFromStrTooLong ensures an over-long string is rejected.
func TestHashFromStrTooLong(t *testing.T) {
	long := make([]byte, MaxHashStringSize+1)
	for i := range long {
		long[i] = 'a'
	}
	if _, err := NewHashFromStr(string(long)); err == nil {
		t.Errorf("expected an error for an over-long hash string")
	}
}

// TestSetBytesWrongLength ensures SetBytes rejects a slice that isn't
// exactly HashSize bytes.
func TestSetBytesWrongLength(t *testing.T) {
	var h Hash
	if err := h.SetBytes([]byte{0x01, 0x02}); err == nil {
		t.Errorf("expected an error for a short byte slice")
	}
}

// TestCloneBytes ensures CloneBytes returns an independent copy.
func TestCloneBytes(t *testing.T) {
	var h Hash
	h[0] = 0xff
	clone := h.CloneBytes()
	clone[0] = 0x00
	if h[0] != 0xff {
		t.Errorf("CloneBytes leaked a reference to the original array")
	}
	if !bytes.Equal(clone, make([]byte, HashSize)) {
		t.Errorf("unexpected clone contents: %x", clone)
	}
}

// TestLess ensures Less compares hashes in natural byte order, most
// significant byte last.
func TestLess(t *testing.T) {
	var a, b Hash
	a[HashSize-1] = 0x01
	b[HashSize-1] = 0x02

	if !a.Less(b) {
		t.Errorf("expected a < b")
	}
	if b.Less(a) {
		t.Errorf("expected b not< a")
	}
	if a.Less(a) {
		t.Errorf("expected a not< a")
	}
}

// TestIsEqualNil ensures IsEqual handles nil receivers/targets.
func TestIsEqualNil(t *testing.T) {
	var h *Hash
	if !h.IsEqual(nil) {
		t.Errorf("expected two nil hashes to compare equal")
	}
	other := &Hash{}
	if h.IsEqual(other) {
		t.Errorf("expected a nil hash not to equal a non-nil hash")
	}
}
