// Copyright (c) 2014-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package pow

import (
	"math/big"
	"testing"

	"github.com/btcspv/spvchain/chainhash"
)

// TestBigToCompact ensures BigToCompact converts big integers to the
// expected compact representation.
func TestBigToCompact(t *testing.T) {
	tests := []struct {
		in  int64
		out uint32
	}{
		{0, 0},
		{-1, 25231360},
	}

	for x, test := range tests {
		n := big.NewInt(test.in)
		r := BigToCompact(n)
		if r != test.out {
			t.Errorf("BigToCompact test #%d failed: got %d want %d\n", x, r, test.out)
		}
	}
}

// TestCompactToBig ensures CompactToBig converts numbers using the compact
// representation to the expected big integers.
func TestCompactToBig(t *testing.T) {
	tests := []struct {
		in  uint32
		out *big.Int
	}{
		{0, big.NewInt(0)},
		{0x01003456, big.NewInt(0x00)},
		{0x01123456, big.NewInt(0x12)},
		{0x02008000, big.NewInt(0x80)},
		{0x05009234, new(big.Int).Lsh(big.NewInt(0x9234), 16)},
	}

	for x, test := range tests {
		n := CompactToBig(test.in)
		if n.Cmp(test.out) != 0 {
			t.Errorf("CompactToBig test #%d failed: got %v want %v\n", x, n, test.out)
		}
	}
}

// TestCompactRoundTrip ensures encoding and decoding mainnet's well-known
// difficulty bits is stable.
func TestCompactRoundTrip(t *testing.T) {
	const bits = 0x1d00ffff
	n, err := DecodeCompact(bits)
	if err != nil {
		t.Fatalf("DecodeCompact: %v", err)
	}
	got := EncodeCompact(n)
	if got != bits {
		t.Errorf("round trip mismatch: got 0x%08x want 0x%08x", got, bits)
	}
}

// TestDecodeCompactRejectsNegative ensures the sign bit is rejected.
func TestDecodeCompactRejectsNegative(t *testing.T) {
	const negBits = 0x01800000 // sign bit set in the mantissa's high bit
	if _, err := DecodeCompact(negBits); err == nil {
		t.Errorf("expected an error decoding a negative compact value")
	}
}

// TestWorkIncreasesAsTargetShrinks ensures smaller targets (harder
// difficulty) yield more work.
func TestWorkIncreasesAsTargetShrinks(t *testing.T) {
	easy := big.NewInt(0).Lsh(big.NewInt(1), 240)
	hard := big.NewInt(0).Lsh(big.NewInt(1), 200)

	easyWork := Work(easy)
	hardWork := Work(hard)

	if hardWork.Cmp(easyWork) <= 0 {
		t.Errorf("expected harder target to produce more work: easy=%v hard=%v", easyWork, hardWork)
	}
}

// TestHashToBig ensures a hash is interpreted as a big-endian number in
// its reversed (display) byte order.
func TestHashToBig(t *testing.T) {
	var h chainhash.Hash
	h[0] = 0x01 // lowest-order byte in internal order
	n := HashToBig(&h)
	if n.Cmp(big.NewInt(0)) == 0 {
		t.Errorf("expected a nonzero value")
	}
}

// TestIsMet checks that the all-zero hash meets mainnet's 0x1d00ffff target.
func TestIsMet(t *testing.T) {
	var h chainhash.Hash // all-zero hash, less than any target
	met, err := IsMet(&h, 0x1d00ffff)
	if err != nil {
		t.Fatalf("IsMet: %v", err)
	}
	if !met {
		t.Errorf("expected the zero hash to satisfy any target")
	}
}
