// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package pow implements Bitcoin's compact ("nBits") difficulty encoding
// and the work calculation used to compare chain candidates.
package pow

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/btcspv/spvchain/chainhash"
)

// ErrNegativeCompact is returned when a compact-encoded target has its
// mantissa sign bit set; the encoding nominally supports negative values,
// but a negative threshold is never a valid difficulty.
var ErrNegativeCompact = errors.New("compact difficulty encodes a negative value")

// ErrCompactOverflow is returned when a compact-encoded target decodes to a
// value wider than 256 bits.
var ErrCompactOverflow = errors.New("compact difficulty overflows 256 bits")

// oneLsh256 is 2^256, used by Work to compute floor(2^256 / (T+1)).
var oneLsh256 = new(big.Int).Lsh(big.NewInt(1), 256)

// CompactToBig converts a compact representation of a whole number N to an
// big integer. The representation is similar to IEEE754 floating point
// numbers.
//
// Like IEEE754 floating point, there are three basic components: the sign,
// the exponent, and the mantissa. They are broken out as follows:
//
//   - the most significant 8 bits represent the unsigned base 256 exponent
//   - bit 23 (the 24th bit) represents the sign bit
//   - the least significant 23 bits represent the mantissa
//
//     -------------------------------------------------
//     |   Exponent     |    Sign    |    Mantissa     |
//     -------------------------------------------------
//     | 8 bits [31-24] | 1 bit [23] |   23 bits [22-0] |
//     -------------------------------------------------
//
// The formula to calculate N is:
//
//	N = (-1^sign) * mantissa * 256^(exponent-3)
//
// This compact form is only used to encode unsigned 256-bit numbers which
// represent difficulty targets, thus there really is not a need for a sign
// bit, but it is implemented here to stay consistent with bitcoind.
func CompactToBig(compact uint32) *big.Int {
	// Extract the mantissa, sign bit, and exponent.
	mantissa := compact & 0x007fffff
	isNegative := compact&0x00800000 != 0
	exponent := uint(compact >> 24)

	// Since the base for the exponent is 256, the exponent can be treated
	// as the number of bytes to represent the full 256-bit number. So,
	// treat the exponent as the number of bytes and shift the mantissa
	// right or left accordingly. This is equivalent to:
	// N = mantissa * 256^(exponent-3)
	var bn *big.Int
	if exponent <= 3 {
		mantissa >>= 8 * (3 - exponent)
		bn = big.NewInt(int64(mantissa))
	} else {
		bn = big.NewInt(int64(mantissa))
		bn.Lsh(bn, 8*(exponent-3))
	}

	if isNegative {
		bn = bn.Neg(bn)
	}

	return bn
}

// BigToCompact converts a whole number N to a compact representation using
// an unsigned 32-bit integer. The compact representation only provides 23
// bits of precision, so values larger than (2^23 - 1) only encode the
// most significant digits of the number. See CompactToBig for details.
func BigToCompact(n *big.Int) uint32 {
	if n.Sign() == 0 {
		return 0
	}

	var isNegative bool
	var mantissa uint32

	exponent := uint(len(n.Bytes()))

	if exponent <= 3 {
		mantissa = uint32(n.Bits()[0])
		mantissa <<= 8 * (3 - exponent)
	} else {
		tn := new(big.Int).Set(n)
		mantissa = uint32(tn.Rsh(tn, 8*(exponent-3)).Bits()[0])
	}

	if mantissa&0x00800000 != 0 {
		mantissa >>= 8
		exponent++
	}

	isNegative = n.Sign() < 0

	compact := uint32(exponent<<24) | mantissa
	if isNegative {
		compact |= 0x00800000
	}
	return compact
}

// DecodeCompact decodes a compact difficulty value into its 256-bit
// threshold, rejecting encodings with the mantissa sign bit set and
// thresholds that do not fit in 256 bits.
func DecodeCompact(bits uint32) (*big.Int, error) {
	if bits&0x00800000 != 0 {
		return nil, ErrNegativeCompact
	}
	target := CompactToBig(bits)
	if target.BitLen() > 256 {
		return nil, ErrCompactOverflow
	}
	return target, nil
}

// EncodeCompact encodes a non-negative 256-bit threshold as its compact
// 32-bit representation.
func EncodeCompact(target *big.Int) uint32 {
	return BigToCompact(target)
}

// Work computes floor(2^256 / (T+1)), the amount of expected hashing work
// represented by a header whose difficulty target is T.
func Work(target *big.Int) *big.Int {
	if target.Sign() <= 0 {
		return new(big.Int)
	}
	denominator := new(big.Int).Add(target, big.NewInt(1))
	work := new(big.Int).Div(oneLsh256, denominator)
	return work
}

// WorkFromBits is a convenience wrapper combining DecodeCompact and Work.
func WorkFromBits(bits uint32) (*big.Int, error) {
	target, err := DecodeCompact(bits)
	if err != nil {
		return nil, err
	}
	return Work(target), nil
}

// HashToBig converts a chainhash.Hash into a big.Int treating the hash as a
// little-endian (natural-byte-order) unsigned integer — i.e. the *reversed*
// display form, which is how proof-of-work comparisons interpret hashes.
func HashToBig(hash *chainhash.Hash) *big.Int {
	buf := *hash
	blen := len(buf)
	for i := 0; i < blen/2; i++ {
		buf[i], buf[blen-1-i] = buf[blen-1-i], buf[i]
	}
	return new(big.Int).SetBytes(buf[:])
}

// IsMet reports whether hash, interpreted as an unsigned 256-bit integer in
// reversed (display) order, is at or below the threshold target encodes.
func IsMet(hash *chainhash.Hash, bits uint32) (bool, error) {
	target, err := DecodeCompact(bits)
	if err != nil {
		return false, err
	}
	if target.Sign() <= 0 {
		return false, nil
	}
	return HashToBig(hash).Cmp(target) <= 0, nil
}
