// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package headerchain

import "github.com/pkg/errors"

// Store error kinds. Checked with errors.Is; concrete
// occurrences are wrapped with github.com/pkg/errors for a stack trace.
var (
	// ErrClosed is returned by every BlockStore operation once Close has
	// been called.
	ErrClosed = errors.New("block store is closed")

	// ErrNotFound is returned by Get when the requested hash is absent.
	ErrNotFound = errors.New("stored block not found")

	// ErrStoreIO wraps an underlying file I/O failure in the SpvStore
	// write path. It never flips the chain-head pointer.
	ErrStoreIO = errors.New("block store I/O error")

	// ErrCorrupt indicates the on-disk store's header or a record failed
	// a structural sanity check.
	ErrCorrupt = errors.New("block store file is corrupt")

	// ErrStoreFull is returned when SpvStore's ring buffer has no free or
	// matching slot left after linear probing exhausts all N positions.
	ErrStoreFull = errors.New("block store ring buffer is full")
)

// Chain engine error kinds.
var (
	// ErrBadDifficulty is returned when an incoming header's bits field
	// does not match the expected retargeted (or inherited) difficulty.
	ErrBadDifficulty = errors.New("bad difficulty target")

	// ErrUnknownParent names the unknown-parent condition. AcceptHeader and
	// AcceptBlock do not return it: a header with an unknown parent is
	// buffered and reported as AcceptedOrphan with a nil error.
	ErrUnknownParent = errors.New("previous block header unknown")
)

// VerificationErrorKind discriminates why Block/Header verification
// failed.
type VerificationErrorKind int

// VerificationErrorKind values.
const (
	ErrPowBelowTarget VerificationErrorKind = iota
	ErrTimestampTooFarAhead
	ErrMerkleMismatch
	ErrWitnessCommitmentMismatch
	ErrBadCoinbasePosition
	ErrBadCoinbaseHeight
	ErrSigOpsExceeded
	ErrOversizedBlock
	ErrEmptyBlock
	ErrUnexpectedWitness
)

var verificationErrorStrings = map[VerificationErrorKind]string{
	ErrPowBelowTarget:            "hash does not meet claimed proof-of-work target",
	ErrTimestampTooFarAhead:      "timestamp too far ahead of the allowed drift",
	ErrMerkleMismatch:            "computed merkle root does not match header",
	ErrWitnessCommitmentMismatch: "witness commitment does not match computed witness root",
	ErrBadCoinbasePosition:       "first transaction is not a coinbase, or another transaction is",
	ErrBadCoinbaseHeight:         "coinbase does not commit to the asserted block height",
	ErrSigOpsExceeded:            "block exceeds the maximum signature operation budget",
	ErrOversizedBlock:            "serialized block exceeds the maximum block size",
	ErrEmptyBlock:                "block has no transactions",
	ErrUnexpectedWitness:         "witness data present without a witness commitment",
}

// VerificationError is returned by VerifyHeader/VerifyTransactions,
// identifying exactly one broken rule per call.
type VerificationError struct {
	Kind VerificationErrorKind
}

// Error implements the error interface.
func (e *VerificationError) Error() string {
	if s, ok := verificationErrorStrings[e.Kind]; ok {
		return s
	}
	return "verification failed"
}

// newVerificationError constructs a *VerificationError for the given kind.
func newVerificationError(kind VerificationErrorKind) error {
	return &VerificationError{Kind: kind}
}
