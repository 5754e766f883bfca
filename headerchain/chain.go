// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package headerchain

import (
	"math/big"
	"sync"

	"github.com/pkg/errors"

	"github.com/btcspv/spvchain/chainhash"
	"github.com/btcspv/spvchain/pow"
	"github.com/btcspv/spvchain/wire"
)

// AcceptResult discriminates what accepting a header did.
type AcceptResult int

// AcceptResult values.
const (
	// AcceptedExtended means the header became (or extended) the chain
	// head.
	AcceptedExtended AcceptResult = iota
	// AcceptedSideChain means the header was stored but did not overtake
	// the current chain head's cumulative work.
	AcceptedSideChain
	// AcceptedOrphan means the header's parent is unknown; it has been
	// buffered and the caller may want to fetch ancestors.
	AcceptedOrphan
)

// Chain is the header-chain engine: it ingests headers, enforces
// difficulty retargeting, tracks the best chain by cumulative work,
// performs reorganizations, and notifies subscribers, all under a single
// reader-writer lock around the store.
type Chain struct {
	mu      sync.RWMutex
	store   BlockStore
	params  NetworkParams
	clock   Clock
	orphans *orphanPool
	notif   notificationManager
}

// NewChain constructs a chain engine over an already-seeded store (see
// checkpoint.Bootstrap or NewMemoryStore/CreateSpvStore for seeding).
func NewChain(store BlockStore, params NetworkParams, clock Clock) *Chain {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Chain{
		store:   store,
		params:  params,
		clock:   clock,
		orphans: newOrphanPool(),
	}
}

// Subscribe registers callback to receive future NTNewBestBlock/NTReorganize
// notifications. See NotificationCallback for the synchronous-callback
// contract.
func (c *Chain) Subscribe(callback NotificationCallback) {
	c.notif.Subscribe(callback)
}

// ChainHead returns the store's current chain head.
func (c *Chain) ChainHead() (*StoredBlock, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.store.GetChainHead()
}

// GetStoredBlock looks up a previously accepted stored block by hash.
func (c *Chain) GetStoredBlock(hash chainhash.Hash) (*StoredBlock, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.store.Get(hash)
}

// AcceptHeader ingests a single header (SPV mode) under the store's write
// lock: parent lookup (or orphan buffering), intrinsic verification,
// difficulty check, store insert, chain selection, then orphan flushing.
// Listeners fire synchronously before this call returns.
func (c *Chain) AcceptHeader(header *wire.BlockHeader) (AcceptResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	prev, err := c.store.Get(header.PrevHash)
	if errors.Is(err, ErrNotFound) {
		c.orphans.add(header)
		return AcceptedOrphan, nil
	}
	if err != nil {
		return 0, err
	}

	result, err := c.acceptWithKnownParent(header, prev)
	if err != nil {
		return 0, err
	}

	c.flushOrphans(header.BlockHash())

	return result, nil
}

// AcceptHeaderBytes parses the canonical 80-byte wire encoding of a header
// and ingests it via AcceptHeader.
func (c *Chain) AcceptHeaderBytes(b []byte) (AcceptResult, error) {
	header, err := wire.ParseBlockHeader(b)
	if err != nil {
		return 0, err
	}
	return c.AcceptHeader(header)
}

// AcceptBlock ingests a full block: the body is verified against the header
// (coinbase position, merkle root, size and sig-op budgets) before the
// header goes through the same pipeline AcceptHeader runs. For version>=2
// blocks the coinbase must commit to the block's own height (the parent's
// height plus one).
func (c *Chain) AcceptBlock(block *wire.MsgBlock) (AcceptResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	header := &block.Header
	prev, err := c.store.Get(header.PrevHash)
	if errors.Is(err, ErrNotFound) {
		c.orphans.add(header)
		return AcceptedOrphan, nil
	}
	if err != nil {
		return 0, err
	}

	policy := ValidationPolicy{}
	if header.Version >= 2 {
		policy.AssertHeightInCoinbase = true
		policy.AssertedHeight = prev.Height + 1
	}
	if err := VerifyTransactions(block, policy); err != nil {
		return 0, err
	}

	result, err := c.acceptWithKnownParent(header, prev)
	if err != nil {
		return 0, err
	}

	c.flushOrphans(header.BlockHash())

	return result, nil
}

// AcceptBlockBytes parses the canonical wire encoding of a block and
// ingests it via AcceptBlock.
func (c *Chain) AcceptBlockBytes(b []byte) (AcceptResult, error) {
	block, err := wire.ParseMsgBlock(b)
	if err != nil {
		return 0, err
	}
	return c.AcceptBlock(block)
}

// acceptWithKnownParent verifies, stores, and chain-selects a header once
// the parent stored block is known.
func (c *Chain) acceptWithKnownParent(header *wire.BlockHeader, prev *StoredBlock) (AcceptResult, error) {
	if err := VerifyHeader(header, ValidationPolicy{}, c.clock.Now()); err != nil {
		return 0, err
	}

	expectedBits, err := c.expectedBits(prev, header)
	if err != nil {
		return 0, err
	}
	if header.Bits != expectedBits {
		return 0, errors.Wrapf(ErrBadDifficulty, "height %d: got 0x%08x, want 0x%08x", prev.Height+1, header.Bits, expectedBits)
	}

	stored, err := prev.BuildNext(header)
	if err != nil {
		return 0, err
	}
	if err := c.store.Put(stored); err != nil {
		return 0, err
	}

	return c.selectChain(stored)
}

// selectChain promotes stored if it beats the current head's cumulative
// work, performing a reorg walk when it isn't a simple extension;
// otherwise the head is left as-is (side chain).
func (c *Chain) selectChain(stored *StoredBlock) (AcceptResult, error) {
	head, err := c.store.GetChainHead()
	if err != nil {
		return 0, err
	}

	if stored.ChainWork.Cmp(head.ChainWork) <= 0 {
		return AcceptedSideChain, nil
	}

	if stored.Header.PrevHash == head.Hash() {
		if err := c.store.SetChainHead(stored); err != nil {
			return 0, err
		}
		c.notif.notify(&Notification{Type: NTNewBestBlock, Block: stored})
		return AcceptedExtended, nil
	}

	disconnected, connected, err := c.reorgPath(head, stored)
	if err != nil {
		return 0, err
	}
	if err := c.store.SetChainHead(stored); err != nil {
		return 0, err
	}
	c.notif.notify(&Notification{
		Type: NTReorganize,
		Reorganize: &ReorganizeData{
			OldHead:      head,
			NewHead:      stored,
			Disconnected: disconnected,
			Connected:    connected,
		},
	})
	c.notif.notify(&Notification{Type: NTNewBestBlock, Block: stored})
	return AcceptedExtended, nil
}

// reorgPath walks both chains back to their lowest common ancestor,
// returning the old chain's blocks highest-first and the new chain's
// blocks lowest-first.
func (c *Chain) reorgPath(oldHead, newHead *StoredBlock) (disconnected, connected []*StoredBlock, err error) {
	oldChain := []*StoredBlock{oldHead}
	newChain := []*StoredBlock{newHead}

	a, b := oldHead, newHead
	for a.Height > b.Height {
		a, err = c.store.Get(a.Header.PrevHash)
		if err != nil {
			return nil, nil, err
		}
		oldChain = append(oldChain, a)
	}
	for b.Height > a.Height {
		b, err = c.store.Get(b.Header.PrevHash)
		if err != nil {
			return nil, nil, err
		}
		newChain = append(newChain, b)
	}

	for a.Hash() != b.Hash() {
		a, err = c.store.Get(a.Header.PrevHash)
		if err != nil {
			return nil, nil, err
		}
		oldChain = append(oldChain, a)

		b, err = c.store.Get(b.Header.PrevHash)
		if err != nil {
			return nil, nil, err
		}
		newChain = append(newChain, b)
	}

	// oldChain was built walking down from the old tip, so it is already
	// highest-first; drop the shared ancestor at its end. newChain was
	// built the same way but needs reversing to read lowest-first, the
	// order connect listeners expect.
	disconnected = oldChain[:len(oldChain)-1]
	connected = make([]*StoredBlock, len(newChain)-1)
	for i, sb := range newChain[:len(newChain)-1] {
		connected[len(connected)-1-i] = sb
	}
	return disconnected, connected, nil
}

// expectedBits computes the difficulty the header at prev.Height+1 must
// carry: the classic Bitcoin 2016-block retarget with testnet's 20-minute
// minimum-difficulty rule.
func (c *Chain) expectedBits(prev *StoredBlock, header *wire.BlockHeader) (uint32, error) {
	nextHeight := prev.Height + 1
	interval := c.params.RetargetIntervalBlocks()

	if nextHeight%interval != 0 {
		if c.params.IsTestnet() {
			drift := c.params.MinDiffReduction()
			if int64(header.Timestamp) > int64(prev.Header.Timestamp)+int64(drift.Seconds()) {
				return c.params.PowLimitBitsCompact(), nil
			}
		}
		return prev.Header.Bits, nil
	}

	firstHeight := nextHeight - interval
	first, err := c.blockAtHeight(prev, firstHeight)
	if err != nil {
		return 0, err
	}

	return retarget(first.Header.Timestamp, prev.Header.Timestamp, prev.Header.Bits, c.params)
}

// blockAtHeight walks back from tip to the block at the given height. The
// walk is linear in the retarget interval (2016), invoked once per
// interval boundary.
func (c *Chain) blockAtHeight(tip *StoredBlock, height uint32) (*StoredBlock, error) {
	cur := tip
	for cur.Height > height {
		var err error
		cur, err = c.store.Get(cur.Header.PrevHash)
		if err != nil {
			return nil, err
		}
	}
	return cur, nil
}

// retarget computes the new difficulty bits given the first and last
// header timestamps of the window just completed, clamped to
// [timespan/4, timespan*4].
func retarget(firstTime, lastTime uint32, lastBits uint32, params NetworkParams) (uint32, error) {
	actualTimespan := int64(lastTime) - int64(firstTime)
	targetTimespan := int64(params.TargetTimespan().Seconds())

	minTimespan := targetTimespan / 4
	maxTimespan := targetTimespan * 4
	if actualTimespan < minTimespan {
		actualTimespan = minTimespan
	}
	if actualTimespan > maxTimespan {
		actualTimespan = maxTimespan
	}

	oldTarget, err := pow.DecodeCompact(lastBits)
	if err != nil {
		return 0, err
	}

	newTarget := new(big.Int).Mul(oldTarget, big.NewInt(actualTimespan))
	newTarget.Div(newTarget, big.NewInt(targetTimespan))

	powLimit := params.PowLimitBig()
	if newTarget.Cmp(powLimit) > 0 {
		return params.PowLimitBitsCompact(), nil
	}
	return pow.EncodeCompact(newTarget), nil
}

// flushOrphans recursively accepts any buffered orphans whose parent is
// newHash. Orphans that fail validation are dropped silently; the peer that
// originally sent them is long gone by the time the parent arrives.
func (c *Chain) flushOrphans(newHash chainhash.Hash) {
	ready := c.orphans.take(newHash)
	for _, header := range ready {
		prev, err := c.store.Get(header.PrevHash)
		if err != nil {
			continue
		}
		if _, err := c.acceptWithKnownParent(header, prev); err != nil {
			continue
		}
		// A side-chain orphan can still be some later orphan's parent.
		c.flushOrphans(header.BlockHash())
	}
}
