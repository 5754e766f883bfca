// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package headerchain

import (
	"sync"

	"github.com/btcspv/spvchain/chainhash"
	"github.com/btcspv/spvchain/wire"
)

// maxOrphanHeaders bounds the orphan buffer so a flood of headers with an
// unknown ancestor can't grow memory unboundedly; once the bound is
// reached, the oldest parent bucket (every orphan buffered under that
// missing parent) is dropped to make room for a new one.
const maxOrphanHeaders = 100

// orphanPool buffers headers whose prev_hash is not yet known to the
// store, keyed by that missing parent hash so they can be flushed in one
// pass once the parent arrives.
type orphanPool struct {
	mu       sync.Mutex
	byParent map[chainhash.Hash][]*wire.BlockHeader
	order    []chainhash.Hash // insertion order of parent keys, for FIFO eviction
}

func newOrphanPool() *orphanPool {
	return &orphanPool{byParent: make(map[chainhash.Hash][]*wire.BlockHeader)}
}

func (p *orphanPool) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, v := range p.byParent {
		n += len(v)
	}
	return n
}

// add buffers header under its prev_hash, evicting the oldest parent
// bucket if the pool is at capacity.
func (p *orphanPool) add(header *wire.BlockHeader) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for p.totalLocked() >= maxOrphanHeaders && len(p.order) > 0 {
		oldest := p.order[0]
		p.order = p.order[1:]
		delete(p.byParent, oldest)
	}

	parent := header.PrevHash
	if _, exists := p.byParent[parent]; !exists {
		p.order = append(p.order, parent)
	}
	p.byParent[parent] = append(p.byParent[parent], header)
}

func (p *orphanPool) totalLocked() int {
	n := 0
	for _, v := range p.byParent {
		n += len(v)
	}
	return n
}

// take removes and returns every orphan buffered under parentHash.
func (p *orphanPool) take(parentHash chainhash.Hash) []*wire.BlockHeader {
	p.mu.Lock()
	defer p.mu.Unlock()
	headers, ok := p.byParent[parentHash]
	if !ok {
		return nil
	}
	delete(p.byParent, parentHash)
	for i, h := range p.order {
		if h == parentHash {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
	return headers
}
