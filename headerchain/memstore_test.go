package headerchain_test

import (
	"testing"

	"github.com/btcspv/spvchain/chaincfg"
	"github.com/btcspv/spvchain/chainhash"
	. "github.com/btcspv/spvchain/headerchain"
)

// chainOfLength builds n StoredBlocks extending genesis one after another,
// each with a distinct nonce so their hashes (and therefore their map keys)
// differ.
func chainOfLength(t *testing.T, genesis *StoredBlock, n int) []*StoredBlock {
	t.Helper()
	blocks := make([]*StoredBlock, n)
	prev := genesis
	for i := 0; i < n; i++ {
		h := prev.Header
		h.SetNonce(prev.Header.Nonce + uint32(i) + 1)
		h.PrevHash = prev.Hash()
		next, err := prev.BuildNext(&h)
		if err != nil {
			t.Fatalf("BuildNext: %v", err)
		}
		blocks[i] = next
		prev = next
	}
	return blocks
}

// TestMemoryStorePutGet exercises the basic insert/lookup path.
func TestMemoryStorePutGet(t *testing.T) {
	genesis, err := chaincfg.RegressionNetParams.GenesisStoredBlock()
	if err != nil {
		t.Fatalf("GenesisStoredBlock: %v", err)
	}
	store := NewMemoryStore(genesis, 0)

	blocks := chainOfLength(t, genesis, 3)
	for _, b := range blocks {
		if err := store.Put(b); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}

	for _, b := range blocks {
		got, err := store.Get(b.Hash())
		if err != nil {
			t.Fatalf("Get(%s): %v", b.Hash(), err)
		}
		if got.Height != b.Height {
			t.Errorf("height mismatch: got %d want %d", got.Height, b.Height)
		}
	}

	if _, err := store.Get(chainhash.Hash{}); err == nil {
		t.Errorf("expected lookup of an unknown hash to fail")
	}
}

// TestMemoryStoreEvictsOldest checks the FIFO eviction bound: once capacity
// is exceeded, the oldest-inserted entry (genesis itself here) disappears.
func TestMemoryStoreEvictsOldest(t *testing.T) {
	genesis, err := chaincfg.RegressionNetParams.GenesisStoredBlock()
	if err != nil {
		t.Fatalf("GenesisStoredBlock: %v", err)
	}
	const capacity = 2
	store := NewMemoryStore(genesis, capacity)

	blocks := chainOfLength(t, genesis, 3)
	for _, b := range blocks {
		if err := store.Put(b); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}

	if _, err := store.Get(genesis.Hash()); err == nil {
		t.Errorf("expected genesis to have been evicted once capacity was exceeded")
	}
	if _, err := store.Get(blocks[len(blocks)-1].Hash()); err != nil {
		t.Errorf("expected the most recently inserted block to remain: %v", err)
	}
}

// TestMemoryStoreChainHead exercises SetChainHead/GetChainHead.
func TestMemoryStoreChainHead(t *testing.T) {
	genesis, err := chaincfg.RegressionNetParams.GenesisStoredBlock()
	if err != nil {
		t.Fatalf("GenesisStoredBlock: %v", err)
	}
	store := NewMemoryStore(genesis, 0)

	head, err := store.GetChainHead()
	if err != nil {
		t.Fatalf("GetChainHead: %v", err)
	}
	if head.Hash() != genesis.Hash() {
		t.Errorf("expected initial chain head to be genesis")
	}

	blocks := chainOfLength(t, genesis, 1)
	if err := store.Put(blocks[0]); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := store.SetChainHead(blocks[0]); err != nil {
		t.Fatalf("SetChainHead: %v", err)
	}

	head, err = store.GetChainHead()
	if err != nil {
		t.Fatalf("GetChainHead: %v", err)
	}
	if head.Hash() != blocks[0].Hash() {
		t.Errorf("expected chain head to be the newly set block")
	}
}

// TestMemoryStoreClosed ensures every operation reports ErrClosed after
// Close, and that Close itself is idempotent-safe to call once.
func TestMemoryStoreClosed(t *testing.T) {
	genesis, err := chaincfg.RegressionNetParams.GenesisStoredBlock()
	if err != nil {
		t.Fatalf("GenesisStoredBlock: %v", err)
	}
	store := NewMemoryStore(genesis, 0)
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if _, err := store.GetChainHead(); err != ErrClosed {
		t.Errorf("GetChainHead after Close: got %v, want ErrClosed", err)
	}
	if _, err := store.Get(genesis.Hash()); err != ErrClosed {
		t.Errorf("Get after Close: got %v, want ErrClosed", err)
	}
	if err := store.Put(genesis); err != ErrClosed {
		t.Errorf("Put after Close: got %v, want ErrClosed", err)
	}
}
