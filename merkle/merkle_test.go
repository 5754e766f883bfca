package merkle

import (
	"testing"

	"github.com/btcspv/spvchain/chainhash"
	"github.com/btcspv/spvchain/wire"
)

func sampleTx(seed byte) *wire.MsgTx {
	tx := wire.NewMsgTx(1)
	tx.AddTxIn(wire.NewTxIn(wire.NewOutPoint(&chainhash.Hash{}, 0xffffffff), []byte{seed}))
	tx.AddTxOut(wire.NewTxOut(uint64(seed)*1000, []byte{0x76, 0xa9}))
	return tx
}

// naiveRoot is an independent, deliberately unoptimized reference
// implementation of the pair-and-duplicate reduction: recompute it from
// scratch on a fresh slice at every level rather than sharing buildTree's
// code path, so a bug in buildTree isn't mirrored here.
func naiveRoot(leaves []chainhash.Hash) chainhash.Hash {
	level := make([]chainhash.Hash, len(leaves))
	copy(level, leaves)
	for len(level) > 1 {
		var next []chainhash.Hash
		for i := 0; i < len(level); i += 2 {
			left := level[i]
			var right chainhash.Hash
			if i+1 < len(level) {
				right = level[i+1]
			} else {
				right = level[i]
			}
			buf := append(append([]byte{}, left[:]...), right[:]...)
			next = append(next, chainhash.DoubleHashH(buf))
		}
		level = next
	}
	return level[0]
}

// TestRootMatchesNaiveReference checks Root against naiveRoot for tx list
// lengths from 1 to 6, covering both even and odd levels.
func TestRootMatchesNaiveReference(t *testing.T) {
	for n := 1; n <= 6; n++ {
		var txs []*wire.MsgTx
		var leaves []chainhash.Hash
		for i := 0; i < n; i++ {
			tx := sampleTx(byte(i + 1))
			txs = append(txs, tx)
			leaves = append(leaves, tx.TxHash())
		}

		got := Root(txs)
		want := naiveRoot(leaves)
		if got != want {
			t.Errorf("n=%d: Root() = %s, naive reference = %s", n, got, want)
		}
	}
}

// TestRootSingleTx ensures a one-transaction block's root equals that
// transaction's txid directly, with no hashing pass.
func TestRootSingleTx(t *testing.T) {
	tx := sampleTx(1)
	if got := Root([]*wire.MsgTx{tx}); got != tx.TxHash() {
		t.Errorf("single-tx root = %s, want txid %s", got, tx.TxHash())
	}
}

// TestWitnessRootForcesCoinbaseZero ensures the coinbase's wtxid is treated
// as the zero hash regardless of its actual witness content, per BIP 141.
func TestWitnessRootForcesCoinbaseZero(t *testing.T) {
	coinbase := sampleTx(1)
	coinbase.TxIn[0].Witness = wire.TxWitness{[]byte{0xaa}}
	other := sampleTx(2)

	txs := []*wire.MsgTx{coinbase, other}
	got := WitnessRoot(txs)

	leaves := []chainhash.Hash{{}, other.WitnessHash()}
	want := naiveRoot(leaves)
	if got != want {
		t.Errorf("WitnessRoot = %s, want %s", got, want)
	}
}

// TestWitnessCommitment checks the commitment is the double-SHA-256 of the
// witness root concatenated with the reserved value, and that changing
// either input changes the output.
func TestWitnessCommitment(t *testing.T) {
	root := sampleTx(1).TxHash()
	var reserved [32]byte

	c1 := WitnessCommitment(root, reserved)

	reserved[0] = 0x01
	c2 := WitnessCommitment(root, reserved)
	if c1 == c2 {
		t.Errorf("expected commitment to change when the reserved value changes")
	}

	var buf [64]byte
	copy(buf[:32], root[:])
	want := chainhash.DoubleHashH(buf[:])
	if c1 != want {
		t.Errorf("commitment with zero reserved value = %s, want %s", c1, want)
	}
}
