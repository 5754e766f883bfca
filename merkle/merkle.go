// Package merkle builds the transaction and witness Merkle trees a block
// header commits to.
package merkle

import (
	"github.com/btcspv/spvchain/chainhash"
	"github.com/btcspv/spvchain/wire"
)

// buildTree runs the pair-and-duplicate reduction over leaves until a
// single root remains. An odd level duplicates its last node before
// pairing.
func buildTree(leaves []chainhash.Hash) chainhash.Hash {
	level := leaves
	for len(level) > 1 {
		if len(level)%2 != 0 {
			level = append(level, level[len(level)-1])
		}
		next := make([]chainhash.Hash, len(level)/2)
		for i := range next {
			left := level[2*i]
			right := level[2*i+1]
			w := chainhash.NewDoubleHashWriter()
			_, _ = w.Write(left[:])
			_, _ = w.Write(right[:])
			next[i] = w.Finalize()
		}
		level = next
	}
	return level[0]
}

// Root computes the transaction Merkle root of a non-empty transaction
// list, hashing each transaction's txid (no witness data).
func Root(txs []*wire.MsgTx) chainhash.Hash {
	leaves := make([]chainhash.Hash, len(txs))
	for i, tx := range txs {
		leaves[i] = tx.TxHash()
	}
	return buildTree(leaves)
}

// WitnessRoot computes the witness Merkle root of a non-empty transaction
// list: identical to Root but over each transaction's wtxid, with the
// coinbase's wtxid forced to the zero hash, per BIP 141.
func WitnessRoot(txs []*wire.MsgTx) chainhash.Hash {
	leaves := make([]chainhash.Hash, len(txs))
	for i, tx := range txs {
		if i == 0 {
			leaves[i] = chainhash.Hash{}
			continue
		}
		leaves[i] = tx.WitnessHash()
	}
	return buildTree(leaves)
}

// WitnessCommitment computes dsha256(witnessRoot || witnessReservedValue),
// the value a well-formed segwit block embeds in a coinbase output script
// of the form OP_RETURN 0xaa21a9ed || commitment.
func WitnessCommitment(witnessRoot chainhash.Hash, witnessReservedValue [32]byte) chainhash.Hash {
	w := chainhash.NewDoubleHashWriter()
	_, _ = w.Write(witnessRoot[:])
	_, _ = w.Write(witnessReservedValue[:])
	return w.Finalize()
}

// WitnessCommitmentScriptPrefix is the output script prefix (OP_RETURN
// followed by the 0x24-byte push of the BIP-141 commitment header) that
// precedes the 32-byte commitment in the coinbase output that carries it.
var WitnessCommitmentScriptPrefix = []byte{0x6a, 0x24, 0xaa, 0x21, 0xa9, 0xed}
