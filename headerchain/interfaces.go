package headerchain

import (
	"math/big"
	"time"

	"github.com/btcspv/spvchain/chainhash"
	"github.com/btcspv/spvchain/wire"
)

// NetworkParams supplies the genesis header, proof-of-work ceiling, and
// retarget schedule. chaincfg.Params implements this interface.
type NetworkParams interface {
	Genesis() *wire.MsgBlock
	GenesisHash() chainhash.Hash
	PowLimitBig() *big.Int
	PowLimitBitsCompact() uint32
	RetargetIntervalBlocks() uint32
	TargetTimespan() time.Duration
	IsTestnet() bool
	MinDiffReduction() time.Duration
}

// ScriptVerifier is responsible for per-transaction signature/script
// validation; the header-chain engine never interprets script semantics
// itself beyond structural checks like sig-op counting.
type ScriptVerifier interface {
	VerifyInput(tx *wire.MsgTx, inputIndex int, prevOut *wire.TxOut) error
}

// Clock abstracts "now" so timestamp validation is deterministic in tests.
type Clock interface {
	Now() time.Time
}

// SystemClock is the default Clock, backed by time.Now.
type SystemClock struct{}

// Now returns the current wall-clock time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// BlockStore is the contract both MemoryStore and SpvStore satisfy.
type BlockStore interface {
	Put(*StoredBlock) error
	Get(chainhash.Hash) (*StoredBlock, error)
	GetChainHead() (*StoredBlock, error)
	SetChainHead(*StoredBlock) error
	Close() error
}
