package headerchain

import "github.com/btcspv/spvchain/wire"

// Exported aliases for unexported identifiers the external headerchain_test
// package needs to exercise directly.

var Retarget = retarget

var ScriptSigOps = scriptSigOps

// ExpectedBits exposes Chain.expectedBits to the external test package.
func (c *Chain) ExpectedBits(prev *StoredBlock, header *wire.BlockHeader) (uint32, error) {
	return c.expectedBits(prev, header)
}
