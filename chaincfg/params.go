// Copyright (c) 2014-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package chaincfg defines the network parameters for the networks the
// header-chain engine can track: genesis block, proof-of-work limit, and
// difficulty retarget schedule.
package chaincfg

import (
	"math/big"
	"time"

	"github.com/pkg/errors"

	"github.com/btcspv/spvchain/chainhash"
	"github.com/btcspv/spvchain/headerchain"
	"github.com/btcspv/spvchain/pow"
	"github.com/btcspv/spvchain/wire"
)

// bigOne is 1 represented as a big.Int, defined once to avoid reallocating
// it on every PowLimit computation.
var bigOne = big.NewInt(1)

// mainPowLimit is the highest proof-of-work value (lowest difficulty) a
// mainnet block hash is permitted to have: 2^224 - 1.
var mainPowLimit = new(big.Int).Sub(new(big.Int).Lsh(bigOne, 224), bigOne)

// testNet3PowLimit mirrors mainnet's limit; testnet3 relaxes timestamps
// instead of the ceiling itself (the "20-minute rule").
var testNet3PowLimit = new(big.Int).Sub(new(big.Int).Lsh(bigOne, 224), bigOne)

// regressionPowLimit is the highest proof-of-work value a regtest block may
// have: 2^255 - 1, i.e. almost any hash satisfies it.
var regressionPowLimit = new(big.Int).Sub(new(big.Int).Lsh(bigOne, 255), bigOne)

const (
	// retargetInterval is the number of blocks between difficulty
	// retargets.
	retargetInterval = 2016

	// targetTimespan is the expected wall-clock duration of one retarget
	// interval at the target per-block spacing (2016 blocks * 10 minutes).
	targetTimespan = retargetInterval * 10 * time.Minute

	// testnetMaxTimeDrift is the "20-minute rule": if a testnet block's
	// time exceeds the previous block's time by more than this, the
	// easiest allowed difficulty may be used instead of the inherited one.
	testnetMaxTimeDrift = 20 * time.Minute
)

// Params defines a Bitcoin network's header-chain-relevant parameters: the
// genesis block, proof-of-work ceiling, and retarget schedule. It
// implements the headerchain.NetworkParams interface the chain engine
// consumes.
type Params struct {
	// Name is a human-readable identifier for the network.
	Name string

	// GenesisBlock defines the first block of the chain.
	GenesisBlock *wire.MsgBlock

	// genesisHash caches the genesis block's header hash.
	genesisHash chainhash.Hash

	// PowLimit defines the highest allowed proof-of-work value for a
	// block, i.e. the easiest allowed difficulty target.
	PowLimit *big.Int

	// PowLimitBits is PowLimit's compact encoding, used as the difficulty
	// for the genesis block and any retarget clamped to the ceiling.
	PowLimitBits uint32

	// RetargetInterval is the number of blocks between difficulty
	// retargets.
	RetargetInterval uint32

	// TargetTimespanSeconds is the expected wall-clock duration, in
	// seconds, of one retarget interval.
	TargetTimespanSeconds int64

	// ReduceMinDifficulty indicates whether the network allows minimum
	// difficulty blocks after a sufficiently long quiet period (the
	// testnet "20-minute rule").
	ReduceMinDifficulty bool

	// MinDiffReductionTime is the maximum gap, in seconds, a block's
	// timestamp may exceed its predecessor's before the minimum
	// difficulty rule applies (only meaningful when ReduceMinDifficulty).
	MinDiffReductionTime int64
}

// Genesis returns the network's genesis block.
func (p *Params) Genesis() *wire.MsgBlock {
	return p.GenesisBlock
}

// GenesisHash returns the network's genesis block hash, computed once and
// cached on the Params value.
func (p *Params) GenesisHash() chainhash.Hash {
	if p.genesisHash == (chainhash.Hash{}) {
		p.genesisHash = p.GenesisBlock.Header.BlockHash()
	}
	return p.genesisHash
}

// PowLimitBig returns the network's proof-of-work ceiling as a big.Int.
func (p *Params) PowLimitBig() *big.Int {
	return p.PowLimit
}

// PowLimitBitsCompact returns the network's proof-of-work ceiling in its
// compact ("bits") encoding.
func (p *Params) PowLimitBitsCompact() uint32 {
	return p.PowLimitBits
}

// RetargetIntervalBlocks returns the number of blocks between difficulty
// retargets.
func (p *Params) RetargetIntervalBlocks() uint32 {
	return p.RetargetInterval
}

// TargetTimespan returns the expected wall-clock duration of one retarget
// interval.
func (p *Params) TargetTimespan() time.Duration {
	return time.Duration(p.TargetTimespanSeconds) * time.Second
}

// IsTestnet reports whether the network applies the minimum-difficulty
// "20-minute rule" during header validation.
func (p *Params) IsTestnet() bool {
	return p.ReduceMinDifficulty
}

// MinDiffReduction returns the maximum permitted gap between a block's
// timestamp and its predecessor's before the minimum-difficulty rule
// applies.
func (p *Params) MinDiffReduction() time.Duration {
	return time.Duration(p.MinDiffReductionTime) * time.Second
}

// GenesisStoredBlock builds the height-0 StoredBlock a fresh block store or
// checkpoint manager seeds itself with: the genesis header together with
// the chain work its own proof-of-work contributes.
func (p *Params) GenesisStoredBlock() (*headerchain.StoredBlock, error) {
	work, err := pow.WorkFromBits(p.GenesisBlock.Header.Bits)
	if err != nil {
		return nil, errors.Wrap(err, "computing genesis work")
	}
	return &headerchain.StoredBlock{
		Header:    p.GenesisBlock.Header,
		ChainWork: work,
		Height:    0,
	}, nil
}

// MainNetParams defines the network parameters for the main Bitcoin
// network.
var MainNetParams = Params{
	Name:                  "mainnet",
	GenesisBlock:          &genesisBlock,
	PowLimit:              mainPowLimit,
	PowLimitBits:          0x1d00ffff,
	RetargetInterval:      retargetInterval,
	TargetTimespanSeconds: int64(targetTimespan / time.Second),
	ReduceMinDifficulty:   false,
}

// TestNet3Params defines the network parameters for the test network
// (version 3).
var TestNet3Params = Params{
	Name:                  "testnet3",
	GenesisBlock:          &testNet3GenesisBlock,
	PowLimit:              testNet3PowLimit,
	PowLimitBits:          0x1d00ffff,
	RetargetInterval:      retargetInterval,
	TargetTimespanSeconds: int64(targetTimespan / time.Second),
	ReduceMinDifficulty:   true,
	MinDiffReductionTime:  int64(testnetMaxTimeDrift / time.Second),
}

// RegressionNetParams defines the network parameters for the regression
// test network.
var RegressionNetParams = Params{
	Name:                  "regtest",
	GenesisBlock:          &regTestGenesisBlock,
	PowLimit:              regressionPowLimit,
	PowLimitBits:          0x207fffff,
	RetargetInterval:      retargetInterval,
	TargetTimespanSeconds: int64(targetTimespan / time.Second),
	ReduceMinDifficulty:   true,
	MinDiffReductionTime:  int64(testnetMaxTimeDrift / time.Second),
}

var registeredNets = map[string]*Params{
	MainNetParams.Name:       &MainNetParams,
	TestNet3Params.Name:      &TestNet3Params,
	RegressionNetParams.Name: &RegressionNetParams,
}

// ErrDuplicateNet is returned by Register when a network with the same
// name has already been registered.
var ErrDuplicateNet = errors.New("duplicate network registration")

// Register registers the network parameters under the given name, making
// it discoverable via ParamsByName. Intended for test harnesses or callers
// adding a private network; the three built-in networks above are always
// registered.
func Register(params *Params) error {
	if _, ok := registeredNets[params.Name]; ok {
		return errors.Wrapf(ErrDuplicateNet, "network %q already registered", params.Name)
	}
	registeredNets[params.Name] = params
	return nil
}

// ParamsByName looks up a previously registered network's parameters by
// name.
func ParamsByName(name string) (*Params, bool) {
	p, ok := registeredNets[name]
	return p, ok
}
