// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Command genesis prints the genesis header hash of every registered
// network, a small supplemented utility for inspecting chaincfg.Params
// without standing up a full chain engine.
package main

import (
	"fmt"

	"github.com/btcspv/spvchain/chaincfg"
)

func printGenesis(name string, params *chaincfg.Params) {
	hash := params.GenesisHash()
	genesis := params.Genesis()
	fmt.Printf("%s:\n", name)
	fmt.Printf("  hash:       %s\n", hash.String())
	fmt.Printf("  version:    %d\n", genesis.Header.Version)
	fmt.Printf("  timestamp:  %d\n", genesis.Header.Timestamp)
	fmt.Printf("  bits:       0x%08x\n", genesis.Header.Bits)
	fmt.Printf("  nonce:      %d\n", genesis.Header.Nonce)
	fmt.Printf("  merkleroot: %s\n\n", genesis.Header.MerkleRoot.String())
}

func main() {
	printGenesis(chaincfg.MainNetParams.Name, &chaincfg.MainNetParams)
	printGenesis(chaincfg.TestNet3Params.Name, &chaincfg.TestNet3Params)
	printGenesis(chaincfg.RegressionNetParams.Name, &chaincfg.RegressionNetParams)
}
