// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"

	flags "github.com/jessevdk/go-flags"
	"github.com/pkg/errors"

	"github.com/btcspv/spvchain/chaincfg"
)

const defaultNetwork = "mainnet"

var activeConfig *ConfigFlags

// ActiveConfig returns the active configuration struct.
func ActiveConfig() *ConfigFlags {
	return activeConfig
}

// ConfigFlags defines the configuration options for findcheckpoint.
//
// See loadConfig for details on the configuration load process.
type ConfigFlags struct {
	StorePath string `short:"s" long:"storepath" description:"Path to the memory-mapped spv store to scan"`
	Network   string `short:"n" long:"network" description:"Network to select genesis/retarget parameters for {mainnet, testnet3, regtest}"`
	Out       string `short:"o" long:"out" description:"Path to write the textual checkpoint file to (default: stdout)"`

	params *chaincfg.Params
}

// NetParams returns the chaincfg.Params selected by the Network flag.
func (c *ConfigFlags) NetParams() *chaincfg.Params {
	return c.params
}

// loadConfig initializes and parses the config using command line options.
func loadConfig() (*ConfigFlags, []string, error) {
	activeConfig = &ConfigFlags{
		Network: defaultNetwork,
	}

	parser := flags.NewParser(activeConfig, flags.Default)
	remainingArgs, err := parser.Parse()
	if err != nil {
		if e, ok := err.(*flags.Error); !ok || e.Type != flags.ErrHelp {
			parser.WriteHelp(os.Stderr)
		}
		return nil, nil, err
	}

	params, ok := chaincfg.ParamsByName(activeConfig.Network)
	if !ok {
		err := errors.Errorf("findcheckpoint: unknown network %q", activeConfig.Network)
		fmt.Fprintln(os.Stderr, err)
		parser.WriteHelp(os.Stderr)
		return nil, nil, err
	}
	activeConfig.params = params

	if activeConfig.StorePath == "" {
		err := errors.New("findcheckpoint: -storepath is required")
		fmt.Fprintln(os.Stderr, err)
		parser.WriteHelp(os.Stderr)
		return nil, nil, err
	}

	return activeConfig, remainingArgs, nil
}
