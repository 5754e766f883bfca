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

const (
	defaultNetwork    = "mainnet"
	defaultLogLevel   = "info"
	defaultStoreSlots = 500000
)

var activeConfig *Config

// ActiveConfig returns the active configuration struct.
func ActiveConfig() *Config {
	return activeConfig
}

// Config defines the configuration options for spvsyncd.
//
// See loadConfig for details on the configuration load process.
type Config struct {
	Network        string `short:"n" long:"network" description:"Network to track {mainnet, testnet3, regtest}"`
	DataDir        string `short:"d" long:"datadir" description:"Directory holding the memory-mapped SPV store (<network>.spvstore) and the log file; empty keeps the chain in memory only"`
	StoreSlots     int    `long:"storeslots" description:"Number of ring-buffer record slots when creating a new SPV store"`
	CheckpointFile string `short:"c" long:"checkpoints" description:"Path to a textual checkpoint file to bootstrap from"`
	LogLevel       string `long:"loglevel" description:"Logging level {trace, debug, info, warn, error, critical, off}"`

	params *chaincfg.Params
}

// NetParams returns the chaincfg.Params selected by the Network flag.
func (c *Config) NetParams() *chaincfg.Params {
	return c.params
}

// loadConfig initializes and parses the config using command line options.
func loadConfig() (*Config, []string, error) {
	activeConfig = &Config{
		Network:    defaultNetwork,
		StoreSlots: defaultStoreSlots,
		LogLevel:   defaultLogLevel,
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
		err := errors.Errorf("spvsyncd: unknown network %q", activeConfig.Network)
		fmt.Fprintln(os.Stderr, err)
		parser.WriteHelp(os.Stderr)
		return nil, nil, err
	}
	activeConfig.params = params

	return activeConfig, remainingArgs, nil
}
