// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"bufio"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/btcspv/spvchain/checkpoint"
	"github.com/btcspv/spvchain/headerchain"
	applog "github.com/btcspv/spvchain/log"
	"github.com/btcspv/spvchain/wire"
)

// syncd wraps the store and chain engine spvsyncd wires together.
type syncd struct {
	store headerchain.BlockStore
	chain *headerchain.Chain
}

// newSyncd opens (or creates) the configured block store, bootstraps it
// from a checkpoint file when one is given and the store is freshly
// created, and wires a chain engine over it with a logging listener.
func newSyncd(cfg *Config) (*syncd, error) {
	params := cfg.NetParams()
	genesis, err := params.GenesisStoredBlock()
	if err != nil {
		return nil, errors.Wrap(err, "building genesis stored block")
	}

	store, created, err := openStore(cfg, genesis)
	if err != nil {
		return nil, err
	}

	if created && cfg.CheckpointFile != "" {
		if err := bootstrapFromCheckpoint(store, genesis, cfg.CheckpointFile); err != nil {
			store.Close()
			return nil, err
		}
	}

	chain := headerchain.NewChain(store, params, nil)
	chain.Subscribe(logNotification)

	return &syncd{store: store, chain: chain}, nil
}

// openStore returns the configured BlockStore, reporting whether it was
// freshly created (as opposed to opened from an existing file) so the
// caller knows whether checkpoint bootstrap is appropriate.
func openStore(cfg *Config, genesis *headerchain.StoredBlock) (headerchain.BlockStore, bool, error) {
	if cfg.DataDir == "" {
		return headerchain.NewMemoryStore(genesis, 0), true, nil
	}

	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return nil, false, errors.Wrap(err, "creating data directory")
	}
	path := filepath.Join(cfg.DataDir, cfg.Network+".spvstore")

	if _, err := os.Stat(path); err == nil {
		store, err := headerchain.OpenSpvStore(path)
		if err != nil {
			return nil, false, errors.Wrap(err, "opening spv store")
		}
		return store, false, nil
	}

	store, err := headerchain.CreateSpvStore(path, cfg.StoreSlots, genesis)
	if err != nil {
		return nil, false, errors.Wrap(err, "creating spv store")
	}
	return store, true, nil
}

// bootstrapFromCheckpoint loads a textual checkpoint file and seeds store
// with the checkpoint nearest to (but not later than) now.
func bootstrapFromCheckpoint(store headerchain.BlockStore, genesis *headerchain.StoredBlock, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "opening checkpoint file")
	}
	defer f.Close()

	mgr, err := checkpoint.Load(f, genesis)
	if err != nil {
		return errors.Wrap(err, "loading checkpoint file")
	}

	sb, err := checkpoint.Bootstrap(store, mgr, time.Now())
	if err != nil {
		return errors.Wrap(err, "bootstrapping from checkpoint")
	}
	mainLog.Infof("bootstrapped from checkpoint at height %d (%s)", sb.Height, sb.Hash())
	return nil
}

// logNotification is the chain engine's listener, translating chain
// notifications into log lines. It runs synchronously under the chain's
// write lock, so it must not call back into the engine.
func logNotification(n *headerchain.Notification) {
	switch n.Type {
	case headerchain.NTNewBestBlock:
		mainLog.Infof("new chain tip: height %d hash %s", n.Block.Height, n.Block.Hash())
	case headerchain.NTReorganize:
		r := n.Reorganize
		mainLog.Warnf("reorganize: disconnected %d block(s) from %s, connected %d block(s) to %s",
			len(r.Disconnected), r.OldHead.Hash(), len(r.Connected), r.NewHead.Hash())
	}
}

// ingestHeaders reads newline-delimited hex-encoded 80-byte headers from r
// and feeds each one through AcceptHeader in order, logging the outcome.
// Decode/parse errors abort the whole run: a malformed line almost always
// means the input file itself is wrong, not one bad header among good
// ones.
func (s *syncd) ingestHeaders(r io.Reader) error {
	defer applog.LogAndMeasureExecutionTime(mainLog, "ingestHeaders")()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 256), 4096)

	count := 0
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		raw, err := hex.DecodeString(line)
		if err != nil {
			return errors.Wrapf(err, "decoding header on line %d", count+1)
		}
		header, err := wire.ParseBlockHeader(raw)
		if err != nil {
			return errors.Wrapf(err, "parsing header on line %d", count+1)
		}

		result, err := s.chain.AcceptHeader(header)
		if err != nil {
			mainLog.Errorf("rejected header %s: %+v", header.BlockHash(), err)
			return err
		}

		switch result {
		case headerchain.AcceptedOrphan:
			mainLog.Debugf("buffered orphan header %s", header.BlockHash())
		case headerchain.AcceptedSideChain:
			mainLog.Debugf("accepted side-chain header %s", header.BlockHash())
		case headerchain.AcceptedExtended:
			// logNotification already reported the new tip.
		}
		count++
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrap(err, "reading header stream")
	}
	mainLog.Infof("ingested %d header(s)", count)
	return nil
}

// close releases the underlying block store.
func (s *syncd) close() error {
	return s.store.Close()
}

// realMain loads configuration, wires the chain engine, and ingests
// headers from the positional file argument or stdin.
func realMain() error {
	cfg, args, err := loadConfig()
	if err != nil {
		return err
	}

	level, ok := applog.LevelFromString(cfg.LogLevel)
	if !ok {
		level = applog.LevelInfo
		mainLog.Warnf("unknown log level %q, defaulting to info", cfg.LogLevel)
	}
	mainLog.SetLevel(level)

	if cfg.DataDir != "" {
		logFile := filepath.Join(cfg.DataDir, "spvsyncd.log")
		if err := initLogRotator(logFile, level); err != nil {
			mainLog.Warnf("failed to start log rotator, continuing with stderr only: %+v", err)
		}
	}

	s, err := newSyncd(cfg)
	if err != nil {
		mainLog.Errorf("failed to initialize: %+v", err)
		return err
	}
	defer s.close()

	var input io.Reader = os.Stdin
	if len(args) > 0 {
		f, err := os.Open(args[0])
		if err != nil {
			mainLog.Errorf("failed to open %s: %+v", args[0], err)
			return err
		}
		defer f.Close()
		input = f
	}

	if err := s.ingestHeaders(input); err != nil {
		mainLog.Errorf("header ingestion stopped: %+v", err)
		return err
	}

	head, err := s.chain.ChainHead()
	if err != nil {
		mainLog.Errorf("failed to read chain head: %+v", err)
		return err
	}
	mainLog.Infof("final chain head: height %d hash %s", head.Height, head.Hash())
	return nil
}
