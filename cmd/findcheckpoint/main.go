// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Command findcheckpoint scans a header-chain store's main chain and
// writes a textual checkpoint file a node can later bootstrap from
// via checkpoint.Load/Bootstrap. It carries no signatures of its own;
// attaching those is left to a separate out-of-band signing step.
package main

import (
	"bufio"
	"encoding/base64"
	"fmt"
	"os"

	"github.com/btcspv/spvchain/headerchain"
)

// candidateSpacing is the number of blocks between emitted checkpoint
// candidates, matching the retarget interval so each candidate lands on a
// difficulty-retarget boundary.
const candidateSpacing = 2016

func main() {
	cfg, _, err := loadConfig()
	if err != nil {
		os.Exit(1)
	}

	store, err := headerchain.OpenSpvStore(cfg.StorePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "findcheckpoint: opening store: %+v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	head, err := store.GetChainHead()
	if err != nil {
		fmt.Fprintf(os.Stderr, "findcheckpoint: reading chain head: %+v\n", err)
		os.Exit(1)
	}

	candidates, err := collectCandidates(store, head)
	if err != nil {
		fmt.Fprintf(os.Stderr, "findcheckpoint: walking chain: %+v\n", err)
		os.Exit(1)
	}

	out := os.Stdout
	if cfg.Out != "" {
		f, err := os.Create(cfg.Out)
		if err != nil {
			fmt.Fprintf(os.Stderr, "findcheckpoint: creating output file: %+v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}

	if err := writeCheckpointFile(out, candidates); err != nil {
		fmt.Fprintf(os.Stderr, "findcheckpoint: writing checkpoint file: %+v\n", err)
		os.Exit(1)
	}
}

// collectCandidates walks the main chain from head back to genesis,
// selecting one stored block every candidateSpacing blocks, in ascending
// height order.
func collectCandidates(store *headerchain.SpvStore, head *headerchain.StoredBlock) ([]*headerchain.StoredBlock, error) {
	var reversed []*headerchain.StoredBlock
	cur := head
	for {
		if cur.Height%candidateSpacing == 0 {
			reversed = append(reversed, cur)
		}
		if cur.Height == 0 {
			break
		}
		prev, err := store.Get(cur.Header.PrevHash)
		if err != nil {
			return nil, err
		}
		cur = prev
	}

	candidates := make([]*headerchain.StoredBlock, len(reversed))
	for i, sb := range reversed {
		candidates[len(candidates)-1-i] = sb
	}
	return candidates, nil
}

// writeCheckpointFile emits the textual format checkpoint.Load parses: the
// magic line, a zero signature count, then the checkpoint count and each
// checkpoint's base64-encoded compact record.
func writeCheckpointFile(out *os.File, candidates []*headerchain.StoredBlock) error {
	w := bufio.NewWriter(out)

	fmt.Fprintln(w, "TXT CHECKPOINTS 1")
	fmt.Fprintln(w, 0) // no signatures attached by this tool
	fmt.Fprintln(w, len(candidates))
	for _, sb := range candidates {
		rec, err := sb.CompactEncode()
		if err != nil {
			return err
		}
		fmt.Fprintln(w, base64.StdEncoding.EncodeToString(rec))
	}

	return w.Flush()
}
