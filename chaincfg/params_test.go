// Copyright (c) 2014-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chaincfg

import "testing"

// TestMainNetGenesisHash checks the mainnet genesis header hash against the
// well-known literal value.
func TestMainNetGenesisHash(t *testing.T) {
	want := "000000000019d6689c085ae165831e934ff763ae46a2a6c172b3f1b60a8ce26f"
	got := MainNetParams.GenesisHash().String()
	if got != want {
		t.Errorf("mainnet genesis hash: got %s want %s", got, want)
	}
}

// TestGenesisHashCached ensures GenesisHash memoizes rather than
// recomputing a different value on each call.
func TestGenesisHashCached(t *testing.T) {
	p := MainNetParams
	first := p.GenesisHash()
	second := p.GenesisHash()
	if first != second {
		t.Errorf("expected genesis hash to be stable across calls")
	}
}

// TestParamsByName exercises network lookup by name, including the
// not-found path.
func TestParamsByName(t *testing.T) {
	if _, ok := ParamsByName("mainnet"); !ok {
		t.Errorf("expected mainnet to be registered")
	}
	if _, ok := ParamsByName("doesnotexist"); ok {
		t.Errorf("expected an unregistered network name to report not found")
	}
}

// TestRegisterDuplicateRejected ensures Register refuses a second
// registration under an already-used name.
func TestRegisterDuplicateRejected(t *testing.T) {
	if err := Register(&MainNetParams); err == nil {
		t.Errorf("expected registering an already-registered network to fail")
	}
}

// TestGenesisStoredBlockHeight0 checks the synthesized genesis stored block
// carries height 0 and non-zero chain work.
func TestGenesisStoredBlockHeight0(t *testing.T) {
	sb, err := MainNetParams.GenesisStoredBlock()
	if err != nil {
		t.Fatalf("GenesisStoredBlock: %v", err)
	}
	if sb.Height != 0 {
		t.Errorf("expected genesis height 0, got %d", sb.Height)
	}
	if sb.ChainWork.Sign() <= 0 {
		t.Errorf("expected genesis chain work to be positive")
	}
	if sb.Hash() != MainNetParams.GenesisHash() {
		t.Errorf("genesis stored block hash does not match GenesisHash")
	}
}
