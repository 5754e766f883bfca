// Copyright (c) 2013-2017 The btcsuite developers
// Copyright (c) 2017 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	applog "github.com/btcspv/spvchain/log"
)

var backendLog = applog.NewBackend()

var mainLog = backendLog.Logger("SYNC")

// initLogRotator attaches a file writer to backendLog at logFile, in
// addition to the stderr writer every Logger falls back to while the
// backend isn't running, and starts the backend goroutine.
func initLogRotator(logFile string, level applog.Level) error {
	if err := backendLog.AddLogFile(logFile, level); err != nil {
		return err
	}
	mainLog.SetLevel(level)
	return backendLog.Run()
}
