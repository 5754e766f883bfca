// Copyright (c) 2013-2018 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

/*
Spvsyncd is a minimal Bitcoin SPV header-chain daemon.

It has no peer-to-peer transport of its own: headers arrive as newline-delimited hex on stdin, or from a
file named on the command line, and spvsyncd validates and chains them,
bootstrapping from a checkpoint file and a persistent on-disk store when
configured to.

Usage:

	spvsyncd [OPTIONS] [headers-file]

For an up-to-date help message:

	spvsyncd --help
*/
package main
