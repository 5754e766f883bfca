// Package binaryserializer reads and writes little-endian integers against
// io.Reader/io.Writer without allocating a scratch buffer per call: reads
// borrow from a bounded free list, writes use small stack arrays.
package binaryserializer

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// maxItems is the number of buffers kept on the free list. Once it is
// full, recycled buffers are simply dropped for the garbage collector.
const maxItems = 1024

// freeList holds 8-byte scratch buffers (large enough for a uint64) shared
// by all readers in the process. A buffered channel doubles as a
// concurrency-safe free list: receive to borrow, send to recycle.
var freeList = make(chan []byte, maxItems)

func borrow(n int) []byte {
	var buf []byte
	select {
	case buf = <-freeList:
	default:
		buf = make([]byte, 8)
	}
	return buf[:n]
}

func recycle(buf []byte) {
	select {
	case freeList <- buf[:8]:
	default:
	}
}

// Uint8 reads a single byte from r.
func Uint8(r io.Reader) (uint8, error) {
	buf := borrow(1)
	defer recycle(buf)
	if _, err := io.ReadFull(r, buf); err != nil {
		return 0, errors.WithStack(err)
	}
	return buf[0], nil
}

// Uint16 reads a little-endian uint16 from r.
func Uint16(r io.Reader) (uint16, error) {
	buf := borrow(2)
	defer recycle(buf)
	if _, err := io.ReadFull(r, buf); err != nil {
		return 0, errors.WithStack(err)
	}
	return binary.LittleEndian.Uint16(buf), nil
}

// Uint32 reads a little-endian uint32 from r.
func Uint32(r io.Reader) (uint32, error) {
	buf := borrow(4)
	defer recycle(buf)
	if _, err := io.ReadFull(r, buf); err != nil {
		return 0, errors.WithStack(err)
	}
	return binary.LittleEndian.Uint32(buf), nil
}

// Uint64 reads a little-endian uint64 from r.
func Uint64(r io.Reader) (uint64, error) {
	buf := borrow(8)
	defer recycle(buf)
	if _, err := io.ReadFull(r, buf); err != nil {
		return 0, errors.WithStack(err)
	}
	return binary.LittleEndian.Uint64(buf), nil
}

// PutUint8 writes a single byte to w.
func PutUint8(w io.Writer, val uint8) error {
	buf := [1]byte{val}
	_, err := w.Write(buf[:])
	return errors.WithStack(err)
}

// PutUint16 writes val to w as a little-endian uint16.
func PutUint16(w io.Writer, val uint16) error {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], val)
	_, err := w.Write(buf[:])
	return errors.WithStack(err)
}

// PutUint32 writes val to w as a little-endian uint32.
func PutUint32(w io.Writer, val uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], val)
	_, err := w.Write(buf[:])
	return errors.WithStack(err)
}

// PutUint64 writes val to w as a little-endian uint64.
func PutUint64(w io.Writer, val uint64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], val)
	_, err := w.Write(buf[:])
	return errors.WithStack(err)
}
