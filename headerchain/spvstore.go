// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package headerchain

import (
	"encoding/binary"
	"os"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"github.com/btcspv/spvchain/chainhash"
)

// SPV store file layout: a 4-byte magic, a 4-byte version, a
// 32-byte chain-head hash, followed by N fixed-size compact-v2 records in
// a ring indexed by hash-mod-N with linear probing.
const (
	spvMagic      = "SPVB"
	spvVersion    = 1
	spvHeaderSize = 4 + 4 + chainhash.HashSize
	spvRecordSize = CompactV2Size
)

// SpvStore is a memory-mapped, fixed-record ring-buffer BlockStore.
// Records are written and then fsynced before the chain-head pointer is
// updated and fsynced in turn, so a crash between the two leaves either the
// old head (with the new record already durable but unreferenced) or the
// new head, never a torn pointer.
type SpvStore struct {
	mu     sync.RWMutex
	file   *os.File
	data   []byte
	slots  int
	closed bool
	index  map[chainhash.Hash]int // hash -> slot, rebuilt from the mmap on open
}

// CreateSpvStore creates a new SPV store file at path sized to hold slots
// records, seeded with genesis as the sole entry and chain head.
func CreateSpvStore(path string, slots int, genesis *StoredBlock) (*SpvStore, error) {
	if slots <= 0 {
		return nil, errors.New("spv store requires a positive slot count")
	}

	size := int64(spvHeaderSize + slots*spvRecordSize)
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, errors.Wrap(ErrStoreIO, err.Error())
	}
	if err := f.Truncate(size); err != nil {
		f.Close()
		return nil, errors.Wrap(ErrStoreIO, err.Error())
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, errors.Wrap(ErrStoreIO, err.Error())
	}

	copy(data[0:4], []byte(spvMagic))
	binary.LittleEndian.PutUint32(data[4:8], spvVersion)

	s := &SpvStore{
		file:  f,
		data:  data,
		slots: slots,
		index: make(map[chainhash.Hash]int, slots),
	}

	if err := s.writeRecordLocked(genesis); err != nil {
		s.closeLocked()
		return nil, err
	}
	if err := s.setChainHeadLocked(genesis); err != nil {
		s.closeLocked()
		return nil, err
	}
	return s, nil
}

// OpenSpvStore opens and validates an existing SPV store file, rebuilding
// the in-memory hash index from its records.
func OpenSpvStore(path string) (*SpvStore, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0644)
	if err != nil {
		return nil, errors.Wrap(ErrStoreIO, err.Error())
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errors.Wrap(ErrStoreIO, err.Error())
	}
	size := info.Size()
	if size < spvHeaderSize || (size-spvHeaderSize)%spvRecordSize != 0 {
		f.Close()
		return nil, errors.Wrap(ErrCorrupt, "file size is not header+N*record")
	}
	slots := int((size - spvHeaderSize) / spvRecordSize)

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, errors.Wrap(ErrStoreIO, err.Error())
	}

	if string(data[0:4]) != spvMagic {
		unix.Munmap(data)
		f.Close()
		return nil, errors.Wrap(ErrCorrupt, "bad magic")
	}

	s := &SpvStore{
		file:  f,
		data:  data,
		slots: slots,
		index: make(map[chainhash.Hash]int, slots),
	}
	s.rebuildIndexLocked()
	return s, nil
}

func (s *SpvStore) recordSlice(slot int) []byte {
	off := spvHeaderSize + slot*spvRecordSize
	return s.data[off : off+spvRecordSize]
}

func (s *SpvStore) rebuildIndexLocked() {
	var empty [spvRecordSize]byte
	for slot := 0; slot < s.slots; slot++ {
		rec := s.recordSlice(slot)
		if string(rec) == string(empty[:]) {
			continue
		}
		sb, err := CompactDecodeV2(rec)
		if err != nil {
			continue
		}
		s.index[sb.Hash()] = slot
	}
}

func (s *SpvStore) slotFor(hash chainhash.Hash) int {
	h := binary.LittleEndian.Uint64(hash[:8])
	return int(h % uint64(s.slots))
}

// writeRecordLocked finds a slot for sb via linear probing (an empty slot,
// or the slot already holding this hash) and writes the encoded record,
// fsyncing before returning so the record is durable prior to any
// chain-head pointer that might reference it.
func (s *SpvStore) writeRecordLocked(sb *StoredBlock) error {
	hash := sb.Hash()
	rec, err := sb.CompactEncodeV2()
	if err != nil {
		return errors.Wrap(err, "spv store only holds v2-sized records")
	}

	if slot, ok := s.index[hash]; ok {
		copy(s.recordSlice(slot), rec)
		return s.syncLocked()
	}

	start := s.slotFor(hash)
	var empty [spvRecordSize]byte
	for i := 0; i < s.slots; i++ {
		slot := (start + i) % s.slots
		existing := s.recordSlice(slot)
		if string(existing) == string(empty[:]) {
			copy(existing, rec)
			s.index[hash] = slot
			return s.syncLocked()
		}
	}
	return ErrStoreFull
}

func (s *SpvStore) syncLocked() error {
	if err := unix.Msync(s.data, unix.MS_SYNC); err != nil {
		return errors.Wrap(ErrStoreIO, err.Error())
	}
	return nil
}

func (s *SpvStore) setChainHeadLocked(sb *StoredBlock) error {
	hash := sb.Hash()
	copy(s.data[8:8+chainhash.HashSize], hash[:])
	return s.syncLocked()
}

// Put writes a stored block's record into the ring buffer.
func (s *SpvStore) Put(sb *StoredBlock) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	return s.writeRecordLocked(sb)
}

// Get looks up a stored block by hash.
func (s *SpvStore) Get(hash chainhash.Hash) (*StoredBlock, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	slot, ok := s.index[hash]
	if !ok {
		return nil, ErrNotFound
	}
	return CompactDecodeV2(s.recordSlice(slot))
}

// GetChainHead returns the store's current chain head, read from the
// header's head-hash field and resolved through the slot index.
func (s *SpvStore) GetChainHead() (*StoredBlock, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	var hash chainhash.Hash
	copy(hash[:], s.data[8:8+chainhash.HashSize])
	slot, ok := s.index[hash]
	if !ok {
		return nil, ErrNotFound
	}
	return CompactDecodeV2(s.recordSlice(slot))
}

// SetChainHead updates the chain-head pointer, fsyncing after the record
// is already durable so a crash between the two writes never loses data,
// only (at worst) the head update itself.
func (s *SpvStore) SetChainHead(sb *StoredBlock) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if _, ok := s.index[sb.Hash()]; !ok {
		if err := s.writeRecordLocked(sb); err != nil {
			return err
		}
	}
	return s.setChainHeadLocked(sb)
}

func (s *SpvStore) closeLocked() error {
	if s.closed {
		return nil
	}
	s.closed = true
	err := unix.Munmap(s.data)
	s.data = nil
	closeErr := s.file.Close()
	if err != nil {
		return errors.Wrap(ErrStoreIO, err.Error())
	}
	if closeErr != nil {
		return errors.Wrap(ErrStoreIO, closeErr.Error())
	}
	return nil
}

// Close unmaps and closes the backing file. All subsequent operations
// return ErrClosed.
func (s *SpvStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeLocked()
}
