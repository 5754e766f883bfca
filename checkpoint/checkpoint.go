// Package checkpoint implements the textual checkpoint file format and the
// chain-bootstrap helper built on it.
package checkpoint

import (
	"bufio"
	"encoding/base64"
	"encoding/binary"
	"io"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/btcspv/spvchain/chainhash"
	"github.com/btcspv/spvchain/headerchain"
)

// textualMagic is the first line every checkpoint text file must contain.
const textualMagic = "TXT CHECKPOINTS 1"

// maxSignatures bounds the signature-count line.
const maxSignatures = 256

// clockDriftAllowance is subtracted from the bootstrap target time before
// searching for a checkpoint, tolerating skew between the file author's
// clock and the caller's.
const clockDriftAllowance = 7 * 24 * time.Hour

var (
	// ErrBadMagic is returned when the first line isn't the textual
	// magic string.
	ErrBadMagic = errors.New("checkpoint file: bad magic line")
	// ErrBadCount is returned when nSigs or nCheckpoints is out of range.
	ErrBadCount = errors.New("checkpoint file: bad count")
	// ErrBadRecordSize is returned when a decoded checkpoint line is
	// neither v1 (116B) nor v2 (96B).
	ErrBadRecordSize = errors.New("checkpoint file: record is neither v1 nor v2 size")
)

// checkpointEntry pairs a decoded stored block with the raw bytes it was
// decoded from, since data_hash is defined over the raw bytes, not a
// re-serialization of them.
type checkpointEntry struct {
	raw   []byte
	block *headerchain.StoredBlock
}

// Manager parses a textual checkpoint stream and answers
// "checkpoint at or before time T" queries against it. It does not verify
// the signatures it carries; that is an out-of-band step for callers that
// want it.
type Manager struct {
	genesis    *headerchain.StoredBlock
	signatures [][]byte
	entries    []checkpointEntry // sorted by header time ascending
	dataHash   chainhash.Hash
}

// Load parses the textual checkpoint format from r.
func Load(r io.Reader, genesis *headerchain.StoredBlock) (*Manager, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if !scanner.Scan() {
		return nil, errors.Wrap(ErrBadMagic, "empty checkpoint file")
	}
	if scanner.Text() != textualMagic {
		return nil, ErrBadMagic
	}

	nSigs, err := scanCount(scanner)
	if err != nil {
		return nil, err
	}
	if nSigs > maxSignatures {
		return nil, errors.Wrapf(ErrBadCount, "nSigs %d exceeds max %d", nSigs, maxSignatures)
	}

	signatures := make([][]byte, nSigs)
	for i := 0; i < nSigs; i++ {
		if !scanner.Scan() {
			return nil, errors.Wrap(ErrBadMagic, "truncated signature section")
		}
		sig, err := base64.StdEncoding.DecodeString(scanner.Text())
		if err != nil {
			return nil, errors.Wrap(err, "decoding signature line")
		}
		signatures[i] = sig
	}

	nCheckpoints, err := scanCount(scanner)
	if err != nil {
		return nil, err
	}
	if nCheckpoints <= 0 {
		return nil, errors.Wrap(ErrBadCount, "nCheckpoints must be > 0")
	}

	// The data hash commits to the file's literal contents: the big-endian
	// checkpoint count followed by each record's raw bytes in file order,
	// fed to the hasher as the records stream past (before any sorting).
	hasher := chainhash.NewHashWriter()
	var countBuf [4]byte
	binary.BigEndian.PutUint32(countBuf[:], uint32(nCheckpoints))
	_, _ = hasher.Write(countBuf[:])

	entries := make([]checkpointEntry, nCheckpoints)
	for i := 0; i < nCheckpoints; i++ {
		if !scanner.Scan() {
			return nil, errors.Wrap(ErrBadMagic, "truncated checkpoint section")
		}
		raw, err := base64.StdEncoding.DecodeString(scanner.Text())
		if err != nil {
			return nil, errors.Wrap(err, "decoding checkpoint line")
		}
		if len(raw) != headerchain.CompactV1Size && len(raw) != headerchain.CompactV2Size {
			return nil, errors.Wrapf(ErrBadRecordSize, "checkpoint %d is %d bytes", i, len(raw))
		}
		sb, err := headerchain.CompactDecode(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "decoding checkpoint %d", i)
		}
		_, _ = hasher.Write(raw)
		entries[i] = checkpointEntry{raw: raw, block: sb}
	}

	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "scanning checkpoint file")
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].block.Header.Timestamp < entries[j].block.Header.Timestamp
	})

	return &Manager{
		genesis:    genesis,
		signatures: signatures,
		entries:    entries,
		dataHash:   hasher.Finalize(),
	}, nil
}

func scanCount(scanner *bufio.Scanner) (int, error) {
	if !scanner.Scan() {
		return 0, errors.Wrap(ErrBadCount, "missing count line")
	}
	var n int
	_, err := parseUint(scanner.Text(), &n)
	if err != nil {
		return 0, errors.Wrap(ErrBadCount, "count line is not a number")
	}
	return n, nil
}

func parseUint(s string, out *int) (int, error) {
	n := 0
	if len(s) == 0 {
		return 0, errors.New("empty count")
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, errors.Errorf("non-digit %q in count", r)
		}
		n = n*10 + int(r-'0')
	}
	*out = n
	return n, nil
}

// NumCheckpoints returns the number of checkpoints the manager holds.
func (m *Manager) NumCheckpoints() int {
	return len(m.entries)
}

// DataHash returns the sha256 digest covered by the checkpoint file's
// signatures, exposed for optional out-of-band signature verification
// by callers that want it.
func (m *Manager) DataHash() chainhash.Hash {
	return m.dataHash
}

// Signatures returns the raw decoded signature bytes the checkpoint file
// carries, in file order. This manager never verifies them itself.
func (m *Manager) Signatures() [][]byte {
	return m.signatures
}

// CheckpointBefore returns the checkpoint with the greatest header time at
// or before t, or a synthesized genesis stored block if none qualifies.
func (m *Manager) CheckpointBefore(t time.Time) *headerchain.StoredBlock {
	target := uint32(t.Unix())

	var best *headerchain.StoredBlock
	for i := range m.entries {
		if m.entries[i].block.Header.Timestamp <= target {
			best = m.entries[i].block
		} else {
			break
		}
	}
	if best == nil {
		return m.genesis
	}
	return best
}

// Bootstrap seeds a freshly constructed block store from the checkpoint
// nearest to (but no later than) t, subtracting clockDriftAllowance first
// to tolerate clock skew between the checkpoint file's author and the
// caller, then puts it and sets it as chain head.
func Bootstrap(store headerchain.BlockStore, m *Manager, t time.Time) (*headerchain.StoredBlock, error) {
	sb := m.CheckpointBefore(t.Add(-clockDriftAllowance))
	if err := store.Put(sb); err != nil {
		return nil, err
	}
	if err := store.SetChainHead(sb); err != nil {
		return nil, err
	}
	return sb, nil
}
