package ledger

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/klauspost/compress/zstd"
	"github.com/zeebo/blake3"
)

const (
	// snapshotVersion is the current snapshot format version.
	snapshotVersion = 1
)

// ErrSnapshotChecksum is returned when a snapshot's contents do not match its checksum.
var ErrSnapshotChecksum = errors.New("snapshot checksum mismatch")

// SnapshotAccount is one account captured in a snapshot.
type SnapshotAccount struct {
	Key     solana.PublicKey // Key is the account address
	Account Account          // Account is the stored state
}

// Snapshot is a decoded account dump.
type Snapshot struct {
	Version  uint32            // Version is the format version
	Slot     uint64            // Slot is the slot the dump was taken at
	Accounts []SnapshotAccount // Accounts are sorted by address
}

// snapshotEntry is the borsh layout of one captured account.
type snapshotEntry struct {
	Key    [32]byte
	Record []byte
}

// snapshotFile is the borsh layout of a snapshot before compression.
type snapshotFile struct {
	Version  uint32
	Slot     uint64
	Entries  []snapshotEntry
	Checksum [32]byte
}

// Snapshot dumps every stored account as a zstd-compressed, checksummed blob.
// Accounts are visited in address order, so equal states give equal bytes.
func (s *Session) Snapshot() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrSessionClosed
	}

	file := snapshotFile{Version: snapshotVersion, Slot: s.slot}

	err := s.accounts.each(func(key solana.PublicKey, acc *Account) error {
		record, err := acc.MarshalBorsh()
		if err != nil {
			return err
		}

		file.Entries = append(file.Entries, snapshotEntry{Key: key, Record: record})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("collect accounts:\n%w", err)
	}

	file.Checksum = computeChecksum(file.Version, file.Slot, file.Entries)

	var buf bytes.Buffer
	if err := bin.NewBorshEncoder(&buf).Encode(file); err != nil {
		return nil, fmt.Errorf("encode snapshot:\n%w", err)
	}

	return compressSnapshot(buf.Bytes())
}

// DecodeSnapshot decompresses and verifies a snapshot.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	raw, err := decompressSnapshot(data)
	if err != nil {
		return nil, fmt.Errorf("decompress snapshot:\n%w", err)
	}

	var file snapshotFile
	if err := bin.NewBorshDecoder(raw).Decode(&file); err != nil {
		return nil, fmt.Errorf("decode snapshot:\n%w", err)
	}

	if file.Version != snapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d", file.Version)
	}

	if computeChecksum(file.Version, file.Slot, file.Entries) != file.Checksum {
		return nil, ErrSnapshotChecksum
	}

	snap := &Snapshot{Version: file.Version, Slot: file.Slot}
	for _, entry := range file.Entries {
		acc, err := UnmarshalAccount(entry.Record)
		if err != nil {
			return nil, fmt.Errorf("account %s:\n%w", solana.PublicKey(entry.Key), err)
		}

		snap.Accounts = append(snap.Accounts, SnapshotAccount{
			Key:     solana.PublicKey(entry.Key),
			Account: *acc,
		})
	}

	return snap, nil
}

// computeChecksum computes a blake3 checksum over canonical snapshot data.
// Format: version (4 bytes) + slot (8 bytes) + for each entry: key + u32 len + record
func computeChecksum(version uint32, slot uint64, entries []snapshotEntry) [32]byte {
	hasher := blake3.New()

	var buf [8]byte
	binary.BigEndian.PutUint32(buf[:4], version)
	hasher.Write(buf[:4])

	binary.BigEndian.PutUint64(buf[:], slot)
	hasher.Write(buf[:])

	for _, e := range entries {
		hasher.Write(e.Key[:])
		binary.BigEndian.PutUint32(buf[:4], uint32(len(e.Record)))
		hasher.Write(buf[:4])
		hasher.Write(e.Record)
	}

	var checksum [32]byte
	hasher.Sum(checksum[:0])

	return checksum
}

// compressSnapshot compresses snapshot data using zstd.
func compressSnapshot(data []byte) ([]byte, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create encoder:\n%w", err)
	}
	defer encoder.Close()

	return encoder.EncodeAll(data, nil), nil
}

// decompressSnapshot decompresses zstd-compressed snapshot data.
func decompressSnapshot(data []byte) ([]byte, error) {
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create decoder:\n%w", err)
	}
	defer decoder.Close()

	return decoder.DecodeAll(data, nil)
}
