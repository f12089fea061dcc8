package ledger

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/gagliardetto/solana-go"

	"Testlib/internal/storage"
)

// accountPrefix namespaces account records in storage.
var accountPrefix = []byte("a:")

// accountStore holds accounts indexed by address, backed by persistent storage.
type accountStore struct {
	db *storage.Storage
}

// newAccountStore creates an account store backed by the given storage.
func newAccountStore(db *storage.Storage) *accountStore {
	return &accountStore{db: db}
}

// get retrieves an account. Returns nil if not found.
func (s *accountStore) get(key solana.PublicKey) (*Account, error) {
	data, err := s.db.Get(accountKey(key))
	if err != nil {
		return nil, fmt.Errorf("read account %s:\n%w", key, err)
	}

	if data == nil {
		return nil, nil
	}

	return UnmarshalAccount(data)
}

// set stores one account.
func (s *accountStore) set(key solana.PublicKey, acc *Account) error {
	return s.commit(map[solana.PublicKey]*Account{key: acc})
}

// commit atomically writes changes. Empty accounts are deleted.
func (s *accountStore) commit(changes map[solana.PublicKey]*Account) error {
	keys := make([]solana.PublicKey, 0, len(changes))
	for key := range changes {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return bytes.Compare(keys[i][:], keys[j][:]) < 0 })

	pairs := make([]storage.KeyValue, 0, len(keys))
	for _, key := range keys {
		acc := changes[key]

		kv := storage.KeyValue{Key: accountKey(key)}
		if acc != nil && !acc.IsEmpty() {
			data, err := acc.MarshalBorsh()
			if err != nil {
				return err
			}
			kv.Value = data
		}

		pairs = append(pairs, kv)
	}

	if err := s.db.Apply(pairs); err != nil {
		return fmt.Errorf("commit accounts:\n%w", err)
	}

	return nil
}

// each visits every stored account in address order.
func (s *accountStore) each(fn func(key solana.PublicKey, acc *Account) error) error {
	return s.db.IteratePrefix(accountPrefix, func(k, v []byte) error {
		if len(k) != len(accountPrefix)+32 {
			return fmt.Errorf("bad account key length %d", len(k))
		}

		// v is only valid until the iterator moves.
		acc, err := UnmarshalAccount(append([]byte(nil), v...))
		if err != nil {
			return err
		}

		return fn(solana.PublicKeyFromBytes(k[len(accountPrefix):]), acc)
	})
}

// accountKey returns the storage key for an address.
func accountKey(key solana.PublicKey) []byte {
	out := make([]byte, 0, len(accountPrefix)+32)
	out = append(out, accountPrefix...)
	return append(out, key[:]...)
}
