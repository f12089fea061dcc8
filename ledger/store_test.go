package ledger

import (
	"bytes"
	"testing"

	"github.com/gagliardetto/solana-go"

	"Testlib/internal/storage"
)

// newTestStore creates an account store over in-memory storage.
func newTestStore(t *testing.T) *accountStore {
	t.Helper()

	db, err := storage.NewMem()
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return newAccountStore(db)
}

func TestAccountBorshEncoding(t *testing.T) {
	acc := &Account{
		Lamports:   42,
		Data:       []byte{1, 2, 3},
		Owner:      solana.SystemProgramID,
		Executable: true,
		RentEpoch:  9,
	}

	data, err := acc.MarshalBorsh()
	if err != nil {
		t.Fatalf("MarshalBorsh failed: %v", err)
	}

	// u64 + (u32 len + 3) + 32 + bool + u64
	if len(data) != 8+4+3+32+1+8 {
		t.Fatalf("encoded length = %d", len(data))
	}

	got, err := UnmarshalAccount(data)
	if err != nil {
		t.Fatalf("UnmarshalAccount failed: %v", err)
	}

	if got.Lamports != 42 || !bytes.Equal(got.Data, acc.Data) || !got.Owner.Equals(acc.Owner) || !got.Executable || got.RentEpoch != 9 {
		t.Errorf("decoded = %+v", got)
	}
}

func TestStoreGetMissing(t *testing.T) {
	s := newTestStore(t)

	acc, err := s.get(testKey(1).PublicKey())
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}

	if acc != nil {
		t.Errorf("get returned %+v, want nil", acc)
	}
}

// TestStoreCommitDeletesEmptyAccounts verifies drained accounts disappear.
func TestStoreCommitDeletesEmptyAccounts(t *testing.T) {
	s := newTestStore(t)
	a, b := testKey(1).PublicKey(), testKey(2).PublicKey()

	err := s.commit(map[solana.PublicKey]*Account{
		a: {Lamports: 5, Owner: solana.SystemProgramID},
		b: {Lamports: 6, Owner: solana.SystemProgramID},
	})
	if err != nil {
		t.Fatalf("commit failed: %v", err)
	}

	err = s.commit(map[solana.PublicKey]*Account{
		a: {Owner: solana.SystemProgramID},
	})
	if err != nil {
		t.Fatalf("commit failed: %v", err)
	}

	if acc, _ := s.get(a); acc != nil {
		t.Errorf("empty account survived: %+v", acc)
	}

	if acc, _ := s.get(b); acc == nil || acc.Lamports != 6 {
		t.Errorf("untouched account = %+v", acc)
	}
}

// TestStoreEachVisitsInAddressOrder verifies iteration order is by address bytes.
func TestStoreEachVisitsInAddressOrder(t *testing.T) {
	s := newTestStore(t)

	changes := make(map[solana.PublicKey]*Account)
	for i := byte(1); i <= 5; i++ {
		changes[testKey(i).PublicKey()] = &Account{Lamports: uint64(i), Data: []byte{i}}
	}

	if err := s.commit(changes); err != nil {
		t.Fatalf("commit failed: %v", err)
	}

	var prev solana.PublicKey
	count := 0

	err := s.each(func(key solana.PublicKey, acc *Account) error {
		if count > 0 && bytes.Compare(prev[:], key[:]) >= 0 {
			t.Errorf("keys out of order: %s then %s", prev, key)
		}

		if len(acc.Data) != 1 || uint64(acc.Data[0]) != acc.Lamports {
			t.Errorf("account %s = %+v", key, acc)
		}

		prev = key
		count++
		return nil
	})
	if err != nil {
		t.Fatalf("each failed: %v", err)
	}

	if count != 5 {
		t.Errorf("visited %d accounts, want 5", count)
	}
}
