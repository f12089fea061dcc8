package ledger

import (
	"bytes"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// Account is the stored state of one address.
type Account struct {
	Lamports   uint64           // Lamports is the balance
	Data       []byte           // Data is the opaque payload
	Owner      solana.PublicKey // Owner is the program allowed to modify Data
	Executable bool             // Executable marks program accounts
	RentEpoch  uint64           // RentEpoch is the next epoch rent is due
}

// accountRecord is the borsh layout of a stored account.
type accountRecord struct {
	Lamports   uint64
	Data       []byte
	Owner      [32]byte
	Executable bool
	RentEpoch  uint64
}

// Clone returns a deep copy of the account.
func (a *Account) Clone() *Account {
	c := *a
	c.Data = append([]byte(nil), a.Data...)
	return &c
}

// IsEmpty reports whether the account holds nothing worth storing.
func (a *Account) IsEmpty() bool {
	return a.Lamports == 0 && len(a.Data) == 0 && !a.Executable
}

// MarshalBorsh encodes the account.
func (a *Account) MarshalBorsh() ([]byte, error) {
	rec := accountRecord{
		Lamports:   a.Lamports,
		Data:       a.Data,
		Owner:      a.Owner,
		Executable: a.Executable,
		RentEpoch:  a.RentEpoch,
	}

	var buf bytes.Buffer
	if err := bin.NewBorshEncoder(&buf).Encode(rec); err != nil {
		return nil, fmt.Errorf("encode account:\n%w", err)
	}

	return buf.Bytes(), nil
}

// UnmarshalAccount decodes an account written by MarshalBorsh.
func UnmarshalAccount(data []byte) (*Account, error) {
	var rec accountRecord
	if err := bin.NewBorshDecoder(data).Decode(&rec); err != nil {
		return nil, fmt.Errorf("decode account:\n%w", err)
	}

	return &Account{
		Lamports:   rec.Lamports,
		Data:       rec.Data,
		Owner:      solana.PublicKey(rec.Owner),
		Executable: rec.Executable,
		RentEpoch:  rec.RentEpoch,
	}, nil
}

// AccountInfo is the view of an account handed to a program during an
// instruction. Lamports, Data and Owner point into the working copy, so a
// processor mutates state by writing through them.
type AccountInfo struct {
	Key        *solana.PublicKey // Key is the account address
	IsSigner   bool              // IsSigner is true if the transaction carries the key's signature
	IsWritable bool              // IsWritable is true if the message marks the key writable
	Lamports   *uint64           // Lamports is the live balance
	Data       *[]byte           // Data is the live payload
	Owner      *solana.PublicKey // Owner is the live owner
	Executable bool              // Executable marks program accounts
	RentEpoch  uint64            // RentEpoch is the next epoch rent is due
}

// NewAccountInfo builds a view borrowing key and acc.
func NewAccountInfo(key *solana.PublicKey, isSigner, isWritable bool, acc *Account) *AccountInfo {
	return &AccountInfo{
		Key:        key,
		IsSigner:   isSigner,
		IsWritable: isWritable,
		Lamports:   &acc.Lamports,
		Data:       &acc.Data,
		Owner:      &acc.Owner,
		Executable: acc.Executable,
		RentEpoch:  acc.RentEpoch,
	}
}

// Balance returns the current lamports.
func (a *AccountInfo) Balance() uint64 {
	return *a.Lamports
}

// Bytes returns the current data.
func (a *AccountInfo) Bytes() []byte {
	return *a.Data
}
