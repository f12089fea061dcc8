package programtest

import (
	"github.com/gagliardetto/solana-go"

	"Testlib/ledger"
)

// AccountView returns a read-only view of account at address, for handing
// ledger state to code that takes *ledger.AccountInfo. The view is never a
// signer, never writable and never executable. Lamports, Data and Owner
// borrow from account, so the view must not outlive it.
func AccountView(address *solana.PublicKey, account *ledger.Account) *ledger.AccountInfo {
	return &ledger.AccountInfo{
		Key:        address,
		IsSigner:   false,
		IsWritable: false,
		Lamports:   &account.Lamports,
		Data:       &account.Data,
		Owner:      &account.Owner,
		Executable: false,
		RentEpoch:  account.RentEpoch,
	}
}
