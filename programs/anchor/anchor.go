// Package anchor is the anchor integration program. Its processor is a
// placeholder that accepts every instruction.
package anchor

import (
	"github.com/gagliardetto/solana-go"

	"Testlib/internal/logger"
	"Testlib/ledger"
)

// Name is the program's artifact base name.
const Name = "anchor_integration"

// MintAuthoritySeed derives the program address that mints stSOL.
var MintAuthoritySeed = []byte("mint_authority")

// ID is the address the program is deployed at.
var ID = solana.MustPublicKeyFromBase58("CFQL4hJoENAa6ZZiuVZtDMbQSQ3VKUfCQy9hN355uxtK")

// Process handles one instruction.
func Process(programID solana.PublicKey, accounts []*ledger.AccountInfo, data []byte) error {
	logger.Debug("ANCHOR!", "program", programID, "accounts", len(accounts), "data", len(data))
	return nil
}

// MintAuthority returns the mint authority address of the instance at
// instance, with its bump seed.
func MintAuthority(programID, instance solana.PublicKey) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress([][]byte{instance.Bytes(), MintAuthoritySeed}, programID)
}

// Registration returns the program's native registration.
func Registration() ledger.ProgramRegistration {
	return ledger.ProgramRegistration{Name: Name, ID: ID, Processor: Process}
}
