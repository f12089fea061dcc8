// Package foo is a minimal deposit program used by the single-program context.
package foo

import (
	"github.com/gagliardetto/solana-go"

	"Testlib/internal/logger"
	"Testlib/ledger"
)

// Name is the program's artifact base name.
const Name = "foo"

// ID is the address the program is deployed at.
var ID = solana.MustPublicKeyFromBase58("GkEkdGe68DuTKg6FhVLLPZ3Wm8EcUPCPjhCeu8WrGDoD")

// Process handles one instruction.
func Process(programID solana.PublicKey, accounts []*ledger.AccountInfo, data []byte) error {
	logger.Debug("foo", "program", programID, "accounts", len(accounts), "data", len(data))
	return nil
}

// Registration returns the program's native registration.
func Registration() ledger.ProgramRegistration {
	return ledger.ProgramRegistration{Name: Name, ID: ID, Processor: Process}
}
