// Package lido is the Solido liquid staking program. The processor is a
// placeholder; Error lists the program's custom error codes so tests can
// assert on them by name.
package lido

import (
	"github.com/gagliardetto/solana-go"

	"Testlib/internal/logger"
	"Testlib/ledger"
)

// Name is the program's artifact base name.
const Name = "lido"

// ID is the address the program is deployed at.
var ID = solana.MustPublicKeyFromBase58("57Ydybsk5xhL6kVYPPK2HjYngRsEuM95RvLJRiLrrwJL")

// Error is a Solido custom error code.
type Error uint32

const (
	AlreadyInUse Error = iota
	InvalidOwner
	InvalidAmount
	SignatureMissing
	InvalidReserveAccount
	CalculationFailure
	WrongStakeState
	InvalidFeeAmount
	InvalidManager
	InvalidMaintainer
	MaximumNumberOfAccountsExceeded
	InvalidStakeAccount
)

var errorNames = map[Error]string{
	AlreadyInUse:                    "lido account already in use",
	InvalidOwner:                    "invalid account owner",
	InvalidAmount:                   "invalid amount",
	SignatureMissing:                "a required signature is missing",
	InvalidReserveAccount:           "invalid reserve account",
	CalculationFailure:              "calculation failure",
	WrongStakeState:                 "stake account in the wrong state",
	InvalidFeeAmount:                "invalid fee amount",
	InvalidManager:                  "invalid manager",
	InvalidMaintainer:               "invalid maintainer",
	MaximumNumberOfAccountsExceeded: "maximum number of accounts exceeded",
	InvalidStakeAccount:             "invalid stake account",
}

// Error implements error.
func (e Error) Error() string {
	if name, ok := errorNames[e]; ok {
		return name
	}
	return "unknown lido error"
}

// CustomCode reports e as a custom instruction error.
func (e Error) CustomCode() uint32 {
	return uint32(e)
}

// Process handles one instruction.
func Process(programID solana.PublicKey, accounts []*ledger.AccountInfo, data []byte) error {
	logger.Debug("LIDO", "program", programID, "accounts", len(accounts), "data", len(data))
	return nil
}

// Registration returns the program's native registration.
func Registration() ledger.ProgramRegistration {
	return ledger.ProgramRegistration{Name: Name, ID: ID, Processor: Process}
}
