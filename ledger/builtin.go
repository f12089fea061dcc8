package ledger

import (
	"encoding/binary"
	"fmt"
	"unicode/utf8"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

const (
	// maxPermittedDataLength caps the space CreateAccount may allocate.
	maxPermittedDataLength = 10 * 1024 * 1024

	systemCreateAccount = 0
	systemTransfer      = 2
)

var (
	// NativeLoaderID owns builtin program accounts.
	NativeLoaderID = solana.MustPublicKeyFromBase58("NativeLoader1111111111111111111111111111111")

	// BPFLoaderID owns registered program accounts.
	BPFLoaderID = solana.MustPublicKeyFromBase58("BPFLoader2111111111111111111111111111111111")
)

// SystemError is a system program failure, surfaced as a custom error code.
type SystemError uint32

const (
	SystemAccountAlreadyInUse SystemError = iota
	SystemResultWithNegativeLamports
	SystemInvalidProgramID
	SystemInvalidAccountDataLength
)

func (e SystemError) Error() string {
	switch e {
	case SystemAccountAlreadyInUse:
		return "an account with the same address already exists"
	case SystemResultWithNegativeLamports:
		return "account does not have enough SOL to perform the operation"
	case SystemInvalidProgramID:
		return "cannot assign account to this program id"
	case SystemInvalidAccountDataLength:
		return "cannot allocate account data of this length"
	default:
		return fmt.Sprintf("system error %d", uint32(e))
	}
}

// CustomCode maps the error onto its custom instruction error code.
func (e SystemError) CustomCode() uint32 {
	return uint32(e)
}

// builtins maps builtin program ids to their processors.
var builtins = map[solana.PublicKey]Processor{
	solana.SystemProgramID: processSystem,
	solana.MemoProgramID:   processMemo,
}

// builtinNames names builtin programs in log lines and listings.
var builtinNames = map[solana.PublicKey]string{
	solana.SystemProgramID: "system_program",
	solana.MemoProgramID:   "spl_memo",
}

// processSystem handles CreateAccount and Transfer.
func processSystem(programID solana.PublicKey, accounts []*AccountInfo, data []byte) error {
	dec := bin.NewBinDecoder(data)

	discriminant, err := dec.ReadUint32(binary.LittleEndian)
	if err != nil {
		return NewInstructionError(InvalidInstructionData)
	}

	switch discriminant {
	case systemCreateAccount:
		return systemCreate(dec, accounts)
	case systemTransfer:
		return systemTransferLamports(dec, accounts)
	default:
		return NewInstructionError(InvalidInstructionData)
	}
}

// systemCreate allocates, funds and assigns a new account.
// Accounts: [funder (signer, writable), new account (signer, writable)].
func systemCreate(dec *bin.Decoder, accounts []*AccountInfo) error {
	lamports, err := dec.ReadUint64(binary.LittleEndian)
	if err != nil {
		return NewInstructionError(InvalidInstructionData)
	}

	space, err := dec.ReadUint64(binary.LittleEndian)
	if err != nil {
		return NewInstructionError(InvalidInstructionData)
	}

	ownerBytes, err := dec.ReadNBytes(32)
	if err != nil {
		return NewInstructionError(InvalidInstructionData)
	}

	if len(accounts) < 2 {
		return NewInstructionError(NotEnoughAccountKeys)
	}

	funder, created := accounts[0], accounts[1]
	if !funder.IsSigner || !created.IsSigner {
		return NewInstructionError(MissingRequiredSignature)
	}

	if *created.Lamports > 0 || len(*created.Data) > 0 || !created.Owner.Equals(solana.SystemProgramID) {
		return SystemAccountAlreadyInUse
	}

	if space > maxPermittedDataLength {
		return SystemInvalidAccountDataLength
	}

	if *funder.Lamports < lamports {
		return SystemResultWithNegativeLamports
	}

	*funder.Lamports -= lamports
	*created.Lamports += lamports
	*created.Data = make([]byte, space)
	*created.Owner = solana.PublicKeyFromBytes(ownerBytes)

	return nil
}

// systemTransferLamports moves lamports between two accounts.
// Accounts: [from (signer, writable), to (writable)].
func systemTransferLamports(dec *bin.Decoder, accounts []*AccountInfo) error {
	lamports, err := dec.ReadUint64(binary.LittleEndian)
	if err != nil {
		return NewInstructionError(InvalidInstructionData)
	}

	if len(accounts) < 2 {
		return NewInstructionError(NotEnoughAccountKeys)
	}

	from, to := accounts[0], accounts[1]
	if !from.IsSigner {
		return NewInstructionError(MissingRequiredSignature)
	}

	if len(*from.Data) > 0 {
		return NewInstructionError(InvalidArgument)
	}

	if *from.Lamports < lamports {
		return SystemResultWithNegativeLamports
	}

	*from.Lamports -= lamports
	*to.Lamports += lamports

	return nil
}

// processMemo accepts any UTF-8 payload signed by every listed account.
func processMemo(_ solana.PublicKey, accounts []*AccountInfo, data []byte) error {
	for _, acc := range accounts {
		if !acc.IsSigner {
			return NewInstructionError(MissingRequiredSignature)
		}
	}

	if !utf8.Valid(data) {
		return NewInstructionError(InvalidInstructionData)
	}

	return nil
}
