package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrTransactionTimeout is the IO error for a transaction whose blockhash expired.
	ErrTransactionTimeout = errors.New("transaction timed out: blockhash not found")

	// ErrSessionClosed is returned by every operation after Close.
	ErrSessionClosed = errors.New("session closed")

	// ErrMalformedTransaction wraps wire bytes that do not decode.
	ErrMalformedTransaction = errors.New("malformed transaction")

	// ErrSlotInPast is returned when warping to a slot not after the current one.
	ErrSlotInPast = errors.New("warp slot must be after the current slot")
)

// InstructionErrorKind enumerates why one instruction failed.
type InstructionErrorKind uint8

const (
	GenericError InstructionErrorKind = iota
	InvalidArgument
	InvalidInstructionData
	InvalidAccountData
	AccountDataTooSmall
	InsufficientFunds
	MissingRequiredSignature
	AccountAlreadyInUse
	ReadonlyLamportChange
	ReadonlyDataModified
	ExternalAccountDataModified
	ExternalAccountLamportSpend
	UnbalancedInstruction
	ModifiedProgramID
	ExecutableModified
	NotEnoughAccountKeys
	ProgramFailedToComplete
	ComputationalBudgetExceeded
	CustomError
)

var instructionErrorNames = [...]string{
	GenericError:                "generic instruction error",
	InvalidArgument:             "invalid program argument",
	InvalidInstructionData:      "invalid instruction data",
	InvalidAccountData:          "invalid account data for instruction",
	AccountDataTooSmall:         "account data too small for instruction",
	InsufficientFunds:           "insufficient funds for instruction",
	MissingRequiredSignature:    "missing required signature for instruction",
	AccountAlreadyInUse:         "instruction requires an uninitialized account",
	ReadonlyLamportChange:       "instruction changed the balance of a read-only account",
	ReadonlyDataModified:        "instruction modified data of a read-only account",
	ExternalAccountDataModified: "instruction modified data of an account it does not own",
	ExternalAccountLamportSpend: "instruction spent from the balance of an account it does not own",
	UnbalancedInstruction:       "sum of account balances before and after instruction do not match",
	ModifiedProgramID:           "instruction illegally modified the program id of an account",
	ExecutableModified:          "instruction changed executable accounts data",
	NotEnoughAccountKeys:        "insufficient account keys for instruction",
	ProgramFailedToComplete:     "program failed to complete",
	ComputationalBudgetExceeded: "computational budget exceeded",
	CustomError:                 "custom program error",
}

func (k InstructionErrorKind) String() string {
	if int(k) < len(instructionErrorNames) {
		return instructionErrorNames[k]
	}
	return fmt.Sprintf("instruction error kind %d", uint8(k))
}

// InstructionError is the failure of a single instruction.
// Code is meaningful only for CustomError.
type InstructionError struct {
	Kind InstructionErrorKind // Kind is the failure class
	Code uint32               // Code is the program-defined error code
}

// Custom returns the custom program error with the given code.
func Custom(code uint32) *InstructionError {
	return &InstructionError{Kind: CustomError, Code: code}
}

// NewInstructionError returns a non-custom instruction error.
func NewInstructionError(kind InstructionErrorKind) *InstructionError {
	return &InstructionError{Kind: kind}
}

func (e *InstructionError) Error() string {
	if e.Kind == CustomError {
		return fmt.Sprintf("custom program error: %#x", e.Code)
	}
	return e.Kind.String()
}

// Is matches another InstructionError with the same kind and code.
func (e *InstructionError) Is(target error) bool {
	t, ok := target.(*InstructionError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Code == t.Code
}

// CustomCoder is implemented by program error enums that map onto custom codes.
type CustomCoder interface {
	CustomCode() uint32
}

// TransactionErrorKind enumerates why a transaction failed.
type TransactionErrorKind uint8

const (
	InstructionFailed TransactionErrorKind = iota
	AccountNotFound
	ProgramAccountNotFound
	InvalidProgramForExecution
	InsufficientFundsForFee
	InvalidAccountForFee
	SignatureFailure
	SanitizeFailure
	AccountLoadedTwice
)

var transactionErrorNames = [...]string{
	InstructionFailed:          "error processing instruction",
	AccountNotFound:            "attempt to debit an account but found no record of a prior credit",
	ProgramAccountNotFound:     "attempt to load a program that does not exist",
	InvalidProgramForExecution: "attempt to load a program that is not executable",
	InsufficientFundsForFee:    "insufficient funds for fee",
	InvalidAccountForFee:       "this account may not be used to pay transaction fees",
	SignatureFailure:           "transaction did not pass signature verification",
	SanitizeFailure:            "transaction failed to sanitize accounts offsets correctly",
	AccountLoadedTwice:         "account loaded twice",
}

func (k TransactionErrorKind) String() string {
	if int(k) < len(transactionErrorNames) {
		return transactionErrorNames[k]
	}
	return fmt.Sprintf("transaction error kind %d", uint8(k))
}

// TransactionError is the failure of a transaction. For InstructionFailed,
// Index is the failing instruction and Instruction holds the cause.
type TransactionError struct {
	Kind        TransactionErrorKind // Kind is the failure class
	Index       int                  // Index is the failing instruction
	Instruction *InstructionError    // Instruction is set only for InstructionFailed
}

// NewTransactionError returns a transaction-level error.
func NewTransactionError(kind TransactionErrorKind) *TransactionError {
	return &TransactionError{Kind: kind}
}

// InstructionErrorAt wraps an instruction failure at index.
func InstructionErrorAt(index int, cause *InstructionError) *TransactionError {
	return &TransactionError{Kind: InstructionFailed, Index: index, Instruction: cause}
}

func (e *TransactionError) Error() string {
	if e.Kind == InstructionFailed && e.Instruction != nil {
		return fmt.Sprintf("error processing instruction %d: %s", e.Index, e.Instruction)
	}
	return e.Kind.String()
}

func (e *TransactionError) Unwrap() error {
	if e.Instruction == nil {
		return nil
	}
	return e.Instruction
}

// Is matches a TransactionError of the same kind, and index for instruction failures.
func (e *TransactionError) Is(target error) bool {
	t, ok := target.(*TransactionError)
	if !ok {
		return false
	}

	if e.Kind != t.Kind {
		return false
	}

	if e.Kind == InstructionFailed {
		if e.Index != t.Index {
			return false
		}

		return t.Instruction == nil || (e.Instruction != nil && e.Instruction.Is(t.Instruction))
	}

	return true
}

// TransportError is what ProcessTransaction returns on failure: either the
// transaction was rejected (Tx) or submission itself failed (IO).
type TransportError struct {
	IO error             // IO is the submission failure
	Tx *TransactionError // Tx is the transaction failure
}

func (e *TransportError) Error() string {
	if e.Tx != nil {
		return "transaction error: " + e.Tx.Error()
	}
	return "io error: " + e.IO.Error()
}

func (e *TransportError) Unwrap() error {
	if e.Tx != nil {
		return e.Tx
	}
	return e.IO
}

// txFailure wraps a transaction error for the caller.
func txFailure(err *TransactionError) error {
	return &TransportError{Tx: err}
}

// ioFailure wraps a submission error for the caller.
func ioFailure(err error) error {
	return &TransportError{IO: err}
}

// instructionErrorFrom maps whatever a processor returned onto an InstructionError.
func instructionErrorFrom(err error) *InstructionError {
	var ie *InstructionError
	if errors.As(err, &ie) {
		return ie
	}

	var coder CustomCoder
	if errors.As(err, &coder) {
		return Custom(coder.CustomCode())
	}

	return NewInstructionError(GenericError)
}
