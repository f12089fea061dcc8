package programtest

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"Testlib/ledger"
)

// ExpectCustomError returns the code of a custom instruction error carried
// by err. It reports false for every other failure, including nil.
func ExpectCustomError(err error) (uint32, bool) {
	var te *ledger.TransportError
	if !errors.As(err, &te) || te.Tx == nil {
		return 0, false
	}

	tx := te.Tx
	if tx.Kind != ledger.InstructionFailed || tx.Instruction == nil || tx.Instruction.Kind != ledger.CustomError {
		return 0, false
	}

	return tx.Instruction.Code, true
}

// AssertErrorCode asserts err is a custom instruction error with code. Use it
// for errors of programs that have no error enum.
func AssertErrorCode(t testing.TB, err error, code uint32) bool {
	t.Helper()

	got, ok := ExpectCustomError(err)
	if !assert.Truef(t, ok, "expected custom error with code %d, not %v", code, err) {
		return false
	}

	return assert.Equal(t, code, got, "custom error has an unexpected error code")
}

// AssertProgramError asserts err is the custom instruction error for want.
func AssertProgramError[E ~uint32](t testing.TB, err error, want E) bool {
	t.Helper()

	got, ok := ExpectCustomError(err)
	if !assert.Truef(t, ok, "expected %v error, not %v", want, err) {
		return false
	}

	return assert.Equalf(t, uint32(want), got, "expected custom error with code for %v, got different code", want)
}
