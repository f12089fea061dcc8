package programtest

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Testlib/ledger"
	"Testlib/programs"
	"Testlib/programs/lido"
)

// recordingT captures assertion failures instead of failing the test.
type recordingT struct {
	testing.TB
	failures []string
}

func (r *recordingT) Helper()      {}
func (r *recordingT) Name() string { return "recording" }

func (r *recordingT) Errorf(format string, args ...any) {
	r.failures = append(r.failures, fmt.Sprintf(format, args...))
}

func TestExpectCustomError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code uint32
		ok   bool
	}{
		{"nil", nil, 0, false},
		{"plain", errors.New("boom"), 0, false},
		{"io", &ledger.TransportError{IO: ledger.ErrTransactionTimeout}, 0, false},
		{"transaction", &ledger.TransportError{Tx: ledger.NewTransactionError(ledger.ProgramAccountNotFound)}, 0, false},
		{"builtin", &ledger.TransportError{Tx: ledger.InstructionErrorAt(0, ledger.NewInstructionError(ledger.InvalidArgument))}, 0, false},
		{"custom", &ledger.TransportError{Tx: ledger.InstructionErrorAt(1, ledger.Custom(0x1771))}, 0x1771, true},
		{"wrapped", fmt.Errorf("deposit:\n%w", &ledger.TransportError{Tx: ledger.InstructionErrorAt(0, ledger.Custom(4))}), 4, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, ok := ExpectCustomError(tc.err)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.code, code)
		})
	}
}

// TestAssertProgramError verifies program error enums surface through a
// real transaction as their custom code.
func TestAssertProgramError(t *testing.T) {
	id := testProgramID(2)
	regs := append(programs.Default(), ledger.ProgramRegistration{
		Name: "strict",
		ID:   id,
		Processor: func(_ solana.PublicKey, _ []*ledger.AccountInfo, data []byte) error {
			if len(data) > 0 {
				return lido.InvalidAmount
			}
			return nil
		},
	})

	c := newTestContext(t, WithPrograms(regs...))

	err := c.Send(context.Background(), []solana.Instruction{
		solana.NewInstruction(id, solana.AccountMetaSlice{}, []byte{1}),
	})

	require.True(t, AssertProgramError(t, err, lido.InvalidAmount))
	require.True(t, AssertErrorCode(t, err, 2))
}

func TestAssertHelpersReportMismatch(t *testing.T) {
	custom := &ledger.TransportError{Tx: ledger.InstructionErrorAt(0, ledger.Custom(uint32(lido.WrongStakeState)))}

	rt := &recordingT{}
	assert.False(t, AssertProgramError(rt, custom, lido.InvalidOwner))
	assert.False(t, AssertErrorCode(rt, nil, 6))
	assert.False(t, AssertProgramError(rt, &ledger.TransportError{IO: ledger.ErrTransactionTimeout}, lido.InvalidOwner))
	assert.Len(t, rt.failures, 3)

	rt = &recordingT{}
	assert.True(t, AssertProgramError(rt, custom, lido.WrongStakeState))
	assert.True(t, AssertErrorCode(rt, custom, 6))
	assert.Empty(t, rt.failures)
}
