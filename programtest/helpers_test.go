package programtest

import (
	"testing"

	"github.com/gagliardetto/solana-go"

	"Testlib/internal/config"
	"Testlib/ledger"
)

// newTestContext bootstraps a context that ignores the environment config.
func newTestContext(t *testing.T, opts ...Option) *Context {
	t.Helper()

	return MustNewEmpty(t, append([]Option{WithConfig(config.Default())}, opts...)...)
}

// testProgramID returns a program address outside the default generator's stream.
func testProgramID(n int) solana.PublicKey {
	gen := NewDeterministicKeypairGenFromSeed(1000)

	var kp solana.PrivateKey
	for i := 0; i <= n; i++ {
		kp = gen.NewKeypair()
	}

	return kp.PublicKey()
}

// counter is a native program that counts its executions.
type counter struct {
	calls int
}

func (c *counter) process(_ solana.PublicKey, _ []*ledger.AccountInfo, _ []byte) error {
	c.calls++
	return nil
}

// failing returns a processor that always fails with err.
func failing(err error) ledger.Processor {
	return func(solana.PublicKey, []*ledger.AccountInfo, []byte) error {
		return err
	}
}

// emptyIx returns an instruction with no accounts and no data.
func emptyIx(program solana.PublicKey) solana.Instruction {
	return solana.NewInstruction(program, solana.AccountMetaSlice{}, []byte{})
}
