package ledger

import (
	"context"
	"crypto/ed25519"
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"
)

// newTestSession starts a session with the given programs, closed when the test ends.
func newTestSession(t *testing.T, cfg Config, regs ...ProgramRegistration) *Session {
	t.Helper()

	pt := NewProgramTest(cfg)
	for _, reg := range regs {
		if err := pt.AddProgram(reg); err != nil {
			t.Fatalf("AddProgram(%s) failed: %v", reg.Name, err)
		}
	}

	s, err := pt.Start(context.Background())
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	t.Cleanup(func() {
		s.Close()
	})

	return s
}

// testKey returns a keypair derived from a repeated seed byte.
func testKey(b byte) solana.PrivateKey {
	seed := make([]byte, ed25519.SeedSize)
	for i := range seed {
		seed[i] = b
	}
	return solana.PrivateKey(ed25519.NewKeyFromSeed(seed))
}

// testProgramID returns a program address derived from b.
func testProgramID(b byte) solana.PublicKey {
	return testKey(0x80 | b).PublicKey()
}

// buildTx assembles a transaction paid by the session payer and signs it.
func buildTx(t *testing.T, s *Session, blockhash solana.Hash, ixs []solana.Instruction, signers ...solana.PrivateKey) *solana.Transaction {
	t.Helper()

	tx, err := solana.NewTransaction(ixs, blockhash, solana.TransactionPayer(s.Payer().PublicKey()))
	if err != nil {
		t.Fatalf("NewTransaction failed: %v", err)
	}

	keys := append([]solana.PrivateKey{s.Payer()}, signers...)
	_, err = tx.Sign(func(pk solana.PublicKey) *solana.PrivateKey {
		for i := range keys {
			if keys[i].PublicKey().Equals(pk) {
				return &keys[i]
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}

	return tx
}

// send builds, signs and processes ixs against the latest blockhash.
func send(t *testing.T, s *Session, ixs []solana.Instruction, signers ...solana.PrivateKey) error {
	t.Helper()

	tx := buildTx(t, s, s.LastBlockhash(), ixs, signers...)
	return s.ProcessTransaction(context.Background(), tx)
}

// emptyIx returns an instruction with no accounts and no data.
func emptyIx(programID solana.PublicKey) solana.Instruction {
	return solana.NewInstruction(programID, solana.AccountMetaSlice{}, nil)
}

// requireTxError asserts err is a transaction error of kind and returns it.
func requireTxError(t *testing.T, err error, kind TransactionErrorKind) *TransactionError {
	t.Helper()

	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected *TransportError, got %T: %v", err, err)
	}

	if te.Tx == nil {
		t.Fatalf("expected transaction error, got io error: %v", te.IO)
	}

	if te.Tx.Kind != kind {
		t.Fatalf("transaction error kind = %v, want %v", te.Tx.Kind, kind)
	}

	return te.Tx
}

// requireInstructionError asserts err failed instruction index with want.
func requireInstructionError(t *testing.T, err error, index int, want *InstructionError) {
	t.Helper()

	txErr := requireTxError(t, err, InstructionFailed)
	if txErr.Index != index {
		t.Fatalf("failing instruction = %d, want %d", txErr.Index, index)
	}

	if !errors.Is(err, want) {
		t.Fatalf("instruction error = %v, want %v", txErr.Instruction, want)
	}
}

// counter is a processor that records its calls.
type counter struct {
	calls int
	data  [][]byte
}

func (c *counter) process(_ solana.PublicKey, _ []*AccountInfo, data []byte) error {
	c.calls++
	c.data = append(c.data, append([]byte(nil), data...))
	return nil
}
