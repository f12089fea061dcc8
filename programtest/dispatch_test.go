package programtest

import (
	"context"
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Testlib/ledger"
	"Testlib/programs"
	"Testlib/programs/anchor"
)

// memoOf returns the memo payload of the last instruction of a recorded transaction.
func memoOf(t *testing.T, s *ledger.Session, sig solana.Signature) string {
	t.Helper()

	rec, ok := s.Transaction(sig)
	require.True(t, ok, "transaction %s not recorded", sig)

	msg := rec.Transaction.Message
	last := msg.Instructions[len(msg.Instructions)-1]

	require.Equal(t, solana.MemoProgramID, msg.AccountKeys[last.ProgramIDIndex])
	return string(last.Data)
}

// TestSameInstructionsExecuteTwice verifies identical sends are distinct
// transactions that both reach the program.
func TestSameInstructionsExecuteTwice(t *testing.T) {
	cnt := &counter{}
	id := testProgramID(0)

	c := newTestContext(t, WithPrograms(ledger.ProgramRegistration{Name: "counter", ID: id, Processor: cnt.process}))
	require.Equal(t, 1, cnt.calls, "bootstrap should call the program once")

	ixs := []solana.Instruction{emptyIx(id)}
	d := c.Dispatcher()

	require.NoError(t, c.Send(context.Background(), ixs))
	first := d.LastSignature()

	require.NoError(t, c.Send(context.Background(), ixs))
	second := d.LastSignature()

	assert.Equal(t, 3, cnt.calls)
	assert.NotEqual(t, first, second)
	assert.Equal(t, "nonce=1", memoOf(t, c.Session, first))
	assert.Equal(t, "nonce=2", memoOf(t, c.Session, second))
	assert.Len(t, ixs, 1, "caller's instructions were modified")
}

// TestNonceIsMonotonic verifies the nonce advances on every send, failed ones included.
func TestNonceIsMonotonic(t *testing.T) {
	regs := append(programs.Default(), ledger.ProgramRegistration{
		Name:      "rejecter",
		ID:        testProgramID(1),
		Processor: failing(ledger.Custom(3)),
	})

	// Bootstrap fails on the rejecter, so drive a dispatcher by hand.
	pt := ledger.NewProgramTest(ledger.DefaultConfig())
	for _, reg := range regs {
		require.NoError(t, pt.AddProgram(reg))
	}

	s, err := pt.Start(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	d := NewDispatcher(s)

	prev := d.Nonce()
	for i := 0; i < 10; i++ {
		target := anchor.ID
		if i%3 == 0 {
			target = testProgramID(1)
		}

		err := d.Send(context.Background(), []solana.Instruction{emptyIx(target)})
		if i%3 == 0 {
			AssertErrorCode(t, err, 3)
		} else {
			require.NoError(t, err)
		}

		require.Equal(t, prev+1, d.Nonce())
		prev = d.Nonce()
	}
}

func TestSendWithAdditionalSigner(t *testing.T) {
	c := newTestContext(t)
	ctx := context.Background()

	signer := c.Keys.NewKeypair()
	ix := solana.NewInstruction(anchor.ID, solana.AccountMetaSlice{
		{PublicKey: signer.PublicKey(), IsSigner: true, IsWritable: false},
	}, []byte{1})

	require.NoError(t, c.Send(ctx, []solana.Instruction{ix}, signer))

	rec, ok := c.Session.Transaction(c.Dispatcher().LastSignature())
	require.True(t, ok)
	assert.Len(t, rec.Transaction.Signatures, 2)

	// Without the signer's key the transaction cannot be signed.
	err := c.Send(ctx, []solana.Instruction{ix})
	require.Error(t, err)
	var te *ledger.TransportError
	assert.False(t, errors.As(err, &te), "signing failure should not reach the runtime")
}

// TestSendRejectsUnusedSigner verifies an extra key no instruction asks for is
// reported by name and does not consume a nonce.
func TestSendRejectsUnusedSigner(t *testing.T) {
	c := newTestContext(t)
	ctx := context.Background()

	stray := c.Keys.NewKeypair()
	before := c.Dispatcher().Nonce()

	err := c.Send(ctx, []solana.Instruction{emptyIx(anchor.ID)}, stray)
	require.ErrorIs(t, err, ErrUnusedSigner)
	assert.Contains(t, err.Error(), stray.PublicKey().String())
	assert.Equal(t, before, c.Dispatcher().Nonce())

	// The payer is always required, so passing it again is accepted.
	require.NoError(t, c.Send(ctx, []solana.Instruction{emptyIx(anchor.ID)}, c.Payer()))
	assert.Equal(t, before+1, c.Dispatcher().Nonce())
}

// TestStaleBlockhashTimesOut verifies a blockhash past its lifetime fails as
// an IO error until the dispatcher refreshes.
func TestStaleBlockhashTimesOut(t *testing.T) {
	c := newTestContext(t)
	ctx := context.Background()

	require.NoError(t, c.Session.WarpToSlot(ctx, 1_000))

	err := c.Send(ctx, []solana.Instruction{emptyIx(anchor.ID)})
	require.ErrorIs(t, err, ledger.ErrTransactionTimeout)

	var te *ledger.TransportError
	require.True(t, errors.As(err, &te))
	assert.Nil(t, te.Tx)

	require.NoError(t, c.Dispatcher().Refresh(ctx))
	require.NoError(t, c.Send(ctx, []solana.Instruction{emptyIx(anchor.ID)}))
}

// TestLongRunRefreshesBlockhash sends more transactions than one blockhash
// outlives at the default slot length.
func TestLongRunRefreshesBlockhash(t *testing.T) {
	if testing.Short() {
		t.Skip("long run")
	}

	c := newTestContext(t)
	ctx := context.Background()
	d := c.Dispatcher()

	hashes := map[solana.Hash]struct{}{d.Blockhash(): {}}
	ixs := []solana.Instruction{emptyIx(anchor.ID)}

	for i := 0; i < 700; i++ {
		require.NoError(t, c.Send(ctx, ixs), "send %d", i)
		hashes[d.Blockhash()] = struct{}{}
	}

	assert.EqualValues(t, 701, d.Nonce())
	assert.Len(t, hashes, 3, "expected refreshes at nonce 299 and 599")
}

func TestWithRefreshInterval(t *testing.T) {
	c := newTestContext(t)
	d := NewDispatcher(c.Session, WithRefreshInterval(2))
	ctx := context.Background()

	// nonce 0 -> 1 refreshes, 1 -> 2 does not, 2 -> 3 does.
	start := d.Blockhash()

	require.NoError(t, d.Send(ctx, []solana.Instruction{emptyIx(anchor.ID)}))
	afterFirst := d.Blockhash()
	assert.NotEqual(t, start, afterFirst)

	require.NoError(t, d.Send(ctx, []solana.Instruction{emptyIx(anchor.ID)}))
	assert.Equal(t, afterFirst, d.Blockhash())

	require.NoError(t, d.Send(ctx, []solana.Instruction{emptyIx(anchor.ID)}))
	assert.NotEqual(t, afterFirst, d.Blockhash())

	assert.Equal(t, uint64(DefaultRefreshInterval), NewDispatcher(c.Session, WithRefreshInterval(0)).interval)
}
