package programtest

import (
	"context"
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Testlib/internal/config"
	"Testlib/ledger"
	"Testlib/programs"
	"Testlib/programs/anchor"
	"Testlib/programs/foo"
	"Testlib/programs/lido"
)

func TestNewEmptyBootstraps(t *testing.T) {
	c := newTestContext(t)

	assert.Equal(t, Ready, c.State())

	regs := c.Programs()
	require.Len(t, regs, 2)
	assert.Equal(t, anchor.Name, regs[0].Name)
	assert.Equal(t, lido.Name, regs[1].Name)

	id, ok := c.ProgramID(lido.Name)
	require.True(t, ok)
	assert.Equal(t, lido.ID, id)

	// The bootstrap transaction carried one instruction per program plus the memo.
	rec, ok := c.Session.Transaction(c.Dispatcher().LastSignature())
	require.True(t, ok, "bootstrap transaction not recorded")
	assert.Nil(t, rec.Err)
	assert.Len(t, rec.Transaction.Message.Instructions, 3)
	assert.EqualValues(t, 1, c.Dispatcher().Nonce())

	for _, reg := range regs {
		acc, err := c.GetAccount(context.Background(), reg.ID)
		require.NoError(t, err)
		require.NotNil(t, acc, "program %s not deployed", reg.Name)
		assert.True(t, acc.Executable)
	}
}

// TestBootstrapDeterminism verifies two contexts deploy the same programs at
// the same addresses and hand out the same keys.
func TestBootstrapDeterminism(t *testing.T) {
	a := newTestContext(t)
	b := newTestContext(t)

	assert.Equal(t, a.Programs()[0].ID, b.Programs()[0].ID)
	assert.Equal(t, a.Programs()[1].ID, b.Programs()[1].ID)
	assert.Equal(t, a.Payer().PublicKey(), b.Payer().PublicKey())
	assert.Equal(t, a.Dispatcher().LastSignature(), b.Dispatcher().LastSignature())
	assert.Equal(t, a.Keys.NewKeypair(), b.Keys.NewKeypair())
}

// TestContextsAreIsolated verifies state written in one context is absent from another.
func TestContextsAreIsolated(t *testing.T) {
	a := newTestContext(t)
	b := newTestContext(t)

	key := a.Keys.NewKeypair().PublicKey()
	require.NoError(t, a.Session.SetAccount(context.Background(), key, ledger.Account{Lamports: 5, Owner: solana.SystemProgramID}))

	acc, err := b.GetAccount(context.Background(), key)
	require.NoError(t, err)
	assert.Nil(t, acc)
}

func TestSendToRegisteredProgram(t *testing.T) {
	c := newTestContext(t)

	require.NoError(t, c.Send(context.Background(), []solana.Instruction{emptyIx(anchor.ID)}))
	require.NoError(t, c.Send(context.Background(), []solana.Instruction{emptyIx(lido.ID)}))
}

func TestSendToUnregisteredProgram(t *testing.T) {
	c := newTestContext(t)

	err := c.Send(context.Background(), []solana.Instruction{emptyIx(testProgramID(0))})
	require.Error(t, err)

	var te *ledger.TransportError
	require.True(t, errors.As(err, &te), "error %v is not a TransportError", err)
	require.NotNil(t, te.Tx)
	assert.Equal(t, ledger.ProgramAccountNotFound, te.Tx.Kind)

	_, custom := ExpectCustomError(err)
	assert.False(t, custom)
}

func TestWithPrograms(t *testing.T) {
	c := newTestContext(t, WithPrograms(programs.Foo()...))

	regs := c.Programs()
	require.Len(t, regs, 1)
	assert.Equal(t, foo.ID, regs[0].ID)

	require.NoError(t, c.Send(context.Background(), []solana.Instruction{emptyIx(foo.ID)}))

	err := c.Send(context.Background(), []solana.Instruction{emptyIx(lido.ID)})
	assert.True(t, errors.Is(err, ledger.NewTransactionError(ledger.ProgramAccountNotFound)))
}

// TestBootstrapFailureIsReturned verifies a program rejecting its bootstrap
// instruction surfaces as the bootstrap error.
func TestBootstrapFailureIsReturned(t *testing.T) {
	regs := append(programs.Default(), ledger.ProgramRegistration{
		Name:      "broken",
		ID:        testProgramID(0),
		Processor: failing(lido.InvalidManager),
	})

	_, err := NewEmpty(context.Background(), WithConfig(config.Default()), WithPrograms(regs...))
	require.Error(t, err)

	var te *ledger.TransportError
	require.True(t, errors.As(err, &te))
	require.NotNil(t, te.Tx)
	assert.Equal(t, 2, te.Tx.Index)

	code, ok := ExpectCustomError(err)
	require.True(t, ok)
	assert.Equal(t, lido.InvalidManager.CustomCode(), code)
}

func TestBootstrapRejectsBadRegistration(t *testing.T) {
	_, err := NewEmpty(context.Background(),
		WithConfig(config.Default()),
		WithPrograms(ledger.ProgramRegistration{Name: "Bad-Name", ID: testProgramID(0), Processor: (&counter{}).process}),
	)

	assert.ErrorIs(t, err, ledger.ErrInvalidProgramName)
}

func TestWithAccount(t *testing.T) {
	key := NewDeterministicKeypairGenFromSeed(7).NewKeypair().PublicKey()
	c := newTestContext(t, WithAccount(key, ledger.Account{
		Lamports: 1_000_000,
		Data:     []byte("seeded"),
		Owner:    lido.ID,
	}))

	acc, err := c.GetAccount(context.Background(), key)
	require.NoError(t, err)
	require.NotNil(t, acc)

	view := AccountView(&key, acc)
	assert.EqualValues(t, 1_000_000, view.Balance())
	assert.Equal(t, []byte("seeded"), view.Bytes())
	assert.Equal(t, lido.ID, *view.Owner)
}

// TestWithSnapshot verifies a context restores the accounts of another's snapshot.
func TestWithSnapshot(t *testing.T) {
	src := newTestContext(t)

	key := src.Keys.NewKeypair().PublicKey()
	require.NoError(t, src.Session.SetAccount(context.Background(), key, ledger.Account{
		Lamports: 77,
		Data:     []byte{4, 5},
		Owner:    anchor.ID,
	}))

	snap, err := src.Session.Snapshot()
	require.NoError(t, err)

	dst := newTestContext(t, WithSnapshot(snap))

	acc, err := dst.GetAccount(context.Background(), key)
	require.NoError(t, err)
	require.NotNil(t, acc)
	assert.EqualValues(t, 77, acc.Lamports)
	assert.Equal(t, []byte{4, 5}, acc.Data)
}

// TestConfigOverridesProgramID verifies a [[program]] entry moves a known program.
func TestConfigOverridesProgramID(t *testing.T) {
	moved := testProgramID(3)

	cfg := config.Default()
	cfg.Programs = []config.Program{{Name: lido.Name, ID: moved.String()}}

	c := newTestContext(t, WithConfig(cfg))

	id, ok := c.ProgramID(lido.Name)
	require.True(t, ok)
	assert.Equal(t, moved, id)

	require.NoError(t, c.Send(context.Background(), []solana.Instruction{emptyIx(moved)}))
}

func TestConfigSessionParameters(t *testing.T) {
	cfg := config.Default()
	cfg.Session.LamportsPerSignature = 10
	cfg.Session.PayerLamports = 1_000

	c := newTestContext(t, WithConfig(cfg))

	// Bootstrap cost one signature.
	balance, err := c.Session.GetBalance(context.Background(), c.Payer().PublicKey())
	require.NoError(t, err)
	assert.EqualValues(t, 990, balance)
}

func TestResolvePrograms(t *testing.T) {
	extra := testProgramID(4)

	out, err := ResolvePrograms(programs.Default(), []config.Program{
		{Name: lido.Name, Artifact: true},
		{Name: "staking", ID: extra.String(), Artifact: true},
	})
	require.NoError(t, err)
	require.Len(t, out, 3)

	assert.False(t, out[0].Artifact)
	assert.True(t, out[1].Artifact)
	assert.Equal(t, lido.ID, out[1].ID)
	assert.Equal(t, ledger.ProgramRegistration{Name: "staking", ID: extra, Artifact: true}, out[2])

	_, err = ResolvePrograms(programs.Default(), []config.Program{{Name: "staking"}})
	assert.ErrorIs(t, err, config.ErrInvalid)

	_, err = ResolvePrograms(programs.Default(), []config.Program{{Name: lido.Name, ID: "not-base58!"}})
	assert.ErrorIs(t, err, config.ErrInvalid)
}

// TestWithConfigIsValidated verifies a config passed in directly gets the same
// checks as one loaded from disk.
func TestWithConfigIsValidated(t *testing.T) {
	cases := map[string]func(*config.Config){
		"bad id":     func(c *config.Config) { c.Programs = []config.Program{{Name: lido.Name, ID: "not-base58!"}} },
		"bad name":   func(c *config.Config) { c.Programs = []config.Program{{Name: "Lido"}} },
		"no refresh": func(c *config.Config) { c.Dispatch.RefreshInterval = 0 },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := config.Default()
			mutate(cfg)

			c, err := NewEmpty(context.Background(), WithConfig(cfg))
			assert.Nil(t, c)
			assert.ErrorIs(t, err, config.ErrInvalid)
		})
	}
}

// TestWarpToSlotRefreshesDispatcher verifies sends keep working after a
// warp past the blockhash lifetime.
func TestWarpToSlotRefreshesDispatcher(t *testing.T) {
	c := newTestContext(t)
	ctx := context.Background()

	before := c.Dispatcher().Blockhash()

	require.NoError(t, c.WarpToSlot(ctx, 10_000))
	assert.NotEqual(t, before, c.Dispatcher().Blockhash())
	assert.EqualValues(t, 10_000, c.Session.Slot())

	require.NoError(t, c.Send(ctx, []solana.Instruction{emptyIx(anchor.ID)}))

	assert.ErrorIs(t, c.WarpToSlot(ctx, 5), ledger.ErrSlotInPast)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "uninitialized", Uninitialized.String())
	assert.Equal(t, "bootstrapping", Bootstrapping.String())
	assert.Equal(t, "ready", Ready.String())
	assert.Equal(t, "state(9)", State(9).String())
}
