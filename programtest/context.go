// Package programtest stands up an in-process ledger with a known set of
// programs and drives transactions against it with reproducible keys.
package programtest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"

	"Testlib/internal/config"
	"Testlib/internal/logger"
	"Testlib/ledger"
	"Testlib/programs"
)

// State is the lifecycle stage of a Context.
type State int

const (
	Uninitialized State = iota
	Bootstrapping
	Ready
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Bootstrapping:
		return "bootstrapping"
	case Ready:
		return "ready"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Context owns a session with programs deployed and bootstrapped.
// It is not safe for concurrent use; each test builds its own.
type Context struct {
	Session *ledger.Session          // Session is the running ledger
	Keys    *DeterministicKeypairGen // Keys yields the test's reproducible keypairs

	dispatcher *Dispatcher
	programs   []ledger.ProgramRegistration // programs is the deployed set in registration order
	state      State
}

// NewEmpty registers the configured programs, starts a session and sends one
// empty instruction to each program. Errors are returned unchanged; a context
// that failed to bootstrap is not usable.
func NewEmpty(ctx context.Context, opts ...Option) (*Context, error) {
	o := &contextOpts{}
	for _, opt := range opts {
		opt(o)
	}

	cfg := o.cfg
	if cfg == nil {
		var err error
		if cfg, err = config.FromEnv(); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	regs := o.programs
	if regs == nil {
		regs = programs.Default()
	}

	c := &Context{Keys: NewDeterministicKeypairGenFromSeed(cfg.Dispatch.KeygenSeed)}

	start := time.Now()
	c.state = Bootstrapping

	pt := ledger.NewProgramTest(ledgerConfig(cfg))

	resolved, err := ResolvePrograms(regs, cfg.Programs)
	if err != nil {
		return nil, err
	}

	for _, reg := range resolved {
		if err := pt.AddProgram(reg); err != nil {
			return nil, err
		}
	}

	if o.snapshot != nil {
		if err := pt.LoadSnapshot(o.snapshot); err != nil {
			return nil, err
		}
	}

	for _, s := range o.accounts {
		pt.AddAccount(s.key, s.acc)
	}

	session, err := pt.Start(ctx)
	if err != nil {
		return nil, err
	}

	c.Session = session
	c.programs = session.Programs()
	c.dispatcher = NewDispatcher(session, WithRefreshInterval(cfg.Dispatch.RefreshInterval))

	bootstrap := make([]solana.Instruction, 0, len(c.programs))
	for _, reg := range c.programs {
		bootstrap = append(bootstrap, solana.NewInstruction(reg.ID, solana.AccountMetaSlice{}, []byte{}))
	}

	if err := c.dispatcher.Send(ctx, bootstrap); err != nil {
		session.Close()
		return nil, err
	}

	c.state = Ready

	logger.Debug("test context ready",
		"programs", len(c.programs),
		"payer", session.Payer().PublicKey(),
		logger.Timed(start),
	)

	return c, nil
}

// MustNewEmpty is NewEmpty for tests: it fails the test on a bootstrap error
// and closes the session when the test ends.
func MustNewEmpty(t testing.TB, opts ...Option) *Context {
	t.Helper()

	c, err := NewEmpty(context.Background(), opts...)
	if err != nil {
		t.Fatalf("failed to bootstrap test context: %v", err)
	}

	t.Cleanup(func() {
		c.Close()
	})

	return c
}

// State returns the lifecycle stage.
func (c *Context) State() State {
	return c.state
}

// Programs returns the deployed programs in registration order.
func (c *Context) Programs() []ledger.ProgramRegistration {
	out := make([]ledger.ProgramRegistration, len(c.programs))
	copy(out, c.programs)
	return out
}

// ProgramID returns the address of the program registered under name.
func (c *Context) ProgramID(name string) (solana.PublicKey, bool) {
	for _, reg := range c.programs {
		if reg.Name == name {
			return reg.ID, true
		}
	}
	return solana.PublicKey{}, false
}

// Dispatcher returns the context's transaction dispatcher.
func (c *Context) Dispatcher() *Dispatcher {
	return c.dispatcher
}

// Payer returns the session fee payer.
func (c *Context) Payer() solana.PrivateKey {
	return c.Session.Payer()
}

// Send dispatches instructions; see Dispatcher.Send.
func (c *Context) Send(ctx context.Context, instructions []solana.Instruction, additionalSigners ...solana.PrivateKey) error {
	return c.dispatcher.Send(ctx, instructions, additionalSigners...)
}

// GetAccount returns the account at key, or nil if none exists.
func (c *Context) GetAccount(ctx context.Context, key solana.PublicKey) (*ledger.Account, error) {
	return c.Session.GetAccount(ctx, key)
}

// WarpToSlot advances the clock and moves the dispatcher onto a blockhash
// that is valid at the new slot.
func (c *Context) WarpToSlot(ctx context.Context, slot uint64) error {
	if err := c.Session.WarpToSlot(ctx, slot); err != nil {
		return err
	}

	return c.dispatcher.Refresh(ctx)
}

// Close releases the session.
func (c *Context) Close() error {
	return c.Session.Close()
}

// ledgerConfig maps the harness config onto cluster parameters.
func ledgerConfig(cfg *config.Config) ledger.Config {
	s := cfg.Session

	lc := ledger.DefaultConfig()
	lc.DataPath = s.DataPath
	lc.ArtifactDirs = s.ArtifactDirs

	if s.PayerLamports != 0 {
		lc.PayerLamports = s.PayerLamports
	}
	if s.LamportsPerSignature != 0 {
		lc.LamportsPerSignature = s.LamportsPerSignature
	}
	if s.TransactionsPerSlot != 0 {
		lc.TransactionsPerSlot = s.TransactionsPerSlot
	}
	if s.MaxBlockhashAge != 0 {
		lc.MaxBlockhashAge = s.MaxBlockhashAge
	}
	if s.ComputeLimit != 0 {
		lc.ComputeLimit = s.ComputeLimit
	}

	return lc
}

// ResolvePrograms overrides ids and artifact loading of regs by name, and
// appends artifact-only programs the config names but regs lacks. regs is not
// modified.
func ResolvePrograms(regs []ledger.ProgramRegistration, overrides []config.Program) ([]ledger.ProgramRegistration, error) {
	out := make([]ledger.ProgramRegistration, len(regs))
	copy(out, regs)

	index := make(map[string]int, len(out))
	for i, reg := range out {
		index[reg.Name] = i
	}

	for _, p := range overrides {
		id, hasID, err := p.ProgramID()
		if err != nil {
			return nil, err
		}

		i, known := index[p.Name]
		if !known {
			if !hasID {
				return nil, fmt.Errorf("%w: program %q is not registered and has no id", config.ErrInvalid, p.Name)
			}

			out = append(out, ledger.ProgramRegistration{Name: p.Name, ID: id, Artifact: true})
			index[p.Name] = len(out) - 1
			continue
		}

		if hasID {
			out[i].ID = id
		}
		out[i].Artifact = out[i].Artifact || p.Artifact
	}

	return out, nil
}
