package ledger

import (
	"context"
	"crypto/ed25519"
	"fmt"
	"os"

	"github.com/gagliardetto/solana-go"
	"github.com/zeebo/blake3"

	"Testlib/internal/logger"
	"Testlib/internal/programvm"
	"Testlib/internal/storage"
)

// payerSeed is hashed into the fee payer's ed25519 seed.
const payerSeed = "programtest payer"

// ProgramTest collects programs and accounts, then starts a Session.
type ProgramTest struct {
	cfg      Config
	programs []*deployedProgram
	names    map[string]struct{}
	ids      map[solana.PublicKey]struct{}
	accounts map[solana.PublicKey]*Account
	order    []solana.PublicKey
}

// NewProgramTest creates a builder for the given cluster parameters.
// Zero fields of cfg take their DefaultConfig values.
func NewProgramTest(cfg Config) *ProgramTest {
	return &ProgramTest{
		cfg:      cfg.withDefaults(),
		names:    make(map[string]struct{}),
		ids:      make(map[solana.PublicKey]struct{}),
		accounts: make(map[solana.PublicKey]*Account),
	}
}

// AddProgram registers a program to deploy at Start.
// Programs deploy in the order they were added.
func (pt *ProgramTest) AddProgram(reg ProgramRegistration) error {
	if _, dup := pt.names[reg.Name]; dup {
		return fmt.Errorf("%w: name %q", ErrDuplicateProgram, reg.Name)
	}

	if _, dup := pt.ids[reg.ID]; dup {
		return fmt.Errorf("%w: id %s", ErrDuplicateProgram, reg.ID)
	}

	deployed, err := resolveProgram(reg, pt.cfg.ArtifactDirs)
	if err != nil {
		return err
	}

	pt.programs = append(pt.programs, deployed)
	pt.names[reg.Name] = struct{}{}
	pt.ids[reg.ID] = struct{}{}

	return nil
}

// AddAccount seeds an account at genesis. A later call for the same address wins.
func (pt *ProgramTest) AddAccount(key solana.PublicKey, acc Account) {
	if _, exists := pt.accounts[key]; !exists {
		pt.order = append(pt.order, key)
	}

	pt.accounts[key] = acc.Clone()
}

// LoadSnapshot seeds every account of a snapshot produced by Session.Snapshot.
func (pt *ProgramTest) LoadSnapshot(data []byte) error {
	snap, err := DecodeSnapshot(data)
	if err != nil {
		return err
	}

	for _, entry := range snap.Accounts {
		pt.AddAccount(entry.Key, entry.Account)
	}

	return nil
}

// Start opens the account store, deploys programs and funds the fee payer.
func (pt *ProgramTest) Start(ctx context.Context) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	db, err := openStorage(pt.cfg.DataPath)
	if err != nil {
		return nil, fmt.Errorf("open account store:\n%w", err)
	}

	s := &Session{
		cfg:         pt.cfg,
		db:          db,
		accounts:    newAccountStore(db),
		payer:       derivePayer(),
		blockhashes: newBlockhashQueue(genesisBlockhash(), pt.cfg.MaxBlockhashAge),
		status:      newStatusCache(),
		programs:    make(map[solana.PublicKey]*deployedProgram, len(pt.programs)),
		history:     make(map[solana.Signature]*TransactionRecord),
	}

	if err := s.genesis(ctx, pt); err != nil {
		s.Close()
		return nil, err
	}

	logger.Debug("session started",
		"payer", s.payer.PublicKey(),
		"programs", len(s.order),
		"blockhash", s.blockhashes.latest(),
	)

	return s, nil
}

// genesis writes builtin, program, payer and seeded accounts.
func (s *Session) genesis(ctx context.Context, pt *ProgramTest) error {
	changes := make(map[solana.PublicKey]*Account)

	for id := range builtins {
		changes[id] = &Account{
			Lamports:   1,
			Owner:      NativeLoaderID,
			Executable: true,
		}
	}

	for _, p := range pt.programs {
		var artifact []byte
		if !p.native() {
			wasm, err := os.ReadFile(p.artifactPath)
			if err != nil {
				return fmt.Errorf("read artifact %s:\n%w", p.artifactPath, err)
			}

			if err := s.loadArtifact(ctx, p.reg.ID, wasm); err != nil {
				return fmt.Errorf("load artifact %s:\n%w", p.reg.Name, err)
			}

			artifact = wasm
		}

		changes[p.reg.ID] = &Account{
			Lamports:   s.cfg.Rent.MinimumBalance(len(artifact)),
			Data:       artifact,
			Owner:      BPFLoaderID,
			Executable: true,
		}

		s.programs[p.reg.ID] = p
		s.order = append(s.order, p.reg)

		logger.Debug("program deployed", "name", p.reg.Name, "id", p.reg.ID, "native", p.native())
	}

	changes[s.payer.PublicKey()] = &Account{
		Lamports: s.cfg.PayerLamports,
		Owner:    solana.SystemProgramID,
	}

	for _, key := range pt.order {
		changes[key] = pt.accounts[key].Clone()
	}

	return s.accounts.commit(changes)
}

// loadArtifact compiles an artifact into the session's VM, creating it on first use.
func (s *Session) loadArtifact(ctx context.Context, id solana.PublicKey, wasm []byte) error {
	if s.vm == nil {
		vm, err := programvm.New(ctx)
		if err != nil {
			return err
		}
		s.vm = vm
	}

	_, err := s.vm.Load(ctx, id, wasm)
	return err
}

// openStorage opens an on-disk store at path, or an in-memory one when path is empty.
func openStorage(path string) (*storage.Storage, error) {
	if path == "" {
		return storage.NewMem()
	}

	return storage.New(path)
}

// derivePayer returns the fixed fee payer keypair.
func derivePayer() solana.PrivateKey {
	seed := blake3.Sum256([]byte(payerSeed))
	return solana.PrivateKey(ed25519.NewKeyFromSeed(seed[:]))
}
