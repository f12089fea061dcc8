package programtest

import (
	"github.com/gagliardetto/solana-go"

	"Testlib/internal/config"
	"Testlib/ledger"
)

// seededAccount is an account written at genesis.
type seededAccount struct {
	key solana.PublicKey // key is the account address
	acc ledger.Account   // acc is the genesis state
}

// contextOpts holds configuration for a Context.
type contextOpts struct {
	programs []ledger.ProgramRegistration // programs is the set to deploy, in order (nil = programs.Default)
	cfg      *config.Config               // cfg is the harness config (nil = config.FromEnv)
	accounts []seededAccount              // accounts are seeded at genesis
	snapshot []byte                       // snapshot is loaded before accounts
}

// Option configures a Context.
type Option func(*contextOpts)

// WithPrograms replaces the deployed program set. Programs deploy and
// bootstrap in the given order.
func WithPrograms(regs ...ledger.ProgramRegistration) Option {
	return func(o *contextOpts) { o.programs = append([]ledger.ProgramRegistration{}, regs...) }
}

// WithConfig uses cfg instead of the environment config.
func WithConfig(cfg *config.Config) Option { return func(o *contextOpts) { o.cfg = cfg } }

// WithAccount seeds an account at genesis.
func WithAccount(key solana.PublicKey, acc ledger.Account) Option {
	return func(o *contextOpts) { o.accounts = append(o.accounts, seededAccount{key: key, acc: acc}) }
}

// WithSnapshot seeds every account of a snapshot produced by ledger.Session.Snapshot.
func WithSnapshot(data []byte) Option { return func(o *contextOpts) { o.snapshot = data } }
