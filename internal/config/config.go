package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/pelletier/go-toml/v2"
)

const (
	// PathEnv names the environment variable pointing at a TOML config file.
	PathEnv = "PROGRAMTEST_CONFIG"

	// ArtifactDirEnv names the environment variable listing artifact directories.
	ArtifactDirEnv = "PROGRAMTEST_ARTIFACT_DIR"

	// DefaultRefreshInterval is how many dispatches share one blockhash.
	DefaultRefreshInterval = 300
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

var programNamePattern = regexp.MustCompile(`^[a-z0-9_]+$`)

// Config holds the harness configuration.
// Zero session values fall back to the ledger defaults.
type Config struct {
	// Session tunes the simulated cluster.
	Session Session `toml:"session"`

	// Dispatch tunes the transaction dispatcher.
	Dispatch Dispatch `toml:"dispatch"`

	// Programs overrides or extends the registered program set.
	Programs []Program `toml:"program"`
}

// Session holds the simulated cluster parameters.
type Session struct {
	// DataPath stores accounts on disk; empty keeps them in memory.
	DataPath string `toml:"data_path"`

	// PayerLamports is the fee payer's starting balance.
	PayerLamports uint64 `toml:"payer_lamports"`

	// LamportsPerSignature is the per-signature fee.
	LamportsPerSignature uint64 `toml:"lamports_per_signature"`

	// TransactionsPerSlot is the slot length in processed transactions.
	TransactionsPerSlot uint64 `toml:"transactions_per_slot"`

	// MaxBlockhashAge is the blockhash lifetime in slots.
	MaxBlockhashAge uint64 `toml:"max_blockhash_age"`

	// ComputeLimit is the gas budget per artifact instruction.
	ComputeLimit uint64 `toml:"compute_limit"`

	// ArtifactDirs are searched in order for <name>.wasm.
	ArtifactDirs []string `toml:"artifact_dirs"`
}

// Dispatch holds the dispatcher parameters.
type Dispatch struct {
	// RefreshInterval is how many dispatches share one blockhash.
	RefreshInterval uint64 `toml:"refresh_interval"`

	// KeygenSeed seeds the context's deterministic keypair stream.
	KeygenSeed uint64 `toml:"keygen_seed"`
}

// Program overrides the id or loading of a named program, or adds an
// artifact-only program when the name is not already registered.
type Program struct {
	// Name is the program's artifact base name.
	Name string `toml:"name"`

	// ID is the base58 program address; empty keeps the registered id.
	ID string `toml:"id"`

	// Artifact loads <Name>.wasm instead of the native processor.
	Artifact bool `toml:"artifact"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Dispatch: Dispatch{RefreshInterval: DefaultRefreshInterval},
	}
}

// Load reads a TOML file over the defaults. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config:\n%w", err)
	}
	defer f.Close()

	cfg := Default()

	dec := toml.NewDecoder(f)
	dec.DisallowUnknownFields()

	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("parse config %s:\n%w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// FromEnv loads the file named by PROGRAMTEST_CONFIG, or the defaults, and
// appends the directories listed in PROGRAMTEST_ARTIFACT_DIR.
func FromEnv() (*Config, error) {
	cfg := Default()

	if path := os.Getenv(PathEnv); path != "" {
		loaded, err := Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if dirs := os.Getenv(ArtifactDirEnv); dirs != "" {
		for _, dir := range filepath.SplitList(dirs) {
			if dir = strings.TrimSpace(dir); dir != "" {
				cfg.Session.ArtifactDirs = append(cfg.Session.ArtifactDirs, dir)
			}
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the program table and dispatcher parameters.
func (c *Config) Validate() error {
	if c.Dispatch.RefreshInterval == 0 {
		return fmt.Errorf("%w: dispatch.refresh_interval must be positive", ErrInvalid)
	}

	seen := make(map[string]struct{}, len(c.Programs))
	for i, p := range c.Programs {
		if !programNamePattern.MatchString(p.Name) {
			return fmt.Errorf("%w: program[%d] name %q must match [a-z0-9_]+", ErrInvalid, i, p.Name)
		}

		if _, dup := seen[p.Name]; dup {
			return fmt.Errorf("%w: program %q listed twice", ErrInvalid, p.Name)
		}
		seen[p.Name] = struct{}{}

		if _, _, err := p.ProgramID(); err != nil {
			return err
		}
	}

	return nil
}

// ProgramID returns the parsed id of p. ok is false when no id is set.
// A malformed id is reported as an error wrapping ErrInvalid.
func (p Program) ProgramID() (id solana.PublicKey, ok bool, err error) {
	if p.ID == "" {
		return solana.PublicKey{}, false, nil
	}

	id, err = solana.PublicKeyFromBase58(p.ID)
	if err != nil {
		return solana.PublicKey{}, false, fmt.Errorf("%w: program %q id: %v", ErrInvalid, p.Name, err)
	}

	return id, true, nil
}
