package ledger

const (
	// defaultPayerLamports funds the session fee payer with one million SOL.
	defaultPayerLamports = 1_000_000_000_000_000

	// defaultLamportsPerSignature is the fee charged per transaction signature.
	defaultLamportsPerSignature = 5000

	// defaultTransactionsPerSlot is how many processed transactions close a slot.
	defaultTransactionsPerSlot = 4

	// defaultMaxBlockhashAge is how many slots a blockhash stays usable.
	defaultMaxBlockhashAge = 150

	// defaultComputeLimit is the gas budget of one artifact instruction.
	defaultComputeLimit = 200_000
)

// Config holds the simulated cluster parameters.
type Config struct {
	DataPath             string   // DataPath stores accounts on disk; empty keeps them in memory
	PayerLamports        uint64   // PayerLamports is the fee payer's starting balance
	LamportsPerSignature uint64   // LamportsPerSignature is the per-signature fee
	TransactionsPerSlot  uint64   // TransactionsPerSlot is the slot length in processed transactions
	MaxBlockhashAge      uint64   // MaxBlockhashAge is the blockhash lifetime in slots
	ComputeLimit         uint64   // ComputeLimit is the gas budget per artifact instruction
	ArtifactDirs         []string // ArtifactDirs are searched in order for <name>.wasm
	Rent                 Rent     // Rent is the rent schedule
}

// DefaultConfig returns the default cluster parameters.
func DefaultConfig() Config {
	return Config{
		PayerLamports:        defaultPayerLamports,
		LamportsPerSignature: defaultLamportsPerSignature,
		TransactionsPerSlot:  defaultTransactionsPerSlot,
		MaxBlockhashAge:      defaultMaxBlockhashAge,
		ComputeLimit:         defaultComputeLimit,
		Rent:                 DefaultRent(),
	}
}

// withDefaults fills zero fields from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()

	if c.PayerLamports == 0 {
		c.PayerLamports = d.PayerLamports
	}
	if c.TransactionsPerSlot == 0 {
		c.TransactionsPerSlot = d.TransactionsPerSlot
	}
	if c.MaxBlockhashAge == 0 {
		c.MaxBlockhashAge = d.MaxBlockhashAge
	}
	if c.ComputeLimit == 0 {
		c.ComputeLimit = d.ComputeLimit
	}
	if c.Rent.LamportsPerByteYear == 0 {
		c.Rent = d.Rent
	}

	return c
}
