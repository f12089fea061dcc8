package ledger

const (
	// accountStorageOverhead is the byte overhead charged for every account.
	accountStorageOverhead = 128
)

// Rent is the rent schedule of the simulated cluster.
type Rent struct {
	LamportsPerByteYear uint64  // LamportsPerByteYear is the yearly cost of one byte
	ExemptionThreshold  float64 // ExemptionThreshold is the years of rent that make an account exempt
}

// DefaultRent returns the mainnet rent schedule.
func DefaultRent() Rent {
	return Rent{
		LamportsPerByteYear: 3480,
		ExemptionThreshold:  2.0,
	}
}

// MinimumBalance returns the lamports that make an account of dataLen bytes rent exempt.
func (r Rent) MinimumBalance(dataLen int) uint64 {
	bytes := uint64(accountStorageOverhead + dataLen)
	return uint64(float64(bytes*r.LamportsPerByteYear) * r.ExemptionThreshold)
}
