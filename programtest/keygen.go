package programtest

import (
	"crypto/ed25519"
	"encoding/binary"
	"math/bits"

	"github.com/gagliardetto/solana-go"
	"golang.org/x/crypto/chacha20"
)

const (
	// pcgMultiplier and pcgIncrement expand a u64 seed into a ChaCha key.
	pcgMultiplier = 6364136223846793005
	pcgIncrement  = 11634580027462260723
)

// DeterministicKeypairGen yields the same keypair sequence on every run and
// machine. The K-th keypair of a seed never changes; fixtures depend on it.
type DeterministicKeypairGen struct {
	stream *chacha20.Cipher // stream is the ChaCha20 keystream keypair seeds are cut from
	count  uint64           // count is the number of keypairs produced
}

// NewDeterministicKeypairGen returns a generator seeded with 0.
func NewDeterministicKeypairGen() *DeterministicKeypairGen {
	return NewDeterministicKeypairGenFromSeed(0)
}

// NewDeterministicKeypairGenFromSeed returns a generator for an independent
// stream. Two generators with the same seed produce the same keypairs.
func NewDeterministicKeypairGenFromSeed(seed uint64) *DeterministicKeypairGen {
	key := expandSeed(seed)
	nonce := make([]byte, chacha20.NonceSize)

	// Key and nonce sizes are fixed, so construction cannot fail.
	stream, err := chacha20.NewUnauthenticatedCipher(key[:], nonce)
	if err != nil {
		panic(err)
	}

	return &DeterministicKeypairGen{stream: stream}
}

// NewKeypair consumes 32 bytes of the stream and derives an ed25519 keypair from them.
func (g *DeterministicKeypairGen) NewKeypair() solana.PrivateKey {
	seed := make([]byte, ed25519.SeedSize)
	g.stream.XORKeyStream(seed, seed)
	g.count++

	return solana.PrivateKey(ed25519.NewKeyFromSeed(seed))
}

// Count returns how many keypairs the generator has produced.
func (g *DeterministicKeypairGen) Count() uint64 {
	return g.count
}

// expandSeed fills a 32-byte key with PCG32 outputs, one little-endian word at a time.
func expandSeed(state uint64) [chacha20.KeySize]byte {
	var key [chacha20.KeySize]byte

	for i := 0; i < len(key); i += 4 {
		state = state*pcgMultiplier + pcgIncrement

		xorshifted := uint32(((state >> 18) ^ state) >> 27)
		rot := int(state >> 59)

		binary.LittleEndian.PutUint32(key[i:], bits.RotateLeft32(xorshifted, -rot))
	}

	return key
}
