package ledger

import (
	"github.com/gagliardetto/solana-go"
	"github.com/zeebo/blake3"
)

// statusCache tracks processed transactions to reject replays.
// A transaction is identified by its blockhash and first signature, and
// is forgotten once its blockhash can no longer be referenced.
type statusCache struct {
	seen map[[32]byte]solana.Hash // seen maps entry hash to the transaction's blockhash
}

// newStatusCache creates an empty status cache.
func newStatusCache() *statusCache {
	return &statusCache{seen: make(map[[32]byte]solana.Hash)}
}

// contains reports whether the transaction was already processed.
func (c *statusCache) contains(blockhash solana.Hash, sig solana.Signature) bool {
	_, ok := c.seen[statusKey(blockhash, sig)]
	return ok
}

// insert records a processed transaction.
func (c *statusCache) insert(blockhash solana.Hash, sig solana.Signature) {
	c.seen[statusKey(blockhash, sig)] = blockhash
}

// purge removes entries whose blockhash the queue no longer holds.
func (c *statusCache) purge(queue *blockhashQueue) {
	for key, blockhash := range c.seen {
		if _, ok := queue.slotOf(blockhash); !ok {
			delete(c.seen, key)
		}
	}
}

// len returns the number of tracked transactions.
func (c *statusCache) len() int {
	return len(c.seen)
}

// statusKey hashes blockhash and signature into one map key.
func statusKey(blockhash solana.Hash, sig solana.Signature) [32]byte {
	var buf [32 + 64]byte
	copy(buf[:32], blockhash[:])
	copy(buf[32:], sig[:])

	return blake3.Sum256(buf[:])
}
