package ledger

import (
	"encoding/binary"

	"github.com/gagliardetto/solana-go"
	"github.com/zeebo/blake3"
)

// genesisSeed is hashed to produce the first blockhash.
const genesisSeed = "programtest genesis"

// genesisBlockhash returns the blockhash of slot zero.
func genesisBlockhash() solana.Hash {
	return solana.Hash(blake3.Sum256([]byte(genesisSeed)))
}

// nextBlockhash chains a new blockhash from the previous one and the slot.
func nextBlockhash(prev solana.Hash, slot uint64) solana.Hash {
	var buf [40]byte
	copy(buf[:32], prev[:])
	binary.LittleEndian.PutUint64(buf[32:], slot)

	return solana.Hash(blake3.Sum256(buf[:]))
}

// blockhashQueue tracks the recent blockhashes a transaction may reference.
type blockhashQueue struct {
	slots  map[solana.Hash]uint64 // slots maps hash to the slot it was produced in
	order  []solana.Hash          // order lists hashes oldest first
	maxAge uint64                 // maxAge is how many slots a hash stays valid
}

// newBlockhashQueue creates a queue holding only genesis.
func newBlockhashQueue(genesis solana.Hash, maxAge uint64) *blockhashQueue {
	q := &blockhashQueue{
		slots:  make(map[solana.Hash]uint64),
		maxAge: maxAge,
	}

	q.register(genesis, 0)

	return q
}

// register records hash as produced at slot and evicts expired hashes.
func (q *blockhashQueue) register(hash solana.Hash, slot uint64) {
	q.slots[hash] = slot
	q.order = append(q.order, hash)

	for len(q.order) > 1 && !q.fresh(q.slots[q.order[0]], slot) {
		delete(q.slots, q.order[0])
		q.order = q.order[1:]
	}
}

// isValid reports whether hash is recent enough at slot.
func (q *blockhashQueue) isValid(hash solana.Hash, slot uint64) bool {
	produced, ok := q.slots[hash]
	return ok && q.fresh(produced, slot)
}

// slotOf returns the slot hash was produced in.
func (q *blockhashQueue) slotOf(hash solana.Hash) (uint64, bool) {
	slot, ok := q.slots[hash]
	return slot, ok
}

// latest returns the newest hash.
func (q *blockhashQueue) latest() solana.Hash {
	return q.order[len(q.order)-1]
}

func (q *blockhashQueue) fresh(produced, now uint64) bool {
	return now-produced <= q.maxAge
}
