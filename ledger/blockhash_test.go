package ledger

import (
	"testing"

	"github.com/gagliardetto/solana-go"
)

func TestNextBlockhashIsDeterministic(t *testing.T) {
	g := genesisBlockhash()

	if nextBlockhash(g, 1) != nextBlockhash(g, 1) {
		t.Fatal("same inputs gave different hashes")
	}

	if nextBlockhash(g, 1) == nextBlockhash(g, 2) {
		t.Fatal("slot does not affect the hash")
	}
}

// TestBlockhashQueueExpiry verifies hashes expire after maxAge slots.
func TestBlockhashQueueExpiry(t *testing.T) {
	g := genesisBlockhash()
	q := newBlockhashQueue(g, 3)

	h1 := nextBlockhash(g, 1)
	q.register(h1, 1)

	if !q.isValid(g, 3) || !q.isValid(h1, 3) {
		t.Fatal("recent hashes should be valid at slot 3")
	}

	if q.isValid(g, 4) {
		t.Fatal("genesis should expire at slot 4")
	}

	if !q.isValid(h1, 4) || q.isValid(h1, 5) {
		t.Fatal("h1 validity window wrong")
	}

	h5 := nextBlockhash(h1, 5)
	q.register(h5, 5)

	for _, h := range []solana.Hash{g, h1} {
		if _, ok := q.slotOf(h); ok {
			t.Errorf("%s not evicted", h)
		}
	}

	if q.latest() != h5 {
		t.Errorf("latest = %s, want %s", q.latest(), h5)
	}

	if q.isValid(solana.Hash{9}, 5) {
		t.Error("unknown hash reported valid")
	}
}

// TestBlockhashQueueKeepsLatest verifies a long warp never empties the queue.
func TestBlockhashQueueKeepsLatest(t *testing.T) {
	g := genesisBlockhash()
	q := newBlockhashQueue(g, 2)

	h := nextBlockhash(g, 1000)
	q.register(h, 1000)

	if len(q.order) != 1 || q.latest() != h || !q.isValid(h, 1000) {
		t.Fatalf("queue after warp = %v", q.order)
	}
}

// TestStatusCachePurge verifies entries leave with their blockhash.
func TestStatusCachePurge(t *testing.T) {
	g := genesisBlockhash()
	q := newBlockhashQueue(g, 1)
	c := newStatusCache()

	sig := solana.Signature{1}
	c.insert(g, sig)

	if !c.contains(g, sig) {
		t.Fatal("inserted entry missing")
	}

	if c.contains(nextBlockhash(g, 1), sig) {
		t.Fatal("same signature under another blockhash reported seen")
	}

	q.register(nextBlockhash(g, 1), 1)
	c.purge(q)
	if c.len() != 1 {
		t.Fatalf("entry purged while its blockhash is still queued")
	}

	q.register(nextBlockhash(g, 2), 2)
	c.purge(q)
	if c.len() != 0 {
		t.Fatalf("entry kept after its blockhash expired")
	}
}

func TestRentMinimumBalance(t *testing.T) {
	r := DefaultRent()

	if got := r.MinimumBalance(0); got != 890880 {
		t.Errorf("MinimumBalance(0) = %d, want 890880", got)
	}

	if got := r.MinimumBalance(165); got != 2039280 {
		t.Errorf("MinimumBalance(165) = %d, want 2039280", got)
	}
}
