package programtest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gagliardetto/solana-go"

	"Testlib/internal/logger"
	"Testlib/ledger"
)

// DefaultRefreshInterval is how many dispatches share one blockhash. It stays
// well inside the blockhash lifetime at the default slot length.
const DefaultRefreshInterval = 300

// ErrUnusedSigner is returned by Send when an additional signer is neither the
// payer nor a signer account of any instruction.
var ErrUnusedSigner = errors.New("signer not required by transaction")

// Dispatcher signs and submits transactions against a session. Every
// transaction carries a memo with a fresh nonce, so sending the same
// instructions twice executes them twice instead of hitting the runtime's
// duplicate check.
type Dispatcher struct {
	session   *ledger.Session
	blockhash solana.Hash      // blockhash is the recent blockhash new transactions are signed against
	nonce     uint64           // nonce is the next memo nonce; it only grows
	interval  uint64           // interval is the number of dispatches between blockhash refreshes
	lastSig   solana.Signature // lastSig identifies the latest submission
	log       *slog.Logger
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithRefreshInterval sets how many dispatches share one blockhash.
// Zero keeps the default.
func WithRefreshInterval(n uint64) DispatcherOption {
	return func(d *Dispatcher) {
		if n > 0 {
			d.interval = n
		}
	}
}

// NewDispatcher returns a dispatcher starting at nonce 0 with the session's
// latest blockhash.
func NewDispatcher(session *ledger.Session, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		session:   session,
		blockhash: session.LastBlockhash(),
		interval:  DefaultRefreshInterval,
		log:       logger.With("component", "dispatcher"),
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Nonce returns the nonce the next transaction will carry.
func (d *Dispatcher) Nonce() uint64 {
	return d.nonce
}

// Blockhash returns the blockhash the next transaction will be signed against.
func (d *Dispatcher) Blockhash() solana.Hash {
	return d.blockhash
}

// LastSignature returns the signature of the most recently submitted transaction.
func (d *Dispatcher) LastSignature() solana.Signature {
	return d.lastSig
}

// Send appends a nonce memo to instructions, signs with the session payer
// and additionalSigners, and submits the transaction. The caller's slice is
// not modified. The runtime's result is returned unchanged. An additional
// signer the transaction does not require fails with ErrUnusedSigner before
// the nonce advances.
func (d *Dispatcher) Send(ctx context.Context, instructions []solana.Instruction, additionalSigners ...solana.PrivateKey) error {
	payer := d.session.Payer()

	if err := checkSigners(payer.PublicKey(), instructions, additionalSigners); err != nil {
		return err
	}

	ixs := make([]solana.Instruction, len(instructions), len(instructions)+1)
	copy(ixs, instructions)
	ixs = append(ixs, memoInstruction(d.nonce))

	d.nonce++

	if d.nonce%d.interval == d.interval-1 {
		if err := d.Refresh(ctx); err != nil {
			return err
		}
	}

	d.trace(ixs)

	tx, err := solana.NewTransaction(ixs, d.blockhash, solana.TransactionPayer(payer.PublicKey()))
	if err != nil {
		return fmt.Errorf("build transaction:\n%w", err)
	}

	signers := append([]solana.PrivateKey{payer}, additionalSigners...)

	if _, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		for i := range signers {
			if signers[i].PublicKey().Equals(key) {
				return &signers[i]
			}
		}
		return nil
	}); err != nil {
		return fmt.Errorf("sign transaction:\n%w", err)
	}

	d.lastSig = tx.Signatures[0]

	return d.session.ProcessTransaction(ctx, tx)
}

// Refresh replaces the dispatcher's blockhash with a newer one.
func (d *Dispatcher) Refresh(ctx context.Context) error {
	hash, err := d.session.GetNewBlockhash(ctx, d.blockhash)
	if err != nil {
		return fmt.Errorf("refresh blockhash:\n%w", err)
	}

	d.log.Debug("blockhash refreshed", "nonce", d.nonce, "blockhash", hash)
	d.blockhash = hash

	return nil
}

// checkSigners reports the first of signers that is neither payer nor marked
// as a signer by one of instructions.
func checkSigners(payer solana.PublicKey, instructions []solana.Instruction, signers []solana.PrivateKey) error {
	if len(signers) == 0 {
		return nil
	}

	required := map[solana.PublicKey]struct{}{payer: {}}
	for _, ix := range instructions {
		for _, meta := range ix.Accounts() {
			if meta != nil && meta.IsSigner {
				required[meta.PublicKey] = struct{}{}
			}
		}
	}

	for _, signer := range signers {
		key := signer.PublicKey()
		if _, ok := required[key]; !ok {
			return fmt.Errorf("%w: %s", ErrUnusedSigner, key)
		}
	}

	return nil
}

// memoInstruction returns the side-effect free memo carrying nonce.
func memoInstruction(nonce uint64) solana.Instruction {
	return solana.NewInstruction(
		solana.MemoProgramID,
		solana.AccountMetaSlice{},
		[]byte(fmt.Sprintf("nonce=%d", nonce)),
	)
}

// trace logs every instruction and account at debug level.
func (d *Dispatcher) trace(ixs []solana.Instruction) {
	for i, ix := range ixs {
		d.log.Debug(fmt.Sprintf("Instruction #%d calls program %s.", i, ix.ProgramID()))

		for j, meta := range ix.Accounts() {
			flags := []byte("--")
			if meta.IsWritable {
				flags[0] = 'W'
			}
			if meta.IsSigner {
				flags[1] = 'S'
			}

			d.log.Debug(fmt.Sprintf("  Account %2d: [%s] %s", j, flags, meta.PublicKey))
		}
	}
}
