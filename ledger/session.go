package ledger

import (
	"context"
	"fmt"
	"sync"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"Testlib/internal/logger"
	"Testlib/internal/programvm"
	"Testlib/internal/storage"
)

// TransactionRecord is the outcome of a processed transaction.
type TransactionRecord struct {
	Signature   solana.Signature    // Signature is the first transaction signature
	Slot        uint64              // Slot is the slot the transaction landed in
	Fee         uint64              // Fee is the lamports charged to the payer
	Err         *TransactionError   // Err is nil when every instruction succeeded
	Logs        []string            // Logs are the runtime and program log lines
	Transaction *solana.Transaction // Transaction is the decoded transaction
}

// Session is a running simulated cluster. All methods are safe for concurrent
// use; transactions are processed one at a time in submission order.
type Session struct {
	mu sync.Mutex

	cfg         Config
	db          *storage.Storage
	accounts    *accountStore
	vm          *programvm.Pool // vm is nil until an artifact program is deployed
	payer       solana.PrivateKey
	blockhashes *blockhashQueue
	status      *statusCache
	programs    map[solana.PublicKey]*deployedProgram
	order       []ProgramRegistration
	history     map[solana.Signature]*TransactionRecord

	slot          uint64 // slot is the current slot
	slotProcessed uint64 // slotProcessed counts transactions executed in the current slot
	closed        bool
}

// Payer returns the funded fee payer keypair.
func (s *Session) Payer() solana.PrivateKey {
	return s.payer
}

// LastBlockhash returns the newest blockhash.
func (s *Session) LastBlockhash() solana.Hash {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.blockhashes.latest()
}

// Slot returns the current slot.
func (s *Session) Slot() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.slot
}

// Programs returns the deployed registrations in deployment order.
func (s *Session) Programs() []ProgramRegistration {
	out := make([]ProgramRegistration, len(s.order))
	copy(out, s.order)
	return out
}

// Rent returns the rent schedule.
func (s *Session) Rent() Rent {
	return s.cfg.Rent
}

// ProcessTransaction submits tx and waits for its result. The transaction
// crosses the same wire encoding a real cluster would see.
//
// A nil return means every instruction succeeded, or that an identical
// transaction was already processed. Failures are *TransportError.
func (s *Session) ProcessTransaction(ctx context.Context, tx *solana.Transaction) error {
	wire, err := tx.MarshalBinary()
	if err != nil {
		return ioFailure(fmt.Errorf("serialize transaction:\n%w", err))
	}

	return s.ProcessRaw(ctx, wire)
}

// ProcessRaw submits a wire-encoded transaction.
func (s *Session) ProcessRaw(ctx context.Context, wire []byte) error {
	if err := ctx.Err(); err != nil {
		return ioFailure(err)
	}

	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(wire))
	if err != nil {
		return ioFailure(fmt.Errorf("%w: %v", ErrMalformedTransaction, err))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ioFailure(ErrSessionClosed)
	}

	return s.process(ctx, tx)
}

// process runs the admission pipeline and executes tx. Callers hold mu.
func (s *Session) process(ctx context.Context, tx *solana.Transaction) error {
	msg, txErr := sanitize(tx)
	if txErr != nil {
		return txFailure(txErr)
	}

	if txErr := msg.verifySignatures(); txErr != nil {
		return txFailure(txErr)
	}

	blockhash := tx.Message.RecentBlockhash
	if !s.blockhashes.isValid(blockhash, s.slot) {
		return ioFailure(ErrTransactionTimeout)
	}

	sig := tx.Signatures[0]
	if s.status.contains(blockhash, sig) {
		logger.Debug("duplicate transaction ignored", "signature", sig)
		return nil
	}

	working, fee, txErr := s.loadAccounts(msg)
	if txErr != nil {
		return txFailure(txErr)
	}

	invocations, txErr := s.resolveInvocations(msg)
	if txErr != nil {
		return txFailure(txErr)
	}

	// The fee is charged even if an instruction fails.
	payerAfterFee := working[0].Clone()

	exec := &executor{
		msg:      msg,
		working:  working,
		vm:       s.vm,
		gasLimit: s.cfg.ComputeLimit,
	}

	execErr := exec.run(ctx, invocations)

	changes := map[solana.PublicKey]*Account{msg.keys[0]: payerAfterFee}
	if execErr == nil {
		for i, key := range msg.keys {
			if msg.writable[i] {
				changes[key] = working[i]
			}
		}
	}

	if err := s.accounts.commit(changes); err != nil {
		return ioFailure(err)
	}

	s.status.insert(blockhash, sig)
	s.history[sig] = &TransactionRecord{
		Signature:   sig,
		Slot:        s.slot,
		Fee:         fee,
		Err:         execErr,
		Logs:        exec.logs,
		Transaction: tx,
	}

	logger.Debug("transaction processed",
		"signature", sig,
		"slot", s.slot,
		"instructions", len(invocations),
		"ok", execErr == nil,
	)

	s.tick()

	if execErr != nil {
		return txFailure(execErr)
	}

	return nil
}

// loadAccounts reads every message key into a working set and charges the fee.
func (s *Session) loadAccounts(msg *loadedMessage) ([]*Account, uint64, *TransactionError) {
	payer, err := s.accounts.get(msg.keys[0])
	if err != nil {
		logger.Error("failed to load fee payer", "key", msg.keys[0], "error", err)
		return nil, 0, NewTransactionError(AccountNotFound)
	}

	if payer == nil {
		return nil, 0, NewTransactionError(AccountNotFound)
	}

	if !payer.Owner.Equals(solana.SystemProgramID) || len(payer.Data) > 0 {
		return nil, 0, NewTransactionError(InvalidAccountForFee)
	}

	fee := s.cfg.LamportsPerSignature * uint64(len(msg.tx.Signatures))
	if payer.Lamports < fee {
		return nil, 0, NewTransactionError(InsufficientFundsForFee)
	}

	payer.Lamports -= fee

	working := make([]*Account, len(msg.keys))
	working[0] = payer

	for i := 1; i < len(msg.keys); i++ {
		acc, err := s.accounts.get(msg.keys[i])
		if err != nil {
			logger.Error("failed to load account", "key", msg.keys[i], "error", err)
			return nil, 0, NewTransactionError(AccountNotFound)
		}

		if acc == nil {
			acc = &Account{Owner: solana.SystemProgramID}
		}

		working[i] = acc
	}

	return working, fee, nil
}

// resolveInvocations binds every instruction to a builtin or deployed program.
func (s *Session) resolveInvocations(msg *loadedMessage) ([]invocation, *TransactionError) {
	instructions := msg.tx.Message.Instructions
	out := make([]invocation, len(instructions))

	for i, ix := range instructions {
		id := msg.keys[ix.ProgramIDIndex]

		inv := invocation{
			programID: id,
			accounts:  ix.Accounts,
			data:      ix.Data,
		}

		if processor, ok := builtins[id]; ok {
			inv.processor = processor
			inv.name = builtinNames[id]
			out[i] = inv
			continue
		}

		p, ok := s.programs[id]
		if !ok {
			acc, err := s.accounts.get(id)
			if err != nil || acc == nil {
				return nil, NewTransactionError(ProgramAccountNotFound)
			}

			return nil, NewTransactionError(InvalidProgramForExecution)
		}

		inv.name = p.reg.Name
		if p.native() {
			inv.processor = p.reg.Processor
		}

		out[i] = inv
	}

	return out, nil
}

// tick counts an executed transaction and closes the slot when it is full.
func (s *Session) tick() {
	s.slotProcessed++
	if s.slotProcessed >= s.cfg.TransactionsPerSlot {
		s.advance(s.slot + 1)
	}
}

// advance moves to slot and produces its blockhash.
func (s *Session) advance(slot uint64) {
	s.slot = slot
	s.slotProcessed = 0

	s.blockhashes.register(nextBlockhash(s.blockhashes.latest(), slot), slot)
	s.status.purge(s.blockhashes)
}

// GetNewBlockhash returns a blockhash different from prev, closing the
// current slot if no newer one exists yet.
func (s *Session) GetNewBlockhash(ctx context.Context, prev solana.Hash) (solana.Hash, error) {
	if err := ctx.Err(); err != nil {
		return solana.Hash{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return solana.Hash{}, ErrSessionClosed
	}

	if latest := s.blockhashes.latest(); latest != prev {
		return latest, nil
	}

	s.advance(s.slot + 1)

	return s.blockhashes.latest(), nil
}

// WarpToSlot jumps the clock forward to slot. Blockhashes older than
// MaxBlockhashAge slots at the new slot stop being accepted.
func (s *Session) WarpToSlot(ctx context.Context, slot uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}

	if slot <= s.slot {
		return fmt.Errorf("%w: current %d, requested %d", ErrSlotInPast, s.slot, slot)
	}

	s.advance(slot)

	logger.Debug("warped", "slot", slot, "blockhash", s.blockhashes.latest())

	return nil
}

// GetAccount returns the account at key, or nil if none exists.
func (s *Session) GetAccount(ctx context.Context, key solana.PublicKey) (*Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrSessionClosed
	}

	return s.accounts.get(key)
}

// GetBalance returns the lamports at key; a missing account has zero.
func (s *Session) GetBalance(ctx context.Context, key solana.PublicKey) (uint64, error) {
	acc, err := s.GetAccount(ctx, key)
	if err != nil || acc == nil {
		return 0, err
	}

	return acc.Lamports, nil
}

// SetAccount overwrites the account at key outside of any transaction.
func (s *Session) SetAccount(ctx context.Context, key solana.PublicKey, acc Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}

	return s.accounts.set(key, acc.Clone())
}

// Transaction returns the record of a processed transaction.
func (s *Session) Transaction(sig solana.Signature) (*TransactionRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.history[sig]
	return rec, ok
}

// Close releases the account store and the VM. Further calls fail with ErrSessionClosed.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if s.vm != nil {
		s.vm.Close(context.Background())
	}

	return s.db.Close()
}
