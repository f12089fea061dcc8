package ledger

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"errors"
	"fmt"
	"math/bits"

	"github.com/gagliardetto/solana-go"

	"Testlib/internal/logger"
	"Testlib/internal/programvm"
)

// loadedMessage is a sanitized transaction with its account flags resolved.
type loadedMessage struct {
	tx       *solana.Transaction
	payload  []byte             // payload is the serialized message, the signed bytes
	keys     []solana.PublicKey // keys are the message account keys
	signer   []bool             // signer marks keys that must sign
	writable []bool             // writable marks keys the message may modify
}

// sanitize checks the message layout and resolves signer and writable flags.
func sanitize(tx *solana.Transaction) (*loadedMessage, *TransactionError) {
	msg := &tx.Message
	h := msg.Header
	n := len(msg.AccountKeys)

	numSigners := int(h.NumRequiredSignatures)
	if numSigners == 0 || numSigners > n {
		return nil, NewTransactionError(SanitizeFailure)
	}

	if int(h.NumReadonlySignedAccounts) >= numSigners {
		return nil, NewTransactionError(SanitizeFailure)
	}

	if int(h.NumReadonlyUnsignedAccounts) > n-numSigners {
		return nil, NewTransactionError(SanitizeFailure)
	}

	if len(tx.Signatures) != numSigners {
		return nil, NewTransactionError(SanitizeFailure)
	}

	if len(msg.AddressTableLookups) > 0 {
		return nil, NewTransactionError(SanitizeFailure)
	}

	seen := make(map[solana.PublicKey]struct{}, n)
	for _, key := range msg.AccountKeys {
		if _, dup := seen[key]; dup {
			return nil, NewTransactionError(AccountLoadedTwice)
		}
		seen[key] = struct{}{}
	}

	for _, ix := range msg.Instructions {
		if int(ix.ProgramIDIndex) >= n || ix.ProgramIDIndex == 0 {
			return nil, NewTransactionError(SanitizeFailure)
		}

		for _, idx := range ix.Accounts {
			if int(idx) >= n {
				return nil, NewTransactionError(SanitizeFailure)
			}
		}
	}

	payload, err := msg.MarshalBinary()
	if err != nil {
		return nil, NewTransactionError(SanitizeFailure)
	}

	loaded := &loadedMessage{
		tx:       tx,
		payload:  payload,
		keys:     msg.AccountKeys,
		signer:   make([]bool, n),
		writable: make([]bool, n),
	}

	for i := 0; i < n; i++ {
		if i < numSigners {
			loaded.signer[i] = true
			loaded.writable[i] = i < numSigners-int(h.NumReadonlySignedAccounts)
		} else {
			loaded.writable[i] = i < n-int(h.NumReadonlyUnsignedAccounts)
		}
	}

	return loaded, nil
}

// verifySignatures checks every signature against its signer key.
func (m *loadedMessage) verifySignatures() *TransactionError {
	for i, sig := range m.tx.Signatures {
		key := m.keys[i]
		if !ed25519.Verify(key[:], m.payload, sig[:]) {
			return NewTransactionError(SignatureFailure)
		}
	}

	return nil
}

// invocation is one resolved instruction of a transaction.
type invocation struct {
	programID solana.PublicKey // programID is the invoked program
	processor Processor        // processor is nil for artifact programs
	name      string           // name is the registration or builtin name
	accounts  []uint16         // accounts index into the message keys
	data      []byte           // data is the instruction payload
}

// executor runs the instructions of one transaction against a working set.
type executor struct {
	msg      *loadedMessage
	working  []*Account // working holds one mutable copy per message key
	vm       *programvm.Pool
	gasLimit uint64
	logs     []string
}

// run executes the invocations in order and stops at the first failure.
func (e *executor) run(ctx context.Context, invocations []invocation) *TransactionError {
	for i := range invocations {
		inv := &invocations[i]
		e.logf("Program %s invoke [1]", inv.programID)

		if err := e.execute(ctx, inv); err != nil {
			e.logf("Program %s failed: %s", inv.programID, err)
			return InstructionErrorAt(i, err)
		}

		e.logf("Program %s success", inv.programID)
	}

	return nil
}

// execute runs one instruction and enforces the account rules on its result.
func (e *executor) execute(ctx context.Context, inv *invocation) *InstructionError {
	infos := make([]*AccountInfo, len(inv.accounts))
	for i, idx := range inv.accounts {
		infos[i] = NewAccountInfo(&e.msg.keys[idx], e.msg.signer[idx], e.msg.writable[idx], e.working[idx])
	}

	unique := uniqueIndices(inv.accounts)
	pre := make(map[uint16]*Account, len(unique))
	for _, idx := range unique {
		pre[idx] = e.working[idx].Clone()
	}

	var err *InstructionError
	if inv.processor != nil {
		err = callProcessor(inv, infos)
	} else {
		err = e.callArtifact(ctx, inv, infos)
	}

	if err != nil {
		return err
	}

	return e.verify(inv.programID, unique, pre)
}

// callProcessor runs a native processor, turning a panic into a failed program.
func callProcessor(inv *invocation, infos []*AccountInfo) (ierr *InstructionError) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("program panicked", "program", inv.name, "panic", r)
			ierr = NewInstructionError(ProgramFailedToComplete)
		}
	}()

	if err := inv.processor(inv.programID, infos, inv.data); err != nil {
		return instructionErrorFrom(err)
	}

	return nil
}

// callArtifact runs an artifact program in the VM and applies its account updates.
func (e *executor) callArtifact(ctx context.Context, inv *invocation, infos []*AccountInfo) *InstructionError {
	input := &programvm.Input{ProgramID: inv.programID, Data: inv.data}
	for _, info := range infos {
		input.Accounts = append(input.Accounts, programvm.Account{
			Key:        *info.Key,
			IsSigner:   info.IsSigner,
			IsWritable: info.IsWritable,
			Lamports:   *info.Lamports,
			Data:       *info.Data,
			Owner:      *info.Owner,
			Executable: info.Executable,
			RentEpoch:  info.RentEpoch,
		})
	}

	raw, used, err := e.vm.Execute(ctx, inv.programID, programvm.EncodeInput(input), e.gasLimit)
	e.logf("Program %s consumed %d of %d compute units", inv.programID, used, e.gasLimit)

	if errors.Is(err, programvm.ErrGasExhausted) {
		return NewInstructionError(ComputationalBudgetExceeded)
	}

	if err != nil {
		logger.Debug("artifact execution failed", "program", inv.name, "error", err)
		return NewInstructionError(ProgramFailedToComplete)
	}

	out, err := programvm.DecodeOutput(raw)
	if err != nil {
		logger.Debug("artifact output rejected", "program", inv.name, "error", err)
		return NewInstructionError(ProgramFailedToComplete)
	}

	for _, line := range out.Logs {
		e.logf("Program log: %s", line)
	}

	if out.Error != 0 {
		return Custom(out.Error)
	}

	for _, u := range out.Accounts {
		if int(u.Index) >= len(infos) {
			return NewInstructionError(NotEnoughAccountKeys)
		}

		info := infos[u.Index]
		*info.Lamports = u.Lamports

		if u.Data != nil {
			*info.Data = u.Data
		}

		if u.Owner != nil {
			*info.Owner = solana.PublicKey(*u.Owner)
		}
	}

	return nil
}

// verify enforces the post-instruction account rules.
func (e *executor) verify(programID solana.PublicKey, unique []uint16, pre map[uint16]*Account) *InstructionError {
	var preHi, preLo, postHi, postLo uint64

	for _, idx := range unique {
		before, after := pre[idx], e.working[idx]

		lamportsChanged := before.Lamports != after.Lamports
		dataChanged := !bytes.Equal(before.Data, after.Data)
		ownerChanged := !before.Owner.Equals(after.Owner)

		if before.Executable && (lamportsChanged || dataChanged || ownerChanged) {
			return NewInstructionError(ExecutableModified)
		}

		if !e.msg.writable[idx] {
			switch {
			case lamportsChanged:
				return NewInstructionError(ReadonlyLamportChange)
			case dataChanged:
				return NewInstructionError(ReadonlyDataModified)
			case ownerChanged:
				return NewInstructionError(ModifiedProgramID)
			}
		}

		owned := before.Owner.Equals(programID)

		if ownerChanged && (!owned || !isZeroed(after.Data)) {
			return NewInstructionError(ModifiedProgramID)
		}

		if !owned && dataChanged {
			return NewInstructionError(ExternalAccountDataModified)
		}

		if !owned && after.Lamports < before.Lamports {
			return NewInstructionError(ExternalAccountLamportSpend)
		}

		var carry uint64
		preLo, carry = bits.Add64(preLo, before.Lamports, 0)
		preHi += carry
		postLo, carry = bits.Add64(postLo, after.Lamports, 0)
		postHi += carry
	}

	if preHi != postHi || preLo != postLo {
		return NewInstructionError(UnbalancedInstruction)
	}

	return nil
}

func (e *executor) logf(format string, args ...any) {
	e.logs = append(e.logs, fmt.Sprintf(format, args...))
}

// uniqueIndices returns idx without repeats, in first-seen order.
func uniqueIndices(idx []uint16) []uint16 {
	out := make([]uint16, 0, len(idx))
	seen := make(map[uint16]struct{}, len(idx))

	for _, i := range idx {
		if _, ok := seen[i]; ok {
			continue
		}
		seen[i] = struct{}{}
		out = append(out, i)
	}

	return out
}

// isZeroed reports whether data holds only zero bytes.
func isZeroed(data []byte) bool {
	for _, b := range data {
		if b != 0 {
			return false
		}
	}
	return true
}
