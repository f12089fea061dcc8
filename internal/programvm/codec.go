package programvm

import (
	"errors"
	"fmt"

	flatbuffers "github.com/google/flatbuffers/go"
)

// ErrMalformedOutput is returned when a program writes an unreadable ProgramOutput.
var ErrMalformedOutput = errors.New("malformed program output")

// Account is one account handed to a program.
type Account struct {
	Key        [32]byte // Key is the account address
	IsSigner   bool     // IsSigner is true if the account signed the transaction
	IsWritable bool     // IsWritable is true if the program may modify the account
	Lamports   uint64   // Lamports is the balance
	Data       []byte   // Data is the account payload
	Owner      [32]byte // Owner is the owning program
	Executable bool     // Executable is true for program accounts
	RentEpoch  uint64   // RentEpoch is the next epoch rent is due
}

// Input is the decoded ProgramInput.
type Input struct {
	ProgramID [32]byte  // ProgramID is the invoked program
	Accounts  []Account // Accounts are the instruction accounts in order
	Data      []byte    // Data is the instruction data
}

// AccountUpdate is a program's post-state for the account at Index.
type AccountUpdate struct {
	Index    uint16    // Index points into Input.Accounts
	Lamports uint64    // Lamports is the new balance
	Data     []byte    // Data is the new payload; nil leaves it unchanged
	Owner    *[32]byte // Owner is the new owner; nil leaves it unchanged
}

// Output is the decoded ProgramOutput.
type Output struct {
	Error    uint32          // Error is the custom error code; zero is success
	Logs     []string        // Logs are program log lines
	Accounts []AccountUpdate // Accounts are the modified accounts
}

// EncodeInput serializes in as a ProgramInput buffer.
func EncodeInput(in *Input) []byte {
	builder := flatbuffers.NewBuilder(1024)

	accountOffsets := make([]flatbuffers.UOffsetT, len(in.Accounts))
	for i := range in.Accounts {
		acc := &in.Accounts[i]

		key := builder.CreateByteVector(acc.Key[:])
		data := builder.CreateByteVector(acc.Data)
		owner := builder.CreateByteVector(acc.Owner[:])

		AccountInputStart(builder)
		AccountInputAddKey(builder, key)
		AccountInputAddIsSigner(builder, acc.IsSigner)
		AccountInputAddIsWritable(builder, acc.IsWritable)
		AccountInputAddLamports(builder, acc.Lamports)
		AccountInputAddData(builder, data)
		AccountInputAddOwner(builder, owner)
		AccountInputAddExecutable(builder, acc.Executable)
		AccountInputAddRentEpoch(builder, acc.RentEpoch)
		accountOffsets[i] = AccountInputEnd(builder)
	}

	ProgramInputStartAccountsVector(builder, len(accountOffsets))
	for i := len(accountOffsets) - 1; i >= 0; i-- {
		builder.PrependUOffsetT(accountOffsets[i])
	}
	accounts := builder.EndVector(len(accountOffsets))

	programID := builder.CreateByteVector(in.ProgramID[:])
	data := builder.CreateByteVector(in.Data)

	ProgramInputStart(builder)
	ProgramInputAddProgramId(builder, programID)
	ProgramInputAddAccounts(builder, accounts)
	ProgramInputAddData(builder, data)
	builder.Finish(ProgramInputEnd(builder))

	return builder.FinishedBytes()
}

// DecodeInput parses a ProgramInput buffer.
func DecodeInput(buf []byte) (in *Input, err error) {
	defer recoverMalformed(&err)

	root := GetRootAsProgramInput(buf, 0)
	in = &Input{Data: cloneBytes(root.DataBytes())}

	if err := copyKey(&in.ProgramID, root.ProgramIdBytes()); err != nil {
		return nil, fmt.Errorf("program id:\n%w", err)
	}

	var acc AccountInput
	for i := 0; i < root.AccountsLength(); i++ {
		root.Accounts(&acc, i)

		decoded := Account{
			IsSigner:   acc.IsSigner(),
			IsWritable: acc.IsWritable(),
			Lamports:   acc.Lamports(),
			Data:       cloneBytes(acc.DataBytes()),
			Executable: acc.Executable(),
			RentEpoch:  acc.RentEpoch(),
		}

		if err := copyKey(&decoded.Key, acc.KeyBytes()); err != nil {
			return nil, fmt.Errorf("account %d key:\n%w", i, err)
		}

		if err := copyKey(&decoded.Owner, acc.OwnerBytes()); err != nil {
			return nil, fmt.Errorf("account %d owner:\n%w", i, err)
		}

		in.Accounts = append(in.Accounts, decoded)
	}

	return in, nil
}

// EncodeOutput serializes out as a ProgramOutput buffer.
func EncodeOutput(out *Output) []byte {
	builder := flatbuffers.NewBuilder(256)

	updateOffsets := make([]flatbuffers.UOffsetT, len(out.Accounts))
	for i := range out.Accounts {
		u := &out.Accounts[i]

		var data, owner flatbuffers.UOffsetT
		if u.Data != nil {
			data = builder.CreateByteVector(u.Data)
		}
		if u.Owner != nil {
			owner = builder.CreateByteVector(u.Owner[:])
		}

		AccountOutputStart(builder)
		AccountOutputAddIndex(builder, u.Index)
		AccountOutputAddLamports(builder, u.Lamports)
		if u.Data != nil {
			AccountOutputAddData(builder, data)
		}
		if u.Owner != nil {
			AccountOutputAddOwner(builder, owner)
		}
		updateOffsets[i] = AccountOutputEnd(builder)
	}

	ProgramOutputStartAccountsVector(builder, len(updateOffsets))
	for i := len(updateOffsets) - 1; i >= 0; i-- {
		builder.PrependUOffsetT(updateOffsets[i])
	}
	accounts := builder.EndVector(len(updateOffsets))

	logOffsets := make([]flatbuffers.UOffsetT, len(out.Logs))
	for i, line := range out.Logs {
		logOffsets[i] = builder.CreateString(line)
	}

	ProgramOutputStartLogsVector(builder, len(logOffsets))
	for i := len(logOffsets) - 1; i >= 0; i-- {
		builder.PrependUOffsetT(logOffsets[i])
	}
	logs := builder.EndVector(len(logOffsets))

	ProgramOutputStart(builder)
	ProgramOutputAddError(builder, out.Error)
	ProgramOutputAddLogs(builder, logs)
	ProgramOutputAddAccounts(builder, accounts)
	builder.Finish(ProgramOutputEnd(builder))

	return builder.FinishedBytes()
}

// DecodeOutput parses a ProgramOutput buffer.
// An empty buffer is a successful run that changed nothing.
func DecodeOutput(buf []byte) (out *Output, err error) {
	if len(buf) == 0 {
		return &Output{}, nil
	}

	if len(buf) < flatbuffers.SizeUOffsetT {
		return nil, ErrMalformedOutput
	}

	defer recoverMalformed(&err)

	root := GetRootAsProgramOutput(buf, 0)
	out = &Output{Error: root.Error()}

	for i := 0; i < root.LogsLength(); i++ {
		out.Logs = append(out.Logs, string(root.Logs(i)))
	}

	var acc AccountOutput
	for i := 0; i < root.AccountsLength(); i++ {
		root.Accounts(&acc, i)

		update := AccountUpdate{
			Index:    acc.Index(),
			Lamports: acc.Lamports(),
			Data:     cloneBytes(acc.DataBytes()),
		}

		if raw := acc.OwnerBytes(); raw != nil {
			var owner [32]byte
			if err := copyKey(&owner, raw); err != nil {
				return nil, fmt.Errorf("update %d owner:\n%w", i, err)
			}
			update.Owner = &owner
		}

		out.Accounts = append(out.Accounts, update)
	}

	return out, nil
}

// recoverMalformed turns an out-of-range read into ErrMalformedOutput.
func recoverMalformed(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("%w: %v", ErrMalformedOutput, r)
	}
}

// copyKey copies a 32-byte vector into dst.
func copyKey(dst *[32]byte, src []byte) error {
	if len(src) != 32 {
		return fmt.Errorf("expected 32 bytes, got %d", len(src))
	}

	copy(dst[:], src)
	return nil
}

// cloneBytes detaches b from the FlatBuffers buffer, keeping nil distinct from empty.
func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}

	out := make([]byte, len(b))
	copy(out, b)
	return out
}
