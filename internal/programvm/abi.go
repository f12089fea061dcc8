package programvm

import (
	flatbuffers "github.com/google/flatbuffers/go"
)

// The ABI between the ledger and artifact programs is four FlatBuffers tables:
//
//	table AccountInput  { key:[ubyte]; is_signer:bool; is_writable:bool; lamports:ulong;
//	                      data:[ubyte]; owner:[ubyte]; executable:bool; rent_epoch:ulong; }
//	table ProgramInput  { program_id:[ubyte]; accounts:[AccountInput]; data:[ubyte]; }
//	table AccountOutput { index:ushort; lamports:ulong; data:[ubyte]; owner:[ubyte]; }
//	table ProgramOutput { error:uint; logs:[string]; accounts:[AccountOutput]; }
//	root_type ProgramInput;

// AccountInput is one account passed to a program.
type AccountInput struct {
	_tab flatbuffers.Table
}

// Init binds the table to buf at position i.
func (rcv *AccountInput) Init(buf []byte, i flatbuffers.UOffsetT) {
	rcv._tab.Bytes = buf
	rcv._tab.Pos = i
}

func (rcv *AccountInput) KeyBytes() []byte {
	return byteVector(&rcv._tab, 4)
}

func (rcv *AccountInput) IsSigner() bool {
	return boolField(&rcv._tab, 6)
}

func (rcv *AccountInput) IsWritable() bool {
	return boolField(&rcv._tab, 8)
}

func (rcv *AccountInput) Lamports() uint64 {
	return uint64Field(&rcv._tab, 10)
}

func (rcv *AccountInput) DataBytes() []byte {
	return byteVector(&rcv._tab, 12)
}

func (rcv *AccountInput) OwnerBytes() []byte {
	return byteVector(&rcv._tab, 14)
}

func (rcv *AccountInput) Executable() bool {
	return boolField(&rcv._tab, 16)
}

func (rcv *AccountInput) RentEpoch() uint64 {
	return uint64Field(&rcv._tab, 18)
}

func AccountInputStart(builder *flatbuffers.Builder) {
	builder.StartObject(8)
}

func AccountInputAddKey(builder *flatbuffers.Builder, key flatbuffers.UOffsetT) {
	builder.PrependUOffsetTSlot(0, key, 0)
}

func AccountInputAddIsSigner(builder *flatbuffers.Builder, isSigner bool) {
	builder.PrependBoolSlot(1, isSigner, false)
}

func AccountInputAddIsWritable(builder *flatbuffers.Builder, isWritable bool) {
	builder.PrependBoolSlot(2, isWritable, false)
}

func AccountInputAddLamports(builder *flatbuffers.Builder, lamports uint64) {
	builder.PrependUint64Slot(3, lamports, 0)
}

func AccountInputAddData(builder *flatbuffers.Builder, data flatbuffers.UOffsetT) {
	builder.PrependUOffsetTSlot(4, data, 0)
}

func AccountInputAddOwner(builder *flatbuffers.Builder, owner flatbuffers.UOffsetT) {
	builder.PrependUOffsetTSlot(5, owner, 0)
}

func AccountInputAddExecutable(builder *flatbuffers.Builder, executable bool) {
	builder.PrependBoolSlot(6, executable, false)
}

func AccountInputAddRentEpoch(builder *flatbuffers.Builder, rentEpoch uint64) {
	builder.PrependUint64Slot(7, rentEpoch, 0)
}

func AccountInputEnd(builder *flatbuffers.Builder) flatbuffers.UOffsetT {
	return builder.EndObject()
}

// ProgramInput is the root table handed to a program's execute export.
type ProgramInput struct {
	_tab flatbuffers.Table
}

// GetRootAsProgramInput reads a ProgramInput from the start of buf.
func GetRootAsProgramInput(buf []byte, offset flatbuffers.UOffsetT) *ProgramInput {
	n := flatbuffers.GetUOffsetT(buf[offset:])
	x := &ProgramInput{}
	x.Init(buf, n+offset)
	return x
}

// Init binds the table to buf at position i.
func (rcv *ProgramInput) Init(buf []byte, i flatbuffers.UOffsetT) {
	rcv._tab.Bytes = buf
	rcv._tab.Pos = i
}

func (rcv *ProgramInput) ProgramIdBytes() []byte {
	return byteVector(&rcv._tab, 4)
}

func (rcv *ProgramInput) Accounts(obj *AccountInput, j int) bool {
	return tableAt(&rcv._tab, 6, j, func(buf []byte, pos flatbuffers.UOffsetT) { obj.Init(buf, pos) })
}

func (rcv *ProgramInput) AccountsLength() int {
	return vectorLen(&rcv._tab, 6)
}

func (rcv *ProgramInput) DataBytes() []byte {
	return byteVector(&rcv._tab, 8)
}

func ProgramInputStart(builder *flatbuffers.Builder) {
	builder.StartObject(3)
}

func ProgramInputAddProgramId(builder *flatbuffers.Builder, programID flatbuffers.UOffsetT) {
	builder.PrependUOffsetTSlot(0, programID, 0)
}

func ProgramInputAddAccounts(builder *flatbuffers.Builder, accounts flatbuffers.UOffsetT) {
	builder.PrependUOffsetTSlot(1, accounts, 0)
}

func ProgramInputStartAccountsVector(builder *flatbuffers.Builder, numElems int) flatbuffers.UOffsetT {
	return builder.StartVector(4, numElems, 4)
}

func ProgramInputAddData(builder *flatbuffers.Builder, data flatbuffers.UOffsetT) {
	builder.PrependUOffsetTSlot(2, data, 0)
}

func ProgramInputEnd(builder *flatbuffers.Builder) flatbuffers.UOffsetT {
	return builder.EndObject()
}

// AccountOutput is the post-state of one input account, addressed by index.
type AccountOutput struct {
	_tab flatbuffers.Table
}

// Init binds the table to buf at position i.
func (rcv *AccountOutput) Init(buf []byte, i flatbuffers.UOffsetT) {
	rcv._tab.Bytes = buf
	rcv._tab.Pos = i
}

func (rcv *AccountOutput) Index() uint16 {
	o := flatbuffers.UOffsetT(rcv._tab.Offset(4))
	if o != 0 {
		return rcv._tab.GetUint16(o + rcv._tab.Pos)
	}
	return 0
}

func (rcv *AccountOutput) Lamports() uint64 {
	return uint64Field(&rcv._tab, 6)
}

func (rcv *AccountOutput) DataBytes() []byte {
	return byteVector(&rcv._tab, 8)
}

func (rcv *AccountOutput) OwnerBytes() []byte {
	return byteVector(&rcv._tab, 10)
}

func AccountOutputStart(builder *flatbuffers.Builder) {
	builder.StartObject(4)
}

func AccountOutputAddIndex(builder *flatbuffers.Builder, index uint16) {
	builder.PrependUint16Slot(0, index, 0)
}

func AccountOutputAddLamports(builder *flatbuffers.Builder, lamports uint64) {
	builder.PrependUint64Slot(1, lamports, 0)
}

func AccountOutputAddData(builder *flatbuffers.Builder, data flatbuffers.UOffsetT) {
	builder.PrependUOffsetTSlot(2, data, 0)
}

func AccountOutputAddOwner(builder *flatbuffers.Builder, owner flatbuffers.UOffsetT) {
	builder.PrependUOffsetTSlot(3, owner, 0)
}

func AccountOutputEnd(builder *flatbuffers.Builder) flatbuffers.UOffsetT {
	return builder.EndObject()
}

// ProgramOutput is the root table a program writes back through write_output.
type ProgramOutput struct {
	_tab flatbuffers.Table
}

// GetRootAsProgramOutput reads a ProgramOutput from the start of buf.
func GetRootAsProgramOutput(buf []byte, offset flatbuffers.UOffsetT) *ProgramOutput {
	n := flatbuffers.GetUOffsetT(buf[offset:])
	x := &ProgramOutput{}
	x.Init(buf, n+offset)
	return x
}

// Init binds the table to buf at position i.
func (rcv *ProgramOutput) Init(buf []byte, i flatbuffers.UOffsetT) {
	rcv._tab.Bytes = buf
	rcv._tab.Pos = i
}

// Error is the custom error code; zero means success.
func (rcv *ProgramOutput) Error() uint32 {
	o := flatbuffers.UOffsetT(rcv._tab.Offset(4))
	if o != 0 {
		return rcv._tab.GetUint32(o + rcv._tab.Pos)
	}
	return 0
}

func (rcv *ProgramOutput) Logs(j int) []byte {
	o := flatbuffers.UOffsetT(rcv._tab.Offset(6))
	if o != 0 {
		a := rcv._tab.Vector(o)
		return rcv._tab.ByteVector(a + flatbuffers.UOffsetT(j*4))
	}
	return nil
}

func (rcv *ProgramOutput) LogsLength() int {
	return vectorLen(&rcv._tab, 6)
}

func (rcv *ProgramOutput) Accounts(obj *AccountOutput, j int) bool {
	return tableAt(&rcv._tab, 8, j, func(buf []byte, pos flatbuffers.UOffsetT) { obj.Init(buf, pos) })
}

func (rcv *ProgramOutput) AccountsLength() int {
	return vectorLen(&rcv._tab, 8)
}

func ProgramOutputStart(builder *flatbuffers.Builder) {
	builder.StartObject(3)
}

func ProgramOutputAddError(builder *flatbuffers.Builder, code uint32) {
	builder.PrependUint32Slot(0, code, 0)
}

func ProgramOutputAddLogs(builder *flatbuffers.Builder, logs flatbuffers.UOffsetT) {
	builder.PrependUOffsetTSlot(1, logs, 0)
}

func ProgramOutputStartLogsVector(builder *flatbuffers.Builder, numElems int) flatbuffers.UOffsetT {
	return builder.StartVector(4, numElems, 4)
}

func ProgramOutputAddAccounts(builder *flatbuffers.Builder, accounts flatbuffers.UOffsetT) {
	builder.PrependUOffsetTSlot(2, accounts, 0)
}

func ProgramOutputStartAccountsVector(builder *flatbuffers.Builder, numElems int) flatbuffers.UOffsetT {
	return builder.StartVector(4, numElems, 4)
}

func ProgramOutputEnd(builder *flatbuffers.Builder) flatbuffers.UOffsetT {
	return builder.EndObject()
}

// byteVector returns the [ubyte] field at vtable offset slot, or nil.
func byteVector(tab *flatbuffers.Table, slot flatbuffers.VOffsetT) []byte {
	o := flatbuffers.UOffsetT(tab.Offset(slot))
	if o != 0 {
		return tab.ByteVector(o + tab.Pos)
	}
	return nil
}

// boolField returns the bool field at vtable offset slot, or false.
func boolField(tab *flatbuffers.Table, slot flatbuffers.VOffsetT) bool {
	o := flatbuffers.UOffsetT(tab.Offset(slot))
	if o != 0 {
		return tab.GetBool(o + tab.Pos)
	}
	return false
}

// uint64Field returns the ulong field at vtable offset slot, or 0.
func uint64Field(tab *flatbuffers.Table, slot flatbuffers.VOffsetT) uint64 {
	o := flatbuffers.UOffsetT(tab.Offset(slot))
	if o != 0 {
		return tab.GetUint64(o + tab.Pos)
	}
	return 0
}

// vectorLen returns the length of the vector field at slot, or 0.
func vectorLen(tab *flatbuffers.Table, slot flatbuffers.VOffsetT) int {
	o := flatbuffers.UOffsetT(tab.Offset(slot))
	if o != 0 {
		return tab.VectorLen(o)
	}
	return 0
}

// tableAt binds the j-th table of the vector field at slot through init.
func tableAt(tab *flatbuffers.Table, slot flatbuffers.VOffsetT, j int, init func([]byte, flatbuffers.UOffsetT)) bool {
	o := flatbuffers.UOffsetT(tab.Offset(slot))
	if o == 0 {
		return false
	}

	x := tab.Vector(o)
	x += flatbuffers.UOffsetT(j) * 4
	x = tab.Indirect(x)
	init(tab.Bytes, x)

	return true
}
