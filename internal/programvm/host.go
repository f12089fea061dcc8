package programvm

import (
	"context"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

// execContext holds the execution state for a single program invocation.
type execContext struct {
	input        []byte // input is the FlatBuffers-encoded ProgramInput
	output       []byte // output is the FlatBuffers-encoded ProgramOutput
	gasLimit     uint64 // gasLimit is the maximum gas allowed
	gasUsed      uint64 // gasUsed tracks consumed gas
	gasExhausted bool   // gasExhausted is true if gas limit was exceeded
}

type execContextKey struct{}

// withExecContext attaches the invocation state read by host functions.
func withExecContext(ctx context.Context, execCtx *execContext) context.Context {
	return context.WithValue(ctx, execContextKey{}, execCtx)
}

// execContextFrom returns the invocation state, or nil outside Execute.
func execContextFrom(ctx context.Context) *execContext {
	execCtx, _ := ctx.Value(execContextKey{}).(*execContext)
	return execCtx
}

// buildHostModule instantiates the "env" module with host functions.
func buildHostModule(ctx context.Context, runtime wazero.Runtime) (api.Module, error) {
	return runtime.NewHostModuleBuilder("env").
		NewFunctionBuilder().
		WithFunc(func(ctx context.Context, cost uint32) {
			hostGas(execContextFrom(ctx), cost)
		}).
		Export("gas").
		NewFunctionBuilder().
		WithFunc(func(ctx context.Context) uint32 {
			return hostInputLen(execContextFrom(ctx))
		}).
		Export("input_len").
		NewFunctionBuilder().
		WithFunc(func(ctx context.Context, mod api.Module, ptr uint32) {
			hostReadInput(execContextFrom(ctx), mod.Memory(), ptr)
		}).
		Export("read_input").
		NewFunctionBuilder().
		WithFunc(func(ctx context.Context, mod api.Module, ptr, length uint32) {
			hostWriteOutput(execContextFrom(ctx), mod.Memory(), ptr, length)
		}).
		Export("write_output").
		Instantiate(ctx)
}

// hostGas handles gas metering.
// Panics if gas limit is exceeded to abort execution.
func hostGas(execCtx *execContext, cost uint32) {
	if execCtx == nil {
		return
	}

	execCtx.gasUsed += uint64(cost)

	if execCtx.gasUsed > execCtx.gasLimit {
		execCtx.gasExhausted = true
		panic("gas exhausted")
	}
}

// hostInputLen returns the length of the input buffer.
func hostInputLen(execCtx *execContext) uint32 {
	if execCtx == nil {
		return 0
	}

	return uint32(len(execCtx.input))
}

// hostReadInput copies the input buffer into guest memory at ptr.
func hostReadInput(execCtx *execContext, memory api.Memory, ptr uint32) {
	if execCtx == nil || memory == nil || len(execCtx.input) == 0 {
		return
	}

	if !memory.Write(ptr, execCtx.input) {
		panic("read_input out of bounds")
	}
}

// hostWriteOutput reads the output from guest memory and stores it.
func hostWriteOutput(execCtx *execContext, memory api.Memory, ptr, length uint32) {
	if execCtx == nil || memory == nil || length == 0 {
		return
	}

	data, ok := memory.Read(ptr, length)
	if !ok {
		panic("write_output out of bounds")
	}

	execCtx.output = make([]byte, length)
	copy(execCtx.output, data)
}
