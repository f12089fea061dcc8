package programvm

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/zeebo/blake3"
)

var (
	// ErrModuleNotFound is returned when a program ID is not loaded in the pool.
	ErrModuleNotFound = errors.New("module not found")

	// ErrGasExhausted is returned when execution runs out of gas.
	ErrGasExhausted = errors.New("gas exhausted")

	// ErrNoExecute is returned when a module does not export execute.
	ErrNoExecute = errors.New("execute function not exported")
)

// Pool manages compiled program artifacts.
// Modules are compiled once at load and instantiated fresh for every call,
// so no guest state leaks between instructions.
type Pool struct {
	runtime wazero.Runtime                     // runtime is the wazero runtime instance
	host    api.Module                         // host is the shared "env" module
	modules map[[32]byte]wazero.CompiledModule // modules maps program ID to compiled module
	hashes  map[[32]byte][32]byte              // hashes maps program ID to the blake3 hash of its artifact
	mu      sync.RWMutex                       // mu protects modules and hashes
}

// New creates a Pool with an initialized wazero runtime and host module.
func New(ctx context.Context) (*Pool, error) {
	runtime := wazero.NewRuntime(ctx)

	host, err := buildHostModule(ctx, runtime)
	if err != nil {
		runtime.Close(ctx)
		return nil, fmt.Errorf("build host module:\n%w", err)
	}

	return &Pool{
		runtime: runtime,
		host:    host,
		modules: make(map[[32]byte]wazero.CompiledModule),
		hashes:  make(map[[32]byte][32]byte),
	}, nil
}

// Load compiles wasmBytes and binds it to the program ID.
// Loading the same bytes twice under one ID is a no-op.
// Returns the blake3 hash of the artifact.
func (p *Pool) Load(ctx context.Context, id [32]byte, wasmBytes []byte) ([32]byte, error) {
	hash := blake3.Sum256(wasmBytes)

	p.mu.Lock()
	defer p.mu.Unlock()

	if prev, exists := p.hashes[id]; exists {
		if prev == hash {
			return hash, nil
		}

		return [32]byte{}, fmt.Errorf("program %x already loaded with a different artifact", id[:4])
	}

	compiled, err := p.runtime.CompileModule(ctx, wasmBytes)
	if err != nil {
		return [32]byte{}, fmt.Errorf("compile module:\n%w", err)
	}

	p.modules[id] = compiled
	p.hashes[id] = hash

	return hash, nil
}

// Execute runs a module with the given input and gas limit.
// Returns the output bytes and the amount of gas consumed.
func (p *Pool) Execute(ctx context.Context, id [32]byte, input []byte, gasLimit uint64) ([]byte, uint64, error) {
	p.mu.RLock()
	compiled, exists := p.modules[id]
	p.mu.RUnlock()

	if !exists {
		return nil, 0, ErrModuleNotFound
	}

	execCtx := &execContext{
		input:    input,
		gasLimit: gasLimit,
	}

	return p.executeModule(withExecContext(ctx, execCtx), compiled, execCtx)
}

// executeModule instantiates and runs a compiled module.
func (p *Pool) executeModule(ctx context.Context, compiled wazero.CompiledModule, execCtx *execContext) ([]byte, uint64, error) {
	// Anonymous instances may coexist in one runtime.
	instance, err := p.runtime.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithName(""))
	if err != nil {
		if execCtx.gasExhausted {
			return nil, execCtx.gasUsed, ErrGasExhausted
		}

		return nil, execCtx.gasUsed, fmt.Errorf("instantiate module:\n%w", err)
	}
	defer instance.Close(ctx)

	return callExecute(ctx, instance, execCtx)
}

// callExecute calls the execute function on the WASM instance.
func callExecute(ctx context.Context, instance api.Module, execCtx *execContext) ([]byte, uint64, error) {
	executeFn := instance.ExportedFunction("execute")
	if executeFn == nil {
		return nil, execCtx.gasUsed, ErrNoExecute
	}

	_, err := executeFn.Call(ctx)
	if err != nil {
		if execCtx.gasExhausted {
			return nil, execCtx.gasUsed, ErrGasExhausted
		}

		return nil, execCtx.gasUsed, fmt.Errorf("execute:\n%w", err)
	}

	return execCtx.output, execCtx.gasUsed, nil
}

// Close releases all resources held by the pool.
func (p *Pool) Close(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for id, compiled := range p.modules {
		compiled.Close(ctx)
		delete(p.modules, id)
		delete(p.hashes, id)
	}

	return p.runtime.Close(ctx)
}
