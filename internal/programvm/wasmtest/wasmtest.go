// Package wasmtest assembles tiny guest modules for exercising the program VM
// without a compiler toolchain.
package wasmtest

const (
	sectionType     = 1
	sectionImport   = 2
	sectionFunction = 3
	sectionMemory   = 5
	sectionExport   = 7
	sectionCode     = 10
	sectionData     = 11
)

const (
	opUnreachable = 0x00
	opEnd         = 0x0b
	opCall        = 0x10
	opI32Const    = 0x41
)

// Type indices, fixed for every module built here.
const (
	typeI32        = 0 // (i32) -> ()
	typeI32I32     = 1 // (i32, i32) -> ()
	typeVoid       = 2 // () -> ()
	typeReturnsI32 = 3 // () -> i32
)

// hostImport is one function imported from the "env" module.
type hostImport struct {
	name    string
	typeIdx byte
}

// module describes a single-function guest.
type module struct {
	imports       []hostImport
	body          []byte
	data          []byte
	exportExecute bool
}

// OutputModule returns a guest whose execute writes output verbatim.
func OutputModule(output []byte) []byte {
	body := append([]byte{opI32Const}, sleb(0)...)
	body = append(body, opI32Const)
	body = append(body, sleb(int32(len(output)))...)
	body = append(body, opCall, 0x00)

	return module{
		imports:       []hostImport{{name: "write_output", typeIdx: typeI32I32}},
		body:          body,
		data:          output,
		exportExecute: true,
	}.assemble()
}

// GasModule returns a guest whose execute charges cost gas and writes nothing.
func GasModule(cost uint32) []byte {
	body := append([]byte{opI32Const}, sleb(int32(cost))...)
	body = append(body, opCall, 0x00)

	return module{
		imports:       []hostImport{{name: "gas", typeIdx: typeI32}},
		body:          body,
		exportExecute: true,
	}.assemble()
}

// TrapModule returns a guest whose execute hits unreachable.
func TrapModule() []byte {
	return module{body: []byte{opUnreachable}, exportExecute: true}.assemble()
}

// NoExecuteModule returns a valid guest that does not export execute.
func NoExecuteModule() []byte {
	return module{body: nil}.assemble()
}

// assemble encodes the module in the binary format.
func (m module) assemble() []byte {
	out := []byte{0x00, 'a', 's', 'm', 0x01, 0x00, 0x00, 0x00}

	types := vec(
		funcType([]byte{0x7f}, nil),
		funcType([]byte{0x7f, 0x7f}, nil),
		funcType(nil, nil),
		funcType(nil, []byte{0x7f}),
	)
	out = append(out, section(sectionType, types)...)

	if len(m.imports) > 0 {
		entries := make([][]byte, len(m.imports))
		for i, imp := range m.imports {
			entry := name("env")
			entry = append(entry, name(imp.name)...)
			entry = append(entry, 0x00, imp.typeIdx)
			entries[i] = entry
		}
		out = append(out, section(sectionImport, vec(entries...))...)
	}

	out = append(out, section(sectionFunction, vec([]byte{typeVoid}))...)
	out = append(out, section(sectionMemory, vec([]byte{0x00, 0x01}))...)

	exports := [][]byte{append(name("memory"), 0x02, 0x00)}
	if m.exportExecute {
		funcIdx := uleb(uint32(len(m.imports)))
		exports = append(exports, append(append(name("execute"), 0x00), funcIdx...))
	}
	out = append(out, section(sectionExport, vec(exports...))...)

	code := append([]byte{0x00}, m.body...) // no locals
	code = append(code, opEnd)
	out = append(out, section(sectionCode, vec(append(uleb(uint32(len(code))), code...)))...)

	if len(m.data) > 0 {
		segment := []byte{0x00, opI32Const}
		segment = append(segment, sleb(0)...)
		segment = append(segment, opEnd)
		segment = append(segment, uleb(uint32(len(m.data)))...)
		segment = append(segment, m.data...)
		out = append(out, section(sectionData, vec(segment))...)
	}

	return out
}

func funcType(params, results []byte) []byte {
	out := []byte{0x60}
	out = append(out, uleb(uint32(len(params)))...)
	out = append(out, params...)
	out = append(out, uleb(uint32(len(results)))...)
	return append(out, results...)
}

func section(id byte, contents []byte) []byte {
	out := []byte{id}
	out = append(out, uleb(uint32(len(contents)))...)
	return append(out, contents...)
}

func vec(items ...[]byte) []byte {
	out := uleb(uint32(len(items)))
	for _, item := range items {
		out = append(out, item...)
	}
	return out
}

func name(s string) []byte {
	return append(uleb(uint32(len(s))), s...)
}

// uleb encodes v as unsigned LEB128.
func uleb(v uint32) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		out = append(out, b)
		if v == 0 {
			return out
		}
	}
}

// sleb encodes v as signed LEB128.
func sleb(v int32) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0) {
			return append(out, b)
		}
		out = append(out, b|0x80)
	}
}
