package wasmtest

import (
	"bytes"
	"testing"
)

func TestLEB128(t *testing.T) {
	if got := uleb(624485); !bytes.Equal(got, []byte{0xe5, 0x8e, 0x26}) {
		t.Errorf("uleb(624485) = %x", got)
	}

	if got := sleb(-123456); !bytes.Equal(got, []byte{0xc0, 0xbb, 0x78}) {
		t.Errorf("sleb(-123456) = %x", got)
	}

	if got := sleb(64); !bytes.Equal(got, []byte{0xc0, 0x00}) {
		t.Errorf("sleb(64) = %x", got)
	}
}

func TestModulesStartWithHeader(t *testing.T) {
	header := []byte{0x00, 'a', 's', 'm', 0x01, 0x00, 0x00, 0x00}

	for name, wasm := range map[string][]byte{
		"output":    OutputModule([]byte("hi")),
		"gas":       GasModule(10),
		"trap":      TrapModule(),
		"noexecute": NoExecuteModule(),
	} {
		if !bytes.HasPrefix(wasm, header) {
			t.Errorf("%s module has bad header: %x", name, wasm[:8])
		}
	}
}
