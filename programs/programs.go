// Package programs lists the program sets a test context can deploy.
package programs

import (
	"sort"

	"Testlib/ledger"
	"Testlib/programs/anchor"
	"Testlib/programs/foo"
	"Testlib/programs/lido"
)

// Default returns the Solido set: anchor_integration, then lido.
func Default() []ledger.ProgramRegistration {
	return []ledger.ProgramRegistration{
		anchor.Registration(),
		lido.Registration(),
	}
}

// Foo returns the single-program foo set.
func Foo() []ledger.ProgramRegistration {
	return []ledger.ProgramRegistration{
		foo.Registration(),
	}
}

// sets maps each program set name to its constructor.
var sets = map[string]func() []ledger.ProgramRegistration{
	"default": Default,
	"foo":     Foo,
}

// Set returns the program set called name.
func Set(name string) ([]ledger.ProgramRegistration, bool) {
	fn, ok := sets[name]
	if !ok {
		return nil, false
	}
	return fn(), true
}

// SetNames returns the known set names in sorted order.
func SetNames() []string {
	names := make([]string, 0, len(sets))
	for name := range sets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
