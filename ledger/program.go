package ledger

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gagliardetto/solana-go"
)

var (
	// ErrInvalidProgramName is returned for names the artifact loader cannot resolve.
	ErrInvalidProgramName = errors.New("program name must match [a-z0-9_]+")

	// ErrDuplicateProgram is returned when a name or id is registered twice.
	ErrDuplicateProgram = errors.New("program already registered")

	// ErrReservedProgramID is returned when a registration shadows a builtin.
	ErrReservedProgramID = errors.New("program id reserved by a builtin")

	// ErrNoProcessor is returned when a registration has neither a processor nor an artifact.
	ErrNoProcessor = errors.New("program has no processor and no artifact")

	// ErrArtifactNotFound is returned when an artifact-backed program has no module on disk.
	ErrArtifactNotFound = errors.New("program artifact not found")
)

var programNamePattern = regexp.MustCompile(`^[a-z0-9_]+$`)

// Processor executes one instruction of a native program.
type Processor func(programID solana.PublicKey, accounts []*AccountInfo, data []byte) error

// ProgramRegistration describes a program deployed at session start.
type ProgramRegistration struct {
	Name      string           // Name is the artifact base name, e.g. "lido" for lido.wasm
	ID        solana.PublicKey // ID is the address the program is deployed at
	Processor Processor        // Processor is the native entry point
	Artifact  bool             // Artifact loads <Name>.wasm from the configured artifact dirs
}

// deployedProgram is a registration resolved against the artifact dirs.
type deployedProgram struct {
	reg          ProgramRegistration
	artifactPath string // artifactPath is empty for native programs
}

// native reports whether the program runs through its Processor.
func (p *deployedProgram) native() bool {
	return p.artifactPath == ""
}

// resolveProgram validates reg and locates its artifact.
func resolveProgram(reg ProgramRegistration, artifactDirs []string) (*deployedProgram, error) {
	if !programNamePattern.MatchString(reg.Name) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidProgramName, reg.Name)
	}

	if reg.ID.Equals(solana.SystemProgramID) || reg.ID.Equals(solana.MemoProgramID) {
		return nil, fmt.Errorf("%w: %s", ErrReservedProgramID, reg.ID)
	}

	deployed := &deployedProgram{reg: reg}

	if reg.Artifact && len(artifactDirs) > 0 {
		path, err := findArtifact(reg.Name, artifactDirs)
		if err != nil {
			return nil, err
		}

		deployed.artifactPath = path
		return deployed, nil
	}

	if reg.Processor == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoProcessor, reg.Name)
	}

	return deployed, nil
}

// findArtifact returns the first <name>.wasm found in dirs.
func findArtifact(name string, dirs []string) (string, error) {
	file := name + ".wasm"

	for _, dir := range dirs {
		path := filepath.Join(dir, file)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}

	return "", fmt.Errorf("%w: %s in [%s]", ErrArtifactNotFound, file, strings.Join(dirs, ", "))
}
