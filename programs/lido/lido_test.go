package lido

import (
	"errors"
	"testing"

	"Testlib/ledger"
)

func TestErrorCodes(t *testing.T) {
	if AlreadyInUse.CustomCode() != 0 || InvalidAmount.CustomCode() != 2 {
		t.Errorf("unexpected codes: %d %d", AlreadyInUse.CustomCode(), InvalidAmount.CustomCode())
	}

	if InvalidOwner.Error() != "invalid account owner" {
		t.Errorf("Error() = %q", InvalidOwner.Error())
	}

	if Error(999).Error() != "unknown lido error" {
		t.Errorf("Error(999) = %q", Error(999).Error())
	}
}

// TestErrorIsCustomCoder verifies the runtime can map lido errors to custom codes.
func TestErrorIsCustomCoder(t *testing.T) {
	var coder ledger.CustomCoder
	if !errors.As(error(CalculationFailure), &coder) {
		t.Fatal("lido.Error does not implement CustomCoder")
	}

	if coder.CustomCode() != 5 {
		t.Errorf("CustomCode() = %d, want 5", coder.CustomCode())
	}
}

func TestProcessAcceptsEmptyInstruction(t *testing.T) {
	if err := Process(ID, nil, nil); err != nil {
		t.Fatalf("Process failed: %v", err)
	}
}
