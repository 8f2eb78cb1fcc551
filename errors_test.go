package vaultkeep

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestVaultError_ErrorIncludesPathWhenPresent(t *testing.T) {
	err := NewNotAVault("/some/dir")
	msg := err.Error()
	if !strings.Contains(msg, "not_a_vault") || !strings.Contains(msg, "/some/dir") {
		t.Fatalf("Error() = %q, want it to mention the kind and the path", msg)
	}
}

func TestVaultError_ErrorOmitsEmptyPath(t *testing.T) {
	err := NewInvalidInput("bad stuff")
	msg := err.Error()
	if strings.Contains(msg, "::") {
		t.Fatalf("Error() = %q, unexpected empty-path artifact", msg)
	}
}

func TestVaultError_Unwrap(t *testing.T) {
	inner := fmt.Errorf("disk full")
	err := NewIOFailure("/tmp/x", inner)
	var ve *VaultError
	if !errors.As(err, &ve) {
		t.Fatalf("errors.As failed to find *VaultError")
	}
	if errors.Unwrap(ve) != inner {
		t.Fatalf("Unwrap() did not return the wrapped error")
	}
}

func TestVaultError_IsMatchesByKindOnly(t *testing.T) {
	a := NewDecryptFailure("a.enc", nil)
	b := NewDecryptFailure("b.enc", nil)
	if !errors.Is(a, b) {
		t.Fatalf("errors.Is should match two VaultErrors of the same Kind regardless of Path")
	}
	c := NewIOFailure("a.enc", nil)
	if errors.Is(a, c) {
		t.Fatalf("errors.Is should not match VaultErrors of different Kind")
	}
}

func TestKind_ExtractsKindFromWrappedError(t *testing.T) {
	err := fmt.Errorf("context: %w", NewResourceBusy("/p", nil))
	kind, ok := Kind(err)
	if !ok || kind != KindResourceBusy {
		t.Fatalf("Kind(wrapped) = (%v, %v), want (KindResourceBusy, true)", kind, ok)
	}
}

func TestKind_FalseForPlainError(t *testing.T) {
	_, ok := Kind(errors.New("plain"))
	if ok {
		t.Fatalf("Kind(plain error) reported ok=true")
	}
}

func TestIsHelpers(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{"InvalidInput", NewInvalidInput("x"), IsInvalidInput},
		{"NotAVault", NewNotAVault("x"), IsNotAVault},
		{"Exists", NewExists("x"), IsExists},
		{"InvalidPassword", NewInvalidPassword(nil), IsInvalidPassword},
		{"DecryptFailure", NewDecryptFailure("x", nil), IsDecryptFailure},
		{"ResourceBusy", NewResourceBusy("x", nil), IsResourceBusy},
		{"IOFailure", NewIOFailure("x", nil), IsIOFailure},
		{"InvalidState", NewInvalidState("x"), IsInvalidState},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.check(tt.err) {
				t.Errorf("%s checker returned false for its own constructor", tt.name)
			}
		})
	}
}

func TestErrorKind_String(t *testing.T) {
	if ErrorKind(255).String() != "unknown" {
		t.Fatalf("unrecognized ErrorKind should stringify to \"unknown\"")
	}
}

