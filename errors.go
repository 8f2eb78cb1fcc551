package vaultkeep

import (
	"errors"
	"fmt"
)

// ErrorKind names one of the surfaced error categories a caller can
// branch on without inspecting message text.
type ErrorKind uint8

const (
	// KindInvalidInput covers malformed arguments: empty passwords, wrong
	// salt lengths, invalid paths.
	KindInvalidInput ErrorKind = iota
	// KindNotAVault means the target directory has no .vault_id.
	KindNotAVault
	// KindExists means a target path already exists where it must not.
	KindExists
	// KindInvalidPassword covers any failure to decrypt the index from
	// the supplied password. A wrong password and a corrupt or tampered
	// index both yield this kind, so an attacker learns nothing from the
	// error about which was the case; see LoadIndex, which always maps
	// its decrypt failure to this kind.
	KindInvalidPassword
	// KindDecryptFailure means authenticated decryption failed for a
	// data blob: the vault is corrupt or tampered.
	KindDecryptFailure
	// KindResourceBusy means a file or directory could not be written
	// or deleted because something else has it open.
	KindResourceBusy
	// KindIOFailure covers any other I/O error.
	KindIOFailure
	// KindInvalidState means the operation is not allowed in the
	// session's current state.
	KindInvalidState
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindNotAVault:
		return "not_a_vault"
	case KindExists:
		return "exists"
	case KindInvalidPassword:
		return "invalid_password"
	case KindDecryptFailure:
		return "decrypt_failure"
	case KindResourceBusy:
		return "resource_busy"
	case KindIOFailure:
		return "io_failure"
	case KindInvalidState:
		return "invalid_state"
	default:
		return "unknown"
	}
}

// VaultError is the single structured error type surfaced by this
// package. Callers branch on Kind, not on message text; messages never
// include a password, key bytes, or plaintext content.
type VaultError struct {
	Kind    ErrorKind
	Path    string // offending path, when applicable
	Message string
	Err     error // underlying error, if any
}

func (e *VaultError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Path, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *VaultError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, &VaultError{Kind: X}) match any VaultError of that kind,
// without requiring the caller to construct message text.
func (e *VaultError) Is(target error) bool {
	var t *VaultError
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

func newErr(kind ErrorKind, path, message string, err error) *VaultError {
	return &VaultError{Kind: kind, Path: path, Message: message, Err: err}
}

// NewInvalidInput builds a KindInvalidInput error.
func NewInvalidInput(message string) error {
	return newErr(KindInvalidInput, "", message, nil)
}

// NewNotAVault builds a KindNotAVault error naming the offending directory.
func NewNotAVault(path string) error {
	return newErr(KindNotAVault, path, "directory is not a vault", nil)
}

// NewExists builds a KindExists error naming the offending path.
func NewExists(path string) error {
	return newErr(KindExists, path, "already exists", nil)
}

// NewInvalidPassword builds a KindInvalidPassword error. err, if non-nil,
// is wrapped but never surfaced in the message text.
func NewInvalidPassword(err error) error {
	return newErr(KindInvalidPassword, "", "incorrect password or corrupt vault", err)
}

// NewDecryptFailure builds a KindDecryptFailure error naming the blob path.
func NewDecryptFailure(path string, err error) error {
	return newErr(KindDecryptFailure, path, "authenticated decryption failed", err)
}

// NewResourceBusy builds a KindResourceBusy error naming the offending path.
func NewResourceBusy(path string, err error) error {
	return newErr(KindResourceBusy, path, "resource is in use", err)
}

// NewIOFailure builds a KindIOFailure error wrapping the underlying OS error.
func NewIOFailure(path string, err error) error {
	msg := "I/O error"
	if err != nil {
		msg = err.Error()
	}
	return newErr(KindIOFailure, path, msg, err)
}

// NewInvalidState builds a KindInvalidState error describing the illegal
// transition.
func NewInvalidState(message string) error {
	return newErr(KindInvalidState, "", message, nil)
}

// Kind returns the ErrorKind of err, or false if err is not a VaultError
// (or does not wrap one).
func Kind(err error) (ErrorKind, bool) {
	var ve *VaultError
	if errors.As(err, &ve) {
		return ve.Kind, true
	}
	return 0, false
}

func isKind(err error, kind ErrorKind) bool {
	k, ok := Kind(err)
	return ok && k == kind
}

// IsInvalidInput reports whether err is a KindInvalidInput VaultError.
func IsInvalidInput(err error) bool { return isKind(err, KindInvalidInput) }

// IsNotAVault reports whether err is a KindNotAVault VaultError.
func IsNotAVault(err error) bool { return isKind(err, KindNotAVault) }

// IsExists reports whether err is a KindExists VaultError.
func IsExists(err error) bool { return isKind(err, KindExists) }

// IsInvalidPassword reports whether err is a KindInvalidPassword VaultError.
func IsInvalidPassword(err error) bool { return isKind(err, KindInvalidPassword) }

// IsDecryptFailure reports whether err is a KindDecryptFailure VaultError.
func IsDecryptFailure(err error) bool { return isKind(err, KindDecryptFailure) }

// IsResourceBusy reports whether err is a KindResourceBusy VaultError.
func IsResourceBusy(err error) bool { return isKind(err, KindResourceBusy) }

// IsIOFailure reports whether err is a KindIOFailure VaultError.
func IsIOFailure(err error) bool { return isKind(err, KindIOFailure) }

// IsInvalidState reports whether err is a KindInvalidState VaultError.
func IsInvalidState(err error) bool { return isKind(err, KindInvalidState) }
