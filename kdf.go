package vaultkeep

import (
	"golang.org/x/crypto/argon2"
)

// DeriveMasterKey derives the 32-byte MasterKey from password and salt
// using Argon2id with the fixed parameters spec.md §9 mandates: memory
// cost 64 MiB, time cost 3, parallelism 4. Deterministic: the same
// (password, salt) pair always yields the same key.
func DeriveMasterKey(password []byte, salt Salt) (MasterKey, error) {
	if len(password) == 0 {
		return MasterKey{}, NewInvalidInput("password must not be empty")
	}
	raw := argon2.IDKey(password, salt[:], argon2Iterations, argon2Memory, argon2Parallelism, keySize)
	defer ZeroBytes(raw)
	var mk MasterKey
	copy(mk[:], raw)
	return mk, nil
}

// LegacyKeyCheck recognizes a pre-v1-stamped index header without ever
// deriving a live key from it. It exists purely as a format-version
// guard: if a future index.enc carries alg != "argon2id", callers can use
// this to produce an honest "this vault predates this version" error
// instead of letting the mismatch masquerade as a wrong password. spec.md
// §4.1 fixes Argon2id as the only key derivation algorithm; there is no
// real legacy vault format behind this check, only the version guard.
func LegacyKeyCheck(alg string) error {
	if alg == "argon2id" || alg == "" {
		return nil
	}
	return NewInvalidInput("unrecognized key derivation algorithm: " + alg)
}
