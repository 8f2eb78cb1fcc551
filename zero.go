package vaultkeep

import "crypto/rand"

// ZeroBytes overwrites b in place with zeros. Used on every key buffer
// before it is released, and on every early-return error path that holds
// derived key material — not just at the end of a successful operation.
// Best-effort only: Go's garbage collector may have relocated or copied
// the underlying bytes before this call runs, and the compiler is free to
// optimize away a write it can prove is dead, which overwriting a slice
// passed by reference like this avoids in practice but not by a language
// guarantee.
func ZeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

func randomBytes(b []byte) error {
	_, err := rand.Read(b)
	return err
}
