package vaultkeep

import (
	"os"
	"path/filepath"
	"strings"
)

const vaultIDFileName = ".vault_id"
const indexFileName = "index.enc"

// writeVaultID writes the .vault_id sidecar: 32 hex characters of the
// VaultIdentifier plus a trailing newline, per spec.md §4.5.
func writeVaultID(dir string, id VaultIdentifier) error {
	return AtomicWrite(dir, vaultIDFileName, []byte(id.Hex()+"\n"))
}

// readVaultID reads and parses the .vault_id sidecar. Returns
// NewNotAVault if the file is missing or malformed.
func readVaultID(dir string) (VaultIdentifier, error) {
	data, err := os.ReadFile(filepath.Join(dir, vaultIDFileName))
	if err != nil {
		return VaultIdentifier{}, NewNotAVault(dir)
	}
	id, err := vaultIDFromHex(strings.TrimSpace(string(data)))
	if err != nil {
		return VaultIdentifier{}, NewNotAVault(dir)
	}
	return id, nil
}

// IsVault reports whether dir contains a parseable .vault_id.
func IsVault(dir string) bool {
	_, err := readVaultID(dir)
	return err == nil
}

func ciphertextFileName(id FileIdentifier) string {
	return id.Hex() + ".enc"
}

// dirIsEmptyOrMissing reports whether dir does not exist, or exists and
// has no entries; vault creation requires this per spec.md §4.7.
func dirIsEmptyOrMissing(dir string) (bool, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return true, nil
	}
	if err != nil {
		return false, NewIOFailure(dir, err)
	}
	return len(entries) == 0, nil
}
