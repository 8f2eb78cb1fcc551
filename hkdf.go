package vaultkeep

import (
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/hkdf"
)

const (
	vaultKeyInfo = "vault-key-v1"
	fileKeyInfo  = "file-key-v1"
)

// deriveSubkey runs HKDF-SHA256(parent, salt, info) and reads exactly
// keySize bytes, the shape forest6511-secretctl's deriveHKDF uses for its
// backup-key chain.
func deriveSubkey(parent, salt, info []byte) ([keySize]byte, error) {
	r := hkdf.New(sha256.New, parent, salt, info)
	var out [keySize]byte
	if _, err := io.ReadFull(r, out[:]); err != nil {
		return [keySize]byte{}, NewIOFailure("", err)
	}
	return out, nil
}

// DeriveVaultKey binds the MasterKey to the vault's identifier:
// vault_key = HKDF(master_key, salt = vault_id, info = "vault-key-v1").
// A given (master, vault_id) pair always yields the same VaultKey.
func DeriveVaultKey(master MasterKey, vaultID VaultIdentifier) (VaultKey, error) {
	raw, err := deriveSubkey(master[:], vaultID[:], []byte(vaultKeyInfo))
	if err != nil {
		return VaultKey{}, err
	}
	return VaultKey(raw), nil
}

// DeriveFileKey binds the VaultKey to a file's identifier:
// file_key = HKDF(vault_key, salt = file_id, info = "file-key-v1").
// A given (vault, file_id) pair always yields the same FileKey.
func DeriveFileKey(vault VaultKey, fileID FileIdentifier) (FileKey, error) {
	raw, err := deriveSubkey(vault[:], fileID[:], []byte(fileKeyInfo))
	if err != nil {
		return FileKey{}, err
	}
	return FileKey(raw), nil
}
