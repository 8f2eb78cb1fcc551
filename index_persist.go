package vaultkeep

import (
	"os"
	"path/filepath"
)

// index.enc on disk is a 16-byte unencrypted salt prefix followed by an
// EncryptedBlob. The prefix is what lets LoadIndex derive a key to
// attempt decryption at all (spec.md §4.6: "parses its header, extracts
// the salt"); the salt recorded again inside the decrypted plaintext
// (spec.md §4.5's {version,salt,tree} document) is the single source of
// truth invariant 5 requires it to match.

// SaveIndex serializes idx's tree into {version, salt, tree}, encrypts
// the result under vaultKey, prefixes the unencrypted salt, and
// atomic-writes the whole thing to index.enc.
func SaveIndex(vaultDir string, vaultKey VaultKey, idx *Index, salt Salt) error {
	plaintext, err := marshalIndex(idx, salt)
	if err != nil {
		return err
	}
	blob, err := EncryptBlob([keySize]byte(vaultKey), plaintext)
	if err != nil {
		return err
	}
	out := make([]byte, 0, saltSize+len(blob))
	out = append(out, salt[:]...)
	out = append(out, blob...)
	return AtomicWrite(vaultDir, indexFileName, out)
}

// LoadIndex reads index.enc, extracts the unencrypted salt prefix,
// derives master key -> vault key from password, and decrypts the tree.
// Any failure here — wrong password, a corrupt/tampered index, or a
// salt mismatch between the prefix and the decrypted plaintext
// (invariant 5) — is reported uniformly as InvalidPassword: an attacker
// learns nothing from the error about which was the case.
func LoadIndex(vaultDir string, vaultID VaultIdentifier, password []byte) (*Index, VaultKey, error) {
	raw, err := os.ReadFile(filepath.Join(vaultDir, indexFileName))
	if err != nil {
		return nil, VaultKey{}, NewInvalidPassword(err)
	}
	if len(raw) < saltSize {
		return nil, VaultKey{}, NewInvalidPassword(nil)
	}
	var prefixSalt Salt
	copy(prefixSalt[:], raw[:saltSize])
	blob := raw[saltSize:]

	master, err := DeriveMasterKey(password, prefixSalt)
	if err != nil {
		return nil, VaultKey{}, NewInvalidPassword(err)
	}
	defer master.Zero()

	vaultKey, err := DeriveVaultKey(master, vaultID)
	if err != nil {
		return nil, VaultKey{}, NewInvalidPassword(err)
	}

	plaintext, err := DecryptBlob([keySize]byte(vaultKey), blob)
	if err != nil {
		vaultKey.Zero()
		return nil, VaultKey{}, NewInvalidPassword(err)
	}

	idx, innerSalt, err := unmarshalIndex(plaintext)
	ZeroBytes(plaintext)
	if err != nil {
		vaultKey.Zero()
		return nil, VaultKey{}, NewInvalidPassword(err)
	}
	if innerSalt != prefixSalt {
		vaultKey.Zero()
		return nil, VaultKey{}, NewInvalidPassword(nil)
	}

	return idx, vaultKey, nil
}
