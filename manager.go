package vaultkeep

import "os"

// Handle identifies an opened vault directory without holding any key
// material; produced by Open, consumed by Unlock.
type Handle struct {
	Dir string
	ID  VaultIdentifier
}

// Create makes a new vault at directory: the directory must be empty or
// not yet exist. It generates a random VaultIdentifier and Salt, derives
// keys, builds an empty Index whose root Folder is named vaultName,
// saves the index, and writes .vault_id. Creation is all-or-nothing: on
// any failure partway through, everything written so far is
// secure-deleted before the error is returned, mirroring the teacher's
// defensive cleanup-on-failure discipline in its flush path.
func Create(directory, vaultName string, password []byte) (err error) {
	empty, err := dirIsEmptyOrMissing(directory)
	if err != nil {
		return err
	}
	if !empty {
		return NewExists(directory)
	}
	if len(password) == 0 {
		return NewInvalidInput("password must not be empty")
	}

	created := false
	defer func() {
		if err != nil && created {
			_ = SecureDeleteDir(directory)
		}
	}()

	if err = os.MkdirAll(directory, 0o700); err != nil {
		return NewIOFailure(directory, err)
	}
	created = true

	vaultID := NewVaultIdentifier()
	salt, err := NewSalt()
	if err != nil {
		return err
	}

	master, err := DeriveMasterKey(password, salt)
	if err != nil {
		return err
	}
	defer master.Zero()

	vaultKey, err := DeriveVaultKey(master, vaultID)
	if err != nil {
		return err
	}
	defer vaultKey.Zero()

	idx := NewIndex(vaultName)

	if err = SaveIndex(directory, vaultKey, idx, salt); err != nil {
		return err
	}
	if err = writeVaultID(directory, vaultID); err != nil {
		return err
	}

	return nil
}

// CreateAsync runs Create on the single background worker (spec.md §5).
func CreateAsync(directory, vaultName string, password []byte) <-chan error {
	return runOnWorker(func() error { return Create(directory, vaultName, password) })
}

// Open validates that directory is a vault and returns a Handle carrying
// only its identifier; it holds no key material.
func Open(directory string) (Handle, error) {
	id, err := readVaultID(directory)
	if err != nil {
		return Handle{}, err
	}
	return Handle{Dir: directory, ID: id}, nil
}
