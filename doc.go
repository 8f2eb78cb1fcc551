// Package vaultkeep implements an encrypted notes vault: a password-based
// three-level key hierarchy, an authenticated file-encryption format, an
// encrypted index that hides real filenames and folder structure, and the
// unlock/edit/lock session protocol that materializes a plaintext working
// copy and reconciles it back into the vault without loss or corruption.
//
// # Key hierarchy
//
// A password and a 16-byte salt feed Argon2id (64 MiB memory, 3 passes,
// parallelism 4) to produce a 32-byte MasterKey. HKDF-SHA256 binds the
// MasterKey to the vault's identifier to derive a VaultKey, and binds the
// VaultKey to each file's identifier to derive a per-file FileKey. Keys
// exist only in memory for the lifetime of an unlocked Session and are
// zeroed on lock.
//
// # Blob format
//
// Every ciphertext on disk — the index and each note — is an
// EncryptedBlob: a 4-byte little-endian header length, a JSON header
// naming the format version, algorithm, and nonce, then the AES-256-GCM
// ciphertext and its 16-byte tag. The header bytes are themselves bound
// into the GCM associated data, so tampering with the header breaks
// authentication the same way tampering with the ciphertext does.
//
// # Vault layout
//
//	.vault_id        32 hex chars, the VaultIdentifier, trailing newline
//	index.enc        EncryptedBlob; plaintext is {version, salt, tree}
//	<hex(file_id)>.enc   one EncryptedBlob per note
//
// # Sessions
//
// Unlock decrypts the index and writes every referenced note into a
// temporary workspace directory under real names. Lock walks the
// workspace, diffs it against the index by content hash, and reconciles
// created/modified/deleted notes back into the vault before securely
// erasing the workspace. The reconciliation order favors leaving orphan
// ciphertext blobs over dangling index entries on crash: an orphan is
// garbage, a dangling entry looks like corruption.
//
// # What this protects against
//
// An attacker with only the on-disk vault cannot recover plaintext
// content, filenames, or folder structure without the password, and
// cannot tamper with any blob without detection.
//
// # What this does not protect against
//
// Multi-user access, concurrent editors on one vault, password recovery,
// an attacker who can read process memory while a session is unlocked,
// and storage media that retains prior sector contents after secure
// deletion (wear-leveled flash, copy-on-write filesystems) — secure
// deletion here is best-effort.
package vaultkeep
