package vaultkeep

import (
	"strings"

	"github.com/google/uuid"
)

// Fixed configuration values (spec.md §9). Not stored per-vault in v1; a
// format version in the index blob is the extension point for a future
// parameterized KDF.
const (
	argon2Memory      = 64 * 1024 // KiB
	argon2Iterations  = 3
	argon2Parallelism = 4

	saltSize = 16
	idSize   = 16
	keySize  = 32

	gcmNonceSize = 12
	gcmTagSize   = 16

	secureDeletePasses = 3
)

// VaultIdentifier is a 16-byte random value stored plaintext in the
// vault's .vault_id sidecar; used as key-derivation context and to
// detect that a directory is a vault.
type VaultIdentifier [idSize]byte

// FileIdentifier is a 16-byte random value naming a logical file
// independently of its human-readable name, globally unique within a
// vault.
type FileIdentifier [idSize]byte

func newID() [idSize]byte {
	u := uuid.New()
	var id [idSize]byte
	copy(id[:], u[:])
	return id
}

// NewVaultIdentifier generates a fresh random VaultIdentifier.
func NewVaultIdentifier() VaultIdentifier { return VaultIdentifier(newID()) }

// NewFileIdentifier generates a fresh random FileIdentifier.
func NewFileIdentifier() FileIdentifier { return FileIdentifier(newID()) }

// Hex renders the identifier as lowercase hex, the form used in on-disk
// filenames and the .vault_id sidecar.
func (v VaultIdentifier) Hex() string { return hexEncode(v[:]) }

// Hex renders the identifier as lowercase hex, the form used in the
// <hex(file_id)>.enc ciphertext filename.
func (f FileIdentifier) Hex() string { return hexEncode(f[:]) }

func vaultIDFromHex(s string) (VaultIdentifier, error) {
	b, err := hexDecode(s)
	if err != nil || len(b) != idSize {
		return VaultIdentifier{}, NewInvalidInput("malformed vault identifier")
	}
	var v VaultIdentifier
	copy(v[:], b)
	return v, nil
}

func fileIDFromHex(s string) (FileIdentifier, error) {
	b, err := hexDecode(s)
	if err != nil || len(b) != idSize {
		return FileIdentifier{}, NewInvalidInput("malformed file identifier")
	}
	var f FileIdentifier
	copy(f[:], b)
	return f, nil
}

// hexEncode renders the raw bytes as lowercase hex with no separators,
// which keeps .vault_id and <hex>.enc filenames at the 32-character width
// spec.md §4.5/§3 specify, rather than uuid's canonical 36-character
// dashed string.
func hexEncode(b []byte) string {
	const hextable = "0123456789abcdef"
	out := make([]byte, len(b)*2)
	for i, c := range b {
		out[i*2] = hextable[c>>4]
		out[i*2+1] = hextable[c&0x0f]
	}
	return string(out)
}

func hexDecode(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if len(s)%2 != 0 {
		return nil, NewInvalidInput("odd-length hex string")
	}
	out := make([]byte, len(s)/2)
	for i := 0; i < len(out); i++ {
		hi, ok1 := hexVal(s[i*2])
		lo, ok2 := hexVal(s[i*2+1])
		if !ok1 || !ok2 {
			return nil, NewInvalidInput("invalid hex digit")
		}
		out[i] = hi<<4 | lo
	}
	return out, nil
}

func hexVal(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	default:
		return 0, false
	}
}

// MasterKey is derived once per unlock from the password and salt.
type MasterKey [keySize]byte

// Zero overwrites the key material before the buffer is released.
func (k *MasterKey) Zero() { ZeroBytes(k[:]) }

// VaultKey is derived from MasterKey bound to the VaultIdentifier.
type VaultKey [keySize]byte

// Zero overwrites the key material before the buffer is released.
func (k *VaultKey) Zero() { ZeroBytes(k[:]) }

// FileKey is derived from VaultKey bound to a FileIdentifier.
type FileKey [keySize]byte

// Zero overwrites the key material before the buffer is released.
func (k *FileKey) Zero() { ZeroBytes(k[:]) }

// Salt is the 16-byte value generated at vault creation and fed to the
// password KDF; immutable for the vault's lifetime.
type Salt [saltSize]byte

// NewSalt generates a fresh random Salt.
func NewSalt() (Salt, error) {
	var s Salt
	if err := randomBytes(s[:]); err != nil {
		return Salt{}, NewIOFailure("", err)
	}
	return s, nil
}

// Config holds the tunables a caller supplies when creating or opening a
// vault manager. The KDF parameters are fixed per spec.md §9 and are not
// exposed for per-vault override in v1; Config instead covers the parts
// spec.md leaves to the host environment.
type Config struct {
	// WorkspaceBaseDir is the platform per-user local application data
	// directory under which workspace_<random8hex> directories are
	// created. Defaults to os.UserCacheDir()'s VaultKeep subdirectory
	// when empty.
	WorkspaceBaseDir string

	// SecureDeletePasses overrides the number of overwrite passes used
	// by SecureDeleteFile/SecureDeleteDir. Zero means the spec default
	// of 3 (random, random, zero).
	SecureDeletePasses int

	// IgnorePaths names top-level workspace entries Phase A's scan
	// skips entirely (spec.md §4.8's "configured set of infrastructure
	// paths"). Empty by default: every workspace entry is ordinary
	// content, including editor-specific hidden configuration
	// directories (spec.md §9 Open Question #2's stated default).
	IgnorePaths []string

	// EditorPath is the executable Session.LaunchEditor starts with the
	// workspace as its working directory (spec.md §6). Empty means no
	// editor is configured; LaunchEditor then returns InvalidInput
	// rather than guessing a default.
	EditorPath string

	// EditorArgs are extra arguments passed to EditorPath, before the
	// workspace path is appended.
	EditorArgs []string
}

func (c *Config) ignoreSet() map[string]bool {
	if c == nil || len(c.IgnorePaths) == 0 {
		return nil
	}
	out := make(map[string]bool, len(c.IgnorePaths))
	for _, p := range c.IgnorePaths {
		out[p] = true
	}
	return out
}

// Validate reports a KindInvalidInput error for any field the package
// cannot operate with.
func (c *Config) Validate() error {
	if c == nil {
		return NewInvalidInput("config cannot be nil")
	}
	if c.SecureDeletePasses < 0 {
		return NewInvalidInput("secure delete passes cannot be negative")
	}
	return nil
}

func (c *Config) securePasses() int {
	if c == nil || c.SecureDeletePasses == 0 {
		return secureDeletePasses
	}
	return c.SecureDeletePasses
}

func (c *Config) editorPath() string {
	if c == nil {
		return ""
	}
	return c.EditorPath
}

func (c *Config) editorArgs() []string {
	if c == nil {
		return nil
	}
	return c.EditorArgs
}
