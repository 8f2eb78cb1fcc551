package vaultkeep

import (
	"crypto/sha256"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// hashFile returns the SHA-256 of the file at path, spec.md §4.9's
// content hash for change detection.
func hashFile(p string) ([32]byte, error) {
	f, err := os.Open(p)
	if err != nil {
		return [32]byte{}, NewIOFailure(p, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return [32]byte{}, NewIOFailure(p, err)
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out, nil
}

// toPosixPath converts an OS-native relative path (as produced by
// filepath.Rel while walking a workspace) into the forward-slash,
// POSIX-relative form the Index uses for lookups.
func toPosixPath(rel string) string {
	return path.Clean(filepath.ToSlash(rel))
}

// isInfrastructurePath reports whether relPosix's top-level component is
// in ignore, the configured set of infrastructure paths Phase A skips
// (spec.md §4.8). The set is empty by default: editor-specific hidden
// configuration directories are ordinary content unless a caller opts in
// to excluding them via Config.IgnorePaths (spec.md §9 Open Question #2).
func isInfrastructurePath(relPosix string, ignore map[string]bool) bool {
	if len(ignore) == 0 {
		return false
	}
	first := relPosix
	if idx := strings.IndexByte(relPosix, '/'); idx >= 0 {
		first = relPosix[:idx]
	}
	return ignore[first]
}
