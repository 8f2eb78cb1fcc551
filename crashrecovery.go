package vaultkeep

import (
	"os"
	"path/filepath"
	"strings"
)

// ListLeftoverWorkspaces scans cfg's workspace base directory for
// workspace_* subdirectories left behind by a prior crashed session
// (spec.md §4.10). It never deletes anything.
func ListLeftoverWorkspaces(cfg *Config) ([]string, error) {
	base, err := defaultWorkspaceBase(cfg)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(base)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, NewIOFailure(base, err)
	}

	var out []string
	for _, e := range entries {
		if e.IsDir() && strings.HasPrefix(e.Name(), "workspace_") {
			out = append(out, filepath.Join(base, e.Name()))
		}
	}
	return out, nil
}

// CleanLeftoverWorkspaces secure-deletes each named path using cfg's
// SecureDeletePasses override (nil or zero meaning the spec default of
// 3). Automatic deletion is never performed without the caller
// (ultimately the user) choosing to call this: the directory may hold
// unsaved work the user still wants to recover by external means, since
// the encryption keys for a crashed session are gone and the content
// cannot be re-encrypted.
func CleanLeftoverWorkspaces(paths []string, cfg *Config) error {
	for _, p := range paths {
		if err := secureDeleteDirCfg(p, cfg); err != nil {
			return err
		}
	}
	return nil
}

// CleanLeftoverWorkspacesAsync runs CleanLeftoverWorkspaces on the single
// background worker (spec.md §5: secure-delete is one of the four
// blocking operations).
func CleanLeftoverWorkspacesAsync(paths []string, cfg *Config) <-chan error {
	return runOnWorker(func() error { return CleanLeftoverWorkspaces(paths, cfg) })
}
