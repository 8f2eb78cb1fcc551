package vaultkeep

import (
	"os"
	"os/exec"
	"path/filepath"
	"sync"
)

// SessionState is the Session's position in the Idle -> Unlocked ->
// Locking state machine (spec.md §4.8).
type SessionState uint8

const (
	StateIdle SessionState = iota
	StateUnlocked
	StateLocking
)

// Session is the transient state of one unlocked vault: the workspace
// path, the vault key, and the live Index. Lock's Phase B diffs the
// workspace directly against the Index's own recorded hashes (§4.8);
// there is no separate unlock-time snapshot to keep in sync.
type Session struct {
	mu sync.Mutex

	handle   Handle
	cfg      *Config
	vaultKey VaultKey
	index    *Index

	workspaceDir string

	state SessionState
}

func defaultWorkspaceBase(cfg *Config) (string, error) {
	if cfg != nil && cfg.WorkspaceBaseDir != "" {
		return cfg.WorkspaceBaseDir, nil
	}
	base, err := os.UserCacheDir()
	if err != nil {
		return "", NewIOFailure("", err)
	}
	return filepath.Join(base, "VaultKeep"), nil
}

type fileEntry struct {
	RelPath string
	Node    *IndexNode
}

// collectFiles walks folder depth-first, building POSIX-relative paths
// for every File node. The root Folder's own Name is never part of a
// path: FindByPath treats paths as relative to the root.
func collectFiles(folder *IndexNode, prefix string) []fileEntry {
	var out []fileEntry
	for _, c := range folder.Children {
		p := c.Name
		if prefix != "" {
			p = prefix + "/" + c.Name
		}
		if c.Kind == NodeFile {
			out = append(out, fileEntry{RelPath: p, Node: c})
		} else {
			out = append(out, collectFiles(c, p)...)
		}
	}
	return out
}

// Unlock implements spec.md §4.8's unlock protocol: decrypt the index,
// create the workspace, decrypt every File's ciphertext into it under
// its real path, and transition to Unlocked. Lock's own Phase A rescans
// and rehashes the workspace from scratch, so no unlock-time snapshot is
// kept. If any step fails the partially-populated workspace is
// secure-deleted and no Session is returned.
func Unlock(handle Handle, password []byte, cfg *Config, progress ProgressCallback) (sess *Session, err error) {
	if cfg != nil {
		if verr := cfg.Validate(); verr != nil {
			return nil, verr
		}
	}

	// Step 1: decrypt the index.
	idx, vaultKey, err := LoadIndex(handle.Dir, handle.ID, password)
	if err != nil {
		return nil, err
	}

	files := collectFiles(idx.Root, "")
	total := len(files) + 2
	done := 0
	reportProgress(progress, done, total)

	cleanupWorkspace := ""
	defer func() {
		if err != nil {
			vaultKey.Zero()
			if cleanupWorkspace != "" {
				_ = secureDeleteDirCfg(cleanupWorkspace, cfg)
			}
		}
	}()

	// Step 2: create the workspace root.
	base, err := defaultWorkspaceBase(cfg)
	if err != nil {
		return nil, err
	}
	workspaceDir := filepath.Join(base, "workspace_"+randomHex(8))
	if err = os.MkdirAll(workspaceDir, 0o700); err != nil {
		err = NewIOFailure(workspaceDir, err)
		return nil, err
	}
	cleanupWorkspace = workspaceDir
	done++
	reportProgress(progress, done, total)

	// Step 3: decrypt every File into the workspace under its real path.
	for _, fe := range files {
		fileKey, derr := DeriveFileKey(vaultKey, fe.Node.FileID)
		if derr != nil {
			err = derr
			return nil, err
		}
		blobPath := filepath.Join(handle.Dir, ciphertextFileName(fe.Node.FileID))
		blob, rerr := os.ReadFile(blobPath)
		if rerr != nil {
			fileKey.Zero()
			err = NewIOFailure(blobPath, rerr)
			return nil, err
		}
		plaintext, derr2 := DecryptBlob([keySize]byte(fileKey), blob)
		fileKey.Zero()
		if derr2 != nil {
			err = derr2
			return nil, err
		}

		destDir := filepath.Join(workspaceDir, filepath.FromSlash(filepath.Dir(fe.RelPath)))
		destName := filepath.Base(fe.RelPath)
		if werr := AtomicWrite(destDir, destName, plaintext); werr != nil {
			ZeroBytes(plaintext)
			err = werr
			return nil, err
		}
		ZeroBytes(plaintext)

		done++
		reportProgress(progress, done, total)
	}

	// Step 4 + 5: transition to Unlocked.
	done++
	reportProgress(progress, done, total)

	sess = &Session{
		handle:       handle,
		cfg:          cfg,
		vaultKey:     vaultKey,
		index:        idx,
		workspaceDir: workspaceDir,
		state:        StateUnlocked,
	}
	return sess, nil
}

// UnlockAsync runs Unlock on the single background worker and delivers
// its result on the returned channel.
func UnlockAsync(handle Handle, password []byte, cfg *Config, progress ProgressCallback) <-chan asyncUnlockResult {
	out := make(chan asyncUnlockResult, 1)
	go func() {
		var sess *Session
		err := <-runOnWorker(func() (uerr error) {
			sess, uerr = Unlock(handle, password, cfg, progress)
			return uerr
		})
		out <- asyncUnlockResult{Session: sess, Err: err}
	}()
	return out
}

type asyncUnlockResult struct {
	Session *Session
	Err     error
}

// LockAsync runs Lock on the single background worker (spec.md §5: lock
// is one of the four blocking operations) and delivers its result on the
// returned channel.
func (s *Session) LockAsync(progress ProgressCallback) <-chan error {
	return runOnWorker(func() error { return s.Lock(progress) })
}

// IsUnlocked reports whether the session currently holds live key
// material and a materialized workspace.
func (s *Session) IsUnlocked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StateUnlocked
}

// WorkspacePath returns the real on-disk directory an external editor
// should be pointed at while the session is Unlocked.
func (s *Session) WorkspacePath() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.workspaceDir
}

// LaunchEditor spawns the external editor configured via
// Config.EditorPath with the workspace as its working directory and
// returns as soon as the process has started, without waiting for exit
// (spec.md §6: "locate an executable path from configuration, start
// process, do not wait for exit"). The editor is out of scope for this
// package beyond this shim; it is free to mutate the workspace in place,
// and Lock's Phase A rescan picks up whatever it left behind.
func (s *Session) LaunchEditor() error {
	s.mu.Lock()
	if s.state != StateUnlocked {
		s.mu.Unlock()
		return NewInvalidState("launch editor requires an Unlocked session")
	}
	workspaceDir := s.workspaceDir
	editorPath := s.cfg.editorPath()
	editorArgs := s.cfg.editorArgs()
	s.mu.Unlock()

	if editorPath == "" {
		return NewInvalidInput("no editor configured (Config.EditorPath is empty)")
	}

	cmd := exec.Command(editorPath, append(append([]string{}, editorArgs...), workspaceDir)...)
	cmd.Dir = workspaceDir
	if err := cmd.Start(); err != nil {
		return NewIOFailure(editorPath, err)
	}
	return nil
}

// scanWorkspace implements Lock's Phase A: walk the workspace, ignoring
// configured infrastructure paths, hashing every regular file.
func (s *Session) scanWorkspace() (map[string][32]byte, error) {
	ignore := s.cfg.ignoreSet()
	result := make(map[string][32]byte)
	err := filepath.WalkDir(s.workspaceDir, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, rerr := filepath.Rel(s.workspaceDir, p)
		if rerr != nil {
			return rerr
		}
		posix := toPosixPath(rel)
		if isInfrastructurePath(posix, ignore) {
			return nil
		}
		h, herr := hashFile(p)
		if herr != nil {
			return herr
		}
		result[posix] = h
		return nil
	})
	if err != nil {
		return nil, NewIOFailure(s.workspaceDir, err)
	}
	return result, nil
}

type reconciliation struct {
	created  []string
	deleted  []string
	modified []string
}

// diff implements Lock's Phase B: classify every path in the union of
// the workspace scan W and the index-derived set I.
func diff(w map[string][32]byte, idx *Index) reconciliation {
	i := make(map[string][32]byte)
	for _, fe := range collectFiles(idx.Root, "") {
		i[toPosixPath(fe.RelPath)] = fe.Node.ContentHash
	}

	var r reconciliation
	for p := range w {
		if ihash, ok := i[p]; !ok {
			r.created = append(r.created, p)
		} else if w[p] != ihash {
			r.modified = append(r.modified, p)
		}
	}
	for p := range i {
		if _, ok := w[p]; !ok {
			r.deleted = append(r.deleted, p)
		}
	}
	return r
}

// Lock implements spec.md §4.8's three-phase reconciliation. It must be
// idempotent under partial-crash retry: ciphertext blobs for
// created/modified paths are written before the index is saved, and the
// index is saved before deleted paths' ciphertexts are removed, so a
// crash at any point leaves either an orphan blob (safe, garbage-
// collectable) rather than a dangling index entry (treated as
// corruption) — never the reverse.
func (s *Session) Lock(progress ProgressCallback) (err error) {
	s.mu.Lock()
	if s.state != StateUnlocked {
		s.mu.Unlock()
		return NewInvalidState("lock requires an Unlocked session")
	}
	s.state = StateLocking
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		if err != nil {
			s.state = StateUnlocked
		} else {
			s.state = StateIdle
		}
		s.mu.Unlock()
	}()

	// Phase A
	w, err := s.scanWorkspace()
	if err != nil {
		return err
	}

	// Phase B
	r := diff(w, s.index)
	total := len(r.modified) + len(r.created) + len(r.deleted) + 2
	done := 0
	reportProgress(progress, done, total)

	// Phase C, step 1: modified.
	for _, p := range r.modified {
		node, ferr := s.index.FindByPath(p)
		if ferr != nil {
			return ferr
		}
		if err = s.reencryptPath(p, node.FileID); err != nil {
			return err
		}
		node.ContentHash = w[p]
		done++
		reportProgress(progress, done, total)
	}

	// Phase C, step 2: created. A created path whose content hash equals
	// a deleted path's recorded hash is a rename: it keeps that node's
	// FileIdentifier, and its ciphertext blob is neither rewritten nor
	// deleted.
	for _, p := range r.created {
		fileID, renamed := NewFileIdentifier(), false
		for j, d := range r.deleted {
			if old, ferr := s.index.FindByPath(d); ferr == nil && old.ContentHash == w[p] {
				if _, err = s.index.Remove(d); err != nil {
					return err
				}
				fileID, renamed = old.FileID, true
				r.deleted = append(r.deleted[:j], r.deleted[j+1:]...)
				done++
				break
			}
		}
		parentPath := ""
		if idx := lastSlash(p); idx >= 0 {
			parentPath = p[:idx]
			if _, ferr := s.index.EnsureFolderPath(parentPath); ferr != nil {
				return ferr
			}
		}
		if !renamed {
			if err = s.reencryptPath(p, fileID); err != nil {
				return err
			}
		}
		if _, aerr := s.index.AddFile(parentPath, baseName(p), fileID, w[p]); aerr != nil {
			err = aerr
			return err
		}
		done++
		reportProgress(progress, done, total)
	}

	// Phase C, step 3: deleted — remove from index now, but the
	// ciphertext is deleted only after the index save below.
	var orphaned []FileIdentifier
	for _, p := range r.deleted {
		ids, rerr := s.index.Remove(p)
		if rerr != nil {
			err = rerr
			return err
		}
		orphaned = append(orphaned, ids...)
		done++
		reportProgress(progress, done, total)
	}

	// Phase C, step 4: save the index.
	_, currentSalt, serr := currentSaltOf(s)
	if serr != nil {
		err = serr
		return err
	}
	if err = SaveIndex(s.handle.Dir, s.vaultKey, s.index, currentSalt); err != nil {
		return err
	}
	done++
	reportProgress(progress, done, total)

	// Now it is safe to remove orphaned ciphertexts: the index no
	// longer references them, and the index save already succeeded.
	for _, id := range orphaned {
		p := filepath.Join(s.handle.Dir, ciphertextFileName(id))
		if derr := secureDeleteFileCfg(p, s.cfg); derr != nil {
			err = derr
			return err
		}
	}

	// Phase C, step 5: secure-delete the workspace.
	if derr := secureDeleteDirCfg(s.workspaceDir, s.cfg); derr != nil {
		// The encrypted vault is already the intended new state; only
		// the workspace cleanup is retryable, so the session stays
		// Unlocked rather than rolling back steps already committed.
		err = derr
		return err
	}
	done++
	reportProgress(progress, done, total)

	s.vaultKey.Zero()
	return nil
}

// ForceUnlockDeleteWorkspace implements spec.md §6's recovery escape
// hatch: it does not re-encrypt anything, it just secure-deletes the
// workspace and discards key material.
func (s *Session) ForceUnlockDeleteWorkspace() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.workspaceDir == "" {
		return nil
	}
	err := secureDeleteDirCfg(s.workspaceDir, s.cfg)
	s.vaultKey.Zero()
	s.state = StateIdle
	return err
}

func (s *Session) reencryptPath(relPosix string, fileID FileIdentifier) error {
	fileKey, err := DeriveFileKey(s.vaultKey, fileID)
	if err != nil {
		return err
	}
	defer fileKey.Zero()

	full := filepath.Join(s.workspaceDir, filepath.FromSlash(relPosix))
	plaintext, err := os.ReadFile(full)
	if err != nil {
		return NewIOFailure(full, err)
	}
	defer ZeroBytes(plaintext)

	blob, err := EncryptBlob([keySize]byte(fileKey), plaintext)
	if err != nil {
		return err
	}
	return AtomicWrite(s.handle.Dir, ciphertextFileName(fileID), blob)
}

func lastSlash(p string) int {
	for i := len(p) - 1; i >= 0; i-- {
		if p[i] == '/' {
			return i
		}
	}
	return -1
}

func baseName(p string) string {
	if idx := lastSlash(p); idx >= 0 {
		return p[idx+1:]
	}
	return p
}

// currentSaltOf re-reads the salt already persisted for this vault; Lock
// needs it to re-save the index under the same salt (the salt never
// changes for a vault's lifetime, per spec.md §3 invariant).
func currentSaltOf(s *Session) (VaultIdentifier, Salt, error) {
	raw, err := os.ReadFile(filepath.Join(s.handle.Dir, indexFileName))
	if err != nil {
		return VaultIdentifier{}, Salt{}, NewIOFailure(s.handle.Dir, err)
	}
	if len(raw) < saltSize {
		return VaultIdentifier{}, Salt{}, NewDecryptFailure(s.handle.Dir, nil)
	}
	var salt Salt
	copy(salt[:], raw[:saltSize])
	return s.handle.ID, salt, nil
}
