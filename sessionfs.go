package vaultkeep

import (
	"io"
	"os"
	"time"

	"github.com/absfs/absfs"
)

// SessionFS is a read-only absfs.FileSystem view over a live Session's
// Index: it resolves a logical path straight to the in-memory tree and
// decrypts the referenced blob on demand, with no on-disk materialization
// of its own. This adapts the teacher's encryptfs.go idea — a
// FileSystem wrapper that transparently decrypts reads against a base
// filesystem — to this domain's inverse shape: there is no base
// filesystem, the "base" is the already-unlocked Index and vault
// directory, and nothing is ever written back through this view. All
// mutation flows through the materialized workspace and Session.Lock,
// never through SessionFS; every write-shaped method returns
// KindInvalidState.
type SessionFS struct {
	session *Session
}

var _ absfs.FileSystem = (*SessionFS)(nil)

// Browse returns a SessionFS over s's live Index, for callers that want
// to present the vault's decrypted contents without touching the
// on-disk workspace (e.g. a search or preview surface). Valid only while
// the session is Unlocked.
func (s *Session) Browse() (*SessionFS, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateUnlocked {
		return nil, NewInvalidState("browse requires an Unlocked session")
	}
	return &SessionFS{session: s}, nil
}

func (fs *SessionFS) resolve(name string) (*IndexNode, error) {
	fs.session.mu.Lock()
	idx := fs.session.index
	fs.session.mu.Unlock()
	return idx.FindByPath(name)
}

func (fs *SessionFS) decrypt(node *IndexNode) ([]byte, error) {
	fs.session.mu.Lock()
	vaultKey := fs.session.vaultKey
	dir := fs.session.handle.Dir
	fs.session.mu.Unlock()

	fileKey, err := DeriveFileKey(vaultKey, node.FileID)
	if err != nil {
		return nil, err
	}
	defer fileKey.Zero()

	blob, err := os.ReadFile(dir + "/" + ciphertextFileName(node.FileID))
	if err != nil {
		return nil, NewIOFailure(node.Name, err)
	}
	return DecryptBlob([keySize]byte(fileKey), blob)
}

// Open resolves name against the Index and returns a read-only handle:
// a sessionFile over the decrypted plaintext for a File node, or a
// directory-mode sessionFile listing children for a Folder node.
func (fs *SessionFS) Open(name string) (absfs.File, error) {
	node, err := fs.resolve(name)
	if err != nil {
		return nil, err
	}
	if node.Kind == NodeFolder {
		return &sessionFile{name: name, isDir: true, node: node}, nil
	}
	plaintext, err := fs.decrypt(node)
	if err != nil {
		return nil, err
	}
	return &sessionFile{name: name, data: plaintext, node: node}, nil
}

func (fs *SessionFS) OpenFile(name string, flag int, perm os.FileMode) (absfs.File, error) {
	if flag&(os.O_WRONLY|os.O_RDWR|os.O_CREATE|os.O_APPEND|os.O_TRUNC) != 0 {
		return nil, NewInvalidState("SessionFS is read-only")
	}
	return fs.Open(name)
}

func (fs *SessionFS) Create(name string) (absfs.File, error) {
	return nil, NewInvalidState("SessionFS is read-only")
}

func (fs *SessionFS) Mkdir(name string, perm os.FileMode) error {
	return NewInvalidState("SessionFS is read-only")
}
func (fs *SessionFS) MkdirAll(name string, perm os.FileMode) error {
	return NewInvalidState("SessionFS is read-only")
}
func (fs *SessionFS) Remove(name string) error { return NewInvalidState("SessionFS is read-only") }
func (fs *SessionFS) RemoveAll(path string) error {
	return NewInvalidState("SessionFS is read-only")
}
func (fs *SessionFS) Rename(oldpath, newpath string) error {
	return NewInvalidState("SessionFS is read-only")
}
func (fs *SessionFS) Chmod(name string, mode os.FileMode) error {
	return NewInvalidState("SessionFS is read-only")
}
func (fs *SessionFS) Chtimes(name string, atime, mtime time.Time) error {
	return NewInvalidState("SessionFS is read-only")
}
func (fs *SessionFS) Chown(name string, uid, gid int) error {
	return NewInvalidState("SessionFS is read-only")
}
func (fs *SessionFS) Truncate(name string, size int64) error {
	return NewInvalidState("SessionFS is read-only")
}

func (fs *SessionFS) Stat(name string) (os.FileInfo, error) {
	node, err := fs.resolve(name)
	if err != nil {
		return nil, err
	}
	return nodeFileInfo{node: node}, nil
}

func (fs *SessionFS) Separator() uint8     { return '/' }
func (fs *SessionFS) ListSeparator() uint8 { return ':' }
func (fs *SessionFS) Chdir(dir string) error {
	if _, err := fs.resolve(dir); err != nil {
		return err
	}
	return nil
}
func (fs *SessionFS) Getwd() (string, error) { return "/", nil }
func (fs *SessionFS) TempDir() string        { return os.TempDir() }

// sessionFile is the read-only absfs.File handle returned by
// SessionFS.Open: either an in-memory buffer over decrypted plaintext,
// or a directory listing over a Folder's children.
type sessionFile struct {
	name   string
	data   []byte
	offset int64
	isDir  bool
	node   *IndexNode
}

func (f *sessionFile) Read(p []byte) (int, error) {
	if f.isDir {
		return 0, NewInvalidState("is a directory")
	}
	if f.offset >= int64(len(f.data)) {
		return 0, io.EOF
	}
	n := copy(p, f.data[f.offset:])
	f.offset += int64(n)
	return n, nil
}

func (f *sessionFile) ReadAt(p []byte, off int64) (int, error) {
	if f.isDir || off >= int64(len(f.data)) {
		return 0, io.EOF
	}
	n := copy(p, f.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (f *sessionFile) Seek(offset int64, whence int) (int64, error) {
	var base int64
	switch whence {
	case io.SeekStart:
		base = 0
	case io.SeekCurrent:
		base = f.offset
	case io.SeekEnd:
		base = int64(len(f.data))
	}
	f.offset = base + offset
	return f.offset, nil
}

func (f *sessionFile) Write(p []byte) (int, error) {
	return 0, NewInvalidState("SessionFS is read-only")
}
func (f *sessionFile) WriteAt(p []byte, off int64) (int, error) {
	return 0, NewInvalidState("SessionFS is read-only")
}
func (f *sessionFile) WriteString(s string) (int, error) {
	return 0, NewInvalidState("SessionFS is read-only")
}

func (f *sessionFile) Close() error {
	if f.data != nil {
		ZeroBytes(f.data)
	}
	return nil
}

func (f *sessionFile) Name() string { return f.name }

func (f *sessionFile) Readdir(count int) ([]os.FileInfo, error) {
	if !f.isDir {
		return nil, NewInvalidState("not a directory")
	}
	out := make([]os.FileInfo, 0, len(f.node.Children))
	for _, c := range f.node.Children {
		out = append(out, nodeFileInfo{node: c})
	}
	return out, nil
}

func (f *sessionFile) Readdirnames(n int) ([]string, error) {
	if !f.isDir {
		return nil, NewInvalidState("not a directory")
	}
	out := make([]string, 0, len(f.node.Children))
	for _, c := range f.node.Children {
		out = append(out, c.Name)
	}
	return out, nil
}

func (f *sessionFile) Stat() (os.FileInfo, error) {
	return nodeFileInfo{node: f.node}, nil
}

func (f *sessionFile) Sync() error { return nil }

func (f *sessionFile) Truncate(size int64) error {
	return NewInvalidState("SessionFS is read-only")
}

// nodeFileInfo adapts an IndexNode to os.FileInfo for SessionFS's Stat
// and directory listings. SessionFS carries no real file sizes for
// folders and no mtimes at all (the Index records neither), so both are
// zero-valued; callers needing mtimes should stat the materialized
// workspace file instead.
type nodeFileInfo struct{ node *IndexNode }

func (n nodeFileInfo) Name() string { return n.node.Name }
func (n nodeFileInfo) Size() int64 {
	if n.node.Kind == NodeFolder {
		return 0
	}
	return -1 // unknown without decrypting; callers needing size should Open and read.
}
func (n nodeFileInfo) Mode() os.FileMode {
	if n.node.Kind == NodeFolder {
		return os.ModeDir | 0o500
	}
	return 0o400
}
func (n nodeFileInfo) ModTime() time.Time { return time.Time{} }
func (n nodeFileInfo) IsDir() bool        { return n.node.Kind == NodeFolder }
func (n nodeFileInfo) Sys() any           { return nil }
