package vaultkeep

import (
	"io"
	"path/filepath"
	"testing"
)

func TestSessionFS_ReadsDecryptedFileByRealPath(t *testing.T) {
	vaultDir := filepath.Join(t.TempDir(), "v")
	password := []byte("pw")
	cfg := newTestConfig(t)

	if err := Create(vaultDir, "Notes", password); err != nil {
		t.Fatalf("Create: %v", err)
	}
	handle, _ := Open(vaultDir)
	sess, err := Unlock(handle, password, cfg, nil)
	if err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	if err := writeFile(filepath.Join(sess.WorkspacePath(), "Ideas.md"), "hello\n"); err != nil {
		t.Fatalf("writeFile: %v", err)
	}
	if err := sess.Lock(nil); err != nil {
		t.Fatalf("Lock: %v", err)
	}

	handle2, _ := Open(vaultDir)
	sess2, err := Unlock(handle2, password, cfg, nil)
	if err != nil {
		t.Fatalf("Unlock (2nd): %v", err)
	}
	defer sess2.Lock(nil)

	browser, err := sess2.Browse()
	if err != nil {
		t.Fatalf("Browse: %v", err)
	}
	f, err := browser.Open("Ideas.md")
	if err != nil {
		t.Fatalf("Open(Ideas.md): %v", err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(data) != "hello\n" {
		t.Fatalf("content = %q, want %q", data, "hello\n")
	}
}

func TestSessionFS_IsReadOnly(t *testing.T) {
	vaultDir := filepath.Join(t.TempDir(), "v")
	password := []byte("pw")
	cfg := newTestConfig(t)
	if err := Create(vaultDir, "Notes", password); err != nil {
		t.Fatalf("Create: %v", err)
	}
	handle, _ := Open(vaultDir)
	sess, err := Unlock(handle, password, cfg, nil)
	if err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	defer sess.Lock(nil)

	browser, err := sess.Browse()
	if err != nil {
		t.Fatalf("Browse: %v", err)
	}
	if _, err := browser.Create("new.md"); !IsInvalidState(err) {
		t.Fatalf("Create on SessionFS = %v, want InvalidState", err)
	}
	if err := browser.Mkdir("sub", 0o700); !IsInvalidState(err) {
		t.Fatalf("Mkdir on SessionFS = %v, want InvalidState", err)
	}
}

func TestSessionFS_RequiresUnlockedSession(t *testing.T) {
	vaultDir := filepath.Join(t.TempDir(), "v")
	password := []byte("pw")
	cfg := newTestConfig(t)
	if err := Create(vaultDir, "Notes", password); err != nil {
		t.Fatalf("Create: %v", err)
	}
	handle, _ := Open(vaultDir)
	sess, err := Unlock(handle, password, cfg, nil)
	if err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	if err := sess.Lock(nil); err != nil {
		t.Fatalf("Lock: %v", err)
	}
	if _, err := sess.Browse(); !IsInvalidState(err) {
		t.Fatalf("Browse on a locked session = %v, want InvalidState", err)
	}
}

func writeFile(path, content string) error {
	return AtomicWrite(filepath.Dir(path), filepath.Base(path), []byte(content))
}
