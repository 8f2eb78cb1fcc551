package vaultkeep

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestRunOnWorker_DeliversResult(t *testing.T) {
	want := errors.New("boom")
	got := <-runOnWorker(func() error { return want })
	if got != want {
		t.Fatalf("runOnWorker result = %v, want %v", got, want)
	}
}

func TestRunOnWorker_RecoversPanic(t *testing.T) {
	err := <-runOnWorker(func() error { panic("worker blew up") })
	if !IsIOFailure(err) {
		t.Fatalf("runOnWorker(panicking fn) = %v, want IOFailure", err)
	}
}

func TestCreateAsync(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "v")
	if err := <-CreateAsync(dir, "Notes", []byte("pw")); err != nil {
		t.Fatalf("CreateAsync: %v", err)
	}
	if !IsVault(dir) {
		t.Fatalf("IsVault(dir) = false after CreateAsync")
	}
}

func TestSession_LockAsync(t *testing.T) {
	vaultDir := filepath.Join(t.TempDir(), "v")
	cfg := newTestConfig(t)
	if err := Create(vaultDir, "Notes", []byte("pw")); err != nil {
		t.Fatalf("Create: %v", err)
	}
	handle, err := Open(vaultDir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	sess, err := Unlock(handle, []byte("pw"), cfg, nil)
	if err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	if err := <-sess.LockAsync(nil); err != nil {
		t.Fatalf("LockAsync: %v", err)
	}
	if sess.IsUnlocked() {
		t.Fatalf("session still Unlocked after LockAsync succeeded")
	}
}

func TestCleanLeftoverWorkspacesAsync(t *testing.T) {
	cfg := newTestConfig(t)
	if err := <-CleanLeftoverWorkspacesAsync(nil, cfg); err != nil {
		t.Fatalf("CleanLeftoverWorkspacesAsync(nil): %v", err)
	}
}

func TestReportProgress_NilCallbackIsNoOp(t *testing.T) {
	reportProgress(nil, 1, 2) // must not panic
}

func TestUnlockAsync(t *testing.T) {
	vaultDir := filepath.Join(t.TempDir(), "v")
	cfg := newTestConfig(t)
	if err := Create(vaultDir, "Notes", []byte("pw")); err != nil {
		t.Fatalf("Create: %v", err)
	}
	handle, err := Open(vaultDir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	result := <-UnlockAsync(handle, []byte("pw"), cfg, nil)
	if result.Err != nil {
		t.Fatalf("UnlockAsync: %v", result.Err)
	}
	if err := result.Session.Lock(nil); err != nil {
		t.Fatalf("Lock: %v", err)
	}
}
