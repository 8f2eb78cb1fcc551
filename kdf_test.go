package vaultkeep

import (
	"testing"
)

func TestDeriveMasterKey_Deterministic(t *testing.T) {
	salt := Salt{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}
	password := []byte("correct horse battery staple")

	k1, err := DeriveMasterKey(password, salt)
	if err != nil {
		t.Fatalf("DeriveMasterKey: %v", err)
	}
	k2, err := DeriveMasterKey(password, salt)
	if err != nil {
		t.Fatalf("DeriveMasterKey: %v", err)
	}
	if k1 != k2 {
		t.Fatalf("DeriveMasterKey is not deterministic for the same (password, salt)")
	}
	if len(k1) != keySize {
		t.Fatalf("DeriveMasterKey produced %d bytes, want %d", len(k1), keySize)
	}
}

func TestDeriveMasterKey_DifferentSaltDifferentKey(t *testing.T) {
	password := []byte("correct horse battery staple")
	saltA := Salt{1}
	saltB := Salt{2}

	ka, err := DeriveMasterKey(password, saltA)
	if err != nil {
		t.Fatalf("DeriveMasterKey: %v", err)
	}
	kb, err := DeriveMasterKey(password, saltB)
	if err != nil {
		t.Fatalf("DeriveMasterKey: %v", err)
	}
	if ka == kb {
		t.Fatalf("different salts produced the same master key")
	}
}

func TestDeriveMasterKey_EmptyPassword(t *testing.T) {
	_, err := DeriveMasterKey(nil, Salt{})
	if !IsInvalidInput(err) {
		t.Fatalf("DeriveMasterKey(empty password) = %v, want InvalidInput", err)
	}
}

func TestDeriveMasterKey_WrongCaseIsADifferentKey(t *testing.T) {
	salt := Salt{9, 9, 9}
	k1, _ := DeriveMasterKey([]byte("correct horse battery staple"), salt)
	k2, _ := DeriveMasterKey([]byte("CORRECT HORSE BATTERY STAPLE"), salt)
	if k1 == k2 {
		t.Fatalf("differently-cased passwords produced the same master key")
	}
}

func TestLegacyKeyCheck(t *testing.T) {
	tests := []struct {
		alg     string
		wantErr bool
	}{
		{alg: "", wantErr: false},
		{alg: "argon2id", wantErr: false},
		{alg: "pbkdf2-sha256", wantErr: true},
		{alg: "bcrypt", wantErr: true},
		{alg: "scrypt", wantErr: true},
	}
	for _, tt := range tests {
		err := LegacyKeyCheck(tt.alg)
		if (err != nil) != tt.wantErr {
			t.Errorf("LegacyKeyCheck(%q) = %v, wantErr %v", tt.alg, err, tt.wantErr)
		}
		if err != nil && !IsInvalidInput(err) {
			t.Errorf("LegacyKeyCheck(%q) returned non-InvalidInput error: %v", tt.alg, err)
		}
	}
}
