package vaultkeep

import (
	"bytes"
	"testing"
)

func testKey(b byte) [keySize]byte {
	var k [keySize]byte
	for i := range k {
		k[i] = b
	}
	return k
}

func TestEncryptDecryptBlob_RoundTrip(t *testing.T) {
	key := testKey(0x42)
	plaintext := []byte("hello\n")

	blob, err := EncryptBlob(key, plaintext)
	if err != nil {
		t.Fatalf("EncryptBlob: %v", err)
	}
	got, err := DecryptBlob(key, blob)
	if err != nil {
		t.Fatalf("DecryptBlob: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Fatalf("DecryptBlob = %q, want %q", got, plaintext)
	}
}

func TestEncryptBlob_FreshNoncePerCall(t *testing.T) {
	key := testKey(0x11)
	plaintext := []byte("same plaintext every time")

	b1, err := EncryptBlob(key, plaintext)
	if err != nil {
		t.Fatalf("EncryptBlob: %v", err)
	}
	b2, err := EncryptBlob(key, plaintext)
	if err != nil {
		t.Fatalf("EncryptBlob: %v", err)
	}
	if bytes.Equal(b1, b2) {
		t.Fatalf("two encryptions of the same plaintext produced identical blobs (nonce reuse)")
	}
}

func TestDecryptBlob_WrongKeyFails(t *testing.T) {
	blob, err := EncryptBlob(testKey(0x01), []byte("secret"))
	if err != nil {
		t.Fatalf("EncryptBlob: %v", err)
	}
	_, err = DecryptBlob(testKey(0x02), blob)
	if !IsDecryptFailure(err) {
		t.Fatalf("DecryptBlob(wrong key) = %v, want DecryptFailure", err)
	}
}

func TestDecryptBlob_TamperDetection(t *testing.T) {
	key := testKey(0x33)
	blob, err := EncryptBlob(key, []byte("tamper me if you can"))
	if err != nil {
		t.Fatalf("EncryptBlob: %v", err)
	}

	flipBitAt := func(idx int) []byte {
		out := append([]byte(nil), blob...)
		out[idx] ^= 0x01
		return out
	}

	for _, idx := range []int{len(blob) - 1, len(blob) - gcmTagSize, len(blob) / 2} {
		if idx < 0 || idx >= len(blob) {
			continue
		}
		tampered := flipBitAt(idx)
		if _, err := DecryptBlob(key, tampered); !IsDecryptFailure(err) {
			t.Errorf("DecryptBlob(tampered byte at %d) = %v, want DecryptFailure", idx, err)
		}
	}
}

func TestDecryptBlob_TruncatedHeaderLength(t *testing.T) {
	_, err := DecryptBlob(testKey(0x01), []byte{1, 2})
	if !IsDecryptFailure(err) {
		t.Fatalf("DecryptBlob(truncated) = %v, want DecryptFailure", err)
	}
}

func TestDecryptBlob_HeaderLengthBeyondBuffer(t *testing.T) {
	blob := []byte{0xff, 0xff, 0xff, 0x7f} // huge header_len, no data follows
	_, err := DecryptBlob(testKey(0x01), blob)
	if !IsDecryptFailure(err) {
		t.Fatalf("DecryptBlob(oversized header_len) = %v, want DecryptFailure", err)
	}
}

func TestDecryptBlob_UnknownVersion(t *testing.T) {
	key := testKey(0x77)
	blob, err := EncryptBlob(key, []byte("x"))
	if err != nil {
		t.Fatalf("EncryptBlob: %v", err)
	}

	// Corrupt the header JSON's version digit (the header is "version":1 —
	// bump it to 9, which also changes the associated data bound into GCM,
	// so this simultaneously exercises "unknown version" and "AD tamper".
	corrupted := bytes.Replace(blob, []byte(`"version":1`), []byte(`"version":9`), 1)
	if bytes.Equal(corrupted, blob) {
		t.Fatal("test setup: expected header JSON to contain \"version\":1")
	}
	if _, err := DecryptBlob(key, corrupted); !IsDecryptFailure(err) {
		t.Fatalf("DecryptBlob(altered version) = %v, want DecryptFailure", err)
	}
}

func TestDecryptBlob_EmptyPlaintextRoundTrips(t *testing.T) {
	key := testKey(0x55)
	blob, err := EncryptBlob(key, nil)
	if err != nil {
		t.Fatalf("EncryptBlob(empty): %v", err)
	}
	got, err := DecryptBlob(key, blob)
	if err != nil {
		t.Fatalf("DecryptBlob(empty): %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("DecryptBlob(empty) = %q, want empty", got)
	}
}
