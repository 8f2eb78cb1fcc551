package vaultkeep

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
)

const blobVersion = 1
const blobAlg = "AES-256-GCM"

// blobHeader is the small structured record that precedes every
// ciphertext on disk. It is serialized as JSON and that exact JSON byte
// sequence is bound into the GCM associated data, so altering any of
// these fields breaks authentication the same way altering the
// ciphertext does.
type blobHeader struct {
	Version int    `json:"version"`
	Alg     string `json:"alg"`
	Nonce   string `json:"nonce"` // base64
}

// EncryptBlob seals plaintext under key and writes the on-disk layout
// spec.md §4.3 defines: a 4-byte little-endian header length, the JSON
// header, the AES-256-GCM ciphertext, and its 16-byte tag appended by
// cipher.AEAD.Seal. A fresh random nonce is generated for every call;
// this package never caches or reuses one.
func EncryptBlob(key [keySize]byte, plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, NewIOFailure("", err)
	}
	gcm, err := cipher.NewGCMWithNonceSize(block, gcmNonceSize)
	if err != nil {
		return nil, NewIOFailure("", err)
	}

	nonce := make([]byte, gcmNonceSize)
	if err := randomBytes(nonce); err != nil {
		return nil, NewIOFailure("", err)
	}

	hdr := blobHeader{Version: blobVersion, Alg: blobAlg, Nonce: base64.StdEncoding.EncodeToString(nonce)}
	hdrJSON, err := json.Marshal(hdr)
	if err != nil {
		return nil, NewIOFailure("", err)
	}

	sealed := gcm.Seal(nil, nonce, plaintext, hdrJSON)

	lenField := make([]byte, 4)
	binary.LittleEndian.PutUint32(lenField, uint32(len(hdrJSON)))

	out := make([]byte, 0, 4+len(hdrJSON)+len(sealed))
	out = append(out, lenField...)
	out = append(out, hdrJSON...)
	out = append(out, sealed...)
	return out, nil
}

// DecryptBlob verifies and opens a blob produced by EncryptBlob. Any
// structural problem — truncated header-length field, unparsable JSON,
// an unrecognized version or algorithm, or GCM tag verification failure
// — is reported identically as DecryptFailure, so no caller can
// distinguish "wrong key" from "corrupt file" from the error alone.
func DecryptBlob(key [keySize]byte, blob []byte) ([]byte, error) {
	const fail = "blob"
	if len(blob) < 4 {
		return nil, NewDecryptFailure(fail, nil)
	}
	hdrLen := binary.LittleEndian.Uint32(blob[:4])
	if uint64(4)+uint64(hdrLen) > uint64(len(blob)) {
		return nil, NewDecryptFailure(fail, nil)
	}
	hdrJSON := blob[4 : 4+hdrLen]

	var hdr blobHeader
	if err := json.Unmarshal(hdrJSON, &hdr); err != nil {
		return nil, NewDecryptFailure(fail, err)
	}
	if hdr.Version != blobVersion || hdr.Alg != blobAlg {
		return nil, NewDecryptFailure(fail, nil)
	}
	nonce, err := base64.StdEncoding.DecodeString(hdr.Nonce)
	if err != nil || len(nonce) != gcmNonceSize {
		return nil, NewDecryptFailure(fail, err)
	}

	ciphertext := blob[4+hdrLen:]

	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, NewDecryptFailure(fail, err)
	}
	gcm, err := cipher.NewGCMWithNonceSize(block, gcmNonceSize)
	if err != nil {
		return nil, NewDecryptFailure(fail, err)
	}

	plaintext, err := gcm.Open(nil, nonce, ciphertext, hdrJSON)
	if err != nil {
		return nil, NewDecryptFailure(fail, err)
	}
	return plaintext, nil
}
