// Package crypto provides the vault's cryptographic primitives: random
// nonces, keyed hashing, password-based key derivation and authenticated
// symmetric encryption.
//
// The choice of primitives is part of the on-disk format: Blake2b-256 for
// keyed hashing, HKDF-SHA-256 for key derivation and AES-256-GCM with a
// 16-byte nonce for encryption. Substituting any of them breaks
// interoperability with existing stores.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/hkdf"

	"github.com/acristoffers/void/internal/errs"
)

// KeySize is the AES-256 key length in bytes.
const KeySize = 32

// NonceSize is the length of salts and AEAD nonces in bytes.
const NonceSize = 16

// UUID returns 16 fresh random bytes with version-4 UUID semantics.
func UUID() [NonceSize]byte {
	var id [NonceSize]byte
	if _, err := rand.Read(id[:]); err != nil {
		// crypto/rand never fails on supported platforms
		panic(err)
	}
	id[6] = (id[6] & 0x0f) | 0x40
	id[8] = (id[8] & 0x3f) | 0x80
	return id
}

// Hash returns the Blake2b-256 keyed digest of data ‖ '$' ‖ salt.
func Hash(data []byte, salt [NonceSize]byte) [KeySize]byte {
	h, err := blake2b.New(KeySize, nil)
	if err != nil {
		panic(err)
	}
	h.Write(data)
	h.Write([]byte("$"))
	h.Write(salt[:])
	var digest [KeySize]byte
	copy(digest[:], h.Sum(nil))
	return digest
}

// DeriveKey derives a 32-byte AES key from a password using HKDF-SHA-256.
// The password is the input key material, salt seeds the extraction and
// iv is mixed in as the expansion info. Deterministic.
func DeriveKey(password string, salt, iv [NonceSize]byte) [KeySize]byte {
	kdf := hkdf.New(sha256.New, []byte(password), salt[:], iv[:])
	var key [KeySize]byte
	if _, err := io.ReadFull(kdf, key[:]); err != nil {
		panic(err)
	}
	return key
}

// Encrypt seals data with AES-256-GCM using iv as the nonce.
// The 16-byte GCM tag is appended to the ciphertext.
func Encrypt(data []byte, key [KeySize]byte, iv [NonceSize]byte) ([]byte, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, errs.ErrCannotEncrypt)
	}
	return aead.Seal(nil, iv[:], data, nil), nil
}

// Decrypt opens an Encrypt ciphertext. A tag mismatch or malformed input
// yields ErrCannotDecrypt; against a store journal this is the
// wrong-password signal.
func Decrypt(ct []byte, key [KeySize]byte, iv [NonceSize]byte) ([]byte, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, errs.ErrCannotDecrypt)
	}
	plain, err := aead.Open(nil, iv[:], ct, nil)
	if err != nil {
		return nil, errs.ErrCannotDecrypt
	}
	return plain, nil
}

func newAEAD(key [KeySize]byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, err
	}
	return cipher.NewGCMWithNonceSize(block, NonceSize)
}
