// Package crypto implements the AEAD primitive and master-key material
// handling used by the vault: AES-256-GCM encryption/decryption, random
// key generation, and mnemonic encoding of key material.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/tyler-smith/go-bip39"
)

const (
	KeyLength   = 32 // AES-256 key length
	NonceLength = 12 // GCM nonce length
)

var (
	ErrInvalidKeyLength  = errors.New("invalid key length")
	ErrInvalidCiphertext = errors.New("invalid ciphertext length")
	ErrDecryptionFailed  = errors.New("decryption failed")
	ErrInvalidMnemonic   = errors.New("invalid mnemonic")
)

// CryptoService implements the AEAD encrypt/decrypt/key-generation
// primitive. It carries no state.
type CryptoService struct{}

func NewCryptoService() *CryptoService {
	return &CryptoService{}
}

// GenerateKey fills 32 bytes from the platform cryptographic RNG.
func (c *CryptoService) GenerateKey() ([]byte, error) {
	key := make([]byte, KeyLength)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	return key, nil
}

// Encrypt seals data under key using AES-256-GCM with a fresh random
// nonce, which is prepended to the returned ciphertext.
func (c *CryptoService) Encrypt(data []byte, key []byte) ([]byte, error) {
	if len(key) != KeyLength {
		return nil, ErrInvalidKeyLength
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	nonce := make([]byte, NonceLength)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	// #nosec G407 -- nonce is randomly generated via crypto/rand above, not hardcoded
	ciphertext := gcm.Seal(nil, nonce, data, nil)

	result := make([]byte, NonceLength+len(ciphertext))
	copy(result[:NonceLength], nonce)
	copy(result[NonceLength:], ciphertext)

	return result, nil
}

// Decrypt opens encryptedData (nonce || ciphertext) under key. Wrong key,
// tampering, and corruption are indistinguishable to the caller: all
// surface as ErrDecryptionFailed, to avoid an oracle on which occurred.
func (c *CryptoService) Decrypt(encryptedData []byte, key []byte) ([]byte, error) {
	if len(key) != KeyLength {
		return nil, ErrInvalidKeyLength
	}
	if len(encryptedData) < NonceLength {
		return nil, ErrInvalidCiphertext
	}

	nonce := encryptedData[:NonceLength]
	ciphertext := encryptedData[NonceLength:]

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrDecryptionFailed
	}

	return plaintext, nil
}

// SecureRandom returns length bytes from the platform cryptographic RNG.
func (c *CryptoService) SecureRandom(length int) ([]byte, error) {
	if length <= 0 {
		return nil, errors.New("invalid length")
	}
	randomBytes := make([]byte, length)
	if _, err := rand.Read(randomBytes); err != nil {
		return nil, fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return randomBytes, nil
}

func (c *CryptoService) ClearKey(key []byte) {
	if key != nil {
		ClearBytes(key)
	}
}

func (c *CryptoService) ClearData(data []byte) {
	if data != nil {
		ClearBytes(data)
	}
}

// ClearBytes securely zeros a byte slice by overwriting with zeros.
// Uses crypto/subtle.ConstantTimeCompare as a compiler barrier to prevent
// the compiler from optimizing away the zeroing operation.
func ClearBytes(data []byte) {
	for i := range data {
		data[i] = 0
	}

	dummy := make([]byte, len(data))
	subtle.ConstantTimeCompare(data, dummy)
}

// EncodeMnemonic renders a 32-byte master key as a 24-word BIP-39
// mnemonic, purely as a human-writable backup form. It is never used to
// re-derive the key from a passphrase; DecodeMnemonic inverts it exactly.
func EncodeMnemonic(key []byte) (string, error) {
	if len(key) != KeyLength {
		return "", ErrInvalidKeyLength
	}
	mnemonic, err := bip39.NewMnemonic(key)
	if err != nil {
		return "", fmt.Errorf("failed to encode mnemonic: %w", err)
	}
	return mnemonic, nil
}

// DecodeMnemonic recovers the original 32-byte key from a mnemonic
// produced by EncodeMnemonic.
func DecodeMnemonic(mnemonic string) ([]byte, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, ErrInvalidMnemonic
	}
	entropy, err := bip39.EntropyFromMnemonic(mnemonic)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMnemonic, err)
	}
	if len(entropy) != KeyLength {
		return nil, ErrInvalidMnemonic
	}
	return entropy, nil
}

// MasterKey wraps 32 bytes of live key material so it is never copied
// loosely through the codebase. Close zeros the underlying buffer; it is
// safe to call multiple times.
type MasterKey struct {
	b []byte
}

// NewMasterKey copies key (which must be exactly 32 bytes) into a
// MasterKey. The caller retains ownership of the original slice.
func NewMasterKey(key []byte) (*MasterKey, error) {
	if len(key) != KeyLength {
		return nil, ErrInvalidKeyLength
	}
	mk := &MasterKey{b: make([]byte, KeyLength)}
	copy(mk.b, key)
	return mk, nil
}

// Bytes returns the raw key bytes. The caller must not retain the
// returned slice beyond the MasterKey's lifetime.
func (mk *MasterKey) Bytes() []byte {
	if mk == nil {
		return nil
	}
	return mk.b
}

func (mk *MasterKey) Close() {
	if mk == nil || mk.b == nil {
		return
	}
	ClearBytes(mk.b)
	mk.b = nil
}
