// Package security provides encryption of sensitive patient fields and export files.
package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// SaltSize is the size of the salt in bytes.
	SaltSize = 16
	// NonceSize is the size of the GCM nonce in bytes.
	NonceSize = 12
	// KeySizeAES is the AES-256 key size in bytes.
	KeySizeAES = 32
	// PBKDF2Iterations is the number of PBKDF2 iterations.
	PBKDF2Iterations = 100000
	// EncryptedFileSuffix marks encrypted export files.
	EncryptedFileSuffix = ".enc"

	fieldPrefix = "enc:v1:"
)

// fieldSalt is fixed so every process derives the same field key from the master key.
var fieldSalt = []byte("heartpath-fields")

// EncryptedData holds the components needed to decrypt a file.
type EncryptedData struct {
	Salt       []byte `json:"salt"`
	Nonce      []byte `json:"nonce"`
	Ciphertext []byte `json:"ciphertext"`
}

// DeriveKey derives an AES-256 key from a password and salt using PBKDF2.
func DeriveKey(password, salt []byte) []byte {
	return pbkdf2.Key(password, salt, PBKDF2Iterations, KeySizeAES, sha256.New)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create GCM: %w", err)
	}
	return gcm, nil
}

func randomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("read random: %w", err)
	}
	return b, nil
}

// FieldCipher encrypts short text columns such as message bodies and symptom
// notes. The key is derived once, so per-row cost is a single AES-GCM seal.
type FieldCipher struct {
	aead cipher.AEAD
}

// NewFieldCipher derives the field key from masterKey.
func NewFieldCipher(masterKey []byte) (*FieldCipher, error) {
	if len(masterKey) == 0 {
		return nil, errors.New("master key is required")
	}
	aead, err := newGCM(DeriveKey(masterKey, fieldSalt))
	if err != nil {
		return nil, err
	}
	return &FieldCipher{aead: aead}, nil
}

// EncryptString returns "enc:v1:" followed by base64(nonce|ciphertext).
// Empty input stays empty.
func (c *FieldCipher) EncryptString(plain string) (string, error) {
	if plain == "" {
		return "", nil
	}
	nonce, err := randomBytes(NonceSize)
	if err != nil {
		return "", err
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(plain), nil)
	return fieldPrefix + base64.StdEncoding.EncodeToString(sealed), nil
}

// DecryptString reverses EncryptString. Values without the prefix are
// returned unchanged so rows written before encryption stay readable.
func (c *FieldCipher) DecryptString(stored string) (string, error) {
	if !strings.HasPrefix(stored, fieldPrefix) {
		return stored, nil
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(stored, fieldPrefix))
	if err != nil {
		return "", fmt.Errorf("decode field: %w", err)
	}
	if len(raw) < NonceSize {
		return "", errors.New("encrypted field too short")
	}
	plain, err := c.aead.Open(nil, raw[:NonceSize], raw[NonceSize:], nil)
	if err != nil {
		return "", fmt.Errorf("decrypt field: %w", err)
	}
	return string(plain), nil
}

// Encrypt encrypts plaintext with a key derived from password and a fresh salt.
func Encrypt(plaintext, password []byte) (*EncryptedData, error) {
	salt, err := randomBytes(SaltSize)
	if err != nil {
		return nil, err
	}
	gcm, err := newGCM(DeriveKey(password, salt))
	if err != nil {
		return nil, err
	}
	nonce, err := randomBytes(NonceSize)
	if err != nil {
		return nil, err
	}
	return &EncryptedData{
		Salt:       salt,
		Nonce:      nonce,
		Ciphertext: gcm.Seal(nil, nonce, plaintext, nil),
	}, nil
}

// Decrypt reverses Encrypt.
func Decrypt(data *EncryptedData, password []byte) ([]byte, error) {
	if data == nil {
		return nil, errors.New("encrypted data is nil")
	}
	if len(data.Salt) != SaltSize {
		return nil, fmt.Errorf("invalid salt size: got %d, want %d", len(data.Salt), SaltSize)
	}
	if len(data.Nonce) != NonceSize {
		return nil, fmt.Errorf("invalid nonce size: got %d, want %d", len(data.Nonce), NonceSize)
	}
	gcm, err := newGCM(DeriveKey(password, data.Salt))
	if err != nil {
		return nil, err
	}
	plaintext, err := gcm.Open(nil, data.Nonce, data.Ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("decrypt: %w", err)
	}
	return plaintext, nil
}

// ReadEncryptedFile reads path, decrypting it when it carries the .enc suffix.
func ReadEncryptedFile(path string, password []byte) ([]byte, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	if !strings.HasSuffix(path, EncryptedFileSuffix) {
		return content, nil
	}
	if len(password) == 0 {
		return nil, errors.New("password required for encrypted file")
	}
	var data EncryptedData
	if err := json.Unmarshal(content, &data); err != nil {
		return nil, fmt.Errorf("parse encrypted file: %w", err)
	}
	return Decrypt(&data, password)
}

// WriteEncryptedFile encrypts plaintext and writes it with mode 0600, adding
// the .enc suffix when missing. It returns the final path.
func WriteEncryptedFile(path string, plaintext, password []byte) (string, error) {
	if !strings.HasSuffix(path, EncryptedFileSuffix) {
		path += EncryptedFileSuffix
	}
	if len(password) == 0 {
		return "", errors.New("password required for encryption")
	}
	data, err := Encrypt(plaintext, password)
	if err != nil {
		return "", err
	}
	content, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("marshal encrypted data: %w", err)
	}
	if err := os.WriteFile(path, content, 0600); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return path, nil
}
