package security

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDeriveKey(t *testing.T) {
	salt := []byte("1234567890123456")
	key := DeriveKey([]byte("pw"), salt)
	if len(key) != KeySizeAES {
		t.Errorf("key size: got %d, want %d", len(key), KeySizeAES)
	}
	if !bytes.Equal(key, DeriveKey([]byte("pw"), salt)) {
		t.Error("same inputs should produce same key")
	}
	if bytes.Equal(key, DeriveKey([]byte("other"), salt)) {
		t.Error("different password should produce different key")
	}
}

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	password := []byte("export-password")
	plain := []byte(`{"patient":"p1","metrics":[]}`)

	data, err := Encrypt(plain, password)
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	if bytes.Contains(data.Ciphertext, plain) {
		t.Error("ciphertext should not contain plaintext")
	}

	got, err := Decrypt(data, password)
	if err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}
	if !bytes.Equal(got, plain) {
		t.Errorf("round trip: got %q, want %q", got, plain)
	}

	if _, err := Decrypt(data, []byte("wrong")); err == nil {
		t.Error("wrong password should fail")
	}
}

func TestDecrypt_InvalidInput(t *testing.T) {
	if _, err := Decrypt(nil, []byte("pw")); err == nil {
		t.Error("nil data should fail")
	}
	if _, err := Decrypt(&EncryptedData{Salt: []byte("short"), Nonce: make([]byte, NonceSize)}, []byte("pw")); err == nil {
		t.Error("short salt should fail")
	}
	if _, err := Decrypt(&EncryptedData{Salt: make([]byte, SaltSize), Nonce: []byte("x")}, []byte("pw")); err == nil {
		t.Error("short nonce should fail")
	}
}

func TestFieldCipher(t *testing.T) {
	c, err := NewFieldCipher([]byte("master-key"))
	if err != nil {
		t.Fatalf("NewFieldCipher failed: %v", err)
	}

	enc, err := c.EncryptString("chest tightness after stairs")
	if err != nil {
		t.Fatalf("EncryptString failed: %v", err)
	}
	if !strings.HasPrefix(enc, fieldPrefix) {
		t.Errorf("encrypted value %q missing prefix", enc)
	}

	enc2, _ := c.EncryptString("chest tightness after stairs")
	if enc == enc2 {
		t.Error("nonces should differ between encryptions")
	}

	got, err := c.DecryptString(enc)
	if err != nil {
		t.Fatalf("DecryptString failed: %v", err)
	}
	if got != "chest tightness after stairs" {
		t.Errorf("DecryptString = %q", got)
	}

	// A second cipher from the same key reads the same data.
	c2, _ := NewFieldCipher([]byte("master-key"))
	if got, err := c2.DecryptString(enc); err != nil || got != "chest tightness after stairs" {
		t.Errorf("second cipher: %q, %v", got, err)
	}
}

func TestFieldCipher_PassThrough(t *testing.T) {
	c, _ := NewFieldCipher([]byte("k"))

	if enc, _ := c.EncryptString(""); enc != "" {
		t.Errorf("empty input encrypted to %q", enc)
	}
	if got, _ := c.DecryptString("legacy plain text"); got != "legacy plain text" {
		t.Errorf("plain value changed: %q", got)
	}
	if _, err := c.DecryptString(fieldPrefix + "!!!"); err == nil {
		t.Error("bad base64 should fail")
	}

	other, _ := NewFieldCipher([]byte("other"))
	enc, _ := c.EncryptString("secret")
	if _, err := other.DecryptString(enc); err == nil {
		t.Error("wrong key should fail")
	}
}

func TestNewFieldCipher_EmptyKey(t *testing.T) {
	if _, err := NewFieldCipher(nil); err == nil {
		t.Error("empty key should fail")
	}
}

func TestReadWriteEncryptedFile(t *testing.T) {
	dir := t.TempDir()
	password := []byte("pw")
	content := []byte("export body")

	path, err := WriteEncryptedFile(filepath.Join(dir, "export.json"), content, password)
	if err != nil {
		t.Fatalf("WriteEncryptedFile failed: %v", err)
	}
	if !strings.HasSuffix(path, EncryptedFileSuffix) {
		t.Errorf("path %q missing suffix", path)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("mode = %v, want 0600", info.Mode().Perm())
	}

	got, err := ReadEncryptedFile(path, password)
	if err != nil {
		t.Fatalf("ReadEncryptedFile failed: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Errorf("got %q, want %q", got, content)
	}

	if _, err := ReadEncryptedFile(path, nil); err == nil {
		t.Error("missing password should fail")
	}
	if _, err := WriteEncryptedFile(filepath.Join(dir, "x"), content, nil); err == nil {
		t.Error("write without password should fail")
	}
}

func TestReadEncryptedFile_PlainFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.json")
	if err := os.WriteFile(path, []byte("{}"), 0600); err != nil {
		t.Fatal(err)
	}
	got, err := ReadEncryptedFile(path, nil)
	if err != nil || string(got) != "{}" {
		t.Errorf("ReadEncryptedFile = %q, %v", got, err)
	}
}
