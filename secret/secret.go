// Package secret derives and persists the cryptographic keys that protect a
// bucket: the 32-byte master secret, the keys derived from it for tokens and
// individual blobs, and the password-wrapped envelope that lets the master
// secret survive a restart without ever touching disk unencrypted.
package secret

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/chacha20poly1305"

	"mediavault/vaulterr"
)

// Size is the byte length of a master secret.
const Size = 32

// Secret is a 32-byte key used as the root of all per-bucket key material.
type Secret [Size]byte

// Random draws a new Secret from the system CSPRNG.
func Random() (Secret, error) {
	var s Secret
	if _, err := rand.Read(s[:]); err != nil {
		return Secret{}, vaulterr.IO.Wrap(err)
	}
	return s, nil
}

// DeriveForTokenSecret returns SHA-256(secret || "token-secret"), used as the
// HMAC key for the instance's auth tokens.
func (s Secret) DeriveForTokenSecret() [32]byte {
	h := sha256.New()
	h.Write(s[:])
	h.Write([]byte("token-secret"))
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// DeriveFromUUID returns SHA-256(secret || uuid-bytes), the per-blob key fed
// to the blob store's stream cipher.
func (s Secret) DeriveFromUUID(id uuid.UUID) [32]byte {
	h := sha256.New()
	h.Write(s[:])
	idBytes := id
	h.Write(idBytes[:])
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// EncryptedSecret persists a master Secret at rest, wrapped by a user
// password. Multiple EncryptedSecrets (one per known password) may coexist
// to support password rotation without re-encrypting the bucket.
type EncryptedSecret struct {
	Salt         [12]byte
	PasswordHash [32]byte
	Ciphertext   []byte
}

// Encrypt wraps secret with password: a fresh random salt seeds both the
// advisory password hash and the AEAD nonce (the nonce is safe to reuse
// across the encrypted-secret's lifetime because each EncryptedSecret is
// written once and never re-encrypted in place).
func Encrypt(password string, s Secret) (EncryptedSecret, error) {
	var salt [12]byte
	if _, err := rand.Read(salt[:]); err != nil {
		return EncryptedSecret{}, vaulterr.IO.Wrap(err)
	}

	aead, err := chacha20poly1305.New(padKey(password))
	if err != nil {
		return EncryptedSecret{}, vaulterr.IO.Wrap(err)
	}

	ciphertext := aead.Seal(nil, salt[:], s[:], nil)

	return EncryptedSecret{
		Salt:         salt,
		PasswordHash: passwordHash(salt, password),
		Ciphertext:   ciphertext,
	}, nil
}

// ValidPassword reports whether password matches the advisory hash. This is
// a fast-path rejection only; Decrypt's AEAD tag is the authoritative check.
func (e EncryptedSecret) ValidPassword(password string) bool {
	got := passwordHash(e.Salt, password)
	return subtle.ConstantTimeCompare(got[:], e.PasswordHash[:]) == 1
}

// Decrypt attempts to recover the master secret with password. It does not
// trust ValidPassword; it always performs the AEAD open.
func (e EncryptedSecret) Decrypt(password string) (Secret, error) {
	aead, err := chacha20poly1305.New(padKey(password))
	if err != nil {
		return Secret{}, vaulterr.IO.Wrap(err)
	}

	plaintext, err := aead.Open(nil, e.Salt[:], e.Ciphertext, nil)
	if err != nil {
		return Secret{}, vaulterr.InvalidPassword.Wrap(err)
	}
	if len(plaintext) != Size {
		return Secret{}, vaulterr.InvalidPassword.New("decrypted secret has wrong length: %d", len(plaintext))
	}

	var s Secret
	copy(s[:], plaintext)
	return s, nil
}

func passwordHash(salt [12]byte, password string) [32]byte {
	h := sha256.New()
	h.Write(salt[:])
	h.Write([]byte(password))
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// padKey right-pads (or truncates) password with spaces to the AEAD key
// size, per the on-disk format's key derivation.
func padKey(password string) []byte {
	key := make([]byte, chacha20poly1305.KeySize)
	n := copy(key, password)
	for i := n; i < len(key); i++ {
		key[i] = ' '
	}
	return key
}

// encryptedSecretJSON is the wire shape for EncryptedSecret: every binary
// field is base64-encoded, since JSON has no native byte-string type.
type encryptedSecretJSON struct {
	Salt         string `json:"salt"`
	PasswordHash string `json:"password_hash"`
	Ciphertext   string `json:"encrypted_secret"`
}

// MarshalJSON encodes every binary field as base64.
func (e EncryptedSecret) MarshalJSON() ([]byte, error) {
	return json.Marshal(encryptedSecretJSON{
		Salt:         base64.StdEncoding.EncodeToString(e.Salt[:]),
		PasswordHash: base64.StdEncoding.EncodeToString(e.PasswordHash[:]),
		Ciphertext:   base64.StdEncoding.EncodeToString(e.Ciphertext),
	})
}

// UnmarshalJSON decodes the base64 wire shape back into binary fields.
func (e *EncryptedSecret) UnmarshalJSON(data []byte) error {
	var wire encryptedSecretJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	salt, err := base64.StdEncoding.DecodeString(wire.Salt)
	if err != nil {
		return fmt.Errorf("decode salt: %w", err)
	}
	if len(salt) != len(e.Salt) {
		return fmt.Errorf("salt has wrong length: %d", len(salt))
	}
	hash, err := base64.StdEncoding.DecodeString(wire.PasswordHash)
	if err != nil {
		return fmt.Errorf("decode password_hash: %w", err)
	}
	if len(hash) != len(e.PasswordHash) {
		return fmt.Errorf("password_hash has wrong length: %d", len(hash))
	}
	cipher, err := base64.StdEncoding.DecodeString(wire.Ciphertext)
	if err != nil {
		return fmt.Errorf("decode encrypted_secret: %w", err)
	}

	copy(e.Salt[:], salt)
	copy(e.PasswordHash[:], hash)
	e.Ciphertext = cipher
	return nil
}

// EncryptionMetadata is the on-disk, JSON-serializable set of encrypted
// secrets for a bucket (encryption.json).
type EncryptionMetadata struct {
	EncryptedSecrets []EncryptedSecret `json:"encrypted_secrets"`
}

// Unlock tries each encrypted secret in m against password, returning the
// first master secret that decrypts successfully.
func (m EncryptionMetadata) Unlock(password string) (Secret, error) {
	for _, es := range m.EncryptedSecrets {
		if !es.ValidPassword(password) {
			continue
		}
		s, err := es.Decrypt(password)
		if err == nil {
			return s, nil
		}
	}
	return Secret{}, vaulterr.InvalidPassword.New("no encrypted secret unlocks with the given password")
}

// AddPassword appends a fresh EncryptedSecret wrapping secret under a new
// password, supporting password rotation without touching existing entries.
func (m *EncryptionMetadata) AddPassword(password string, s Secret) error {
	es, err := Encrypt(password, s)
	if err != nil {
		return fmt.Errorf("add password: %w", err)
	}
	m.EncryptedSecrets = append(m.EncryptedSecrets, es)
	return nil
}
