// Package tokencrypt obfuscates credentials before they reach local storage.
//
// It keeps stored tokens unreadable to casual inspection of the storage file.
// It does not protect against a compromised client process, which holds the
// secret in memory.
package tokencrypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/crypto/hkdf"

	"github.com/ericfisherdev/streamhub/internal/domain/model"
)

const (
	version   = "v1."
	saltSize  = 16
	keySize   = 32 // AES-256
	hkdfLabel = "streamhub credential v1"
)

var (
	// ErrMalformed is returned when a ciphertext is not in the expected format.
	ErrMalformed = errors.New("tokencrypt: malformed ciphertext")
	// ErrDecrypt is returned when a ciphertext fails authentication, usually
	// because it was produced with a different secret.
	ErrDecrypt = errors.New("tokencrypt: decryption failed")
)

// Cipher encrypts and decrypts credentials with a single process-wide secret.
// With no secret it passes values through unchanged and logs a warning once.
type Cipher struct {
	secret   []byte
	logger   *slog.Logger
	warnOnce sync.Once
}

// New creates a Cipher. An empty secret selects the pass-through mode.
func New(secret string, logger *slog.Logger) *Cipher {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Cipher{logger: logger}
	if secret != "" {
		c.secret = []byte(secret)
	}
	return c
}

// State reports whether a secret is configured.
func (c *Cipher) State() model.SecretState {
	if len(c.secret) == 0 {
		return model.SecretMissing
	}
	return model.SecretConfigured
}

// Encrypt returns "v1." followed by base64url(salt || nonce || sealed).
// A fresh salt and nonce are drawn for every call.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	if c.State() == model.SecretMissing {
		c.warnMissing()
		return plaintext, nil
	}

	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", fmt.Errorf("rand salt: %w", err)
	}

	gcm, err := c.aead(salt)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("rand nonce: %w", err)
	}

	out := make([]byte, 0, saltSize+len(nonce)+len(plaintext)+gcm.Overhead())
	out = append(out, salt...)
	out = append(out, nonce...)
	out = gcm.Seal(out, nonce, []byte(plaintext), nil)

	return version + base64.RawURLEncoding.EncodeToString(out), nil
}

// Decrypt reverses Encrypt.
func (c *Cipher) Decrypt(ciphertext string) (string, error) {
	if c.State() == model.SecretMissing {
		c.warnMissing()
		return ciphertext, nil
	}

	encoded, ok := strings.CutPrefix(ciphertext, version)
	if !ok {
		return "", ErrMalformed
	}
	data, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if len(data) < saltSize {
		return "", ErrMalformed
	}

	salt, rest := data[:saltSize], data[saltSize:]
	gcm, err := c.aead(salt)
	if err != nil {
		return "", err
	}

	nonceSize := gcm.NonceSize()
	if len(rest) < nonceSize+gcm.Overhead() {
		return "", ErrMalformed
	}

	nonce, sealed := rest[:nonceSize], rest[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", ErrDecrypt
	}
	return string(plaintext), nil
}

// aead derives the per-message key from the secret and salt.
func (c *Cipher) aead(salt []byte) (cipher.AEAD, error) {
	key := make([]byte, keySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, c.secret, salt, []byte(hkdfLabel)), key); err != nil {
		return nil, fmt.Errorf("hkdf: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aes.NewCipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cipher.NewGCM: %w", err)
	}
	return gcm, nil
}

func (c *Cipher) warnMissing() {
	c.warnOnce.Do(func() {
		c.logger.Warn("token secret is not configured, credentials are stored unencrypted",
			"env", "STREAMHUB_TOKEN_SECRET",
		)
	})
}
