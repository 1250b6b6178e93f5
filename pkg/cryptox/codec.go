package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	codecKeyLength   = 32 // AES-256
	codecNonceLength = 12 // Recommended nonce length for GCM
)

var (
	// ErrIntegrity is returned when an envelope fails authentication. The
	// payload was tampered with or encrypted under a different key; it must
	// be treated as corrupt, never as plain data.
	ErrIntegrity = errors.New("cryptox: envelope authentication failed")

	// ErrMalformedEnvelope is returned when an envelope does not have the
	// expected nonce:tag:ciphertext shape.
	ErrMalformedEnvelope = errors.New("cryptox: malformed envelope")
)

// Codec performs authenticated encryption of field values with AES-256-GCM.
// The wire format is a three-part envelope "hex(nonce):hex(tag):hex(ciphertext)"
// with a fresh random nonce per call.
//
// The codec holds key material for its lifetime; construct it once at startup
// so a bad key surfaces as a configuration error rather than a request error.
type Codec struct {
	aead cipher.AEAD
}

// NewCodec builds a Codec from a 64-character hex-encoded 256-bit key.
// Any other length or a non-hex string is rejected.
func NewCodec(hexKey string) (*Codec, error) {
	if hexKey == "" {
		return nil, errors.New("cryptox: encryption key is not configured")
	}

	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("cryptox: encryption key must be hex encoded: %w", err)
	}
	if len(key) != codecKeyLength {
		return nil, fmt.Errorf(
			"cryptox: encryption key must be %d hex characters, got %d",
			codecKeyLength*2,
			len(hexKey),
		)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("cryptox: failed to create cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cryptox: failed to create GCM: %w", err)
	}

	return &Codec{aead: aead}, nil
}

// Encrypt serializes value (strings pass through verbatim, anything else is
// JSON-marshalled) and seals it into a fresh envelope.
func (c *Codec) Encrypt(value any) (string, error) {
	var plaintext []byte
	switch v := value.(type) {
	case string:
		plaintext = []byte(v)
	default:
		var err error
		plaintext, err = json.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("cryptox: failed to serialize value: %w", err)
		}
	}

	nonce := make([]byte, codecNonceLength)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("cryptox: failed to generate nonce: %w", err)
	}

	// Seal appends the auth tag to the ciphertext; split it back out so the
	// envelope carries the three parts separately.
	sealed := c.aead.Seal(nil, nonce, plaintext, nil)
	tagOffset := len(sealed) - c.aead.Overhead()
	ciphertext, tag := sealed[:tagOffset], sealed[tagOffset:]

	return hex.EncodeToString(nonce) + ":" + hex.EncodeToString(tag) + ":" + hex.EncodeToString(ciphertext), nil
}

// Decrypt parses an envelope, authenticates it, and returns the original
// value: the JSON-decoded form if the plaintext was JSON, otherwise the raw
// string. Authentication happens before anything is returned; a tag mismatch
// yields ErrIntegrity.
func (c *Codec) Decrypt(envelope string) (any, error) {
	parts := strings.Split(envelope, ":")
	if len(parts) != 3 {
		return nil, ErrMalformedEnvelope
	}

	nonce, err := hex.DecodeString(parts[0])
	if err != nil || len(nonce) != codecNonceLength {
		return nil, ErrMalformedEnvelope
	}
	tag, err := hex.DecodeString(parts[1])
	if err != nil || len(tag) != c.aead.Overhead() {
		return nil, ErrMalformedEnvelope
	}
	ciphertext, err := hex.DecodeString(parts[2])
	if err != nil {
		return nil, ErrMalformedEnvelope
	}

	plaintext, err := c.aead.Open(nil, nonce, append(ciphertext, tag...), nil)
	if err != nil {
		return nil, ErrIntegrity
	}

	var decoded any
	if err := json.Unmarshal(plaintext, &decoded); err != nil {
		return string(plaintext), nil
	}
	return decoded, nil
}

// DecryptString decrypts an envelope whose plaintext is expected to be a
// string, e.g. a TOTP secret stored at rest.
func (c *Codec) DecryptString(envelope string) (string, error) {
	v, err := c.Decrypt(envelope)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", ErrMalformedEnvelope
	}
	return s, nil
}
