package session

import (
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/chacha20poly1305"
)

// KeySize is the size of the key used to seal tokens at rest.
const KeySize = chacha20poly1305.KeySize

// tokenExpiry reads the exp claim of a JWT without verifying its signature.
// The backend owns the signing key; the client only needs to know when to
// stop presenting the token.
func tokenExpiry(token string) (time.Time, bool) {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// sealer encrypts tokens before they are written to the session database.
// The session id is bound as additional data so rows cannot be swapped.
type sealer struct {
	aead cipher.AEAD
}

func newSealer(key []byte) (*sealer, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("creating token cipher: %w", err)
	}
	return &sealer{aead: aead}, nil
}

func (s *sealer) seal(sessionID, token string) ([]byte, error) {
	nonce := make([]byte, s.aead.NonceSize(), s.aead.NonceSize()+len(token)+s.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generating nonce: %w", err)
	}
	return s.aead.Seal(nonce, nonce, []byte(token), []byte(sessionID)), nil
}

func (s *sealer) open(sessionID string, sealed []byte) (string, error) {
	if len(sealed) < s.aead.NonceSize() {
		return "", fmt.Errorf("sealed token too short")
	}
	nonce, ciphertext := sealed[:s.aead.NonceSize()], sealed[s.aead.NonceSize():]
	plain, err := s.aead.Open(nil, nonce, ciphertext, []byte(sessionID))
	if err != nil {
		return "", fmt.Errorf("opening token: %w", err)
	}
	return string(plain), nil
}
