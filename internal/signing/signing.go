package signing

import (
	"crypto/sha256"
	"fmt"
	"io"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/hkdf"
)

// Signer signs small string payloads into tamper-evident tokens scoped to a
// salt string. Tokens minted under one salt never verify under another: the
// HMAC key is derived per salt from the process secret, so a salt mismatch is
// indistinguishable from tampering or a rotated secret.
type Signer struct {
	secret []byte
	ttl    time.Duration
}

// New creates a Signer. A zero ttl means tokens never expire.
func New(secret string, ttl time.Duration) *Signer {
	return &Signer{secret: []byte(secret), ttl: ttl}
}

type tokenClaims struct {
	jwt.RegisteredClaims
	Payload map[string]string `json:"payload"`
}

// Sign wraps the payload in a signed token namespaced by salt.
func (s *Signer) Sign(payload map[string]string, salt string) (string, error) {
	now := time.Now()
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(now),
		},
		Payload: payload,
	}
	if s.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(s.ttl))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.keyFor(salt))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the token's signature under salt and returns its payload.
func (s *Signer) Verify(tokenStr string, salt string) (map[string]string, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &tokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.keyFor(salt), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*tokenClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims.Payload, nil
}

// keyFor derives the per-salt HMAC key from the process secret.
func (s *Signer) keyFor(salt string) []byte {
	r := hkdf.New(sha256.New, s.secret, nil, []byte("sticky-uploads.signing:"+salt))
	key := make([]byte, 32)
	if _, err := io.ReadFull(r, key); err != nil {
		panic(fmt.Sprintf("hkdf: %v", err))
	}
	return key
}
