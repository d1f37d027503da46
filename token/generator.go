package token

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

const defaultLength = 32 // 32 bytes = 256 bits

// Generator produces opaque, high entropy token and code values.
type Generator struct {
	tokenLength int
	codeLength  int
}

// NewGenerator creates a generator using tokenLength random bytes per token and codeLength per
// authorization code. Non-positive lengths fall back to 32 bytes.
func NewGenerator(tokenLength, codeLength int) *Generator {
	if tokenLength <= 0 {
		tokenLength = defaultLength
	}
	if codeLength <= 0 {
		codeLength = defaultLength
	}
	return &Generator{tokenLength: tokenLength, codeLength: codeLength}
}

// NewToken returns a hex encoded access or refresh token.
func (g *Generator) NewToken() (string, error) {
	b, err := randomBytes(g.tokenLength)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// NewCode returns a URL safe authorization code.
func (g *Generator) NewCode() (string, error) {
	b, err := randomBytes(g.codeLength)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func randomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return b, nil
}
