package session

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
)

const tokenLength = 32

type TokenPair struct {
	Token string // handed to the client
	Hash  string // stored
}

func GenerateHashedToken() (*TokenPair, error) {
	b := make([]byte, tokenLength)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	token := base64.RawURLEncoding.EncodeToString(b)
	return &TokenPair{Token: token, Hash: HashToken(token)}, nil
}

func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
