package platform

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/google/uuid"
)

func NewID() string {
	return uuid.New().String()
}

// NewObjectID returns an OpenAI-style object identifier such as
// "chatcmpl-7f3a..." or "ftjob-91c2...". The prefix is joined with a dash.
func NewObjectID(prefix string) string {
	b := make([]byte, 12)
	if _, err := rand.Read(b); err != nil {
		panic("crypto/rand: " + err.Error())
	}
	return prefix + "-" + hex.EncodeToString(b)
}

// NewSecretKey returns a raw API key in the "sk-" format. The caller is
// responsible for hashing it before storage; the raw value is shown once.
func NewSecretKey() string {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		panic("crypto/rand: " + err.Error())
	}
	return "sk-" + hex.EncodeToString(b)
}
