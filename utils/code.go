package utils

import (
	"crypto/rand"
	"encoding/base32"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// NewQueueID returns a fresh opaque queue identifier.
func NewQueueID() string {
	return uuid.New().String()
}

// GenerateSecretCode builds a queue secret code: an optional uppercase
// prefix followed by a short random suffix. The caller is responsible
// for checking uniqueness against stored queues.
func GenerateSecretCode(prefix string) (string, error) {
	suffix, err := randomCode(6)
	if err != nil {
		return "", err
	}
	prefix = strings.ToUpper(strings.TrimSpace(prefix))
	if prefix == "" {
		return suffix, nil
	}
	return prefix + "-" + suffix, nil
}

// randomCode generates a secure random code of the specified length as
// a base32 string without padding.
func randomCode(length int) (string, error) {
	numBytes := (length*5 + 7) / 8
	randomBytes := make([]byte, numBytes)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	code := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(randomBytes)
	if len(code) > length {
		code = code[:length]
	}
	return code, nil
}
