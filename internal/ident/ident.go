// Package ident generates the opaque identifiers used across the service.
package ident

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

const (
	idCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	idLength  = 10
)

// GenerateID generates a unique ID with the given prefix, e.g. "acc-x7Kp2mQr9Z".
func GenerateID(prefix string) string {
	result := make([]byte, idLength)
	for i := range result {
		num, _ := rand.Int(rand.Reader, big.NewInt(int64(len(idCharset))))
		result[i] = idCharset[num.Int64()]
	}
	return fmt.Sprintf("%s-%s", prefix, string(result))
}

// NewAccountID returns a fresh account identifier.
func NewAccountID() string {
	return GenerateID("acc")
}

// IsAccountID validates the account ID format.
func IsAccountID(id string) bool {
	return strings.HasPrefix(id, "acc-") && len(id) == len("acc-")+idLength
}

// IsNationalID validates the fixed-length numeric national id.
func IsNationalID(id string) bool {
	if len(id) != 11 {
		return false
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
