// Package digest computes the content digests used as the registry's trust anchor.
package digest

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
)

// Size is the length of a digest in hex characters.
const Size = sha256.Size * 2

// SHA256 hashes content with SHA-256 and renders it as lowercase hex.
type SHA256 struct{}

// Sum consumes r fully and returns its digest. A read error yields no digest
// at all; a digest over a partial read is never returned.
func (SHA256) Sum(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("hashing content: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Bytes returns the digest of data.
func Bytes(data []byte) string {
	// bytes.Reader never fails.
	d, _ := SHA256{}.Sum(bytes.NewReader(data))
	return d
}

// Valid reports whether s is a well-formed digest: Size lowercase hex characters.
func Valid(s string) bool {
	if len(s) != Size {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
