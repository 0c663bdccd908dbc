// Package identifier infers certificate numbers from free text.
//
// The grammar is a loose heuristic, JH-<2 letters>-<4 digits>-<6+ digits>,
// matched case-insensitively anywhere in the input. It is not a validated
// grammar: a filename may contain something that looks like a certificate
// number without being one, and real numbers with unusual formatting are
// missed.
package identifier

import (
	"regexp"
	"strings"
)

var pattern = regexp.MustCompile(`(?i)JH-[A-Z]{2}-\d{4}-\d{6,}`)

// Extract returns the first certificate number found in text, normalized to
// uppercase. ok is false when text contains none.
func Extract(text string) (id string, ok bool) {
	m := pattern.FindString(text)
	if m == "" {
		return "", false
	}
	return strings.ToUpper(m), true
}

// Infer picks the certificate number for an artifact. The QR payload is
// embedded in the document itself and wins over the filename.
func Infer(fileName, qrPayload string) string {
	if id, ok := Extract(qrPayload); ok {
		return id
	}
	if id, ok := Extract(fileName); ok {
		return id
	}
	return ""
}

// Valid reports whether s is exactly one certificate number in normalized form.
func Valid(s string) bool {
	id, ok := Extract(s)
	return ok && id == s
}
