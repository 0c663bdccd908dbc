// Package credentials keeps the backend session token on disk, encrypted
// with a passphrase using age's scrypt recipient.
package credentials

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"filippo.io/age"

	"certcheck/internal/remote"
)

// ErrNotFound is returned by Load when no credentials have been saved.
var ErrNotFound = errors.New("no saved credentials")

// stored is the plaintext inside the encrypted file.
type stored struct {
	Token     string    `json:"token"`
	TokenType string    `json:"token_type"`
	SavedAt   time.Time `json:"saved_at"`
}

// AgeStore saves a remote.Session to a single passphrase-encrypted file.
type AgeStore struct {
	path string
}

// NewAgeStore creates an AgeStore writing to path.
func NewAgeStore(path string) *AgeStore {
	return &AgeStore{path: path}
}

// Path returns the credentials file location.
func (s *AgeStore) Path() string { return s.path }

// Save encrypts s with passphrase and writes it, replacing any earlier file.
func (s *AgeStore) Save(passphrase string, session remote.Session, now time.Time) error {
	if session.Anonymous() {
		return fmt.Errorf("refusing to save an anonymous session: %w", remote.ErrNoSession)
	}

	plain, err := json.Marshal(stored{Token: session.Token, TokenType: session.TokenType, SavedAt: now.UTC()})
	if err != nil {
		return fmt.Errorf("encoding credentials: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("creating credentials directory: %w", err)
	}

	recipient, err := age.NewScryptRecipient(passphrase)
	if err != nil {
		return fmt.Errorf("creating scrypt recipient: %w", err)
	}

	var buf bytes.Buffer
	w, err := age.Encrypt(&buf, recipient)
	if err != nil {
		return fmt.Errorf("creating encrypted writer: %w", err)
	}
	if _, err := w.Write(plain); err != nil {
		return fmt.Errorf("encrypting credentials: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalizing encryption: %w", err)
	}

	if err := os.WriteFile(s.path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("writing credentials: %w", err)
	}
	return nil
}

// Load decrypts the saved session. It returns ErrNotFound if nothing has
// been saved; a wrong passphrase is reported as a decryption error.
func (s *AgeStore) Load(passphrase string) (remote.Session, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return remote.Session{}, ErrNotFound
		}
		return remote.Session{}, fmt.Errorf("reading credentials: %w", err)
	}

	identity, err := age.NewScryptIdentity(passphrase)
	if err != nil {
		return remote.Session{}, fmt.Errorf("creating scrypt identity: %w", err)
	}

	r, err := age.Decrypt(bytes.NewReader(data), identity)
	if err != nil {
		return remote.Session{}, fmt.Errorf("decrypting credentials: %w", err)
	}
	plain, err := io.ReadAll(r)
	if err != nil {
		return remote.Session{}, fmt.Errorf("reading decrypted credentials: %w", err)
	}

	var st stored
	if err := json.Unmarshal(plain, &st); err != nil {
		return remote.Session{}, fmt.Errorf("decoding credentials: %w", err)
	}
	return remote.Session{Token: st.Token, TokenType: st.TokenType}, nil
}

// Exists reports whether a credentials file is present.
func (s *AgeStore) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Delete removes saved credentials. Deleting when none exist is not an error.
func (s *AgeStore) Delete() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing credentials: %w", err)
	}
	return nil
}
