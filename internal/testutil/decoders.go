package testutil

import (
	"errors"
	"io"

	"certcheck/internal/certcheck"
)

// FailingHasher fails every Sum call.
type FailingHasher struct{}

var _ certcheck.Hasher = FailingHasher{}

func (FailingHasher) Sum(io.Reader) (string, error) {
	return "", errors.New("read error")
}

// StubQRDecoder returns a fixed payload, or Err when set.
type StubQRDecoder struct {
	Payload string
	Err     error
}

var _ certcheck.QRDecoder = (*StubQRDecoder)(nil)

func (d *StubQRDecoder) Decode([]byte) (string, bool, error) {
	if d.Err != nil {
		return "", false, d.Err
	}
	return d.Payload, d.Payload != "", nil
}
