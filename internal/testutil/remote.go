package testutil

import (
	"context"
	"errors"
	"sync"

	"certcheck/internal/certcheck"
)

// ErrBackendDown is the failure StubRemote returns for failing calls.
var ErrBackendDown = errors.New("backend down")

// StubRemote is a scripted certcheck.Remote. Each call returns the configured
// Result; calls are recorded in order. Safe for concurrent use.
type StubRemote struct {
	UploadResult certcheck.Result[certcheck.Upload]
	OCRResult    certcheck.Result[certcheck.TextExtraction]
	VerifyResult certcheck.Result[certcheck.RemoteVerdict]

	mu    sync.Mutex
	calls []string
}

var _ certcheck.Remote = (*StubRemote)(nil)

// NewHealthyRemote returns a StubRemote whose pipeline succeeds with verdict v.
func NewHealthyRemote(v certcheck.RemoteVerdict) *StubRemote {
	return &StubRemote{
		UploadResult: certcheck.Succeeded(certcheck.Upload{ID: "upload-1"}),
		OCRResult:    certcheck.Succeeded(certcheck.TextExtraction{Text: "Certificate of Completion", Confidence: 0.9, Language: "en"}),
		VerifyResult: certcheck.Succeeded(v),
	}
}

// NewDownRemote returns a StubRemote whose every call fails.
func NewDownRemote() *StubRemote {
	return &StubRemote{
		UploadResult: certcheck.Failed[certcheck.Upload](ErrBackendDown),
		OCRResult:    certcheck.Failed[certcheck.TextExtraction](ErrBackendDown),
		VerifyResult: certcheck.Failed[certcheck.RemoteVerdict](ErrBackendDown),
	}
}

func (r *StubRemote) record(op string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, op)
}

// Calls returns the operations invoked so far, in order.
func (r *StubRemote) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func (r *StubRemote) Upload(_ context.Context, _ certcheck.Artifact) certcheck.Result[certcheck.Upload] {
	r.record("upload")
	return r.UploadResult
}

func (r *StubRemote) ExtractText(_ context.Context, _ certcheck.Artifact) certcheck.Result[certcheck.TextExtraction] {
	r.record("ocr")
	return r.OCRResult
}

func (r *StubRemote) Verify(_ context.Context, _ string) certcheck.Result[certcheck.RemoteVerdict] {
	r.record("verify")
	return r.VerifyResult
}
