package remote

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"certcheck/internal/certcheck"
)

// CallObserver receives the latency and outcome of each backend call.
// outcome is one of "ok", "error", or "timeout".
type CallObserver interface {
	ObserveRemoteCall(op, outcome string, seconds float64)
}

// Verifier adapts a Client to the engine's Remote port, translating wire
// responses into engine types and errors into failed Results.
type Verifier struct {
	client   *Client
	observer CallObserver
	tracer   trace.Tracer
}

var _ certcheck.Remote = (*Verifier)(nil)

// NewVerifier wraps client. observer may be nil.
func NewVerifier(client *Client, observer CallObserver) *Verifier {
	return &Verifier{
		client:   client,
		observer: observer,
		tracer:   otel.Tracer("certcheck/internal/remote"),
	}
}

func fileOf(a certcheck.Artifact) File {
	return File{Name: a.Name, MediaType: a.MediaType, Data: a.Data}
}

func (v *Verifier) Upload(ctx context.Context, a certcheck.Artifact) certcheck.Result[certcheck.Upload] {
	var resp *UploadResponse
	err := v.call(ctx, "upload", func(ctx context.Context) error {
		var err error
		resp, err = v.client.UploadCertificate(ctx, fileOf(a))
		return err
	})
	if err != nil {
		return certcheck.Failed[certcheck.Upload](err)
	}
	if resp.ID == "" {
		return certcheck.Failed[certcheck.Upload](fmt.Errorf("upload: response has no id"))
	}
	return certcheck.Succeeded(certcheck.Upload{
		ID:         resp.ID,
		FileName:   resp.Filename,
		Size:       resp.Size,
		MediaType:  resp.MimeType,
		UploadedAt: resp.UploadTime,
	})
}

func (v *Verifier) ExtractText(ctx context.Context, a certcheck.Artifact) certcheck.Result[certcheck.TextExtraction] {
	var resp *OCRResponse
	err := v.call(ctx, "ocr", func(ctx context.Context) error {
		var err error
		resp, err = v.client.ExtractText(ctx, fileOf(a))
		return err
	})
	if err != nil {
		return certcheck.Failed[certcheck.TextExtraction](err)
	}
	return certcheck.Succeeded(certcheck.TextExtraction{
		Text:       resp.ExtractedText,
		Confidence: resp.Confidence,
		Language:   resp.Language,
	})
}

func (v *Verifier) Verify(ctx context.Context, uploadID string) certcheck.Result[certcheck.RemoteVerdict] {
	var resp *VerificationResponse
	err := v.call(ctx, "verify", func(ctx context.Context) error {
		var err error
		resp, err = v.client.VerifyCertificate(ctx, uploadID)
		return err
	})
	if err != nil {
		return certcheck.Failed[certcheck.RemoteVerdict](err)
	}

	status, ok := certcheck.ParseStatus(resp.Status)
	if !ok {
		return certcheck.Failed[certcheck.RemoteVerdict](fmt.Errorf("verify: unknown status %q", resp.Status))
	}
	out := certcheck.RemoteVerdict{
		Status:     status,
		Confidence: resp.Confidence,
		Issues:     resp.Issues,
		VerifiedAt: resp.VerificationTime,
	}
	if m := resp.MatchedRecord; m != nil {
		out.Record = &certcheck.Record{
			Identifier:  m.CertificateNumber,
			Name:        m.Name,
			Institution: m.Institution,
			Course:      m.Course,
			Year:        m.Year,
		}
	}
	return certcheck.Succeeded(out)
}

func (v *Verifier) call(ctx context.Context, op string, fn func(context.Context) error) error {
	ctx, span := v.tracer.Start(ctx, "remote."+op, trace.WithAttributes(
		attribute.String("remote.base_url", v.client.BaseURL()),
		attribute.Bool("remote.authenticated", !v.client.Session().Anonymous()),
	))
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	outcome := "ok"
	switch {
	case errors.Is(err, ErrTimeout):
		outcome = "timeout"
	case err != nil:
		outcome = "error"
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
	}
	if v.observer != nil {
		v.observer.ObserveRemoteCall(op, outcome, time.Since(start).Seconds())
	}
	return err
}
