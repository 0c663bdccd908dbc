package certcheck

import (
	"bytes"
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"certcheck/internal/identifier"
)

// Engine turns artifacts into verdicts. It holds no per-call state, so one
// Engine serves any number of concurrent Analyze calls.
type Engine struct {
	hasher   Hasher
	qr       QRDecoder
	registry Registry
	remote   Remote
	logger   Logger
	clock    Clock
	idgen    IDGenerator
	observer Observer
	tracer   trace.Tracer
}

// Option configures optional Engine collaborators.
type Option func(*Engine)

// WithObserver reports verdict measurements to o.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		if o != nil {
			e.observer = o
		}
	}
}

// NewEngine creates an Engine. remote may be nil, in which case every
// analysis is evaluated against the registry only.
func NewEngine(hasher Hasher, qr QRDecoder, registry Registry, remote Remote, logger Logger, clock Clock, idgen IDGenerator, opts ...Option) *Engine {
	e := &Engine{
		hasher:   hasher,
		qr:       qr,
		registry: registry,
		remote:   remote,
		logger:   logger,
		clock:    clock,
		idgen:    idgen,
		observer: nopObserver{},
		tracer:   otel.Tracer("certcheck/internal/certcheck"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// analysis is the state threaded through the stages of one Analyze call.
type analysis struct {
	artifact Artifact
	issues   IssueList
	meta     Metadata
}

// Analyze produces a verdict for a. It never fails: internal faults become an
// invalid verdict carrying IssueUnexpectedError.
func (e *Engine) Analyze(ctx context.Context, a Artifact) *Verdict {
	start := e.clock.Now()
	ctx, span := e.tracer.Start(ctx, "certcheck.Analyze", trace.WithAttributes(
		attribute.String("artifact.name", a.Name),
		attribute.String("artifact.media_type", a.MediaType),
		attribute.Int64("artifact.size", a.Size()),
	))
	defer span.End()

	v := e.analyze(ctx, a)
	v.ID = e.idgen.New()
	v.AnalyzedAt = start

	span.SetAttributes(
		attribute.String("verdict.status", string(v.Status)),
		attribute.String("verdict.path", string(v.Path)),
	)
	if v.Status == StatusInvalid && v.Path == PathNone {
		span.SetStatus(codes.Error, IssueUnexpectedError)
	}
	e.observer.ObserveVerdict(v.Status, v.Path, e.clock.Now().Sub(start).Seconds())
	e.logger.Info("artifact analyzed",
		"file", a.Name,
		"digest", v.Metadata.Digest,
		"status", v.Status,
		"path", v.Path,
		"issues", len(v.Issues),
	)
	return v
}

func (e *Engine) analyze(ctx context.Context, a Artifact) *Verdict {
	st := &analysis{
		artifact: a,
		meta: Metadata{
			FileName:  a.Name,
			Size:      a.Size(),
			MediaType: a.MediaType,
		},
	}

	d, err := e.hasher.Sum(bytes.NewReader(a.Data))
	if err != nil {
		e.logger.Error("hashing artifact", "file", a.Name, "error", err)
		return e.failed(st)
	}
	st.meta.Digest = d

	if a.IsImage() {
		e.extractQR(st)
	}
	st.meta.Identifier = identifier.Infer(a.Name, st.meta.QRPayload)

	if e.remote != nil {
		if v, ok := e.verifyRemote(ctx, st); ok {
			return v
		}
		e.observer.ObserveFallback()
	}

	v, err := e.verifyLocal(ctx, st)
	if err != nil {
		e.logger.Error("registry lookup", "file", a.Name, "digest", d, "error", err)
		return e.failed(st)
	}
	return v
}

func (e *Engine) extractQR(st *analysis) {
	payload, found, err := e.qr.Decode(st.artifact.Data)
	if err != nil {
		e.logger.Warn("QR extraction failed", "file", st.artifact.Name, "error", err)
		st.issues.Add(IssueQRUnreadable)
		return
	}
	if found {
		st.meta.QRPayload = payload
	}
}

// verifyRemote runs upload, OCR and verify in order. ok is false when the
// remote path was abandoned and the caller must fall back to the registry.
func (e *Engine) verifyRemote(ctx context.Context, st *analysis) (*Verdict, bool) {
	up := e.remote.Upload(ctx, st.artifact)
	if !up.OK() {
		e.logger.Warn("remote upload failed", "file", st.artifact.Name, "error", up.Err)
		st.issues.Add(IssueBackendUnavailable)
		return nil, false
	}
	arts := &RemoteArtifacts{UploadID: up.Value.ID}
	st.meta.Remote = arts

	if st.artifact.IsImage() {
		ocr := e.remote.ExtractText(ctx, st.artifact)
		if ocr.OK() {
			arts.ExtractedText = ocr.Value.Text
			arts.OCRConfidence = ocr.Value.Confidence
			arts.Language = ocr.Value.Language
		} else {
			e.logger.Warn("remote OCR failed", "file", st.artifact.Name, "upload_id", up.Value.ID, "error", ocr.Err)
			st.issues.Add(IssueOCRFailed)
		}
	}

	res := e.remote.Verify(ctx, up.Value.ID)
	if !res.OK() {
		e.logger.Warn("remote verify failed", "file", st.artifact.Name, "upload_id", up.Value.ID, "error", res.Err)
		st.issues.Add(IssueBackendUnavailable)
		return nil, false
	}
	arts.Confidence = res.Value.Confidence
	arts.VerifiedAt = res.Value.VerifiedAt

	st.issues.Add(res.Value.Issues...)
	return e.finish(st, res.Value.Status, PathRemote, res.Value.Record), true
}

func (e *Engine) verifyLocal(ctx context.Context, st *analysis) (*Verdict, error) {
	match, err := e.registry.FindByDigest(ctx, st.meta.Digest)
	if err != nil {
		return nil, fmt.Errorf("finding record by digest: %w", err)
	}

	var byNumber []Record
	if st.meta.Identifier != "" {
		byNumber, err = e.registry.FindByIdentifier(ctx, st.meta.Identifier)
		if err != nil {
			return nil, fmt.Errorf("finding records by identifier: %w", err)
		}
	}

	switch {
	case match != nil:
		return e.finish(st, StatusValid, PathLocal, match), nil
	case len(byNumber) > 0:
		st.issues.Add(IssueDigestMismatch)
		if len(byNumber) > 1 {
			st.issues.Add(IssueDuplicateNumber)
		}
		first := byNumber[0]
		return e.finish(st, StatusSuspect, PathLocal, &first), nil
	default:
		st.issues.Add(IssueNoRegistryMatch)
		return e.finish(st, StatusSuspect, PathLocal, nil), nil
	}
}

// finish appends the metadata sanity issues, which never change the status,
// and seals the verdict.
func (e *Engine) finish(st *analysis, status Status, path Path, matched *Record) *Verdict {
	if st.artifact.MediaType == "" {
		st.issues.Add(IssueMissingMediaType)
	}
	if st.artifact.Size() == 0 {
		st.issues.Add(IssueEmptyContent)
	}
	var rec *Record
	if matched != nil {
		r := *matched
		rec = &r
	}
	return &Verdict{
		Status:        status,
		Path:          path,
		Issues:        st.issues.List(),
		Metadata:      st.meta,
		MatchedRecord: rec,
	}
}

func (e *Engine) failed(st *analysis) *Verdict {
	var issues IssueList
	issues.Add(IssueUnexpectedError)
	return &Verdict{
		Status:   StatusInvalid,
		Path:     PathNone,
		Issues:   issues.List(),
		Metadata: st.meta,
	}
}
