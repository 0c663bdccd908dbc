package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"

	"certcheck/internal/artifact"
	"certcheck/internal/certcheck"
	"certcheck/internal/config"
	"certcheck/internal/digest"
	"certcheck/internal/metrics"
	"certcheck/internal/qrcode"
	"certcheck/internal/registry"
	"certcheck/internal/testutil"
)

type ServerSuite struct {
	suite.Suite
	router http.Handler
}

func TestServerSuite(t *testing.T) {
	suite.Run(t, new(ServerSuite))
}

func (s *ServerSuite) SetupTest() {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	engine := certcheck.NewEngine(digest.SHA256{}, qrcode.NewDecoder(true),
		registry.NewMemory(registry.DemoRecords()...), nil,
		certcheck.NewNopLogger(), testutil.FixedClock(), testutil.NewVerdictIDs(),
		certcheck.WithObserver(m))
	loader := artifact.NewLoader(config.ArtifactsConfig{MaxSize: 1024})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s.router = New(engine, loader, reg, logger).Router()
}

func (s *ServerSuite) upload(field, name, contentType string, data []byte) *httptest.ResponseRecorder {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+name+`"`)
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	part, err := mw.CreatePart(h)
	s.Require().NoError(err)
	_, err = part.Write(data)
	s.Require().NoError(err)
	s.Require().NoError(mw.Close())

	req := httptest.NewRequestWithContext(context.Background(), http.MethodPost, "/api/v1/check", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *ServerSuite) TestCheck() {
	s.Run("clone returns suspect verdict", func() {
		rec := s.upload("file", "JH-RU-2021-004567.pdf", "application/pdf", []byte("forged"))
		s.Require().Equal(http.StatusOK, rec.Code)
		s.Equal("application/json", rec.Header().Get("Content-Type"))

		var v certcheck.Verdict
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &v))
		s.Equal(certcheck.StatusSuspect, v.Status)
		s.Equal(certcheck.PathLocal, v.Path)
		s.Equal([]string{certcheck.IssueDigestMismatch, certcheck.IssueDuplicateNumber}, v.Issues)
		s.Equal("JH-RU-2021-004567", v.Metadata.Identifier)
		s.Equal("application/pdf", v.Metadata.MediaType)
	})

	s.Run("media type detected when client sends octet-stream", func() {
		rec := s.upload("file", "scan.png", "application/octet-stream", testutil.PlainPNG(s.T()))
		s.Require().Equal(http.StatusOK, rec.Code)

		var v certcheck.Verdict
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &v))
		s.Equal("image/png", v.Metadata.MediaType)
		s.NotContains(v.Issues, certcheck.IssueMissingMediaType)
	})

	s.Run("missing file field", func() {
		rec := s.upload("document", "a.pdf", "application/pdf", []byte("x"))
		s.Equal(http.StatusBadRequest, rec.Code)
		s.Contains(rec.Body.String(), "file")
	})

	s.Run("not multipart", func() {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/check", bytes.NewReader([]byte("{}")))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("oversized upload", func() {
		rec := s.upload("file", "big.pdf", "application/pdf", bytes.Repeat([]byte("x"), 2048))
		s.Equal(http.StatusRequestEntityTooLarge, rec.Code)
	})

	s.Run("wrong method", func() {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/check", nil)
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)
		s.Equal(http.StatusMethodNotAllowed, rec.Code)
	})
}

func (s *ServerSuite) TestHealth() {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"status":"ok"}`, rec.Body.String())
}

func (s *ServerSuite) TestMetrics() {
	s.upload("file", "a.pdf", "application/pdf", []byte("unknown"))

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `certcheck_verdicts_total{path="local",status="suspect"} 1`)
}
