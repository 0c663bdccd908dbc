// Package remote is a typed client for the certificate verification backend.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"
)

// DefaultTimeout bounds each backend call when no timeout is configured.
const DefaultTimeout = 15 * time.Second

// ErrTimeout is returned when a call exceeds the per-call timeout.
var ErrTimeout = errors.New("backend call timed out")

// APIError is returned when the backend responds with a non-2xx status.
type APIError struct {
	Op         string
	StatusCode int
	Status     string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: API Error: %s", e.Op, e.Status)
}

// Client calls the backend. A Client is safe for concurrent use; it holds no
// mutable state after construction.
type Client struct {
	baseURL    string
	session    Session
	httpClient *http.Client
	timeout    time.Duration
}

// Option configures the client.
type Option func(*Client)

// WithSession attaches credentials to every call.
func WithSession(s Session) Option {
	return func(c *Client) { c.session = s }
}

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a Client for the backend at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		timeout:    DefaultTimeout,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// WithSession returns a copy of c that uses s instead of c's session.
func (c *Client) WithSession(s Session) *Client {
	cp := *c
	cp.session = s
	return &cp
}

// Session returns the credentials the client sends.
func (c *Client) Session() Session { return c.session }

// BaseURL returns the backend root the client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

// File is a file sent as the multipart "file" field.
type File struct {
	Name      string
	MediaType string
	Data      []byte
}

// Health calls GET /health.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var out HealthResponse
	if err := c.do(ctx, "health", http.MethodGet, "/health", nil, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UploadCertificate calls POST /api/v1/upload/certificate.
func (c *Client) UploadCertificate(ctx context.Context, f File) (*UploadResponse, error) {
	body, contentType, err := multipartBody(f)
	if err != nil {
		return nil, err
	}
	var out UploadResponse
	if err := c.do(ctx, "upload", http.MethodPost, "/api/v1/upload/certificate", body, contentType, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ExtractText calls POST /api/v1/ocr/extract-text.
func (c *Client) ExtractText(ctx context.Context, f File) (*OCRResponse, error) {
	body, contentType, err := multipartBody(f)
	if err != nil {
		return nil, err
	}
	var out OCRResponse
	if err := c.do(ctx, "ocr", http.MethodPost, "/api/v1/ocr/extract-text", body, contentType, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyCertificate calls POST /api/v1/verify/certificate/{id}.
func (c *Client) VerifyCertificate(ctx context.Context, uploadID string) (*VerificationResponse, error) {
	if uploadID == "" {
		return nil, fmt.Errorf("verify: upload id required")
	}
	var out VerificationResponse
	path := "/api/v1/verify/certificate/" + url.PathEscape(uploadID)
	if err := c.do(ctx, "verify", http.MethodPost, path, nil, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// OAuthAvailable probes HEAD /api/v1/auth/google. Any failure reads as
// unavailable.
func (c *Client) OAuthAvailable(ctx context.Context) bool {
	return c.do(ctx, "oauth", http.MethodHead, "/api/v1/auth/google", nil, "", nil) == nil
}

// GoogleAuthURL is where a user starts the backend's Google sign-in.
func (c *Client) GoogleAuthURL(redirectURI string) string {
	return c.baseURL + "/api/v1/auth/google?redirect_uri=" + url.QueryEscape(redirectURI)
}

func (c *Client) do(ctx context.Context, op, method, path string, body []byte, contentType string, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%s: building request: %w", op, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if !c.session.Anonymous() {
		req.Header.Set("Authorization", c.session.authorization())
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%s: %w after %s", op, ErrTimeout, c.timeout)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &APIError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       strings.TrimSpace(string(snippet)),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%s: %w after %s", op, ErrTimeout, c.timeout)
		}
		return fmt.Errorf("%s: decoding response: %w", op, err)
	}
	return nil
}

func multipartBody(f File) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, f.Name))
	mt := f.MediaType
	if mt == "" {
		mt = "application/octet-stream"
	}
	h.Set("Content-Type", mt)

	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", fmt.Errorf("creating multipart part: %w", err)
	}
	if _, err := part.Write(f.Data); err != nil {
		return nil, "", fmt.Errorf("writing multipart part: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("closing multipart body: %w", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
