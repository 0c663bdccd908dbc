package certcheck

import (
	"context"
	"io"
)

// Hasher computes the content digest of an artifact.
type Hasher interface {
	Sum(r io.Reader) (string, error)
}

// QRDecoder extracts an embedded QR payload from image bytes.
// found is false when the image has no code; err is reserved for images that
// cannot be read at all.
type QRDecoder interface {
	Decode(data []byte) (payload string, found bool, err error)
}

// Registry answers read queries over the known-good records.
// Absence is an empty result, never an error. FindByIdentifier returns
// matches in the source's stable iteration order.
type Registry interface {
	FindByDigest(ctx context.Context, digest string) (*Record, error)
	FindByIdentifier(ctx context.Context, identifier string) ([]Record, error)
}

// Remote is the optional verification backend. Each call returns a Result so
// the engine branches on outcomes explicitly. Implementations bound every
// call with a timeout and report the timeout as a failed Result.
type Remote interface {
	Upload(ctx context.Context, a Artifact) Result[Upload]
	ExtractText(ctx context.Context, a Artifact) Result[TextExtraction]
	Verify(ctx context.Context, uploadID string) Result[RemoteVerdict]
}

// Observer receives engine measurements. Implementations must be safe for
// concurrent use.
type Observer interface {
	ObserveVerdict(status Status, path Path, seconds float64)
	ObserveFallback()
}

type nopObserver struct{}

func (nopObserver) ObserveVerdict(Status, Path, float64) {}
func (nopObserver) ObserveFallback()                     {}
