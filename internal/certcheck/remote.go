package certcheck

// Result is the outcome of a single remote call: either a Value or an Err.
type Result[T any] struct {
	Value T
	Err   error
}

// Succeeded wraps a successful value.
func Succeeded[T any](v T) Result[T] { return Result[T]{Value: v} }

// Failed wraps a failure.
func Failed[T any](err error) Result[T] { return Result[T]{Err: err} }

// OK reports whether the call succeeded.
func (r Result[T]) OK() bool { return r.Err == nil }

// Upload is the backend's receipt for an uploaded artifact.
type Upload struct {
	ID         string
	FileName   string
	Size       int64
	MediaType  string
	UploadedAt string
}

// TextExtraction is the backend's OCR output for an artifact.
type TextExtraction struct {
	Text       string
	Confidence float64
	Language   string
}

// RemoteVerdict is the backend's judgement for an uploaded artifact.
// Record, when present, carries no digest.
type RemoteVerdict struct {
	Status     Status
	Confidence float64
	Record     *Record
	Issues     []string
	VerifiedAt string
}
