package certcheck

import "strings"

// Artifact is a file submitted for verification. The engine never mutates it.
type Artifact struct {
	Name      string
	MediaType string
	Data      []byte
}

// Size returns the byte length of the artifact.
func (a Artifact) Size() int64 { return int64(len(a.Data)) }

// IsImage reports whether the declared media type is an image type.
func (a Artifact) IsImage() bool {
	return strings.HasPrefix(strings.ToLower(a.MediaType), "image/")
}
