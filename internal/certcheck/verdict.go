package certcheck

import "time"

// Status is the tri-state outcome of an analysis.
type Status string

const (
	StatusValid   Status = "valid"
	StatusSuspect Status = "suspect"
	StatusInvalid Status = "invalid"
)

// ParseStatus validates a status string received from outside the engine.
func ParseStatus(s string) (Status, bool) {
	switch st := Status(s); st {
	case StatusValid, StatusSuspect, StatusInvalid:
		return st, true
	default:
		return "", false
	}
}

// Path records which evaluation produced the status.
type Path string

const (
	PathLocal  Path = "local"
	PathRemote Path = "remote"
	// PathNone means the analysis failed before any evaluation ran.
	PathNone Path = "none"
)

// Metadata describes the analyzed artifact and what was derived from it.
type Metadata struct {
	FileName   string           `json:"file_name"`
	Size       int64            `json:"size"`
	MediaType  string           `json:"mime"`
	Digest     string           `json:"hash_hex"`
	QRPayload  string           `json:"qr_data,omitempty"`
	Identifier string           `json:"certificate_number,omitempty"`
	Remote     *RemoteArtifacts `json:"remote,omitempty"`
}

// RemoteArtifacts holds what the remote pipeline produced before it finished
// or was abandoned.
type RemoteArtifacts struct {
	UploadID      string  `json:"upload_id"`
	ExtractedText string  `json:"extracted_text,omitempty"`
	OCRConfidence float64 `json:"ocr_confidence,omitempty"`
	Language      string  `json:"language,omitempty"`
	Confidence    float64 `json:"confidence,omitempty"`
	VerifiedAt    string  `json:"verified_at,omitempty"`
}

// Verdict is the result of one analysis. It is built once and not modified
// after Analyze returns it.
type Verdict struct {
	ID            string    `json:"id"`
	Status        Status    `json:"status"`
	Path          Path      `json:"path"`
	Issues        []string  `json:"issues"`
	Metadata      Metadata  `json:"metadata"`
	MatchedRecord *Record   `json:"matched_record,omitempty"`
	AnalyzedAt    time.Time `json:"analyzed_at"`
}

// HasIssue reports whether issue was recorded on the verdict.
func (v *Verdict) HasIssue(issue string) bool {
	for _, i := range v.Issues {
		if i == issue {
			return true
		}
	}
	return false
}
