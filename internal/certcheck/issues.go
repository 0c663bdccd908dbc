package certcheck

// Issue messages attached to verdicts. Callers and clients match on these
// strings, so they are part of the output contract.
const (
	IssueUnexpectedError    = "Unexpected error analyzing file"
	IssueQRUnreadable       = "Failed to read QR code from image"
	IssueBackendUnavailable = "Backend verification unavailable - using local verification"
	IssueOCRFailed          = "OCR text extraction failed"
	IssueDigestMismatch     = "Certificate number found but file hash does not match registry record"
	IssueDuplicateNumber    = "Duplicate certificate number detected in registry (possible clone)"
	IssueNoRegistryMatch    = "No registry match. Please contact issuing institution for manual validation"
	IssueMissingMediaType   = "Missing file type metadata"
	IssueEmptyContent       = "Empty file content"
)

// IssueList accumulates issues across the stages of one analysis.
// It is append-only and keeps duplicates. The zero value is ready to use.
type IssueList struct {
	issues []string
}

// Add appends issues in order.
func (l *IssueList) Add(issues ...string) {
	l.issues = append(l.issues, issues...)
}

// Len returns the number of issues accumulated so far.
func (l *IssueList) Len() int { return len(l.issues) }

// List returns a copy of the accumulated issues. It never returns nil, so a
// serialized verdict always carries an array.
func (l *IssueList) List() []string {
	out := make([]string, len(l.issues))
	copy(out, l.issues)
	return out
}
