package remote

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status   string         `json:"status"`
	Version  string         `json:"version"`
	Database string         `json:"database"`
	Services ServicesStatus `json:"services"`
}

// ServicesStatus reports per-service availability on the backend.
type ServicesStatus struct {
	OCR          string `json:"ocr"`
	Verification string `json:"verification"`
	AIModule     string `json:"ai_module"`
}

// UploadResponse is returned by POST /api/v1/upload/certificate.
type UploadResponse struct {
	ID         string `json:"id"`
	Filename   string `json:"filename"`
	Size       int64  `json:"size"`
	MimeType   string `json:"mime_type"`
	UploadTime string `json:"upload_time"`
	Status     string `json:"status"`
}

// OCRResponse is returned by POST /api/v1/ocr/extract-text.
type OCRResponse struct {
	ID             string  `json:"id"`
	ExtractedText  string  `json:"extracted_text"`
	Confidence     float64 `json:"confidence"`
	ProcessingTime float64 `json:"processing_time"`
	Language       string  `json:"language"`
}

// VerificationResponse is returned by POST /api/v1/verify/certificate/{id}.
type VerificationResponse struct {
	ID               string         `json:"id"`
	Status           string         `json:"status"`
	Confidence       float64        `json:"confidence"`
	MatchedRecord    *MatchedRecord `json:"matched_record,omitempty"`
	Issues           []string       `json:"issues"`
	VerificationTime string         `json:"verification_time"`
}

// MatchedRecord is the backend's view of a registry record.
type MatchedRecord struct {
	CertificateNumber string `json:"certificate_number"`
	Name              string `json:"name"`
	Institution       string `json:"institution"`
	Course            string `json:"course"`
	Year              int    `json:"year"`
}

// AuthResponse is the token grant issued by the backend's OAuth flow.
type AuthResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	User        User   `json:"user"`
}

// User is the authenticated account in an AuthResponse.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}
