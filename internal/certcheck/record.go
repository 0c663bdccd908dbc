package certcheck

// Record is one institution-issued credential of record.
//
// Several records may share an Identifier with different Digests. That is the
// clone signal the engine reports, not a data error.
type Record struct {
	Identifier  string `json:"certificate_number"`
	Digest      string `json:"hash_hex,omitempty"`
	Name        string `json:"name"`
	Institution string `json:"institution"`
	Course      string `json:"course"`
	Year        int    `json:"year"`
	Notes       string `json:"notes,omitempty"`
}
