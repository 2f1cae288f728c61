package handlers

// Error codes carried in ErrorResponse.Code. Clients branch on these; the
// message text may change.
const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeNotFound         = "not_found"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeTooLarge         = "payload_too_large"
	ErrCodeRateLimited      = "too_many_requests"
	ErrCodeInternal         = "internal_error"

	// Upload rejected: not a .json file (400).
	ErrCodeInvalidFileType = "invalid_file_type"
	// Upload is not a JSON array of objects (400).
	ErrCodeMalformedInput = "malformed_input"
	// A record failed schema validation; the message names index, table and field (400).
	ErrCodeValidationFailed = "validation_failed"
	// Storage failed and the import was rolled back (500).
	ErrCodeImportFailed = "import_failed"
	// Export failed before the first byte was sent (500).
	ErrCodeExportFailed = "export_failed"
	// Import history query failed (500).
	ErrCodeListFailed = "list_failed"
)
