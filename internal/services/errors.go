// Package services defines the business logic for logbook imports, exports
// and statistics. This file centralizes common service-level error values so
// that they can be consistently returned by service methods and checked by
// callers.
//
// Translation into user-facing messages or HTTP status codes is performed at
// the handler layer. Errors raised by the import pipeline itself
// (importer.MalformedInputError, importer.ValidationError,
// importer.PersistenceError) are passed through unchanged.
package services

import "errors"

// Import-related errors.
var (
	// ErrInvalidFileType is returned when an upload does not carry the
	// ".json" suffix.
	ErrInvalidFileType = errors.New("file must have a .json extension")

	// ErrEmptyUpload is returned when the uploaded file has no content.
	ErrEmptyUpload = errors.New("uploaded file is empty")

	// ErrImportRunNotFound indicates that the requested import run does not
	// exist or belongs to another user.
	ErrImportRunNotFound = errors.New("import run not found")
)

// Export-related errors.
var (
	// ErrUnsupportedFormat is returned for an export format other than csv
	// or xlsx.
	ErrUnsupportedFormat = errors.New("unsupported export format")
)
