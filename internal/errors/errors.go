package errors

import "errors"

// This package defines a centralized set of sentinel errors for the application.
// Using sentinel errors allows services to return specific, recognizable error types
// without coupling them to implementation details like HTTP status codes. The API
// layer can then use `errors.Is()` to check for these specific errors and map
// them to the correct HTTP responses.

var (
	// ErrNotFound signifies that a requested resource could not be located,
	// or exists but is not owned by the caller.
	// This is typically mapped to a 404 Not Found HTTP status.
	ErrNotFound = errors.New("resource not found")

	// ErrValidation signifies that input data provided by a client failed
	// business rule validation (shape, size, or type).
	// This is typically mapped to a 400 Bad Request HTTP status.
	ErrValidation = errors.New("validation failed")

	// ErrAuth signifies a missing, expired, or invalid credential. The user
	// must re-authenticate.
	// This is typically mapped to a 401 Unauthorized HTTP status.
	ErrAuth = errors.New("authentication failed")

	// ErrConflict signifies that an operation could not be completed because
	// it conflicts with the current state of a resource (e.g., signing up
	// with an email that is already registered).
	// This is typically mapped to a 409 Conflict HTTP status.
	ErrConflict = errors.New("resource conflict")

	// ErrUnsupportedModel signifies that the requested model identifier does
	// not route to any configured provider. Routing is explicit: unknown
	// identifiers fail instead of silently defaulting.
	// This is typically mapped to a 400 Bad Request HTTP status.
	ErrUnsupportedModel = errors.New("unsupported model")

	// ErrExtraction signifies that an uploaded file could not be parsed.
	// It is per-file and non-fatal: the caller skips the file and continues.
	ErrExtraction = errors.New("file extraction failed")

	// ErrInternal signifies an unexpected error on the server. This is a generic
	// error used to prevent leaking sensitive implementation details to the client.
	// This is typically mapped to a 500 Internal Server Error HTTP status.
	ErrInternal = errors.New("internal server error")
)
