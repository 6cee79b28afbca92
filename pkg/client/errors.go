package client

import "errors"

// Sentinel errors for the failure taxonomy. Callers match with errors.Is;
// wrapped errors carry the underlying gateway or transport message.
var (
	// ErrInvalidURL indicates the endpoint does not match the expected
	// hosted-project URL pattern.
	ErrInvalidURL = errors.New("invalid project URL")

	// ErrAuthFailed indicates the authenticated probe was rejected.
	ErrAuthFailed = errors.New("authentication failed")

	// ErrNetwork indicates the gateway could not be reached at all.
	ErrNetwork = errors.New("network error")

	// ErrTableAccess indicates a named table could not be read.
	ErrTableAccess = errors.New("table access error")

	// ErrQuery indicates a read query against an accessible table failed.
	ErrQuery = errors.New("query error")

	// ErrWrite indicates an insert, update, or delete was rejected.
	ErrWrite = errors.New("write error")

	// ErrImportValidation indicates an uploaded document or statement
	// failed validation before any request was issued.
	ErrImportValidation = errors.New("import validation error")
)
