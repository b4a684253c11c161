package domain

import "errors"

// Error kinds surfaced by a refresh. Callers match them with errors.Is.
var (
	// ErrAuthentication means the API token is missing or was rejected. Retrying will not help.
	ErrAuthentication = errors.New("authentication failed")
	// ErrUpstreamUnavailable means the hosting API could not be reached or answered with a failure.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrStorageWrite means the projects table could not be replaced; the previous table is intact.
	ErrStorageWrite = errors.New("storage write failed")
	// ErrFlushIncomplete means the new table was committed but flushing or closing the file failed.
	// The run did publish; this is reported as a warning, not a failure.
	ErrFlushIncomplete = errors.New("table committed but flush incomplete")
)
