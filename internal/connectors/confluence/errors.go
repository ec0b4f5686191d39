package confluence

import (
	"errors"
	"fmt"
)

// Confluence-specific errors.
var (
	// ErrMissingBaseURL indicates no Confluence site URL was configured.
	ErrMissingBaseURL = errors.New("confluence: base url is required")

	// ErrMissingSpaces indicates no space keys were configured.
	ErrMissingSpaces = errors.New("confluence: at least one space key is required")

	// ErrInvalidCursor indicates the cursor format is invalid.
	ErrInvalidCursor = errors.New("confluence: invalid cursor format")
)

// APIError represents a Confluence API error response.
type APIError struct {
	StatusCode int
	Message    string
	URL        string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("confluence: API error %d: %s (URL: %s)", e.StatusCode, e.Message, e.URL)
}

// IsNotFound checks if the error indicates a missing page or space.
func IsNotFound(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 404
	}
	return false
}

// IsUnauthorized checks if the error indicates an authentication failure.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 401
	}
	return false
}
