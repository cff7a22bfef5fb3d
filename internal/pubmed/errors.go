package pubmed

import (
	"errors"
	"fmt"
)

// Common errors returned by the PubMed client.
var (
	// ErrRateLimited indicates NCBI rejected the request for exceeding the rate limit.
	ErrRateLimited = errors.New("NCBI rate limit exceeded")

	// ErrNetworkError indicates a network connectivity issue.
	ErrNetworkError = errors.New("network error communicating with NCBI")

	// ErrInvalidResponse indicates a response body that is not MEDLINE text.
	ErrInvalidResponse = errors.New("invalid response from NCBI")
)

// APIError represents an HTTP error from E-utilities.
type APIError struct {
	StatusCode int
	Message    string
	Batch      string // Index range of the failing batch, e.g. "0-1000"
}

func (e *APIError) Error() string {
	if e.Batch != "" {
		return fmt.Sprintf("NCBI API error (status %d): %s (batch %s)", e.StatusCode, e.Message, e.Batch)
	}
	return fmt.Sprintf("NCBI API error (status %d): %s", e.StatusCode, e.Message)
}

// IsRateLimited returns true if the error indicates rate limiting.
func IsRateLimited(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429
	}
	return false
}

// IsNetworkError returns true if the request never reached NCBI.
func IsNetworkError(err error) bool {
	return errors.Is(err, ErrNetworkError)
}
