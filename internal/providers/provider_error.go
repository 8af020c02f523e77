package providers

import "fmt"

const (
	ErrCodeNotConfigured = "NOT_CONFIGURED"
	ErrCodeNetworkError  = "NETWORK_ERROR"
	ErrCodeRejected      = "REJECTED"
	ErrCodeNotFound      = "NOT_FOUND"
)

// ProviderError describes a failed call to an external service.
type ProviderError struct {
	Code       string
	StatusCode int
	Message    string
	Details    string
	Err        error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	if e.Details != "" {
		return fmt.Sprintf("%s (%d): %s", e.Message, e.StatusCode, e.Details)
	}
	return e.Message
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
