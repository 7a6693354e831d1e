package ai

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// Failure reasons carried by CompletionError.
const (
	ReasonNotConfigured = "not_configured"
	ReasonRateLimited   = "rate_limited"
	ReasonRequestFailed = "request_failed"
	ReasonEmptyResponse = "empty_response"
)

// CompletionError is the only error type returned by Client implementations.
type CompletionError struct {
	Provider string
	Reason   string
	Err      error
}

func (e *CompletionError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("ai: %s %s", e.Provider, e.Reason)
	}
	return fmt.Sprintf("ai: %s %s: %v", e.Provider, e.Reason, e.Err)
}

func (e *CompletionError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func newCompletionError(provider, reason string, err error) *CompletionError {
	return &CompletionError{Provider: provider, Reason: reason, Err: err}
}

// requestError classifies a transport or API failure of provider.
func requestError(provider string, err error) *CompletionError {
	var completionErr *CompletionError
	if errors.As(err, &completionErr) {
		return completionErr
	}
	if isRateLimited(err) {
		return newCompletionError(provider, ReasonRateLimited, err)
	}
	return newCompletionError(provider, ReasonRequestFailed, err)
}

func isRateLimited(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == 429
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "resource_exhausted")
}
