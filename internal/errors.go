package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const unknownProviderError = "Unknown error"

// ValidationError reports missing or invalid configuration or input.
type ValidationError struct {
	Fields []string
	Reason string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) > 0 {
		return fmt.Sprintf("invalid settings: %s", strings.Join(e.Fields, ", "))
	}
	return e.Reason
}

// ProviderError is a non-2xx or unreadable response from the provider, or a transport failure.
type ProviderError struct {
	StatusCode int
	Title      string
	Detail     string
	Body       string
	Err        error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("provider: %v", e.Err)
	}
	return fmt.Sprintf("provider: status %d: %s", e.StatusCode, e.Message())
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Message is the human readable provider message shown to callers.
func (e *ProviderError) Message() string {
	if e.Title != "" && e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Title, e.Detail)
	}
	return unknownProviderError
}

// newProviderError builds a ProviderError from a raw error body of the form {"title": ..., "detail": ...}.
func newProviderError(statusCode int, body []byte) *ProviderError {
	providerError := &ProviderError{
		StatusCode: statusCode,
		Body:       string(body),
	}
	var response struct {
		Title  string `json:"title"`
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &response); err == nil {
		providerError.Title = response.Title
		providerError.Detail = response.Detail
	}
	return providerError
}

// CorrelationMiss is an expected failure to match a request to a basket or provider order.
type CorrelationMiss struct {
	InvoiceNumber string
	Reason        string
}

func (e *CorrelationMiss) Error() string {
	if e.InvoiceNumber != "" {
		return fmt.Sprintf("%s: %s", e.Reason, e.InvoiceNumber)
	}
	return e.Reason
}

// UnexpectedError wraps anything the engine did not anticipate, including recovered panics.
type UnexpectedError struct {
	Err error
}

func (e *UnexpectedError) Error() string {
	return e.Err.Error()
}

func (e *UnexpectedError) Unwrap() error {
	return e.Err
}

// errorMessage returns the message exposed to callers for err.
func errorMessage(err error) string {
	var providerError *ProviderError
	if errors.As(err, &providerError) && providerError.Err == nil {
		return providerError.Message()
	}
	var unexpected *UnexpectedError
	if errors.As(err, &unexpected) {
		return unexpected.Err.Error()
	}
	return err.Error()
}
