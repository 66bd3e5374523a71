package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeFetch represents a failed page fetch (network error or bad status)
	ErrorTypeFetch ErrorType = "fetch"
	// ErrorTypeRateLimit represents HTTP 429 throttling, surfaced after retries run out
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypeExtraction represents a field whose strategies all missed
	ErrorTypeExtraction ErrorType = "extraction"
	// ErrorTypeAssembly represents a result fragment that yields no minimal listing
	ErrorTypeAssembly ErrorType = "assembly"
	// ErrorTypeCycle represents an unexpected failure of one poll iteration
	ErrorTypeCycle ErrorType = "cycle"
	// ErrorTypeNotify represents a notification sink failure
	ErrorTypeNotify ErrorType = "notify"
	// ErrorTypeValidation represents validation errors
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
)

// PipelineError is the error carried between pipeline layers. Layers recover
// from these locally; none of them may escape the scheduler boundary.
type PipelineError struct {
	Type        ErrorType
	Marketplace string
	Message     string
	Err         error
	Time        time.Time
}

// Error implements the error interface
func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, e.Marketplace, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Marketplace, e.Message)
}

// Unwrap returns the underlying error
func (e *PipelineError) Unwrap() error {
	return e.Err
}

// IsRetryable returns true if the fetch layer may retry the operation.
// Only throttling is retried; plain network or status failures are not.
func (e *PipelineError) IsRetryable() bool {
	return e.Type == ErrorTypeRateLimit
}

// New creates a new PipelineError
func New(errType ErrorType, marketplace, message string, err error) *PipelineError {
	return &PipelineError{
		Type:        errType,
		Marketplace: marketplace,
		Message:     message,
		Err:         err,
		Time:        time.Now(),
	}
}

// NewFetch creates a new fetch error
func NewFetch(marketplace, message string, err error) *PipelineError {
	return New(ErrorTypeFetch, marketplace, message, err)
}

// NewRateLimit creates a new rate limit error
func NewRateLimit(marketplace string, retryAfter string) *PipelineError {
	message := "rate limited"
	if retryAfter != "" {
		message = fmt.Sprintf("rate limited; retry after %s", retryAfter)
	}
	return New(ErrorTypeRateLimit, marketplace, message, nil)
}

// NewExtraction creates a new extraction error
func NewExtraction(marketplace, message string) *PipelineError {
	return New(ErrorTypeExtraction, marketplace, message, nil)
}

// NewAssembly creates a new assembly error
func NewAssembly(marketplace, message string, err error) *PipelineError {
	return New(ErrorTypeAssembly, marketplace, message, err)
}

// NewCycle creates a new cycle error
func NewCycle(message string, err error) *PipelineError {
	return New(ErrorTypeCycle, "", message, err)
}

// NewNotify creates a new notification error
func NewNotify(sink, message string, err error) *PipelineError {
	return New(ErrorTypeNotify, sink, message, err)
}

// NewValidation creates a new validation error
func NewValidation(message string) *PipelineError {
	return New(ErrorTypeValidation, "", message, nil)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *PipelineError {
	return New(ErrorTypeConfiguration, "", message, err)
}

// IsRateLimited reports whether err is (or wraps) a rate-limit error.
func IsRateLimited(err error) bool {
	var pe *PipelineError
	if stderrors.As(err, &pe) {
		return pe.Type == ErrorTypeRateLimit
	}
	return false
}

// IsType reports whether err is (or wraps) a PipelineError of the given type.
func IsType(err error, t ErrorType) bool {
	var pe *PipelineError
	if stderrors.As(err, &pe) {
		return pe.Type == t
	}
	return false
}
