package shared

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrorCategory represents different types of errors that can occur
type ErrorCategory string

const (
	ErrorCategoryNetwork    ErrorCategory = "network"
	ErrorCategoryUpstream   ErrorCategory = "upstream"
	ErrorCategoryValidation ErrorCategory = "validation"
	ErrorCategoryProcessing ErrorCategory = "processing"
)

// Error codes for the market-data and reconciliation pipeline. Every upstream
// response is classified into exactly one of the first three; the remaining
// codes cover the continuity guard and the detail-page kind resolution.
const (
	CodeSymbolNotFound          = "SYMBOL_NOT_FOUND"
	CodeTooManyCalls            = "TOO_MANY_CALLS"
	CodeNoDataAvailable         = "NO_DATA_AVAILABLE"
	CodePriceContinuityRejected = "PRICE_CONTINUITY_REJECTED"
	CodeUnsupportedAssetKind    = "UNSUPPORTED_ASSET_KIND"
)

// ServiceError is a standardized error with classification context
type ServiceError struct {
	Category    ErrorCategory `json:"category"`
	Code        string        `json:"code"`
	Message     string        `json:"message"`
	Timestamp   time.Time     `json:"timestamp"`
	ServiceName string        `json:"service_name"`
	Operation   string        `json:"operation"`
	Retryable   bool          `json:"retryable"`
	Cause       error         `json:"-"` // Original error, not serialized
}

// Error implements the error interface
func (e *ServiceError) Error() string {
	return fmt.Sprintf("[%s:%s] %s", e.Category, e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *ServiceError) Unwrap() error {
	return e.Cause
}

// IsRetryable returns whether the error is retryable
func (e *ServiceError) IsRetryable() bool {
	return e.Retryable
}

// LogError logs the error with structured fields
func (e *ServiceError) LogError() {
	logrus.WithFields(logrus.Fields{
		"error_category":   e.Category,
		"error_code":       e.Code,
		"error_message":    e.Message,
		"service_name":     e.ServiceName,
		"operation":        e.Operation,
		"retryable":        e.Retryable,
		"underlying_error": e.Cause,
	}).Error("Service error occurred")
}

// NewServiceError creates a new service error
func NewServiceError(category ErrorCategory, code, message, serviceName, operation string, retryable bool, cause error) *ServiceError {
	return &ServiceError{
		Category:    category,
		Code:        code,
		Message:     message,
		Timestamp:   time.Now(),
		ServiceName: serviceName,
		Operation:   operation,
		Retryable:   retryable,
		Cause:       cause,
	}
}

// NewSymbolNotFoundError reports an upstream rejection of the ticker. Not
// retryable: the caller must set a new ticker before trying again.
func NewSymbolNotFoundError(symbol, serviceName string) *ServiceError {
	return NewServiceError(
		ErrorCategoryUpstream,
		CodeSymbolNotFound,
		fmt.Sprintf("symbol %s not found upstream", symbol),
		serviceName,
		"fetch",
		false,
		nil,
	)
}

// NewTooManyCallsError reports an upstream rate-limit note. Retryable after
// backing off.
func NewTooManyCallsError(symbol, serviceName string) *ServiceError {
	return NewServiceError(
		ErrorCategoryUpstream,
		CodeTooManyCalls,
		fmt.Sprintf("too many upstream calls while fetching %s", symbol),
		serviceName,
		"fetch",
		true,
		nil,
	)
}

// NewNoDataAvailableError reports a transport failure or a payload missing
// the expected time-series shape.
func NewNoDataAvailableError(symbol, serviceName string, cause error) *ServiceError {
	return NewServiceError(
		ErrorCategoryNetwork,
		CodeNoDataAvailable,
		fmt.Sprintf("no data available for %s", symbol),
		serviceName,
		"fetch",
		false,
		cause,
	)
}

// NewPriceContinuityError reports a freshly fetched series whose latest close
// is implausible against the last known close. The series must not be
// written.
func NewPriceContinuityError(ticker string, newClose, lastClose float64) *ServiceError {
	return NewServiceError(
		ErrorCategoryValidation,
		CodePriceContinuityRejected,
		fmt.Sprintf("could not validate close %.4f for %s against last known %.4f", newClose, ticker, lastClose),
		"RefreshService",
		"refresh",
		false,
		nil,
	)
}

// NewUnsupportedAssetKindError reports a detail-page URL that matches no
// known kind path segment. Fatal for the record, not for the batch.
func NewUnsupportedAssetKindError(link string) *ServiceError {
	return NewServiceError(
		ErrorCategoryProcessing,
		CodeUnsupportedAssetKind,
		fmt.Sprintf("no asset kind recognized for url %s", link),
		"ScraperService",
		"fetch_details",
		false,
		nil,
	)
}

// HasErrorCode reports whether err (or anything it wraps) is a ServiceError
// carrying the given code.
func HasErrorCode(err error, code string) bool {
	var serviceErr *ServiceError
	if errors.As(err, &serviceErr) {
		return serviceErr.Code == code
	}
	return false
}

// IsRetryableError checks if an error is retryable
func IsRetryableError(err error) bool {
	var serviceErr *ServiceError
	if errors.As(err, &serviceErr) {
		return serviceErr.IsRetryable()
	}
	return false
}
