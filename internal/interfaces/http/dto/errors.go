package dto

import (
	"errors"
	"net/http"

	"github.com/vidahome/backend/internal/domain/integration"
	"github.com/vidahome/backend/internal/domain/listing"
	"github.com/vidahome/backend/internal/infrastructure/ratelimit"
	"github.com/vidahome/backend/internal/infrastructure/registry"
)

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
)

// Input error codes
const (
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidJSON is used when JSON parsing fails
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"
	// ErrCodeInvalidQuery is used when a listing filter clause fails
	// sanitization
	ErrCodeInvalidQuery = "ERR_INVALID_QUERY"
	// ErrCodeInvalidBatchSize is used when a sync batch size is out of
	// bounds
	ErrCodeInvalidBatchSize = "ERR_INVALID_BATCH_SIZE"
	// ErrCodeRequestTooLarge is used when a request body exceeds the
	// configured limit
	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"
)

// Authentication error codes
const (
	// ErrCodeUnauthorized is used when authentication is required but missing/invalid
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	// ErrCodeForbidden is used when the caller lacks permission
	ErrCodeForbidden = "ERR_FORBIDDEN"
)

// Resource error codes
const (
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeNoAddressMatch is used when the cadastral registry has no
	// parcel for the query
	ErrCodeNoAddressMatch = "ERR_NO_ADDRESS_MATCH"
)

// Upstream error codes
const (
	// ErrCodeSourceUnavailable is used when the property CRM cannot be
	// reached or answers garbage
	ErrCodeSourceUnavailable = "ERR_SOURCE_UNAVAILABLE"
	// ErrCodeSourceUnauthorized is used when the CRM rejects the
	// configured credentials
	ErrCodeSourceUnauthorized = "ERR_SOURCE_UNAUTHORIZED"
	// ErrCodeRegistryDown is used when the cadastral registry reports an
	// outage
	ErrCodeRegistryDown = "ERR_REGISTRY_DOWN"
	// ErrCodeRegistryError is used when the registry answers with an
	// application error
	ErrCodeRegistryError = "ERR_REGISTRY_ERROR"
	// ErrCodeTranslationFailed is used when the language engine returns
	// an unusable response
	ErrCodeTranslationFailed = "ERR_TRANSLATION_FAILED"
	// ErrCodeProgressWrite is used when a sync checkpoint cannot be
	// persisted
	ErrCodeProgressWrite = "ERR_PROGRESS_WRITE"
)

// Rate limiting error codes
const (
	// ErrCodeRateLimited is used when a request budget is exhausted
	ErrCodeRateLimited = "ERR_RATE_LIMITED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeBadRequest:       http.StatusBadRequest,
	ErrCodeInvalidJSON:      http.StatusBadRequest,
	ErrCodeInvalidQuery:     http.StatusBadRequest,
	ErrCodeInvalidBatchSize: http.StatusBadRequest,
	ErrCodeRequestTooLarge:  http.StatusRequestEntityTooLarge,

	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,

	ErrCodeNotFound:       http.StatusNotFound,
	ErrCodeNoAddressMatch: http.StatusNotFound,

	ErrCodeSourceUnavailable:  http.StatusBadGateway,
	ErrCodeSourceUnauthorized: http.StatusBadGateway,
	ErrCodeRegistryDown:       http.StatusServiceUnavailable,
	ErrCodeRegistryError:      http.StatusBadGateway,
	ErrCodeTranslationFailed:  http.StatusBadGateway,
	ErrCodeProgressWrite:      http.StatusInternalServerError,

	ErrCodeRateLimited: http.StatusTooManyRequests,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// CodeForError maps a domain error to its API error code.
func CodeForError(err error) string {
	var appErr *registry.AppError

	switch {
	case errors.Is(err, integration.ErrListingNotFound),
		errors.Is(err, listing.ErrNotFound):
		return ErrCodeNotFound
	case errors.Is(err, integration.ErrNoAddressMatch):
		return ErrCodeNoAddressMatch
	case errors.Is(err, integration.ErrInvalidQuery):
		return ErrCodeInvalidQuery
	case errors.Is(err, listing.ErrInvalidBatchSize):
		return ErrCodeInvalidBatchSize
	case errors.Is(err, listing.ErrProgressWrite):
		return ErrCodeProgressWrite
	case errors.Is(err, integration.ErrSourceNotAuthorized):
		return ErrCodeSourceUnauthorized
	case errors.Is(err, integration.ErrSourceUnavailable):
		return ErrCodeSourceUnavailable
	case errors.Is(err, integration.ErrTranslationFailed):
		return ErrCodeTranslationFailed
	case errors.Is(err, registry.ErrServiceDown):
		return ErrCodeRegistryDown
	case errors.As(err, &appErr):
		return ErrCodeRegistryError
	case errors.Is(err, ratelimit.ErrRateLimited):
		return ErrCodeRateLimited
	default:
		return ErrCodeInternal
	}
}
