package dto

import "net/http"

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
)

// Revenue engine error codes, mirroring the domain error codes
const (
	// ErrCodeInvalidFilter is used when a filter combination is rejected
	ErrCodeInvalidFilter = "ERR_INVALID_FILTER"
	// ErrCodeFetchFailed is used when the reporting API is unreachable or
	// returns an unusable response
	ErrCodeFetchFailed = "ERR_FETCH_FAILED"
	// ErrCodeMalformedResponse is used when the reporting API document
	// cannot be decoded
	ErrCodeMalformedResponse = "ERR_MALFORMED_RESPONSE"
	// ErrCodeExportFailed is used when report serialization fails
	ErrCodeExportFailed = "ERR_EXPORT_FAILED"
	// ErrCodeNoSnapshot is used when no report snapshot has been fetched yet
	ErrCodeNoSnapshot = "ERR_NO_SNAPSHOT"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:    http.StatusInternalServerError,
	ErrCodeInternal:   http.StatusInternalServerError,
	ErrCodeBadRequest: http.StatusBadRequest,
	ErrCodeNotFound:   http.StatusNotFound,

	// Upstream reporting failures surface as bad gateway
	ErrCodeFetchFailed:       http.StatusBadGateway,
	ErrCodeMalformedResponse: http.StatusBadGateway,

	ErrCodeInvalidFilter: http.StatusBadRequest,
	ErrCodeExportFailed:  http.StatusInternalServerError,
	ErrCodeNoSnapshot:    http.StatusNotFound,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// domainCodeMapping maps domain error codes to their API error codes
var domainCodeMapping = map[string]string{
	"FETCH_FAILED":       ErrCodeFetchFailed,
	"MALFORMED_RESPONSE": ErrCodeMalformedResponse,
	"INVALID_FILTER":     ErrCodeInvalidFilter,
	"EXPORT_FAILED":      ErrCodeExportFailed,
	"NO_SNAPSHOT":        ErrCodeNoSnapshot,
	"BAD_REQUEST":        ErrCodeBadRequest,
	"NOT_FOUND":          ErrCodeNotFound,
	"INTERNAL_ERROR":     ErrCodeInternal,
}

// NormalizeErrorCode converts a domain error code to the API format.
// If the code is already in the API format or unknown, returns it as-is.
func NormalizeErrorCode(code string) string {
	if apiCode, ok := domainCodeMapping[code]; ok {
		return apiCode
	}
	return code
}
