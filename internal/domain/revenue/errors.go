package revenue

// DomainError represents a domain-level error with a stable code
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common revenue engine errors
var (
	// ErrFetchFailed indicates a network/HTTP failure or an unusable response
	// from the reporting API. Recoverable; callers surface a retry affordance.
	ErrFetchFailed = NewDomainError("FETCH_FAILED", "Failed to fetch revenue report")

	// ErrMalformedResponse indicates the reporting API returned a top-level
	// document that could not be decoded. The last-known-good snapshot is kept.
	ErrMalformedResponse = NewDomainError("MALFORMED_RESPONSE", "Reporting API returned a malformed document")

	// ErrInvalidFilter indicates a filter combination that must not be
	// dispatched (e.g. minAmount > maxAmount, malformed date range).
	ErrInvalidFilter = NewDomainError("INVALID_FILTER", "Invalid filter combination")

	// ErrExportFailed indicates a report serialization failure; it never
	// affects the displayed snapshot.
	ErrExportFailed = NewDomainError("EXPORT_FAILED", "Failed to produce export file")

	// ErrNoSnapshot indicates no snapshot has been fetched yet.
	ErrNoSnapshot = NewDomainError("NO_SNAPSHOT", "No report snapshot available")
)
