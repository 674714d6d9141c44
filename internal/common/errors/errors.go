// Package errors provides standardized error handling for the onboarding
// pipeline and the data-access API.
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Transport / inbound
	ErrCodeTransportUnavailable ErrorCode = "TRANSPORT_UNAVAILABLE"
	ErrCodeMediaFetchFailed     ErrorCode = "MEDIA_FETCH_FAILED"

	// Model / extraction
	ErrCodeExtractionFailed     ErrorCode = "EXTRACTION_FAILED"
	ErrCodeModelTimeout         ErrorCode = "MODEL_TIMEOUT"
	ErrCodeModelCallFailed      ErrorCode = "MODEL_CALL_FAILED"
	ErrCodeVerificationDegraded ErrorCode = "VERIFICATION_DEGRADED"
	ErrCodeOCRDegraded          ErrorCode = "OCR_DEGRADED"

	// Persistence
	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeDatabaseInsertFailed     ErrorCode = "DATABASE_INSERT_FAILED"
	ErrCodeDuplicateApplicant       ErrorCode = "DUPLICATE_APPLICANT"
	ErrCodeSessionWriteFailed       ErrorCode = "SESSION_WRITE_FAILED"

	// Query / data access
	ErrCodeQueryExecutionFailed ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeQueryTimeout         ErrorCode = "QUERY_TIMEOUT"
	ErrCodeInvalidQueryType     ErrorCode = "INVALID_QUERY_TYPE"
	ErrCodeTableNotFound        ErrorCode = "TABLE_NOT_FOUND"

	// Search
	ErrCodeSearchQueryFailed ErrorCode = "SEARCH_QUERY_FAILED"
	ErrCodeIndexingFailed    ErrorCode = "INDEXING_FAILED"

	// Outbound
	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeReplySendFailed        ErrorCode = "REPLY_SEND_FAILED"
	ErrCodeTranslationFailed      ErrorCode = "TRANSLATION_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// CodeOf extracts the ErrorCode from an error chain, or empty string.
func CodeOf(err error) ErrorCode {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr.Code
	}
	return ""
}

// ==========================
// 2. Error Constructors
// ==========================

// NewTransportUnavailableError marks the chat bridge as unreachable. The
// batch proceeds with zero events, so this is informational and retryable
// on the next poll.
func NewTransportUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeTransportUnavailable,
		Message:   "WhatsApp bridge unreachable",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewMediaFetchFailedError creates a per-subject media download error.
func NewMediaFetchFailedError(ref string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeMediaFetchFailed,
		Message:   "Failed to download message media",
		Details:   fmt.Sprintf("mediaRef: %s, error: %s", ref, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewExtractionFailedError creates a non-retryable extraction error. The
// raw model text is kept as the diagnostic payload.
func NewExtractionFailedError(rawResponse string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeExtractionFailed,
		Message:   "Model output could not be parsed as applicant fields",
		Details:   err.Error(),
		Retryable: false,
		Metadata:  map[string]interface{}{"rawResponse": rawResponse},
		Timestamp: time.Now().UTC(),
	}
}

// NewModelTimeoutError creates a retryable model timeout error.
func NewModelTimeoutError() *StandardError {
	return &StandardError{
		Code:      ErrCodeModelTimeout,
		Message:   "Model call exceeded timeout threshold",
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewModelCallFailedError creates a retryable model invocation error.
func NewModelCallFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeModelCallFailed,
		Message:   "Model invocation failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewVerificationDegradedError marks a document check that failed closed
// to score zero. Not retryable within the batch; the applicant is told to
// retry later.
func NewVerificationDegradedError(rawResponse string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeVerificationDegraded,
		Message:   "Document authenticity check degraded to score 0",
		Details:   err.Error(),
		Retryable: false,
		Metadata:  map[string]interface{}{"rawResponse": rawResponse},
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseConnectionFailedError creates a retryable connection error.
// This is the only persistence error that aborts a whole batch.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseConnectionFailed,
		Message:   "Database connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseInsertFailedError creates a retryable insert error.
func NewDatabaseInsertFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseInsertFailed,
		Message:   "Database insert operation failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDuplicateApplicantError creates a non-retryable duplicate key error.
// Duplicate inserts from a re-polled batch are a benign, logged conflict.
func NewDuplicateApplicantError(contactID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeDuplicateApplicant,
		Message:   "Applicant already onboarded",
		Details:   fmt.Sprintf("contactId: %s", contactID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSessionWriteFailedError creates a retryable transcript write error.
func NewSessionWriteFailedError(sessionID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSessionWriteFailed,
		Message:   "Session transcript write failed",
		Details:   fmt.Sprintf("sessionId: %s, error: %s", sessionID, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryExecutionFailedError creates a retryable query execution error.
func NewQueryExecutionFailedError(queryType string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryExecutionFailed,
		Message:   "Database query execution error",
		Details:   fmt.Sprintf("queryType: %s, error: %s", queryType, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryTimeoutError creates a retryable query timeout error.
func NewQueryTimeoutError(queryType string) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryTimeout,
		Message:   "Database query timeout",
		Details:   fmt.Sprintf("queryType: %s", queryType),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidQueryTypeError creates a non-retryable invalid query error.
func NewInvalidQueryTypeError(queryType string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidQueryType,
		Message:   "Unsupported query type",
		Details:   fmt.Sprintf("queryType: %s", queryType),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewTableNotFoundError creates a non-retryable missing table error.
func NewTableNotFoundError(table string) *StandardError {
	return &StandardError{
		Code:      ErrCodeTableNotFound,
		Message:   "Table not found",
		Details:   fmt.Sprintf("table: %s", table),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSearchQueryFailedError creates a retryable search error.
func NewSearchQueryFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSearchQueryFailed,
		Message:   "Elasticsearch query error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewIndexingFailedError creates a retryable indexing error.
func NewIndexingFailedError(docID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeIndexingFailed,
		Message:   "Elasticsearch indexing error",
		Details:   fmt.Sprintf("docId: %s, error: %s", docID, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationSendFailedError creates a retryable notification error.
func NewNotificationSendFailedError(notificationType string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Notification delivery failed",
		Details:   fmt.Sprintf("type: %s, error: %s", notificationType, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewReplySendFailedError creates a retryable chat reply error.
func NewReplySendFailedError(to string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeReplySendFailed,
		Message:   "WhatsApp reply delivery failed",
		Details:   fmt.Sprintf("to: %s, error: %s", to, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewTranslationFailedError marks a degraded translation. The untranslated
// text is still sent, so this never blocks a reply.
func NewTranslationFailedError(targetLang string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeTranslationFailed,
		Message:   "Reply translation failed, sending untranslated text",
		Details:   fmt.Sprintf("targetLang: %s, error: %s", targetLang, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Retry Policy
// ==========================

// GetRetryCount returns the recommended retry count per error code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseConnectionFailed,
		ErrCodeDatabaseInsertFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeSearchQueryFailed,
		ErrCodeIndexingFailed,
		ErrCodeNotificationSendFailed,
		ErrCodeReplySendFailed,
		ErrCodeModelCallFailed,
		ErrCodeSessionWriteFailed:
		return 3 // Retryable technical errors

	case ErrCodeQueryTimeout,
		ErrCodeMediaFetchFailed:
		return 2 // Partial retry for timeouts

	case ErrCodeModelTimeout:
		return 1

	default:
		return 0 // Business errors and degraded outcomes: no retry
	}
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// IsFatalToBatch reports whether an error must abort the whole batch
// instead of skipping one subject. Only storage unavailability qualifies:
// nothing was durably written before that point in the cycle, so the next
// poll retries safely.
func IsFatalToBatch(err error) bool {
	return CodeOf(err) == ErrCodeDatabaseConnectionFailed
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "TRANSPORT") || strings.Contains(codeStr, "MEDIA") || strings.Contains(codeStr, "REPLY"):
		return "TRANSPORT"
	case strings.Contains(codeStr, "MODEL") || strings.Contains(codeStr, "EXTRACTION") || strings.Contains(codeStr, "OCR") || strings.Contains(codeStr, "VERIFICATION"):
		return "AI"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY") || strings.Contains(codeStr, "TABLE") || strings.Contains(codeStr, "SESSION") || strings.Contains(codeStr, "DUPLICATE"):
		return "DATABASE"
	case strings.Contains(codeStr, "SEARCH") || strings.Contains(codeStr, "INDEX"):
		return "SEARCH"
	case strings.Contains(codeStr, "NOTIFICATION") || strings.Contains(codeStr, "TRANSLATION"):
		return "NOTIFICATION"
	default:
		return "OTHER"
	}
}
