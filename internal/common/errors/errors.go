// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Matching pipeline and persistence errors
const (
	ErrCodeParticipantValidationFailed ErrorCode = "PARTICIPANT_VALIDATION_FAILED"
	ErrCodeInsufficientPopulation      ErrorCode = "INSUFFICIENT_POPULATION"
	ErrCodeCatalogValidationFailed     ErrorCode = "CATALOG_VALIDATION_FAILED"
	ErrCodeMatchingInvariantViolation  ErrorCode = "MATCHING_INVARIANT_VIOLATION"
	ErrCodeRunExecutionFailed          ErrorCode = "RUN_EXECUTION_FAILED"

	ErrCodeSnapshotLoadFailed ErrorCode = "SNAPSHOT_LOAD_FAILED"
	ErrCodeResultWriteFailed  ErrorCode = "RESULT_WRITE_FAILED"
	ErrCodeMatchDiscardFailed ErrorCode = "MATCH_DISCARD_FAILED"

	ErrCodeRunAlreadyInProgress ErrorCode = "RUN_ALREADY_IN_PROGRESS"
	ErrCodeRunLockFailed        ErrorCode = "RUN_LOCK_FAILED"

	ErrCodeDiagnosticsArchiveFailed ErrorCode = "DIAGNOSTICS_ARCHIVE_FAILED"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
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

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}

	if e.ErrorVariables != nil {
		for k, v := range e.ErrorVariables {
			vars[k] = v
		}
	}

	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

// NewParticipantValidationFailedError creates a non-retryable snapshot validation error.
func NewParticipantValidationFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeParticipantValidationFailed,
		Message:   "Participant snapshot failed validation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInsufficientPopulationError creates a non-retryable population size error.
// Retrying cannot help until more participants join the population.
func NewInsufficientPopulationError(participantCount int) *StandardError {
	return &StandardError{
		Code:      ErrCodeInsufficientPopulation,
		Message:   "Population too small to run matching",
		Details:   fmt.Sprintf("participantCount: %d, minimum: 2", participantCount),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewCatalogValidationFailedError creates a non-retryable catalog error.
func NewCatalogValidationFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeCatalogValidationFailed,
		Message:   "Question catalog failed validation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewMatchingInvariantViolationError creates a non-retryable internal defect error.
// These indicate a bug in the pipeline, not a data problem, and must surface
// to an operator rather than be retried away.
func NewMatchingInvariantViolationError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeMatchingInvariantViolation,
		Message:   "Matching result violated a structural invariant",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewRunExecutionFailedError creates a retryable run execution error.
func NewRunExecutionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeRunExecutionFailed,
		Message:   "Matching run failed unexpectedly",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSnapshotLoadFailedError creates a retryable snapshot read error.
func NewSnapshotLoadFailedError(populationID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSnapshotLoadFailed,
		Message:   "Failed to load population snapshot",
		Details:   fmt.Sprintf("populationId: %s, error: %s", populationID, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewResultWriteFailedError creates a retryable result persistence error.
func NewResultWriteFailedError(runID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeResultWriteFailed,
		Message:   "Failed to persist matching results",
		Details:   fmt.Sprintf("runId: %s, error: %s", runID, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewMatchDiscardFailedError creates a retryable discard error.
func NewMatchDiscardFailedError(populationID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeMatchDiscardFailed,
		Message:   "Failed to discard matching results",
		Details:   fmt.Sprintf("populationId: %s, error: %s", populationID, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewRunAlreadyInProgressError creates a non-retryable concurrent run error.
func NewRunAlreadyInProgressError(populationID, lockOwner string) *StandardError {
	return &StandardError{
		Code:      ErrCodeRunAlreadyInProgress,
		Message:   "A matching run is already in progress for this population",
		Details:   fmt.Sprintf("populationId: %s, lockOwner: %s", populationID, lockOwner),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewRunLockFailedError creates a retryable lock acquisition error.
func NewRunLockFailedError(populationID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeRunLockFailed,
		Message:   "Failed to acquire run lock",
		Details:   fmt.Sprintf("populationId: %s, error: %s", populationID, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDiagnosticsArchiveFailedError creates a retryable archive error.
func NewDiagnosticsArchiveFailedError(runID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDiagnosticsArchiveFailed,
		Message:   "Failed to archive run diagnostics",
		Details:   fmt.Sprintf("runId: %s, error: %s", runID, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseConnectionFailedError creates a retryable database connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseConnectionFailed,
		Message:   "Database connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// Generic constructors

func NewBusinessRuleError(message, details string) *StandardError {
	return &StandardError{
		Code:      "BUSINESS_RULE_VIOLATION",
		Message:   message,
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewExternalServiceError(service string, err error) *StandardError {
	return &StandardError{
		Code:      "EXTERNAL_SERVICE_ERROR",
		Message:   fmt.Sprintf("External service '%s' error", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewTimeoutError(service string, err error) *StandardError {
	return &StandardError{
		Code:      "TIMEOUT_ERROR",
		Message:   fmt.Sprintf("Service '%s' timeout", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewResourceNotFoundError(service, details string) *StandardError {
	return &StandardError{
		Code:      "RESOURCE_NOT_FOUND",
		Message:   fmt.Sprintf("Resource not found in %s", service),
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewAuthenticationError(details string) *StandardError {
	return &StandardError{
		Code:      "AUTHENTICATION_ERROR",
		Message:   "Authentication failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to BPMN error codes. The codes
// are identical so process models can reference them directly.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeParticipantValidationFailed: "PARTICIPANT_VALIDATION_FAILED",
	ErrCodeInsufficientPopulation:      "INSUFFICIENT_POPULATION",
	ErrCodeCatalogValidationFailed:     "CATALOG_VALIDATION_FAILED",
	ErrCodeMatchingInvariantViolation:  "MATCHING_INVARIANT_VIOLATION",
	ErrCodeRunExecutionFailed:          "RUN_EXECUTION_FAILED",
	ErrCodeSnapshotLoadFailed:          "SNAPSHOT_LOAD_FAILED",
	ErrCodeResultWriteFailed:           "RESULT_WRITE_FAILED",
	ErrCodeMatchDiscardFailed:          "MATCH_DISCARD_FAILED",
	ErrCodeRunAlreadyInProgress:        "RUN_ALREADY_IN_PROGRESS",
	ErrCodeRunLockFailed:               "RUN_LOCK_FAILED",
	ErrCodeDiagnosticsArchiveFailed:    "DIAGNOSTICS_ARCHIVE_FAILED",
	ErrCodeDatabaseConnectionFailed:    "DATABASE_CONNECTION_FAILED",
}

// GetRetryCount returns the recommended retry count per error code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeSnapshotLoadFailed,
		ErrCodeResultWriteFailed,
		ErrCodeMatchDiscardFailed,
		ErrCodeDatabaseConnectionFailed:
		return 3 // Retryable technical errors

	case ErrCodeRunLockFailed,
		ErrCodeDiagnosticsArchiveFailed,
		ErrCodeRunExecutionFailed:
		return 2 // Transient infrastructure hiccups

	default:
		return 0 // Business errors: no retry
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code) // Fallback
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      bpmnCode,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	case strings.Contains(codeStr, "POPULATION") || strings.Contains(codeStr, "SNAPSHOT"):
		return "POPULATION"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "WRITE") || strings.Contains(codeStr, "DISCARD"):
		return "DATABASE"
	case strings.Contains(codeStr, "LOCK") || strings.Contains(codeStr, "IN_PROGRESS"):
		return "LOCK"
	case strings.Contains(codeStr, "ARCHIVE"):
		return "DIAGNOSTICS"
	case strings.Contains(codeStr, "MATCHING") || strings.Contains(codeStr, "RUN"):
		return "MATCHING"
	default:
		return "OTHER"
	}
}
