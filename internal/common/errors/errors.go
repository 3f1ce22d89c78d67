// Package errors provides standardized error handling for the matching engine.
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
	// Run-level errors: the whole run is rejected or failed.
	ErrCodeInputInvalid       ErrorCode = "INPUT_INVALID"
	ErrCodeNoCandidates       ErrorCode = "NO_CANDIDATES"
	ErrCodeRunCancelled       ErrorCode = "RUN_CANCELLED"
	ErrCodeSnapshotLoadFailed ErrorCode = "SNAPSHOT_LOAD_FAILED"
	ErrCodeInvalidWeights     ErrorCode = "INVALID_WEIGHTS"
	ErrCodeRequestNotFound    ErrorCode = "REQUEST_NOT_FOUND"
	ErrCodeCandidateNotFound  ErrorCode = "CANDIDATE_NOT_FOUND"

	// Unit-level errors: absorbed, reflected in counters or flags.
	ErrCodeCandidateSkipped      ErrorCode = "CANDIDATE_SKIPPED"
	ErrCodeTimeoutPartial        ErrorCode = "TIMEOUT_PARTIAL"
	ErrCodePredictionUnavailable ErrorCode = "PREDICTION_UNAVAILABLE"
)

// EngineError represents a structured engine error.
type EngineError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("EngineError[%s]: %s", e.Code, e.Message)
}

// Code extracts the ErrorCode from err, or empty if err is not an EngineError.
func Code(err error) ErrorCode {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.Code
	}
	return ""
}

// Is reports whether err carries the given code.
func Is(err error, code ErrorCode) bool {
	return Code(err) == code
}

// ==========================
// 2. Error Constructors
// ==========================

// NewInputInvalidError rejects a malformed request before any candidates are
// collected. Not retryable: the caller must fix the request.
func NewInputInvalidError(details string) *EngineError {
	return &EngineError{
		Code:      ErrCodeInputInvalid,
		Message:   "Request spec is missing required fields",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewNoCandidatesError fails a run that has no identifiable candidate pool.
func NewNoCandidatesError(requestID, category string) *EngineError {
	return &EngineError{
		Code:      ErrCodeNoCandidates,
		Message:   "No candidate pool for request",
		Details:   fmt.Sprintf("requestId: %s, category: %s", requestID, category),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewRunCancelledError marks a run cancelled by the caller; unfinished
// results are discarded, not returned.
func NewRunCancelledError(runID string) *EngineError {
	return &EngineError{
		Code:      ErrCodeRunCancelled,
		Message:   "Matching run cancelled",
		Details:   fmt.Sprintf("runId: %s", runID),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSnapshotLoadFailedError creates a retryable snapshot loading error.
func NewSnapshotLoadFailedError(kind string, err error) *EngineError {
	return &EngineError{
		Code:      ErrCodeSnapshotLoadFailed,
		Message:   "Snapshot load failed",
		Details:   fmt.Sprintf("kind: %s, error: %s", kind, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidWeightsError rejects a weight table that does not sum to 1.0.
func NewInvalidWeightsError(details string) *EngineError {
	return &EngineError{
		Code:      ErrCodeInvalidWeights,
		Message:   "Weight table validation failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewRequestNotFoundError creates a non-retryable missing-request error.
func NewRequestNotFoundError(requestID string) *EngineError {
	return &EngineError{
		Code:      ErrCodeRequestNotFound,
		Message:   "Request not found in snapshot store",
		Details:   fmt.Sprintf("requestId: %s", requestID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewCandidateNotFoundError creates a non-retryable missing-candidate error.
func NewCandidateNotFoundError(candidateID string) *EngineError {
	return &EngineError{
		Code:      ErrCodeCandidateNotFound,
		Message:   "Candidate not found in snapshot store",
		Details:   fmt.Sprintf("candidateId: %s", candidateID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewCandidateSkippedError records one unusable candidate. The run absorbs
// it and continues with the remaining batch.
func NewCandidateSkippedError(candidateID, reason string) *EngineError {
	return &EngineError{
		Code:      ErrCodeCandidateSkipped,
		Message:   "Candidate excluded from batch",
		Details:   fmt.Sprintf("candidateId: %s, reason: %s", candidateID, reason),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewTimeoutPartialError marks a run that exceeded its wall-clock budget.
// The ranking achieved so far is still returned, flagged partial.
func NewTimeoutPartialError(runID string, completed, total int) *EngineError {
	return &EngineError{
		Code:      ErrCodeTimeoutPartial,
		Message:   "Run exceeded time budget, returning partial ranking",
		Details:   fmt.Sprintf("runId: %s, completed: %d/%d", runID, completed, total),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewPredictionUnavailableError records an estimator failure. The heuristic
// fallback takes over; the run is never blocked.
func NewPredictionUnavailableError(err error) *EngineError {
	return &EngineError{
		Code:      ErrCodePredictionUnavailable,
		Message:   "Success estimator unavailable, using heuristic fallback",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Utility Functions
// ==========================

// IsRetryable checks whether err is a retryable engine error.
func IsRetryable(err error) bool {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.Retryable
	}
	return false
}

// IsRunFatal reports whether the code fails the whole run rather than a
// single unit.
func IsRunFatal(code ErrorCode) bool {
	switch code {
	case ErrCodeInputInvalid, ErrCodeNoCandidates, ErrCodeRunCancelled,
		ErrCodeSnapshotLoadFailed, ErrCodeInvalidWeights,
		ErrCodeRequestNotFound, ErrCodeCandidateNotFound:
		return true
	default:
		return false
	}
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "INPUT") || strings.Contains(codeStr, "WEIGHTS"):
		return "VALIDATION"
	case strings.Contains(codeStr, "SNAPSHOT") || strings.Contains(codeStr, "NOT_FOUND"):
		return "SNAPSHOT"
	case strings.Contains(codeStr, "CANDIDATE") || strings.Contains(codeStr, "TIMEOUT"):
		return "RUN"
	case strings.Contains(codeStr, "PREDICTION"):
		return "PREDICTION"
	default:
		return "OTHER"
	}
}
