package domain

import "errors"

// ============================================================================
// Prediction Errors
// ============================================================================

var (
	ErrModelNotLoaded   = errors.New("model not loaded")
	ErrNoStudentData    = errors.New("no student data provided")
	ErrNoStudentsData   = errors.New("no students data provided")
	ErrBatchTooLarge    = errors.New("batch exceeds the maximum number of students")
	ErrInvalidFeature   = errors.New("invalid feature value")
	ErrInvalidRiskLevel = errors.New("invalid risk level")
)

// ============================================================================
// Model Errors
// ============================================================================

var (
	ErrFeatureMismatch         = errors.New("model expects more features than the student record provides")
	ErrModelSelfTestFailed     = errors.New("model self-test failed")
	ErrUnsupportedModelFormat  = errors.New("unsupported model format")
	ErrModelSourceUnavailable  = errors.New("model source unavailable")
	ErrUnsupportedModelSource  = errors.New("unsupported model source")
	ErrModelReloadNotSupported = errors.New("model reload is not configured")
)

// ============================================================================
// Persistence / Cache Errors
// ============================================================================

var (
	ErrPredictionNotFound  = errors.New("no predictions found for student")
	ErrPersistenceDisabled = errors.New("prediction storage is not enabled")
	ErrCacheMiss           = errors.New("cache miss")
)

// ============================================================================
// Auth Errors
// ============================================================================

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("insufficient role for this operation")
)

// ============================================================================
// Evaluation Errors
// ============================================================================

var (
	ErrInvalidLabel = errors.New("label must be 0 or 1")
	ErrEmptyDataset = errors.New("dataset contains no records")
)
