package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrConflict ErrCode = "CONFLICT"

	// ─── Paper-specific ────────────────────────────────────────────────
	ErrPaperNotFound    ErrCode = "PAPER_NOT_FOUND"
	ErrPaperFetchFailed ErrCode = "PAPER_FETCH_FAILED"
	ErrNoQuestions      ErrCode = "NO_QUESTIONS"

	// ─── Attempt-specific ──────────────────────────────────────────────
	ErrAttemptNotFound  ErrCode = "ATTEMPT_NOT_FOUND"
	ErrAttemptFinished  ErrCode = "ATTEMPT_FINISHED"
	ErrQueryTooShort    ErrCode = "QUERY_TOO_SHORT"
	ErrOptionOutOfRange ErrCode = "OPTION_OUT_OF_RANGE"
	ErrIndexOutOfRange  ErrCode = "INDEX_OUT_OF_RANGE"

	// ─── Generator ─────────────────────────────────────────────────────
	ErrGeneratorDisabled ErrCode = "GENERATOR_DISABLED"
	ErrGeneratorFailed   ErrCode = "GENERATOR_FAILED"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid ID format."
	case ErrInvalidPayload:
		return "Invalid request payload."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found."
	case ErrConflict:
		return "Resource already exists."

	// ─── Paper-specific ────────────────────────────────────────────────
	case ErrPaperNotFound:
		return "The requested paper does not exist."
	case ErrPaperFetchFailed:
		return "The paper could not be loaded."
	case ErrNoQuestions:
		return "This paper has no valid questions."

	// ─── Attempt-specific ──────────────────────────────────────────────
	case ErrAttemptNotFound:
		return "No active attempt found for this key."
	case ErrAttemptFinished:
		return "This attempt has already finished."
	case ErrQueryTooShort:
		return "Search query is too short."
	case ErrOptionOutOfRange:
		return "Selected option is out of range."
	case ErrIndexOutOfRange:
		return "Question index is out of range."

	// ─── Generator ─────────────────────────────────────────────────────
	case ErrGeneratorDisabled:
		return "Question generation is not enabled on this server."
	case ErrGeneratorFailed:
		return "Question generation failed. Please try again."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
