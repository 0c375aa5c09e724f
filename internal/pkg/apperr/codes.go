package apperr

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	CodeInternal Code = "INTERNAL"

	CodeValidation   Code = "VALIDATION"
	CodeMissingInput Code = "MISSING_INPUT"
	CodeNotFound     Code = "NOT_FOUND"

	// Identity errors
	CodeDuplicateIdentity Code = "DUPLICATE_IDENTITY"
	CodeDuplicateContact  Code = "DUPLICATE_CONTACT"
	CodeSelfContact       Code = "SELF_CONTACT"
	CodeInvalidCredential Code = "INVALID_CREDENTIAL"
	CodeUnauthorized      Code = "UNAUTHORIZED"
	CodeForbidden         Code = "FORBIDDEN"

	// Second factor errors
	CodeChallengeNotFound   Code = "CHALLENGE_NOT_FOUND"
	CodeOTPMismatch         Code = "OTP_MISMATCH"
	CodeNotificationFailure Code = "NOTIFICATION_FAILURE"

	// Conversation errors
	CodeParticipantMismatch Code = "PARTICIPANT_MISMATCH"
	CodeConsistency         Code = "CONSISTENCY"
)

// HTTPStatus maps domain codes to HTTP status codes.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeValidation,
		CodeMissingInput,
		CodeDuplicateIdentity,
		CodeDuplicateContact,
		CodeParticipantMismatch,
		CodeChallengeNotFound:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeInvalidCredential, CodeOTPMismatch, CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeSelfContact, CodeForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// Public reports whether the message of an error with this code may be shown
// to clients as is.
func (c Code) Public() bool {
	switch c {
	case CodeInternal, CodeConsistency:
		return false
	}
	return true
}
