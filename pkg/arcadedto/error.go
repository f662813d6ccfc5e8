package arcadedto

const (
	CodeBadRequest   = "bad_request"
	CodeNotFound     = "not_found"
	CodeConflict     = "conflict"
	CodeTooMany      = "too_many_sessions"
	CodeInternal     = "internal"
	CodeUnavailable  = "unavailable"
	CodeIllegalMove  = "illegal_move"
	CodeUnknownGame  = "unknown_game"
	CodeUnknownLevel = "unknown_difficulty"
)

type DomainError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable,omitempty"`
}

func (e DomainError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Code != "" {
		return e.Code
	}
	return "arcade service error"
}

// ErrorEnvelope is the body of every non-2xx response.
type ErrorEnvelope struct {
	Error DomainError `json:"error"`
}
