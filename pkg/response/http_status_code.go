package response

const (
	ErrCodeSuccess      = 4001 // Success
	ErrCodeParamInvalid = 4003 // Request parameter invalid

	ErrCodeUnauthorized = 4010 // Missing or rejected credentials
	ErrCodeForbidden    = 4030 // Not a participant
	ErrCodeNotFound     = 4040 // Conversation not found
	ErrCodeRateLimited  = 4290 // Too many connection attempts
	ErrCodeInternal     = 5000 // Unexpected server failure
)

// message
var msg = map[int]string{
	ErrCodeSuccess:      "success",
	ErrCodeParamInvalid: "invalid request parameters",

	// Connection
	ErrCodeUnauthorized: "unauthorized",
	ErrCodeRateLimited:  "too many requests",

	// Conversation
	ErrCodeForbidden: "not a participant of this conversation",
	ErrCodeNotFound:  "conversation not found",

	ErrCodeInternal: "internal server error",
}

// Msg returns the client-facing message for code.
func Msg(code int) string {
	if m, ok := msg[code]; ok {
		return m
	}
	return msg[ErrCodeInternal]
}
