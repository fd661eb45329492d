package constants

const (
	ErrCodeInvalidMessage         = "INVALID_MESSAGE"
	ErrCodeNoRecipients           = "NO_RECIPIENTS"
	ErrCodeInvalidSenderIdentity  = "INVALID_SENDER_IDENTITY"
	ErrCodeInvalidStateTransition = "INVALID_STATE_TRANSITION"
	ErrCodeInsufficientCredits    = "INSUFFICIENT_CREDITS"
	ErrCodeMessageNotEditable     = "MESSAGE_NOT_EDITABLE"
	ErrCodeNotFound               = "NOT_FOUND"
	ErrCodeDuplicateMessage       = "DUPLICATE_MESSAGE"
	ErrCodeDispatchFailed         = "DISPATCH_FAILED"
	ErrCodeInvalidRequestBody     = "INVALID_REQUEST_BODY"
	ErrCodeInternalError          = "INTERNAL_ERROR"
)

var errorMessages = map[string]string{
	ErrCodeInvalidMessage:         "message content or category is invalid",
	ErrCodeNoRecipients:           "resolved recipient set is empty",
	ErrCodeInvalidSenderIdentity:  "sender identity is missing, foreign or not approved",
	ErrCodeInvalidStateTransition: "requested status transition is not allowed",
	ErrCodeInsufficientCredits:    "account has insufficient credits",
	ErrCodeMessageNotEditable:     "message can no longer be modified",
	ErrCodeNotFound:               "resource not found",
	ErrCodeDuplicateMessage:       "duplicate message reference",
	ErrCodeDispatchFailed:         "dispatch failed after retries",
	ErrCodeInvalidRequestBody:     "failed to parse request body",
	ErrCodeInternalError:          "internal server error",
}

func GetErrorMessage(code string) string {
	if msg, exists := errorMessages[code]; exists {
		return msg
	}
	return errorMessages[ErrCodeInternalError]
}

func GetHTTPStatus(code string) int {
	switch code {
	case ErrCodeInvalidMessage, ErrCodeNoRecipients, ErrCodeInvalidRequestBody:
		return 400
	case ErrCodeNotFound:
		return 404
	case ErrCodeInvalidSenderIdentity:
		return 422
	case ErrCodeInvalidStateTransition, ErrCodeMessageNotEditable, ErrCodeDuplicateMessage:
		return 409
	case ErrCodeInsufficientCredits:
		return 402
	case ErrCodeDispatchFailed:
		return 503
	default:
		return 500
	}
}
