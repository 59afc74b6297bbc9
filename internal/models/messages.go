package models

// Error codes used in service responses.
const (
	ErrCodeInvalidRequest = "INVALID_REQUEST"
	ErrCodeAuthFailed     = "AUTH_FAILED"
	ErrCodeAPIError       = "API_ERROR"
)

// StackRequest represents a request to the sync service to stack a batch of
// events onto one of a client's calendars.
type StackRequest struct {
	Action     string          `json:"action"` // stack_events, list_events, delete_event
	ClientID   int64           `json:"client_id"`
	CalendarID string          `json:"calendar_id"`
	Events     []CalendarEvent `json:"events,omitempty"`
	EventID    string          `json:"event_id,omitempty"`
	RequestID  string          `json:"request_id"` // Correlation ID
}

// StackResponse represents a response from the sync service.
type StackResponse struct {
	Success   bool       `json:"success"`
	Data      any        `json:"data,omitempty"`
	Error     *ErrorInfo `json:"error,omitempty"`
	RequestID string     `json:"request_id"`
}

// ErrorInfo carries a machine code plus a human message.
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SuccessResponse builds a success envelope for a service reply.
func SuccessResponse(data any, requestID string) map[string]interface{} {
	return map[string]interface{}{
		"success":    true,
		"data":       data,
		"request_id": requestID,
	}
}

// ErrorResponse builds an error envelope for a service reply.
func ErrorResponse(code, message, requestID string) map[string]interface{} {
	return map[string]interface{}{
		"success":    false,
		"error":      map[string]string{"code": code, "message": message},
		"request_id": requestID,
	}
}
