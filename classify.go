package radar

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/url"
	"strings"
)

// Analysis error codes reported on failed tasks.
const (
	EAPIKEYMISSING = "API_KEY_NOT_CONFIGURED"
	EAPIKEYINVALID = "API_KEY_INVALID"
	EQUOTA         = "QUOTA_EXCEEDED"
	ENETWORK       = "NETWORK_ERROR"
	EEXTRACTION    = "EXTRACTION_FAILED"
	EPARSE         = "PARSE_ERROR"
	ESTORAGEFULL   = "STORAGE_FULL"
	ETIMEOUT       = "TIMEOUT"
	EUNKNOWN       = "UNKNOWN"
	ECANCELLED     = "CANCELLED"
)

// ErrorAction suggests what the user can do about a failed task.
type ErrorAction string

// Suggested actions.
const (
	ActionSettings ErrorAction = "settings"
	ActionRetry    ErrorAction = "retry"
	ActionCleanup  ErrorAction = "cleanup"
	ActionNone     ErrorAction = "none"
)

// TaskError is the classified, user-facing failure of a task.
type TaskError struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	Retryable bool        `json:"retryable"`
	Action    ErrorAction `json:"action"`
}

// Error implements the error interface.
func (e *TaskError) Error() string {
	return e.Code + ": " + e.Message
}

// StatusError is an error carrying a transport status code, returned by
// model clients talking HTTP.
type StatusError struct {
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return e.Message
}

var taxonomy = map[string]struct {
	retryable bool
	action    ErrorAction
	message   string
}{
	EAPIKEYMISSING: {false, ActionSettings, "API key is not configured. Add one in settings."},
	EAPIKEYINVALID: {false, ActionSettings, "API key was rejected by the provider. Check it in settings."},
	EQUOTA:         {false, ActionSettings, "Provider quota exceeded. Check your plan or switch keys."},
	ENETWORK:       {true, ActionRetry, "Network error while contacting the provider."},
	EEXTRACTION:    {false, ActionNone, "Could not read content from this page."},
	EPARSE:         {true, ActionRetry, "The model returned a malformed response."},
	ESTORAGEFULL:   {false, ActionCleanup, "Local storage is full. Delete old records and try again."},
	ETIMEOUT:       {true, ActionRetry, "The request timed out."},
	EUNKNOWN:       {true, ActionRetry, "Unexpected error."},
	ECANCELLED:     {true, ActionRetry, "Cancelled."},
}

// NewTaskError returns a TaskError for code with the taxonomy's retry flag
// and action. An empty message uses the default message for the code.
func NewTaskError(code, message string) *TaskError {
	t, ok := taxonomy[code]
	if !ok {
		code = EUNKNOWN
		t = taxonomy[EUNKNOWN]
	}
	if message == "" {
		message = t.message
	}
	return &TaskError{Code: code, Message: message, Retryable: t.retryable, Action: t.action}
}

// IsAnalysisCode reports whether code belongs to the task error taxonomy.
func IsAnalysisCode(code string) bool {
	_, ok := taxonomy[code]
	return ok
}

// ClassifyError maps any error returned from a pipeline stage to a
// TaskError. Unrecognized errors become UNKNOWN.
func ClassifyError(err error) *TaskError {
	if err == nil {
		return nil
	}

	var te *TaskError
	if errors.As(err, &te) {
		return te
	}

	var e *Error
	if errors.As(err, &e) && IsAnalysisCode(e.Code) {
		return NewTaskError(e.Code, e.Message)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return NewTaskError(ETIMEOUT, "")
	}
	if errors.Is(err, context.Canceled) {
		return NewTaskError(ECANCELLED, "")
	}

	var se *StatusError
	if errors.As(err, &se) {
		return classifyStatus(se.StatusCode, se.Message)
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return NewTaskError(EPARSE, "")
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return NewTaskError(ETIMEOUT, "")
		}
		return NewTaskError(ENETWORK, "")
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return NewTaskError(ENETWORK, "")
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "timed out"):
		return NewTaskError(ETIMEOUT, "")
	case strings.Contains(msg, "fetch failed"), strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "no such host"):
		return NewTaskError(ENETWORK, "")
	}

	return NewTaskError(EUNKNOWN, err.Error())
}

// classifyStatus maps a transport status code to the taxonomy.
func classifyStatus(status int, message string) *TaskError {
	switch {
	case status == 401 || status == 403:
		return NewTaskError(EAPIKEYINVALID, "")
	case status == 429:
		return NewTaskError(EQUOTA, "")
	case status == 408:
		return NewTaskError(ETIMEOUT, "")
	case status >= 500:
		return NewTaskError(ENETWORK, "")
	}
	return NewTaskError(EUNKNOWN, message)
}
