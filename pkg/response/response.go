package response

import (
	"net/http"

	"fieldexpense/pkg/apperror"
)

// Response represents a standard API response format
type Response struct {
	Status     string      `json:"status"`      // "success" or "error"
	StatusCode int         `json:"status_code"` // HTTP status code
	Data       interface{} `json:"data,omitempty"`
	Error      string      `json:"error,omitempty"`
	ErrorKind  string      `json:"error_kind,omitempty"` // VALIDATION, CONFLICT, NOT_FOUND, RULE_VIOLATION
}

// Success returns a standard success response wrapping the data
func Success(statusCode int, data interface{}) Response {
	return Response{
		Status:     "success",
		StatusCode: statusCode,
		Data:       data,
	}
}

// Error returns a standard error response wrapping the error message
func Error(statusCode int, err string) Response {
	return Response{
		Status:     "error",
		StatusCode: statusCode,
		Error:      err,
	}
}

// FromError maps a classified service error to the HTTP status code and
// response body the caller should emit.
func FromError(err error) (int, Response) {
	kind := apperror.KindOf(err)
	code := http.StatusInternalServerError
	switch kind {
	case apperror.KindValidation:
		code = http.StatusBadRequest
	case apperror.KindNotFound:
		code = http.StatusNotFound
	case apperror.KindConflict:
		code = http.StatusConflict
	case apperror.KindRuleViolation:
		code = http.StatusUnprocessableEntity
	}

	resp := Response{
		Status:     "error",
		StatusCode: code,
		Error:      err.Error(),
	}
	if kind != apperror.KindUnknown {
		resp.ErrorKind = kind.String()
	}
	return code, resp
}
