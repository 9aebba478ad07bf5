package models

import "net/http"

// ErrorCode is the machine-readable code carried in every error envelope.
type ErrorCode string

const (
	CodeBadRequest          ErrorCode = "BAD_REQUEST"
	CodeNotFound            ErrorCode = "NOT_FOUND"
	CodeValidation          ErrorCode = "VALIDATION_ERROR"
	CodeDatabase            ErrorCode = "DATABASE_ERROR"
	CodeInternalServerError ErrorCode = "INTERNAL_SERVER_ERROR"
)

// Status maps a code onto its HTTP status.
func (c ErrorCode) Status() int {
	switch c {
	case CodeBadRequest, CodeValidation:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// APIError is an error that renders as an error envelope.
type APIError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

func (e *APIError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return string(e.Code) + ": " + e.Message
}

func (e *APIError) Status() int { return e.Code.Status() }

func BadRequest(message string) *APIError { return &APIError{Code: CodeBadRequest, Message: message} }
func NotFound(message string) *APIError   { return &APIError{Code: CodeNotFound, Message: message} }
func Validation(message string) *APIError { return &APIError{Code: CodeValidation, Message: message} }
func Database(message string) *APIError   { return &APIError{Code: CodeDatabase, Message: message} }
func Internal(message string) *APIError   { return &APIError{Code: CodeInternalServerError, Message: message} }

// Pagination is attached to list responses.
type Pagination struct {
	Total   int64  `json:"total"`
	Limit   uint64 `json:"limit"`
	Offset  uint64 `json:"offset"`
	HasNext bool   `json:"hasNext"`
}

// NewPagination computes hasNext as offset+limit < total. The sum is
// compared unsigned so a client-supplied offset near MaxInt64 cannot wrap.
func NewPagination(total int64, limit, offset uint64) Pagination {
	return Pagination{
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasNext: total > 0 && offset+limit < uint64(total),
	}
}

// APIResponse is the envelope used by every endpoint.
type APIResponse struct {
	Success    bool        `json:"success"`
	Data       any         `json:"data,omitempty"`
	Error      *APIError   `json:"error,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

func Success(data any) APIResponse {
	return APIResponse{Success: true, Data: data}
}

func SuccessPage(data any, p Pagination) APIResponse {
	return APIResponse{Success: true, Data: data, Pagination: &p}
}

func Failure(err *APIError) APIResponse {
	return APIResponse{Success: false, Error: err}
}
