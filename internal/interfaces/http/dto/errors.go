package dto

import "net/http"

// Error codes surfaced by the HTTP layer itself. Domain errors carry
// their own codes and are mapped to a status below.
const (
	ErrCodeInternal     = "INTERNAL"
	ErrCodeBadRequest   = "BAD_REQUEST"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeNotFound     = "NOT_FOUND"
)

// errorCodeHTTPStatus maps domain error codes to HTTP status codes
var errorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:     http.StatusInternalServerError,
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeUnauthorized: http.StatusUnauthorized,

	"NOT_FOUND":      http.StatusNotFound,
	"ALREADY_EXISTS": http.StatusConflict,

	"VERSION_CONFLICT": http.StatusConflict,

	"EXPORT_QUEUE_FULL": http.StatusTooManyRequests,

	"COMPANY_MISSING":  http.StatusBadRequest,
	"INVALID_INPUT":    http.StatusBadRequest,
	"INVALID_AMOUNT":   http.StatusBadRequest,
	"INVALID_NUMBER":   http.StatusBadRequest,
	"INVALID_NAME":     http.StatusBadRequest,
	"INVALID_QUANTITY": http.StatusBadRequest,
	"INVALID_PRICE":    http.StatusBadRequest,
	"INVALID_VAT_RATE": http.StatusBadRequest,
	"INVALID_DISCOUNT": http.StatusBadRequest,
	"INVALID_INVOICE":  http.StatusBadRequest,

	"INVALID_STATE":  http.StatusUnprocessableEntity,
	"INVALID_STATUS": http.StatusUnprocessableEntity,

	"RENDER_TIMEOUT": http.StatusGatewayTimeout,
	"RENDER_FAILED":  http.StatusInternalServerError,
	"INVALID_HTML":   http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown codes map to 500.
func GetHTTPStatus(code string) int {
	if status, ok := errorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
