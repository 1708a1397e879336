package resp

import (
	"net/http"

	"github.com/ncobase/passport/ecode"
)

// UnAuthorized indicates that the request is unauthorized.
func UnAuthorized(message string, errs ...ecode.FieldError) *Exception {
	return newException(http.StatusUnauthorized, ecode.Unauthorized, message, errs)
}

// BadRequest indicates a bad request.
func BadRequest(message string, errs ...ecode.FieldError) *Exception {
	return newException(http.StatusBadRequest, ecode.RequestErr, message, errs)
}

// Forbidden indicates access is forbidden.
func Forbidden(message string, errs ...ecode.FieldError) *Exception {
	return newException(http.StatusForbidden, ecode.AccessDenied, message, errs)
}

func newException(status, code int, message string, errs []ecode.FieldError) *Exception {
	return &Exception{Status: status, Code: code, Message: message, Errors: errs}
}
