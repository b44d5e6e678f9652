package graphql

import (
	"errors"

	"github.com/akihokurino/works-server/internal/common"
)

const (
	codeUnauthenticated = "UNAUTHENTICATED"
	codeForbidden       = "FORBIDDEN"
	codeNotFound        = "NOT_FOUND"
	codeBadRequest      = "BAD_REQUEST"
	codeInternal        = "INTERNAL"

	reasonNotConnected = "NOT_CONNECTED"
)

// Error is what resolvers return. graphql-go copies Extensions into the
// "extensions" member of the response error.
type Error struct {
	err    error
	code   string
	reason string
}

func (e *Error) Error() string { return e.err.Error() }
func (e *Error) Unwrap() error { return e.err }
func (e *Error) Code() string  { return e.code }

func (e *Error) Extensions() map[string]interface{} {
	ext := map[string]interface{}{"code": e.code}
	if e.reason != "" {
		ext["reason"] = e.reason
	}
	return ext
}

// toError classifies a service error by its sentinel.
func toError(err error) *Error {
	var ge *Error
	if errors.As(err, &ge) {
		return ge
	}

	e := &Error{err: err, code: codeInternal}
	switch {
	case errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired):
		e.code = codeUnauthenticated
	case errors.Is(err, common.ErrNotConnected):
		e.code = codeForbidden
		e.reason = reasonNotConnected
	case errors.Is(err, common.ErrForbidden):
		e.code = codeForbidden
	case errors.Is(err, common.ErrorNotFound):
		e.code = codeNotFound
	case errors.Is(err, common.ErrBadRequest):
		e.code = codeBadRequest
	}
	return e
}
