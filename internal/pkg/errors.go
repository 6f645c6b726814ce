package pkg

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrKind 错误分类，handler 层统一映射为 HTTP 状态码
type ErrKind int

const (
	KindValidation ErrKind = iota // 参数缺失或格式错误
	KindAuthentication
	KindAuthorization
	KindNotFound
	KindConflict // 预留
	KindInternal
)

type Error struct {
	Kind    ErrKind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(kind ErrKind, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Validationf(format string, args ...any) error {
	return newError(KindValidation, format, args...)
}

func Authenticationf(format string, args ...any) error {
	return newError(KindAuthentication, format, args...)
}

func Authorizationf(format string, args ...any) error {
	return newError(KindAuthorization, format, args...)
}

func NotFoundf(format string, args ...any) error {
	return newError(KindNotFound, format, args...)
}

func Conflictf(format string, args ...any) error {
	return newError(KindConflict, format, args...)
}

func Internalf(format string, args ...any) error {
	return newError(KindInternal, format, args...)
}

// HTTPStatus 未分类的错误一律按 500 处理，不向外泄露细节
func HTTPStatus(err error) int {
	var e *Error
	if !errors.As(err, &e) {
		return http.StatusInternalServerError
	}
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func IsKind(err error, kind ErrKind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
