package service

import (
	"errors"
	"fmt"

	"github.com/Freeeeeet/tuition_market/internal/model"
	"github.com/Freeeeeet/tuition_market/internal/repository/base"
)

type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindForbidden
	KindConflict
	KindValidation
	KindInvalidSignature
	KindUnavailable
	KindUnauthenticated
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "NOT_FOUND"
	case KindForbidden:
		return "FORBIDDEN"
	case KindConflict:
		return "CONFLICT"
	case KindValidation:
		return "VALIDATION_ERROR"
	case KindInvalidSignature:
		return "INVALID_SIGNATURE"
	case KindUnavailable:
		return "UNAVAILABLE"
	case KindUnauthenticated:
		return "UNAUTHENTICATED"
	}
	return "INTERNAL"
}

// Error ошибка бизнес-логики с видом для отображения клиенту
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.String()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is сравнивает по виду, чтобы errors.Is(err, ErrNotFound) работал для любого сообщения
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Message == "" && t.Kind == e.Kind
}

var (
	ErrNotFound         = &Error{Kind: KindNotFound}
	ErrForbidden        = &Error{Kind: KindForbidden}
	ErrConflict         = &Error{Kind: KindConflict}
	ErrValidation       = &Error{Kind: KindValidation}
	ErrInvalidSignature = &Error{Kind: KindInvalidSignature}
	ErrUnavailable      = &Error{Kind: KindUnavailable}
	ErrUnauthenticated  = &Error{Kind: KindUnauthenticated}
)

// KindOf вид ошибки, KindInternal для всего неизвестного
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func newError(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func notFound(format string, args ...any) error   { return newError(KindNotFound, format, args...) }
func forbidden(format string, args ...any) error  { return newError(KindForbidden, format, args...) }
func conflict(format string, args ...any) error   { return newError(KindConflict, format, args...) }
func validation(format string, args ...any) error { return newError(KindValidation, format, args...) }

// fromTransition переводит отказ машины состояний в Conflict
func fromTransition(err error, message string) error {
	if errors.Is(err, model.ErrInvalidTransition) {
		return &Error{Kind: KindConflict, Message: message, Err: err}
	}
	return err
}

// fromDuplicate переводит нарушение уникального индекса в Conflict
func fromDuplicate(err error, message string) error {
	if errors.Is(err, base.ErrDuplicate) {
		return &Error{Kind: KindConflict, Message: message, Err: err}
	}
	return err
}

// fromStale переводит условное обновление, не задевшее строк, в Conflict
func fromStale(err error, message string) error {
	if errors.Is(err, base.ErrStale) {
		return &Error{Kind: KindConflict, Message: message, Err: err}
	}
	return err
}
