package model

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition недопустимая смена статуса
var ErrInvalidTransition = errors.New("invalid status transition")

func transitionError(entity string, from, to fmt.Stringer) error {
	return fmt.Errorf("%w: %s %s -> %s", ErrInvalidTransition, entity, from, to)
}
