package fsm

import "errors"

// Ошибки валидации.
var (
	// ErrInvalidTransition — переход отсутствует в таблице смежности.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrUnknownState — значение вне закрытого множества состояний.
	ErrUnknownState = errors.New("unknown project state")
)
