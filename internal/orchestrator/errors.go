package orchestrator

import (
	"errors"
	"fmt"

	"github.com/shaiso/Conductor/internal/domain"
)

// Ошибки оркестратора.
var (
	// ErrProjectNotFound — проект не найден.
	ErrProjectNotFound = errors.New("project not found")

	// ErrInvalidStateTransition — действие недопустимо в текущем состоянии.
	ErrInvalidStateTransition = errors.New("invalid state transition")

	// ErrNoRequirements — у проекта нет ни одного требования.
	ErrNoRequirements = errors.New("project has no requirements")

	// ErrIncoherentRequirements — требования не прошли проверку когерентности.
	ErrIncoherentRequirements = errors.New("project has incoherent requirements")

	// ErrRetryNotAllowed — retry агента запрещён в текущем состоянии.
	ErrRetryNotAllowed = errors.New("retry not allowed")

	// ErrUnresolvableAgent — для агента не зарегистрирован runner.
	ErrUnresolvableAgent = errors.New("no runner registered for agent")

	// ErrDispatchFailed — runner не смог принять задачу.
	ErrDispatchFailed = errors.New("agent dispatch failed")
)

// StateError — ошибка валидации с контекстом текущего состояния.
//
// Несёт структурированный payload для API слоя: вид ошибки (Err),
// текущее состояние и запрошенное действие.
type StateError struct {
	// Err — вид ошибки (один из sentinel-ошибок пакета).
	Err error

	// CurrentState — состояние проекта на момент отказа.
	CurrentState domain.ProjectState

	// RequestedAction — действие или целевое состояние, которое было запрошено.
	RequestedAction string
}

// Error реализует error.
func (e *StateError) Error() string {
	return fmt.Sprintf("%v: state=%s action=%s", e.Err, e.CurrentState, e.RequestedAction)
}

// Unwrap возвращает вид ошибки для errors.Is.
func (e *StateError) Unwrap() error {
	return e.Err
}
