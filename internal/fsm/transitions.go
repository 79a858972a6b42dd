package fsm

import (
	"fmt"

	"github.com/shaiso/Conductor/internal/domain"
)

// transitions — таблица смежности допустимых переходов.
//
// Инвариант: у каждого нетерминального состояния непустой список исходящих
// переходов; у DONE — пустой.
var transitions = map[domain.ProjectState][]domain.ProjectState{
	domain.StateDraft:         {domain.StateReqsRefining},
	domain.StateReqsRefining:  {domain.StateReqsReady, domain.StateCodeValidationRequested, domain.StateBlocked},
	domain.StateReqsReady:     {domain.StateCodeValidated, domain.StatePlanReady},
	domain.StateCodeValidationRequested: {domain.StateCodeValidated, domain.StateBlocked},
	domain.StateCodeValidated: {domain.StatePlanReady},
	domain.StatePlanReady:     {domain.StatePromptsReady},
	domain.StatePromptsReady:  {domain.StateDone},
	domain.StateBlocked:       {domain.StateDraft, domain.StateReqsRefining},
	domain.StateDone:          {}, // терминальное состояние
}

// ValidateTransition проверяет допустимость перехода from → to.
//
// Переход в то же самое состояние (from == to) всегда допустим (no-op).
// При недопустимом переходе возвращается ошибка, называющая оба состояния.
func ValidateTransition(from, to domain.ProjectState) error {
	if !from.Valid() {
		return fmt.Errorf("%w: %s", ErrUnknownState, from)
	}
	if !to.Valid() {
		return fmt.Errorf("%w: %s", ErrUnknownState, to)
	}
	if from == to {
		return nil
	}

	for _, next := range transitions[from] {
		if next == to {
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}

// NextStates возвращает допустимые следующие состояния.
// Для DONE возвращает пустой срез.
func NextStates(state domain.ProjectState) []domain.ProjectState {
	next := transitions[state]
	out := make([]domain.ProjectState, len(next))
	copy(out, next)
	return out
}

// IsTerminal возвращает true только для DONE.
func IsTerminal(state domain.ProjectState) bool {
	return state.IsTerminal()
}
