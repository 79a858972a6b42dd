package fsm

import (
	"errors"
	"strings"
	"testing"

	"github.com/shaiso/Conductor/internal/domain"
)

func allStates() []domain.ProjectState {
	return []domain.ProjectState{
		domain.StateDraft,
		domain.StateReqsRefining,
		domain.StateReqsReady,
		domain.StateCodeValidationRequested,
		domain.StateCodeValidated,
		domain.StatePlanReady,
		domain.StatePromptsReady,
		domain.StateDone,
		domain.StateBlocked,
	}
}

func TestValidateTransition_TablePairs(t *testing.T) {
	// Every pair present in the adjacency table must validate.
	for from, targets := range transitions {
		for _, to := range targets {
			if err := ValidateTransition(from, to); err != nil {
				t.Errorf("expected %s -> %s to be valid, got %v", from, to, err)
			}
		}
	}
}

func TestValidateTransition_PairsOutsideTable(t *testing.T) {
	inTable := func(from, to domain.ProjectState) bool {
		for _, next := range transitions[from] {
			if next == to {
				return true
			}
		}
		return false
	}

	for _, from := range allStates() {
		for _, to := range allStates() {
			if from == to || inTable(from, to) {
				continue
			}

			err := ValidateTransition(from, to)
			if err == nil {
				t.Errorf("expected %s -> %s to be invalid", from, to)
				continue
			}
			if !errors.Is(err, ErrInvalidTransition) {
				t.Errorf("expected ErrInvalidTransition for %s -> %s, got %v", from, to, err)
			}
			// Error message must name both states.
			if !strings.Contains(err.Error(), string(from)) || !strings.Contains(err.Error(), string(to)) {
				t.Errorf("error %q should mention both %s and %s", err, from, to)
			}
		}
	}
}

func TestValidateTransition_NoOp(t *testing.T) {
	for _, state := range allStates() {
		if err := ValidateTransition(state, state); err != nil {
			t.Errorf("no-op transition %s -> %s should be valid, got %v", state, state, err)
		}
	}
}

func TestValidateTransition_UnknownState(t *testing.T) {
	err := ValidateTransition(domain.ProjectState("BOGUS"), domain.StateDone)
	if !errors.Is(err, ErrUnknownState) {
		t.Errorf("expected ErrUnknownState, got %v", err)
	}
}

func TestNextStates_DoneIsEmpty(t *testing.T) {
	if next := NextStates(domain.StateDone); len(next) != 0 {
		t.Errorf("DONE should have no next states, got %v", next)
	}
}

func TestNextStates_NonTerminalNonEmpty(t *testing.T) {
	for _, state := range allStates() {
		if state == domain.StateDone {
			continue
		}
		if next := NextStates(state); len(next) == 0 {
			t.Errorf("non-terminal state %s should have next states", state)
		}
	}
}

func TestIsTerminal_OnlyDone(t *testing.T) {
	for _, state := range allStates() {
		want := state == domain.StateDone
		if got := IsTerminal(state); got != want {
			t.Errorf("IsTerminal(%s) = %v, want %v", state, got, want)
		}
	}
}

func TestCanRetry(t *testing.T) {
	tests := []struct {
		state domain.ProjectState
		agent domain.AgentType
		want  bool
	}{
		{domain.StateDraft, domain.AgentRequirements, true},
		{domain.StateDraft, domain.AgentRefine, false},
		{domain.StateReqsRefining, domain.AgentRefine, true},
		{domain.StateReqsRefining, domain.AgentPlan, false},
		{domain.StateReqsReady, domain.AgentPlan, true},
		{domain.StateReqsReady, domain.AgentValidation, true},
		{domain.StateCodeValidationRequested, domain.AgentValidation, true},
		{domain.StateCodeValidated, domain.AgentPlan, true},
		{domain.StatePlanReady, domain.AgentPrompts, true},
		{domain.StatePlanReady, domain.AgentPlan, false},
		{domain.StateBlocked, domain.AgentRequirements, true},
		{domain.StateBlocked, domain.AgentRefine, true},
		{domain.StateDone, domain.AgentRefine, false},
		{domain.StateDone, domain.AgentPrompts, false},
	}

	for _, tt := range tests {
		if got := CanRetry(tt.state, tt.agent); got != tt.want {
			t.Errorf("CanRetry(%s, %s) = %v, want %v", tt.state, tt.agent, got, tt.want)
		}
	}
}

func TestComputeInputHash_KeyOrderStable(t *testing.T) {
	h1, err := ComputeInputHash(domain.AgentRefine, map[string]any{"a": 1, "b": 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	h2, err := ComputeInputHash(domain.AgentRefine, map[string]any{"b": 2, "a": 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if h1 != h2 {
		t.Errorf("hash should not depend on key order: %s != %s", h1, h2)
	}
	if len(h1) != 64 {
		t.Errorf("expected hex-encoded SHA-256 (64 chars), got %d", len(h1))
	}
}

func TestComputeInputHash_SensitiveToChanges(t *testing.T) {
	base, _ := ComputeInputHash(domain.AgentRefine, map[string]any{"a": 1, "b": 2})

	changedValue, _ := ComputeInputHash(domain.AgentRefine, map[string]any{"a": 1, "b": 3})
	if base == changedValue {
		t.Error("changing a value should change the hash")
	}

	changedAgent, _ := ComputeInputHash(domain.AgentPlan, map[string]any{"a": 1, "b": 2})
	if base == changedAgent {
		t.Error("changing the agent type should change the hash")
	}
}

func TestComputeInputHash_NilInput(t *testing.T) {
	h1, err := ComputeInputHash(domain.AgentPlan, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	h2, _ := ComputeInputHash(domain.AgentPlan, map[string]any{})
	if h1 != h2 {
		t.Error("nil input should hash like an empty map")
	}
}
