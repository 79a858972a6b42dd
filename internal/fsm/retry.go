package fsm

import "github.com/shaiso/Conductor/internal/domain"

// retryRules — какие агенты можно перезапускать в каждом состоянии.
// Отсутствие состояния в таблице означает запрет любых retry.
var retryRules = map[domain.ProjectState][]domain.AgentType{
	domain.StateDraft:                   {domain.AgentRequirements},
	domain.StateReqsRefining:            {domain.AgentRefine},
	domain.StateReqsReady:               {domain.AgentPlan, domain.AgentValidation},
	domain.StateCodeValidationRequested: {domain.AgentValidation},
	domain.StateCodeValidated:           {domain.AgentPlan},
	domain.StatePlanReady:               {domain.AgentPrompts},
	domain.StateBlocked:                 {domain.AgentRequirements, domain.AgentRefine},
}

// CanRetry возвращает true, если агент разрешён к перезапуску в данном состоянии.
func CanRetry(state domain.ProjectState, agent domain.AgentType) bool {
	for _, allowed := range retryRules[state] {
		if allowed == agent {
			return true
		}
	}
	return false
}
