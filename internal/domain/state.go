package domain

// ProjectState — стадия пайплайна, в которой находится проект.
//
// Жизненный цикл:
//
//	DRAFT → REQS_REFINING → REQS_READY → CODE_VALIDATED → PLAN_READY → PROMPTS_READY → DONE
//	            ↓ ↑                ↘ (минуя валидацию кода) ↗
//	          BLOCKED
//
// Из REQS_REFINING через gateway также достижим CODE_VALIDATION_REQUESTED
// (запрошена валидация кода), из которого валидация ведёт в CODE_VALIDATED.
// DONE — единственное терминальное состояние.
type ProjectState string

const (
	// StateDraft — проект создан, требования ещё не собраны.
	StateDraft ProjectState = "DRAFT"

	// StateReqsRefining — требования уточняются (Q&A цикл с аналитиком).
	StateReqsRefining ProjectState = "REQS_REFINING"

	// StateReqsReady — требования зафиксированы.
	StateReqsReady ProjectState = "REQS_READY"

	// StateCodeValidationRequested — пользователь запросил валидацию кода.
	StateCodeValidationRequested ProjectState = "CODE_VALIDATION_REQUESTED"

	// StateCodeValidated — существующий код проверен против требований.
	StateCodeValidated ProjectState = "CODE_VALIDATED"

	// StatePlanReady — план реализации сгенерирован.
	StatePlanReady ProjectState = "PLAN_READY"

	// StatePromptsReady — промпты для исполнителей сгенерированы.
	StatePromptsReady ProjectState = "PROMPTS_READY"

	// StateDone — пайплайн завершён. Терминальное состояние.
	StateDone ProjectState = "DONE"

	// StateBlocked — пайплайн заблокирован, требуется вмешательство.
	StateBlocked ProjectState = "BLOCKED"
)

// Valid возвращает true, если значение принадлежит закрытому множеству состояний.
func (s ProjectState) Valid() bool {
	switch s {
	case StateDraft, StateReqsRefining, StateReqsReady,
		StateCodeValidationRequested, StateCodeValidated,
		StatePlanReady, StatePromptsReady, StateDone, StateBlocked:
		return true
	default:
		return false
	}
}

// IsTerminal возвращает true, если состояние финальное (переходов из него нет).
func (s ProjectState) IsTerminal() bool {
	return s == StateDone
}

// String возвращает строковое представление ProjectState.
func (s ProjectState) String() string {
	return string(s)
}

// ParseProjectState парсит строку в ProjectState.
func ParseProjectState(s string) (ProjectState, bool) {
	st := ProjectState(s)
	return st, st.Valid()
}

// AgentType — тип фонового агента, работающего над проектом.
type AgentType string

const (
	// AgentRequirements — первичный сбор требований.
	AgentRequirements AgentType = "REQUIREMENTS"

	// AgentRefine — уточнение требований.
	AgentRefine AgentType = "REFINE"

	// AgentPlan — генерация плана реализации.
	AgentPlan AgentType = "PLAN"

	// AgentPrompts — генерация промптов по плану.
	AgentPrompts AgentType = "PROMPTS"

	// AgentValidation — валидация существующего кода.
	AgentValidation AgentType = "VALIDATION"
)

// Valid возвращает true, если значение принадлежит закрытому множеству агентов.
func (a AgentType) Valid() bool {
	switch a {
	case AgentRequirements, AgentRefine, AgentPlan, AgentPrompts, AgentValidation:
		return true
	default:
		return false
	}
}

// String возвращает строковое представление AgentType.
func (a AgentType) String() string {
	return string(a)
}

// ParseAgentType парсит строку в AgentType.
func ParseAgentType(s string) (AgentType, bool) {
	a := AgentType(s)
	return a, a.Valid()
}

// AgentTypes возвращает все типы агентов.
func AgentTypes() []AgentType {
	return []AgentType{AgentRequirements, AgentRefine, AgentPlan, AgentPrompts, AgentValidation}
}

// EventType — тип записи в audit log.
type EventType string

const (
	// EventStateTransition — переход проекта между состояниями.
	EventStateTransition EventType = "STATE_TRANSITION"

	// EventAgentStarted — агент принят в работу.
	EventAgentStarted EventType = "AGENT_STARTED"

	// EventAgentCompleted — агент успешно завершил работу.
	EventAgentCompleted EventType = "AGENT_COMPLETED"

	// EventAgentFailed — агент завершился с ошибкой.
	EventAgentFailed EventType = "AGENT_FAILED"

	// EventRetryAttempted — запрошен повторный запуск агента.
	EventRetryAttempted EventType = "RETRY_ATTEMPTED"

	// EventUserAction — действие пользователя.
	EventUserAction EventType = "USER_ACTION"

	// EventSystemEvent — системное событие.
	EventSystemEvent EventType = "SYSTEM_EVENT"
)

// Valid возвращает true, если значение принадлежит закрытому множеству типов.
func (e EventType) Valid() bool {
	switch e {
	case EventStateTransition, EventAgentStarted, EventAgentCompleted,
		EventAgentFailed, EventRetryAttempted, EventUserAction, EventSystemEvent:
		return true
	default:
		return false
	}
}

// String возвращает строковое представление EventType.
func (e EventType) String() string {
	return string(e)
}

// ParseEventType парсит строку в EventType.
func ParseEventType(s string) (EventType, bool) {
	e := EventType(s)
	return e, e.Valid()
}

// GatewayAction — внешнее решение пользователя, запускающее переход через gateway.
type GatewayAction string

const (
	// ActionFinalize — зафиксировать требования.
	ActionFinalize GatewayAction = "finalize"

	// ActionPlan — перейти к планированию.
	ActionPlan GatewayAction = "plan"

	// ActionRequestCodeValidation — запросить валидацию существующего кода.
	ActionRequestCodeValidation GatewayAction = "request-code-validation"
)

// Valid возвращает true, если значение принадлежит закрытому множеству действий.
func (a GatewayAction) Valid() bool {
	switch a {
	case ActionFinalize, ActionPlan, ActionRequestCodeValidation:
		return true
	default:
		return false
	}
}

// String возвращает строковое представление GatewayAction.
func (a GatewayAction) String() string {
	return string(a)
}

// ParseGatewayAction парсит строку в GatewayAction.
func ParseGatewayAction(s string) (GatewayAction, bool) {
	a := GatewayAction(s)
	return a, a.Valid()
}
