package agent

import "errors"

// Ошибки выполнения агентов.
var (
	// ErrUnknownAgent — нет executor'а для данного типа агента.
	ErrUnknownAgent = errors.New("unknown agent type")

	// ErrAgentRequest — запрос к сервису агента завершился ошибкой.
	ErrAgentRequest = errors.New("agent request failed")
)
