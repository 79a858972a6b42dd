package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Conductor/internal/domain"
)

const defaultHTTPTimeout = 120 * time.Second

// Executor — интерфейс вызова конкретного типа агента.
//
// Возвращаемая map — результат работы агента; она же кэшируется в
// dedup записи. Инфраструктурные и логические ошибки возвращаются
// через error.
type Executor interface {
	Execute(ctx context.Context, projectID uuid.UUID, metadata map[string]any) (map[string]any, error)
}

// Registry — реестр executor'ов по типу агента.
type Registry struct {
	executors map[domain.AgentType]Executor
}

// NewRegistry создаёт реестр с HTTPExecutor для каждого типа агента.
func NewRegistry() *Registry {
	r := &Registry{executors: make(map[domain.AgentType]Executor)}
	for _, agent := range domain.AgentTypes() {
		r.Register(agent, NewHTTPExecutor(agent))
	}
	return r
}

// Register добавляет executor для типа агента.
func (r *Registry) Register(agent domain.AgentType, executor Executor) {
	r.executors[agent] = executor
}

// Get возвращает executor для типа агента.
func (r *Registry) Get(agent domain.AgentType) (Executor, error) {
	executor, ok := r.executors[agent]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAgent, agent)
	}
	return executor, nil
}

// HTTPExecutor вызывает внешний HTTP-сервис агента.
//
// Endpoint: AGENT_<NAME>_URL, иначе AGENT_SERVICE_URL (default
// http://localhost:8100) + /agents/<name>/run. Запрос — POST JSON
// {project_id, metadata}, ответ — JSON объект с результатом.
type HTTPExecutor struct {
	agent  domain.AgentType
	url    string
	client *http.Client
}

// NewHTTPExecutor создаёт HTTPExecutor для агента.
func NewHTTPExecutor(agent domain.AgentType) *HTTPExecutor {
	return &HTTPExecutor{
		agent:  agent,
		url:    endpointFor(agent),
		client: &http.Client{Timeout: defaultHTTPTimeout},
	}
}

// Execute выполняет запрос к сервису агента.
func (e *HTTPExecutor) Execute(ctx context.Context, projectID uuid.UUID, metadata map[string]any) (map[string]any, error) {
	body, err := json.Marshal(map[string]any{
		"project_id": projectID,
		"metadata":   metadata,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request: %v", ErrAgentRequest, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", ErrAgentRequest, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAgentRequest, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrAgentRequest, err)
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%w: HTTP %d: %s", ErrAgentRequest, resp.StatusCode, truncate(string(respBody), 200))
	}

	var result map[string]any
	if len(respBody) > 0 {
		if err := json.Unmarshal(respBody, &result); err != nil {
			return nil, fmt.Errorf("%w: decode response: %v", ErrAgentRequest, err)
		}
	}
	return result, nil
}

// endpointFor возвращает URL сервиса агента из окружения.
func endpointFor(agent domain.AgentType) string {
	name := strings.ToUpper(agent.String())
	if url := os.Getenv("AGENT_" + name + "_URL"); url != "" {
		return url
	}

	base := os.Getenv("AGENT_SERVICE_URL")
	if base == "" {
		base = "http://localhost:8100"
	}
	return strings.TrimRight(base, "/") + "/agents/" + strings.ToLower(agent.String()) + "/run"
}

// truncate обрезает строку до указанной длины.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
