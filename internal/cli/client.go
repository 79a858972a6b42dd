package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// --- Response types (дублируются из api, CLI не импортирует internal/api) ---

// ProjectResponse — проект из API.
type ProjectResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// RequirementResponse — требование из API.
type RequirementResponse struct {
	ID          string `json:"id"`
	ProjectID   string `json:"project_id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	IsCoherent  bool   `json:"is_coherent"`
	CreatedAt   string `json:"created_at"`
}

// AuditLogResponse — запись журнала аудита из API.
type AuditLogResponse struct {
	ID            string         `json:"id"`
	ProjectID     string         `json:"project_id"`
	EventType     string         `json:"event_type"`
	AgentType     string         `json:"agent_type,omitempty"`
	Action        string         `json:"action"`
	CorrelationID string         `json:"correlation_id,omitempty"`
	DurationMS    *float64       `json:"duration_ms,omitempty"`
	ErrorMessage  string         `json:"error_message,omitempty"`
	Details       map[string]any `json:"details,omitempty"`
	CreatedAt     string         `json:"created_at"`
}

// AuditPageResponse — страница журнала аудита из API.
type AuditPageResponse struct {
	Items      []AuditLogResponse `json:"items"`
	Total      int                `json:"total"`
	Page       int                `json:"page"`
	PageSize   int                `json:"page_size"`
	TotalPages int                `json:"total_pages"`
}

// HistoryEntryResponse — переход состояния из API.
type HistoryEntryResponse struct {
	FromState   string `json:"from_state"`
	ToState     string `json:"to_state"`
	Reason      string `json:"reason,omitempty"`
	TriggeredBy string `json:"triggered_by,omitempty"`
	CreatedAt   string `json:"created_at"`
}

// StatusResponse — сводный статус проекта из API.
type StatusResponse struct {
	Project       ProjectResponse        `json:"project"`
	RecentEvents  []AuditLogResponse     `json:"recent_events"`
	RecentHistory []HistoryEntryResponse `json:"recent_history"`
	NextStates    []string               `json:"next_states"`
}

// GatewayResultResponse — результат gateway-решения из API.
type GatewayResultResponse struct {
	ProjectID     string `json:"project_id"`
	RequestID     string `json:"request_id"`
	CorrelationID string `json:"correlation_id"`
	Action        string `json:"action"`
	FromState     string `json:"from_state"`
	ToState       string `json:"to_state"`
	Replayed      bool   `json:"replayed"`
	AppliedAt     string `json:"applied_at"`
}

// GatewayRecordResponse — запись журнала gateway из API.
type GatewayRecordResponse struct {
	RequestID     string `json:"request_id"`
	CorrelationID string `json:"correlation_id"`
	Action        string `json:"action"`
	FromState     string `json:"from_state"`
	ToState       string `json:"to_state"`
	UserID        string `json:"user_id,omitempty"`
	CreatedAt     string `json:"created_at"`
}

// RetryResultResponse — результат повторного запуска из API.
type RetryResultResponse struct {
	Status  string         `json:"status"`
	TaskRef string         `json:"task_ref,omitempty"`
	Result  map[string]any `json:"result,omitempty"`
}

// --- Request types ---

// GatewayRequest — запрос gateway-решения.
type GatewayRequest struct {
	RequestID     string  `json:"request_id"`
	Action        string  `json:"action"`
	CorrelationID string  `json:"correlation_id,omitempty"`
	UserID        *string `json:"user_id,omitempty"`
}

// AddRequirementRequest — добавление требования.
type AddRequirementRequest struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	IsCoherent  *bool  `json:"is_coherent,omitempty"`
}

// RetryRequest — повторный запуск агента.
type RetryRequest struct {
	Metadata map[string]any `json:"metadata,omitempty"`
	Force    bool           `json:"force,omitempty"`
}

// AuditOpts — параметры запроса журнала аудита.
type AuditOpts struct {
	Page      int
	PageSize  int
	EventType string
}

// --- API response wrappers ---

type dataResponse struct {
	Data json.RawMessage `json:"data"`
}

type listResponse struct {
	Data  json.RawMessage `json:"data"`
	Total int             `json:"total"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// --- Client ---

// Client — HTTP-клиент для Conductor API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создаёт клиент для API.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// --- Projects ---

// ListProjects возвращает все проекты.
func (c *Client) ListProjects() ([]ProjectResponse, error) {
	var projects []ProjectResponse
	err := c.list("/api/v1/projects", nil, &projects)
	return projects, err
}

// CreateProject создаёт новый проект.
func (c *Client) CreateProject(name string) (*ProjectResponse, error) {
	body := map[string]string{"name": name}
	var project ProjectResponse
	err := c.post("/api/v1/projects", body, &project)
	return &project, err
}

// GetProject возвращает проект по ID.
func (c *Client) GetProject(id string) (*ProjectResponse, error) {
	var project ProjectResponse
	err := c.get("/api/v1/projects/"+id, &project)
	return &project, err
}

// GetStatus возвращает сводный статус проекта.
func (c *Client) GetStatus(id string) (*StatusResponse, error) {
	var status StatusResponse
	err := c.get("/api/v1/projects/"+id+"/status", &status)
	return &status, err
}

// --- Requirements ---

// ListRequirements возвращает требования проекта.
func (c *Client) ListRequirements(projectID string) ([]RequirementResponse, error) {
	var reqs []RequirementResponse
	err := c.list("/api/v1/projects/"+projectID+"/requirements", nil, &reqs)
	return reqs, err
}

// AddRequirement добавляет требование к проекту.
func (c *Client) AddRequirement(projectID string, req AddRequirementRequest) (*RequirementResponse, error) {
	var out RequirementResponse
	err := c.post("/api/v1/projects/"+projectID+"/requirements", req, &out)
	return &out, err
}

// --- Gateway ---

// GatewayTransition применяет gateway-решение к проекту.
func (c *Client) GatewayTransition(projectID string, req GatewayRequest) (*GatewayResultResponse, error) {
	var out GatewayResultResponse
	err := c.post("/api/v1/projects/"+projectID+"/gateway", req, &out)
	return &out, err
}

// GatewayHistory возвращает журнал gateway-решений проекта.
func (c *Client) GatewayHistory(projectID string) ([]GatewayRecordResponse, error) {
	var records []GatewayRecordResponse
	err := c.list("/api/v1/projects/"+projectID+"/gateway/history", nil, &records)
	return records, err
}

// --- Retry ---

// Retry запрашивает повторный запуск агента.
func (c *Client) Retry(projectID, agent string, force bool, metadata map[string]any) (*RetryResultResponse, error) {
	var out RetryResultResponse
	err := c.post("/api/v1/projects/"+projectID+"/retry/"+agent, RetryRequest{Metadata: metadata, Force: force}, &out)
	return &out, err
}

// --- Audit ---

// AuditLogs возвращает страницу журнала аудита проекта.
func (c *Client) AuditLogs(projectID string, opts AuditOpts) (*AuditPageResponse, error) {
	params := url.Values{}
	if opts.Page > 0 {
		params.Set("page", fmt.Sprintf("%d", opts.Page))
	}
	if opts.PageSize > 0 {
		params.Set("page_size", fmt.Sprintf("%d", opts.PageSize))
	}
	if opts.EventType != "" {
		params.Set("event_type", opts.EventType)
	}

	path := "/api/v1/projects/" + projectID + "/audit"
	if len(params) > 0 {
		path = path + "?" + params.Encode()
	}

	var page AuditPageResponse
	err := c.get(path, &page)
	return &page, err
}

// --- HTTP helpers ---

func (c *Client) get(path string, result any) error {
	return c.doData(http.MethodGet, path, nil, result)
}

func (c *Client) post(path string, body any, result any) error {
	return c.doData(http.MethodPost, path, body, result)
}

func (c *Client) list(path string, params url.Values, result any) error {
	if len(params) > 0 {
		path = path + "?" + params.Encode()
	}

	resp, err := c.do(http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	var lr listResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return json.Unmarshal(lr.Data, result)
}

func (c *Client) doData(method, path string, body any, result any) error {
	resp, err := c.do(method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	// 204 No Content
	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	var dr dataResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if result != nil {
		return json.Unmarshal(dr.Data, result)
	}
	return nil
}

func (c *Client) do(method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.httpClient.Do(req)
}

func (c *Client) checkError(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return fmt.Errorf("API error: HTTP %d", resp.StatusCode)
	}

	return fmt.Errorf("%s: %s", er.Error.Code, er.Error.Message)
}
