package agent

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/shaiso/Conductor/internal/domain"
)

func TestHTTPExecutorExecute(t *testing.T) {
	projectID := uuid.New()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req["project_id"] != projectID.String() {
			t.Errorf("project_id = %v, want %s", req["project_id"], projectID)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"summary": "refined"})
	}))
	defer srv.Close()

	executor := &HTTPExecutor{agent: domain.AgentRefine, url: srv.URL, client: srv.Client()}

	result, err := executor.Execute(context.Background(), projectID, map[string]any{"round": 1})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result["summary"] != "refined" {
		t.Errorf("result = %v, want summary=refined", result)
	}
}

func TestHTTPExecutorErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "agent exploded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	executor := &HTTPExecutor{agent: domain.AgentPlan, url: srv.URL, client: srv.Client()}

	_, err := executor.Execute(context.Background(), uuid.New(), nil)
	if !errors.Is(err, ErrAgentRequest) {
		t.Fatalf("err = %v, want ErrAgentRequest", err)
	}
}

func TestHTTPExecutorEmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	executor := &HTTPExecutor{agent: domain.AgentPrompts, url: srv.URL, client: srv.Client()}

	result, err := executor.Execute(context.Background(), uuid.New(), nil)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result != nil {
		t.Errorf("result = %v, want nil for empty body", result)
	}
}

func TestRegistryUnknownAgent(t *testing.T) {
	r := &Registry{executors: map[domain.AgentType]Executor{}}

	_, err := r.Get(domain.AgentRefine)
	if !errors.Is(err, ErrUnknownAgent) {
		t.Fatalf("err = %v, want ErrUnknownAgent", err)
	}
}
