package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Conductor/internal/domain"
	"github.com/shaiso/Conductor/internal/repo"
)

// CreateProject создаёт новый проект в состоянии DRAFT.
// POST /api/v1/projects
func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req CreateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		BadRequest(w, "name is required")
		return
	}

	project := domain.NewProject(req.Name, time.Now().UTC())
	project.ExtraMetadata = req.ExtraMetadata

	if err := h.projects.Create(r.Context(), project); err != nil {
		InternalError(w, h.logger, err)
		return
	}

	h.logger.Info("project created", "project_id", project.ID, "name", project.Name)
	Created(w, ProjectFromDomain(*project))
}

// GetProject возвращает проект по ID.
// GET /api/v1/projects/{id}
func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	project, err := h.projects.GetByID(r.Context(), projectID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			NotFound(w, "project not found")
			return
		}
		InternalError(w, h.logger, err)
		return
	}

	Success(w, ProjectFromDomain(*project))
}

// ListProjects возвращает список проектов.
// GET /api/v1/projects?limit=...&offset=...
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)

	projects, err := h.projects.List(r.Context(), limit, offset)
	if err != nil {
		InternalError(w, h.logger, err)
		return
	}

	result := make([]ProjectResponse, len(projects))
	for i, p := range projects {
		result[i] = ProjectFromDomain(p)
	}
	List(w, result, len(result))
}

// CreateRequirement добавляет требование к проекту.
// POST /api/v1/projects/{id}/requirements
func (h *Handler) CreateRequirement(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req CreateRequirementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		BadRequest(w, "title is required")
		return
	}

	if _, err := h.projects.GetByID(r.Context(), projectID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			NotFound(w, "project not found")
			return
		}
		InternalError(w, h.logger, err)
		return
	}

	isCoherent := true
	if req.IsCoherent != nil {
		isCoherent = *req.IsCoherent
	}

	requirement := &domain.Requirement{
		ID:          uuid.New(),
		ProjectID:   projectID,
		Title:       req.Title,
		Description: req.Description,
		IsCoherent:  isCoherent,
		CreatedAt:   time.Now().UTC(),
	}
	if err := h.reqs.Create(r.Context(), requirement); err != nil {
		InternalError(w, h.logger, err)
		return
	}

	Created(w, RequirementFromDomain(*requirement))
}

// ListRequirements возвращает требования проекта.
// GET /api/v1/projects/{id}/requirements
func (h *Handler) ListRequirements(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	reqs, err := h.reqs.ListByProjectID(r.Context(), projectID)
	if err != nil {
		InternalError(w, h.logger, err)
		return
	}

	result := make([]RequirementResponse, len(reqs))
	for i, req := range reqs {
		result[i] = RequirementFromDomain(req)
	}
	List(w, result, len(result))
}

// pathUUID парсит UUID из path параметра; при ошибке пишет 400.
func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		BadRequest(w, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// queryInt парсит целочисленный query параметр с дефолтным значением.
func queryInt(r *http.Request, name string, defaultVal int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return defaultVal
	}
	return n
}
