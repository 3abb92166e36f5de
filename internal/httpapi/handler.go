package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/skilldocs/grader/internal/logger"
	"github.com/skilldocs/grader/internal/presenter"
	"github.com/skilldocs/grader/internal/problems"
	"github.com/skilldocs/grader/internal/scheduler"
	"github.com/skilldocs/grader/internal/session"
	"github.com/skilldocs/grader/internal/storage"
	customErr "github.com/skilldocs/grader/pkg/errors"
	"go.uber.org/zap"
)

type Handler struct {
	store        problems.Store
	sessions     *session.Manager
	scheduler    scheduler.Scheduler
	cache        storage.ResultCache
	equalityMode string
	validator    *validator.Validate
	logger       *zap.SugaredLogger
}

func NewHandler(
	store problems.Store,
	sessions *session.Manager,
	sched scheduler.Scheduler,
	cache storage.ResultCache,
	equalityMode string,
) *Handler {
	return &Handler{
		store:        store,
		sessions:     sessions,
		scheduler:    sched,
		cache:        cache,
		equalityMode: equalityMode,
		validator:    validator.New(),
		logger:       logger.NewNamedLogger("httpapi"),
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "grader is running"})
	})

	r.Get("/status", h.handleStatus)

	r.Route("/problems", func(r chi.Router) {
		r.Get("/", h.handleListProblems)
		r.Get("/{problemID}", h.handleGetProblem)
	})

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", h.handleCreateSession)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", h.handleGetSession)
			r.Delete("/", h.handleDeleteSession)
			r.Put("/code", h.handleUpdateCode)
			r.Post("/run", h.handleRun)
			r.Post("/solution/toggle", h.handleToggleSolution)
			r.Put("/layout", h.handleUpdateLayout)
			r.Get("/view", h.handleView)
		})
	})

	return r
}

type problemSummary struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Difficulty  string `json:"difficulty"`
	HasSolution bool   `json:"has_solution"`
	TestCases   int    `json:"test_cases"`
}

func (h *Handler) handleListProblems(w http.ResponseWriter, r *http.Request) {
	defs := h.store.List()
	summaries := make([]problemSummary, len(defs))
	for i, def := range defs {
		summaries[i] = problemSummary{
			ID:          def.ID,
			Title:       def.Title,
			Difficulty:  string(def.Difficulty),
			HasSolution: def.HasSolution(),
			TestCases:   len(def.TestCases),
		}
	}
	writeJSON(w, http.StatusOK, summaries)
}

// handleGetProblem returns the public view of one problem. The reference
// solution is deliberately omitted; it is only reachable through the
// solution toggle of a session.
func (h *Handler) handleGetProblem(w http.ResponseWriter, r *http.Request) {
	def, err := h.store.Get(chi.URLParam(r, "problemID"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	public := struct {
		ID           string      `json:"id"`
		Title        string      `json:"title"`
		Difficulty   string      `json:"difficulty"`
		Description  string      `json:"description"`
		Examples     interface{} `json:"examples,omitempty"`
		StarterCode  string      `json:"starter_code"`
		FunctionName string      `json:"function_name"`
		HasSolution  bool        `json:"has_solution"`
	}{
		ID:           def.ID,
		Title:        def.Title,
		Difficulty:   string(def.Difficulty),
		Description:  def.Description,
		Examples:     def.Examples,
		StarterCode:  def.StarterCode,
		FunctionName: def.FunctionName,
		HasSolution:  def.HasSolution(),
	}
	writeJSON(w, http.StatusOK, public)
}

type createSessionRequest struct {
	ProblemID string `json:"problem_id" validate:"required"`
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	def, err := h.store.Get(req.ProblemID)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	s := h.sessions.Create(def)
	writeJSON(w, http.StatusCreated, s.Snapshot())
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookupSession(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.Snapshot())
}

func (h *Handler) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	h.sessions.Delete(chi.URLParam(r, "sessionID"))
	w.WriteHeader(http.StatusNoContent)
}

type updateCodeRequest struct {
	Source string `json:"source" validate:"required"`
}

func (h *Handler) handleUpdateCode(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookupSession(w, r)
	if !ok {
		return
	}

	var req updateCodeRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	s.SetBuffer(req.Source)
	writeJSON(w, http.StatusOK, s.Snapshot())
}

func (h *Handler) handleRun(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookupSession(w, r)
	if !ok {
		return
	}

	def := s.Problem()
	source, generation := s.Buffer()

	if result, found := h.cache.Get(def.ID, source, h.equalityMode); found {
		s.StoreResult(result, generation)
		writeJSON(w, http.StatusOK, result)
		return
	}

	runID := uuid.NewString()
	result, err := h.scheduler.GradeSubmission(r.Context(), runID, def, source)
	if err != nil {
		if errors.Is(err, customErr.ErrFailedToGetFreeWorker) {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		h.logger.Errorf("Grading run %s failed: %s", runID, err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.cache.Put(def.ID, source, h.equalityMode, result)
	s.StoreResult(result, generation)
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleToggleSolution(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookupSession(w, r)
	if !ok {
		return
	}

	if err := s.Toggle(); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, s.Snapshot())
}

func (h *Handler) handleUpdateLayout(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookupSession(w, r)
	if !ok {
		return
	}

	var layout session.LayoutFlags
	if err := json.NewDecoder(r.Body).Decode(&layout); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.SetLayout(layout)
	writeJSON(w, http.StatusOK, s.Snapshot())
}

func (h *Handler) handleView(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookupSession(w, r)
	if !ok {
		return
	}

	snap := s.Snapshot()
	view := presenter.Present(snap.LastResult, presenter.LayoutContext{
		HideLeftSidebar:  snap.Layout.HideLeftSidebar,
		HideRightSidebar: snap.Layout.HideRightSidebar,
	})
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.scheduler.GetWorkersStatus())
}

func (h *Handler) lookupSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	s, err := h.sessions.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return nil, false
	}
	return s, true
}

func (h *Handler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := h.validator.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
