package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/codevet/crucible/internal/executor"
	"github.com/codevet/crucible/internal/languages"
	"github.com/codevet/crucible/internal/queue"
	"github.com/codevet/crucible/internal/report"
)

// queueGrace covers unit creation, staging and result retrieval on top
// of the candidate's own wall-clock budget.
const queueGrace = 20 * time.Second

type Handler struct {
	queueManager *queue.Manager
	registry     *languages.Registry
}

func NewHandler(manager *queue.Manager, registry *languages.Registry) *Handler {
	return &Handler{
		queueManager: manager,
		registry:     registry,
	}
}

func (h *Handler) Execute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req report.SubmissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.SourceCode == "" {
		http.Error(w, "source_code is required", http.StatusBadRequest)
		return
	}
	if len(req.TestCases) == 0 {
		http.Error(w, "at least one test case is required", http.StatusBadRequest)
		return
	}
	req.Limits = req.Limits.Clamped()

	jobID := uuid.NewString()
	resultChan := make(chan *report.ExecutionReport, 1)
	errChan := make(chan error, 1)

	ctx, cancel := context.WithTimeout(r.Context(), req.Limits.Timeout()+queueGrace)
	defer cancel()

	err := h.queueManager.Submit(&queue.Job{
		ID:      jobID,
		Request: req,
		Result:  resultChan,
		Err:     errChan,
		Ctx:     ctx,
	})
	if err != nil {
		http.Error(w, "Server busy, try again later", http.StatusServiceUnavailable)
		return
	}

	select {
	case rep := <-resultChan:
		writeJSON(w, http.StatusOK, rep)
	case err := <-errChan:
		if errors.Is(err, executor.ErrNoTestCases) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
	case <-ctx.Done():
		http.Error(w, "Execution timed out", http.StatusGatewayTimeout)
	}
}

// Languages lists the supported language runtimes.
func (h *Handler) Languages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	type langInfo struct {
		ID      string   `json:"id"`
		Name    string   `json:"name"`
		Aliases []string `json:"aliases,omitempty"`
		Image   string   `json:"image"`
	}
	langs := h.registry.List()
	out := make([]langInfo, 0, len(langs))
	for _, l := range langs {
		out = append(out, langInfo{ID: l.ID, Name: l.Name, Aliases: l.Aliases, Image: l.Config.Image})
	}
	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
