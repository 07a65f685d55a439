package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/docling-go/docling/internal/common"
	"github.com/docling-go/docling/internal/media/orchestrator"
)

// Media implements the media orchestrator's HTTP contract: job submission,
// status, results, and search, dispatching straight to an
// orchestrator.Orchestrator.
type Media struct {
	orch   *orchestrator.Orchestrator
	logger arbor.ILogger
}

// New builds a Media handler set over orch.
func New(orch *orchestrator.Orchestrator, logger arbor.ILogger) *Media {
	return &Media{orch: orch, logger: logger}
}

// Health handles GET /health.
func (m *Media) Health(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": common.GetVersion(),
	})
}

type sourcePayload struct {
	Kind     string `json:"kind"`
	Location string `json:"location"`
}

type realtimeRequest struct {
	Source     sourcePayload          `json:"source"`
	Processing map[string]interface{} `json:"processing"`
}

// Realtime handles POST /realtime: launches a single-job DAG in
// low-latency mode and returns immediately with the job's running state.
func (m *Media) Realtime(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	var req realtimeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Source.Location == "" {
		WriteError(w, http.StatusBadRequest, "source.location is required")
		return
	}

	record := m.orch.SubmitRealtime(orchestrator.Source{
		Kind:     orchestrator.SourceKind(req.Source.Kind),
		Location: req.Source.Location,
	})
	WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id": record.ID,
		"status": "running",
	})
}

type bulkRequest struct {
	BatchID string          `json:"batch_id"`
	Files   []sourcePayload `json:"files"`
}

// Bulk handles POST /bulk: launches a staged-execution batch covering
// every file and returns immediately with the job IDs assigned.
func (m *Media) Bulk(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	var req bulkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if len(req.Files) == 0 {
		WriteError(w, http.StatusBadRequest, "files must be non-empty")
		return
	}

	sources := make([]orchestrator.Source, len(req.Files))
	for i, f := range req.Files {
		sources[i] = orchestrator.Source{Kind: orchestrator.SourceKind(f.Kind), Location: f.Location}
	}

	records := m.orch.SubmitBulk(req.BatchID, sources)
	jobIDs := make([]string, len(records))
	for i, rec := range records {
		jobIDs[i] = rec.ID
	}
	WriteJSON(w, http.StatusAccepted, map[string]interface{}{
		"batch_id": req.BatchID,
		"job_ids":  jobIDs,
	})
}

// JobStatus handles GET /jobs/{id}: reports the job's atomic task-count
// snapshot and lifecycle state.
func (m *Media) JobStatus(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	id := jobIDFromPath(r.URL.Path, "/jobs/")
	record, ok := m.orch.Get(id)
	if !ok {
		WriteError(w, http.StatusNotFound, "job not found: "+id)
		return
	}

	status, state := record.Status()
	resp := map[string]interface{}{
		"job_id":          record.ID,
		"status":          string(state),
		"total_tasks":     status.TotalTasks,
		"completed_tasks": status.CompletedTasks,
		"failed_tasks":    status.FailedTasks,
	}
	if err := record.ErrIfAny(); err != nil {
		resp["error"] = err.Error()
	}
	WriteJSON(w, http.StatusOK, resp)
}

// JobResult handles GET /jobs/{id}/result: the full per-task result map.
func (m *Media) JobResult(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	id := jobIDFromPath(r.URL.Path, "/jobs/")
	id = strings.TrimSuffix(id, "/result")
	record, ok := m.orch.Get(id)
	if !ok {
		WriteError(w, http.StatusNotFound, "job not found: "+id)
		return
	}

	_, state := record.Status()
	results, errs := record.Job.Results()
	taskResults := make(map[string]interface{}, len(results))
	for taskID, res := range results {
		taskResults[taskID] = res.Value
	}
	for taskID, err := range errs {
		taskResults[taskID] = map[string]string{"error": err.Error()}
	}

	resp := map[string]interface{}{
		"job_id":  record.ID,
		"status":  string(state),
		"results": taskResults,
	}
	if err := record.ErrIfAny(); err != nil {
		resp["error"] = err.Error()
	}
	WriteJSON(w, http.StatusOK, resp)
}

type searchRequest struct {
	Query         string `json:"query"`
	EmbeddingType string `json:"embedding_type"`
}

type searchResult struct {
	JobID         string  `json:"job_id"`
	Score         float64 `json:"score"`
	EmbeddingType string  `json:"embedding_type"`
	Metadata      map[string]interface{} `json:"metadata"`
}

// Search handles POST /search: a multimodal similarity query over stored
// embeddings. The DAG's embedding tasks (vision/text/audio) are external ML
// collaborators represented here by stub runners, so no vectors are ever
// actually produced or indexed yet; this handler validates the request
// shape and returns a correctly-typed, empty ranked result list rather than
// fabricating scores.
func (m *Media) Search(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Query == "" {
		WriteError(w, http.StatusBadRequest, "query is required")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"query":   req.Query,
		"results": []searchResult{},
	})
}

func jobIDFromPath(path, prefix string) string {
	id := strings.TrimPrefix(path, prefix)
	return strings.Trim(id, "/")
}
