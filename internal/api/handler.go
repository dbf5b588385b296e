package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/opensource-finance/gridpay/internal/domain"
	"github.com/opensource-finance/gridpay/internal/engine"
	"github.com/opensource-finance/gridpay/internal/export"
	"github.com/opensource-finance/gridpay/internal/extract"
	"github.com/opensource-finance/gridpay/internal/process"
	"github.com/opensource-finance/gridpay/internal/stats"
)

// maxUploadBytes bounds multipart uploads (grid screenshots, not scans).
const maxUploadBytes = 20 << 20

// Handler holds dependencies for API handlers.
type Handler struct {
	repo      domain.Repository
	cache     domain.Cache
	bus       domain.EventBus
	engine    *engine.Engine
	processor *process.Processor
	extractor extract.Extractor
	tracker   *stats.Tracker
	resultTTL time.Duration
	version   string
}

// NewHandler creates a new API handler.
func NewHandler(
	repo domain.Repository,
	cache domain.Cache,
	bus domain.EventBus,
	eng *engine.Engine,
	processor *process.Processor,
	extractor extract.Extractor,
	tracker *stats.Tracker,
	resultTTL time.Duration,
	version string,
) *Handler {
	if resultTTL <= 0 {
		resultTTL = time.Hour
	}
	return &Handler{
		repo:      repo,
		cache:     cache,
		bus:       bus,
		engine:    eng,
		processor: processor,
		extractor: extractor,
		tracker:   tracker,
		resultTTL: resultTTL,
		version:   version,
	}
}

// Process handles POST /api/v1/process requests.
func (h *Handler) Process(w http.ResponseWriter, r *http.Request) {
	var req domain.ProcessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}
	if req.CompanyName == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "companyName is required",
		})
		return
	}

	h.runBatch(w, r, req.CompanyName, req.Records)
}

// ProcessUpload handles POST /api/v1/process/upload requests: extract
// records from an uploaded grid image, then process them like a direct
// batch.
func (h *Handler) ProcessUpload(w http.ResponseWriter, r *http.Request) {
	if h.extractor == nil {
		writeError(w, domain.ErrExtractorUnavailable)
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid multipart form",
		})
		return
	}

	company := r.FormValue("company_name")
	if company == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "company_name is required",
		})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "file is required",
		})
		return
	}
	defer file.Close()

	image, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "failed to read uploaded file",
		})
		return
	}

	mimeType := header.Header.Get("Content-Type")
	records, err := h.extractor.Extract(r.Context(), image, mimeType)
	if err != nil {
		writeError(w, err)
		return
	}
	if len(records) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "no policy records found in upload",
		})
		return
	}

	h.runBatch(w, r, company, records)
}

// runBatch processes records, stashes the result for export, and writes
// the response.
func (h *Handler) runBatch(w http.ResponseWriter, r *http.Request, company string, records []domain.RawRecord) {
	result, err := h.processor.Process(r.Context(), company, records)
	if err != nil {
		writeError(w, err)
		return
	}

	if h.cache != nil {
		if err := h.cache.SetBatch(r.Context(), result.BatchID, result, h.resultTTL); err != nil {
			slog.Error("batch.stash.failed", "batch_id", result.BatchID, "error", err)
		}
	}

	writeJSON(w, http.StatusOK, result)
}

// ExportBatch handles GET /api/v1/batches/{batchID}/export requests.
// Batches live in the cache until their TTL runs out; after that the
// export is gone and the caller gets 404.
func (h *Handler) ExportBatch(w http.ResponseWriter, r *http.Request) {
	batchID := chi.URLParam(r, "batchID")
	if batchID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "batchID is required",
		})
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "xlsx"
	}

	result, err := h.cache.GetBatch(r.Context(), batchID)
	if err != nil {
		writeError(w, err)
		return
	}
	if result == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "batch not found or expired",
		})
		return
	}

	switch format {
	case "xlsx":
		data, err := export.ExcelBytes(result)
		if err != nil {
			writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s_policy_data.xlsx"`, batchID))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)

	case "csv":
		data, err := export.CSVBytes(result)
		if err != nil {
			writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s_policy_data.csv"`, batchID))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)

	case "json":
		writeJSON(w, http.StatusOK, result)

	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": fmt.Sprintf("unsupported export format: %s", format),
		})
	}
}

// ListTables handles GET /api/v1/tables requests.
func (h *Handler) ListTables(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "repository not available",
		})
		return
	}

	infos, err := h.repo.ListTables(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"tables": infos,
		"count":  len(infos),
	})
}

// GetActiveTable handles GET /api/v1/tables/active requests. It reports
// the table the engine is actually evaluating, which may be the built-in
// grid rather than a persisted one.
func (h *Handler) GetActiveTable(w http.ResponseWriter, r *http.Request) {
	table := h.engine.Snapshot()
	if table == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "no active table",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"name":      table.Name,
		"version":   table.Version,
		"ruleCount": len(table.Rules),
	})
}

// CreateTable handles POST /api/v1/tables requests. The body is a YAML
// or JSON table spec; it must compile before it is persisted. With
// ?activate=true the engine swaps to it atomically.
func (h *Handler) CreateTable(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxUploadBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "failed to read request body",
		})
		return
	}

	spec, err := engine.ParseSpec(body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": fmt.Sprintf("invalid table spec: %v", err),
		})
		return
	}
	if spec.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "table name is required",
		})
		return
	}

	if err := h.engine.ValidateSpec(spec); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": fmt.Sprintf("table does not compile: %v", err),
		})
		return
	}

	if h.repo != nil {
		if err := h.repo.SaveTable(r.Context(), spec); err != nil {
			writeError(w, err)
			return
		}
	}

	activated := false
	if r.URL.Query().Get("activate") == "true" {
		if h.repo != nil {
			if err := h.repo.ActivateTable(r.Context(), spec.Name); err != nil {
				writeError(w, err)
				return
			}
		}
		if err := h.engine.LoadSpec(spec); err != nil {
			writeError(w, err)
			return
		}
		activated = true
		h.publishTableActivated(r, spec)
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"name":      spec.Name,
		"version":   spec.Version,
		"ruleCount": len(spec.Rules),
		"activated": activated,
	})
}

func (h *Handler) publishTableActivated(r *http.Request, spec *domain.TableSpec) {
	if h.bus == nil {
		return
	}
	event := domain.TableActivatedEvent{
		Name:      spec.Name,
		Version:   spec.Version,
		RuleCount: len(spec.Rules),
		Timestamp: time.Now().UTC(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}
	if err := h.bus.Publish(r.Context(), domain.TopicTableActivated, payload); err != nil {
		slog.Error("event.publish.failed", "topic", domain.TopicTableActivated, "error", err)
	}
}

// CompanyStats handles GET /api/v1/stats/{company} requests.
func (h *Handler) CompanyStats(w http.ResponseWriter, r *http.Request) {
	company := chi.URLParam(r, "company")
	if company == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "company is required",
		})
		return
	}

	if h.tracker == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "stats not available",
		})
		return
	}

	cs := h.tracker.Company(company)
	if cs == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": fmt.Sprintf("no stats for company: %s", company),
		})
		return
	}

	writeJSON(w, http.StatusOK, cs)
}

// Health handles GET /health requests.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	checks := map[string]string{}

	if h.repo != nil {
		if err := h.repo.Ping(r.Context()); err != nil {
			checks["repository"] = err.Error()
			status = "degraded"
		} else {
			checks["repository"] = "ok"
		}
	}
	if h.cache != nil {
		if err := h.cache.Ping(r.Context()); err != nil {
			checks["cache"] = err.Error()
			status = "degraded"
		} else {
			checks["cache"] = "ok"
		}
	}
	if h.bus != nil {
		if err := h.bus.Ping(r.Context()); err != nil {
			checks["bus"] = err.Error()
			status = "degraded"
		} else {
			checks["bus"] = "ok"
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  status,
		"version": h.version,
		"rules":   h.engine.RuleCount(),
		"checks":  checks,
	})
}

// writeError maps sentinel errors to HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrEmptyBatch):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidRule):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrExtractorUnavailable):
		status = http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrExtraction):
		status = http.StatusBadGateway
	}
	writeJSON(w, status, map[string]string{
		"error": err.Error(),
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
