package httpapi

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"

	"amplification-report/app/src/domain"
	"amplification-report/app/src/infra"
	"amplification-report/app/src/shared/constants"
	sharederrors "amplification-report/app/src/shared/errors"

	"github.com/go-chi/chi/v5"
)

const (
	paramRunID   = "id"
	queryLimit   = "limit"
	defaultLimit = 10
)

// handler contains the HTTP handlers and shared dependencies for the REST API.
type handler struct {
	service domain.RunService
	logger  *infra.Logger
}

func registerRoutes(router chi.Router, h *handler) {
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if h.logger != nil {
			h.logger.Println(r.Context(), "health check OK")
		}
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	router.Method(http.MethodGet, "/metrics", infra.Handler())

	router.Route("/runs", func(r chi.Router) {
		r.Get("/", h.handleRecentRuns)
		r.Get("/latest", h.handleLatestRun)
		r.Get("/{"+paramRunID+"}", h.handleRunByID)
	})
}

// number encodes non-finite values as strings, which encoding/json rejects.
type number float64

func (n number) MarshalJSON() ([]byte, error) {
	v := float64(n)
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return json.Marshal(strconv.FormatFloat(v, 'g', -1, 64))
	}
	return []byte(strconv.FormatFloat(v, 'g', -1, 64)), nil
}

type measurementResponse struct {
	Name  string `json:"name"`
	Value number `json:"value"`
}

type runResponse struct {
	ID           string                `json:"id"`
	ProcessCount int                   `json:"process_count"`
	Template     string                `json:"template"`
	Measurements []measurementResponse `json:"measurements"`
	PCDN         number                `json:"pcdn"`
	CDN          number                `json:"cdn"`
	Ratio        number                `json:"ratio"`
	CreatedAt    string                `json:"created_at"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

func (h *handler) handleLatestRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.service.LatestRun(r.Context())
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toHTTPResponse(run))
}

func (h *handler) handleRecentRuns(w http.ResponseWriter, r *http.Request) {
	limit := defaultLimit
	if raw := r.URL.Query().Get(queryLimit); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			h.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	runs, err := h.service.RecentRuns(r.Context(), limit)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	payload := make([]runResponse, len(runs))
	for i, run := range runs {
		payload[i] = toHTTPResponse(run)
	}
	h.writeJSON(w, http.StatusOK, payload)
}

func (h *handler) handleRunByID(w http.ResponseWriter, r *http.Request) {
	id, err := constants.ParseRunID(chi.URLParam(r, paramRunID))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid run id format")
		return
	}

	run, err := h.service.RunByID(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toHTTPResponse(run))
}

func (h *handler) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		h.writeError(w, http.StatusNotFound, "run not found")
	case errors.Is(err, sharederrors.ErrInvalidRunID):
		h.writeError(w, http.StatusBadRequest, "invalid run id format")
	default:
		if h.logger != nil {
			h.logger.Errorf(r.Context(), "run query failed: %v", err)
		}
		h.writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func (h *handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, errorResponse{Error: message, Code: status})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func toHTTPResponse(run domain.Run) runResponse {
	measurements := make([]measurementResponse, len(run.Measurements))
	for i, m := range run.Measurements {
		measurements[i] = measurementResponse{Name: m.Name, Value: number(m.Value)}
	}

	return runResponse{
		ID:           run.ID,
		ProcessCount: run.ProcessCount,
		Template:     run.Template,
		Measurements: measurements,
		PCDN:         number(run.Amplification.PCDN),
		CDN:          number(run.Amplification.CDN),
		Ratio:        number(run.Amplification.Ratio),
		CreatedAt:    run.CreatedAt.UTC().Format(constants.TimeFormat),
	}
}
