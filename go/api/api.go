// Package api wires the training orchestrator's HTTP surface onto
// go/mucks, following the same thin-handler-over-an-injected-dependency
// shape as the rest of this module's HTTP services.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/muchq/moonbase/go/datasets"
	"github.com/muchq/moonbase/go/mucks"
	"github.com/muchq/moonbase/go/training"
)

// Api holds every dependency the HTTP handlers need. Construct one per
// process and register its routes on a *mucks.Mucks.
type Api struct {
	Manager  *training.Manager
	Models   *training.ModelRegistry
	Datasets *datasets.Registry
}

func NewApi(manager *training.Manager, models *training.ModelRegistry, registry *datasets.Registry) *Api {
	return &Api{Manager: manager, Models: models, Datasets: registry}
}

// passthrough is used when RegisterRoutes is called without a rate
// limiter for a given route, so every route can be wrapped uniformly.
func passthrough(next http.HandlerFunc) http.HandlerFunc { return next }

// RegisterRoutes attaches every handler this package defines onto m.
// trainLimiter and predictLimiter wrap the two expensive routes (model
// training and inference); pass nil for either to register it unwrapped.
func (a *Api) RegisterRoutes(m *mucks.Mucks, trainLimiter, predictLimiter mucks.Middleware) {
	wrapTrain, wrapPredict := passthrough, passthrough
	if trainLimiter != nil {
		wrapTrain = trainLimiter.Wrap
	}
	if predictLimiter != nil {
		wrapPredict = predictLimiter.Wrap
	}

	m.HandleFunc("GET /health", a.Health)
	m.HandleFunc("GET /api/datasets", a.ListDatasets)
	m.HandleFunc("GET /api/datasets/{id}", a.GetDataset)
	m.HandleFunc("GET /api/datasets/{id}/preview", a.PreviewDataset)
	m.HandleFunc("GET /api/templates", a.ListTemplates)
	m.HandleFunc("GET /api/templates/{id}", a.GetTemplate)
	m.HandleFunc("POST /api/models", a.CreateModel)
	m.HandleFunc("GET /api/models/{id}", a.GetModel)
	m.HandleFunc("POST /api/models/{model_id}/train", wrapTrain(a.StartTraining))
	m.HandleFunc("GET /api/training/{session_id}/status", a.SessionStatus)
	m.HandleFunc("POST /api/training/{session_id}/pause", a.Pause)
	m.HandleFunc("POST /api/training/{session_id}/resume", a.Resume)
	m.HandleFunc("POST /api/training/{session_id}/stop", a.Stop)
	m.HandleFunc("POST /api/training/{session_id}/predict", wrapPredict(a.Predict))
}

func (a *Api) Health(w http.ResponseWriter, r *http.Request) {
	mucks.JsonOk(w, map[string]string{"status": "ok"})
}

func decodeBody(r *http.Request, dst any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}

// writeJSON encodes body onto a response whose status code and content
// type header were already written by the caller.
func writeJSON(w http.ResponseWriter, body any) error {
	return json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case isAny(err, training.ErrDatasetNotFound, training.ErrModelNotFound, training.ErrSessionNotFound):
		mucks.JsonError(w, mucks.NewNotFound())
	case isAny(err, training.ErrActiveSessionExists, training.ErrIllegalTransition, training.ErrSessionNotReady):
		mucks.JsonError(w, mucks.NewConflict(err.Error()))
	default:
		mucks.JsonError(w, mucks.NewBadRequest(err.Error()))
	}
}

func isAny(err error, targets ...error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}

func pathParam(r *http.Request, name string) string {
	return r.PathValue(name)
}

func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

func trimmed(s string) string { return strings.TrimSpace(s) }
