package rest

import (
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/thedub2001/skull01/internal/application/adapter"
	"github.com/thedub2001/skull01/internal/application/graphops"
	"github.com/thedub2001/skull01/internal/application/reconcile"
	"github.com/thedub2001/skull01/internal/config"
	"github.com/thedub2001/skull01/internal/domain/graph"
	"github.com/thedub2001/skull01/pkg/auth"
)

// Handler serves every /api/v1 route.
type Handler struct {
	adapter  *adapter.Adapter
	engine   *reconcile.Engine
	graphops *graphops.Handler
	settings *config.SettingsStore
	logger   *zap.Logger

	// failed pushes by dataset, kept for ?retry=true
	mu       sync.Mutex
	lastPush map[string]*reconcile.Report
}

func NewHandler(a *adapter.Adapter, engine *reconcile.Engine, ops *graphops.Handler, settings *config.SettingsStore, logger *zap.Logger) *Handler {
	return &Handler{
		adapter:  a,
		engine:   engine,
		graphops: ops,
		settings: settings,
		logger:   logger,
		lastPush: make(map[string]*reconcile.Report),
	}
}

// mode is the ?mode= override or the selected settings mode.
func (h *Handler) mode(r *http.Request) (graph.DbMode, error) {
	if m := r.URL.Query().Get("mode"); m != "" {
		return graph.ParseDbMode(m)
	}
	return h.settings.Get().DbMode, nil
}

func datasetParam(r *http.Request) string {
	return chi.URLParam(r, "datasetID")
}

// SettingsRequest is the body of PUT /settings. Omitted fields are kept.
type SettingsRequest struct {
	DbMode  *string `json:"dbMode,omitempty"`
	Dataset *string `json:"dataset,omitempty"`
}

// GetSettings handles GET /settings
// @Summary Read the user settings
// @Tags settings
// @Produce json
// @Success 200 {object} config.Settings
// @Router /settings [get]
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.settings.Get())
}

// UpdateSettings handles PUT /settings
// @Summary Change the selected mode or dataset
// @Tags settings
// @Accept json
// @Produce json
// @Param request body SettingsRequest true "Settings patch"
// @Success 200 {object} config.Settings
// @Failure 400 {object} ErrorResponse
// @Router /settings [put]
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req SettingsRequest
	if err := decode(r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	var patch config.SettingsPatch
	if req.DbMode != nil {
		m, err := graph.ParseDbMode(*req.DbMode)
		if err != nil {
			respondError(w, r, h.logger, err)
			return
		}
		patch.DbMode = &m
	}
	patch.Dataset = req.Dataset

	settings, err := h.settings.Update(patch)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, settings)
}

// CreateDatasetRequest is the body of POST /datasets.
type CreateDatasetRequest struct {
	Name string `json:"name" validate:"required,max=200"`
	User string `json:"user"`
}

// ListDatasets handles GET /datasets
// @Summary List datasets
// @Tags datasets
// @Produce json
// @Param mode query string false "local, remote or sync"
// @Success 200 {array} graph.Dataset
// @Router /datasets [get]
func (h *Handler) ListDatasets(w http.ResponseWriter, r *http.Request) {
	mode, err := h.mode(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	datasets, err := h.adapter.FetchDatasets(r.Context(), mode)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, datasets)
}

// CreateDataset handles POST /datasets
// @Summary Create a dataset seeded with a root node
// @Tags datasets
// @Accept json
// @Produce json
// @Param request body CreateDatasetRequest true "Dataset"
// @Success 201 {object} graph.Dataset
// @Failure 400 {object} ErrorResponse
// @Router /datasets [post]
func (h *Handler) CreateDataset(w http.ResponseWriter, r *http.Request) {
	var req CreateDatasetRequest
	if err := decode(r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	if req.User == "" {
		if claims, ok := auth.ClaimsFrom(r.Context()); ok {
			req.User = claims.Subject
		}
	}

	mode, err := h.mode(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	ds, err := h.adapter.CreateDataset(r.Context(), mode, req.Name, req.User)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, ds)
}

// GetDataset handles GET /datasets/{datasetID}
// @Summary Get a dataset
// @Tags datasets
// @Produce json
// @Param datasetID path string true "Dataset ID"
// @Success 200 {object} graph.Dataset
// @Failure 404 {object} ErrorResponse
// @Router /datasets/{datasetID} [get]
func (h *Handler) GetDataset(w http.ResponseWriter, r *http.Request) {
	mode, err := h.mode(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	ds, err := h.adapter.FetchDataset(r.Context(), mode, datasetParam(r))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, ds)
}

// GetGraphData handles GET /datasets/{datasetID}/graph
// @Summary Nodes and links of a dataset
// @Tags datasets
// @Produce json
// @Param datasetID path string true "Dataset ID"
// @Success 200 {object} graph.GraphData
// @Router /datasets/{datasetID}/graph [get]
func (h *Handler) GetGraphData(w http.ResponseWriter, r *http.Request) {
	mode, err := h.mode(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	data, err := h.adapter.FetchGraphData(r.Context(), mode, datasetParam(r))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, data)
}

// GetLinkTypes handles GET /datasets/{datasetID}/link-types
// @Summary Distinct link types of a dataset
// @Tags datasets
// @Produce json
// @Param datasetID path string true "Dataset ID"
// @Success 200 {array} string
// @Router /datasets/{datasetID}/link-types [get]
func (h *Handler) GetLinkTypes(w http.ResponseWriter, r *http.Request) {
	mode, err := h.mode(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	types, err := h.adapter.LinkTypes(r.Context(), mode, datasetParam(r))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, types)
}
