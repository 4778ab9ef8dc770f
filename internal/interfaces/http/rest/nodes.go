package rest

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/thedub2001/skull01/internal/domain/graph"
	appErrors "github.com/thedub2001/skull01/pkg/errors"
)

// NodeRequest is the body of node create and update.
type NodeRequest struct {
	Label string `json:"label" validate:"max=500"`
	Level *int   `json:"level,omitempty" validate:"omitempty,min=0"`
	Type  string `json:"type,omitempty"`
}

// ListNodes handles GET /datasets/{datasetID}/nodes
// @Summary List the nodes of a dataset
// @Tags nodes
// @Produce json
// @Param datasetID path string true "Dataset ID"
// @Param mode query string false "local, remote or sync"
// @Success 200 {array} graph.Node
// @Router /datasets/{datasetID}/nodes [get]
func (h *Handler) ListNodes(w http.ResponseWriter, r *http.Request) {
	mode, err := h.mode(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	nodes, err := h.adapter.FetchNodes(r.Context(), mode, datasetParam(r))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, nodes)
}

// CreateNode handles POST /datasets/{datasetID}/nodes
// @Summary Create a node
// @Tags nodes
// @Accept json
// @Produce json
// @Param datasetID path string true "Dataset ID"
// @Param request body NodeRequest true "Node"
// @Success 201 {object} graph.Node
// @Failure 400 {object} ErrorResponse
// @Router /datasets/{datasetID}/nodes [post]
func (h *Handler) CreateNode(w http.ResponseWriter, r *http.Request) {
	var req NodeRequest
	if err := decode(r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	mode, err := h.mode(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	n := graph.NewNode(datasetParam(r), req.Label, req.Level)
	n.Type = req.Type
	if err := h.adapter.AddNode(r.Context(), mode, n); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, n)
}

// UpdateNode handles PUT /datasets/{datasetID}/nodes/{id}
// @Summary Replace a node
// @Tags nodes
// @Accept json
// @Produce json
// @Param datasetID path string true "Dataset ID"
// @Param id path string true "Node ID"
// @Param request body NodeRequest true "Node"
// @Success 200 {object} graph.Node
// @Failure 404 {object} ErrorResponse
// @Router /datasets/{datasetID}/nodes/{id} [put]
func (h *Handler) UpdateNode(w http.ResponseWriter, r *http.Request) {
	var req NodeRequest
	if err := decode(r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	mode, err := h.mode(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	n := graph.Node{
		ID:      chi.URLParam(r, "id"),
		Label:   req.Label,
		Dataset: datasetParam(r),
		Level:   req.Level,
		Type:    req.Type,
	}
	if err := h.adapter.UpdateNode(r.Context(), mode, n); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, n)
}

// DeleteNode handles DELETE /datasets/{datasetID}/nodes/{id}
// @Summary Delete a node with its links and visual links
// @Description With recursive=true every node below it over parent-child links is deleted too.
// @Tags nodes
// @Produce json
// @Param datasetID path string true "Dataset ID"
// @Param id path string true "Node ID"
// @Param recursive query bool false "Delete the subtree"
// @Success 200 {object} graphops.DeleteResult
// @Router /datasets/{datasetID}/nodes/{id} [delete]
func (h *Handler) DeleteNode(w http.ResponseWriter, r *http.Request) {
	mode, err := h.mode(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	recursive := false
	if v := r.URL.Query().Get("recursive"); v != "" {
		if recursive, err = strconv.ParseBool(v); err != nil {
			respondError(w, r, h.logger, appErrors.NewValidationError("recursive must be a boolean"))
			return
		}
	}

	ctx := r.Context()
	scope := h.adapter.Scope(mode, datasetParam(r))
	snap, err := scope.Snapshot(ctx)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	id := chi.URLParam(r, "id")
	del := h.graphops.DeleteNode
	if recursive {
		del = h.graphops.DeleteNodeRecursive
	}
	result, err := del(ctx, scope, id, snap)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// AddChildNode handles POST /datasets/{datasetID}/nodes/{id}/children
// @Summary Create a child node linked to its parent
// @Tags nodes
// @Produce json
// @Param datasetID path string true "Dataset ID"
// @Param id path string true "Parent node ID"
// @Success 201 {object} graphops.ChildResult
// @Failure 404 {object} ErrorResponse
// @Router /datasets/{datasetID}/nodes/{id}/children [post]
func (h *Handler) AddChildNode(w http.ResponseWriter, r *http.Request) {
	mode, err := h.mode(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	ctx := r.Context()
	ds := datasetParam(r)
	nodes, err := h.adapter.FetchNodes(ctx, mode, ds)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	result, err := h.graphops.AddChildNode(ctx, h.adapter.Scope(mode, ds), chi.URLParam(r, "id"), nodes)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, result)
}
