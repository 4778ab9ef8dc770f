package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/thedub2001/skull01/internal/domain/graph"
)

// LinkRequest is the body of link create and update.
type LinkRequest struct {
	Source string `json:"source" validate:"required"`
	Target string `json:"target" validate:"required"`
	Type   string `json:"type,omitempty"`
}

// VisualLinkRequest is the body of visual link create and update. A missing
// type is stored as null.
type VisualLinkRequest struct {
	Source   string         `json:"source" validate:"required"`
	Target   string         `json:"target" validate:"required"`
	Type     *string        `json:"type"`
	Metadata map[string]any `json:"metadata"`
}

// ListLinks handles GET /datasets/{datasetID}/links
// @Summary List the links of a dataset
// @Tags links
// @Produce json
// @Param datasetID path string true "Dataset ID"
// @Success 200 {array} graph.Link
// @Router /datasets/{datasetID}/links [get]
func (h *Handler) ListLinks(w http.ResponseWriter, r *http.Request) {
	mode, err := h.mode(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	links, err := h.adapter.FetchLinks(r.Context(), mode, datasetParam(r))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, links)
}

// CreateLink handles POST /datasets/{datasetID}/links
// @Summary Create a link
// @Tags links
// @Accept json
// @Produce json
// @Param datasetID path string true "Dataset ID"
// @Param request body LinkRequest true "Link"
// @Success 201 {object} graph.Link
// @Failure 400 {object} ErrorResponse
// @Router /datasets/{datasetID}/links [post]
func (h *Handler) CreateLink(w http.ResponseWriter, r *http.Request) {
	var req LinkRequest
	if err := decode(r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	mode, err := h.mode(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	l := graph.NewLink(datasetParam(r), req.Source, req.Target, req.Type)
	if err := h.adapter.AddLink(r.Context(), mode, l); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, l)
}

// UpdateLink handles PUT /datasets/{datasetID}/links/{id}
// @Summary Replace a link
// @Tags links
// @Accept json
// @Produce json
// @Param datasetID path string true "Dataset ID"
// @Param id path string true "Link ID"
// @Param request body LinkRequest true "Link"
// @Success 200 {object} graph.Link
// @Failure 404 {object} ErrorResponse
// @Router /datasets/{datasetID}/links/{id} [put]
func (h *Handler) UpdateLink(w http.ResponseWriter, r *http.Request) {
	var req LinkRequest
	if err := decode(r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	mode, err := h.mode(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	l := graph.Link{
		ID:      chi.URLParam(r, "id"),
		Source:  req.Source,
		Target:  req.Target,
		Dataset: datasetParam(r),
		Type:    req.Type,
	}
	if err := h.adapter.UpdateLink(r.Context(), mode, l); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, l)
}

// DeleteLink handles DELETE /datasets/{datasetID}/links/{id}
// @Summary Delete a link
// @Tags links
// @Param datasetID path string true "Dataset ID"
// @Param id path string true "Link ID"
// @Success 204
// @Router /datasets/{datasetID}/links/{id} [delete]
func (h *Handler) DeleteLink(w http.ResponseWriter, r *http.Request) {
	mode, err := h.mode(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	if err := h.adapter.DeleteLink(r.Context(), mode, chi.URLParam(r, "id")); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListVisualLinks handles GET /datasets/{datasetID}/visual-links
// @Summary List the visual links of a dataset
// @Tags visual-links
// @Produce json
// @Param datasetID path string true "Dataset ID"
// @Param type query string false "Only this link type"
// @Success 200 {array} graph.VisualLink
// @Router /datasets/{datasetID}/visual-links [get]
func (h *Handler) ListVisualLinks(w http.ResponseWriter, r *http.Request) {
	mode, err := h.mode(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	vls, err := h.adapter.FetchVisualLinks(r.Context(), mode, datasetParam(r), r.URL.Query().Get("type"))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, vls)
}

// CreateVisualLink handles POST /datasets/{datasetID}/visual-links
// @Summary Create a visual link
// @Tags visual-links
// @Accept json
// @Produce json
// @Param datasetID path string true "Dataset ID"
// @Param request body VisualLinkRequest true "Visual link"
// @Success 201 {object} graph.VisualLink
// @Failure 400 {object} ErrorResponse
// @Router /datasets/{datasetID}/visual-links [post]
func (h *Handler) CreateVisualLink(w http.ResponseWriter, r *http.Request) {
	var req VisualLinkRequest
	if err := decode(r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	mode, err := h.mode(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	v := graph.NewVisualLink(datasetParam(r), req.Source, req.Target, "", req.Metadata)
	v.Type = req.Type
	if err := h.adapter.AddVisualLink(r.Context(), mode, v); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, v)
}

// UpdateVisualLink handles PUT /datasets/{datasetID}/visual-links/{id}
// @Summary Replace a visual link
// @Tags visual-links
// @Accept json
// @Produce json
// @Param datasetID path string true "Dataset ID"
// @Param id path string true "Visual link ID"
// @Param request body VisualLinkRequest true "Visual link"
// @Success 200 {object} graph.VisualLink
// @Failure 404 {object} ErrorResponse
// @Router /datasets/{datasetID}/visual-links/{id} [put]
func (h *Handler) UpdateVisualLink(w http.ResponseWriter, r *http.Request) {
	var req VisualLinkRequest
	if err := decode(r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	mode, err := h.mode(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	v := graph.NewVisualLink(datasetParam(r), req.Source, req.Target, "", req.Metadata)
	v.ID = chi.URLParam(r, "id")
	v.Type = req.Type
	if err := h.adapter.UpdateVisualLink(r.Context(), mode, v); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, v)
}

// DeleteVisualLink handles DELETE /datasets/{datasetID}/visual-links/{id}
// @Summary Delete a visual link
// @Tags visual-links
// @Param datasetID path string true "Dataset ID"
// @Param id path string true "Visual link ID"
// @Success 204
// @Router /datasets/{datasetID}/visual-links/{id} [delete]
func (h *Handler) DeleteVisualLink(w http.ResponseWriter, r *http.Request) {
	mode, err := h.mode(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	if err := h.adapter.DeleteVisualLink(r.Context(), mode, chi.URLParam(r, "id")); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
