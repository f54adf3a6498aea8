// Package api provides HTTP handlers for the packaged gesture model.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/overlay"
	"github.com/ayusman/mudra/internal/store"
)

// ModelHandler serves the templates of the model store. The classifier is
// loaded at startup, so changes take effect on the next start.
type ModelHandler struct {
	store *store.Store
}

// NewModelHandler creates a ModelHandler backed by s.
func NewModelHandler(s *store.Store) *ModelHandler {
	return &ModelHandler{store: s}
}

// ServeHTTP routes /api/model and /api/model/{code}.
func (h *ModelHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/model")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	code, err := strconv.Atoi(path)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid gesture code")
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.get(w, r, code)
	case http.MethodDelete:
		h.delete(w, r, code)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

type templateResponse struct {
	Code      int       `json:"code"`
	Name      string    `json:"name"`
	Asset     string    `json:"asset,omitempty"` // empty for codes that never animate
	Tolerance float64   `json:"tolerance"`
	Samples   int       `json:"samples"`
	CreatedAt string    `json:"created_at"`
	UpdatedAt string    `json:"updated_at"`
	Features  []float64 `json:"features,omitempty"`
}

type listTemplatesResponse struct {
	Columns   []string           `json:"columns"`
	Templates []templateResponse `json:"templates"`
}

type createTemplateRequest struct {
	Code      int       `json:"code"`
	Name      string    `json:"name"`
	Tolerance float64   `json:"tolerance"`
	Samples   int       `json:"samples"`
	Features  []float64 `json:"features"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func toResponse(t *store.Template) templateResponse {
	asset, _ := overlay.AssetFor(gesture.Code(t.Code))
	return templateResponse{
		Code:      t.Code,
		Name:      t.Name,
		Asset:     asset,
		Tolerance: t.Tolerance,
		Samples:   t.Samples,
		CreatedAt: t.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt: t.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func (h *ModelHandler) list(w http.ResponseWriter, r *http.Request) {
	templates, err := h.store.Templates().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list templates")
		return
	}

	response := listTemplatesResponse{
		Columns:   detector.Columns(),
		Templates: make([]templateResponse, 0, len(templates)),
	}
	for _, t := range templates {
		response.Templates = append(response.Templates, toResponse(t))
	}

	writeJSON(w, http.StatusOK, response)
}

// get returns one template including its centroid.
func (h *ModelHandler) get(w http.ResponseWriter, r *http.Request, code int) {
	t, err := h.store.Templates().GetByCode(code)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Template not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get template")
		return
	}

	features, err := h.store.Templates().GetFeatures(code)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get template features")
		return
	}

	response := toResponse(t)
	response.Features = features
	writeJSON(w, http.StatusOK, response)
}

// create imports a template. The centroid must have one value per feature
// column.
func (h *ModelHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Name is required")
		return
	}
	if len(req.Features) != detector.FeatureLen {
		writeError(w, http.StatusBadRequest, "Features must have "+strconv.Itoa(detector.FeatureLen)+" values")
		return
	}
	if req.Tolerance <= 0 {
		req.Tolerance = 0.5
	}

	if _, err := h.store.Templates().GetByCode(req.Code); err == nil {
		writeError(w, http.StatusConflict, "Template already exists")
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusInternalServerError, "Failed to check template")
		return
	}

	t := &store.Template{
		Code:      req.Code,
		Name:      req.Name,
		Tolerance: req.Tolerance,
		Samples:   req.Samples,
	}
	if err := h.store.Templates().Create(t, req.Features); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create template")
		return
	}

	writeJSON(w, http.StatusCreated, toResponse(t))
}

func (h *ModelHandler) delete(w http.ResponseWriter, r *http.Request, code int) {
	if err := h.store.Templates().Delete(code); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Template not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete template")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
