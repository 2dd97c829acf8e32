package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"journeybot/internal/model"
	"journeybot/internal/service"
)

// CatalogHandler handles catalog module endpoints
type CatalogHandler struct {
	catalogSvc *service.CatalogService
	convSvc    *service.ConversationService
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(catalogSvc *service.CatalogService, convSvc *service.ConversationService) *CatalogHandler {
	return &CatalogHandler{
		catalogSvc: catalogSvc,
		convSvc:    convSvc,
	}
}

// Create handles POST /v1/modules
func (h *CatalogHandler) Create(w http.ResponseWriter, r *http.Request) {
	var module model.Module
	if err := json.NewDecoder(r.Body).Decode(&module); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if module.Title == "" || len(module.Questions) == 0 {
		writeError(w, http.StatusBadRequest, "title and questions are required")
		return
	}

	id, err := h.catalogSvc.CreateModule(r.Context(), &module)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// List handles GET /v1/modules
func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	modules, err := h.catalogSvc.ListModules(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, modules)
}

// Get handles GET /v1/modules/{moduleId}
func (h *CatalogHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["moduleId"]

	module, err := h.catalogSvc.GetModule(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if module == nil {
		writeError(w, http.StatusNotFound, "module not found")
		return
	}

	writeJSON(w, http.StatusOK, module)
}

// Update handles PUT /v1/modules/{moduleId}
func (h *CatalogHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["moduleId"]

	var module model.Module
	if err := json.NewDecoder(r.Body).Decode(&module); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	module.ID = id

	if err := h.catalogSvc.UpdateModule(r.Context(), &module); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, module)
}

// Delete handles DELETE /v1/modules/{moduleId}
func (h *CatalogHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["moduleId"]

	if err := h.catalogSvc.DeleteModule(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Metadata handles GET /v1/catalog/metadata?ageMonths=N
func (h *CatalogHandler) Metadata(w http.ResponseWriter, r *http.Request) {
	age, err := strconv.Atoi(r.URL.Query().Get("ageMonths"))
	if err != nil || age < 0 {
		writeError(w, http.StatusBadRequest, "ageMonths query param is required")
		return
	}

	meta, err := h.catalogSvc.GetCurrentModuleMetadata(r.Context(), age)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if meta == nil {
		writeError(w, http.StatusNotFound, "no module covers this age")
		return
	}

	writeJSON(w, http.StatusOK, meta)
}

// CreateChild handles POST /v1/children
func (h *CatalogHandler) CreateChild(w http.ResponseWriter, r *http.Request) {
	var child model.Child
	if err := json.NewDecoder(r.Body).Decode(&child); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if child.Name == "" || child.BirthDate.IsZero() {
		writeError(w, http.StatusBadRequest, "name and birthDate are required")
		return
	}

	id, err := h.convSvc.CreateChild(r.Context(), &child)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// GetChild handles GET /v1/children/{childId}
func (h *CatalogHandler) GetChild(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["childId"]

	child, err := h.convSvc.GetChild(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if child == nil {
		writeError(w, http.StatusNotFound, "child not found")
		return
	}

	writeJSON(w, http.StatusOK, child)
}
