package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"journeybot/internal/model"
	"journeybot/internal/service"
	"journeybot/internal/transport/rest/middleware"
)

// ConversationHandler handles conversation endpoints
type ConversationHandler struct {
	convSvc *service.ConversationService
}

// NewConversationHandler creates a new conversation handler
func NewConversationHandler(convSvc *service.ConversationService) *ConversationHandler {
	return &ConversationHandler{convSvc: convSvc}
}

// StartRequest is the request body for starting a conversation
type StartRequest struct {
	CaregiverID   string `json:"caregiverId"`
	CaregiverName string `json:"caregiverName"`
}

// Start handles POST /v1/conversations/{childId}/start
func (h *ConversationHandler) Start(w http.ResponseWriter, r *http.Request) {
	childID := mux.Vars(r)["childId"]

	var req StartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.convSvc.Start(r.Context(), childID, req.CaregiverID, req.CaregiverName)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// GetState handles GET /v1/conversations/state
func (h *ConversationHandler) GetState(w http.ResponseWriter, r *http.Request) {
	childID := middleware.GetChildID(r.Context())
	caregiverID := middleware.GetCaregiverID(r.Context())

	view, err := h.convSvc.View(childID, caregiverID)
	if err != nil {
		writeConversationError(w, err, nil)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// SubmitAnswer handles POST /v1/conversations/answer
func (h *ConversationHandler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	childID := middleware.GetChildID(r.Context())
	caregiverID := middleware.GetCaregiverID(r.Context())

	var req model.SubmitAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	view, err := h.convSvc.SubmitAnswer(r.Context(), childID, caregiverID, req.Value, req.Text)
	if err != nil {
		writeConversationError(w, err, view)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// Advance handles POST /v1/conversations/advance
func (h *ConversationHandler) Advance(w http.ResponseWriter, r *http.Request) {
	childID := middleware.GetChildID(r.Context())
	caregiverID := middleware.GetCaregiverID(r.Context())

	view, err := h.convSvc.Advance(r.Context(), childID, caregiverID)
	if err != nil {
		writeConversationError(w, err, view)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// Retreat handles POST /v1/conversations/back
func (h *ConversationHandler) Retreat(w http.ResponseWriter, r *http.Request) {
	childID := middleware.GetChildID(r.Context())
	caregiverID := middleware.GetCaregiverID(r.Context())

	view, err := h.convSvc.Retreat(r.Context(), childID, caregiverID)
	if err != nil {
		writeConversationError(w, err, view)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// RetryCurrent handles POST /v1/conversations/retry
func (h *ConversationHandler) RetryCurrent(w http.ResponseWriter, r *http.Request) {
	childID := middleware.GetChildID(r.Context())
	caregiverID := middleware.GetCaregiverID(r.Context())

	view, err := h.convSvc.RetryCurrent(r.Context(), childID, caregiverID)
	if err != nil {
		writeConversationError(w, err, view)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// Close handles POST /v1/conversations/close
func (h *ConversationHandler) Close(w http.ResponseWriter, r *http.Request) {
	childID := middleware.GetChildID(r.Context())
	caregiverID := middleware.GetCaregiverID(r.Context())

	h.convSvc.CloseConversation(r.Context(), childID, caregiverID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "closed"})
}

// writeConversationError maps engine errors to status codes. Rejected
// intents return 409 along with the current view so clients can re-render.
func writeConversationError(w http.ResponseWriter, err error, view *model.ConversationView) {
	switch {
	case errors.Is(err, service.ErrConversationNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInvalidTransition):
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": err.Error(),
			"view":  view,
		})
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
