package api

import (
	"encoding/json"
	"net/http"

	"telemed/internal/entities"
	"telemed/internal/service"
)

type ReminderHandler struct {
	Service *service.ReminderService
}

func NewReminderHandler(svc *service.ReminderService) *ReminderHandler {
	return &ReminderHandler{Service: svc}
}

func (h *ReminderHandler) Create(w http.ResponseWriter, r *http.Request) {
	ident, ok := requireRole(w, r, "patient")
	if !ok {
		return
	}
	var req entities.ReminderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	rem, err := h.Service.Create(ident.UserID, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entities.ReminderResponse{
		ID:           rem.ID,
		MedicineName: rem.MedicineName,
		ReminderTime: rem.ReminderTime,
		Notes:        rem.Notes,
		Frequency:    rem.Frequency,
		Alerted:      rem.Alerted,
	})
}

func (h *ReminderHandler) List(w http.ResponseWriter, r *http.Request) {
	ident, ok := requireRole(w, r, "patient")
	if !ok {
		return
	}
	reminders, err := h.Service.List(ident.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reminders)
}

func (h *ReminderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ident, ok := requireRole(w, r, "patient")
	if !ok {
		return
	}
	reminderID, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "Invalid reminder id", http.StatusBadRequest)
		return
	}
	if err := h.Service.Delete(reminderID, ident.UserID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Reminder deleted"})
}
