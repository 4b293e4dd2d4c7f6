package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"telemed/internal/entities"
	"telemed/internal/service"
)

// AppointmentHandler exposes booking, cancellation, completion and the
// room lookup, plus the patient-facing doctor directory.
type AppointmentHandler struct {
	Service *service.AllocatorService
}

func NewAppointmentHandler(svc *service.AllocatorService) *AppointmentHandler {
	return &AppointmentHandler{Service: svc}
}

func (h *AppointmentHandler) ListDoctors(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireRole(w, r, "patient"); !ok {
		return
	}
	doctors, err := h.Service.ListOnlineDoctors()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doctors)
}

func (h *AppointmentHandler) ListDoctorSlots(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireRole(w, r, "patient"); !ok {
		return
	}
	doctorID, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "Invalid doctor id", http.StatusBadRequest)
		return
	}
	slots, err := h.Service.ListOpenSlots(doctorID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, slots)
}

func (h *AppointmentHandler) Book(w http.ResponseWriter, r *http.Request) {
	ident, ok := requireRole(w, r, "patient")
	if !ok {
		return
	}
	var req entities.BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	appt, err := h.Service.ClaimWindow(req.AvailabilityID, ident.UserID, req.DoctorID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"id":               appt.ID,
		"appointment_time": appt.AppointmentTime,
		"status":           appt.Status,
		"room_id":          appt.RoomID,
	})
}

func (h *AppointmentHandler) List(w http.ResponseWriter, r *http.Request) {
	ident, ok := requireRole(w, r, "")
	if !ok {
		return
	}
	appointments, err := h.Service.ListAppointments(ident.UserID, ident.Role)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, appointments)
}

func (h *AppointmentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	ident, ok := requireRole(w, r, "patient")
	if !ok {
		return
	}
	apptID, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "Invalid appointment id", http.StatusBadRequest)
		return
	}
	if err := h.Service.ReleaseWindow(apptID, ident.UserID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Appointment cancelled"})
}

func (h *AppointmentHandler) Complete(w http.ResponseWriter, r *http.Request) {
	ident, ok := requireRole(w, r, "doctor")
	if !ok {
		return
	}
	apptID, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "Invalid appointment id", http.StatusBadRequest)
		return
	}
	if err := h.Service.CompleteBooking(apptID, ident.UserID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Appointment marked complete"})
}

func (h *AppointmentHandler) GetRoom(w http.ResponseWriter, r *http.Request) {
	ident, ok := requireRole(w, r, "")
	if !ok {
		return
	}
	appt, err := h.Service.GetRoom(mux.Vars(r)["token"], ident.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, appt)
}
