package service

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"telemed/internal/db"
	"telemed/internal/entities"
	apperr "telemed/internal/errors"
	"telemed/internal/repository"
)

const minSlotDuration = 30 * time.Minute

// AllocatorService owns the availability/booking lifecycle: slot
// creation with conflict checks, the atomic claim, release, completion.
type AllocatorService struct {
	Slots        repository.SlotRepository
	Appointments repository.AppointmentRepository
	Users        repository.UserRepository
	Notifier     Notifier
}

func NewAllocatorService(slots repository.SlotRepository, appointments repository.AppointmentRepository,
	users repository.UserRepository, notifier Notifier) *AllocatorService {
	return &AllocatorService{
		Slots:        slots,
		Appointments: appointments,
		Users:        users,
		Notifier:     notifier,
	}
}

// ProposeWindow validates and stores a new availability slot. Slots of
// the same doctor must not overlap; touching boundaries are fine.
func (s *AllocatorService) ProposeWindow(doctorID int, start, end time.Time) (*db.AvailabilitySlot, error) {
	start = start.UTC()
	end = end.UTC()
	if start.IsZero() || end.IsZero() || !end.After(start) {
		return nil, apperr.ErrInvalidRange
	}
	if end.Sub(start) < minSlotDuration {
		return nil, apperr.ErrInvalidDuration
	}

	overlaps, err := s.Slots.HasOverlap(doctorID, start, end)
	if err != nil {
		return nil, fmt.Errorf("propose window: %w", err)
	}
	if overlaps {
		return nil, apperr.ErrOverlapConflict
	}

	slot := &db.AvailabilitySlot{DoctorID: doctorID, StartTime: start, EndTime: end}
	if err := s.Slots.Create(slot); err != nil {
		return nil, fmt.Errorf("propose window: %w", err)
	}
	return slot, nil
}

// ClaimWindow books a free slot for the patient. The doctor ID guards
// against stale or forged slot references; the repository makes the
// check-and-flip atomic, so concurrent claimers race safely.
func (s *AllocatorService) ClaimWindow(slotID, patientID, doctorID int) (*db.Appointment, error) {
	appt := &db.Appointment{
		PatientID: patientID,
		DoctorID:  doctorID,
		RoomID:    newRoomID(),
	}
	if err := s.Slots.Claim(slotID, doctorID, appt); err != nil {
		return nil, err
	}
	s.notifyPatient(patientID, "booked",
		fmt.Sprintf("Your appointment on %s is booked. Room code: %s.",
			appt.AppointmentTime.Format("02 Jan 2006 15:04 MST"), appt.RoomID))
	return appt, nil
}

// ReleaseWindow cancels the patient's pending appointment and frees the
// slot it claimed.
func (s *AllocatorService) ReleaseWindow(apptID, patientID int) error {
	appt, err := s.Appointments.Cancel(apptID, patientID)
	if err != nil {
		return err
	}
	s.notifyPatient(patientID, "cancelled",
		fmt.Sprintf("Your appointment on %s has been cancelled.",
			appt.AppointmentTime.Format("02 Jan 2006 15:04 MST")))
	return nil
}

// CompleteBooking lets the doctor mark a pending appointment done.
func (s *AllocatorService) CompleteBooking(apptID, doctorID int) error {
	_, err := s.Appointments.Complete(apptID, doctorID)
	return err
}

// DeleteWindow removes one of the doctor's free slots.
func (s *AllocatorService) DeleteWindow(slotID, doctorID int) error {
	return s.Slots.Delete(slotID, doctorID)
}

func (s *AllocatorService) ListSlots(doctorID int) ([]entities.SlotResponse, error) {
	slots, err := s.Slots.ListByDoctor(doctorID)
	if err != nil {
		return nil, err
	}
	return toSlotResponses(slots), nil
}

// ListOpenSlots returns a doctor's bookable slots, starting in the future.
func (s *AllocatorService) ListOpenSlots(doctorID int) ([]entities.SlotResponse, error) {
	slots, err := s.Slots.ListOpenByDoctor(doctorID, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	return toSlotResponses(slots), nil
}

func (s *AllocatorService) ListAppointments(userID int, role string) ([]entities.AppointmentResponse, error) {
	return s.Appointments.ListForUser(userID, role)
}

// GetRoom resolves a room token to its appointment, but only for the
// two correlated parties.
func (s *AllocatorService) GetRoom(roomID string, userID int) (*entities.AppointmentResponse, error) {
	appt, err := s.Appointments.GetByRoomID(roomID)
	if err != nil {
		return nil, err
	}
	if appt.PatientID != userID && appt.DoctorID != userID {
		return nil, apperr.ErrNotOwner
	}
	return appt, nil
}

func (s *AllocatorService) ListOnlineDoctors() ([]entities.DoctorResponse, error) {
	doctors, err := s.Users.ListOnlineDoctors()
	if err != nil {
		return nil, err
	}
	out := make([]entities.DoctorResponse, 0, len(doctors))
	for _, d := range doctors {
		out = append(out, entities.DoctorResponse{
			ID:        d.ID,
			Name:      d.Name,
			Specialty: d.Specialty.String,
			Presence:  d.Presence,
		})
	}
	return out, nil
}

func (s *AllocatorService) TogglePresence(doctorID int) (string, error) {
	return s.Users.TogglePresence(doctorID)
}

func (s *AllocatorService) notifyPatient(patientID int, status, body string) {
	user, err := s.Users.GetByID(patientID)
	if err != nil || user == nil {
		log.Printf("could not load patient %d for %s notification: %v", patientID, status, err)
		return
	}
	go func() {
		subject := fmt.Sprintf("Your appointment has been %s", status)
		if err := s.Notifier.SendEmail(user.Email, user.Name, subject, body); err != nil {
			log.Printf("appointment %s email to %s failed: %v", status, user.Email, err)
		}
		if err := s.Notifier.SendSMS(user.Phone, body); err != nil {
			log.Printf("appointment %s SMS to %s failed: %v", status, user.Phone, err)
		}
	}()
}

func toSlotResponses(slots []db.AvailabilitySlot) []entities.SlotResponse {
	out := make([]entities.SlotResponse, 0, len(slots))
	for _, s := range slots {
		out = append(out, entities.SlotResponse{
			ID:        s.ID,
			DoctorID:  s.DoctorID,
			StartTime: s.StartTime,
			EndTime:   s.EndTime,
			Status:    s.Status,
		})
	}
	return out
}

// newRoomID generates the opaque 8-character token correlating the two
// parties of a booking.
func newRoomID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
