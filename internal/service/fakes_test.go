package service

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"telemed/internal/db"
	"telemed/internal/entities"
	apperr "telemed/internal/errors"
)

// In-memory repositories mirroring the SQL implementations' conditional
// semantics, so the services can be exercised without a database.

type fakeStore struct {
	mu      sync.Mutex
	slotSeq int
	apptSeq int
	slots   map[int]*db.AvailabilitySlot
	appts   map[int]*db.Appointment
	users   map[int]*db.User
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		slots: make(map[int]*db.AvailabilitySlot),
		appts: make(map[int]*db.Appointment),
		users: make(map[int]*db.User),
	}
}

func (f *fakeStore) addUser(id int, role string) {
	f.users[id] = &db.User{
		ID:    id,
		Name:  fmt.Sprintf("user-%d", id),
		Email: fmt.Sprintf("user%d@example.com", id),
		Phone: fmt.Sprintf("+3912345678%d", id),
		Role:  role,
	}
}

type fakeSlotRepo struct{ store *fakeStore }

func (r *fakeSlotRepo) HasOverlap(doctorID int, start, end time.Time) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, s := range r.store.slots {
		if s.DoctorID == doctorID && s.StartTime.Before(end) && s.EndTime.After(start) {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeSlotRepo) Create(slot *db.AvailabilitySlot) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.slotSeq++
	slot.ID = r.store.slotSeq
	slot.Status = "available"
	cp := *slot
	r.store.slots[slot.ID] = &cp
	return nil
}

func (r *fakeSlotRepo) ListByDoctor(doctorID int) ([]db.AvailabilitySlot, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []db.AvailabilitySlot
	for _, s := range r.store.slots {
		if s.DoctorID == doctorID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *fakeSlotRepo) ListOpenByDoctor(doctorID int, after time.Time) ([]db.AvailabilitySlot, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []db.AvailabilitySlot
	for _, s := range r.store.slots {
		if s.DoctorID == doctorID && s.Status == "available" && s.StartTime.After(after) {
			out = append(out, *s)
		}
	}
	return out, nil
}

// Claim re-verifies the slot state under the lock, like the SQL
// conditional update does.
func (r *fakeSlotRepo) Claim(slotID, doctorID int, appt *db.Appointment) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	s, ok := r.store.slots[slotID]
	if !ok || s.Status != "available" || s.DoctorID != doctorID {
		return apperr.ErrSlotUnavailable
	}
	s.Status = "booked"
	r.store.apptSeq++
	appt.ID = r.store.apptSeq
	appt.Status = "pending"
	appt.AppointmentTime = s.StartTime
	appt.AvailabilityID = sql.NullInt64{Int64: int64(slotID), Valid: true}
	cp := *appt
	r.store.appts[appt.ID] = &cp
	return nil
}

func (r *fakeSlotRepo) Delete(slotID, doctorID int) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	s, ok := r.store.slots[slotID]
	if !ok || s.DoctorID != doctorID {
		return apperr.ErrNotOwner
	}
	if s.Status != "available" {
		return apperr.ErrSlotNotFree
	}
	delete(r.store.slots, slotID)
	return nil
}

type fakeApptRepo struct{ store *fakeStore }

func (r *fakeApptRepo) ListForUser(userID int, role string) ([]entities.AppointmentResponse, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []entities.AppointmentResponse
	for _, a := range r.store.appts {
		if (role == "doctor" && a.DoctorID == userID) || (role != "doctor" && a.PatientID == userID) {
			out = append(out, toResponse(a))
		}
	}
	return out, nil
}

func (r *fakeApptRepo) GetByRoomID(roomID string) (*entities.AppointmentResponse, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, a := range r.store.appts {
		if a.RoomID == roomID {
			resp := toResponse(a)
			return &resp, nil
		}
	}
	return nil, apperr.ErrNotOwner
}

func (r *fakeApptRepo) Cancel(apptID, patientID int) (*db.Appointment, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	a, ok := r.store.appts[apptID]
	if !ok || a.PatientID != patientID {
		return nil, apperr.ErrNotOwner
	}
	if a.Status != "pending" {
		return nil, apperr.ErrAlreadyTerminal
	}
	a.Status = "cancelled"
	if a.AvailabilityID.Valid {
		if s, ok := r.store.slots[int(a.AvailabilityID.Int64)]; ok && s.Status == "booked" {
			s.Status = "available"
		}
	}
	cp := *a
	return &cp, nil
}

func (r *fakeApptRepo) Complete(apptID, doctorID int) (*db.Appointment, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	a, ok := r.store.appts[apptID]
	if !ok || a.DoctorID != doctorID {
		return nil, apperr.ErrNotOwner
	}
	if a.Status != "pending" {
		return nil, apperr.ErrAlreadyTerminal
	}
	a.Status = "done"
	cp := *a
	return &cp, nil
}

func toResponse(a *db.Appointment) entities.AppointmentResponse {
	return entities.AppointmentResponse{
		ID:              a.ID,
		PatientID:       a.PatientID,
		DoctorID:        a.DoctorID,
		AppointmentTime: a.AppointmentTime,
		Status:          a.Status,
		RoomID:          a.RoomID,
	}
}

type fakeUserRepo struct{ store *fakeStore }

func (r *fakeUserRepo) Create(u *db.User) error { return nil }

func (r *fakeUserRepo) GetByEmail(email string) (*db.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, u := range r.store.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) GetByID(id int) (*db.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if u, ok := r.store.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (r *fakeUserRepo) SetOTP(userID int, otpHash string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if u, ok := r.store.users[userID]; ok {
		u.OTPHash = sql.NullString{String: otpHash, Valid: true}
	}
	return nil
}

func (r *fakeUserRepo) ClearOTP(userID int) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if u, ok := r.store.users[userID]; ok {
		u.OTPHash = sql.NullString{}
	}
	return nil
}

func (r *fakeUserRepo) SetPresence(userID int, presence string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if u, ok := r.store.users[userID]; ok && u.Role == "doctor" {
		u.Presence = presence
	}
	return nil
}

func (r *fakeUserRepo) TogglePresence(doctorID int) (string, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	u, ok := r.store.users[doctorID]
	if !ok || u.Role != "doctor" {
		return "", apperr.ErrNotOwner
	}
	if u.Presence == "online" {
		u.Presence = "offline"
	} else {
		u.Presence = "online"
	}
	return u.Presence, nil
}

func (r *fakeUserRepo) ListOnlineDoctors() ([]db.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []db.User
	for _, u := range r.store.users {
		if u.Role == "doctor" && u.Presence == "online" {
			out = append(out, *u)
		}
	}
	return out, nil
}

// fakeNotifier records deliveries and can be told to fail per address.
type fakeNotifier struct {
	mu         sync.Mutex
	emails     []string
	smses      []string
	failEmails map[string]error
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{failEmails: make(map[string]error)}
}

func (n *fakeNotifier) SendEmail(toEmail, toName, subject, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err, ok := n.failEmails[toEmail]; ok {
		return err
	}
	n.emails = append(n.emails, toEmail)
	return nil
}

func (n *fakeNotifier) SendSMS(toNumber, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.smses = append(n.smses, toNumber)
	return nil
}

func (n *fakeNotifier) emailCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.emails)
}
