package repository

import (
	"database/sql"
	stderrors "errors"
	"fmt"
	"time"

	"telemed/internal/db"
	apperr "telemed/internal/errors"
)

type SlotRepository interface {
	HasOverlap(doctorID int, start, end time.Time) (bool, error)
	Create(slot *db.AvailabilitySlot) error
	ListByDoctor(doctorID int) ([]db.AvailabilitySlot, error)
	ListOpenByDoctor(doctorID int, after time.Time) ([]db.AvailabilitySlot, error)
	Claim(slotID, doctorID int, appt *db.Appointment) error
	Delete(slotID, doctorID int) error
}

type slotRepository struct {
	db *sql.DB
}

func NewSlotRepository(database *sql.DB) SlotRepository {
	return &slotRepository{db: database}
}

// HasOverlap runs the half-open interval test against the doctor's
// existing slots. Slots that merely touch at a boundary do not overlap.
func (r *slotRepository) HasOverlap(doctorID int, start, end time.Time) (bool, error) {
	var exists bool
	err := r.db.QueryRow(`
		SELECT EXISTS(
			SELECT 1 FROM availability_slots
			WHERE doctor_id = $1
			  AND start_time < $3
			  AND end_time > $2
		)`, doctorID, start, end).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("error checking slot overlap: %w", err)
	}
	return exists, nil
}

func (r *slotRepository) Create(slot *db.AvailabilitySlot) error {
	return r.db.QueryRow(`
		INSERT INTO availability_slots (doctor_id, start_time, end_time, status)
		VALUES ($1, $2, $3, 'available')
		RETURNING id, status, created_at, updated_at`,
		slot.DoctorID, slot.StartTime, slot.EndTime,
	).Scan(&slot.ID, &slot.Status, &slot.CreatedAt, &slot.UpdatedAt)
}

func (r *slotRepository) ListByDoctor(doctorID int) ([]db.AvailabilitySlot, error) {
	return r.scanSlots(r.db.Query(`
		SELECT id, doctor_id, start_time, end_time, status, created_at, updated_at
		FROM availability_slots
		WHERE doctor_id = $1
		ORDER BY start_time`, doctorID))
}

func (r *slotRepository) ListOpenByDoctor(doctorID int, after time.Time) ([]db.AvailabilitySlot, error) {
	return r.scanSlots(r.db.Query(`
		SELECT id, doctor_id, start_time, end_time, status, created_at, updated_at
		FROM availability_slots
		WHERE doctor_id = $1 AND status = 'available' AND start_time > $2
		ORDER BY start_time`, doctorID, after))
}

func (r *slotRepository) scanSlots(rows *sql.Rows, err error) ([]db.AvailabilitySlot, error) {
	if err != nil {
		return nil, fmt.Errorf("error querying availability slots: %w", err)
	}
	defer rows.Close()

	var slots []db.AvailabilitySlot
	for rows.Next() {
		var s db.AvailabilitySlot
		if err := rows.Scan(&s.ID, &s.DoctorID, &s.StartTime, &s.EndTime, &s.Status, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("error scanning availability slot: %w", err)
		}
		slots = append(slots, s)
	}
	return slots, rows.Err()
}

// Claim flips the slot to booked and inserts the appointment in one
// transaction. The UPDATE only matches while the slot is still available
// and owned by the stated doctor, so of any number of concurrent callers
// exactly one commits; the rest see ErrSlotUnavailable. The appointment
// time is snapshot-copied from the slot's start at claim time.
func (r *slotRepository) Claim(slotID, doctorID int, appt *db.Appointment) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("error starting claim transaction: %w", err)
	}
	defer tx.Rollback()

	var start time.Time
	err = tx.QueryRow(`
		UPDATE availability_slots
		SET status = 'booked', updated_at = NOW()
		WHERE id = $1 AND doctor_id = $2 AND status = 'available'
		RETURNING start_time`, slotID, doctorID).Scan(&start)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return apperr.ErrSlotUnavailable
		}
		return fmt.Errorf("error claiming slot: %w", err)
	}

	appt.AppointmentTime = start
	appt.AvailabilityID = sql.NullInt64{Int64: int64(slotID), Valid: true}
	err = tx.QueryRow(`
		INSERT INTO appointments (patient_id, doctor_id, availability_id, appointment_time, status, room_id)
		VALUES ($1, $2, $3, $4, 'pending', $5)
		RETURNING id, status, created_at, updated_at`,
		appt.PatientID, appt.DoctorID, slotID, appt.AppointmentTime, appt.RoomID,
	).Scan(&appt.ID, &appt.Status, &appt.CreatedAt, &appt.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error inserting appointment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing claim: %w", err)
	}
	return nil
}

// Delete removes a free slot owned by the doctor. Missing slots and
// foreign slots both report ErrNotOwner.
func (r *slotRepository) Delete(slotID, doctorID int) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("error starting delete transaction: %w", err)
	}
	defer tx.Rollback()

	var ownerID int
	var status string
	err = tx.QueryRow(`
		SELECT doctor_id, status FROM availability_slots
		WHERE id = $1
		FOR UPDATE`, slotID).Scan(&ownerID, &status)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return apperr.ErrNotOwner
		}
		return fmt.Errorf("error locking slot for delete: %w", err)
	}
	if ownerID != doctorID {
		return apperr.ErrNotOwner
	}
	if status != "available" {
		return apperr.ErrSlotNotFree
	}

	if _, err := tx.Exec(`DELETE FROM availability_slots WHERE id = $1`, slotID); err != nil {
		return fmt.Errorf("error deleting slot: %w", err)
	}
	return tx.Commit()
}
