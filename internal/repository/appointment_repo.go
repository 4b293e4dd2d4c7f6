package repository

import (
	"database/sql"
	stderrors "errors"
	"fmt"
	"log"

	"telemed/internal/db"
	"telemed/internal/entities"
	apperr "telemed/internal/errors"
)

type AppointmentRepository interface {
	ListForUser(userID int, role string) ([]entities.AppointmentResponse, error)
	GetByRoomID(roomID string) (*entities.AppointmentResponse, error)
	Cancel(apptID, patientID int) (*db.Appointment, error)
	Complete(apptID, doctorID int) (*db.Appointment, error)
}

type appointmentRepository struct {
	db *sql.DB
}

func NewAppointmentRepository(database *sql.DB) AppointmentRepository {
	return &appointmentRepository{db: database}
}

const appointmentSelect = `
	SELECT a.id, a.patient_id, a.doctor_id, p.name, d.name,
	       a.appointment_time, a.status, a.room_id, a.created_at
	FROM appointments a
	JOIN users p ON p.id = a.patient_id
	JOIN users d ON d.id = a.doctor_id`

func (r *appointmentRepository) ListForUser(userID int, role string) ([]entities.AppointmentResponse, error) {
	column := "a.patient_id"
	if role == "doctor" {
		column = "a.doctor_id"
	}
	rows, err := r.db.Query(
		appointmentSelect+` WHERE `+column+` = $1 ORDER BY a.appointment_time DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("error querying appointments: %w", err)
	}
	defer rows.Close()

	var out []entities.AppointmentResponse
	for rows.Next() {
		var a entities.AppointmentResponse
		if err := rows.Scan(&a.ID, &a.PatientID, &a.DoctorID, &a.PatientName, &a.DoctorName,
			&a.AppointmentTime, &a.Status, &a.RoomID, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning appointment: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *appointmentRepository) GetByRoomID(roomID string) (*entities.AppointmentResponse, error) {
	var a entities.AppointmentResponse
	err := r.db.QueryRow(appointmentSelect+` WHERE a.room_id = $1`, roomID).
		Scan(&a.ID, &a.PatientID, &a.DoctorID, &a.PatientName, &a.DoctorName,
			&a.AppointmentTime, &a.Status, &a.RoomID, &a.CreatedAt)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotOwner
		}
		return nil, fmt.Errorf("error querying appointment by room: %w", err)
	}
	return &a, nil
}

// Cancel flips a pending appointment to cancelled and releases the
// claimed slot back to available. The row lock plus conditional slot
// update keep a concurrent release from double-freeing: the slot only
// returns to available if this appointment still holds it.
func (r *appointmentRepository) Cancel(apptID, patientID int) (*db.Appointment, error) {
	return r.finish(apptID, patientID, "patient_id", "cancelled", true)
}

// Complete marks a pending appointment done. The slot stays booked: the
// window was consumed, not released.
func (r *appointmentRepository) Complete(apptID, doctorID int) (*db.Appointment, error) {
	return r.finish(apptID, doctorID, "doctor_id", "done", false)
}

func (r *appointmentRepository) finish(apptID, actorID int, ownerColumn, newStatus string, releaseSlot bool) (*db.Appointment, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback()

	appt := &db.Appointment{ID: apptID}
	err = tx.QueryRow(`
		SELECT patient_id, doctor_id, availability_id, appointment_time, status, room_id, created_at
		FROM appointments
		WHERE id = $1
		FOR UPDATE`, apptID,
	).Scan(&appt.PatientID, &appt.DoctorID, &appt.AvailabilityID, &appt.AppointmentTime,
		&appt.Status, &appt.RoomID, &appt.CreatedAt)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotOwner
		}
		return nil, fmt.Errorf("error locking appointment: %w", err)
	}

	owner := appt.PatientID
	if ownerColumn == "doctor_id" {
		owner = appt.DoctorID
	}
	if owner != actorID {
		return nil, apperr.ErrNotOwner
	}
	if appt.Status != "pending" {
		return nil, apperr.ErrAlreadyTerminal
	}

	if _, err := tx.Exec(`UPDATE appointments SET status = $1, updated_at = NOW() WHERE id = $2`,
		newStatus, apptID); err != nil {
		return nil, fmt.Errorf("error updating appointment status: %w", err)
	}
	appt.Status = newStatus

	if releaseSlot {
		if appt.AvailabilityID.Valid {
			res, err := tx.Exec(`
				UPDATE availability_slots SET status = 'available', updated_at = NOW()
				WHERE id = $1 AND status = 'booked'`, appt.AvailabilityID.Int64)
			if err != nil {
				return nil, fmt.Errorf("error releasing slot: %w", err)
			}
			if n, _ := res.RowsAffected(); n == 0 {
				log.Printf("appointment %d cancelled but slot %d was already released", apptID, appt.AvailabilityID.Int64)
			}
		} else {
			// Data-integrity gap: a booking should always reference its slot.
			log.Printf("appointment %d cancelled with no availability link", apptID)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("error committing appointment update: %w", err)
	}
	return appt, nil
}
