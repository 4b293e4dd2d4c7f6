package repository

import (
	"database/sql"
	"fmt"
	"time"

	"telemed/internal/db"
	apperr "telemed/internal/errors"
)

type ReminderRepository interface {
	Create(rem *db.Reminder) error
	ListByUser(userID int) ([]db.Reminder, error)
	Delete(reminderID, userID int) error
	Due(now time.Time) ([]db.DueReminder, error)
	MarkDelivered(reminderID int) error
	Advance(reminderID int, due time.Time) error
}

type reminderRepository struct {
	db *sql.DB
}

func NewReminderRepository(database *sql.DB) ReminderRepository {
	return &reminderRepository{db: database}
}

func (r *reminderRepository) Create(rem *db.Reminder) error {
	return r.db.QueryRow(`
		INSERT INTO reminders (user_id, medicine_name, reminder_time, notes, frequency)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, alerted, created_at`,
		rem.UserID, rem.MedicineName, rem.ReminderTime, rem.Notes, rem.Frequency,
	).Scan(&rem.ID, &rem.Alerted, &rem.CreatedAt)
}

func (r *reminderRepository) ListByUser(userID int) ([]db.Reminder, error) {
	rows, err := r.db.Query(`
		SELECT id, user_id, medicine_name, reminder_time, notes, frequency, alerted, created_at
		FROM reminders
		WHERE user_id = $1
		ORDER BY reminder_time`, userID)
	if err != nil {
		return nil, fmt.Errorf("error querying reminders: %w", err)
	}
	defer rows.Close()

	var reminders []db.Reminder
	for rows.Next() {
		var rem db.Reminder
		if err := rows.Scan(&rem.ID, &rem.UserID, &rem.MedicineName, &rem.ReminderTime,
			&rem.Notes, &rem.Frequency, &rem.Alerted, &rem.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning reminder: %w", err)
		}
		reminders = append(reminders, rem)
	}
	return reminders, rows.Err()
}

func (r *reminderRepository) Delete(reminderID, userID int) error {
	res, err := r.db.Exec(`DELETE FROM reminders WHERE id = $1 AND user_id = $2`, reminderID, userID)
	if err != nil {
		return fmt.Errorf("error deleting reminder: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.ErrNotOwner
	}
	return nil
}

// Due returns undelivered reminders whose due time has passed, joined
// with the owner's contact details for delivery.
func (r *reminderRepository) Due(now time.Time) ([]db.DueReminder, error) {
	rows, err := r.db.Query(`
		SELECT r.id, r.user_id, r.medicine_name, r.reminder_time, r.notes, r.frequency,
		       u.name, u.email, u.phone
		FROM reminders r
		JOIN users u ON u.id = r.user_id
		WHERE r.alerted = FALSE AND r.reminder_time <= $1
		ORDER BY r.reminder_time`, now)
	if err != nil {
		return nil, fmt.Errorf("error querying due reminders: %w", err)
	}
	defer rows.Close()

	var due []db.DueReminder
	for rows.Next() {
		var d db.DueReminder
		if err := rows.Scan(&d.ID, &d.UserID, &d.MedicineName, &d.ReminderTime, &d.Notes,
			&d.Frequency, &d.UserName, &d.UserEmail, &d.UserPhone); err != nil {
			return nil, fmt.Errorf("error scanning due reminder: %w", err)
		}
		due = append(due, d)
	}
	return due, rows.Err()
}

// MarkDelivered sets the delivered flag on a one-shot reminder. The
// alerted guard makes the update a no-op if another pass got there first.
func (r *reminderRepository) MarkDelivered(reminderID int) error {
	_, err := r.db.Exec(`UPDATE reminders SET alerted = TRUE WHERE id = $1 AND alerted = FALSE`, reminderID)
	if err != nil {
		return fmt.Errorf("error marking reminder delivered: %w", err)
	}
	return nil
}

// Advance moves a recurring reminder's due time forward one period.
func (r *reminderRepository) Advance(reminderID int, due time.Time) error {
	_, err := r.db.Exec(`UPDATE reminders SET reminder_time = $2 WHERE id = $1 AND alerted = FALSE`, reminderID, due)
	if err != nil {
		return fmt.Errorf("error advancing reminder: %w", err)
	}
	return nil
}
