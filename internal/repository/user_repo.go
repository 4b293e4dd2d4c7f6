package repository

import (
	"database/sql"
	stderrors "errors"
	"fmt"

	"github.com/lib/pq"

	"telemed/internal/db"
	apperr "telemed/internal/errors"
)

type UserRepository interface {
	Create(u *db.User) error
	GetByEmail(email string) (*db.User, error)
	GetByID(id int) (*db.User, error)
	SetOTP(userID int, otpHash string) error
	ClearOTP(userID int) error
	SetPresence(userID int, presence string) error
	TogglePresence(doctorID int) (string, error)
	ListOnlineDoctors() ([]db.User, error)
}

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(database *sql.DB) UserRepository {
	return &userRepository{db: database}
}

const userSelect = `
	SELECT id, name, email, phone, role, specialty, password_hash, otp_hash, presence, created_at
	FROM users`

func (r *userRepository) Create(u *db.User) error {
	err := r.db.QueryRow(`
		INSERT INTO users (name, email, phone, role, specialty, password_hash)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, presence, created_at`,
		u.Name, u.Email, u.Phone, u.Role, u.Specialty, u.PasswordHash,
	).Scan(&u.ID, &u.Presence, &u.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if stderrors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return apperr.ErrDuplicateAccount
		}
		return fmt.Errorf("error creating user: %w", err)
	}
	return nil
}

func (r *userRepository) GetByEmail(email string) (*db.User, error) {
	return r.scanUser(r.db.QueryRow(userSelect+` WHERE email = $1`, email))
}

func (r *userRepository) GetByID(id int) (*db.User, error) {
	return r.scanUser(r.db.QueryRow(userSelect+` WHERE id = $1`, id))
}

func (r *userRepository) scanUser(row *sql.Row) (*db.User, error) {
	var u db.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.Role, &u.Specialty,
		&u.PasswordHash, &u.OTPHash, &u.Presence, &u.CreatedAt)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error querying user: %w", err)
	}
	return &u, nil
}

func (r *userRepository) SetOTP(userID int, otpHash string) error {
	_, err := r.db.Exec(`UPDATE users SET otp_hash = $2 WHERE id = $1`, userID, otpHash)
	return err
}

func (r *userRepository) ClearOTP(userID int) error {
	_, err := r.db.Exec(`UPDATE users SET otp_hash = NULL WHERE id = $1`, userID)
	return err
}

func (r *userRepository) SetPresence(userID int, presence string) error {
	_, err := r.db.Exec(`UPDATE users SET presence = $2 WHERE id = $1 AND role = 'doctor'`, userID, presence)
	return err
}

// TogglePresence flips the doctor's presence flag in a single statement
// and returns the new value.
func (r *userRepository) TogglePresence(doctorID int) (string, error) {
	var presence string
	err := r.db.QueryRow(`
		UPDATE users
		SET presence = CASE WHEN presence = 'online' THEN 'offline' ELSE 'online' END
		WHERE id = $1 AND role = 'doctor'
		RETURNING presence`, doctorID).Scan(&presence)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return "", apperr.ErrNotOwner
		}
		return "", fmt.Errorf("error toggling presence: %w", err)
	}
	return presence, nil
}

func (r *userRepository) ListOnlineDoctors() ([]db.User, error) {
	rows, err := r.db.Query(userSelect + ` WHERE role = 'doctor' AND presence = 'online' ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("error querying online doctors: %w", err)
	}
	defer rows.Close()

	var doctors []db.User
	for rows.Next() {
		var u db.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.Role, &u.Specialty,
			&u.PasswordHash, &u.OTPHash, &u.Presence, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning doctor: %w", err)
		}
		doctors = append(doctors, u)
	}
	return doctors, rows.Err()
}
