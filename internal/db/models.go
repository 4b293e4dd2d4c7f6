package db

import (
	"database/sql"
	"time"
)

type User struct {
	ID           int
	Name         string
	Email        string
	Phone        string
	Role         string
	Specialty    sql.NullString
	PasswordHash string
	OTPHash      sql.NullString
	Presence     string
	CreatedAt    time.Time
}

type AvailabilitySlot struct {
	ID        int
	DoctorID  int
	StartTime time.Time
	EndTime   time.Time
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Appointment struct {
	ID              int
	PatientID       int
	DoctorID        int
	AvailabilityID  sql.NullInt64
	AppointmentTime time.Time
	Status          string
	RoomID          string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type Reminder struct {
	ID           int
	UserID       int
	MedicineName string
	ReminderTime time.Time
	Notes        string
	Frequency    string
	Alerted      bool
	CreatedAt    time.Time
}

// DueReminder is a reminder joined with the owner's contact details,
// as returned by the due-reminder scan.
type DueReminder struct {
	Reminder
	UserName  string
	UserEmail string
	UserPhone string
}
