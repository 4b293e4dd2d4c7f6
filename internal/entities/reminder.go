package entities

import "time"

type ReminderRequest struct {
	MedicineName string    `json:"medicine_name"`
	ReminderTime time.Time `json:"reminder_time"`
	Notes        string    `json:"notes"`
	Frequency    string    `json:"frequency"`
}

type ReminderResponse struct {
	ID           int       `json:"id"`
	MedicineName string    `json:"medicine_name"`
	ReminderTime time.Time `json:"reminder_time"`
	Notes        string    `json:"notes,omitempty"`
	Frequency    string    `json:"frequency"`
	Alerted      bool      `json:"alerted"`
}
