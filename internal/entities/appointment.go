package entities

import "time"

type BookingRequest struct {
	AvailabilityID int `json:"availability_id"`
	DoctorID       int `json:"doctor_id"`
}

type AppointmentResponse struct {
	ID              int       `json:"id"`
	PatientID       int       `json:"patient_id"`
	DoctorID        int       `json:"doctor_id"`
	PatientName     string    `json:"patient_name"`
	DoctorName      string    `json:"doctor_name"`
	AppointmentTime time.Time `json:"appointment_time"`
	Status          string    `json:"status"`
	RoomID          string    `json:"room_id"`
	CreatedAt       time.Time `json:"created_at"`
}
