package service

import (
	"fmt"
	"strings"

	"telemed/internal/db"
	"telemed/internal/entities"
	apperr "telemed/internal/errors"
	"telemed/internal/repository"
	"telemed/internal/utils"
)

// ReminderService handles owner-facing reminder CRUD. The scheduler is
// the only other writer.
type ReminderService struct {
	Repo repository.ReminderRepository
}

func NewReminderService(repo repository.ReminderRepository) *ReminderService {
	return &ReminderService{Repo: repo}
}

func (s *ReminderService) Create(userID int, req entities.ReminderRequest) (*db.Reminder, error) {
	name := strings.TrimSpace(req.MedicineName)
	if name == "" {
		return nil, apperr.NewHTTPError(422, "medicine name is required")
	}
	if req.ReminderTime.IsZero() {
		return nil, apperr.ErrInvalidRange
	}
	frequency, ok := utils.ParseFrequency(req.Frequency)
	if !ok {
		return nil, apperr.NewHTTPError(422, "frequency must be once, daily or weekly")
	}

	rem := &db.Reminder{
		UserID:       userID,
		MedicineName: name,
		ReminderTime: req.ReminderTime.UTC(),
		Notes:        strings.TrimSpace(req.Notes),
		Frequency:    frequency,
	}
	if err := s.Repo.Create(rem); err != nil {
		return nil, fmt.Errorf("create reminder: %w", err)
	}
	return rem, nil
}

func (s *ReminderService) List(userID int) ([]entities.ReminderResponse, error) {
	reminders, err := s.Repo.ListByUser(userID)
	if err != nil {
		return nil, err
	}
	out := make([]entities.ReminderResponse, 0, len(reminders))
	for _, rem := range reminders {
		out = append(out, entities.ReminderResponse{
			ID:           rem.ID,
			MedicineName: rem.MedicineName,
			ReminderTime: rem.ReminderTime,
			Notes:        rem.Notes,
			Frequency:    rem.Frequency,
			Alerted:      rem.Alerted,
		})
	}
	return out, nil
}

func (s *ReminderService) Delete(reminderID, userID int) error {
	return s.Repo.Delete(reminderID, userID)
}
