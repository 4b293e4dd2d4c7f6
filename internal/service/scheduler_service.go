package service

import (
	"fmt"
	"log"
	"time"

	"telemed/internal/db"
	"telemed/internal/repository"
	"telemed/internal/utils"
)

// SchedulerService runs the medication reminder tick: scan due
// reminders, deliver each one, then mark one-shots delivered or advance
// recurring ones. The cron wiring in main guarantees ticks never
// overlap, so a slow tick is skipped rather than queued.
type SchedulerService struct {
	Repo     repository.ReminderRepository
	Notifier Notifier
}

func NewSchedulerService(repo repository.ReminderRepository, notifier Notifier) *SchedulerService {
	return &SchedulerService{Repo: repo, Notifier: notifier}
}

// DeliverDueReminders processes one tick. A delivery failure leaves that
// reminder due, so it is retried next tick; it never aborts the rest of
// the batch. Delivery is at-least-once: a crash between delivery and the
// state update may repeat a notification, never drop one.
func (s *SchedulerService) DeliverDueReminders() error {
	now := time.Now().UTC()
	due, err := s.Repo.Due(now)
	if err != nil {
		return fmt.Errorf("scheduler: scanning due reminders: %w", err)
	}
	if len(due) == 0 {
		return nil
	}
	log.Printf("scheduler: %d reminder(s) due", len(due))

	for _, rem := range due {
		if err := s.deliver(rem); err != nil {
			log.Printf("scheduler: delivery failed for reminder %d, will retry: %v", rem.ID, err)
			continue
		}
		if rem.Frequency == utils.FrequencyOnce {
			if err := s.Repo.MarkDelivered(rem.ID); err != nil {
				log.Printf("scheduler: marking reminder %d delivered: %v", rem.ID, err)
			}
			continue
		}
		// The new due time is old due + period, which is in the future
		// relative to this tick's now, so it cannot be re-selected here.
		if err := s.Repo.Advance(rem.ID, utils.NextDue(rem.ReminderTime, rem.Frequency)); err != nil {
			log.Printf("scheduler: advancing reminder %d: %v", rem.ID, err)
		}
	}
	return nil
}

func (s *SchedulerService) deliver(rem db.DueReminder) error {
	body := fmt.Sprintf("Time to take %s.", rem.MedicineName)
	if rem.Notes != "" {
		body += "\n" + rem.Notes
	}
	subject := fmt.Sprintf("Medication reminder: %s", rem.MedicineName)
	if err := s.Notifier.SendEmail(rem.UserEmail, rem.UserName, subject, body); err != nil {
		return err
	}
	// SMS is best effort on top of the email.
	if err := s.Notifier.SendSMS(rem.UserPhone, body); err != nil {
		log.Printf("scheduler: reminder %d SMS to %s failed: %v", rem.ID, rem.UserPhone, err)
	}
	return nil
}
