package service

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telemed/internal/db"
	"telemed/internal/entities"
	apperr "telemed/internal/errors"
)

// fakeReminderRepo keeps reminders in memory and honours the alerted
// guards the SQL implementation applies.
type fakeReminderRepo struct {
	mu        sync.Mutex
	seq       int
	reminders map[int]*db.Reminder
	contacts  map[int]contact
	dueErr    error
}

type contact struct {
	name, email, phone string
}

func newFakeReminderRepo() *fakeReminderRepo {
	return &fakeReminderRepo{
		reminders: make(map[int]*db.Reminder),
		contacts:  make(map[int]contact),
	}
}

func (r *fakeReminderRepo) Create(rem *db.Reminder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	rem.ID = r.seq
	rem.CreatedAt = time.Now().UTC()
	cp := *rem
	r.reminders[rem.ID] = &cp
	return nil
}

func (r *fakeReminderRepo) ListByUser(userID int) ([]db.Reminder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []db.Reminder
	for _, rem := range r.reminders {
		if rem.UserID == userID {
			out = append(out, *rem)
		}
	}
	return out, nil
}

func (r *fakeReminderRepo) Delete(reminderID, userID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rem, ok := r.reminders[reminderID]
	if !ok || rem.UserID != userID {
		return apperr.ErrNotOwner
	}
	delete(r.reminders, reminderID)
	return nil
}

func (r *fakeReminderRepo) Due(now time.Time) ([]db.DueReminder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.dueErr != nil {
		return nil, r.dueErr
	}
	var due []db.DueReminder
	for _, rem := range r.reminders {
		if !rem.Alerted && !rem.ReminderTime.After(now) {
			c := r.contacts[rem.UserID]
			due = append(due, db.DueReminder{
				Reminder:  *rem,
				UserName:  c.name,
				UserEmail: c.email,
				UserPhone: c.phone,
			})
		}
	}
	return due, nil
}

func (r *fakeReminderRepo) MarkDelivered(reminderID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rem, ok := r.reminders[reminderID]; ok && !rem.Alerted {
		rem.Alerted = true
	}
	return nil
}

func (r *fakeReminderRepo) Advance(reminderID int, due time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rem, ok := r.reminders[reminderID]; ok && !rem.Alerted {
		rem.ReminderTime = due
	}
	return nil
}

func (r *fakeReminderRepo) add(userID int, email, frequency string, due time.Time) *db.Reminder {
	rem := &db.Reminder{
		UserID:       userID,
		MedicineName: "amoxicillin",
		ReminderTime: due,
		Frequency:    frequency,
	}
	r.Create(rem)
	r.contacts[userID] = contact{name: "pat", email: email, phone: "+391234567890"}
	return r.reminders[rem.ID]
}

func TestDeliverDueRemindersOnce(t *testing.T) {
	repo := newFakeReminderRepo()
	notifier := newFakeNotifier()
	svc := NewSchedulerService(repo, notifier)

	past := time.Now().UTC().Add(-time.Minute)
	rem := repo.add(10, "pat@example.com", "once", past)

	require.NoError(t, svc.DeliverDueReminders())
	assert.Equal(t, []string{"pat@example.com"}, notifier.emails)
	assert.True(t, repo.reminders[rem.ID].Alerted)

	// second tick finds nothing due
	require.NoError(t, svc.DeliverDueReminders())
	assert.Equal(t, 1, notifier.emailCount())
}

func TestDeliverDueRemindersRecurring(t *testing.T) {
	repo := newFakeReminderRepo()
	notifier := newFakeNotifier()
	svc := NewSchedulerService(repo, notifier)

	due := time.Now().UTC().Add(-time.Minute)
	daily := repo.add(10, "daily@example.com", "daily", due)
	weekly := repo.add(11, "weekly@example.com", "weekly", due)

	require.NoError(t, svc.DeliverDueReminders())
	assert.Equal(t, 2, notifier.emailCount())

	// recurring reminders stay live, moved one period forward
	assert.False(t, repo.reminders[daily.ID].Alerted)
	assert.Equal(t, due.Add(24*time.Hour), repo.reminders[daily.ID].ReminderTime)
	assert.False(t, repo.reminders[weekly.ID].Alerted)
	assert.Equal(t, due.Add(7*24*time.Hour), repo.reminders[weekly.ID].ReminderTime)

	// and are no longer due on the next tick
	require.NoError(t, svc.DeliverDueReminders())
	assert.Equal(t, 2, notifier.emailCount())
}

func TestDeliverDueRemindersNotYetDue(t *testing.T) {
	repo := newFakeReminderRepo()
	notifier := newFakeNotifier()
	svc := NewSchedulerService(repo, notifier)

	repo.add(10, "pat@example.com", "once", time.Now().UTC().Add(time.Hour))

	require.NoError(t, svc.DeliverDueReminders())
	assert.Equal(t, 0, notifier.emailCount())
}

func TestDeliverDueRemindersFailureIsolation(t *testing.T) {
	repo := newFakeReminderRepo()
	notifier := newFakeNotifier()
	svc := NewSchedulerService(repo, notifier)

	past := time.Now().UTC().Add(-time.Minute)
	broken := repo.add(10, "broken@example.com", "once", past)
	healthy := repo.add(11, "healthy@example.com", "once", past)
	notifier.failEmails["broken@example.com"] = errors.New("smtp down")

	// tick does not abort: the healthy reminder is delivered, the broken
	// one stays due
	require.NoError(t, svc.DeliverDueReminders())
	assert.Equal(t, []string{"healthy@example.com"}, notifier.emails)
	assert.False(t, repo.reminders[broken.ID].Alerted)
	assert.True(t, repo.reminders[healthy.ID].Alerted)

	// once the sender recovers, the broken one is retried
	delete(notifier.failEmails, "broken@example.com")
	require.NoError(t, svc.DeliverDueReminders())
	assert.Contains(t, notifier.emails, "broken@example.com")
	assert.True(t, repo.reminders[broken.ID].Alerted)
}

func TestDeliverDueRemindersScanError(t *testing.T) {
	repo := newFakeReminderRepo()
	repo.dueErr = errors.New("db gone")
	svc := NewSchedulerService(repo, newFakeNotifier())

	err := svc.DeliverDueReminders()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db gone")
}

func TestReminderCreateValidation(t *testing.T) {
	repo := newFakeReminderRepo()
	svc := NewReminderService(repo)
	due := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)

	_, err := svc.Create(10, entities.ReminderRequest{MedicineName: "  ", ReminderTime: due})
	require.Error(t, err)

	_, err = svc.Create(10, entities.ReminderRequest{MedicineName: "ibuprofen"})
	assert.ErrorIs(t, err, apperr.ErrInvalidRange)

	_, err = svc.Create(10, entities.ReminderRequest{MedicineName: "ibuprofen", ReminderTime: due, Frequency: "hourly"})
	require.Error(t, err)
}

func TestReminderCreateDefaultsFrequency(t *testing.T) {
	repo := newFakeReminderRepo()
	svc := NewReminderService(repo)
	due := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)

	rem, err := svc.Create(10, entities.ReminderRequest{MedicineName: "ibuprofen", ReminderTime: due})
	require.NoError(t, err)
	assert.Equal(t, "once", rem.Frequency)
	assert.Equal(t, due, rem.ReminderTime)

	err = svc.Delete(rem.ID, 99)
	assert.ErrorIs(t, err, apperr.ErrNotOwner)
	assert.NoError(t, svc.Delete(rem.ID, 10))
}
