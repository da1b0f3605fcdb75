package cron

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"salonbook/models"
	"salonbook/services/tasks"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

type fakeNotifier struct {
	sent []models.ReminderPayload
	err  error
}

func (f *fakeNotifier) SendReminder(_ context.Context, p models.ReminderPayload) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, p)
	return nil
}

func reminderTask(t *testing.T, p models.ReminderPayload) *asynq.Task {
	t.Helper()
	b, err := json.Marshal(p)
	if err != nil {
		t.Fatal(err)
	}
	return asynq.NewTask(tasks.TypeAppointmentReminder, b)
}

func TestHandleReminderTask(t *testing.T) {
	t.Parallel()

	n := &fakeNotifier{}
	h := HandleReminderTask(n, zap.NewNop())

	p := models.ReminderPayload{AppointmentID: "appt-1", UserID: "user-1", Date: "2025-03-12", Time: "10:00"}
	if err := h.ProcessTask(context.Background(), reminderTask(t, p)); err != nil {
		t.Fatalf("ProcessTask: %v", err)
	}
	if len(n.sent) != 1 || n.sent[0] != p {
		t.Fatalf("sent = %+v", n.sent)
	}
}

func TestHandleReminderTaskSkipsRetryOnBadPayload(t *testing.T) {
	t.Parallel()

	h := HandleReminderTask(&fakeNotifier{}, zap.NewNop())

	tests := map[string]*asynq.Task{
		"not json":       asynq.NewTask(tasks.TypeAppointmentReminder, []byte("{")),
		"no appointment": reminderTask(t, models.ReminderPayload{UserID: "user-1"}),
	}
	for name, task := range tests {
		if err := h.ProcessTask(context.Background(), task); !errors.Is(err, asynq.SkipRetry) {
			t.Errorf("%s: error = %v, want SkipRetry", name, err)
		}
	}
}

func TestHandleReminderTaskRetriesDeliveryFailure(t *testing.T) {
	t.Parallel()

	n := &fakeNotifier{err: errors.New("backend unavailable")}
	h := HandleReminderTask(n, zap.NewNop())

	err := h.ProcessTask(context.Background(), reminderTask(t, models.ReminderPayload{AppointmentID: "appt-1"}))
	if err == nil || errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("error = %v, want a retryable error", err)
	}
}
