package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"salonbook/models"
	"salonbook/utils"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const TypeAppointmentReminder = "reminder:appointment"

const defaultReminderLead = 2 * time.Hour

func NewReminderTask(payload models.ReminderPayload, fireAt time.Time) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeAppointmentReminder, b)
	opts := []asynq.Option{
		asynq.ProcessAt(fireAt),
		asynq.TaskID("reminder:" + payload.AppointmentID),
		asynq.MaxRetry(3),
	}
	return task, opts, nil
}

// Enqueuer is satisfied by *asynq.Client.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// ReminderScheduler enqueues a reminder ahead of each paid appointment.
type ReminderScheduler struct {
	client Enqueuer
	lead   time.Duration
	loc    *time.Location
	now    func() time.Time
	logger *zap.Logger
}

// NewReminderScheduler reads appointment times as wall-clock in loc; nil means UTC.
func NewReminderScheduler(client Enqueuer, lead time.Duration, loc *time.Location, logger *zap.Logger) *ReminderScheduler {
	if lead <= 0 {
		lead = defaultReminderLead
	}
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReminderScheduler{client: client, lead: lead, loc: loc, now: time.Now, logger: logger}
}

// ScheduleReminder enqueues the reminder; appointments too close to send
// one ahead of time are skipped.
func (s *ReminderScheduler) ScheduleReminder(ctx context.Context, userID, salonID string, appt models.Appointment) error {
	start, err := time.ParseInLocation(utils.DateLayout+" "+utils.ClockLayout, appt.Date+" "+appt.Time, s.loc)
	if err != nil {
		return fmt.Errorf("appointment %s has no usable start time: %w", appt.ID, err)
	}
	fireAt := start.Add(-s.lead)
	if !fireAt.After(s.now()) {
		s.logger.Debug("reminder skipped, appointment too soon", zap.String("appointmentId", appt.ID))
		return nil
	}

	payload := models.ReminderPayload{
		ReminderID:    uuid.New().String(),
		UserID:        userID,
		AppointmentID: appt.ID,
		SalonID:       salonID,
		Date:          appt.Date,
		Time:          appt.Time,
		FireDate:      fireAt.Format(time.RFC3339),
	}
	task, opts, err := NewReminderTask(payload, fireAt)
	if err != nil {
		return fmt.Errorf("failed to build reminder task: %w", err)
	}
	info, err := s.client.EnqueueContext(ctx, task, opts...)
	if err != nil {
		return fmt.Errorf("failed to enqueue reminder: %w", err)
	}
	s.logger.Info("reminder scheduled",
		zap.String("appointmentId", appt.ID),
		zap.String("taskId", info.ID),
		zap.Time("fireAt", fireAt))
	return nil
}
