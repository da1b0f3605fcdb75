package recordsRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"salonbook/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrRecordNotFound is returned when no record matches.
var ErrRecordNotFound = errors.New("record not found")

const maxListLimit = 100

// RecordOutcome stores the outcome of a finished flow. A flow has one record:
// a flow that failed and was later retried overwrites its earlier outcome.
func (r *mongoRecordRepo) RecordOutcome(ctx context.Context, record models.FlowRecord) error {
	if record.FlowID == "" {
		return errors.New("flow record without flow id")
	}
	filter, update := outcomeUpsert(record, time.Now())
	if _, err := r.coll.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true)); err != nil {
		return fmt.Errorf("failed to record flow outcome: %w", err)
	}
	return nil
}

// outcomeUpsert builds the upsert for a record. The id and createdAt of the
// first write are kept.
func outcomeUpsert(record models.FlowRecord, now time.Time) (filter, update bson.M) {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	if record.UpdatedAt.IsZero() {
		record.UpdatedAt = record.CreatedAt
	}
	filter = bson.M{"flowId": record.FlowID}
	update = bson.M{
		"$set": bson.M{
			"userId":        record.UserID,
			"salonId":       record.SalonID,
			"appointmentId": record.AppointmentID,
			"serviceIds":    record.ServiceIDs,
			"staffId":       record.StaffID,
			"date":          record.Date,
			"time":          record.Time,
			"amount":        record.Amount,
			"outcome":       record.Outcome,
			"errorKind":     record.ErrorKind,
			"message":       record.Message,
			"updatedAt":     record.UpdatedAt,
		},
		"$setOnInsert": bson.M{
			"id":        record.ID,
			"createdAt": record.CreatedAt,
		},
	}
	return filter, update
}

// GetByFlowID returns the record of a flow.
func (r *mongoRecordRepo) GetByFlowID(ctx context.Context, flowID string) (*models.FlowRecord, error) {
	var record models.FlowRecord
	err := r.coll.FindOne(ctx, bson.M{"flowId": flowID}).Decode(&record)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// ListByUser returns a user's most recently finished flows first.
func (r *mongoRecordRepo) ListByUser(ctx context.Context, userID string, limit int64) ([]models.FlowRecord, error) {
	if limit <= 0 || limit > maxListLimit {
		limit = maxListLimit
	}
	opts := options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}}).SetLimit(limit)
	cursor, err := r.coll.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	records := []models.FlowRecord{}
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}
