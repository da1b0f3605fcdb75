package recordsRepo

import (
	"context"

	"salonbook/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// FlowRecordRepository stores the outcome of finished booking flows.
type FlowRecordRepository interface {
	GetByFlowID(ctx context.Context, flowID string) (*models.FlowRecord, error)
	ListByUser(ctx context.Context, userID string, limit int64) ([]models.FlowRecord, error)
	RecordOutcome(ctx context.Context, record models.FlowRecord) error
}

type mongoRecordRepo struct {
	coll *mongo.Collection
}

// NewMongoRecordRepo returns a FlowRecordRepository backed by the given database.
func NewMongoRecordRepo(db *mongo.Database) (FlowRecordRepository, error) {
	r := &mongoRecordRepo{
		coll: db.Collection("flow_records"),
	}
	if err := r.ensureIndexes(); err != nil {
		return nil, err
	}
	return r, nil
}
