package recordsRepo

import (
	"testing"
	"time"

	"salonbook/models"

	"go.mongodb.org/mongo-driver/bson"
)

func TestOutcomeUpsertKeysOnFlow(t *testing.T) {
	t.Parallel()

	failedAt := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	failed := models.FlowRecord{
		ID: "rec-1", FlowID: "flow-1", UserID: "user-1", Outcome: "failed",
		ErrorKind: "network", Message: "could not reach the booking service",
		CreatedAt: failedAt, UpdatedAt: failedAt,
	}
	completed := models.FlowRecord{
		ID: "rec-2", FlowID: "flow-1", UserID: "user-1", Outcome: "completed",
		AppointmentID: "appt-1", Amount: 800,
		CreatedAt: failedAt.Add(time.Minute), UpdatedAt: failedAt.Add(time.Minute),
	}

	f1, _ := outcomeUpsert(failed, failedAt)
	f2, u2 := outcomeUpsert(completed, failedAt)
	if f1["flowId"] != "flow-1" || f2["flowId"] != "flow-1" || len(f2) != 1 {
		t.Fatalf("filters = %v, %v; want both keyed on flowId only", f1, f2)
	}

	set := u2["$set"].(bson.M)
	if set["outcome"] != "completed" || set["appointmentId"] != "appt-1" || set["amount"] != 800.0 {
		t.Fatalf("$set = %v", set)
	}
	// a retried flow must clear the error of its earlier failure
	if set["errorKind"] != "" || set["message"] != "" {
		t.Fatalf("error fields not overwritten: %v", set)
	}
	if set["updatedAt"] != completed.UpdatedAt {
		t.Fatalf("updatedAt = %v", set["updatedAt"])
	}
	for _, k := range []string{"id", "createdAt"} {
		if _, ok := set[k]; ok {
			t.Fatalf("%s must only be written on insert", k)
		}
	}
	onInsert := u2["$setOnInsert"].(bson.M)
	if onInsert["id"] != "rec-2" || onInsert["createdAt"] != completed.CreatedAt {
		t.Fatalf("$setOnInsert = %v", onInsert)
	}
}

func TestOutcomeUpsertDefaults(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	_, u := outcomeUpsert(models.FlowRecord{FlowID: "flow-1", Outcome: "completed"}, now)
	onInsert := u["$setOnInsert"].(bson.M)
	if id, _ := onInsert["id"].(string); id == "" {
		t.Fatal("no id generated")
	}
	if onInsert["createdAt"] != now || u["$set"].(bson.M)["updatedAt"] != now {
		t.Fatalf("timestamps = %v / %v", onInsert["createdAt"], u["$set"].(bson.M)["updatedAt"])
	}
}
