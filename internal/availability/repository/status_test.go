package repository

import (
	"testing"
	"time"

	"bizqueue/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
)

func TestBuildUpsertFilter(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	zero := int64(0)
	three := int64(3)

	tests := []struct {
		name        string
		expected    *int64
		wantUpsert  bool
		wantVersion any
	}{
		{"last writer wins", nil, true, nil},
		{"expect fresh record", &zero, true, int64(0)},
		{"expect existing version", &three, false, int64(3)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filter, upsert := buildUpsertFilter("b1", StatusWrite{
				State:           model.StateBusy,
				At:              at,
				ExpectedVersion: tt.expected,
			})

			if upsert != tt.wantUpsert {
				t.Errorf("expected upsert=%v, got %v", tt.wantUpsert, upsert)
			}
			if filter["_id"] != "b1" {
				t.Errorf("expected _id filter, got %v", filter["_id"])
			}
			if got := filter["version"]; got != tt.wantVersion {
				t.Errorf("expected version filter %v, got %v", tt.wantVersion, got)
			}

			or, ok := filter["$or"].(bson.A)
			if !ok || len(or) != 2 {
				t.Fatalf("expected two-branch $or guard, got %v", filter["$or"])
			}
			lte := or[0].(bson.M)["updated_at"].(bson.M)["$lte"]
			if lte != at {
				t.Errorf("expected updated_at <= %v guard, got %v", at, lte)
			}
		})
	}
}
