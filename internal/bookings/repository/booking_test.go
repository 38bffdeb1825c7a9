package repository

import (
	"testing"
	"time"

	"bizqueue/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestBuildBusinessFilter(t *testing.T) {
	confirmed := model.BookingConfirmed

	tests := []struct {
		name   string
		filter model.BookingFilter
		want   bson.M
	}{
		{
			name:   "business only",
			filter: model.BookingFilter{},
			want:   bson.M{"business_id": "b1"},
		},
		{
			name:   "status and employee",
			filter: model.BookingFilter{Status: &confirmed, EmployeeID: "e1"},
			want:   bson.M{"business_id": "b1", "status": model.BookingConfirmed, "employee_id": "e1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := buildBusinessFilter("b1", tt.filter)
			if len(got) != len(tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("%s: expected %v, got %v", k, v, got[k])
				}
			}
		})
	}
}

func TestBuildSlotFilter_OnlyActiveStatuses(t *testing.T) {
	f := buildSlotFilter("b1", "e1", "2026-05-01", "10:30")

	in, ok := f["status"].(bson.M)["$in"].([]model.BookingStatus)
	if !ok {
		t.Fatalf("expected $in on status, got %v", f["status"])
	}
	if len(in) != 2 || in[0] != model.BookingPending || in[1] != model.BookingConfirmed {
		t.Errorf("unexpected active statuses: %v", in)
	}
	if f["slot_date"] != "2026-05-01" || f["slot_time"] != "10:30" || f["employee_id"] != "e1" {
		t.Errorf("unexpected slot filter: %v", f)
	}
}

func TestBuildTransitionUpdate(t *testing.T) {
	id := primitive.NewObjectID()
	at := time.Date(2026, 5, 1, 9, 0, 0, 123456789, time.UTC)

	filter, update := buildTransitionUpdate(id, model.BookingPending, model.BookingConfirmed, at)

	if filter["_id"] != id || filter["status"] != model.BookingPending {
		t.Errorf("filter must guard on current status, got %v", filter)
	}
	set := update["$set"].(bson.M)
	if set["status"] != model.BookingConfirmed {
		t.Errorf("expected confirmed, got %v", set["status"])
	}
	if got := set["updated_at"].(time.Time); !got.Equal(at.Truncate(time.Millisecond)) {
		t.Errorf("expected millisecond precision, got %v", got)
	}
}

func TestNewestSlotFirst(t *testing.T) {
	keys := []string{"slot_date", "slot_time", "_id"}
	for i, e := range newestSlotFirst {
		if e.Key != keys[i] || e.Value != -1 {
			t.Errorf("sort[%d] = %v, want %s desc", i, e, keys[i])
		}
	}
}
