package validator

import (
	"errors"
	"testing"

	"bizqueue/pkg/logger"
	"bizqueue/pkg/model"
)

func intPtr(v int) *int { return &v }

func TestStatusValidator(t *testing.T) {
	v := NewStatusValidator(logger.New(logger.Config{
		Level:     "info",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	}))

	tests := []struct {
		name      string
		update    model.StatusUpdate
		wantField string
	}{
		{
			name:   "valid",
			update: model.StatusUpdate{State: "busy", WaitMinutes: intPtr(15), QueueCount: intPtr(3)},
		},
		{
			name:   "zeroes are valid",
			update: model.StatusUpdate{State: "closed", WaitMinutes: intPtr(0), QueueCount: intPtr(0)},
		},
		{
			name:      "unknown state",
			update:    model.StatusUpdate{State: "BUSY", WaitMinutes: intPtr(1), QueueCount: intPtr(1)},
			wantField: "state",
		},
		{
			name:      "negative wait",
			update:    model.StatusUpdate{State: "busy", WaitMinutes: intPtr(-1), QueueCount: intPtr(1)},
			wantField: "wait_minutes",
		},
		{
			name:      "missing queue",
			update:    model.StatusUpdate{State: "busy", WaitMinutes: intPtr(1)},
			wantField: "queue_count",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(&tt.update)
			if tt.wantField == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}

			var verrs ValidationErrors
			if !errors.As(err, &verrs) || len(verrs) == 0 {
				t.Fatalf("expected validation errors, got %v", err)
			}
			if verrs[0].Field != tt.wantField {
				t.Errorf("expected field %s, got %s", tt.wantField, verrs[0].Field)
			}
		})
	}
}
