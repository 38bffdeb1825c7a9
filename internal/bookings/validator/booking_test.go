package validator

import (
	"errors"
	"testing"

	"bizqueue/pkg/logger"
	"bizqueue/pkg/model"
)

func newTestValidator() *BookingValidator {
	return NewBookingValidator(logger.New(logger.Config{
		Level:     "info",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	}))
}

func validRequest() *model.BookingRequest {
	return &model.BookingRequest{
		BusinessID:  "64b000000000000000000001",
		ServiceID:   "64b000000000000000000002",
		Date:        "2026-05-01",
		Time:        "10:30",
		ClientName:  "Ivan",
		ClientPhone: "+79123456789",
	}
}

func TestBookingValidator_Validate(t *testing.T) {
	v := newTestValidator()

	tests := []struct {
		name      string
		mutate    func(r *model.BookingRequest)
		wantField string
	}{
		{name: "valid", mutate: func(r *model.BookingRequest) {}},
		{name: "valid with employee", mutate: func(r *model.BookingRequest) { r.EmployeeID = "64b000000000000000000003" }},
		{name: "missing business", mutate: func(r *model.BookingRequest) { r.BusinessID = "" }, wantField: "business_id"},
		{name: "bad service id", mutate: func(r *model.BookingRequest) { r.ServiceID = "svc-1" }, wantField: "service_id"},
		{name: "bad employee id", mutate: func(r *model.BookingRequest) { r.EmployeeID = "emp" }, wantField: "employee_id"},
		{name: "bad date", mutate: func(r *model.BookingRequest) { r.Date = "01.05.2026" }, wantField: "date"},
		{name: "impossible date", mutate: func(r *model.BookingRequest) { r.Date = "2026-02-30" }, wantField: "date"},
		{name: "non canonical time", mutate: func(r *model.BookingRequest) { r.Time = "9:30" }, wantField: "time"},
		{name: "out of range time", mutate: func(r *model.BookingRequest) { r.Time = "24:00" }, wantField: "time"},
		{name: "missing name", mutate: func(r *model.BookingRequest) { r.ClientName = "" }, wantField: "client_name"},
		{name: "short phone", mutate: func(r *model.BookingRequest) { r.ClientPhone = "+7" }, wantField: "client_phone"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(req)

			err := v.Validate(req)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("expected valid, got %v", err)
				}
				return
			}

			var verrs ValidationErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("expected ValidationErrors, got %v", err)
			}
			if verrs[0].Field != tt.wantField {
				t.Errorf("expected field %s, got %s", tt.wantField, verrs[0].Field)
			}
		})
	}
}
