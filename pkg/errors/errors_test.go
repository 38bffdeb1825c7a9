package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestConstructors_CodeAndStatus(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		wantCode   string
		wantStatus int
	}{
		{"not found", NotFoundWithID("Booking", "b1"), CodeNotFound, http.StatusNotFound},
		{"validation", Validation("bad", nil), CodeValidation, http.StatusUnprocessableEntity},
		{"invalid input", InvalidInput("bad limit"), CodeInvalidInput, http.StatusBadRequest},
		{"invalid reference", InvalidReference("service", "s1"), CodeInvalidReference, http.StatusUnprocessableEntity},
		{"invalid transition", InvalidTransition("pending", "completed"), CodeInvalidTransition, http.StatusConflict},
		{"already cancelled", AlreadyCancelled("booking", "b1"), CodeAlreadyCancelled, http.StatusConflict},
		{"immutable", Immutable("booking", "b1"), CodeImmutable, http.StatusConflict},
		{"slot conflict", SlotConflict("taken"), CodeSlotConflict, http.StatusConflict},
		{"idempotency conflict", IdempotencyConflict("k"), CodeIdempotencyConflict, http.StatusConflict},
		{"unauthorized", Unauthorized("login"), CodeUnauthorized, http.StatusUnauthorized},
		{"forbidden", Forbidden("no"), CodeForbidden, http.StatusForbidden},
		{"conflict", Conflict("busy"), CodeConflict, http.StatusConflict},
		{"internal", Internal("boom", errors.New("db")), CodeInternal, http.StatusInternalServerError},
		{"timeout", Timeout("slow"), CodeTimeout, http.StatusGatewayTimeout},
		{"unavailable", Unavailable("storage"), CodeUnavailable, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.wantCode {
				t.Errorf("expected code %s, got %s", tt.wantCode, tt.err.Code)
			}
			if tt.err.StatusCode() != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, tt.err.StatusCode())
			}
		})
	}
}

func TestAppError_Error(t *testing.T) {
	plain := NotFound("Business")
	if got := plain.Error(); got != "NOT_FOUND: Business not found" {
		t.Errorf("Error() = %q", got)
	}

	cause := errors.New("connection reset")
	wrapped := Internal("Failed to read", cause)
	if got := wrapped.Error(); got != "INTERNAL_ERROR: Failed to read (caused by: connection reset)" {
		t.Errorf("Error() = %q", got)
	}
	if !errors.Is(wrapped, cause) {
		t.Error("wrapped AppError should unwrap to its cause")
	}
}

func TestAppError_Retryable(t *testing.T) {
	if !Unavailable("storage").Retryable() {
		t.Error("Unavailable should be retryable")
	}
	if !Timeout("discovery").Retryable() {
		t.Error("Timeout should be retryable")
	}
	if InvalidTransition("pending", "completed").Retryable() {
		t.Error("InvalidTransition should not be retryable")
	}
}

func TestAsAppError_FindsWrapped(t *testing.T) {
	appErr := AlreadyCancelled("booking", "b1")
	wrapped := fmt.Errorf("transaction failed: %w", appErr)

	if got := AsAppError(wrapped); got != appErr {
		t.Errorf("AsAppError() should find the wrapped AppError, got %v", got)
	}
	if !IsAppError(wrapped) {
		t.Error("IsAppError() should see through wrapping")
	}

	regular := errors.New("plain")
	got := AsAppError(regular)
	if got.Code != CodeInternal || got.Err != regular {
		t.Errorf("AsAppError() should wrap plain errors as internal, got %+v", got)
	}
}

func TestHasCode(t *testing.T) {
	err := fmt.Errorf("lookup: %w", NotFoundWithID("Service", "s1"))

	if !HasCode(err, CodeNotFound) {
		t.Error("HasCode should match wrapped NOT_FOUND")
	}
	if HasCode(err, CodeConflict) {
		t.Error("HasCode should not match a different code")
	}
	if HasCode(errors.New("plain"), CodeNotFound) {
		t.Error("HasCode should be false for plain errors")
	}
}

func TestAppError_ToJSON(t *testing.T) {
	data := Unavailable("storage").ToJSON()

	var resp ErrorResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		t.Fatalf("ToJSON() produced invalid JSON: %v", err)
	}
	if resp.Code != CodeUnavailable {
		t.Errorf("expected code %s, got %s", CodeUnavailable, resp.Code)
	}
	if !resp.Retryable {
		t.Error("expected retryable flag in the body")
	}
}
