package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestValidationError(t *testing.T) {
	var ve ValidationError
	if ve.Err() != nil {
		t.Fatal("empty ValidationError.Err() should be nil")
	}

	ve.Add("patientId", "required")
	ve.Add("date", "required")

	err := fmt.Errorf("create appointment: %w", ve.Err())

	if !errors.Is(err, ErrValidation) {
		t.Errorf("errors.Is(err, ErrValidation) = false, want true")
	}

	var target *ValidationError
	if !errors.As(err, &target) {
		t.Fatal("errors.As(err, *ValidationError) = false")
	}
	if len(target.Errors) != 2 {
		t.Errorf("len(Errors) = %d, want 2", len(target.Errors))
	}
	if got := target.Error(); got != "validation error: patientId: required; date: required" {
		t.Errorf("Error() = %q", got)
	}
}

func TestAppointmentStatusTerminal(t *testing.T) {
	tests := []struct {
		status AppointmentStatus
		want   bool
	}{
		{StatusScheduled, false},
		{StatusCompleted, true},
		{StatusCanceled, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.Terminal(); got != tt.want {
				t.Errorf("Terminal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPatientBirthdayOn(t *testing.T) {
	tests := []struct {
		birth string
		date  string
		want  bool
	}{
		{"1990-03-10", "2025-03-10", true},
		{"1990-03-10", "2025-03-11", false},
		{"2000-02-29", "2024-02-29", true},
		{"", "2025-03-10", false},
		{"1990-3-10", "2025-03-10", false},
	}
	for _, tt := range tests {
		p := Patient{BirthDate: tt.birth}
		if got := p.BirthdayOn(tt.date); got != tt.want {
			t.Errorf("BirthdayOn(%q) with birth %q = %v, want %v", tt.date, tt.birth, got, tt.want)
		}
	}
}
