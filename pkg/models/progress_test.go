package models

import "testing"

func TestStepStatus_Valid(t *testing.T) {
	tests := []struct {
		name   string
		status StepStatus
		want   bool
	}{
		{"pending is valid", StepPending, true},
		{"running is valid", StepRunning, true},
		{"completed is valid", StepCompleted, true},
		{"failed is valid", StepFailed, true},
		{"empty string is invalid", StepStatus(""), false},
		{"unknown status is invalid", StepStatus("paused"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.status.Valid(); got != tt.want {
				t.Errorf("StepStatus(%q).Valid() = %v, want %v", tt.status, got, tt.want)
			}
		})
	}
}

func TestStepStatus_StringValues(t *testing.T) {
	tests := []struct {
		status StepStatus
		want   string
	}{
		{StepPending, "pending"},
		{StepRunning, "running"},
		{StepCompleted, "completed"},
		{StepFailed, "failed"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := string(tt.status); got != tt.want {
				t.Errorf("string(StepStatus) = %q, want %q", got, tt.want)
			}
		})
	}
}
