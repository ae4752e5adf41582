package models

import "testing"

func TestChangeAction_Valid(t *testing.T) {
	tests := []struct {
		name   string
		action ChangeAction
		want   bool
	}{
		{"create is valid", ActionCreate, true},
		{"update is valid", ActionUpdate, true},
		{"delete is valid", ActionDelete, true},
		{"empty string is invalid", ChangeAction(""), false},
		{"unknown action is invalid", ChangeAction("rename"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.action.Valid(); got != tt.want {
				t.Errorf("ChangeAction(%q).Valid() = %v, want %v", tt.action, got, tt.want)
			}
		})
	}
}
