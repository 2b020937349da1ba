package model

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestIDUnmarshal(t *testing.T) {
	tests := []struct {
		input string
		want  ID
	}{
		{`"abc"`, "abc"},
		{`42`, "42"},
		{`"7"`, "7"},
		{`null`, ""},
	}

	for _, tt := range tests {
		var id ID
		if err := json.Unmarshal([]byte(tt.input), &id); err != nil {
			t.Errorf("Unmarshal(%s): %v", tt.input, err)
			continue
		}
		if id != tt.want {
			t.Errorf("Unmarshal(%s) = %q, want %q", tt.input, id, tt.want)
		}
	}

	var id ID
	if err := json.Unmarshal([]byte(`{}`), &id); err == nil {
		t.Error("expected error for object id")
	}
}

func TestUserUpdateValidate(t *testing.T) {
	tests := []struct {
		name    string
		update  UserUpdate
		wantErr bool
	}{
		{"valid without password", UserUpdate{Name: "Maria", Email: "maria@example.com"}, false},
		{"valid with password", UserUpdate{Name: "Maria", Email: "maria@example.com", Password: "secret"}, false},
		{"missing name", UserUpdate{Email: "maria@example.com"}, true},
		{"blank email", UserUpdate{Name: "Maria", Email: "  "}, true},
		{"bad email", UserUpdate{Name: "Maria", Email: "not-an-email"}, true},
		{"display name", UserUpdate{Name: "Maria", Email: "Maria <maria@example.com>"}, true},
		{"angle brackets", UserUpdate{Name: "Maria", Email: "<maria@example.com>"}, true},
		{"padded", UserUpdate{Name: "Maria", Email: " maria@example.com "}, false},
	}

	for _, tt := range tests {
		err := tt.update.Validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: Validate() error = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, ErrValidation) {
			t.Errorf("%s: expected ErrValidation, got %v", tt.name, err)
		}
	}
}

func TestUserUpdateOmitsEmptyPassword(t *testing.T) {
	body, _ := json.Marshal(UserUpdate{Name: "Maria", Email: "maria@example.com"})

	var fields map[string]any
	json.Unmarshal(body, &fields)
	if _, ok := fields["password"]; ok {
		t.Errorf("expected password to be omitted, got %s", body)
	}
}

func TestRegistrationValidate(t *testing.T) {
	err := Registration{Name: "Maria"}.Validate()
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if !verr.Has("email") || !verr.Has("password") {
		t.Errorf("expected email and password to be missing, got %v", verr.Fields)
	}

	if err := (Registration{Name: "Maria", Email: "maria@example.com", Password: "x"}).Validate(); err != nil {
		t.Errorf("expected valid registration, got %v", err)
	}
}

func TestRegistrationRejectsDisplayName(t *testing.T) {
	err := Registration{Name: "Maria", Email: "Maria <maria@example.com>", Password: "x"}.Validate()
	if !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for display-name address, got %v", err)
	}
}
