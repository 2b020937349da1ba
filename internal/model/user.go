package model

import (
	"encoding/json"
	"fmt"
	"net/mail"
	"strings"
)

// ID is a backend record identifier. The backend may send ids as JSON numbers
// or strings; the client only ever compares and echoes them.
type ID string

// UnmarshalJSON accepts a JSON string, number or null.
func (id *ID) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("decoding id: %w", err)
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("decoding id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

// User is the public view of an account. The password hash never leaves the
// backend.
type User struct {
	ID    ID     `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UserUpdate is the body of a self-service profile edit. An empty password is
// omitted so the backend keeps the current one.
type UserUpdate struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password,omitempty"`
}

// Normalize trims surrounding whitespace from name and email.
func (u *UserUpdate) Normalize() {
	u.Name = strings.TrimSpace(u.Name)
	u.Email = strings.TrimSpace(u.Email)
}

// Validate checks the required profile fields.
func (u UserUpdate) Validate() error {
	var missing []string
	if strings.TrimSpace(u.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(u.Email) == "" {
		missing = append(missing, "email")
	}
	if len(missing) > 0 {
		return &ValidationError{Fields: missing}
	}
	return ValidateEmail(u.Email)
}

// Key identifies a set of update values, so identical submissions can be
// recognised.
func (u UserUpdate) Key() string {
	return strings.Join([]string{u.Name, u.Email, u.Password}, "\x1f")
}

// Registration is the body of POST /auth/register.
type Registration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks that every registration field is present.
func (r Registration) Validate() error {
	var missing []string
	if strings.TrimSpace(r.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(r.Email) == "" {
		missing = append(missing, "email")
	}
	if r.Password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return &ValidationError{Fields: missing}
	}
	return ValidateEmail(r.Email)
}

// ValidateEmail accepts a bare address only. Display-name forms such as
// "Maria <maria@example.com>" are rejected.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return &ValidationError{Fields: []string{"email"}, Reason: "invalid email address"}
	}
	return nil
}
