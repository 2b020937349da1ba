package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Activity actions.
const (
	ActionCreate = "CREATE"
	ActionUpdate = "UPDATE"
	ActionDelete = "DELETE"
)

// FallbackItemLabel is shown when an activity's details cannot be read.
const FallbackItemLabel = "Item"

// ErrMalformedDetails is returned by ParseDetails for unreadable payloads.
var ErrMalformedDetails = errors.New("malformed activity details")

// ActivityUser is the denormalized author of an activity.
type ActivityUser struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
}

// Activity is an append-only audit record produced by the backend whenever an
// item is created, updated or deleted.
type Activity struct {
	ID        ID              `json:"id"`
	Action    string          `json:"action"`
	User      *ActivityUser   `json:"user,omitempty"`
	Details   json.RawMessage `json:"details"`
	CreatedAt Timestamp       `json:"createdAt"`
}

// timestampLayouts are the timestamp formats a backend is known to send.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	DateLayout,
}

// Timestamp is a backend timestamp kept as sent. Decoding it never fails,
// so one odd record cannot break a whole activity list.
type Timestamp string

// UnmarshalJSON keeps a JSON string as is and the text of any other value.
func (t *Timestamp) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if string(b) == "null" {
		*t = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*t = Timestamp(s)
		return nil
	}
	*t = Timestamp(b)
	return nil
}

// Time parses the timestamp. Bare numbers are unix milliseconds. The second
// result is false when the value is empty or in no known format.
func (t Timestamp) Time() (time.Time, bool) {
	s := strings.TrimSpace(string(t))
	if s == "" {
		return time.Time{}, false
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms), true
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// ActivityDetails is the parsed details payload.
type ActivityDetails struct {
	ItemName string `json:"itemName"`
	ItemID   ID     `json:"itemId"`
}

// ParseDetails decodes an activity's details. The payload is usually a JSON
// string holding a serialized object, but a bare object is accepted too.
func ParseDetails(raw []byte) (ActivityDetails, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return ActivityDetails{}, fmt.Errorf("%w: %v", ErrMalformedDetails, err)
		}
		raw = bytes.TrimSpace([]byte(inner))
	}
	if len(raw) == 0 || raw[0] != '{' {
		return ActivityDetails{}, ErrMalformedDetails
	}

	var d ActivityDetails
	if err := json.Unmarshal(raw, &d); err != nil {
		return ActivityDetails{}, fmt.Errorf("%w: %v", ErrMalformedDetails, err)
	}
	return d, nil
}

// Label renders the details as "name (ID: id)".
func (d ActivityDetails) Label() string {
	name := d.ItemName
	if name == "" {
		name = FallbackItemLabel
	}
	id := d.ItemID.String()
	if id == "" {
		id = "?"
	}
	return fmt.Sprintf("%s (ID: %s)", name, id)
}

// DetailsLabel never fails: unreadable details yield FallbackItemLabel.
func (a Activity) DetailsLabel() string {
	d, err := ParseDetails(a.Details)
	if err != nil {
		return FallbackItemLabel
	}
	return d.Label()
}

// ActionLabel is the display name of the activity's action.
func (a Activity) ActionLabel() string {
	switch a.Action {
	case ActionCreate:
		return "Cadastro"
	case ActionUpdate:
		return "Edição"
	default:
		return "Exclusão"
	}
}

// UserName is the author's name, or a generic label when it is unknown.
func (a Activity) UserName() string {
	if a.User == nil || a.User.Name == "" {
		return "Usuário"
	}
	return a.User.Name
}
