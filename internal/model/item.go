package model

import (
	"strings"
	"time"
)

// DateLayout is the form representation of an item's movement date.
const DateLayout = "2006-01-02"

// ItemFields are the mutable fields of an item, sent as the body of both
// create and full-replacement update.
type ItemFields struct {
	Item       string `json:"item"`
	Data       string `json:"data"`
	Origem     string `json:"origem"`
	Destino    string `json:"destino"`
	Servidor   string `json:"servidor"`
	Patrimonio string `json:"patrimonio"`
}

// Item is an equipment or material movement between two sectors.
type Item struct {
	ID ID `json:"id"`
	ItemFields
}

// NewItemFields returns an empty form with the movement date set to today.
func NewItemFields(now time.Time) ItemFields {
	return ItemFields{Data: now.Format(DateLayout)}
}

// Normalize trims every field and reduces the date to its YYYY-MM-DD part.
func (f *ItemFields) Normalize() {
	f.Item = strings.TrimSpace(f.Item)
	f.Data = DateOnly(strings.TrimSpace(f.Data))
	f.Origem = strings.TrimSpace(f.Origem)
	f.Destino = strings.TrimSpace(f.Destino)
	f.Servidor = strings.TrimSpace(f.Servidor)
	f.Patrimonio = strings.TrimSpace(f.Patrimonio)
}

// Validate reports every missing required field. The asset tag is optional.
func (f ItemFields) Validate() error {
	var missing []string
	check := func(name, value string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	check("item", f.Item)
	check("data", f.Data)
	check("origem", f.Origem)
	check("destino", f.Destino)
	check("servidor", f.Servidor)
	if len(missing) > 0 {
		return &ValidationError{Fields: missing}
	}
	if _, err := time.Parse(DateLayout, DateOnly(f.Data)); err != nil {
		return &ValidationError{Fields: []string{"data"}, Reason: "invalid date"}
	}
	return nil
}

// DateOnly returns the YYYY-MM-DD prefix of an ISO-8601 date or timestamp.
// Other values are returned unchanged.
func DateOnly(s string) string {
	if len(s) >= len(DateLayout) {
		if _, err := time.Parse(DateLayout, s[:len(DateLayout)]); err == nil {
			return s[:len(DateLayout)]
		}
	}
	return s
}

// DisplayDate formats the movement date as DD/MM/YYYY.
func (f ItemFields) DisplayDate() string {
	t, err := time.Parse(DateLayout, DateOnly(f.Data))
	if err != nil {
		return f.Data
	}
	return t.Format("02/01/2006")
}

// DisplayPatrimonio returns the asset tag or "-" when there is none.
func (f ItemFields) DisplayPatrimonio() string {
	if f.Patrimonio == "" {
		return "-"
	}
	return f.Patrimonio
}

// Key identifies a set of field values, so identical submissions can be
// recognised.
func (f ItemFields) Key() string {
	return strings.Join([]string{f.Item, f.Data, f.Origem, f.Destino, f.Servidor, f.Patrimonio}, "\x1f")
}
