package model

import (
	"errors"
	"testing"
	"time"
)

func validFields() ItemFields {
	return ItemFields{
		Item:     "Notebook Dell",
		Data:     "2024-01-10",
		Origem:   "TI",
		Destino:  "RH",
		Servidor: "Maria",
	}
}

func TestItemFieldsValidate(t *testing.T) {
	if err := validFields().Validate(); err != nil {
		t.Fatalf("expected valid fields, got %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*ItemFields)
		field  string
	}{
		{"missing item", func(f *ItemFields) { f.Item = "" }, "item"},
		{"blank origem", func(f *ItemFields) { f.Origem = "   " }, "origem"},
		{"missing destino", func(f *ItemFields) { f.Destino = "" }, "destino"},
		{"missing servidor", func(f *ItemFields) { f.Servidor = "" }, "servidor"},
		{"missing data", func(f *ItemFields) { f.Data = "" }, "data"},
		{"bad data", func(f *ItemFields) { f.Data = "10/01/2024" }, "data"},
	}

	for _, tt := range tests {
		f := validFields()
		tt.mutate(&f)
		err := f.Validate()
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("%s: expected ValidationError, got %v", tt.name, err)
			continue
		}
		if !verr.Has(tt.field) {
			t.Errorf("%s: expected field %q in %v", tt.name, tt.field, verr.Fields)
		}
	}
}

func TestPatrimonioOptional(t *testing.T) {
	f := validFields()
	f.Patrimonio = ""
	if err := f.Validate(); err != nil {
		t.Errorf("expected empty patrimonio to be valid, got %v", err)
	}
	if got := f.DisplayPatrimonio(); got != "-" {
		t.Errorf("DisplayPatrimonio() = %q, want %q", got, "-")
	}
}

func TestNormalize(t *testing.T) {
	f := ItemFields{
		Item:     "  Monitor  ",
		Data:     "2024-01-10T00:00:00.000Z",
		Origem:   " TI",
		Destino:  "RH ",
		Servidor: "Maria",
	}
	f.Normalize()

	if f.Item != "Monitor" || f.Origem != "TI" || f.Destino != "RH" {
		t.Errorf("expected trimmed fields, got %+v", f)
	}
	if f.Data != "2024-01-10" {
		t.Errorf("expected date-only data, got %q", f.Data)
	}
	if got := f.DisplayDate(); got != "10/01/2024" {
		t.Errorf("DisplayDate() = %q", got)
	}
}

func TestNewItemFieldsDefaultsToToday(t *testing.T) {
	now := time.Date(2024, 3, 5, 15, 0, 0, 0, time.UTC)
	if got := NewItemFields(now).Data; got != "2024-03-05" {
		t.Errorf("expected today's date, got %q", got)
	}
}
