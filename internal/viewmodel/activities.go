package viewmodel

import (
	"time"

	"github.com/erazemk/materiais/internal/model"
)

// ActivityRow is an activity ready for display. Building one never fails.
type ActivityRow struct {
	Activity model.Activity
	Action   string
	User     string
	Label    string
	When     string
}

// Rows converts activities to display rows, keeping their order.
func Rows(activities []model.Activity) []ActivityRow {
	rows := make([]ActivityRow, 0, len(activities))
	for _, a := range activities {
		rows = append(rows, NewActivityRow(a))
	}
	return rows
}

// NewActivityRow renders one activity. Malformed details yield the fallback
// item label and an unreadable timestamp leaves When empty.
func NewActivityRow(a model.Activity) ActivityRow {
	row := ActivityRow{
		Activity: a,
		Action:   a.ActionLabel(),
		User:     a.UserName(),
		Label:    a.DetailsLabel(),
	}
	if ts, ok := a.CreatedAt.Time(); ok {
		row.When = ts.In(time.Local).Format("02/01/2006 15:04")
	}
	return row
}
