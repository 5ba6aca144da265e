// Package export renders a projected month as downloadable reports: a CSV
// for spreadsheets and a PDF calendar mirroring the home view's grid.
package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/staffsync/attendance-go/internal/domain/attendance"
)

// Summary aggregates a projected month.
type Summary struct {
	Present int
	Absent  int
	Future  int
}

// Summarize counts cell classifications for a month.
func Summarize(cal attendance.MonthCalendar) Summary {
	var s Summary
	for _, d := range cal.Days {
		switch d.Classification {
		case attendance.DayPresent:
			s.Present++
		case attendance.DayAbsent:
			s.Absent++
		case attendance.DayFuture:
			s.Future++
		}
	}
	return s
}

// WriteMonthCSV writes one row per day of the projected month.
func WriteMonthCSV(w io.Writer, cal attendance.MonthCalendar) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"date", "weekday", "status"}); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, d := range cal.Days {
		row := []string{d.Key, d.Date.Weekday().String(), string(d.Classification)}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write csv row for %s: %w", d.Key, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}
