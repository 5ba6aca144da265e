package attendance

import (
	"time"

	"github.com/staffsync/attendance-go/internal/domain/attendance"
)

// ProjectMonth maps one month onto ordered day cells. month is 1-based
// (time.Month). Every day from 1 to the last day of the month gets a cell;
// the last day is found as day 0 of the following month. Classification and
// all comparisons run on canonical local date keys so history entries and
// "today" line up regardless of the viewer's offset from the server.
func ProjectMonth(year int, month time.Month, today time.Time, byDate map[string]bool, loc *time.Location) attendance.MonthCalendar {
	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	last := time.Date(year, month+1, 0, 0, 0, 0, 0, loc)
	todayKey := DateKey(today, loc)

	days := make([]attendance.DayCell, 0, last.Day())
	for d := 1; d <= last.Day(); d++ {
		date := time.Date(year, month, d, 0, 0, 0, 0, loc)
		key := DateKey(date, loc)
		days = append(days, attendance.DayCell{
			Date:           date,
			Key:            key,
			Classification: classifyDay(key, todayKey, byDate),
		})
	}

	return attendance.MonthCalendar{
		Year:         year,
		Month:        month,
		Days:         days,
		StartWeekday: int(first.Weekday()),
	}
}

// classifyDay applies the cell rule: future days win over any map entry,
// then present if the map says so, otherwise absent.
func classifyDay(key, todayKey string, byDate map[string]bool) attendance.DayClassification {
	switch {
	case key > todayKey:
		return attendance.DayFuture
	case byDate[key]:
		return attendance.DayPresent
	default:
		return attendance.DayAbsent
	}
}
