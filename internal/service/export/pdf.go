package export

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"

	"github.com/staffsync/attendance-go/internal/domain/attendance"
)

var weekdayHeaders = []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// WriteMonthPDF renders the month as an A4 calendar grid with a summary
// line, in the style of the home view's attendance calendar.
func WriteMonthPDF(w io.Writer, cal attendance.MonthCalendar, employeeName string) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, fmt.Sprintf("Attendance Calendar - %s %d", cal.Month, cal.Year))
	pdf.Ln(10)

	if employeeName != "" {
		pdf.SetFont("Helvetica", "", 11)
		pdf.Cell(0, 7, "Employee: "+employeeName)
		pdf.Ln(9)
	}

	const cellW, cellH = 27.0, 12.0

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	for _, day := range weekdayHeaders {
		pdf.CellFormat(cellW, 8, day, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 10)
	col := 0
	for i := 0; i < cal.StartWeekday; i++ {
		pdf.CellFormat(cellW, cellH, "", "1", 0, "C", false, 0, "")
		col++
	}
	for _, d := range cal.Days {
		switch d.Classification {
		case attendance.DayPresent:
			pdf.SetFillColor(198, 239, 206)
		case attendance.DayAbsent:
			pdf.SetFillColor(255, 199, 206)
		default:
			pdf.SetFillColor(245, 245, 245)
		}
		label := fmt.Sprintf("%d %s", d.Date.Day(), markFor(d.Classification))
		pdf.CellFormat(cellW, cellH, label, "1", 0, "C", true, 0, "")
		col++
		if col == 7 {
			pdf.Ln(cellH)
			col = 0
		}
	}
	if col != 0 {
		for ; col < 7; col++ {
			pdf.CellFormat(cellW, cellH, "", "1", 0, "C", false, 0, "")
		}
		pdf.Ln(cellH)
	}

	sum := Summarize(cal)
	pdf.Ln(4)
	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 7, fmt.Sprintf("Present: %d    Absent: %d    Remaining: %d", sum.Present, sum.Absent, sum.Future))

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to render attendance pdf: %w", err)
	}
	return nil
}

func markFor(c attendance.DayClassification) string {
	switch c {
	case attendance.DayPresent:
		return "P"
	case attendance.DayAbsent:
		return "A"
	default:
		return "-"
	}
}
