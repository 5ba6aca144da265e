package attendance

import (
	"testing"
	"time"

	"github.com/staffsync/attendance-go/internal/domain/attendance"
	"github.com/stretchr/testify/assert"
)

func timePtr(t time.Time) *time.Time { return &t }

func TestDurationLabel_NotStartedIsZero(t *testing.T) {
	status := attendance.Status{}
	now := time.Date(2025, time.March, 10, 10, 0, 0, 0, time.UTC)

	assert.Equal(t, "00h 00m 00s", DurationLabel(status, now))
	assert.Equal(t, attendance.WorkDuration{}, DurationOf(status, now))
}

func TestDurationLabel_InProgressLiveFormat(t *testing.T) {
	punchIn := time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)
	status := attendance.Status{PunchIn: &punchIn}

	tests := []struct {
		name string
		now  time.Time
		want string
	}{
		{"just punched", punchIn, "00h 00m 00s"},
		{"nine seconds", punchIn.Add(9 * time.Second), "00h 00m 09s"},
		{"padded minutes", punchIn.Add(4*time.Minute + 9*time.Second), "00h 04m 09s"},
		{"over an hour", punchIn.Add(8*time.Hour + 4*time.Minute + 9*time.Second), "08h 04m 09s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DurationLabel(status, tt.now))
		})
	}
}

func TestDurationOf_MonotonicWhileInProgress(t *testing.T) {
	punchIn := time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)
	status := attendance.Status{PunchIn: &punchIn}

	prev := time.Duration(-1)
	for _, offset := range []time.Duration{0, time.Second, 59 * time.Second, time.Minute, time.Hour, 9 * time.Hour} {
		d := DurationOf(status, punchIn.Add(offset))
		total := time.Duration(d.Hours)*time.Hour + time.Duration(d.Minutes)*time.Minute + time.Duration(d.Seconds)*time.Second
		assert.GreaterOrEqual(t, total, prev, "duration went backwards at offset %s", offset)
		prev = total
	}
}

func TestDurationLabel_CompletedDropsSeconds(t *testing.T) {
	punchIn := time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)
	punchOut := time.Date(2025, time.March, 10, 17, 30, 0, 0, time.UTC)
	status := attendance.Status{PunchIn: &punchIn, PunchOut: &punchOut}

	// Coarser final format, no zero padding, no seconds component. The
	// clock having moved past punch out must not change the result.
	assert.Equal(t, "8h 30m", DurationLabel(status, punchOut.Add(3*time.Hour)))
}

func TestDurationBetween_ClampsClockSkew(t *testing.T) {
	later := time.Date(2025, time.March, 10, 10, 0, 0, 0, time.UTC)
	earlier := later.Add(-42 * time.Second)

	assert.Equal(t, attendance.WorkDuration{}, DurationBetween(later, earlier))
}

func TestDurationOf_CompletedIgnoresNow(t *testing.T) {
	punchIn := time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)
	punchOut := punchIn.Add(7*time.Hour + 45*time.Minute + 12*time.Second)
	status := attendance.Status{PunchIn: timePtr(punchIn), PunchOut: timePtr(punchOut)}

	d1 := DurationOf(status, punchOut)
	d2 := DurationOf(status, punchOut.Add(48*time.Hour))
	assert.Equal(t, d1, d2)
	assert.Equal(t, attendance.WorkDuration{Hours: 7, Minutes: 45, Seconds: 12}, d1)
}
