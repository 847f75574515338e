// Package report renders the HRD activity print report. The renderer is
// a pure function over (logs, title) so it can be tested without a
// browser or a database.
package report

import (
	"fmt"
	"time"
)

// Indonesian locale tables. The report is printed and signed on paper,
// so the wording has to match what the office expects.
var dayNames = map[time.Weekday]string{
	time.Sunday:    "Minggu",
	time.Monday:    "Senin",
	time.Tuesday:   "Selasa",
	time.Wednesday: "Rabu",
	time.Thursday:  "Kamis",
	time.Friday:    "Jumat",
	time.Saturday:  "Sabtu",
}

var monthNames = map[time.Month]string{
	time.January:   "Januari",
	time.February:  "Februari",
	time.March:     "Maret",
	time.April:     "April",
	time.May:       "Mei",
	time.June:      "Juni",
	time.July:      "Juli",
	time.August:    "Agustus",
	time.September: "September",
	time.October:   "Oktober",
	time.November:  "November",
	time.December:  "Desember",
}

// FormatReportDate renders a date as "Senin, 01 September 2025".
func FormatReportDate(t time.Time) string {
	return fmt.Sprintf("%s, %02d %s %d",
		dayNames[t.Weekday()], t.Day(), monthNames[t.Month()], t.Year())
}

// FormatClock renders a timestamp as "HH:MM:SS", or "-" when absent.
func FormatClock(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Format("15:04:05")
}

// FormatDuration renders the elapsed time between start and end as
// "N jam M menit" (or just "M menit" under an hour). Missing or
// inverted inputs render "-".
func FormatDuration(start, end *time.Time) string {
	if start == nil || end == nil || start.IsZero() || end.IsZero() {
		return "-"
	}
	d := end.Sub(*start)
	if d < 0 {
		return "-"
	}

	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	if hours > 0 {
		return fmt.Sprintf("%d jam %d menit", hours, minutes)
	}
	return fmt.Sprintf("%d menit", minutes)
}

// Lateness compares completion against the target. Returns "" unless
// both timestamps are present; an exact tie counts as on time.
func Lateness(target, completed *time.Time) string {
	if target == nil || completed == nil || target.IsZero() || completed.IsZero() {
		return ""
	}
	switch {
	case completed.After(*target):
		return "TERLAMBAT"
	case completed.Before(*target):
		return "LEBIH CEPAT"
	default:
		return "TEPAT WAKTU"
	}
}
