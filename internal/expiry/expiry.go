// Package expiry buckets expiry dates into safe, warning and danger relative
// to the current day and renders the matching human text.
//
// Every function here is a pure function of its arguments: the current time is
// always passed in, never read from the clock.
package expiry

import (
	"fmt"
	"strings"
	"time"
)

// Status is the urgency bucket of an expiry date.
type Status string

const (
	StatusSafe    Status = "safe"
	StatusWarning Status = "warning"
	StatusDanger  Status = "danger"
)

const (
	DefaultDangerDays  = 3
	DefaultWarningDays = 7

	DateLayout = "2006-01-02"

	textNoExpiry   = "长期有效"
	textExpiredFmt = "已过期 %d 天"
	textDueToday   = "今日到期"
	textDueTomorow = "明日到期"
	textRemainFmt  = "剩余 %d 天"
	textUnknown    = "--"

	hoursPerDay = 24
)

var acceptedLayouts = []string{
	DateLayout,
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006/01/02",
}

// Thresholds are inclusive upper bounds in days remaining.
type Thresholds struct {
	DangerDays  int `yaml:"danger_days"`
	WarningDays int `yaml:"warning_days"`
}

// Default buckets with DefaultDangerDays and DefaultWarningDays.
var Default = Calculator{Thresholds: Thresholds{
	DangerDays:  DefaultDangerDays,
	WarningDays: DefaultWarningDays,
}}

// Calculator derives expiry statuses with a fixed set of thresholds.
type Calculator struct {
	Thresholds Thresholds
}

// NewCalculator returns a calculator for t. A negative DangerDays falls back
// to the default and WarningDays is raised to at least DangerDays.
func NewCalculator(t Thresholds) Calculator {
	if t.DangerDays < 0 {
		t.DangerDays = DefaultDangerDays
	}
	if t.WarningDays < t.DangerDays {
		t.WarningDays = t.DangerDays
	}
	return Calculator{Thresholds: t}
}

// Status buckets a date: already expired or within DangerDays is danger,
// within WarningDays is warning, anything later is safe. An empty or
// unparseable date is treated as non-expiring.
func (c Calculator) Status(date string, now time.Time) Status {
	days, ok := DaysRemaining(date, now)
	if !ok {
		return StatusSafe
	}
	switch {
	case days < 0, days <= c.Thresholds.DangerDays:
		return StatusDanger
	case days <= c.Thresholds.WarningDays:
		return StatusWarning
	default:
		return StatusSafe
	}
}

// IsExpiringSoon reports whether date is warning or danger.
func (c Calculator) IsExpiringSoon(date string, now time.Time) bool {
	return c.Status(date, now) != StatusSafe
}

// StatusOf is Status with the default thresholds.
func StatusOf(date string, now time.Time) Status {
	return Default.Status(date, now)
}

func IsExpiringSoon(date string, now time.Time) bool {
	return Default.IsExpiringSoon(date, now)
}

// IsExpired reports whether date lies before the current day.
func IsExpired(date string, now time.Time) bool {
	days, ok := DaysRemaining(date, now)
	return ok && days < 0
}

// Text renders the remaining time of date in words.
func Text(date string, now time.Time) string {
	if strings.TrimSpace(date) == "" {
		return textNoExpiry
	}
	days, ok := DaysRemaining(date, now)
	if !ok {
		return textUnknown
	}
	switch {
	case days < 0:
		return fmt.Sprintf(textExpiredFmt, -days)
	case days == 0:
		return textDueToday
	case days == 1:
		return textDueTomorow
	default:
		return fmt.Sprintf(textRemainFmt, days)
	}
}

// DaysRemaining returns the number of calendar days between the local
// midnight of now and the local midnight of date. Time of day on either side
// never shifts the result.
func DaysRemaining(date string, now time.Time) (int, bool) {
	target, ok := Parse(date, now.Location())
	if !ok {
		return 0, false
	}
	return dayDiff(now, target), true
}

// Parse reads date in any accepted layout. Date-only values are interpreted
// in loc; timestamps carrying a zone are converted to loc.
func Parse(date string, loc *time.Location) (time.Time, bool) {
	date = strings.TrimSpace(date)
	if date == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range acceptedLayouts {
		t, err := time.ParseInLocation(layout, date, loc)
		if err == nil {
			return t.In(loc), true
		}
	}
	return time.Time{}, false
}

// DateAfter returns now plus days, formatted as a date.
func DateAfter(days int, now time.Time) string {
	return now.AddDate(0, 0, days).Format(DateLayout)
}

// dayDiff counts calendar days from a to b. Both are projected onto UTC
// dates so daylight-saving transitions cannot produce fractional days.
func dayDiff(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	ua := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	ub := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / hoursPerDay)
}
