package expiry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var shanghai = time.FixedZone("CST", 8*3600)

func fixedNow() time.Time {
	return time.Date(2025, time.June, 10, 15, 30, 0, 0, shanghai)
}

func daysOut(now time.Time, days int) string {
	return now.AddDate(0, 0, days).Format(DateLayout)
}

func TestStatusBuckets(t *testing.T) {
	now := fixedNow()

	for days := -30; days <= 30; days++ {
		got := StatusOf(daysOut(now, days), now)
		switch {
		case days <= 3:
			assert.Equal(t, StatusDanger, got, "days=%d", days)
		case days <= 7:
			assert.Equal(t, StatusWarning, got, "days=%d", days)
		default:
			assert.Equal(t, StatusSafe, got, "days=%d", days)
		}
	}
}

func TestStatusWithoutDateIsSafe(t *testing.T) {
	now := fixedNow()
	assert.Equal(t, StatusSafe, StatusOf("", now))
	assert.Equal(t, StatusSafe, StatusOf("   ", now))
	assert.Equal(t, StatusSafe, StatusOf("not-a-date", now))
}

func TestDaysRemainingIgnoresTimeOfDay(t *testing.T) {
	lateEvening := time.Date(2025, time.June, 10, 23, 59, 0, 0, shanghai)
	earlyMorning := time.Date(2025, time.June, 10, 0, 1, 0, 0, shanghai)

	for _, now := range []time.Time{lateEvening, earlyMorning} {
		days, ok := DaysRemaining("2025-06-11", now)
		require.True(t, ok)
		assert.Equal(t, 1, days)

		days, ok = DaysRemaining("2025-06-11T00:00:01+08:00", now)
		require.True(t, ok)
		assert.Equal(t, 1, days)
	}
}

func TestDaysRemainingConvertsZones(t *testing.T) {
	now := fixedNow()
	// 2025-06-10T20:00Z is 2025-06-11 04:00 in Shanghai.
	days, ok := DaysRemaining("2025-06-10T20:00:00Z", now)
	require.True(t, ok)
	assert.Equal(t, 1, days)
}

func TestDaysRemainingAcrossDST(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("tzdata unavailable")
	}
	now := time.Date(2025, time.March, 8, 12, 0, 0, 0, ny)
	days, ok := DaysRemaining("2025-03-10", now)
	require.True(t, ok)
	assert.Equal(t, 2, days)
}

func TestText(t *testing.T) {
	now := fixedNow()

	tests := []struct {
		name string
		date string
		want string
	}{
		{"no expiry", "", "长期有效"},
		{"due today", daysOut(now, 0), "今日到期"},
		{"due tomorrow", daysOut(now, 1), "明日到期"},
		{"ten days out", daysOut(now, 10), "剩余 10 天"},
		{"expired", daysOut(now, -4), "已过期 4 天"},
		{"garbage", "soon", "--"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Text(tt.date, now))
		})
	}
}

func TestCustomThresholds(t *testing.T) {
	now := fixedNow()
	calc := NewCalculator(Thresholds{DangerDays: 1, WarningDays: 14})

	assert.Equal(t, StatusDanger, calc.Status(daysOut(now, 1), now))
	assert.Equal(t, StatusWarning, calc.Status(daysOut(now, 2), now))
	assert.Equal(t, StatusWarning, calc.Status(daysOut(now, 14), now))
	assert.Equal(t, StatusSafe, calc.Status(daysOut(now, 15), now))
}

func TestNewCalculatorRepairsInvertedThresholds(t *testing.T) {
	calc := NewCalculator(Thresholds{DangerDays: 5, WarningDays: 2})
	assert.Equal(t, 5, calc.Thresholds.WarningDays)
}

func TestExpiredAndExpiringSoon(t *testing.T) {
	now := fixedNow()
	assert.True(t, IsExpired(daysOut(now, -1), now))
	assert.False(t, IsExpired(daysOut(now, 0), now))
	assert.False(t, IsExpired("", now))

	assert.True(t, IsExpiringSoon(daysOut(now, 6), now))
	assert.False(t, IsExpiringSoon(daysOut(now, 8), now))
}

func TestDateAfter(t *testing.T) {
	now := fixedNow()
	assert.Equal(t, "2025-06-17", DateAfter(7, now))
	assert.Equal(t, StatusWarning, StatusOf(DateAfter(7, now), now))
}
