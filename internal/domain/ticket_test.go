package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatDisplayNumber(t *testing.T) {
	assert.Equal(t, "REG-1", FormatDisplayNumber("REG", 1))
	assert.Equal(t, "PAY-42", FormatDisplayNumber("PAY", 42))
}

func TestDayOfTruncatesToMidnight(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Paris")
	require.NoError(t, err)

	at := time.Date(2026, 3, 10, 18, 45, 12, 0, loc)
	day := DayOf(at, loc)
	assert.Equal(t, time.Date(2026, 3, 10, 0, 0, 0, 0, loc), day)
	assert.Equal(t, "2026-03-10", DayKey(day))
}

func TestDayOfUsesConfiguredLocation(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Paris")
	require.NoError(t, err)

	// 23:30 UTC is already the next day in Paris.
	utcEvening := time.Date(2026, 3, 10, 23, 30, 0, 0, time.UTC)
	day := DayOf(utcEvening, loc)
	assert.Equal(t, "2026-03-11", DayKey(day))
}

func TestEligibleFor(t *testing.T) {
	attendant := Attendant{EligibleServices: []string{"REG", "PAY"}}
	assert.True(t, attendant.EligibleFor("REG"))
	assert.False(t, attendant.EligibleFor("INF"))

	none := Attendant{}
	assert.False(t, none.EligibleFor("REG"))
}

func TestValidAvailability(t *testing.T) {
	assert.True(t, ValidAvailability(AvailabilityAvailable))
	assert.True(t, ValidAvailability(AvailabilityBusy))
	assert.True(t, ValidAvailability(AvailabilityOffline))
	assert.False(t, ValidAvailability("NAPPING"))
	assert.False(t, ValidAvailability(""))
}

func TestMonthlyCountLabel(t *testing.T) {
	count := MonthlyCount{Year: 2026, Month: time.March, Count: 7}
	assert.Equal(t, "Mar 2026", count.Label())
}
