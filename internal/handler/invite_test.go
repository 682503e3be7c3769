package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClampInt(t *testing.T) {
	// Zero and negatives mean "not specified" and yield the default.
	assert.Equal(t, 7, clampInt(0, 1, 30, 7))
	assert.Equal(t, 7, clampInt(-3, 1, 30, 7))

	assert.Equal(t, 1, clampInt(1, 1, 30, 7))
	assert.Equal(t, 14, clampInt(14, 1, 30, 7))
	assert.Equal(t, 30, clampInt(30, 1, 30, 7))
	assert.Equal(t, 30, clampInt(1000, 1, 30, 7))
}

func TestValidateTravelDates(t *testing.T) {
	s := func(v string) *string { return &v }

	assert.Empty(t, validateTravelDates(nil, nil))
	assert.Empty(t, validateTravelDates(s("2026-09-01"), nil))
	assert.Empty(t, validateTravelDates(nil, s("2026-09-10")))
	assert.Empty(t, validateTravelDates(s("2026-09-01"), s("2026-09-10")))
	assert.Empty(t, validateTravelDates(s("2026-09-01"), s("2026-09-01")), "one-day trips are fine")

	assert.NotEmpty(t, validateTravelDates(s("2026-09-10"), s("2026-09-01")), "end before start")
	assert.NotEmpty(t, validateTravelDates(s("01-09-2026"), nil), "wrong format")
	assert.NotEmpty(t, validateTravelDates(s("2026-13-40"), nil), "impossible date")
}

func TestDayAndClockValidation(t *testing.T) {
	assert.True(t, validDay("2026-09-01"))
	assert.False(t, validDay(""))
	assert.False(t, validDay("2026/09/01"))
	assert.False(t, validDay("2026-02-30"))

	assert.True(t, validClock("09:30"))
	assert.True(t, validClock("23:59"))
	assert.False(t, validClock("24:00"))
	assert.False(t, validClock("9:30am"))
}
