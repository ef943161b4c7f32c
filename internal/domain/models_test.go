package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMonthKeyUsesUTC(t *testing.T) {
	// 02:30 on Sep 1 in UTC+6 is still Aug 31 in UTC, and the
	// partition key is derived from UTC.
	almaty := time.FixedZone("UTC+6", 6*3600)
	local := time.Date(2026, 9, 1, 2, 30, 0, 0, almaty)
	assert.Equal(t, "2026-08", MonthKey(local))

	assert.Equal(t, "2026-08", MonthKey(time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)))
}

func TestSummaryFree(t *testing.T) {
	s := Summary{Income: 300000, Expense: 120000}
	assert.Equal(t, 180000.0, s.Free())

	assert.Equal(t, -500.0, Summary{Expense: 500}.Free())
}

func TestUserTracks(t *testing.T) {
	u := User{Tracked: []string{"USD", "RUB"}}
	assert.True(t, u.Tracks("USD"))
	assert.False(t, u.Tracks("EUR"))
	assert.False(t, User{}.Tracks("USD"))
}
