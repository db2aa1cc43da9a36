package srs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func TestInitialState(t *testing.T) {
	state := InitialState(now)

	assert.Equal(t, InitialEaseFactor, state.EaseFactor)
	assert.Equal(t, 0, state.Views)
	assert.Equal(t, now, state.LastReview)
	assert.Equal(t, now.AddDate(0, 0, 1), state.NextReview)
}

func TestNext_FailureResetsViews(t *testing.T) {
	cur := State{
		EaseFactor: 2.1,
		Views:      7,
		LastReview: now.AddDate(0, 0, -10),
		NextReview: now,
	}

	for quality := 0; quality < 3; quality++ {
		next := Next(quality, now, cur)

		assert.Equal(t, 0, next.Views, "quality %d", quality)
		assert.Equal(t, now.AddDate(0, 0, 1), next.NextReview, "quality %d", quality)
		assert.Equal(t, cur.EaseFactor, next.EaseFactor, "quality %d", quality)
	}
}

func TestNext_OutOfRangeQualityDegradesToFailure(t *testing.T) {
	cur := State{EaseFactor: 2.5, Views: 3, LastReview: now.AddDate(0, 0, -6), NextReview: now}

	for _, quality := range []int{-1, 6, 42} {
		next := Next(quality, now, cur)

		assert.Equal(t, 0, next.Views, "quality %d", quality)
		assert.Equal(t, now.AddDate(0, 0, 1), next.NextReview, "quality %d", quality)
	}
}

func TestNext_FirstSuccess(t *testing.T) {
	cur := State{EaseFactor: 2.5, Views: 0, LastReview: now, NextReview: now}

	for quality := 3; quality <= 5; quality++ {
		next := Next(quality, now, cur)

		assert.Equal(t, 1, next.Views, "quality %d", quality)
		assert.Equal(t, now.AddDate(0, 0, 1), next.NextReview, "quality %d", quality)
		assert.Equal(t, cur.EaseFactor, next.EaseFactor, "quality %d", quality)
	}
}

func TestNext_SecondSuccess(t *testing.T) {
	cur := State{EaseFactor: 1.7, Views: 1, LastReview: now, NextReview: now.AddDate(0, 0, 1)}

	next := Next(4, now, cur)

	assert.Equal(t, 2, next.Views)
	assert.Equal(t, now.AddDate(0, 0, 6), next.NextReview)
	assert.Equal(t, 1.7, next.EaseFactor, "ease factor untouched before the third success")
}

func TestNext_MatureEaseFactorNeverBelowFloor(t *testing.T) {
	cur := State{
		EaseFactor: MinEaseFactor,
		Views:      2,
		LastReview: now.AddDate(0, 0, -6),
		NextReview: now,
	}

	// quality 3 would push 1.3 down to 1.16 without the floor
	next := Next(3, now, cur)

	assert.Equal(t, MinEaseFactor, next.EaseFactor)
	assert.Equal(t, 3, next.Views)
}

func TestNext_MatureIntervalCapped(t *testing.T) {
	cur := State{
		EaseFactor: 2.5,
		Views:      10,
		LastReview: now.AddDate(0, 0, -300),
		NextReview: now,
	}

	next := Next(5, now, cur)

	assert.Equal(t, now.AddDate(0, 0, MaxIntervalDays), next.NextReview)
}

func TestNext_MatureInterval(t *testing.T) {
	// 6 days between last and next review, quality 4 keeps the ease factor
	// at 2.5, so the new interval is round(6 * 2.5) = 15 days.
	cur := State{
		EaseFactor: 2.5,
		Views:      2,
		LastReview: now.AddDate(0, 0, -6),
		NextReview: now,
	}

	next := Next(4, now, cur)

	assert.Equal(t, 2.5, next.EaseFactor)
	assert.Equal(t, 3, next.Views)
	assert.Equal(t, now.AddDate(0, 0, 15), next.NextReview)
}

// TestNext_Lifecycle walks a fresh review through three gradings the way the
// review service drives the scheduler, stamping LastReview after each call.
func TestNext_Lifecycle(t *testing.T) {
	state := InitialState(now)

	// First grading, quality EASY.
	state = Next(Easy.Quality(), now, state)
	state.LastReview = now
	assert.Equal(t, 1, state.Views)
	assert.Equal(t, now.AddDate(0, 0, 1), state.NextReview)
	assert.Equal(t, 2.5, state.EaseFactor)

	// Second grading a day later, quality EASY.
	day2 := now.AddDate(0, 0, 1)
	state = Next(Easy.Quality(), day2, state)
	state.LastReview = day2
	assert.Equal(t, 2, state.Views)
	assert.Equal(t, day2.AddDate(0, 0, 6), state.NextReview)
	assert.Equal(t, 2.5, state.EaseFactor)

	// Third grading six days later, quality MEDIUM: interval round(6*2.5).
	day8 := day2.AddDate(0, 0, 6)
	state = Next(Medium.Quality(), day8, state)
	assert.Equal(t, 3, state.Views)
	assert.Equal(t, 2.5, state.EaseFactor)
	assert.Equal(t, day8.AddDate(0, 0, 15), state.NextReview)
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"BLACKOUT": Blackout,
		"FAILED":   Failed,
		"CLOSE":    Close,
		"HARD":     Hard,
		"MEDIUM":   Medium,
		"EASY":     Easy,
	}

	for name, want := range cases {
		level, err := ParseLevel(name)
		require.NoError(t, err)
		assert.Equal(t, want, level)
		assert.Equal(t, name, level.String())
	}

	_, err := ParseLevel("IMPOSSIBLE")
	assert.Error(t, err)

	_, err = ParseLevel("easy")
	assert.Error(t, err, "labels are case sensitive")
}
