// Package srs implements the spaced-repetition scheduler, an SM-2 variant.
// The scheduler is a pure function over a review State; persistence and
// authorization live in the services package.
package srs

import (
	"math"
	"time"
)

const (
	// InitialEaseFactor is assigned to every newly created review.
	InitialEaseFactor = 2.5

	// MinEaseFactor is the floor applied after each ease-factor update.
	MinEaseFactor = 1.3

	// MaxIntervalDays caps how far out a card can be scheduled.
	MaxIntervalDays = 365
)

// State is the per-(user, card) scheduling state.
type State struct {
	EaseFactor float64
	Views      int
	LastReview time.Time
	NextReview time.Time
}

// InitialState returns the state a review starts with: ease factor 2.5, no
// successful views, due again tomorrow.
func InitialState(now time.Time) State {
	return State{
		EaseFactor: InitialEaseFactor,
		Views:      0,
		LastReview: now,
		NextReview: now.AddDate(0, 0, 1),
	}
}

// Next computes the state after grading cur with the given quality at time
// now. Quality outside [0,5] degrades to 0 rather than erroring, so malformed
// input schedules the card as a total failure.
//
// Branch order matters: failure, first success and second success all return
// before the ease-factor formula runs, whatever the current ease factor is.
// Next reads cur.LastReview and cur.NextReview to size the interval of a
// mature card; it never writes LastReview, the caller stamps it when
// persisting.
func Next(quality int, now time.Time, cur State) State {
	if quality < 0 || quality > 5 {
		quality = 0
	}

	next := cur
	next.Views = cur.Views + 1

	// Failure resets the streak and forces the card back tomorrow.
	if quality < 3 {
		next.Views = 0
		next.NextReview = now.AddDate(0, 0, 1)
		return next
	}

	// Force the card to be seen a few times before intervals grow.
	if cur.Views == 0 {
		next.NextReview = now.AddDate(0, 0, 1)
		return next
	}
	if cur.Views == 1 {
		next.NextReview = now.AddDate(0, 0, 6)
		return next
	}

	ef := cur.EaseFactor + (0.1 - float64(5-quality)*(0.08+float64(5-quality)*0.02))
	if ef < MinEaseFactor {
		ef = MinEaseFactor
	}

	interval := int(math.Round(float64(daysBetween(cur.LastReview, cur.NextReview)) * ef))
	if interval > MaxIntervalDays {
		interval = MaxIntervalDays
	}

	next.EaseFactor = ef
	next.NextReview = now.AddDate(0, 0, interval)
	return next
}

// daysBetween returns the number of whole days from from to to.
func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}
