// Package engagement computes follow-up timing and stage transitions from a lead's
// interaction history. Everything here is pure apart from the clock and random source
// held by Engine.
package engagement

import (
	"time"

	"github.com/spmiller41/saleset-v2-sub000/internal/leads/domain"
)

const (
	noonMinutes    = 12 * 60
	eveningMinutes = 18 * 60
)

// Contact window for any scheduled follow-up.
var (
	windowOpen  = domain.ClockTime{Hour: 8}
	windowClose = domain.ClockTime{Hour: 20}
)

var peakHours = map[domain.Period]domain.ClockTime{
	domain.PeriodMorning:   {Hour: 10},
	domain.PeriodAfternoon: {Hour: 15},
	domain.PeriodEvening:   {Hour: 19},
}

// PeriodOf buckets the time of day of t: before noon is Morning, before 18:00 is
// Afternoon, anything later is Evening.
func PeriodOf(t time.Time) domain.Period {
	return periodOfClock(domain.ClockTimeOf(t))
}

func periodOfClock(c domain.ClockTime) domain.Period {
	m := c.Minutes()
	switch {
	case m < noonMinutes:
		return domain.PeriodMorning
	case m < eveningMinutes:
		return domain.PeriodAfternoon
	default:
		return domain.PeriodEvening
	}
}

// DayOf returns the weekday of t in t's location.
func DayOf(t time.Time) time.Weekday {
	return t.Weekday()
}

// RotatedPeriod picks the period to aim for after a follow-up sent at t. A morning
// send is followed up in the evening, an afternoon send in the morning and an evening
// send in the afternoon.
func RotatedPeriod(t time.Time) domain.Period {
	switch PeriodOf(t) {
	case domain.PeriodMorning:
		return domain.PeriodEvening
	case domain.PeriodAfternoon:
		return domain.PeriodMorning
	default:
		return domain.PeriodAfternoon
	}
}

// PeakHour is the anchor clock time for a period.
func PeakHour(p domain.Period) domain.ClockTime {
	if c, ok := peakHours[p]; ok {
		return c
	}
	return peakHours[domain.PeriodMorning]
}

// InWindow reports whether c falls inside the 08:00-20:00 contact window.
func InWindow(c domain.ClockTime) bool {
	m := c.Minutes()
	return m >= windowOpen.Minutes() && m <= windowClose.Minutes()
}

func clampToWindow(minutes int) domain.ClockTime {
	if minutes < windowOpen.Minutes() {
		return windowOpen
	}
	if minutes > windowClose.Minutes() {
		return windowClose
	}
	return domain.ClockTimeFromMinutes(minutes)
}
