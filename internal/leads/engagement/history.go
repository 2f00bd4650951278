package engagement

import (
	"time"

	"github.com/spmiller41/saleset-v2-sub000/internal/leads/domain"
)

// WithinDays keeps events created no earlier than days before now.
func WithinDays(events []domain.Event, now time.Time, days int) []domain.Event {
	cutoff := now.AddDate(0, 0, -days)
	return filter(events, func(e domain.Event) bool {
		return !e.CreatedAt.Before(cutoff)
	})
}

// OnDay keeps events recorded on the given weekday.
func OnDay(events []domain.Event, day time.Weekday) []domain.Event {
	return filter(events, func(e domain.Event) bool {
		return e.DayOfWeek == day
	})
}

// InPeriod keeps events recorded during the given period.
func InPeriod(events []domain.Event, period domain.Period) []domain.Event {
	return filter(events, func(e domain.Event) bool {
		return e.Period == period
	})
}

// NotInPeriod keeps events recorded outside the given period.
func NotInPeriod(events []domain.Event, period domain.Period) []domain.Event {
	return filter(events, func(e domain.Event) bool {
		return e.Period != period
	})
}

func filter(events []domain.Event, keep func(domain.Event) bool) []domain.Event {
	out := make([]domain.Event, 0, len(events))
	for _, e := range events {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}
