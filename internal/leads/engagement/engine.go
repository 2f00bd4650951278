package engagement

import (
	"math/rand/v2"
	"time"

	"github.com/spmiller41/saleset-v2-sub000/internal/leads/domain"
	"github.com/spmiller41/saleset-v2-sub000/platform/config"
)

const (
	// recentDays is the fallback history window when no event matches the target weekday.
	recentDays = 7

	closestJitterMinutes = 60
	peakJitterMinutes    = 120
)

// Rand is the random source used for jitter. *rand.Rand satisfies it.
type Rand interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithRand overrides the jitter source.
func WithRand(r Rand) Option {
	return func(e *Engine) { e.rng = r }
}

// Engine decides when a lead is contacted next and which stage it is in.
type Engine struct {
	now func() time.Time
	rng Rand
	loc *time.Location
}

// NewEngine creates an Engine that schedules in loc.
func NewEngine(loc *time.Location, opts ...Option) *Engine {
	if loc == nil {
		loc = time.UTC
	}
	e := &Engine{now: time.Now, rng: globalRand{}, loc: loc}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Now returns the engine clock in the scheduling time zone.
func (e *Engine) Now() time.Time {
	return e.now().In(e.loc)
}

// FollowUpTime picks the time of day for the follow-up on targetDate. It prefers the
// time of past interactions on the same weekday (or, failing that, the last week) that
// lies closest to the peak of the rotated period, and falls back to a jittered peak
// hour when there is no usable history. The result always lies within 08:00-20:00.
func (e *Engine) FollowUpTime(previousFollowUp, targetDate time.Time, events []domain.Event) domain.ClockTime {
	previous := previousFollowUp.In(e.loc)
	targetDay := DayOf(targetDate.In(e.loc))
	targetPeriod := RotatedPeriod(previous)

	pool := OnDay(events, targetDay)
	if len(pool) == 0 {
		pool = WithinDays(events, e.Now(), recentDays)
	}
	if len(pool) == 0 {
		return e.jitteredPeak(targetPeriod)
	}

	if inPeriod := InPeriod(pool, targetPeriod); len(inPeriod) > 0 {
		return e.nearPeak(targetPeriod, inPeriod)
	}

	previousPeriod := PeriodOf(previous)
	chosen := previousPeriod
	if others := NotInPeriod(pool, previousPeriod); len(others) > 0 {
		chosen = others[0].Period
	}
	candidates := InPeriod(pool, chosen)
	if len(candidates) == 0 {
		return e.jitteredPeak(chosen)
	}
	return e.nearPeak(chosen, candidates)
}

// nearPeak jitters the event time closest to the period's peak hour. A result outside
// the contact window is replaced by a jittered peak.
func (e *Engine) nearPeak(period domain.Period, events []domain.Event) domain.ClockTime {
	closest := e.closestTo(PeakHour(period), events)
	candidate := closest.Minutes() + e.jitter(closestJitterMinutes)
	if !InWindow(domain.ClockTimeFromMinutes(max(candidate, 0))) {
		return e.jitteredPeak(period)
	}
	return domain.ClockTimeFromMinutes(candidate)
}

func (e *Engine) jitteredPeak(period domain.Period) domain.ClockTime {
	return clampToWindow(PeakHour(period).Minutes() + e.jitter(peakJitterMinutes))
}

// closestTo returns the event time of day nearest to anchor. Ties keep the earlier event.
func (e *Engine) closestTo(anchor domain.ClockTime, events []domain.Event) domain.ClockTime {
	best := domain.ClockTimeOf(events[0].CreatedAt.In(e.loc))
	bestDistance := absInt(best.Minutes() - anchor.Minutes())
	for _, ev := range events[1:] {
		c := domain.ClockTimeOf(ev.CreatedAt.In(e.loc))
		if d := absInt(c.Minutes() - anchor.Minutes()); d < bestDistance {
			best, bestDistance = c, d
		}
	}
	return best
}

// jitter returns a uniform offset in [-limit, limit] minutes.
func (e *Engine) jitter(limit int) int {
	return e.rng.IntN(2*limit+1) - limit
}

// FollowUpDate spaces follow-ups out as a lead ages: the longer since fromDate, the
// further away the next contact. The result is never earlier than tomorrow.
func (e *Engine) FollowUpDate(fromDate time.Time, divisor int) time.Time {
	if divisor < 1 {
		divisor = 1
	}
	today := e.today()
	daysSince := absInt(civilDaysBetween(fromDate.In(e.loc), today))
	daysUntil := max(daysSince/divisor, 1)
	return today.AddDate(0, 0, daysUntil)
}

// NextStage ages a lead that has sat in its stage for maxDaysInStage days or more.
// Aged_Low_Priority is absorbing. A lead still within its budget reports
// Aged_High_Priority if it is there already, otherwise its original stage.
func (e *Engine) NextStage(stageUpdatedAt time.Time, maxDaysInStage int, current, original domain.Stage) domain.Stage {
	if current == domain.StageAgedLowPriority {
		return domain.StageAgedLowPriority
	}
	if civilDaysBetween(stageUpdatedAt.In(e.loc), e.today()) >= maxDaysInStage {
		return domain.StageAgedLowPriority
	}
	if current == domain.StageAgedHighPriority {
		return domain.StageAgedHighPriority
	}
	return original
}

// Resume reschedules a lead that was submitted again. The next follow-up lands
// tomorrow and the stage becomes Aged_High_Priority.
func (e *Engine) Resume(lead domain.Lead, events []domain.Event) domain.Lead {
	now := e.Now()
	targetDate := e.today().AddDate(0, 0, 1)

	clock := e.FollowUpTime(previousOf(lead), targetDate, events)

	lead.NextFollowUp = clock.On(targetDate, e.loc)
	if lead.Stage != domain.StageAgedHighPriority {
		lead.Stage = domain.StageAgedHighPriority
		lead.StageUpdatedAt = now
	}
	lead.UpdatedAt = now
	return lead
}

// Advance moves a lead past a follow-up that has just been sent: the sent follow-up
// becomes the previous one, the stage is aged per rules and a new follow-up is
// scheduled further out the older the lead is.
func (e *Engine) Advance(lead domain.Lead, events []domain.Event, rules config.EngagementRules) domain.Lead {
	now := e.Now()
	sent := lead.NextFollowUp

	stage := e.NextStage(lead.StageUpdatedAt, rules.MaxDaysFor(string(lead.Stage)), lead.Stage, lead.OriginalStage)
	if stage != lead.Stage {
		lead.Stage = stage
		lead.StageUpdatedAt = now
	}

	date := e.FollowUpDate(lead.CreatedAt, rules.DateDivisor)
	clock := e.FollowUpTime(sent, date, events)

	lead.PreviousFollowUp = &sent
	lead.NextFollowUp = clock.On(date, e.loc)
	lead.UpdatedAt = now
	return lead
}

func previousOf(lead domain.Lead) time.Time {
	if lead.PreviousFollowUp != nil {
		return *lead.PreviousFollowUp
	}
	return lead.CreatedAt
}

func (e *Engine) today() time.Time {
	n := e.Now()
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, e.loc)
}

// civilDaysBetween counts calendar days from a to b, ignoring time of day.
func civilDaysBetween(a, b time.Time) int {
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
