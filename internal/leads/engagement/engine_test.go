package engagement

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/spmiller41/saleset-v2-sub000/internal/leads/domain"
	"github.com/spmiller41/saleset-v2-sub000/platform/config"
)

// fixedRand returns a fixed position in [0, n): 0 is the lowest offset, 1 the highest,
// anything else the midpoint (no jitter).
type fixedRand int

func (f fixedRand) IntN(n int) int {
	switch f {
	case 0:
		return 0
	case 1:
		return n - 1
	default:
		return n / 2
	}
}

const (
	lowest   fixedRand = 0
	highest  fixedRand = 1
	noJitter fixedRand = 2
)

var newYork = mustLoad("America/New_York")

func mustLoad(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

// Wednesday, 13 March 2024, noon.
var testNow = time.Date(2024, time.March, 13, 12, 0, 0, 0, newYork)

func at(year int, month time.Month, day, hour, minute int) time.Time {
	return time.Date(year, month, day, hour, minute, 0, 0, newYork)
}

func event(t time.Time) domain.Event {
	return domain.Event{
		Type:      domain.EventTypeOpen,
		CreatedAt: t,
		DayOfWeek: DayOf(t),
		Period:    PeriodOf(t),
	}
}

func newTestEngine(r Rand) *Engine {
	return NewEngine(newYork, WithClock(func() time.Time { return testNow }), WithRand(r))
}

func TestPeriodOf(t *testing.T) {
	cases := []struct {
		clock time.Time
		want  domain.Period
	}{
		{at(2024, 3, 13, 0, 0), domain.PeriodMorning},
		{at(2024, 3, 13, 11, 59), domain.PeriodMorning},
		{at(2024, 3, 13, 12, 0), domain.PeriodAfternoon},
		{at(2024, 3, 13, 17, 59), domain.PeriodAfternoon},
		{at(2024, 3, 13, 18, 0), domain.PeriodEvening},
		{at(2024, 3, 13, 23, 59), domain.PeriodEvening},
	}
	for _, tc := range cases {
		if got := PeriodOf(tc.clock); got != tc.want {
			t.Fatalf("PeriodOf(%s) = %s, want %s", tc.clock.Format("15:04"), got, tc.want)
		}
	}
}

func TestRotatedPeriod(t *testing.T) {
	cases := map[time.Time]domain.Period{
		at(2024, 3, 13, 9, 0):  domain.PeriodEvening,
		at(2024, 3, 13, 13, 0): domain.PeriodMorning,
		at(2024, 3, 13, 19, 0): domain.PeriodAfternoon,
	}
	for clock, want := range cases {
		if got := RotatedPeriod(clock); got != want {
			t.Fatalf("RotatedPeriod(%s) = %s, want %s", clock.Format("15:04"), got, want)
		}
	}
}

func TestFollowUpTimeWithoutHistoryUsesPeak(t *testing.T) {
	engine := newTestEngine(noJitter)
	got := engine.FollowUpTime(at(2024, 3, 12, 9, 0), at(2024, 3, 14, 0, 0), nil)
	if got != (domain.ClockTime{Hour: 19}) {
		t.Fatalf("expected evening peak 19:00, got %s", got)
	}
}

func TestFollowUpTimePeakJitterIsClampedToWindow(t *testing.T) {
	engine := newTestEngine(highest)
	got := engine.FollowUpTime(at(2024, 3, 12, 9, 0), at(2024, 3, 14, 0, 0), nil)
	if got != (domain.ClockTime{Hour: 20}) {
		t.Fatalf("expected 21:00 to clamp to 20:00, got %s", got)
	}

	engine = newTestEngine(lowest)
	// Afternoon send rotates to morning: 10:00 - 2h = 08:00.
	got = engine.FollowUpTime(at(2024, 3, 12, 13, 0), at(2024, 3, 14, 0, 0), nil)
	if got != (domain.ClockTime{Hour: 8}) {
		t.Fatalf("expected 08:00, got %s", got)
	}
}

func TestFollowUpTimePicksEventClosestToPeak(t *testing.T) {
	engine := newTestEngine(noJitter)
	// Target is Thursday; both events are Thursday evenings.
	events := []domain.Event{
		event(at(2024, 3, 7, 20, 30)),
		event(at(2024, 2, 29, 18, 30)),
	}
	got := engine.FollowUpTime(at(2024, 3, 12, 9, 0), at(2024, 3, 14, 0, 0), events)
	if got != (domain.ClockTime{Hour: 18, Minute: 30}) {
		t.Fatalf("expected 18:30, got %s", got)
	}
}

func TestFollowUpTimeTiesKeepFirstEvent(t *testing.T) {
	engine := newTestEngine(noJitter)
	events := []domain.Event{
		event(at(2024, 3, 7, 18, 30)),
		event(at(2024, 2, 29, 19, 30)),
	}
	got := engine.FollowUpTime(at(2024, 3, 12, 9, 0), at(2024, 3, 14, 0, 0), events)
	if got != (domain.ClockTime{Hour: 18, Minute: 30}) {
		t.Fatalf("expected first of equally close events, got %s", got)
	}
}

func TestFollowUpTimeOutOfWindowFallsBackToPeak(t *testing.T) {
	engine := newTestEngine(highest)
	events := []domain.Event{event(at(2024, 3, 7, 21, 30))}
	got := engine.FollowUpTime(at(2024, 3, 12, 9, 0), at(2024, 3, 14, 0, 0), events)
	if got != (domain.ClockTime{Hour: 20}) {
		t.Fatalf("expected clamped peak fallback 20:00, got %s", got)
	}
}

func TestFollowUpTimeSwitchesAwayFromPreviousPeriod(t *testing.T) {
	engine := newTestEngine(noJitter)
	// Morning send targets the evening, but Thursday history has no evening events.
	events := []domain.Event{
		event(at(2024, 3, 7, 9, 30)),
		event(at(2024, 3, 7, 14, 0)),
	}
	got := engine.FollowUpTime(at(2024, 3, 12, 9, 0), at(2024, 3, 14, 0, 0), events)
	if got != (domain.ClockTime{Hour: 14}) {
		t.Fatalf("expected afternoon event 14:00, got %s", got)
	}
}

func TestFollowUpTimeKeepsPreviousPeriodWhenNothingElse(t *testing.T) {
	engine := newTestEngine(noJitter)
	events := []domain.Event{event(at(2024, 3, 7, 11, 0))}
	got := engine.FollowUpTime(at(2024, 3, 12, 9, 0), at(2024, 3, 14, 0, 0), events)
	if got != (domain.ClockTime{Hour: 11}) {
		t.Fatalf("expected morning event 11:00, got %s", got)
	}
}

func TestFollowUpTimeFallsBackToLastWeek(t *testing.T) {
	engine := newTestEngine(noJitter)
	events := []domain.Event{
		// Tuesday eight days ago: outside the recent window.
		event(at(2024, 3, 5, 10, 0)),
		// Monday this week, afternoon.
		event(at(2024, 3, 11, 16, 0)),
	}
	got := engine.FollowUpTime(at(2024, 3, 12, 13, 0), at(2024, 3, 14, 0, 0), events)
	if got != (domain.ClockTime{Hour: 16}) {
		t.Fatalf("expected recent afternoon event 16:00, got %s", got)
	}
}

func TestFollowUpTimeAlwaysWithinWindow(t *testing.T) {
	for seed := uint64(0); seed < 200; seed++ {
		r := rand.New(rand.NewPCG(seed, seed*7+1))
		engine := newTestEngine(r)

		events := make([]domain.Event, r.IntN(6))
		for i := range events {
			ts := testNow.AddDate(0, 0, -r.IntN(21)).Add(time.Duration(r.IntN(24*60)-12*60) * time.Minute)
			events[i] = event(ts)
		}
		previous := testNow.Add(-time.Duration(r.IntN(72*60)) * time.Minute)
		target := testNow.AddDate(0, 0, 1+r.IntN(10))

		got := engine.FollowUpTime(previous, target, events)
		if !InWindow(got) {
			t.Fatalf("seed %d: %s is outside 08:00-20:00", seed, got)
		}
	}
}

func TestFollowUpDate(t *testing.T) {
	engine := newTestEngine(noJitter)
	cases := []struct {
		name    string
		from    time.Time
		divisor int
		want    time.Time
	}{
		{"thirty days ago", at(2024, 2, 12, 8, 0), 3, at(2024, 3, 23, 0, 0)},
		{"today", testNow, 3, at(2024, 3, 14, 0, 0)},
		{"divisor larger than age", at(2024, 3, 11, 8, 0), 5, at(2024, 3, 14, 0, 0)},
		{"future date uses distance", at(2024, 3, 19, 8, 0), 2, at(2024, 3, 16, 0, 0)},
		{"zero divisor", at(2024, 3, 10, 8, 0), 0, at(2024, 3, 16, 0, 0)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := engine.FollowUpDate(tc.from, tc.divisor)
			if !got.Equal(tc.want) {
				t.Fatalf("expected %s, got %s", tc.want.Format(time.DateOnly), got.Format(time.DateOnly))
			}
		})
	}
}

func TestFollowUpDateNeverBeforeTomorrow(t *testing.T) {
	engine := newTestEngine(noJitter)
	tomorrow := at(2024, 3, 14, 0, 0)
	for days := -40; days <= 40; days++ {
		for divisor := 1; divisor <= 50; divisor += 7 {
			got := engine.FollowUpDate(testNow.AddDate(0, 0, days), divisor)
			if got.Before(tomorrow) {
				t.Fatalf("days=%d divisor=%d: %s is before tomorrow", days, divisor, got)
			}
		}
	}
}

func TestNextStage(t *testing.T) {
	engine := newTestEngine(noJitter)
	tenDaysAgo := testNow.AddDate(0, 0, -10)
	twoDaysAgo := testNow.AddDate(0, 0, -2)

	cases := []struct {
		name      string
		updatedAt time.Time
		current   domain.Stage
		original  domain.Stage
		want      domain.Stage
	}{
		{"budget exceeded ages", tenDaysAgo, domain.StageNew, domain.StageNew, domain.StageAgedLowPriority},
		{"high priority in budget stays", twoDaysAgo, domain.StageAgedHighPriority, domain.StageNew, domain.StageAgedHighPriority},
		{"in budget reports original", twoDaysAgo, domain.StageNew, domain.StageRetargetedRehash, domain.StageRetargetedRehash},
		{"low priority absorbs", twoDaysAgo, domain.StageAgedLowPriority, domain.StageNew, domain.StageAgedLowPriority},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := engine.NextStage(tc.updatedAt, 7, tc.current, tc.original); got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestNextStageLowPriorityIsAbsorbing(t *testing.T) {
	engine := newTestEngine(noJitter)
	for days := 0; days < 60; days++ {
		for _, budget := range []int{0, 1, 7, 100} {
			got := engine.NextStage(testNow.AddDate(0, 0, -days), budget, domain.StageAgedLowPriority, domain.StageNew)
			if got != domain.StageAgedLowPriority {
				t.Fatalf("days=%d budget=%d: left Aged_Low_Priority for %s", days, budget, got)
			}
		}
	}
}

func TestResumeSchedulesTomorrowAtHighPriority(t *testing.T) {
	engine := newTestEngine(noJitter)
	previous := at(2024, 3, 12, 13, 0)
	lead := domain.Lead{
		Stage:            domain.StageNew,
		OriginalStage:    domain.StageNew,
		StageUpdatedAt:   at(2024, 3, 1, 9, 0),
		NextFollowUp:     at(2024, 3, 20, 10, 0),
		PreviousFollowUp: &previous,
		CreatedAt:        at(2024, 3, 1, 9, 0),
	}

	got := engine.Resume(lead, nil)

	if got.Stage != domain.StageAgedHighPriority {
		t.Fatalf("expected Aged_High_Priority, got %s", got.Stage)
	}
	if !got.StageUpdatedAt.Equal(testNow) {
		t.Fatalf("expected stage timestamp to be now, got %s", got.StageUpdatedAt)
	}
	// Afternoon previous follow-up rotates to the morning peak.
	want := at(2024, 3, 14, 10, 0)
	if !got.NextFollowUp.Equal(want) {
		t.Fatalf("expected next follow-up %s, got %s", want, got.NextFollowUp)
	}
	if got.OriginalStage != domain.StageNew {
		t.Fatalf("original stage must not change, got %s", got.OriginalStage)
	}
}

func TestResumeWithoutPreviousFollowUpUsesCreatedAt(t *testing.T) {
	engine := newTestEngine(noJitter)
	lead := domain.Lead{
		Stage:          domain.StageAgedHighPriority,
		StageUpdatedAt: at(2024, 3, 10, 9, 0),
		CreatedAt:      at(2024, 3, 10, 19, 0),
	}

	got := engine.Resume(lead, nil)

	if !got.StageUpdatedAt.Equal(lead.StageUpdatedAt) {
		t.Fatalf("stage timestamp must not move when the stage is unchanged")
	}
	// Evening creation rotates to the afternoon peak.
	if want := at(2024, 3, 14, 15, 0); !got.NextFollowUp.Equal(want) {
		t.Fatalf("expected %s, got %s", want, got.NextFollowUp)
	}
}

func TestAdvanceAgesAndReschedules(t *testing.T) {
	engine := newTestEngine(noJitter)
	sent := at(2024, 3, 13, 10, 0)
	lead := domain.Lead{
		Stage:          domain.StageNew,
		OriginalStage:  domain.StageNew,
		StageUpdatedAt: at(2024, 3, 1, 9, 0),
		NextFollowUp:   sent,
		CreatedAt:      at(2024, 3, 1, 9, 0),
	}

	got := engine.Advance(lead, nil, config.DefaultEngagementRules())

	if got.Stage != domain.StageAgedLowPriority {
		t.Fatalf("expected lead past its New budget to age, got %s", got.Stage)
	}
	if got.PreviousFollowUp == nil || !got.PreviousFollowUp.Equal(sent) {
		t.Fatalf("expected previous follow-up %s, got %v", sent, got.PreviousFollowUp)
	}
	// Twelve days old with divisor 3: four days out, morning send rotates to the evening.
	if want := at(2024, 3, 17, 19, 0); !got.NextFollowUp.Equal(want) {
		t.Fatalf("expected %s, got %s", want, got.NextFollowUp)
	}
}
