package followup

import (
	"context"
	"errors"
	"io"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/goleak"

	"github.com/spmiller41/saleset-v2-sub000/internal/leads/domain"
	"github.com/spmiller41/saleset-v2-sub000/platform/logger"
)

var scanNow = time.Date(2024, time.March, 13, 9, 0, 0, 0, time.UTC)

type memoryLeads struct {
	mu    sync.Mutex
	leads []domain.Lead
	calls int
	err   error
}

func (m *memoryLeads) FindLeadsDueForFollowUp(_ context.Context, from, to time.Time, excluded []domain.Stage) ([]domain.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.Lead
	for _, l := range m.leads {
		if l.NextFollowUp.Before(from) || l.NextFollowUp.After(to) || slices.Contains(excluded, l.Stage) {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

func (m *memoryLeads) scans() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type recordingDispatcher struct {
	mu      sync.Mutex
	leads   []uuid.UUID
	failFor uuid.UUID
}

func (d *recordingDispatcher) Dispatch(_ context.Context, lead domain.Lead) error {
	if lead.ID == d.failFor {
		return errors.New("queue unavailable")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.leads = append(d.leads, lead.ID)
	return nil
}

func dueLead(offset time.Duration, stage domain.Stage) domain.Lead {
	return domain.Lead{ID: uuid.New(), Stage: stage, NextFollowUp: scanNow.Add(offset)}
}

func newTestScanner(repo *memoryLeads, dispatcher Dispatcher, interval time.Duration) *Scanner {
	s := NewScanner(repo, dispatcher, time.Hour, interval, logger.NewWithWriter("test", io.Discard))
	s.now = func() time.Time { return scanNow }
	return s
}

func TestScanReturnsOnlyDueNonTerminalLeads(t *testing.T) {
	inWindow := dueLead(30*time.Minute, domain.StageNew)
	atEdge := dueLead(60*time.Minute, domain.StageAgedHighPriority)
	repo := &memoryLeads{leads: []domain.Lead{
		inWindow,
		atEdge,
		dueLead(61*time.Minute, domain.StageNew),
		dueLead(-time.Minute, domain.StageNew),
		dueLead(10*time.Minute, domain.StageConverted),
		dueLead(10*time.Minute, domain.StageDoNotCall),
	}}
	scanner := newTestScanner(repo, &recordingDispatcher{}, time.Minute)

	got, err := scanner.Scan(context.Background(), 60*time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].ID != inWindow.ID || got[1].ID != atEdge.ID {
		t.Fatalf("expected the two due leads, got %+v", got)
	}
}

func TestScanIsRepeatable(t *testing.T) {
	repo := &memoryLeads{leads: []domain.Lead{dueLead(5*time.Minute, domain.StageNew)}}
	scanner := newTestScanner(repo, &recordingDispatcher{}, time.Minute)

	first, _ := scanner.Scan(context.Background(), time.Hour)
	second, _ := scanner.Scan(context.Background(), time.Hour)
	if len(first) != 1 || len(second) != 1 || first[0].ID != second[0].ID {
		t.Fatal("expected overlapping scans to return the same lead")
	}
}

func TestScanOnceSkipsFailedDispatch(t *testing.T) {
	ok := dueLead(5*time.Minute, domain.StageNew)
	broken := dueLead(10*time.Minute, domain.StageNew)
	repo := &memoryLeads{leads: []domain.Lead{broken, ok}}
	dispatcher := &recordingDispatcher{failFor: broken.ID}
	scanner := newTestScanner(repo, dispatcher, time.Minute)

	n, err := scanner.ScanOnce(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 1 || len(dispatcher.leads) != 1 || dispatcher.leads[0] != ok.ID {
		t.Fatalf("expected only the healthy lead to dispatch, got %d", n)
	}
}

func TestScanOnceReturnsQueryError(t *testing.T) {
	repo := &memoryLeads{err: errors.New("db down")}
	scanner := newTestScanner(repo, &recordingDispatcher{}, time.Minute)

	if _, err := scanner.ScanOnce(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	repo := &memoryLeads{leads: []domain.Lead{dueLead(5*time.Minute, domain.StageNew)}}
	dispatcher := &recordingDispatcher{}
	scanner := newTestScanner(repo, dispatcher, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		scanner.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for repo.scans() < 2 {
		select {
		case <-deadline:
			t.Fatal("scanner did not tick")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scanner did not stop")
	}
}
