package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/spmiller41/saleset-v2-sub000/internal/auth"
	"github.com/spmiller41/saleset-v2-sub000/internal/events"
	"github.com/spmiller41/saleset-v2-sub000/internal/leads/domain"
	"github.com/spmiller41/saleset-v2-sub000/internal/leads/intake"
	"github.com/spmiller41/saleset-v2-sub000/internal/leads/repository"
	"github.com/spmiller41/saleset-v2-sub000/internal/leads/service"
	"github.com/spmiller41/saleset-v2-sub000/platform/config"
	"github.com/spmiller41/saleset-v2-sub000/platform/httpkit"
	"github.com/spmiller41/saleset-v2-sub000/platform/logger"
	"github.com/spmiller41/saleset-v2-sub000/platform/validator"
)

const testSecret = "test-secret"

type capturingPipeline struct {
	submissions []intake.Submission
}

func (p *capturingPipeline) ManageLead(_ context.Context, sub intake.Submission) intake.Result {
	p.submissions = append(p.submissions, sub)
	return intake.Result{Outcome: intake.OutcomeCreated}
}

type leadStore struct {
	lead   domain.Lead
	events []domain.Event
}

func (s *leadStore) GetLeadByID(context.Context, uuid.UUID) (domain.Lead, error) { return s.lead, nil }

func (s *leadStore) GetLeadByToken(_ context.Context, token string) (domain.Lead, error) {
	if token != s.lead.TrackingToken {
		return domain.Lead{}, repository.ErrNotFound
	}
	return s.lead, nil
}

func (s *leadStore) GetContact(context.Context, uuid.UUID) (domain.Contact, error) {
	return domain.Contact{}, nil
}

func (s *leadStore) InsertEvent(_ context.Context, e domain.Event) (domain.Event, error) {
	s.events = append(s.events, e)
	return e, nil
}

func (s *leadStore) ListEventsByLead(context.Context, uuid.UUID) ([]domain.Event, error) {
	return s.events, nil
}

func (s *leadStore) UpdateStage(_ context.Context, _ uuid.UUID, stage domain.Stage, at time.Time) (domain.Lead, error) {
	s.lead.Stage = stage
	s.lead.StageUpdatedAt = at
	return s.lead, nil
}

type testServer struct {
	engine   *gin.Engine
	pipeline *capturingPipeline
	store    *leadStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logger.NewWithWriter("test", io.Discard)
	store := &leadStore{lead: domain.Lead{
		ID:            uuid.New(),
		TrackingToken: "tok-abc",
		Stage:         domain.StageNew,
		BookingURL:    "https://book.example.com/?lead=tok-abc",
	}}
	pipeline := &capturingPipeline{}
	svc := service.New(store, nil, events.NewInMemoryBus(log), log, time.UTC)
	h := New(pipeline, svc, validator.New(), "US", log)

	engine := gin.New()
	v1 := engine.Group("/api/v1")
	h.RegisterRoutes(v1)
	admin := v1.Group("/admin", httpkit.AuthRequired(&config.Config{JWTAccessSecret: testSecret}))
	h.RegisterAdminRoutes(admin)

	return &testServer{engine: engine, pipeline: pipeline, store: store}
}

func (s *testServer) do(method, path, body string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)
	return rec
}

func accessToken(t *testing.T, secret string) string {
	t.Helper()
	signed, err := auth.IssueAccessToken(secret, uuid.New(), []string{auth.RoleAdmin}, time.Hour, time.Now())
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return signed
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected status %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
}

func TestSubmitLeadNormalizesAndAccepts(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/api/v1/leads", `{
		"firstName": "  ada  ",
		"lastName": "<b>LOVELACE</b>",
		"email": " Ada@Example.COM ",
		"phone": "(650) 253-0000",
		"street": "1 Main St",
		"city": "  ",
		"source": "facebook"
	}`, nil)

	expectStatus(t, rec, http.StatusAccepted)
	if len(s.pipeline.submissions) != 1 {
		t.Fatalf("expected one submission, got %d", len(s.pipeline.submissions))
	}

	sub := s.pipeline.submissions[0]
	if sub.FirstName != "Ada" || sub.LastName != "Lovelace" {
		t.Fatalf("expected cleaned names, got %q %q", sub.FirstName, sub.LastName)
	}
	if sub.Email == nil || *sub.Email != "ada@example.com" {
		t.Fatalf("expected lowercased email, got %v", sub.Email)
	}
	if sub.Phones.Primary.E164 != "+16502530000" {
		t.Fatalf("expected E.164 phone, got %q", sub.Phones.Primary.E164)
	}
	if sub.Address.Street == nil || *sub.Address.Street != "1 Main St" {
		t.Fatalf("expected street to be kept, got %v", sub.Address.Street)
	}
	if sub.Address.City != nil {
		t.Fatalf("expected blank city to be dropped, got %q", *sub.Address.City)
	}
}

func TestSubmitLeadAcceptsInvalidBodyWithoutProcessing(t *testing.T) {
	s := newTestServer(t)

	expectStatus(t, s.do(http.MethodPost, "/api/v1/leads", `{"firstName": "Ada"}`, nil), http.StatusAccepted)
	expectStatus(t, s.do(http.MethodPost, "/api/v1/leads", `not json`, nil), http.StatusAccepted)

	if len(s.pipeline.submissions) != 0 {
		t.Fatalf("expected nothing processed, got %d submissions", len(s.pipeline.submissions))
	}
}

func TestSubmitLeadPassesUnusablePhoneToPipeline(t *testing.T) {
	s := newTestServer(t)

	expectStatus(t, s.do(http.MethodPost, "/api/v1/leads", `{"firstName": "Ada", "phone": "12"}`, nil), http.StatusAccepted)
	if len(s.pipeline.submissions) != 1 {
		t.Fatalf("expected one submission, got %d", len(s.pipeline.submissions))
	}
	if s.pipeline.submissions[0].Phones.Primary.Valid() {
		t.Fatal("expected the phone to be marked unusable")
	}
}

func TestRecordEvent(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/api/v1/events", `{"leadToken": "tok-abc", "eventType": "open"}`, nil)
	expectStatus(t, rec, http.StatusOK)

	var body map[string]bool
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !body["recorded"] || len(s.store.events) != 1 {
		t.Fatalf("expected one recorded event, got %v and %d stored", body, len(s.store.events))
	}
}

func TestRecordEventValidation(t *testing.T) {
	s := newTestServer(t)

	expectStatus(t, s.do(http.MethodPost, "/api/v1/events", `{"leadToken": "tok-abc", "eventType": "bounce"}`, nil), http.StatusBadRequest)
	expectStatus(t, s.do(http.MethodPost, "/api/v1/events", `{"leadToken": "nope", "eventType": "click"}`, nil), http.StatusNotFound)
}

func TestTrackClickRedirectsToBooking(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/api/v1/t/tok-abc/click", "", nil)
	expectStatus(t, rec, http.StatusFound)
	if got := rec.Header().Get("Location"); got != "https://book.example.com/?lead=tok-abc" {
		t.Fatalf("expected redirect to booking page, got %q", got)
	}
	if len(s.store.events) != 1 || s.store.events[0].Type != domain.EventTypeClick {
		t.Fatalf("expected one click event, got %+v", s.store.events)
	}

	expectStatus(t, s.do(http.MethodGet, "/api/v1/t/unknown/click", "", nil), http.StatusNotFound)
}

func TestTrackOpenAlwaysServesPixel(t *testing.T) {
	s := newTestServer(t)

	for _, token := range []string{"tok-abc", "unknown"} {
		rec := s.do(http.MethodGet, "/api/v1/t/"+token+"/open", "", nil)
		expectStatus(t, rec, http.StatusOK)
		if got := rec.Header().Get("Content-Type"); got != "image/gif" {
			t.Fatalf("%s: expected image/gif, got %q", token, got)
		}
		if !bytes.Equal(rec.Body.Bytes(), transparentPixel) {
			t.Fatalf("%s: expected the transparent pixel", token)
		}
	}
	if len(s.store.events) != 1 {
		t.Fatalf("expected only the known token to record, got %d events", len(s.store.events))
	}
}

func TestUpdateStageRequiresToken(t *testing.T) {
	s := newTestServer(t)

	expectStatus(t, s.do(http.MethodPatch, "/api/v1/admin/leads/tok-abc/stage", `{"stage": "Do_Not_Call"}`, nil), http.StatusUnauthorized)

	header := http.Header{"Authorization": {"Bearer " + accessToken(t, "wrong-secret")}}
	expectStatus(t, s.do(http.MethodPatch, "/api/v1/admin/leads/tok-abc/stage", `{"stage": "Do_Not_Call"}`, header), http.StatusUnauthorized)
	if s.store.lead.Stage != domain.StageNew {
		t.Fatalf("expected stage untouched, got %s", s.store.lead.Stage)
	}
}

func TestUpdateStage(t *testing.T) {
	s := newTestServer(t)
	header := http.Header{"Authorization": {"Bearer " + accessToken(t, testSecret)}}

	expectStatus(t, s.do(http.MethodPatch, "/api/v1/admin/leads/tok-abc/stage", `{"stage": "Do_Not_Call", "reason": "asked"}`, header), http.StatusOK)
	if s.store.lead.Stage != domain.StageDoNotCall {
		t.Fatalf("expected Do_Not_Call, got %s", s.store.lead.Stage)
	}

	expectStatus(t, s.do(http.MethodPatch, "/api/v1/admin/leads/tok-abc/stage", `{"stage": "New"}`, header), http.StatusBadRequest)
}
