package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/event-enrollment/internal/config"
	"github.com/Shivanand-hulikatti/event-enrollment/internal/lock"
	"github.com/Shivanand-hulikatti/event-enrollment/internal/logger"
	"github.com/Shivanand-hulikatti/event-enrollment/internal/metrics"
	"github.com/Shivanand-hulikatti/event-enrollment/internal/model"
	"github.com/Shivanand-hulikatti/event-enrollment/internal/repository"
	"github.com/Shivanand-hulikatti/event-enrollment/internal/service"
)

type testServer struct {
	handler http.Handler
	store   *repository.Memory
	metrics *metrics.Metrics
}

func newTestServer(t *testing.T, deps map[string]Pinger) *testServer {
	t.Helper()
	log := logger.Discard()
	store := repository.NewMemory()
	m := metrics.New(prometheus.NewRegistry())

	enrollments := service.NewEnrollmentService(log, store, store, nil, nil, m)
	certificates := service.NewCertificateService(log, store, store, nil, service.NewHasher("test-salt-123"), nil, m)

	return &testServer{
		store:   store,
		metrics: m,
		handler: NewRouter(RouterDeps{
			Log:          log,
			Metrics:      m,
			Enrollments:  NewEnrollmentHandler(enrollments, log),
			Certificates: NewCertificateHandler(certificates, log),
			Health:       NewHealthHandler(deps),
		}),
	}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func path(format string, args ...any) string {
	return fmt.Sprintf(format, args...)
}

func TestEnrollmentFlow(t *testing.T) {
	s := newTestServer(t, nil)
	capacity := 1
	event := s.store.PutEvent(model.Event{Name: "Go Workshop", Capacity: &capacity})
	ana := s.store.PutStudent(model.Student{Person: model.Person{Name: "Ana"}})
	bruno := s.store.PutStudent(model.Student{Person: model.Person{Name: "Bruno"}})
	speaker := s.store.PutSpeaker(model.Speaker{Person: model.Person{Name: "Dr. Lima"}})

	rec := s.do(t, http.MethodPost, path("/events/%d/enrollments", event.ID), map[string]any{"person_id": ana.ID})
	require.Equal(t, http.StatusCreated, rec.Code)
	enrollment := decode[model.Enrollment](t, rec)
	assert.Equal(t, model.AttendanceUnconfirmed, enrollment.Attendance)

	rec = s.do(t, http.MethodPost, path("/events/%d/enrollments", event.ID), map[string]any{"person_id": ana.ID})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodPost, path("/events/%d/enrollments", event.ID), map[string]any{"person_id": bruno.ID})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = s.do(t, http.MethodGet, path("/events/%d/seats", event.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	seats := decode[model.SeatAvailability](t, rec)
	assert.Equal(t, 0, seats.Available)
	assert.Equal(t, 1, seats.Enrolled)

	rec = s.do(t, http.MethodPost, path("/events/%d/certificates", event.ID),
		map[string]any{"speaker_id": speaker.ID, "institution_name": "Inst", "institution_id": "123"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = s.do(t, http.MethodPut, path("/enrollments/%d/attendance", enrollment.ID), map[string]any{"present": true})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"attendance":true`)

	rec = s.do(t, http.MethodPost, path("/events/%d/certificates", event.ID),
		map[string]any{"speaker_id": speaker.ID, "institution_name": "Inst", "institution_id": "123"})
	require.Equal(t, http.StatusCreated, rec.Code)
	certs := decode[[]model.Certificate](t, rec)
	require.Len(t, certs, 1)
	assert.Equal(t, ana.ID, certs[0].PersonID)

	rec = s.do(t, http.MethodPost, path("/events/%d/certificates", event.ID),
		map[string]any{"speaker_id": speaker.ID, "institution_name": "Inst", "institution_id": "123"})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/certificates/verify/"+certs[0].Hash, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, certs[0].ID, decode[model.Certificate](t, rec).ID)

	rec = s.do(t, http.MethodGet, path("/persons/%d/certificates", ana.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]model.Certificate](t, rec), 1)

	rec = s.do(t, http.MethodDelete, path("/enrollments/%d", enrollment.ID), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodGet, path("/persons/%d/enrollments", ana.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestRegister_ValidationAndNotFound(t *testing.T) {
	s := newTestServer(t, nil)

	tests := []struct {
		name   string
		path   string
		body   any
		status int
	}{
		{"non numeric event id", "/events/abc/enrollments", map[string]any{"person_id": 1}, http.StatusBadRequest},
		{"missing person id", "/events/1/enrollments", map[string]any{}, http.StatusBadRequest},
		{"unknown field", "/events/1/enrollments", `{"person_id":1,"extra":true}`, http.StatusBadRequest},
		{"malformed json", "/events/1/enrollments", `{`, http.StatusBadRequest},
		{"unknown event", "/events/404/enrollments", map[string]any{"person_id": 1}, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code)
			assert.NotEmpty(t, decode[model.ErrorResponse](t, rec).Error)
		})
	}
}

func TestIssue_Validation(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, http.MethodPost, "/certificates", map[string]any{
		"person_id": 1, "event_id": 1, "speaker_id": 1, "hash": "xyz", "institution_name": "",
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decode[model.ErrorResponse](t, rec)
	fields := make([]string, 0, len(resp.Fields))
	for _, f := range resp.Fields {
		fields = append(fields, f.Field)
	}
	assert.ElementsMatch(t, []string{"hash", "institution_name"}, fields)
}

func TestIssue_HashMustMatchHasherFormat(t *testing.T) {
	s := newTestServer(t, nil)

	for name, hash := range map[string]string{
		"0x prefix": "0x" + strings.Repeat("A", 62),
		"0X prefix": "0X" + strings.Repeat("A", 62),
		"lowercase": strings.Repeat("a", 64),
		"too short": strings.Repeat("A", 63),
		"non hex":   strings.Repeat("G", 64),
	} {
		t.Run(name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/certificates", map[string]any{
				"person_id": 1, "event_id": 1, "speaker_id": 1, "hash": hash, "institution_name": "UFPB",
			})

			require.Equal(t, http.StatusBadRequest, rec.Code)
			resp := decode[model.ErrorResponse](t, rec)
			require.Len(t, resp.Fields, 1)
			assert.Equal(t, "hash", resp.Fields[0].Field)
		})
	}
}

func TestIssue_SingleAllowsDuplicatePair(t *testing.T) {
	s := newTestServer(t, nil)
	capacity := 5
	event := s.store.PutEvent(model.Event{Name: "Go Workshop", Capacity: &capacity})
	ana := s.store.PutStudent(model.Student{Person: model.Person{Name: "Ana"}})
	speaker := s.store.PutSpeaker(model.Speaker{Person: model.Person{Name: "Dr. Lima"}})

	body := func(hash string) map[string]any {
		return map[string]any{
			"person_id": ana.ID, "event_id": event.ID, "speaker_id": speaker.ID,
			"hash": hash, "institution_name": "UFPB",
		}
	}

	rec := s.do(t, http.MethodPost, "/certificates", body(strings.Repeat("A", 64)))
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = s.do(t, http.MethodPost, "/certificates", body(strings.Repeat("B", 64)))
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = s.do(t, http.MethodPost, "/certificates", body(strings.Repeat("B", 64)))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodGet, "/certificates", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]model.Certificate](t, rec), 2)
}

func TestHealth(t *testing.T) {
	ok := PingFunc(func(context.Context) error { return nil })
	down := PingFunc(func(context.Context) error { return errors.New("refused") })

	s := newTestServer(t, map[string]Pinger{"database": ok})
	rec := s.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[HealthResponse](t, rec).Components["database"].Status)

	s = newTestServer(t, map[string]Pinger{"database": ok, "redis": down})
	rec = s.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "down", decode[HealthResponse](t, rec).Components["redis"].Status)
}

func TestRequestID_ReachesAccessLog(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(config.LogConfig{Level: "info", Format: "json"}, &buf)
	h := NewRouter(RouterDeps{
		Log:     log,
		Metrics: metrics.New(prometheus.NewRegistry()),
		Health:  NewHealthHandler(nil),
	})
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	req.Header.Set(chimiddleware.RequestIDHeader, "req-123")

	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Contains(t, buf.String(), `"request_id":"req-123"`)
}

func TestRecoverer_LoggedAsServerError(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	h := Logger(logger.Discard(), m)(chimiddleware.Recoverer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})))
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues(http.MethodGet, unmatchedRoute, "500")))
}

func TestMetrics_UnknownPathsShareOneSeries(t *testing.T) {
	s := newTestServer(t, nil)

	for i := range 50 {
		rec := s.do(t, http.MethodGet, path("/scan/%d", i), nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
	}

	assert.Equal(t, 1, testutil.CollectAndCount(s.metrics.HTTPRequests))
	assert.Equal(t, 50.0, testutil.ToFloat64(s.metrics.HTTPRequests.WithLabelValues(http.MethodGet, unmatchedRoute, "404")))
}

type busyLocker struct{}

func (busyLocker) Lock(_ context.Context, key string) (lock.Unlock, error) {
	return nil, fmt.Errorf("lock %s: %w", key, lock.ErrNotAcquired)
}

func TestRegister_LockBusyIsRetryable(t *testing.T) {
	log := logger.Discard()
	store := repository.NewMemory()
	capacity := 5
	event := store.PutEvent(model.Event{Name: "Go Workshop", Capacity: &capacity})
	ana := store.PutStudent(model.Student{Person: model.Person{Name: "Ana"}})

	enrollments := service.NewEnrollmentService(log, store, store, busyLocker{}, nil, nil)
	h := NewRouter(RouterDeps{
		Log:         log,
		Enrollments: NewEnrollmentHandler(enrollments, log),
		Health:      NewHealthHandler(nil),
	})

	body := strings.NewReader(fmt.Sprintf(`{"person_id":%d}`, ana.ID))
	req := httptest.NewRequest(http.MethodPost, path("/events/%d/enrollments", event.ID), body)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
}

func TestCORS_Preflight(t *testing.T) {
	s := newTestServer(t, nil)
	rec := s.do(t, http.MethodOptions, "/certificates", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
