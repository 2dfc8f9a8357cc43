package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Shivanand-hulikatti/event-enrollment/internal/lock"
	"github.com/Shivanand-hulikatti/event-enrollment/internal/logger"
	"github.com/Shivanand-hulikatti/event-enrollment/internal/metrics"
	"github.com/Shivanand-hulikatti/event-enrollment/internal/model"
	"github.com/Shivanand-hulikatti/event-enrollment/internal/queue"
	"github.com/Shivanand-hulikatti/event-enrollment/internal/repository"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e queue.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) keys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.RoutingKey())
	}
	return out
}

// countingLocker records lock keys and fails when err is set.
type countingLocker struct {
	mu   sync.Mutex
	keys []string
	err  error
}

func (l *countingLocker) Lock(_ context.Context, key string) (lock.Unlock, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	l.keys = append(l.keys, key)
	return func(context.Context) error { return nil }, nil
}

var errLockUnavailable = errors.New("lock backend unavailable")

// fixture wires both services over one in-memory store.
type fixture struct {
	store        *repository.Memory
	publisher    *recordingPublisher
	metrics      *metrics.Metrics
	enrollments  *EnrollmentService
	certificates *CertificateService
	clock        time.Time
}

func newFixture() *fixture {
	f := &fixture{
		store:     repository.NewMemory(),
		publisher: &recordingPublisher{},
		metrics:   metrics.New(prometheus.NewRegistry()),
		clock:     time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	log := logger.Discard()
	f.enrollments = NewEnrollmentService(log, f.store, f.store, nil, f.publisher, f.metrics)
	f.certificates = NewCertificateService(log, f.store, f.store, nil, NewHasher(legacySalt), f.publisher, f.metrics)

	var mu sync.Mutex
	tick := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		f.clock = f.clock.Add(time.Second)
		return f.clock
	}
	f.enrollments.now = tick
	f.certificates.now = tick
	return f
}

func (f *fixture) event(capacity *int, required ...int64) model.Event {
	return f.store.PutEvent(model.Event{Name: "Go Workshop", Capacity: capacity, RequiredCourseIDs: required})
}

func (f *fixture) student(name string, courses ...int64) model.Student {
	return f.store.PutStudent(model.Student{Person: model.Person{Name: name}, CourseIDs: courses})
}

func (f *fixture) speaker() model.Speaker {
	return f.store.PutSpeaker(model.Speaker{Person: model.Person{Name: "Dr. Lima"}})
}
