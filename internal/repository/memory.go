package repository

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/Shivanand-hulikatti/event-enrollment/internal/model"
)

type memTxKey struct{}

// Memory is an in-process Catalog Store for development and tests. It also
// acts as its own transaction manager: RunInTx serialises transactions and
// restores enrollments and certificates when fn fails. Every access outside a
// transaction waits for the running one, so isolation is serializable at the
// cost of throughput.
type Memory struct {
	txMu sync.Mutex

	mu           sync.RWMutex
	students     map[int64]model.Student
	speakers     map[int64]model.Speaker
	courses      map[int64]model.Course
	events       map[int64]model.Event
	enrollments  map[int64]model.Enrollment
	certificates map[int64]model.Certificate
	nextID       int64
}

// NewMemory creates an empty Memory store.
func NewMemory() *Memory {
	return &Memory{
		students:     make(map[int64]model.Student),
		speakers:     make(map[int64]model.Speaker),
		courses:      make(map[int64]model.Course),
		events:       make(map[int64]model.Event),
		enrollments:  make(map[int64]model.Enrollment),
		certificates: make(map[int64]model.Certificate),
	}
}

// RunInTx runs fn while holding the store's transaction lock. Nested calls
// reuse the outer transaction.
func (m *Memory) RunInTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if ctx.Value(memTxKey{}) != nil {
		return fn(ctx)
	}

	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.RLock()
	enrollments := maps.Clone(m.enrollments)
	certificates := maps.Clone(m.certificates)
	m.mu.RUnlock()

	rollback := func() {
		m.mu.Lock()
		m.enrollments = enrollments
		m.certificates = certificates
		m.mu.Unlock()
	}

	defer func() {
		if r := recover(); r != nil {
			rollback()
			panic(r)
		}
	}()

	if err := fn(context.WithValue(ctx, memTxKey{}, true)); err != nil {
		rollback()
		return err
	}
	return nil
}

// exclusive serialises an access made outside RunInTx with running
// transactions: writes cannot be discarded by a rollback and reads never
// observe uncommitted state.
func (m *Memory) exclusive(ctx context.Context) func() {
	if ctx.Value(memTxKey{}) != nil {
		return func() {}
	}
	m.txMu.Lock()
	return m.txMu.Unlock
}

// id returns the next identifier. Caller holds mu.
func (m *Memory) id() int64 {
	m.nextID++
	return m.nextID
}

// PutCourse stores a course, assigning an id when zero. Names are unique
// ignoring case.
func (m *Memory) PutCourse(c model.Course) (model.Course, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.courses {
		if existing.ID != c.ID && strings.EqualFold(existing.Name, c.Name) {
			return model.Course{}, fmt.Errorf("course %q: %w", c.Name, model.ErrConflict)
		}
	}
	if c.ID == 0 {
		c.ID = m.id()
	} else {
		m.nextID = max(m.nextID, c.ID)
	}
	m.courses[c.ID] = c
	return c, nil
}

// PutStudent stores a student, assigning an id when zero.
func (m *Memory) PutStudent(s model.Student) model.Student {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.ID == 0 {
		s.ID = m.id()
	} else {
		m.nextID = max(m.nextID, s.ID)
	}
	s.CourseIDs = slices.Clone(s.CourseIDs)
	m.students[s.ID] = s
	return s
}

// PutSpeaker stores a speaker, assigning an id when zero.
func (m *Memory) PutSpeaker(s model.Speaker) model.Speaker {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.ID == 0 {
		s.ID = m.id()
	} else {
		m.nextID = max(m.nextID, s.ID)
	}
	m.speakers[s.ID] = s
	return s
}

// PutEvent stores an event, assigning an id when zero.
func (m *Memory) PutEvent(e model.Event) model.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.ID == 0 {
		e.ID = m.id()
	} else {
		m.nextID = max(m.nextID, e.ID)
	}
	e.RequiredCourseIDs = slices.Clone(e.RequiredCourseIDs)
	m.events[e.ID] = e
	return e
}

func (m *Memory) GetStudent(ctx context.Context, id int64) (*model.Student, error) {
	defer m.exclusive(ctx)()
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.students[id]
	if !ok {
		return nil, model.NewNotFound("student", id)
	}
	s.CourseIDs = slices.Clone(s.CourseIDs)
	return &s, nil
}

func (m *Memory) GetSpeaker(ctx context.Context, id int64) (*model.Speaker, error) {
	defer m.exclusive(ctx)()
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.speakers[id]
	if !ok {
		return nil, model.NewNotFound("speaker", id)
	}
	return &s, nil
}

func (m *Memory) GetCourse(ctx context.Context, id int64) (*model.Course, error) {
	defer m.exclusive(ctx)()
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.courses[id]
	if !ok {
		return nil, model.NewNotFound("course", id)
	}
	return &c, nil
}

func (m *Memory) GetEvent(ctx context.Context, id int64) (*model.Event, error) {
	defer m.exclusive(ctx)()
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.events[id]
	if !ok {
		return nil, model.NewNotFound("event", id)
	}
	e.RequiredCourseIDs = slices.Clone(e.RequiredCourseIDs)
	return &e, nil
}

// LockEvent is GetEvent; RunInTx already serialises writers.
func (m *Memory) LockEvent(ctx context.Context, id int64) (*model.Event, error) {
	return m.GetEvent(ctx, id)
}

func (m *Memory) FindEnrollment(ctx context.Context, personID, eventID int64) (*model.Enrollment, error) {
	defer m.exclusive(ctx)()
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, e := range m.enrollments {
		if e.PersonID == personID && e.EventID == eventID {
			return &e, nil
		}
	}
	return nil, model.NewNotFound("enrollment", [2]int64{personID, eventID})
}

func (m *Memory) GetEnrollment(ctx context.Context, id int64) (*model.Enrollment, error) {
	defer m.exclusive(ctx)()
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.enrollments[id]
	if !ok {
		return nil, model.NewNotFound("enrollment", id)
	}
	return &e, nil
}

func (m *Memory) CountEnrollmentsByEvent(ctx context.Context, eventID int64) (int, error) {
	defer m.exclusive(ctx)()
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, e := range m.enrollments {
		if e.EventID == eventID {
			n++
		}
	}
	return n, nil
}

func (m *Memory) ListEnrollmentsByEvent(ctx context.Context, eventID int64, attendance *model.Attendance) ([]model.Enrollment, error) {
	defer m.exclusive(ctx)()
	return m.filterEnrollments(func(e model.Enrollment) bool {
		return e.EventID == eventID && (attendance == nil || e.Attendance == *attendance)
	}), nil
}

func (m *Memory) ListEnrollmentsByPerson(ctx context.Context, personID int64) ([]model.Enrollment, error) {
	defer m.exclusive(ctx)()
	return m.filterEnrollments(func(e model.Enrollment) bool { return e.PersonID == personID }), nil
}

// filterEnrollments returns matches in registration order.
func (m *Memory) filterEnrollments(keep func(model.Enrollment) bool) []model.Enrollment {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []model.Enrollment{}
	for _, e := range m.enrollments {
		if keep(e) {
			out = append(out, e)
		}
	}
	slices.SortFunc(out, func(a, b model.Enrollment) int {
		if c := a.RegisteredAt.Compare(b.RegisteredAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

func (m *Memory) SaveEnrollment(ctx context.Context, e model.Enrollment) (*model.Enrollment, error) {
	defer m.exclusive(ctx)()
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.enrollments {
		if existing.PersonID == e.PersonID && existing.EventID == e.EventID {
			return nil, model.ErrAlreadyEnrolled
		}
	}
	if _, ok := m.students[e.PersonID]; !ok {
		return nil, model.NewNotFound("student", e.PersonID)
	}
	if _, ok := m.events[e.EventID]; !ok {
		return nil, model.NewNotFound("event", e.EventID)
	}
	if e.RegisteredAt.IsZero() {
		e.RegisteredAt = time.Now().UTC()
	}
	e.ID = m.id()
	m.enrollments[e.ID] = e
	return &e, nil
}

func (m *Memory) SetAttendance(ctx context.Context, id int64, attendance model.Attendance) (*model.Enrollment, error) {
	defer m.exclusive(ctx)()
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.enrollments[id]
	if !ok {
		return nil, model.NewNotFound("enrollment", id)
	}
	e.Attendance = attendance
	m.enrollments[id] = e
	return &e, nil
}

func (m *Memory) DeleteEnrollment(ctx context.Context, id int64) error {
	defer m.exclusive(ctx)()
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.enrollments[id]; !ok {
		return model.NewNotFound("enrollment", id)
	}
	delete(m.enrollments, id)
	return nil
}

func (m *Memory) ListCertificatesByPerson(ctx context.Context, personID int64) ([]model.Certificate, error) {
	defer m.exclusive(ctx)()
	return m.filterCertificates(func(c model.Certificate) bool { return c.PersonID == personID }), nil
}

func (m *Memory) ListCertificatesByEvent(ctx context.Context, eventID int64) ([]model.Certificate, error) {
	defer m.exclusive(ctx)()
	return m.filterCertificates(func(c model.Certificate) bool { return c.EventID == eventID }), nil
}

func (m *Memory) ListCertificates(ctx context.Context) ([]model.Certificate, error) {
	defer m.exclusive(ctx)()
	return m.filterCertificates(func(model.Certificate) bool { return true }), nil
}

func (m *Memory) filterCertificates(keep func(model.Certificate) bool) []model.Certificate {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []model.Certificate{}
	for _, c := range m.certificates {
		if keep(c) {
			out = append(out, c)
		}
	}
	slices.SortFunc(out, func(a, b model.Certificate) int {
		if c := a.IssuedAt.Compare(b.IssuedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

func (m *Memory) SaveCertificate(ctx context.Context, c model.Certificate) (*model.Certificate, error) {
	defer m.exclusive(ctx)()
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.certificates {
		if existing.Hash == c.Hash {
			return nil, model.ErrDuplicateHash
		}
	}
	if c.IssuedAt.IsZero() {
		c.IssuedAt = time.Now().UTC()
	}
	c.ID = m.id()
	m.certificates[c.ID] = c
	return &c, nil
}

func (m *Memory) FindCertificateByHash(ctx context.Context, hash string) (*model.Certificate, error) {
	defer m.exclusive(ctx)()
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.certificates {
		if c.Hash == hash {
			return &c, nil
		}
	}
	return nil, model.NewNotFound("certificate", hash)
}

func (m *Memory) DeleteCertificate(ctx context.Context, id int64) error {
	defer m.exclusive(ctx)()
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.certificates[id]; !ok {
		return model.NewNotFound("certificate", id)
	}
	delete(m.certificates, id)
	return nil
}
