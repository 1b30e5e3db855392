package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/segnala-service/internal/domain"
	"github.com/spec-kit/segnala-service/internal/notify"
	"github.com/spec-kit/segnala-service/internal/repository"
)

// memStore is an in-memory request + timeline store shared by the repository fakes.
type memStore struct {
	mu        sync.Mutex
	requests  map[string]domain.Request
	profiles  map[string]domain.Profile
	events    []domain.TimelineEvent
	seq       map[string]int64
	appendErr error
	updateErr error
}

func newMemStore() *memStore {
	return &memStore{
		requests: map[string]domain.Request{},
		profiles: map[string]domain.Profile{},
		seq:      map[string]int64{},
	}
}

func (s *memStore) addProfile(p domain.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.ID] = p
}

func (s *memStore) addRequest(r domain.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests[r.ID] = r
}

func (s *memStore) request(id string) domain.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[id]
}

func (s *memStore) eventsFor(id string) []domain.TimelineEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.TimelineEvent
	for _, ev := range s.events {
		if ev.RequestID == id {
			out = append(out, ev)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

type snapshot struct {
	requests map[string]domain.Request
	events   []domain.TimelineEvent
	seq      map[string]int64
}

func (s *memStore) snapshot() snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := snapshot{
		requests: make(map[string]domain.Request, len(s.requests)),
		events:   append([]domain.TimelineEvent(nil), s.events...),
		seq:      make(map[string]int64, len(s.seq)),
	}
	for k, v := range s.requests {
		snap.requests[k] = v
	}
	for k, v := range s.seq {
		snap.seq[k] = v
	}
	return snap
}

func (s *memStore) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = snap.requests
	s.events = snap.events
	s.seq = snap.seq
}

type memRequests struct{ store *memStore }

func (m memRequests) Create(ctx context.Context, r *domain.Request) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	m.store.requests[r.ID] = *r
	return nil
}

func (m memRequests) GetByID(ctx context.Context, id string) (*domain.RequestWithRequester, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	r, ok := m.store.requests[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	out := &domain.RequestWithRequester{Request: r}
	if p, ok := m.store.profiles[r.UserID]; ok {
		out.Requester = &p
	}
	return out, nil
}

func (m memRequests) UpdateStatus(ctx context.Context, id string, stato domain.RequestStatus) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	if m.store.updateErr != nil {
		return m.store.updateErr
	}
	r, ok := m.store.requests[id]
	if !ok {
		return pgx.ErrNoRows
	}
	r.Stato = stato
	m.store.requests[id] = r
	return nil
}

func (m memRequests) UpdateNote(ctx context.Context, id string, note string) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	r, ok := m.store.requests[id]
	if !ok {
		return pgx.ErrNoRows
	}
	r.NoteAdmin = &note
	m.store.requests[id] = r
	return nil
}

func (m memRequests) List(ctx context.Context, filter repository.RequestFilter) ([]domain.RequestWithRequester, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	var out []domain.RequestWithRequester
	for _, r := range m.store.requests {
		if filter.UserID != nil && r.UserID != *filter.UserID {
			continue
		}
		if filter.Stato != nil && r.Stato != *filter.Stato {
			continue
		}
		if term := strings.ToLower(filter.Search); term != "" &&
			!strings.Contains(strings.ToLower(r.Titolo), term) &&
			!strings.Contains(strings.ToLower(r.Descrizione), term) {
			continue
		}
		out = append(out, domain.RequestWithRequester{Request: r})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m memRequests) Stats(ctx context.Context) (*domain.RequestStats, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	stats := &domain.RequestStats{ByStatus: map[domain.RequestStatus]int{}, ByCategory: map[domain.Category]int{}}
	for _, r := range m.store.requests {
		stats.Total++
		stats.ByStatus[r.Stato]++
		stats.ByCategory[r.Categoria]++
	}
	return stats, nil
}

type memTimeline struct{ store *memStore }

func (m memTimeline) Append(ctx context.Context, event *domain.TimelineEvent) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	if m.store.appendErr != nil {
		return m.store.appendErr
	}
	if _, ok := m.store.requests[event.RequestID]; !ok {
		return pgx.ErrNoRows
	}
	m.store.seq[event.RequestID]++
	event.Seq = m.store.seq[event.RequestID]
	event.ID = fmt.Sprintf("%s-%d", event.RequestID, event.Seq)
	m.store.events = append(m.store.events, *event)
	return nil
}

func (m memTimeline) ListByRequest(ctx context.Context, requestID string) ([]domain.TimelineEvent, error) {
	return m.store.eventsFor(requestID), nil
}

// fakeTx serializes transactions and restores the store when fn fails.
type fakeTx struct {
	mu    sync.Mutex
	store *memStore
	runs  int
}

func (f *fakeTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs++
	snap := f.store.snapshot()
	if err := fn(ctx); err != nil {
		f.store.restore(snap)
		return err
	}
	return nil
}

type mockMessageRepository struct {
	ListByRequestFunc func(ctx context.Context, requestID string) ([]domain.Message, error)
}

func (m *mockMessageRepository) ListByRequest(ctx context.Context, requestID string) ([]domain.Message, error) {
	if m.ListByRequestFunc != nil {
		return m.ListByRequestFunc(ctx, requestID)
	}
	return nil, nil
}

type mockChannel struct {
	mu       sync.Mutex
	SendFunc func(ctx context.Context, email notify.Email) error
	sent     []notify.Email
}

func (m *mockChannel) Send(ctx context.Context, email notify.Email) error {
	if m.SendFunc != nil {
		if err := m.SendFunc(ctx, email); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, email)
	return nil
}

type mockStatsCache struct {
	GetFunc        func(ctx context.Context) (*domain.RequestStats, bool, error)
	SetFunc        func(ctx context.Context, stats *domain.RequestStats) error
	InvalidateFunc func(ctx context.Context) error
}

func (m *mockStatsCache) Get(ctx context.Context) (*domain.RequestStats, bool, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx)
	}
	return nil, false, nil
}

func (m *mockStatsCache) Set(ctx context.Context, stats *domain.RequestStats) error {
	if m.SetFunc != nil {
		return m.SetFunc(ctx, stats)
	}
	return nil
}

func (m *mockStatsCache) Invalidate(ctx context.Context) error {
	if m.InvalidateFunc != nil {
		return m.InvalidateFunc(ctx)
	}
	return nil
}

type mockProfileRepository struct {
	GetByIDFunc func(ctx context.Context, id string) (*domain.Profile, error)
	ListFunc    func(ctx context.Context) ([]domain.Profile, error)
	UpdateFunc  func(ctx context.Context, profile *domain.Profile) error
}

func (m *mockProfileRepository) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, pgx.ErrNoRows
}

func (m *mockProfileRepository) List(ctx context.Context) ([]domain.Profile, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return nil, nil
}

func (m *mockProfileRepository) Update(ctx context.Context, profile *domain.Profile) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, profile)
	}
	return nil
}

var errStoreDown = errors.New("store unavailable")

var (
	adminActor     = domain.Actor{ID: "admin-1", Ruolo: domain.RoleAdmin}
	requesterActor = domain.Actor{ID: "user-1", Ruolo: domain.RoleRichiedente}
)

var nopLogger = zap.NewNop()
