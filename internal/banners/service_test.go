package banners

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irrigo/irrigo/internal/shared"
)

type memoryRepository struct {
	banners map[int64]Banner
	nextID  int64
}

func newMemoryRepository(seed ...Banner) *memoryRepository {
	m := &memoryRepository{banners: map[int64]Banner{}, nextID: 100}
	for _, b := range seed {
		m.banners[b.ID] = b
	}
	return m
}

func (m *memoryRepository) sorted(keep func(Banner) bool) []Banner {
	out := []Banner{}
	for _, b := range m.banners {
		if keep(b) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (m *memoryRepository) ListActive(ctx context.Context, now time.Time) ([]Banner, error) {
	return m.sorted(func(b Banner) bool { return b.LiveAt(now) }), nil
}

func (m *memoryRepository) ListAll(ctx context.Context) ([]Banner, error) {
	return m.sorted(func(Banner) bool { return true }), nil
}

func (m *memoryRepository) Get(ctx context.Context, id int64) (*Banner, error) {
	b, ok := m.banners[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &b, nil
}

func (m *memoryRepository) Create(ctx context.Context, in Input) (*Banner, error) {
	b := Banner{ID: m.nextID, Message: in.Message, LinkURL: in.LinkURL, StartsAt: in.StartsAt, EndsAt: in.EndsAt,
		Active: active(in), Position: in.Position}
	m.banners[b.ID] = b
	m.nextID++
	return &b, nil
}

func (m *memoryRepository) Update(ctx context.Context, id int64, in Input) (*Banner, error) {
	if _, ok := m.banners[id]; !ok {
		return nil, shared.ErrNotFound
	}
	b := Banner{ID: id, Message: in.Message, StartsAt: in.StartsAt, EndsAt: in.EndsAt, Active: active(in), Position: in.Position}
	m.banners[id] = b
	return &b, nil
}

func (m *memoryRepository) Delete(ctx context.Context, id int64) error {
	delete(m.banners, id)
	return nil
}

func (m *memoryRepository) ExpireEnded(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	for id, b := range m.banners {
		if b.Active && b.EndsAt != nil && !b.EndsAt.After(now) {
			b.Active = false
			m.banners[id] = b
			n++
		}
	}
	return n, nil
}

var clock = time.Date(2026, 5, 20, 12, 0, 0, 0, time.UTC)

func at(d time.Duration) *time.Time {
	t := clock.Add(d)
	return &t
}

func fixtureBanners() []Banner {
	return []Banner{
		{ID: 1, Message: "Open ended", Active: true, Position: 2},
		{ID: 2, Message: "Running now", Active: true, Position: 1, StartsAt: at(-time.Hour), EndsAt: at(time.Hour)},
		{ID: 3, Message: "Future", Active: true, StartsAt: at(time.Hour)},
		{ID: 4, Message: "Ended exactly now", Active: true, EndsAt: at(0)},
		{ID: 5, Message: "Switched off", Active: false},
	}
}

func TestLiveAtWindow(t *testing.T) {
	live := []int64{}
	for _, b := range fixtureBanners() {
		if b.LiveAt(clock) {
			live = append(live, b.ID)
		}
	}
	assert.Equal(t, []int64{1, 2}, live)
}

func newTestService(repo Repository) *Service {
	svc := NewService(repo, nil)
	svc.now = func() time.Time { return clock }
	return svc
}

func TestServiceLiveOrderedByPosition(t *testing.T) {
	svc := newTestService(newMemoryRepository(fixtureBanners()...))
	items, err := svc.Live(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, int64(2), items[0].ID)
	assert.Equal(t, int64(1), items[1].ID)
}

func TestServiceExpireEndedReloadsRotator(t *testing.T) {
	repo := newMemoryRepository(fixtureBanners()...)
	svc := newTestService(repo)
	rotator := NewRotator(func(ctx context.Context) ([]Banner, error) { return svc.Live(ctx) }, time.Minute, 0, nil)
	svc.AttachRotator(rotator)

	n, err := svc.ExpireEnded(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.False(t, repo.banners[4].Active)
	assert.Equal(t, 2, rotator.State().Count)

	_, err = svc.Create(context.Background(), Input{Message: "Flash sale", Position: 0})
	require.NoError(t, err)
	assert.Equal(t, 3, rotator.State().Count)
}

func TestServiceValidation(t *testing.T) {
	svc := newTestService(newMemoryRepository())
	_, err := svc.Create(context.Background(), Input{Message: "x", StartsAt: at(time.Hour), EndsAt: at(time.Hour)})
	var fields shared.FieldErrors
	require.ErrorAs(t, err, &fields)
	assert.Contains(t, fields, "ends_at")

	_, err = svc.Create(context.Background(), Input{Message: " ", LinkURL: "promo"})
	require.ErrorAs(t, err, &fields)
	assert.Contains(t, fields, "message")
	assert.Contains(t, fields, "link_url")
}

func TestHandlerRotationEndpoints(t *testing.T) {
	svc := newTestService(newMemoryRepository(fixtureBanners()...))
	rotator := NewRotator(func(ctx context.Context) ([]Banner, error) { return svc.Live(ctx) }, time.Minute, 0, nil)
	rotator.Reload(context.Background())
	svc.AttachRotator(rotator)

	h := NewHandler(nil, svc)
	r := chi.NewRouter()
	r.Route("/api/banners", h.MountPublic)
	r.Route("/admin/api/banners", h.MountAdmin)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/banners/current", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var state State
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	require.NotNil(t, state.Current)
	assert.Equal(t, int64(2), state.Current.ID)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/api/banners/rotation/next", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.Equal(t, int64(1), state.Current.ID)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/api/banners/rotation/pause", nil))
	assert.True(t, strings.Contains(rec.Body.String(), `"paused":true`))

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/api/banners/rotation/spin", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/banners", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var live []Banner
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &live))
	assert.Len(t, live, 2)
}
