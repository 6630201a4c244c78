package banners

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func set(ids ...int64) []Banner {
	out := make([]Banner, len(ids))
	for i, id := range ids {
		out[i] = Banner{ID: id, Message: "banner", Active: true}
	}
	return out
}

func currentID(t *testing.T, r *Rotator) int64 {
	t.Helper()
	b, ok := r.Current()
	require.True(t, ok)
	return b.ID
}

func TestRotatorNavigationWraps(t *testing.T) {
	r := NewRotator(nil, time.Second, 0, nil)
	_, ok := r.Current()
	assert.False(t, ok)
	assert.Equal(t, State{}, r.Next())

	r.Replace(set(1, 2, 3))
	assert.Equal(t, int64(1), currentID(t, r))
	assert.Equal(t, int64(3), r.Prev().Current.ID)
	assert.Equal(t, int64(1), r.Next().Current.ID)
	r.Next()
	r.Next()
	assert.Equal(t, int64(1), r.Next().Current.ID)
}

func TestRotatorSkipsBannersThatEnded(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	r := NewRotator(nil, time.Second, 0, nil)
	r.now = func() time.Time { return now }

	banners := set(1, 2, 3)
	ended := now.Add(-time.Minute)
	banners[1].EndsAt = &ended
	r.Replace(banners)

	assert.Equal(t, int64(3), r.Next().Current.ID)
	assert.Equal(t, int64(1), r.Prev().Current.ID)

	banners[0].EndsAt = &ended
	r.Replace(banners)
	state := r.State()
	require.NotNil(t, state.Current)
	assert.Equal(t, int64(3), state.Current.ID)
	assert.Equal(t, 2, state.Index)

	banners[2].EndsAt = &ended
	r.Replace(banners)
	_, ok := r.Current()
	assert.False(t, ok)
	assert.Nil(t, r.State().Current)
}

func TestRotatorReplaceKeepsCurrent(t *testing.T) {
	r := NewRotator(nil, time.Second, 0, nil)
	r.Replace(set(1, 2, 3))
	r.Next()
	require.Equal(t, int64(2), currentID(t, r))

	r.Replace(set(5, 2))
	assert.Equal(t, int64(2), currentID(t, r))
	assert.Equal(t, 1, r.State().Index)

	r.Replace(set(7, 8))
	assert.Equal(t, int64(7), currentID(t, r))

	r.Replace(nil)
	assert.Equal(t, State{}, r.State())
}

func TestRotatorRunAdvancesAndStops(t *testing.T) {
	defer goleak.VerifyNone(t)

	var loads atomic.Int32
	r := NewRotator(func(context.Context) ([]Banner, error) {
		loads.Add(1)
		return set(1, 2), nil
	}, 5*time.Millisecond, 3, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	seen := map[int64]bool{}
	assert.Eventually(t, func() bool {
		if b, ok := r.Current(); ok {
			seen[b.ID] = true
		}
		return seen[1] && seen[2]
	}, time.Second, time.Millisecond)
	assert.Eventually(t, func() bool { return loads.Load() >= 2 }, time.Second, time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("rotator did not stop")
	}
}

func TestRotatorPauseHoldsPosition(t *testing.T) {
	defer goleak.VerifyNone(t)

	r := NewRotator(func(context.Context) ([]Banner, error) { return set(1, 2, 3), nil }, 2*time.Millisecond, 0, nil)
	r.Reload(context.Background())
	r.Pause()

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = r.Run(ctx)
	}()

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int64(1), currentID(t, r))
	assert.True(t, r.State().Paused)
	assert.Equal(t, int64(2), r.Next().Current.ID)

	r.Resume()
	assert.Eventually(t, func() bool { return currentID(t, r) != 2 }, time.Second, time.Millisecond)

	cancel()
	wg.Wait()
}

func TestRotatorKeepsSetWhenReloadFails(t *testing.T) {
	fail := false
	r := NewRotator(func(context.Context) ([]Banner, error) {
		if fail {
			return nil, errors.New("database unavailable")
		}
		return set(4, 5), nil
	}, time.Second, 1, nil)

	r.Reload(context.Background())
	fail = true
	r.Reload(context.Background())
	assert.Equal(t, 2, r.State().Count)
}

func TestRotatorConcurrentAccess(t *testing.T) {
	r := NewRotator(nil, time.Second, 0, nil)
	r.Replace(set(1, 2, 3, 4))

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				switch i % 4 {
				case 0:
					r.Next()
				case 1:
					r.Prev()
				case 2:
					r.Replace(set(1, 2, 3, 4))
				default:
					state := r.State()
					assert.Less(t, state.Index, 4)
				}
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 4, r.State().Count)
}
