package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newVersioned(t *testing.T) (*Versioned, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewVersioned(client, "catalog", time.Minute), mr
}

func TestFetchJSONCachesUntilBump(t *testing.T) {
	c, _ := newVersioned(t)
	ctx := context.Background()

	var calls int32
	loader := func(context.Context) (any, error) {
		n := atomic.AddInt32(&calls, 1)
		return []int{int(n)}, nil
	}

	var first, second, third []int
	require.NoError(t, c.FetchJSON(ctx, &first, loader, "products"))
	require.NoError(t, c.FetchJSON(ctx, &second, loader, "products"))
	assert.Equal(t, []int{1}, first)
	assert.Equal(t, []int{1}, second)

	require.NoError(t, c.Bump(ctx))
	require.NoError(t, c.FetchJSON(ctx, &third, loader, "products"))
	assert.Equal(t, []int{2}, third)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestFetchJSONLoaderError(t *testing.T) {
	c, mr := newVersioned(t)
	boom := errors.New("boom")

	var dest []int
	err := c.FetchJSON(context.Background(), &dest, func(context.Context) (any, error) { return nil, boom }, "x")
	assert.ErrorIs(t, err, boom)
	assert.Len(t, mr.Keys(), 1, "only the version key is written")
}

func TestFetchJSONSharesConcurrentMisses(t *testing.T) {
	c, _ := newVersioned(t)
	ctx := context.Background()

	var calls int32
	release := make(chan struct{})
	loader := func(context.Context) (any, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return "ok", nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var out string
			assert.NoError(t, c.FetchJSON(ctx, &out, loader, "shared"))
			assert.Equal(t, "ok", out)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.LessOrEqual(t, atomic.LoadInt32(&calls), int32(5))
	assert.GreaterOrEqual(t, atomic.LoadInt32(&calls), int32(1))
}

func TestNilClientCallsLoader(t *testing.T) {
	c := NewVersioned(nil, "x", time.Minute)
	var out map[string]int
	require.NoError(t, c.FetchJSON(context.Background(), &out, func(context.Context) (any, error) {
		return map[string]int{"a": 1}, nil
	}))
	assert.Equal(t, 1, out["a"])
	assert.NoError(t, c.Bump(context.Background()))
}
