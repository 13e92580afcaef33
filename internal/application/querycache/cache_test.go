package querycache_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fizyostok/stok-api/internal/application/querycache"
	"github.com/fizyostok/stok-api/internal/domain"
	"github.com/fizyostok/stok-api/internal/infrastructure/cache"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newCache(t *testing.T, retries int) (*querycache.Cache, *clock) {
	t.Helper()
	clk := &clock{now: time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)}
	store := cache.NewMemoryStore(clk.Now)
	return querycache.New(store, querycache.Options{StaleTime: 5 * time.Minute, Retries: retries}, nil), clk
}

func itemsKey(user string) querycache.Key {
	return querycache.Key{Resource: querycache.Items, Filter: "category=c1", UserID: user}
}

func TestFetch_SirveDesdeCacheDentroDelStaleTime(t *testing.T) {
	c, clk := newCache(t, 1)
	ctx := context.Background()
	var calls int32
	fn := func(context.Context) ([]string, error) {
		atomic.AddInt32(&calls, 1)
		return []string{"Kinesyo bandı"}, nil
	}

	r := querycache.Fetch(ctx, c, itemsKey("u1"), fn)
	require.NoError(t, r.Err)
	assert.False(t, r.Cached)

	clk.Advance(4 * time.Minute)
	r = querycache.Fetch(ctx, c, itemsKey("u1"), fn)
	require.NoError(t, r.Err)
	assert.True(t, r.Cached)
	assert.Equal(t, []string{"Kinesyo bandı"}, r.Data)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	clk.Advance(2 * time.Minute)
	r = querycache.Fetch(ctx, c, itemsKey("u1"), fn)
	require.NoError(t, r.Err)
	assert.False(t, r.Cached)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestFetch_InvalidateFuerzaRefetch(t *testing.T) {
	c, _ := newCache(t, 1)
	ctx := context.Background()
	var calls int32
	fn := func(context.Context) (int, error) {
		return int(atomic.AddInt32(&calls, 1)), nil
	}

	first := querycache.Fetch(ctx, c, itemsKey("u1"), fn)
	require.NoError(t, first.Err)
	movKey := querycache.Key{Resource: querycache.StockMovements, Filter: "range=all", UserID: "u1"}
	_ = querycache.Fetch(ctx, c, movKey, fn)

	require.NoError(t, c.Invalidate(ctx, querycache.Items))

	again := querycache.Fetch(ctx, c, itemsKey("u1"), fn)
	require.NoError(t, again.Err)
	assert.False(t, again.Cached)
	assert.NotEqual(t, first.Data, again.Data)

	// stock_movements no se invalidó.
	mov := querycache.Fetch(ctx, c, movKey, fn)
	assert.True(t, mov.Cached)
}

func TestFetch_SinUsuarioDeshabilitada(t *testing.T) {
	c, _ := newCache(t, 1)
	called := false
	r := querycache.Fetch(context.Background(), c, itemsKey(""), func(context.Context) (int, error) {
		called = true
		return 1, nil
	})
	assert.ErrorIs(t, r.Err, domain.ErrUnauthorized)
	assert.False(t, called)
}

func TestFetch_ReintentaUnaVez(t *testing.T) {
	c, _ := newCache(t, 1)
	ctx := context.Background()
	var calls int
	boom := domain.Transport("select items", errors.New("connection reset by peer"))
	r := querycache.Fetch(ctx, c, itemsKey("u1"), func(context.Context) (int, error) {
		calls++
		return 0, boom
	})
	assert.Equal(t, 2, calls)
	require.Error(t, r.Err)
	assert.Equal(t, "connection reset by peer", r.Err.Error())

	st := c.State(itemsKey("u1"))
	assert.False(t, st.IsLoading)
	assert.Error(t, st.Err)
}

func TestFetch_ReintentoRecupera(t *testing.T) {
	c, _ := newCache(t, 1)
	var calls int
	r := querycache.Fetch(context.Background(), c, itemsKey("u1"), func(context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", errors.New("timeout")
		}
		return "ok", nil
	})
	require.NoError(t, r.Err)
	assert.Equal(t, "ok", r.Data)
	assert.Equal(t, 2, calls)
	assert.NoError(t, c.State(itemsKey("u1")).Err)
}

func TestFetch_NoReintentaErroresDeDominio(t *testing.T) {
	c, _ := newCache(t, 1)
	var calls int
	r := querycache.Fetch(context.Background(), c, itemsKey("u1"), func(context.Context) (int, error) {
		calls++
		return 0, domain.ErrNotFound
	})
	assert.ErrorIs(t, r.Err, domain.ErrNotFound)
	assert.Equal(t, 1, calls)
}

func TestFetch_UsuariosSeparados(t *testing.T) {
	c, _ := newCache(t, 0)
	ctx := context.Background()
	a := querycache.Fetch(ctx, c, itemsKey("u1"), func(context.Context) (string, error) { return "de u1", nil })
	b := querycache.Fetch(ctx, c, itemsKey("u2"), func(context.Context) (string, error) { return "de u2", nil })
	require.NoError(t, a.Err)
	require.NoError(t, b.Err)
	assert.Equal(t, "de u2", b.Data)
	assert.False(t, b.Cached)
}

func TestFetch_ConcurrentesComparten(t *testing.T) {
	c, _ := newCache(t, 0)
	ctx := context.Background()
	var calls int32
	release := make(chan struct{})
	fn := func(context.Context) (int, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return 7, nil
	}

	var wg sync.WaitGroup
	results := make([]querycache.Result[int], 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = querycache.Fetch(ctx, c, itemsKey("u1"), fn)
		}(i)
	}
	// Los que llegan tarde encuentran la entrada ya guardada o comparten la llamada en curso.
	time.Sleep(50 * time.Millisecond)
	assert.True(t, c.State(itemsKey("u1")).IsLoading)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	for _, r := range results {
		require.NoError(t, r.Err)
		assert.Equal(t, 7, r.Data)
	}
}

// Si el primer llamador cancela, la lectura compartida sigue y los demás reciben el dato.
func TestFetch_CancelarUnLlamadorNoCortaLaLecturaCompartida(t *testing.T) {
	c, _ := newCache(t, 1)
	var calls int32
	started := make(chan struct{})
	release := make(chan struct{})
	fnErr := make(chan error, 1)
	fn := func(ctx context.Context) (int, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			close(started)
		}
		<-release
		fnErr <- ctx.Err()
		return 7, nil
	}

	ctxA, cancelA := context.WithCancel(context.Background())
	resA := make(chan querycache.Result[int], 1)
	go func() { resA <- querycache.Fetch(ctxA, c, itemsKey("u1"), fn) }()
	<-started

	resB := make(chan querycache.Result[int], 1)
	go func() { resB <- querycache.Fetch(context.Background(), c, itemsKey("u1"), fn) }()
	time.Sleep(50 * time.Millisecond)

	cancelA()
	a := <-resA
	assert.ErrorIs(t, a.Err, context.Canceled)
	assert.True(t, a.IsLoading, "la lectura sigue en curso")
	assert.True(t, c.State(itemsKey("u1")).IsLoading)

	close(release)
	b := <-resB
	require.NoError(t, b.Err)
	assert.Equal(t, 7, b.Data)
	assert.False(t, b.IsLoading)
	assert.NoError(t, <-fnErr, "la lectura no hereda la cancelación")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.False(t, c.State(itemsKey("u1")).IsLoading)

	again := querycache.Fetch(context.Background(), c, itemsKey("u1"), fn)
	require.NoError(t, again.Err)
	assert.True(t, again.Cached)
}
