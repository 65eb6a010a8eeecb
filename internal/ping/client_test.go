package ping

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fetcherFunc func(ctx context.Context) (string, error)

func (f fetcherFunc) Ping(ctx context.Context) (string, error) {
	return f(ctx)
}

func TestInitialState(t *testing.T) {
	c := NewClient(fetcherFunc(func(context.Context) (string, error) { return "", nil }))
	assert.Equal(t, State{Loading: true, Result: "Loading..."}, c.State())
}

func TestRefreshSuccess(t *testing.T) {
	c := NewClient(fetcherFunc(func(context.Context) (string, error) { return "pong", nil }))

	state := c.Refresh(context.Background())
	assert.Equal(t, State{Loading: false, Result: "pong"}, state)
	assert.Equal(t, state, c.State())
}

func TestRefreshError(t *testing.T) {
	c := NewClient(fetcherFunc(func(context.Context) (string, error) { return "", errors.New("network") }))

	state := c.Refresh(context.Background())
	assert.Equal(t, State{Loading: false, Result: "Error: network"}, state)
}

func TestTwoRefreshesIssueTwoRequests(t *testing.T) {
	var calls int32
	c := NewClient(fetcherFunc(func(context.Context) (string, error) {
		n := atomic.AddInt32(&calls, 1)
		if n == 1 {
			return "first", nil
		}
		return "second", nil
	}))

	c.Refresh(context.Background())
	state := c.Refresh(context.Background())

	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
	assert.Equal(t, "second", state.Result)
	assert.False(t, state.Loading)
}

func TestStaleResponseIsDropped(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	var calls int32
	c := NewClient(fetcherFunc(func(context.Context) (string, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			close(started)
			<-release
			return "stale", nil
		}
		return "fresh", nil
	}))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.Refresh(context.Background())
	}()
	<-started

	assert.Equal(t, "fresh", c.Refresh(context.Background()).Result)
	close(release)
	wg.Wait()

	assert.Equal(t, State{Loading: false, Result: "fresh"}, c.State())
}

func TestMountNotifiesListeners(t *testing.T) {
	c := NewClient(fetcherFunc(func(context.Context) (string, error) { return "pong", nil }))

	var mu sync.Mutex
	var seen []State
	c.OnChange(func(s State) {
		mu.Lock()
		seen = append(seen, s)
		mu.Unlock()
	})

	<-c.Mount(context.Background())

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 2)
	assert.True(t, seen[0].Loading)
	assert.Equal(t, State{Loading: false, Result: "pong"}, seen[1])
}
