// Package ping keeps the status line shown by the site's ping demo.
package ping

import (
	"context"
	"sync"
)

const loadingText = "Loading..."

// Fetcher is satisfied by *api.Client.
type Fetcher interface {
	Ping(ctx context.Context) (string, error)
}

type State struct {
	Loading bool
	Result  string
}

// Client holds the latest ping outcome. Only the most recently started
// refresh may write its result; a slower, older response is dropped.
type Client struct {
	fetcher Fetcher

	mu        sync.Mutex
	state     State
	seq       uint64
	listeners []func(State)
}

func NewClient(fetcher Fetcher) *Client {
	return &Client{
		fetcher: fetcher,
		state:   State{Loading: true, Result: loadingText},
	}
}

func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// OnChange registers fn to be called after every state transition.
func (c *Client) OnChange(fn func(State)) {
	c.mu.Lock()
	c.listeners = append(c.listeners, fn)
	c.mu.Unlock()
}

// Refresh issues one ping and blocks until it settles. Failures are folded
// into the result text.
func (c *Client) Refresh(ctx context.Context) State {
	c.mu.Lock()
	c.seq++
	seq := c.seq
	c.state.Loading = true
	c.mu.Unlock()
	c.notify()

	result, err := c.fetcher.Ping(ctx)
	if err != nil {
		result = "Error: " + err.Error()
	}

	c.mu.Lock()
	if seq != c.seq {
		current := c.state
		c.mu.Unlock()
		return current
	}
	c.state = State{Loading: false, Result: result}
	current := c.state
	c.mu.Unlock()
	c.notify()

	return current
}

// Mount starts the initial refresh in the background. The returned channel
// is closed once it settles.
func (c *Client) Mount(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		c.Refresh(ctx)
	}()
	return done
}

func (c *Client) notify() {
	c.mu.Lock()
	state := c.state
	listeners := append([]func(State){}, c.listeners...)
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(state)
	}
}
