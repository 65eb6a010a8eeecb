// Package chat keeps the conversation transcript with the portfolio assistant.
package chat

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"

	"portfolio-site/internal/api"
	"portfolio-site/internal/model"
)

const (
	fallbackErrorText = "Failed to get response"
	errorTurnPrefix   = "Sorry, I encountered an error: "
)

// Sender is satisfied by *api.Client.
type Sender interface {
	Chat(ctx context.Context, req api.ChatRequest) (*api.ChatResponse, error)
}

type State struct {
	Messages []model.ChatTurn
	Loading  bool
	Error    string
	// Sources are the documents cited by the latest successful reply.
	Sources []model.Source
}

type Client struct {
	sender Sender
	useRAG *bool

	mu        sync.Mutex
	messages  []model.ChatTurn
	loading   bool
	errText   string
	sources   []model.Source
	listeners []func(State)
}

type Option func(*Client)

// WithUseRAG sets the use_rag flag on every request. Without it the flag is
// omitted and the backend default applies.
func WithUseRAG(enabled bool) Option {
	return func(c *Client) {
		c.useRAG = &enabled
	}
}

func NewClient(sender Sender, opts ...Option) *Client {
	c := &Client{sender: sender}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) OnChange(fn func(State)) {
	c.mu.Lock()
	c.listeners = append(c.listeners, fn)
	c.mu.Unlock()
}

func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// SendMessage appends text as a user turn and waits for the assistant's
// reply. Blank text is ignored. A failed request still ends with an
// assistant turn describing the error.
func (c *Client) SendMessage(ctx context.Context, text string) State {
	if strings.TrimSpace(text) == "" {
		return c.State()
	}

	c.mu.Lock()
	history := append([]model.ChatTurn{}, c.messages...)
	c.messages = append(c.messages, model.ChatTurn{Role: model.RoleUser, Content: text})
	c.loading = true
	c.errText = ""
	c.mu.Unlock()
	c.notify()

	resp, err := c.sender.Chat(ctx, api.ChatRequest{
		Message: text,
		History: history,
		UseRAG:  c.useRAG,
	})

	c.mu.Lock()
	if err != nil {
		msg := errorText(err)
		log.Printf("chat request failed: %v", err)
		c.errText = msg
		c.messages = append(c.messages, model.ChatTurn{Role: model.RoleAssistant, Content: errorTurnPrefix + msg})
	} else {
		c.messages = append(c.messages, model.ChatTurn{Role: model.RoleAssistant, Content: resp.Response})
		c.sources = resp.Sources
	}
	c.loading = false
	state := c.snapshotLocked()
	c.mu.Unlock()
	c.notify()

	return state
}

// ClearMessages empties the transcript and the error. An in-flight reply
// still lands in the cleared transcript.
func (c *Client) ClearMessages() {
	c.mu.Lock()
	c.messages = nil
	c.errText = ""
	c.sources = nil
	c.mu.Unlock()
	c.notify()
}

// errorText picks the message shown to the visitor: the backend's detail for
// a rejected request, the transport error otherwise.
func errorText(err error) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		return api.DetailOr(err, fallbackErrorText)
	}
	return err.Error()
}

func (c *Client) snapshotLocked() State {
	return State{
		Messages: append([]model.ChatTurn{}, c.messages...),
		Loading:  c.loading,
		Error:    c.errText,
		Sources:  append([]model.Source{}, c.sources...),
	}
}

func (c *Client) notify() {
	c.mu.Lock()
	state := c.snapshotLocked()
	listeners := append([]func(State){}, c.listeners...)
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(state)
	}
}
