// Package admin drives the credential-gated document manager.
package admin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"portfolio-site/internal/api"
	"portfolio-site/internal/kv"
	"portfolio-site/internal/model"
)

// CredentialKey is the storage slot holding the admin API key.
const CredentialKey = "admin_api_key"

const (
	msgEmptyKey       = "Please enter an API key"
	msgInvalidKey     = "Invalid API key"
	msgLoadFailed     = "Failed to load documents"
	msgConnectFailed  = "Failed to connect to backend"
	msgUploadFailed   = "Upload failed"
	msgUploadError    = "Failed to upload file"
	msgDeleteFailed   = "Delete failed"
	msgDeleteError    = "Failed to delete document"
	confirmDeleteText = `Are you sure you want to delete "%s"? This action cannot be undone.`
)

var (
	ErrUploadInProgress = errors.New("an upload is already in progress")
	ErrNotAuthenticated = errors.New("not authenticated")
)

// Backend is satisfied by *api.Client.
type Backend interface {
	ListDocuments(ctx context.Context, apiKey string) ([]model.Document, error)
	UploadDocument(ctx context.Context, apiKey, filename string, content io.Reader) (*api.UploadResult, error)
	DeleteDocument(ctx context.Context, apiKey, id string) (*api.DeleteResult, error)
	DocumentInfo(ctx context.Context, id string) (map[string]interface{}, error)
	StorageStats(ctx context.Context) (map[string]interface{}, error)
}

// Notifier receives an audit event for every login verdict and every
// successful upload or delete.
type Notifier interface {
	PublishAudit(ctx context.Context, event model.AuditEvent) error
}

// Confirmer is asked before a destructive action. Returning false cancels it.
type Confirmer func(prompt string) bool

// AlwaysConfirm accepts every prompt.
func AlwaysConfirm(string) bool { return true }

type Client struct {
	backend  Backend
	store    kv.Store
	notifier Notifier

	mu        sync.Mutex
	state     State
	loadSeq   uint64
	listeners []func(State)
}

type Option func(*Client)

func WithNotifier(n Notifier) Option {
	return func(c *Client) {
		c.notifier = n
	}
}

func NewClient(backend Backend, store kv.Store, opts ...Option) *Client {
	c := &Client{
		backend: backend,
		store:   store,
		state:   State{Session: Unauthenticated{}},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Client) OnChange(fn func(State)) {
	c.mu.Lock()
	c.listeners = append(c.listeners, fn)
	c.mu.Unlock()
}

// Restore picks up a credential persisted by an earlier session and verifies
// it. Nothing happens when no credential is stored.
func (c *Client) Restore(ctx context.Context) State {
	credential, ok, err := c.store.Get(ctx, CredentialKey)
	if err != nil {
		log.Printf("read stored credential failed: %v", err)
		return c.State()
	}
	if !ok || credential == "" {
		return c.State()
	}

	c.update(func(s *State) { s.Credential = credential })
	return c.VerifyAndLoad(ctx, credential)
}

// Login persists candidate before verifying it. A rejected candidate is
// erased again by VerifyAndLoad.
func (c *Client) Login(ctx context.Context, candidate string) State {
	if strings.TrimSpace(candidate) == "" {
		return c.update(func(s *State) { s.Error = msgEmptyKey })
	}

	if err := c.store.Set(ctx, CredentialKey, candidate); err != nil {
		log.Printf("persist credential failed: %v", err)
	}
	c.update(func(s *State) { s.Credential = candidate })

	state, applied, err := c.load(ctx, candidate)
	if !applied {
		return state
	}
	switch {
	case err == nil && state.Authenticated():
		c.audit(ctx, model.AuditEvent{Action: model.AuditLoginAccepted, ChunkCount: totalChunks(state.Documents())})
	case api.IsAuthRejected(err):
		c.audit(ctx, model.AuditEvent{Action: model.AuditLoginRejected, Detail: state.Error})
	}
	return state
}

// VerifyAndLoad fetches the document list with credential. Success
// authenticates the session with exactly the returned list; an auth
// rejection drops the session and erases the stored credential; any other
// failure only sets the error text.
func (c *Client) VerifyAndLoad(ctx context.Context, credential string) State {
	state, _, _ := c.load(ctx, credential)
	return state
}

// load applies a list response only if nothing started a newer load or
// reset the session meanwhile. applied is false for a dropped response.
func (c *Client) load(ctx context.Context, credential string) (State, bool, error) {
	var seq uint64
	c.update(func(s *State) {
		c.loadSeq++
		seq = c.loadSeq
		s.Loading = true
		s.Error = ""
	})

	docs, err := c.backend.ListDocuments(ctx, credential)
	if err != nil {
		log.Printf("load documents failed: %v", err)
	}
	if !c.latestLoad(seq) {
		return c.State(), false, err
	}

	if err == nil {
		return c.update(func(s *State) {
			s.Loading = false
			s.Session = Authenticated{Documents: docs}
		}), true, nil
	}

	if api.IsAuthRejected(err) {
		c.evict(ctx)
		return c.update(func(s *State) {
			s.Loading = false
			s.Error = msgInvalidKey
		}), true, err
	}

	return c.update(func(s *State) {
		s.Loading = false
		s.Error = failureText(err, msgLoadFailed, msgConnectFailed)
	}), true, err
}

func (c *Client) latestLoad(seq uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return seq == c.loadSeq
}

// Logout erases the credential and resets every field. Calling it twice is
// the same as calling it once.
func (c *Client) Logout(ctx context.Context) State {
	if err := c.store.Delete(ctx, CredentialKey); err != nil {
		log.Printf("erase credential failed: %v", err)
	}
	return c.update(func(s *State) {
		c.loadSeq++
		*s = State{Session: Unauthenticated{}}
	})
}

// UploadDocument sends content as filename and refreshes the list on
// success. Only one upload may run at a time.
func (c *Client) UploadDocument(ctx context.Context, filename string, content io.Reader) (State, error) {
	c.mu.Lock()
	if c.state.Uploading {
		c.mu.Unlock()
		return c.State(), ErrUploadInProgress
	}
	if !c.authenticatedLocked() {
		c.mu.Unlock()
		return c.State(), ErrNotAuthenticated
	}
	credential := c.state.Credential
	c.state.Uploading = true
	c.state.Error = ""
	c.state.Success = ""
	c.mu.Unlock()
	c.notify()

	name := filepath.Base(filename)
	res, err := c.backend.UploadDocument(ctx, credential, filename, content)
	if err != nil {
		log.Printf("upload %s failed: %v", name, err)
		c.rejectMutation(ctx, err, msgUploadFailed, msgUploadError)
		return c.update(func(s *State) { s.Uploading = false }), nil
	}

	c.update(func(s *State) {
		s.Success = fmt.Sprintf("%s uploaded successfully! (%d chunks)", name, res.ChunkCount)
	})
	c.audit(ctx, model.AuditEvent{
		Action:     model.AuditDocumentUpload,
		DocumentID: res.ID,
		Filename:   name,
		ChunkCount: res.ChunkCount,
		Detail:     res.Message,
	})

	c.VerifyAndLoad(ctx, credential)
	return c.update(func(s *State) { s.Uploading = false }), nil
}

// DeleteDocument removes id after confirm accepts the prompt. A nil confirm
// declines. The list is refreshed from the server on success.
func (c *Client) DeleteDocument(ctx context.Context, id, filename string, confirm Confirmer) (State, error) {
	if confirm == nil || !confirm(DeletePrompt(filename)) {
		return c.State(), nil
	}

	c.mu.Lock()
	if !c.authenticatedLocked() {
		c.mu.Unlock()
		return c.State(), ErrNotAuthenticated
	}
	credential := c.state.Credential
	c.state.Error = ""
	c.state.Success = ""
	c.mu.Unlock()
	c.notify()

	res, err := c.backend.DeleteDocument(ctx, credential, id)
	if err != nil {
		log.Printf("delete %s failed: %v", id, err)
		c.rejectMutation(ctx, err, msgDeleteFailed, msgDeleteError)
		return c.State(), nil
	}

	c.update(func(s *State) {
		s.Success = fmt.Sprintf("%s deleted successfully", filename)
	})
	c.audit(ctx, model.AuditEvent{
		Action:     model.AuditDocumentDeleted,
		DocumentID: id,
		Filename:   filename,
		ChunkCount: res.DeletedChunks,
		Detail:     res.Message,
	})

	return c.VerifyAndLoad(ctx, credential), nil
}

func DeletePrompt(filename string) string {
	return fmt.Sprintf(confirmDeleteText, filename)
}

// DocumentInfo and StorageStats are read-through lookups; their errors are
// returned to the caller untouched.
func (c *Client) DocumentInfo(ctx context.Context, id string) (map[string]interface{}, error) {
	return c.backend.DocumentInfo(ctx, id)
}

func (c *Client) StorageStats(ctx context.Context) (map[string]interface{}, error) {
	return c.backend.StorageStats(ctx)
}

// rejectMutation records a failed upload or delete. An auth rejection also
// drops the session.
func (c *Client) rejectMutation(ctx context.Context, err error, fallback, transportText string) {
	text := failureText(err, fallback, transportText)
	if api.IsAuthRejected(err) {
		c.evict(ctx)
	}
	c.update(func(s *State) { s.Error = text })
}

func (c *Client) evict(ctx context.Context) {
	if err := c.store.Delete(ctx, CredentialKey); err != nil {
		log.Printf("erase rejected credential failed: %v", err)
	}
	c.update(func(s *State) {
		c.loadSeq++
		s.Session = Unauthenticated{}
		s.Credential = ""
	})
}

func (c *Client) audit(ctx context.Context, event model.AuditEvent) {
	if c.notifier == nil {
		return
	}
	event.ID = uuid.NewString()
	event.CreatedAt = time.Now()
	if err := c.notifier.PublishAudit(ctx, event); err != nil {
		log.Printf("publish audit event %s failed: %v", event.Action, err)
	}
}

// failureText maps a backend rejection to its detail or fallback, and a
// transport failure to transportText.
func failureText(err error, fallback, transportText string) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		return api.DetailOr(err, fallback)
	}
	return transportText
}

func totalChunks(docs []model.Document) int {
	total := 0
	for _, doc := range docs {
		total += doc.ChunkCount
	}
	return total
}

func (c *Client) authenticatedLocked() bool {
	_, ok := c.state.Session.(Authenticated)
	return ok
}

func (c *Client) update(fn func(s *State)) State {
	c.mu.Lock()
	fn(&c.state)
	state := c.snapshotLocked()
	c.mu.Unlock()
	c.notify()
	return state
}

func (c *Client) snapshotLocked() State {
	state := c.state
	if auth, ok := state.Session.(Authenticated); ok {
		state.Session = Authenticated{Documents: append([]model.Document{}, auth.Documents...)}
	}
	return state
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
