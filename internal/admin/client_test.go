package admin

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio-site/internal/api"
	"portfolio-site/internal/kv"
	"portfolio-site/internal/model"
)

const validKey = "s3cret"

// fakeBackend serves the document endpoints over an in-memory list.
type fakeBackend struct {
	mu        sync.Mutex
	docs      []model.Document
	listCalls int
	failList  int
	onUpload  func()
}

func (b *fakeBackend) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/admin/documents", func(w http.ResponseWriter, r *http.Request) {
		if !b.authorized(w, r) {
			return
		}
		b.mu.Lock()
		defer b.mu.Unlock()
		b.listCalls++
		if b.failList != 0 {
			w.WriteHeader(b.failList)
			_, _ = w.Write([]byte(`{"detail":"vector store offline"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(b.docs)
	})
	mux.HandleFunc("/api/admin/documents/upload", func(w http.ResponseWriter, r *http.Request) {
		if !b.authorized(w, r) {
			return
		}
		b.mu.Lock()
		hook := b.onUpload
		b.mu.Unlock()
		if hook != nil {
			hook()
		}
		file, header, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		_, _ = io.ReadAll(file)

		b.mu.Lock()
		b.docs = append(b.docs, model.Document{ID: "new", Filename: header.Filename, ChunkCount: 5, FileType: "md"})
		b.mu.Unlock()
		_, _ = w.Write([]byte(`{"id":"new","filename":"` + header.Filename + `","status":"success","chunk_count":5}`))
	})
	mux.HandleFunc("/api/admin/documents/", func(w http.ResponseWriter, r *http.Request) {
		if !b.authorized(w, r) {
			return
		}
		id := strings.TrimPrefix(r.URL.Path, "/api/admin/documents/")
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, doc := range b.docs {
			if doc.ID == id {
				b.docs = append(b.docs[:i], b.docs[i+1:]...)
				_, _ = w.Write([]byte(`{"success":true,"message":"deleted","deleted_chunks":` + jsonInt(doc.ChunkCount) + `}`))
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail":"Document not found"}`))
	})
	return mux
}

func (b *fakeBackend) authorized(w http.ResponseWriter, r *http.Request) bool {
	if r.Header.Get(api.HeaderAPIKey) == validKey {
		return true
	}
	w.WriteHeader(http.StatusForbidden)
	_, _ = w.Write([]byte(`{"detail":"Invalid API key"}`))
	return false
}

func (b *fakeBackend) lists() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.listCalls
}

func (b *fakeBackend) set(fn func(b *fakeBackend)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fn(b)
}

func jsonInt(n int) string {
	raw, _ := json.Marshal(n)
	return string(raw)
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []model.AuditEvent
}

func (n *recordingNotifier) PublishAudit(_ context.Context, event model.AuditEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return nil
}

func (n *recordingNotifier) actions() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.events))
	for _, e := range n.events {
		out = append(out, e.Action)
	}
	return out
}

type fixture struct {
	backend  *fakeBackend
	store    kv.Store
	notifier *recordingNotifier
	client   *Client
}

func newFixture(t *testing.T, docs ...model.Document) *fixture {
	t.Helper()
	backend := &fakeBackend{docs: append([]model.Document{}, docs...)}
	srv := httptest.NewServer(backend.handler(t))
	t.Cleanup(srv.Close)

	store, err := kv.NewStore(kv.StoreTypeMemory)
	require.NoError(t, err)

	notifier := &recordingNotifier{}
	return &fixture{
		backend:  backend,
		store:    store,
		notifier: notifier,
		client:   NewClient(api.NewClient(srv.URL+"/api"), store, WithNotifier(notifier)),
	}
}

func (f *fixture) storedCredential(t *testing.T) (string, bool) {
	t.Helper()
	value, ok, err := f.store.Get(context.Background(), CredentialKey)
	require.NoError(t, err)
	return value, ok
}

var twoDocs = []model.Document{
	{ID: "a", Filename: "cv.pdf", ChunkCount: 3, FileType: "pdf"},
	{ID: "b", Filename: "notes.md", ChunkCount: 1, FileType: "md"},
}

func TestLoginEmptyKey(t *testing.T) {
	f := newFixture(t)

	state := f.client.Login(context.Background(), "   ")

	assert.Equal(t, "Please enter an API key", state.Error)
	assert.False(t, state.Authenticated())
	assert.Zero(t, f.backend.lists())
	_, ok := f.storedCredential(t)
	assert.False(t, ok)
}

func TestLoginListsDocuments(t *testing.T) {
	f := newFixture(t, twoDocs...)

	state := f.client.Login(context.Background(), validKey)

	require.True(t, state.Authenticated())
	assert.Equal(t, twoDocs, state.Documents())
	assert.Empty(t, state.Error)
	assert.False(t, state.Loading)

	stored, ok := f.storedCredential(t)
	assert.True(t, ok)
	assert.Equal(t, validKey, stored)
	assert.Equal(t, []string{model.AuditLoginAccepted}, f.notifier.actions())
	assert.Equal(t, 4, f.notifier.events[0].ChunkCount)
	assert.NotEmpty(t, f.notifier.events[0].ID)
}

func TestLoginRejectedEvictsCredential(t *testing.T) {
	f := newFixture(t, twoDocs...)

	state := f.client.Login(context.Background(), "wrong")

	assert.False(t, state.Authenticated())
	assert.Equal(t, "Invalid API key", state.Error)
	assert.Empty(t, state.Credential)
	_, ok := f.storedCredential(t)
	assert.False(t, ok)
	assert.Equal(t, []string{model.AuditLoginRejected}, f.notifier.actions())
}

func TestLoadFailureKeepsSession(t *testing.T) {
	f := newFixture(t, twoDocs...)
	f.client.Login(context.Background(), validKey)

	f.backend.set(func(b *fakeBackend) { b.failList = http.StatusInternalServerError })
	state := f.client.VerifyAndLoad(context.Background(), validKey)

	assert.True(t, state.Authenticated())
	assert.Equal(t, twoDocs, state.Documents())
	assert.Equal(t, "vector store offline", state.Error)
	_, ok := f.storedCredential(t)
	assert.True(t, ok)
}

func TestLoadTransportFailure(t *testing.T) {
	store, err := kv.NewStore(kv.StoreTypeMemory)
	require.NoError(t, err)
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	c := NewClient(api.NewClient(srv.URL), store)
	state := c.Login(context.Background(), validKey)

	assert.Equal(t, "Failed to connect to backend", state.Error)
	assert.False(t, state.Authenticated())
}

func TestRestoreUsesStoredCredential(t *testing.T) {
	f := newFixture(t, twoDocs...)
	require.NoError(t, f.store.Set(context.Background(), CredentialKey, validKey))

	state := f.client.Restore(context.Background())
	assert.True(t, state.Authenticated())
	assert.Len(t, state.Documents(), 2)
}

func TestRestoreWithoutCredential(t *testing.T) {
	f := newFixture(t, twoDocs...)

	state := f.client.Restore(context.Background())
	assert.False(t, state.Authenticated())
	assert.Zero(t, f.backend.lists())
}

func TestLogoutIsIdempotent(t *testing.T) {
	f := newFixture(t, twoDocs...)
	f.client.Login(context.Background(), validKey)

	first := f.client.Logout(context.Background())
	second := f.client.Logout(context.Background())

	assert.Equal(t, first, second)
	assert.Equal(t, State{Session: Unauthenticated{}}, second)
	_, ok := f.storedCredential(t)
	assert.False(t, ok)
}

func TestUploadRefreshesList(t *testing.T) {
	f := newFixture(t, twoDocs...)
	f.client.Login(context.Background(), validKey)

	state, err := f.client.UploadDocument(context.Background(), "/tmp/resume.md", strings.NewReader("# Resume"))
	require.NoError(t, err)

	assert.Equal(t, "resume.md uploaded successfully! (5 chunks)", state.Success)
	assert.Empty(t, state.Error)
	assert.False(t, state.Uploading)
	assert.Len(t, state.Documents(), 3)
	assert.Equal(t, []string{model.AuditLoginAccepted, model.AuditDocumentUpload}, f.notifier.actions())
}

func TestUploadRequiresSession(t *testing.T) {
	f := newFixture(t)

	_, err := f.client.UploadDocument(context.Background(), "resume.md", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestConcurrentUploadRejected(t *testing.T) {
	f := newFixture(t, twoDocs...)
	f.client.Login(context.Background(), validKey)

	entered := make(chan struct{})
	release := make(chan struct{})
	f.backend.set(func(b *fakeBackend) {
		b.onUpload = func() {
			close(entered)
			<-release
		}
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = f.client.UploadDocument(context.Background(), "one.md", strings.NewReader("1"))
	}()
	<-entered

	_, err := f.client.UploadDocument(context.Background(), "two.md", strings.NewReader("2"))
	assert.ErrorIs(t, err, ErrUploadInProgress)

	close(release)
	<-done
	assert.False(t, f.client.State().Uploading)
}

func TestDeleteRefetchesList(t *testing.T) {
	f := newFixture(t, twoDocs...)
	f.client.Login(context.Background(), validKey)

	var prompt string
	state, err := f.client.DeleteDocument(context.Background(), "a", "cv.pdf", func(p string) bool {
		prompt = p
		return true
	})
	require.NoError(t, err)

	assert.Equal(t, `Are you sure you want to delete "cv.pdf"? This action cannot be undone.`, prompt)
	assert.Equal(t, "cv.pdf deleted successfully", state.Success)
	assert.Equal(t, []model.Document{twoDocs[1]}, state.Documents())
	assert.Equal(t, 2, f.backend.lists())
}

func TestDeleteDeclined(t *testing.T) {
	f := newFixture(t, twoDocs...)
	f.client.Login(context.Background(), validKey)
	calls := f.backend.lists()

	state, err := f.client.DeleteDocument(context.Background(), "a", "cv.pdf", func(string) bool { return false })
	require.NoError(t, err)
	assert.Len(t, state.Documents(), 2)
	assert.Equal(t, calls, f.backend.lists())

	state, err = f.client.DeleteDocument(context.Background(), "a", "cv.pdf", nil)
	require.NoError(t, err)
	assert.Len(t, state.Documents(), 2)
}

func TestDeleteMissingDocument(t *testing.T) {
	f := newFixture(t, twoDocs...)
	f.client.Login(context.Background(), validKey)

	state, err := f.client.DeleteDocument(context.Background(), "zzz", "ghost.pdf", AlwaysConfirm)
	require.NoError(t, err)
	assert.Equal(t, "Document not found", state.Error)
	assert.Empty(t, state.Success)
	assert.True(t, state.Authenticated())
}

func TestMutationAuthRejectionEvicts(t *testing.T) {
	f := newFixture(t, twoDocs...)
	f.client.Login(context.Background(), validKey)
	// The server no longer accepts the session's key.
	f.client.mu.Lock()
	f.client.state.Credential = "rotated"
	f.client.mu.Unlock()

	state, err := f.client.DeleteDocument(context.Background(), "a", "cv.pdf", AlwaysConfirm)
	require.NoError(t, err)
	assert.False(t, state.Authenticated())
	assert.Equal(t, "Invalid API key", state.Error)
	_, ok := f.storedCredential(t)
	assert.False(t, ok)
}

func TestFileIcon(t *testing.T) {
	assert.Equal(t, "📄", FileIcon("pdf"))
	assert.Equal(t, "📝", FileIcon("DOCX"))
	assert.Equal(t, "📊", FileIcon("xls"))
	assert.Equal(t, "📃", FileIcon("markdown"))
	assert.Equal(t, "📃", FileIcon(".txt"))
	assert.Equal(t, "📄", FileIcon("pptx"))
}

// blockingBackend serves ListDocuments from a queue of canned replies; the
// first reply waits until released.
type blockingBackend struct {
	Backend
	mu      sync.Mutex
	calls   int
	entered chan struct{}
	release chan struct{}
}

func (b *blockingBackend) ListDocuments(context.Context, string) ([]model.Document, error) {
	b.mu.Lock()
	b.calls++
	n := b.calls
	b.mu.Unlock()

	if n == 1 {
		close(b.entered)
		<-b.release
		return twoDocs[:1], nil
	}
	return twoDocs, nil
}

func TestSupersededLoadIsDropped(t *testing.T) {
	backend := &blockingBackend{entered: make(chan struct{}), release: make(chan struct{})}
	c := NewClient(backend, kv.NewMemoryStore())

	done := make(chan State)
	go func() { done <- c.VerifyAndLoad(context.Background(), validKey) }()
	<-backend.entered

	fresh := c.VerifyAndLoad(context.Background(), validKey)
	require.Len(t, fresh.Documents(), 2)

	close(backend.release)
	<-done

	assert.Len(t, c.State().Documents(), 2)
}

func TestLogoutDuringLoginWins(t *testing.T) {
	backend := &blockingBackend{entered: make(chan struct{}), release: make(chan struct{})}
	store := kv.NewMemoryStore()
	notifier := &recordingNotifier{}
	c := NewClient(backend, store, WithNotifier(notifier))

	done := make(chan State)
	go func() { done <- c.Login(context.Background(), validKey) }()
	<-backend.entered

	c.Logout(context.Background())
	close(backend.release)
	<-done

	state := c.State()
	assert.False(t, state.Authenticated())
	assert.Empty(t, state.Credential)
	assert.Empty(t, state.Documents())
	_, ok, err := store.Get(context.Background(), CredentialKey)
	require.NoError(t, err)
	assert.False(t, ok)
	// The dropped response must not produce a login verdict.
	assert.Empty(t, notifier.actions())
}
