package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sidequest-campus/gatekeeper/internal/models"
)

// BackendFake управляемый бекенд аутентификации.
type BackendFake struct {
	session  *models.Session
	getErr   error
	subErr   error
	events   chan *models.Session
	stopped  bool
	stopOnce sync.Once
}

func NewBackendFake() *BackendFake {
	return &BackendFake{events: make(chan *models.Session, 8)}
}

func (f *BackendFake) GetSession(_ context.Context) (*models.Session, error) {
	return f.session, f.getErr
}

func (f *BackendFake) Subscribe(_ context.Context) (<-chan *models.Session, func(), error) {
	if f.subErr != nil {
		return nil, nil, f.subErr
	}
	stop := func() {
		f.stopOnce.Do(func() {
			f.stopped = true
			close(f.events)
		})
	}
	return f.events, stop, nil
}

// NotifierRecorder запоминает вызовы push-подсистемы.
type NotifierRecorder struct {
	mu    sync.Mutex
	calls []string
	err   error
	done  chan struct{}
}

func NewNotifierRecorder() *NotifierRecorder {
	return &NotifierRecorder{done: make(chan struct{}, 16)}
}

func (n *NotifierRecorder) Associate(_ context.Context, userUID string) error {
	n.mu.Lock()
	n.calls = append(n.calls, "associate:"+userUID)
	n.mu.Unlock()
	n.done <- struct{}{}
	return n.err
}

func (n *NotifierRecorder) Disassociate(_ context.Context) error {
	n.mu.Lock()
	n.calls = append(n.calls, "disassociate")
	n.mu.Unlock()
	n.done <- struct{}{}
	return n.err
}

func (n *NotifierRecorder) Calls() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.calls...)
}

func (n *NotifierRecorder) WaitCall(t *testing.T) {
	t.Helper()
	select {
	case <-n.done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for notifier call")
	}
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestStore_GetInitialSession_Present(t *testing.T) {
	backend := NewBackendFake()
	backend.session = &models.Session{UserUID: "uid-1", Email: "student@campus.app"}
	notifier := NewNotifierRecorder()

	store := New(backend, notifier, newNoopLogger())
	session := store.GetInitialSession(context.Background())

	require.NotNil(t, session)
	assert.Equal(t, "uid-1", session.UserUID)

	notifier.WaitCall(t)
	assert.Equal(t, []string{"associate:uid-1"}, notifier.Calls())
}

func TestStore_GetInitialSession_Absent(t *testing.T) {
	backend := NewBackendFake()
	notifier := NewNotifierRecorder()

	store := New(backend, notifier, newNoopLogger())
	session := store.GetInitialSession(context.Background())

	assert.Nil(t, session)
	notifier.WaitCall(t)
	assert.Equal(t, []string{"disassociate"}, notifier.Calls())
}

func TestStore_GetInitialSession_ErrorTreatedAsAbsent(t *testing.T) {
	backend := NewBackendFake()
	backend.getErr = errors.New("network unreachable")
	notifier := NewNotifierRecorder()

	store := New(backend, notifier, newNoopLogger())
	session := store.GetInitialSession(context.Background())

	assert.Nil(t, session)
	notifier.WaitCall(t)
	assert.Equal(t, []string{"disassociate"}, notifier.Calls())
}

func TestStore_Subscribe_ForwardsEventsInOrder(t *testing.T) {
	backend := NewBackendFake()
	notifier := NewNotifierRecorder()
	store := New(backend, notifier, newNoopLogger())

	received := make(chan *models.Session, 8)
	stop, err := store.Subscribe(context.Background(), func(s *models.Session) {
		received <- s
	})
	require.NoError(t, err)
	defer stop()

	first := &models.Session{UserUID: "uid-1", Email: "student@campus.app"}
	refreshed := &models.Session{UserUID: "uid-1", Email: "student@campus.app", AccessToken: "new"}
	backend.events <- first
	backend.events <- refreshed
	backend.events <- nil

	assert.Equal(t, first, waitSession(t, received))
	// Обновление токена доставляется отдельным событием, без склеивания
	assert.Equal(t, refreshed, waitSession(t, received))
	assert.Nil(t, waitSession(t, received))
}

func TestStore_Subscribe_NotifierFailureDoesNotBlockEvents(t *testing.T) {
	backend := NewBackendFake()
	notifier := NewNotifierRecorder()
	notifier.err = errors.New("broker unavailable")
	store := New(backend, notifier, newNoopLogger())

	received := make(chan *models.Session, 8)
	stop, err := store.Subscribe(context.Background(), func(s *models.Session) {
		received <- s
	})
	require.NoError(t, err)
	defer stop()

	backend.events <- &models.Session{UserUID: "uid-1", Email: "student@campus.app"}

	session := waitSession(t, received)
	require.NotNil(t, session)
	assert.Equal(t, "uid-1", session.UserUID)
}

func TestStore_Subscribe_BackendErrorIsReturned(t *testing.T) {
	backend := NewBackendFake()
	backend.subErr = errors.New("channel error")
	store := New(backend, NewNotifierRecorder(), newNoopLogger())

	stop, err := store.Subscribe(context.Background(), func(*models.Session) {})
	assert.Error(t, err)
	assert.Nil(t, stop)
}

func waitSession(t *testing.T, ch <-chan *models.Session) *models.Session {
	t.Helper()
	select {
	case s := <-ch:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for session event")
		return nil
	}
}
