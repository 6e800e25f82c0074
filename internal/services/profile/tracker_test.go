package profile

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sidequest-campus/gatekeeper/internal/models"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) GetProfile(ctx context.Context, userUID string) (*models.ProfileRow, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ProfileRow), args.Error(1)
}

// SubscriberFake записывает порядок операций подписки и позволяет
// вручную доставлять события.
type SubscriberFake struct {
	mu     sync.Mutex
	calls  []string
	rows   chan models.ProfileRow
	subErr error
}

func NewSubscriberFake() *SubscriberFake {
	return &SubscriberFake{}
}

func (f *SubscriberFake) SubscribeProfileUpdates(_ context.Context, userUID string) (<-chan models.ProfileRow, func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.subErr != nil {
		return nil, nil, f.subErr
	}

	f.calls = append(f.calls, "subscribe:"+userUID)
	rows := make(chan models.ProfileRow, 8)
	f.rows = rows
	stop := func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.calls = append(f.calls, "unsubscribe:"+userUID)
		close(rows)
	}
	return rows, stop, nil
}

func (f *SubscriberFake) Push(row models.ProfileRow) {
	f.mu.Lock()
	rows := f.rows
	f.mu.Unlock()
	rows <- row
}

func (f *SubscriberFake) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func strptr(s string) *string { return &s }

func completeRow(uid string) *models.ProfileRow {
	return &models.ProfileRow{
		UserUID:         uid,
		FullName:        strptr("Ivan Petrov"),
		Phone:           strptr("+79001234567"),
		IDCardURL:       strptr("https://cdn.campus.app/id/uid.jpg"),
		IsEmailVerified: true,
	}
}

func TestTracker_FetchInitial(t *testing.T) {
	tests := []struct {
		name       string
		setupMocks func(r *RepoMock)
		want       bool
	}{
		{
			name: "complete profile",
			setupMocks: func(r *RepoMock) {
				r.On("GetProfile", mock.Anything, "uid-1").Return(completeRow("uid-1"), nil)
			},
			want: true,
		},
		{
			name: "incomplete profile",
			setupMocks: func(r *RepoMock) {
				r.On("GetProfile", mock.Anything, "uid-1").Return(&models.ProfileRow{
					UserUID:  "uid-1",
					FullName: strptr("Ivan Petrov"),
				}, nil)
			},
			want: false,
		},
		{
			name: "fetch error fails closed",
			setupMocks: func(r *RepoMock) {
				r.On("GetProfile", mock.Anything, "uid-1").Return(nil, errors.New("network unreachable"))
			},
			want: false,
		},
		{
			name: "missing record fails closed",
			setupMocks: func(r *RepoMock) {
				r.On("GetProfile", mock.Anything, "uid-1").Return(nil, nil)
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			tt.setupMocks(repo)

			tracker := New(repo, NewSubscriberFake(), newNoopLogger())
			got := tracker.FetchInitial(context.Background(), "uid-1")

			assert.Equal(t, tt.want, got)
			repo.AssertExpectations(t)
		})
	}
}

func TestTracker_Subscribe_DeliversCompletenessFromPushedRow(t *testing.T) {
	repo := new(RepoMock)
	subscriber := NewSubscriberFake()
	tracker := New(repo, subscriber, newNoopLogger())

	results := make(chan bool, 8)
	err := tracker.Subscribe(context.Background(), "uid-1", func(complete bool) {
		results <- complete
	})
	require.NoError(t, err)
	defer tracker.Unsubscribe()

	subscriber.Push(*completeRow("uid-1"))
	assert.True(t, waitBool(t, results))

	subscriber.Push(models.ProfileRow{UserUID: "uid-1"})
	assert.False(t, waitBool(t, results))

	// Заполненность считается только из присланной строки: база не читалась
	repo.AssertNotCalled(t, "GetProfile", mock.Anything, mock.Anything)
}

func TestTracker_Subscribe_SameEventTwiceIsIdempotent(t *testing.T) {
	subscriber := NewSubscriberFake()
	tracker := New(new(RepoMock), subscriber, newNoopLogger())

	results := make(chan bool, 8)
	err := tracker.Subscribe(context.Background(), "uid-1", func(complete bool) {
		results <- complete
	})
	require.NoError(t, err)
	defer tracker.Unsubscribe()

	row := *completeRow("uid-1")
	subscriber.Push(row)
	subscriber.Push(row)

	assert.True(t, waitBool(t, results))
	assert.True(t, waitBool(t, results))
}

func TestTracker_Subscribe_SwitchingUserTearsDownOldFirst(t *testing.T) {
	subscriber := NewSubscriberFake()
	tracker := New(new(RepoMock), subscriber, newNoopLogger())

	require.NoError(t, tracker.Subscribe(context.Background(), "uid-1", func(bool) {}))
	require.NoError(t, tracker.Subscribe(context.Background(), "uid-2", func(bool) {}))
	tracker.Unsubscribe()

	assert.Equal(t, []string{
		"subscribe:uid-1",
		"unsubscribe:uid-1",
		"subscribe:uid-2",
		"unsubscribe:uid-2",
	}, subscriber.Calls())
}

func TestTracker_Subscribe_ErrorIsReturned(t *testing.T) {
	subscriber := NewSubscriberFake()
	subscriber.subErr = errors.New("channel error")
	tracker := New(new(RepoMock), subscriber, newNoopLogger())

	err := tracker.Subscribe(context.Background(), "uid-1", func(bool) {})
	assert.Error(t, err)
}

func TestTracker_UnsubscribeWithoutSubscriptionIsNoop(t *testing.T) {
	tracker := New(new(RepoMock), NewSubscriberFake(), newNoopLogger())
	assert.NotPanics(t, func() {
		tracker.Unsubscribe()
		tracker.Unsubscribe()
	})
}

func waitBool(t *testing.T, ch <-chan bool) bool {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for completeness result")
		return false
	}
}
