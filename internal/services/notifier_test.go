package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yungbote/recipebook-backend/internal/domain"
	"github.com/yungbote/recipebook-backend/internal/realtime"
)

func TestNotificationFor(t *testing.T) {
	cases := []struct {
		n      int
		want   RecipeNotification
		wantOK bool
	}{
		{0, NotifyEmptyList, true},
		{1, NotifyFirstRecipe, true},
		{2, RecipeNotification{}, false},
		{4, RecipeNotification{}, false},
		{5, NotifyGrowingList, true},
		{12, NotifyGrowingList, true},
	}
	for _, tc := range cases {
		got, ok := NotificationFor(tc.n)
		if ok != tc.wantOK || got != tc.want {
			t.Fatalf("NotificationFor(%d): want=%+v,%v got=%+v,%v", tc.n, tc.want, tc.wantOK, got, ok)
		}
	}
}

func TestNotifierWatchesRecipeList(t *testing.T) {
	emit := &captureEmitter{}
	svc := newTestService(t, newFakeRecipeRepo(), emit)
	stop := NewRecipeNotifier(emit, mustTestLogger(t)).Watch(svc.Slots())
	defer stop()

	recv(t, svc.FetchRecipes(context.Background()))

	emit.mu.Lock()
	defer emit.mu.Unlock()
	var note *RecipeNotification
	for _, m := range emit.msgs {
		if m.Channel == realtime.ChannelNotifications && m.Event == realtime.SSEEventRecipeNotification {
			n := m.Data.(RecipeNotification)
			note = &n
		}
	}
	if note == nil || note.Title != "Get Cooking!" {
		t.Fatalf("empty list notification: %+v", note)
	}
}

func TestNotifierIgnoresMiddleSizes(t *testing.T) {
	emit := &captureEmitter{}
	NewRecipeNotifier(emit, nil).Evaluate([]*domain.Recipe{{ID: 1}, {ID: 2}, {ID: 3}})
	if got := emit.events(realtime.ChannelNotifications); len(got) != 0 {
		t.Fatalf("unexpected notifications: %v", got)
	}
}

type fakePinger struct {
	err   error
	delay time.Duration
}

func (f fakePinger) Ping(ctx context.Context) error {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return f.err
}

func TestConnectivityCheck(t *testing.T) {
	ctx := context.Background()
	if st := NewConnectivity(fakePinger{}, time.Second, nil).Check(ctx); !st.Online || st.Message != "" {
		t.Fatalf("online: %+v", st)
	}
	st := NewConnectivity(fakePinger{err: errors.New("dial tcp: refused")}, time.Second, nil).Check(ctx)
	if st.Online || st.Message != MsgOffline {
		t.Fatalf("offline: %+v", st)
	}
	slow := NewConnectivity(fakePinger{delay: time.Second}, 10*time.Millisecond, nil).Check(ctx)
	if slow.Online {
		t.Fatalf("timed-out ping should report offline")
	}
}
