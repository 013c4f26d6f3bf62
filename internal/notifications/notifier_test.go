package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type delivery struct {
	recipient string
	ev        Event
}

func newNotifier(t *testing.T) (*Notifier, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewNotifier(rdb), mr
}

func TestNotifier_NilRedisIsNoop(t *testing.T) {
	n := NewNotifier(nil)
	assert.NoError(t, n.PublishUser(context.Background(), "bob", Event{Type: EventUserFollowed, Actor: "alice"}))
	assert.NoError(t, n.StartPatternSubscriber(context.Background(), func(string, Event) {}))

	var unset *Notifier
	assert.NoError(t, unset.PublishUser(context.Background(), "bob", Event{}))
}

func TestUserChannel(t *testing.T) {
	t.Parallel()
	tests := []struct {
		key      string
		expected string
	}{
		{"user_2abc", "notifications:user:user_2abc"},
		{"bob", "notifications:user:bob"},
	}

	for _, tt := range tests {
		channel := UserChannel(tt.key)
		assert.Equal(t, tt.expected, channel)
		key, ok := UserFromChannel(channel)
		assert.True(t, ok)
		assert.Equal(t, tt.key, key)
	}

	_, ok := UserFromChannel("chat:conv:5")
	assert.False(t, ok)
	_, ok = UserFromChannel("notifications:user:")
	assert.False(t, ok)
}

func TestNotifier_PublishAndSubscribe(t *testing.T) {
	n, mr := newNotifier(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan delivery, 4)
	require.NoError(t, n.StartPatternSubscriber(ctx, func(recipient string, ev Event) {
		got <- delivery{recipient, ev}
	}))

	// Self-notifications are dropped before reaching Redis.
	require.NoError(t, n.PublishUser(ctx, "alice", Event{Type: EventOutfitLiked, Actor: "alice"}))
	mr.Publish(UserChannel("bob"), "not json")
	require.NoError(t, n.PublishUser(ctx, "bob", Event{
		Type:    EventOutfitLiked,
		Actor:   "alice",
		Payload: map[string]interface{}{"outfitId": "o1"},
	}))

	select {
	case d := <-got:
		assert.Equal(t, "bob", d.recipient)
		assert.Equal(t, EventOutfitLiked, d.ev.Type)
		assert.Equal(t, "alice", d.ev.Actor)
		assert.Equal(t, "o1", d.ev.Payload["outfitId"])
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered")
	}

	assert.Never(t, func() bool { return len(got) > 0 }, 100*time.Millisecond, 10*time.Millisecond)
}

func TestNotifier_SubscriberStopsOnCancel(t *testing.T) {
	n, _ := newNotifier(t)
	ctx, cancel := context.WithCancel(context.Background())

	got := make(chan delivery, 2)
	require.NoError(t, n.StartPatternSubscriber(ctx, func(recipient string, ev Event) {
		got <- delivery{recipient, ev}
	}))
	cancel()
	time.Sleep(20 * time.Millisecond)

	require.NoError(t, n.PublishUser(context.Background(), "bob", Event{Type: EventUserFollowed, Actor: "carol"}))
	assert.Never(t, func() bool { return len(got) > 0 }, 100*time.Millisecond, 10*time.Millisecond)
}
