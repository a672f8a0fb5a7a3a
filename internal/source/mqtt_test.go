package source

import (
	"context"
	"strings"
	"testing"

	"github.com/colonyops/danmaku/internal/core/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMQTTSubscriber_ClientID(t *testing.T) {
	fixed := NewMQTTSubscriber(config.MQTTSource{ClientID: "overlay-1"}, &recordingSink{})
	assert.Equal(t, "overlay-1", fixed.ClientID())

	a := NewMQTTSubscriber(config.MQTTSource{}, &recordingSink{})
	b := NewMQTTSubscriber(config.MQTTSource{}, &recordingSink{})
	assert.True(t, strings.HasPrefix(a.ClientID(), "danmaku-"))
	assert.NotEqual(t, a.ClientID(), b.ClientID())
}

func TestMQTTSubscriber_Handle(t *testing.T) {
	sink := &recordingSink{}
	sub := NewMQTTSubscriber(config.MQTTSource{
		Topics:       []string{"chat/#"},
		IgnoreTopics: []string{"chat/private/**", "chat/*/bots"},
	}, sink)
	ctx := context.Background()

	sub.handle(ctx, "chat/room1", []byte("hello"))
	sub.handle(ctx, "chat/private/dm/42", []byte("secret"))
	sub.handle(ctx, "chat/room1/bots", []byte("beep"))

	subs := sink.Submissions()
	require.Len(t, subs, 1)
	assert.Equal(t, "hello", subs[0].raw)
	assert.Equal(t, "mqtt:chat/room1", subs[0].source)

	received, dropped := sub.Counts()
	assert.Equal(t, int64(3), received)
	assert.Equal(t, int64(2), dropped)
}

func TestMQTTSubscriber_Mute(t *testing.T) {
	sink := &recordingSink{}
	sub := NewMQTTSubscriber(config.MQTTSource{Mute: true}, sink)
	ctx := context.Background()

	assert.True(t, sub.Muted())
	sub.handle(ctx, "danmaku/live", []byte("dropped"))
	assert.Empty(t, sink.Submissions())

	sub.SetMuted(false)
	sub.handle(ctx, "danmaku/live", []byte("shown"))
	require.Len(t, sink.Submissions(), 1)
	assert.Equal(t, "shown", sink.Submissions()[0].raw)
}
