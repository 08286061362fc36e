package message_test

import (
	"testing"

	"github.com/lguibr/bollywood/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingMsg struct{ N int }

func TestAnyOwnedMessageCapturesType(t *testing.T) {
	m := message.NewAnyOwnedMessage(pingMsg{N: 1}, nil)
	assert.Equal(t, "pingMsg", m.Type().Name())
}

func TestViewDowncast(t *testing.T) {
	m := message.NewAnyOwnedMessage(pingMsg{N: 42}, nil)
	v := m.View()

	got, ok := message.As[pingMsg](v)
	require.True(t, ok)
	assert.Equal(t, 42, got.N)

	_, ok = message.As[string](v)
	assert.False(t, ok)
}

func TestMetadataWithAndGet(t *testing.T) {
	md := message.Metadata{}
	md = md.With("trace-id", "abc")
	md = md.With("attempt", "1")
	md = md.With("trace-id", "def") // overwrite

	v, ok := md.Get("trace-id")
	require.True(t, ok)
	assert.Equal(t, "def", v)

	v, ok = md.Get("attempt")
	require.True(t, ok)
	assert.Equal(t, "1", v)

	_, ok = md.Get("missing")
	assert.False(t, ok)
	assert.Equal(t, 2, md.Len())
}

func TestMetadataEachPreservesOrder(t *testing.T) {
	md := message.Metadata{}
	md = md.With("a", "1")
	md = md.With("b", "2")
	md = md.With("c", "3")

	var keys []string
	md.Each(func(k, _ string) { keys = append(keys, k) })
	assert.Equal(t, []string{"a", "b", "c"}, keys)
}

type fakeReplyTarget struct {
	received []message.AnyOwnedMessage
}

func (f *fakeReplyTarget) TellAny(msg message.AnyOwnedMessage) error {
	f.received = append(f.received, msg)
	return nil
}

func TestReplyToRoundTrip(t *testing.T) {
	target := &fakeReplyTarget{}
	m := message.NewAnyOwnedMessage(pingMsg{N: 7}, target)
	v := m.View()

	err := v.ReplyTo().TellAny(message.NewAnyOwnedMessage("pong", nil))
	require.NoError(t, err)
	require.Len(t, target.received, 1)
	assert.Equal(t, "pong", target.received[0].Payload())
}
