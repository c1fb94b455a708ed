package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_BeginSubmit(t *testing.T) {
	now := time.Now()
	s := NewSession("s", now)

	t.Run("blank input is a no-op", func(t *testing.T) {
		for _, q := range []string{"", "   ", "\n\t"} {
			next, history, ok := s.BeginSubmit(q, now)
			assert.False(t, ok)
			assert.Nil(t, history)
			assert.Equal(t, s, next)
		}
	})

	t.Run("appends trimmed user turn and marks pending", func(t *testing.T) {
		next, history, ok := s.BeginSubmit("  How do I register?  ", now)
		require.True(t, ok)
		assert.True(t, next.Pending)
		assert.Equal(t, []Turn{{Role: RoleUser, Content: "How do I register?"}}, next.Turns)
		assert.Equal(t, next.Turns, history)
		assert.Empty(t, s.Turns, "receiver must not change")
	})

	t.Run("ignored while pending", func(t *testing.T) {
		pending, _, ok := s.BeginSubmit("first", now)
		require.True(t, ok)

		again, history, ok := pending.BeginSubmit("second", now)
		assert.False(t, ok)
		assert.Nil(t, history)
		assert.Len(t, again.Turns, 1)
	})
}

func TestSession_FinishAndAbort(t *testing.T) {
	now := time.Now()
	pending, _, ok := NewSession("s", now).BeginSubmit("Q", now)
	require.True(t, ok)

	done := pending.FinishSubmit("A", now)
	assert.False(t, done.Pending)
	assert.Equal(t, []Turn{{Role: RoleUser, Content: "Q"}, {Role: RoleAssistant, Content: "A"}}, done.Turns)

	failed := pending.AbortSubmit(now)
	assert.False(t, failed.Pending)
	assert.Equal(t, []Turn{{Role: RoleUser, Content: "Q"}}, failed.Turns)
}

func TestSession_OpenClose(t *testing.T) {
	now := time.Now()
	s := NewSession("s", now)

	opened, changed := s.WithOpen(now)
	require.True(t, changed)
	assert.True(t, opened.Open)

	_, changed = opened.WithOpen(now)
	assert.False(t, changed, "re-open while open is not a transition")

	busy, _, _ := opened.WithSeedConsumed().BeginSubmit("Q", now)
	closed := busy.WithClosed(now.Add(time.Second))

	assert.False(t, closed.Open)
	assert.False(t, closed.Pending)
	assert.False(t, closed.AutoStartConsumed)
	assert.Empty(t, closed.Turns)
	assert.Equal(t, busy.Epoch+1, closed.Epoch)
	assert.Equal(t, s.CreatedAt, closed.CreatedAt)
}

func TestSession_TransitionsDoNotAlias(t *testing.T) {
	now := time.Now()
	base := NewSession("s", now)
	base.Turns = make([]Turn, 1, 8)
	base.Turns[0] = Turn{Role: RoleUser, Content: "q0"}

	a := base.FinishSubmit("a", now)
	b := base.FinishSubmit("b", now)

	assert.Equal(t, "a", a.Turns[1].Content)
	assert.Equal(t, "b", b.Turns[1].Content)
	assert.Len(t, base.Turns, 1)
}
