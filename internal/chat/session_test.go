package chat

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSessionAppendAndText(t *testing.T) {
	s := NewSession()
	require.NotEmpty(t, s.ID)
	require.Equal(t, 0, s.Len())

	s.AppendUser("how much did we spend?")
	s.AppendAssistant("About 12 credits.")

	msgs := s.Messages()
	require.Len(t, msgs, 2)
	require.Equal(t, RoleUser, msgs[0].Role)
	require.Equal(t, "how much did we spend?", msgs[0].Text())
	require.Equal(t, RoleAssistant, msgs[1].Role)
	require.Equal(t, "About 12 credits.", msgs[1].Text())
}

func TestSessionRollbackLast(t *testing.T) {
	s := NewSession()
	require.False(t, s.RollbackLast())

	s.AppendUser("first")
	s.AppendUser("pending")
	require.True(t, s.RollbackLast())
	require.Equal(t, 1, s.Len())
	require.Equal(t, "first", s.Messages()[0].Text())
}

func TestSessionReset(t *testing.T) {
	s := NewSession()
	s.AppendUser("a")
	s.AppendAssistant("b")
	s.Reset()
	require.Equal(t, 0, s.Len())
	require.Empty(t, s.Messages())
}

func TestSessionRecent(t *testing.T) {
	s := NewSession()
	for _, text := range []string{"one", "two", "three", "four"} {
		s.AppendUser(text)
	}

	recent := s.Recent(3)
	require.Len(t, recent, 3)
	require.Equal(t, "two", recent[0].Text())
	require.Equal(t, "four", recent[2].Text())

	require.Len(t, s.Recent(10), 4)
	require.Nil(t, s.Recent(0))

	// Returned slices are copies; mutating them leaves the session intact.
	recent[0] = NewAssistantMessage("mutated")
	require.Equal(t, "two", s.Recent(3)[0].Text())
}

func TestMessageTextJoinsTextBlocks(t *testing.T) {
	m := Message{
		Role: RoleAssistant,
		Content: []ContentBlock{
			{Type: BlockText, Text: "part one, "},
			{Type: BlockToolUse, Text: "ignored"},
			{Type: BlockText, Text: "part two"},
		},
	}
	require.Equal(t, "part one, part two", m.Text())
}

func TestStoreLifecycle(t *testing.T) {
	store := NewStore()

	s := store.Create()
	require.NotNil(t, s)

	got, ok := store.Get(s.ID)
	require.True(t, ok)
	require.Same(t, s, got)

	_, ok = store.Get("nope")
	require.False(t, ok)

	store.Delete(s.ID)
	_, ok = store.Get(s.ID)
	require.False(t, ok)
}
