package structs

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReactionLifecycle(t *testing.T) {
	m := &Message{ID: 1}
	thumbsUp := ReactionEmoji{Name: "👍"}

	r := m.AddReaction(thumbsUp, false)
	assert.Equal(t, 1, r.Count)
	assert.False(t, r.Me)

	r = m.AddReaction(thumbsUp, true)
	assert.Equal(t, 2, r.Count)
	assert.True(t, r.Me)
	assert.Len(t, m.Reactions, 1)

	require.NoError(t, m.RemoveReaction(thumbsUp, true))
	assert.Equal(t, 1, r.Count)
	assert.False(t, r.Me)

	require.NoError(t, m.RemoveReaction(thumbsUp, false))
	assert.Empty(t, m.Reactions)

	assert.ErrorIs(t, m.RemoveReaction(thumbsUp, false), ErrReactionNotFound)
}

func TestReactionEmojiKey(t *testing.T) {
	custom := ReactionEmoji{ID: 77, Name: "blob"}
	unicode := ReactionEmoji{Name: "blob"}
	assert.NotEqual(t, custom.Key(), unicode.Key())

	m := &Message{ID: 1}
	m.AddReaction(custom, false)
	m.AddReaction(unicode, false)
	assert.Len(t, m.Reactions, 2)
}

func TestMessageCopyIsolatesReactions(t *testing.T) {
	m := &Message{ID: 1}
	m.AddReaction(ReactionEmoji{Name: "👍"}, false)
	snapshot := m.Copy()

	m.AddReaction(ReactionEmoji{Name: "👍"}, false)
	assert.Equal(t, 1, snapshot.Reactions[0].Count)
	assert.Equal(t, 2, m.Reactions[0].Count)
}

func TestMessageApplySparse(t *testing.T) {
	m := &Message{ID: 1, Content: "old", Pinned: true, EditedTimestamp: "t0"}

	u := &MessageUpdate{}
	require.NoError(t, json.Unmarshal([]byte(`{"id":"1","channel_id":"2","content":"new"}`), u))
	m.Apply(u)
	assert.Equal(t, "new", m.Content)
	assert.True(t, m.Pinned, "omitted key must keep the cached value")
	assert.Equal(t, "t0", m.EditedTimestamp)

	u = &MessageUpdate{}
	require.NoError(t, json.Unmarshal([]byte(`{"id":"1","channel_id":"2","content":null,"pinned":false}`), u))
	m.Apply(u)
	assert.Equal(t, "", m.Content, "explicit null resets")
	assert.False(t, m.Pinned)
}

func TestCleanContent(t *testing.T) {
	g := NewGuild(100)
	g.Roles = []*Role{{ID: 300, GuildID: 100, Name: "mods"}}
	g.AddChannel(&Channel{ID: 200, Name: "general", Type: ChannelTypeText})
	g.AddMember(&Member{User: &User{ID: 2, Username: "alice"}, Nick: "wonder"})

	m := &Message{Content: "hey <@!2> see <#200> ask <@&300> or @everyone"}
	got := m.CleanContent(g)
	assert.Equal(t, "hey @wonder see #general ask @mods or @​everyone", got)
}

func TestCleanContentFallbacks(t *testing.T) {
	// outside any guild the mention list is the only name source
	m := &Message{
		Content:  "hi <@42> and <@99>",
		Mentions: []*User{{ID: 42, Username: "pal"}},
	}
	got := m.CleanContent(nil)
	assert.Equal(t, "hi @pal and <@99>", got)
}
