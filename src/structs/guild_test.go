package structs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rolePositions(g *Guild) map[Snowflake]int {
	out := make(map[Snowflake]int, len(g.Roles))
	for _, r := range g.Roles {
		out[r.ID] = r.Position
	}
	return out
}

func TestAddRoleKeepsPositionsDense(t *testing.T) {
	g := NewGuild(100)
	g.Roles = []*Role{{ID: 100, GuildID: 100, Name: "@everyone", Position: 0}}

	g.AddRole(&Role{ID: 200, Name: "first"})
	g.AddRole(&Role{ID: 300, Name: "second"})

	// each insertion lands directly above the default role
	assert.Equal(t, map[Snowflake]int{100: 0, 200: 2, 300: 1}, rolePositions(g))
}

func TestRemoveRoleClosesGapAndStripsMembers(t *testing.T) {
	g := NewGuild(100)
	g.Roles = []*Role{{ID: 100, GuildID: 100, Position: 0}}
	g.AddRole(&Role{ID: 200})
	g.AddRole(&Role{ID: 300})
	g.AddMember(&Member{User: &User{ID: 2}, RoleIDs: []Snowflake{200, 300}})

	g.RemoveRole(300)

	assert.Equal(t, map[Snowflake]int{100: 0, 200: 1}, rolePositions(g))
	assert.Equal(t, []Snowflake{200}, g.Member(2).RoleIDs)

	// removing an unknown role is a no-op
	g.RemoveRole(999)
	assert.Len(t, g.Roles, 2)
}

func TestRoleHierarchy(t *testing.T) {
	g := NewGuild(100)
	g.Roles = []*Role{
		{ID: 100, Position: 0},
		{ID: 200, Position: 2},
		{ID: 300, Position: 1},
		{ID: 400, Position: 1},
	}
	h := g.RoleHierarchy()
	ids := make([]Snowflake, len(h))
	for i, r := range h {
		ids[i] = r.ID
	}
	assert.Equal(t, []Snowflake{200, 400, 300, 100}, ids)
}

func TestUpdateVoiceStateTransitions(t *testing.T) {
	g := NewGuild(100)
	g.AddChannel(&Channel{ID: 200, Name: "lobby", Type: ChannelTypeVoice})
	g.AddChannel(&Channel{ID: 300, Name: "afk", Type: ChannelTypeVoice})

	// join
	before, after := g.UpdateVoiceState(&VoiceState{UserID: 2, ChannelID: 200, SessionID: "s1"})
	assert.Nil(t, before)
	require.NotNil(t, after)
	assert.Equal(t, Snowflake(200), after.ChannelID)
	assert.Equal(t, []Snowflake{2}, g.Channel(200).VoiceMembers)

	// move
	before, after = g.UpdateVoiceState(&VoiceState{UserID: 2, ChannelID: 300, SessionID: "s1"})
	require.NotNil(t, before)
	assert.Equal(t, Snowflake(200), before.ChannelID)
	assert.Equal(t, Snowflake(300), after.ChannelID)
	assert.Empty(t, g.Channel(200).VoiceMembers)
	assert.Equal(t, []Snowflake{2}, g.Channel(300).VoiceMembers)

	// leave
	before, after = g.UpdateVoiceState(&VoiceState{UserID: 2, SessionID: "s1"})
	require.NotNil(t, before)
	assert.Equal(t, Snowflake(300), before.ChannelID)
	assert.Equal(t, Snowflake(0), after.ChannelID)
	assert.Empty(t, g.Channel(300).VoiceMembers)
	assert.Nil(t, g.VoiceStates[2])
}

func TestRemoveChannelCascadesVoiceStates(t *testing.T) {
	g := NewGuild(100)
	g.AddChannel(&Channel{ID: 200, Type: ChannelTypeVoice})
	g.UpdateVoiceState(&VoiceState{UserID: 2, ChannelID: 200})

	g.RemoveChannel(200)
	assert.Nil(t, g.Channel(200))
	assert.Empty(t, g.VoiceStates)
}

func TestAddChannelPreservesRoster(t *testing.T) {
	g := NewGuild(100)
	g.AddChannel(&Channel{ID: 200, Name: "lobby", Type: ChannelTypeVoice})
	g.UpdateVoiceState(&VoiceState{UserID: 2, ChannelID: 200})

	// a CHANNEL_UPDATE payload never carries the roster
	g.AddChannel(&Channel{ID: 200, Name: "renamed", Type: ChannelTypeVoice})
	assert.Equal(t, "renamed", g.Channel(200).Name)
	assert.Equal(t, []Snowflake{2}, g.Channel(200).VoiceMembers)
}

func TestNormalizeOverwrites(t *testing.T) {
	g := NewGuild(100)
	ch := &Channel{ID: 200, Type: ChannelTypeText, PermissionOverwrites: []Overwrite{
		{ID: 300, Type: OverwriteTypeRole},
		{ID: 2, Type: OverwriteTypeMember},
		{ID: 100, Type: OverwriteTypeRole},
	}}
	g.AddChannel(ch)
	assert.Equal(t, Snowflake(100), ch.PermissionOverwrites[0].ID)
	assert.Len(t, ch.PermissionOverwrites, 3)
}

func TestGetMemberNamed(t *testing.T) {
	g := NewGuild(100)
	g.AddMember(&Member{User: &User{ID: 2, Username: "alice", Discriminator: "0001"}, Nick: "wonder"})
	g.AddMember(&Member{User: &User{ID: 3, Username: "alice", Discriminator: "0002"}})

	require.NotNil(t, g.GetMemberNamed("alice#0002"))
	assert.Equal(t, Snowflake(3), g.GetMemberNamed("alice#0002").User.ID)

	assert.NotNil(t, g.GetMemberNamed("wonder"))
	assert.NotNil(t, g.GetMemberNamed("alice"))
	assert.Nil(t, g.GetMemberNamed("bob"))
}

func TestChannelOrdering(t *testing.T) {
	g := NewGuild(100)
	g.AddChannel(&Channel{ID: 100, Name: "general", Type: ChannelTypeText, Position: 0})
	g.AddChannel(&Channel{ID: 300, Name: "memes", Type: ChannelTypeText, Position: 1})
	g.AddChannel(&Channel{ID: 200, Name: "rules", Type: ChannelTypeText, Position: 1})
	g.AddChannel(&Channel{ID: 400, Name: "lobby", Type: ChannelTypeVoice})

	text := g.TextChannels()
	require.Len(t, text, 3)
	assert.Equal(t, Snowflake(100), text[0].ID)
	assert.Equal(t, Snowflake(200), text[1].ID)
	assert.Equal(t, Snowflake(300), text[2].ID)

	voice := g.VoiceChannels()
	require.Len(t, voice, 1)
	assert.Equal(t, Snowflake(400), voice[0].ID)
}
