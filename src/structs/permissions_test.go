package structs

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func permTestGuild() *Guild {
	g := NewGuild(100)
	g.Name = "testing ground"
	g.OwnerID = 1
	g.Roles = []*Role{
		{ID: 100, GuildID: 100, Name: "@everyone", Position: 0, Permissions: PermissionReadMessages | PermissionSendMessages},
		{ID: 200, GuildID: 100, Name: "mods", Position: 1, Permissions: PermissionManageMessages},
	}
	g.AddChannel(&Channel{ID: 100, Name: "general", Type: ChannelTypeText})
	g.AddChannel(&Channel{ID: 300, Name: "offtopic", Type: ChannelTypeText, Position: 1})
	g.AddMember(&Member{User: &User{ID: 1, Username: "owner", Discriminator: "0001"}})
	g.AddMember(&Member{User: &User{ID: 2, Username: "mod", Discriminator: "0002"}, RoleIDs: []Snowflake{200}})
	g.AddMember(&Member{User: &User{ID: 3, Username: "pleb", Discriminator: "0003"}})
	return g
}

func TestPermissionsForOwnerBypass(t *testing.T) {
	g := permTestGuild()
	ch := g.Channel(300)
	ch.PermissionOverwrites = []Overwrite{
		{ID: 100, Type: OverwriteTypeRole, Deny: PermissionsAll()},
	}
	p, err := g.PermissionsFor(g.Member(1), ch)
	require.NoError(t, err)
	assert.Equal(t, PermissionsAll(), p)
}

func TestPermissionsForRoleUnion(t *testing.T) {
	g := permTestGuild()
	p, err := g.PermissionsFor(g.Member(2), g.Channel(300))
	require.NoError(t, err)
	assert.Equal(t, PermissionReadMessages|PermissionSendMessages|PermissionManageMessages, p)
}

func TestPermissionsForManageRolesEscalation(t *testing.T) {
	g := permTestGuild()
	g.Roles = append(g.Roles, &Role{ID: 250, GuildID: 100, Name: "admin", Position: 2, Permissions: PermissionManageRoles})
	m := g.Member(3)
	m.RoleIDs = []Snowflake{250}
	p, err := g.PermissionsFor(m, g.Channel(300))
	require.NoError(t, err)
	assert.Equal(t, PermissionsAll(), p)
}

func TestPermissionsForManageRolesSurvivesDeny(t *testing.T) {
	g := permTestGuild()
	g.Roles = append(g.Roles, &Role{ID: 250, GuildID: 100, Name: "admin", Position: 2, Permissions: PermissionManageRoles})
	m := g.Member(3)
	m.RoleIDs = []Snowflake{250}
	ch := g.Channel(300)
	ch.PermissionOverwrites = []Overwrite{
		{ID: 100, Type: OverwriteTypeRole, Deny: PermissionReadMessages},
	}
	p, err := g.PermissionsFor(m, ch)
	require.NoError(t, err)
	// channel-scope broadening restores the denied bit
	assert.True(t, p.Has(PermissionReadMessages))
}

func TestPermissionsForOverwritePrecedence(t *testing.T) {
	g := permTestGuild()
	ch := g.Channel(300)
	ch.PermissionOverwrites = []Overwrite{
		{ID: 200, Type: OverwriteTypeRole, Allow: PermissionSendMessages},
		{ID: 100, Type: OverwriteTypeRole, Deny: PermissionSendMessages},
	}
	g.AddChannel(ch)

	// member 2 holds role 200: the everyone deny applies first, then the
	// role allow restores the bit
	p, err := g.PermissionsFor(g.Member(2), ch)
	require.NoError(t, err)
	assert.True(t, p.Has(PermissionSendMessages))

	// member 3 only gets the everyone deny
	p, err = g.PermissionsFor(g.Member(3), ch)
	require.NoError(t, err)
	assert.False(t, p.Has(PermissionSendMessages))

	// the member overwrite beats every role overwrite
	ch.PermissionOverwrites = append(ch.PermissionOverwrites, Overwrite{
		ID: 2, Type: OverwriteTypeMember, Deny: PermissionSendMessages,
	})
	p, err = g.PermissionsFor(g.Member(2), ch)
	require.NoError(t, err)
	assert.False(t, p.Has(PermissionSendMessages))
}

func TestPermissionsForDefaultChannelRead(t *testing.T) {
	g := permTestGuild()
	def := g.DefaultChannel()
	require.NotNil(t, def)
	def.PermissionOverwrites = []Overwrite{
		{ID: 100, Type: OverwriteTypeRole, Deny: PermissionReadMessages},
	}
	p, err := g.PermissionsFor(g.Member(3), def)
	require.NoError(t, err)
	assert.True(t, p.Has(PermissionReadMessages))
}

func TestPermissionsForInvalidState(t *testing.T) {
	g := permTestGuild()
	_, err := g.PermissionsFor(nil, g.Channel(300))
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = g.PermissionsFor(g.Member(2), nil)
	assert.ErrorIs(t, err, ErrInvalidState)

	stranger := &Member{User: &User{ID: 9}, GuildID: 999}
	_, err = g.PermissionsFor(stranger, g.Channel(300))
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestPermissionsPrivateChannelTemplate(t *testing.T) {
	p := PermissionsPrivateChannel()
	assert.True(t, p.Has(PermissionReadMessages))
	assert.True(t, p.Has(PermissionSendMessages))
	assert.True(t, p.Has(PermissionEmbedLinks))
	assert.False(t, p.Has(PermissionSendTTSMessages))
	assert.False(t, p.Has(PermissionManageMessages))
	assert.False(t, p.Has(PermissionMentionEveryone))

	pc := &PrivateChannel{ID: 1, Recipients: []*User{{ID: 42}}}
	assert.Equal(t, p, pc.PermissionsFor(pc.Recipient()))
}

func TestHandleOverwriteAllowWins(t *testing.T) {
	base := PermissionReadMessages
	out := base.HandleOverwrite(PermissionSendMessages, PermissionSendMessages|PermissionReadMessages)
	assert.True(t, out.Has(PermissionSendMessages))
	assert.False(t, out.Has(PermissionReadMessages))
}

func TestPermissionsJSON(t *testing.T) {
	var p Permissions
	require.NoError(t, json.Unmarshal([]byte(`"1024"`), &p))
	assert.Equal(t, PermissionReadMessages, p)
	require.NoError(t, json.Unmarshal([]byte(`1024`), &p))
	assert.Equal(t, PermissionReadMessages, p)

	out, err := json.Marshal(PermissionReadMessages)
	require.NoError(t, err)
	assert.Equal(t, `"1024"`, string(out))
}
