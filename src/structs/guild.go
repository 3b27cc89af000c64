package structs

import (
	"sort"
	"strings"
)

// Guild owns its channels, members, roles and voice states. Children refer
// back to it by identifier; when the guild is removed the whole graph goes
// with it. Shared users are the only exception, they live in the
// connection-wide cache.
type Guild struct {
	ID                Snowflake `json:"id"`
	Name              string    `json:"name"`
	Region            string    `json:"region,omitempty"`
	VerificationLevel int       `json:"verification_level"`
	Icon              string    `json:"icon,omitempty"`
	Splash            string    `json:"splash,omitempty"`
	OwnerID           Snowflake `json:"owner_id"`
	MFALevel          int       `json:"mfa_level"`
	Features          []string  `json:"features,omitempty"`
	MemberCount       int       `json:"member_count"`
	Large             bool      `json:"large"`
	Unavailable       bool      `json:"unavailable"`
	AFKTimeout        int       `json:"afk_timeout,omitempty"`
	AFKChannelID      Snowflake `json:"afk_channel_id,omitempty"`

	Roles       []*Role                   `json:"-"`
	Channels    map[Snowflake]*Channel    `json:"-"`
	Members     map[Snowflake]*Member     `json:"-"`
	VoiceStates map[Snowflake]*VoiceState `json:"-"`
}

func NewGuild(id Snowflake) *Guild {
	return &Guild{
		ID:          id,
		Channels:    make(map[Snowflake]*Channel),
		Members:     make(map[Snowflake]*Member),
		VoiceStates: make(map[Snowflake]*VoiceState),
	}
}

func (g *Guild) Channel(id Snowflake) *Channel {
	return g.Channels[id]
}

func (g *Guild) Member(id Snowflake) *Member {
	return g.Members[id]
}

func (g *Guild) Role(id Snowflake) *Role {
	for _, r := range g.Roles {
		if r.ID == id {
			return r
		}
	}
	return nil
}

func (g *Guild) AddChannel(c *Channel) {
	c.GuildID = g.ID
	c.NormalizeOverwrites(g.ID)
	if existing := g.Channels[c.ID]; existing != nil {
		c.VoiceMembers = existing.VoiceMembers
	}
	g.Channels[c.ID] = c
}

// RemoveChannel drops the channel and every voice state pointing at it.
func (g *Guild) RemoveChannel(id Snowflake) {
	delete(g.Channels, id)
	for userID, vs := range g.VoiceStates {
		if vs.ChannelID == id {
			delete(g.VoiceStates, userID)
		}
	}
}

func (g *Guild) AddMember(m *Member) {
	m.GuildID = g.ID
	g.Members[m.User.ID] = m
}

func (g *Guild) RemoveMember(id Snowflake) {
	delete(g.Members, id)
}

// AddRole appends the role at position 1, directly above the default role,
// shifting every other non-default role up by one. Positions stay a dense
// 0..n-1 permutation.
func (g *Guild) AddRole(r *Role) {
	r.GuildID = g.ID
	for _, existing := range g.Roles {
		if existing.Position > 0 {
			existing.Position++
		}
	}
	r.Position = 1
	g.Roles = append(g.Roles, r)
}

// RemoveRole drops the role, closes the position gap it leaves behind and
// strips it from every member's role list.
func (g *Guild) RemoveRole(id Snowflake) {
	var removed *Role
	for i, r := range g.Roles {
		if r.ID == id {
			removed = r
			g.Roles = append(g.Roles[:i], g.Roles[i+1:]...)
			break
		}
	}
	if removed == nil {
		return
	}
	for _, r := range g.Roles {
		if r.Position > removed.Position {
			r.Position--
		}
	}
	for _, m := range g.Members {
		m.RemoveRole(id)
	}
}

// UpdateVoiceState applies a voice state payload and maintains the voice
// channel rosters. It returns the before and after snapshots.
func (g *Guild) UpdateVoiceState(vs *VoiceState) (before, after *VoiceState) {
	vs.GuildID = g.ID
	before = g.VoiceStates[vs.UserID].Copy()

	if vs.ChannelID == 0 {
		delete(g.VoiceStates, vs.UserID)
	} else {
		g.VoiceStates[vs.UserID] = vs
	}

	if before != nil && before.ChannelID != 0 {
		if old := g.Channels[before.ChannelID]; old != nil {
			old.removeVoiceMember(vs.UserID)
		}
	}
	if vs.ChannelID != 0 {
		if ch := g.Channels[vs.ChannelID]; ch != nil {
			ch.addVoiceMember(vs.UserID)
		}
	}
	return before, vs.Copy()
}

// DefaultRole returns the @everyone role all members implicitly hold.
func (g *Guild) DefaultRole() *Role {
	return g.Role(g.ID)
}

// DefaultChannel returns the guild's default channel, which shares the
// guild's identifier.
func (g *Guild) DefaultChannel() *Channel {
	return g.Channels[g.ID]
}

// RoleHierarchy returns the roles ordered from highest to lowest, position
// first with the identifier as tie breaker.
func (g *Guild) RoleHierarchy() []*Role {
	roles := make([]*Role, len(g.Roles))
	copy(roles, g.Roles)
	sort.SliceStable(roles, func(i, j int) bool {
		if roles[i].Position != roles[j].Position {
			return roles[i].Position > roles[j].Position
		}
		return roles[i].ID > roles[j].ID
	})
	return roles
}

// TextChannels returns the guild's text channels sorted by position.
func (g *Guild) TextChannels() []*Channel {
	return g.channelsOfType(ChannelTypeText)
}

// VoiceChannels returns the guild's voice channels sorted by position.
func (g *Guild) VoiceChannels() []*Channel {
	return g.channelsOfType(ChannelTypeVoice)
}

func (g *Guild) channelsOfType(t ChannelType) []*Channel {
	var out []*Channel
	for _, c := range g.Channels {
		if c.Type == t {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// GetMemberNamed finds a member by "name#discriminator", account name or
// nickname, in that order of precision. Lookup is a linear scan; member
// lists are bounded by chunking in practice.
func (g *Guild) GetMemberNamed(name string) *Member {
	if len(name) > 5 && name[len(name)-5] == '#' {
		username, discriminator := name[:len(name)-5], name[len(name)-4:]
		for _, m := range g.Members {
			if m.User.Username == username && m.User.Discriminator == discriminator {
				return m
			}
		}
	}
	for _, m := range g.Members {
		if m.Nick == name || m.User.Username == name {
			return m
		}
	}
	return nil
}

func (g *Guild) HasFeature(feature string) bool {
	for _, f := range g.Features {
		if strings.EqualFold(f, feature) {
			return true
		}
	}
	return false
}

// PermissionsFor resolves the effective permissions of a member inside a
// channel. The result is a snapshot; it is never cached, callers must
// resolve again after any state mutation.
//
// Order of application: owner bypass, default role base, member role
// bitmasks OR'd in, guild-wide manage-roles escalation, channel role
// overwrites, the member overwrite, channel-scope manage-roles broadening,
// and the default channel read guarantee.
func (g *Guild) PermissionsFor(member *Member, channel *Channel) (Permissions, error) {
	if member == nil || channel == nil {
		return 0, ErrInvalidState
	}
	if member.GuildID != g.ID || channel.GuildID != g.ID {
		return 0, ErrInvalidState
	}

	if member.User.ID == g.OwnerID {
		return PermissionsAll(), nil
	}

	var base Permissions
	if def := g.DefaultRole(); def != nil {
		base = def.Permissions
	}
	for _, id := range member.RoleIDs {
		if r := g.Role(id); r != nil {
			base |= r.Permissions
		}
	}

	if base.Has(PermissionManageRoles) {
		base = PermissionsAll()
	}

	// Role overwrites apply in wire order, not hierarchy order, and all
	// matching ones contribute. The default-role overwrite was moved to
	// the front on ingest so the baseline is applied first.
	for _, ow := range channel.PermissionOverwrites {
		if ow.Type == OverwriteTypeRole && member.HasRole(ow.ID) {
			base = base.HandleOverwrite(ow.Allow, ow.Deny)
		}
	}

	// The member overwrite always wins over role overwrites.
	for _, ow := range channel.PermissionOverwrites {
		if ow.Type == OverwriteTypeMember && ow.ID == member.User.ID {
			base = base.HandleOverwrite(ow.Allow, ow.Deny)
		}
	}

	if base.Has(PermissionManageRoles) {
		// channel-specific manage roles
		base |= PermissionsAllChannel()
	}

	if channel.IsDefault() {
		base |= PermissionReadMessages
	}
	return base, nil
}
