package structs

type ChannelType = int

const (
	ChannelTypeText  ChannelType = 0
	ChannelTypeDM    ChannelType = 1
	ChannelTypeVoice ChannelType = 2
)

type OverwriteType = string

const (
	OverwriteTypeRole   OverwriteType = "role"
	OverwriteTypeMember OverwriteType = "member"
)

// Overwrite is a channel-scoped allow/deny permission pair targeting a
// role or a single member.
type Overwrite struct {
	ID    Snowflake     `json:"id"`
	Type  OverwriteType `json:"type"`
	Allow Permissions   `json:"allow"`
	Deny  Permissions   `json:"deny"`
}

// Channel is a guild-owned channel. It refers back to its guild by
// identifier only; the guild owns the channel map.
type Channel struct {
	ID       Snowflake `json:"id"`
	GuildID  Snowflake `json:"guild_id,omitempty"`
	Name     string    `json:"name"`
	Type     ChannelType `json:"type"`
	Position int       `json:"position"`
	Topic    string    `json:"topic,omitempty"`
	Bitrate  int       `json:"bitrate,omitempty"`

	PermissionOverwrites []Overwrite `json:"permission_overwrites,omitempty"`

	// VoiceMembers is the roster of members currently connected to this
	// voice channel, maintained by voice state transitions.
	VoiceMembers []Snowflake `json:"-"`
}

// Mention returns the string that mentions the channel in message content.
func (c *Channel) Mention() string {
	return "<#" + c.ID.String() + ">"
}

// IsDefault reports whether this is the guild's default channel. Like the
// default role, its identifier equals the guild identifier.
func (c *Channel) IsDefault() bool {
	return c.ID == c.GuildID
}

// NormalizeOverwrites moves the default-role overwrite to the front of the
// list. The wire gives no ordering guarantee, but resolution treats the
// default role as the baseline so it has to be applied first.
func (c *Channel) NormalizeOverwrites(everyoneID Snowflake) {
	for i, ow := range c.PermissionOverwrites {
		if ow.Type == OverwriteTypeRole && ow.ID == everyoneID {
			c.PermissionOverwrites[0], c.PermissionOverwrites[i] = c.PermissionOverwrites[i], c.PermissionOverwrites[0]
			return
		}
	}
}

// OverwriteFor returns the overwrite matching the target, if any.
func (c *Channel) OverwriteFor(typ OverwriteType, id Snowflake) (Overwrite, bool) {
	for _, ow := range c.PermissionOverwrites {
		if ow.Type == typ && ow.ID == id {
			return ow, true
		}
	}
	return Overwrite{}, false
}

func (c *Channel) addVoiceMember(id Snowflake) {
	for _, existing := range c.VoiceMembers {
		if existing == id {
			return
		}
	}
	c.VoiceMembers = append(c.VoiceMembers, id)
}

func (c *Channel) removeVoiceMember(id Snowflake) {
	for i, existing := range c.VoiceMembers {
		if existing == id {
			c.VoiceMembers = append(c.VoiceMembers[:i], c.VoiceMembers[i+1:]...)
			return
		}
	}
}

// PrivateChannel is an open direct-message channel with a single user.
type PrivateChannel struct {
	ID         Snowflake `json:"id"`
	Recipients []*User   `json:"recipients"`

	LastMessageID Snowflake `json:"last_message_id,omitempty"`
}

// Recipient returns the other party of the conversation.
func (p *PrivateChannel) Recipient() *User {
	if len(p.Recipients) == 0 {
		return nil
	}
	return p.Recipients[0]
}

// PermissionsFor resolves permissions inside a direct message. There are
// no roles or overwrites; the result is a fixed text-channel template.
func (p *PrivateChannel) PermissionsFor(*User) Permissions {
	return PermissionsPrivateChannel()
}
