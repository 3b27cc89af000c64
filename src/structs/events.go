package structs

import (
	"encoding/json"
	"log/slog"
)

type EventName = string
type EventOpcode = int

const (
	EventNameReady             EventName = "READY"
	EventNameResumed           EventName = "RESUMED"
	EventNameMessageCreate     EventName = "MESSAGE_CREATE"
	EventNameMessageUpdate     EventName = "MESSAGE_UPDATE"
	EventNameMessageDelete     EventName = "MESSAGE_DELETE"
	EventNameReactionAdd       EventName = "MESSAGE_REACTION_ADD"
	EventNameReactionRemove    EventName = "MESSAGE_REACTION_REMOVE"
	EventNameGuildCreate       EventName = "GUILD_CREATE"
	EventNameGuildUpdate       EventName = "GUILD_UPDATE"
	EventNameGuildDelete       EventName = "GUILD_DELETE"
	EventNameGuildMemberAdd    EventName = "GUILD_MEMBER_ADD"
	EventNameGuildMemberUpdate EventName = "GUILD_MEMBER_UPDATE"
	EventNameGuildMemberRemove EventName = "GUILD_MEMBER_REMOVE"
	EventNameGuildMembersChunk EventName = "GUILD_MEMBERS_CHUNK"
	EventNameGuildRoleCreate   EventName = "GUILD_ROLE_CREATE"
	EventNameGuildRoleUpdate   EventName = "GUILD_ROLE_UPDATE"
	EventNameGuildRoleDelete   EventName = "GUILD_ROLE_DELETE"
	EventNameChannelCreate     EventName = "CHANNEL_CREATE"
	EventNameChannelUpdate     EventName = "CHANNEL_UPDATE"
	EventNameChannelDelete     EventName = "CHANNEL_DELETE"
	EventNameVoiceStateUpdate  EventName = "VOICE_STATE_UPDATE"
	EventNamePresenceUpdate    EventName = "PRESENCE_UPDATE"
	EventNameTypingStart       EventName = "TYPING_START"
	EventNameUserUpdate        EventName = "USER_UPDATE"
	EventNameUserSettingsUpdate EventName = "USER_SETTINGS_UPDATE"
	EventNameRelationshipAdd   EventName = "RELATIONSHIP_ADD"
	EventNameRelationshipRemove EventName = "RELATIONSHIP_REMOVE"
)

// RawEvent is one decoded envelope off the socket. D stays raw to delay
// payload decoding until the event type is known.
type RawEvent struct {
	Op EventOpcode     `json:"op"`
	D  json.RawMessage `json:"d,omitempty"`
	S  uint64          `json:"s,omitempty"`
	T  EventName       `json:"t,omitempty"`
}

func (re *RawEvent) LogValue() slog.Value {
	return slog.GroupValue(slog.Int("op_code", re.Op),
		slog.Uint64("sequence", re.S),
		slog.String("event_name", re.T))
}

// Event is the outbound envelope shape.
type Event struct {
	Op EventOpcode `json:"op"`
	D  interface{} `json:"d,omitempty"`
	S  uint64      `json:"s,omitempty"`
	T  EventName   `json:"t,omitempty"`
}

func (e *Event) LogValue() slog.Value {
	return slog.GroupValue(slog.Int("op_code", e.Op),
		slog.Any("event_data", e.D),
		slog.Uint64("sequence", e.S),
		slog.String("event_name", e.T))
}

type HelloEvent struct {
	HeartbeatInterval uint `json:"heartbeat_interval"`
}

type IdentifyEvent struct {
	Token          string                  `json:"token"`
	Properties     IdentifyEventProperties `json:"properties"`
	Intents        int                     `json:"intents"`
	Compress       bool                    `json:"compress,omitempty"`
	LargeThreshold uint8                   `json:"large_threshold,omitempty"`
}

type IdentifyEventProperties struct {
	Os      string `json:"os"`
	Browser string `json:"browser"`
	Device  string `json:"device"`
}

type ResumeEvent struct {
	Token     string `json:"token"`
	SessionID string `json:"session_id"`
	Seq       uint64 `json:"seq"`
}

// MemberPayload is the wire shape of a member inside guild payloads and
// member events. Role ids resolve against the owning guild's role list.
type MemberPayload struct {
	User     *User       `json:"user"`
	GuildID  Snowflake   `json:"guild_id,omitempty"`
	Nick     string      `json:"nick,omitempty"`
	Roles    []Snowflake `json:"roles"`
	JoinedAt string      `json:"joined_at,omitempty"`
	Deaf     bool        `json:"deaf"`
	Mute     bool        `json:"mute"`
}

// PresencePayload carries status/activity for one member.
type PresencePayload struct {
	User     *User     `json:"user"`
	GuildID  Snowflake `json:"guild_id,omitempty"`
	Status   string    `json:"status"`
	Activity string    `json:"game,omitempty"`
}

// GuildPayload is the wire shape of a full guild, used both inside the
// snapshot and in GUILD_CREATE.
type GuildPayload struct {
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

	Roles       []*Role            `json:"roles,omitempty"`
	Members     []*MemberPayload   `json:"members,omitempty"`
	Channels    []*Channel         `json:"channels,omitempty"`
	VoiceStates []*VoiceState      `json:"voice_states,omitempty"`
	Presences   []*PresencePayload `json:"presences,omitempty"`
}

// ReadyEvent is the snapshot that bootstraps every cache.
type ReadyEvent struct {
	V                int               `json:"v"`
	User             *User             `json:"user"`
	Guilds           []*GuildPayload   `json:"guilds"`
	PrivateChannels  []*PrivateChannel `json:"private_channels"`
	Relationships    []*Relationship   `json:"relationships,omitempty"`
	UserSettings     *Settings         `json:"user_settings,omitempty"`
	SessionID        string            `json:"session_id"`
	ResumeGatewayURL string            `json:"resume_gateway_url,omitempty"`
}

type GuildDeleteEvent struct {
	ID          Snowflake `json:"id"`
	Unavailable bool      `json:"unavailable,omitempty"`
}

type GuildMemberRemoveEvent struct {
	GuildID Snowflake `json:"guild_id"`
	User    *User     `json:"user"`
}

type GuildMembersChunkEvent struct {
	GuildID Snowflake        `json:"guild_id"`
	Members []*MemberPayload `json:"members"`
}

type GuildRoleEvent struct {
	GuildID Snowflake `json:"guild_id"`
	Role    *Role     `json:"role"`
}

type GuildRoleDeleteEvent struct {
	GuildID Snowflake `json:"guild_id"`
	RoleID  Snowflake `json:"role_id"`
}

type MessageDeleteEvent struct {
	ID        Snowflake `json:"id"`
	ChannelID Snowflake `json:"channel_id"`
}

type MessageReactionEvent struct {
	UserID    Snowflake     `json:"user_id"`
	ChannelID Snowflake     `json:"channel_id"`
	MessageID Snowflake     `json:"message_id"`
	Emoji     ReactionEmoji `json:"emoji"`
}
