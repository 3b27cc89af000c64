package structs

// User is guild-independent identity data. Users are cached once per
// connection and shared by reference across every guild they are visible in.
type User struct {
	ID            Snowflake `json:"id"`
	Username      string    `json:"username"`
	Discriminator string    `json:"discriminator"`
	Avatar        string    `json:"avatar,omitempty"`
	Bot           bool      `json:"bot,omitempty"`
	System        bool      `json:"system,omitempty"`
	PublicFlags   uint      `json:"public_flags,omitempty"`
}

// Mention returns the string that mentions the user in message content.
func (u *User) Mention() string {
	return "<@" + u.ID.String() + ">"
}

// Patch copies identity fields of in onto u, keeping the shared pointer
// stable for every member list referencing it.
func (u *User) Patch(in *User) {
	u.Username = in.Username
	u.Discriminator = in.Discriminator
	u.Avatar = in.Avatar
	u.Bot = in.Bot
	u.System = in.System
	u.PublicFlags = in.PublicFlags
}

type RelationshipType = int

const (
	RelationshipFriend          RelationshipType = 1
	RelationshipBlocked         RelationshipType = 2
	RelationshipPendingIncoming RelationshipType = 3
	RelationshipPendingOutgoing RelationshipType = 4
)

// Relationship links the authenticated identity to another user.
type Relationship struct {
	ID   Snowflake        `json:"id"`
	Type RelationshipType `json:"type"`
	User *User            `json:"user"`
}

// Settings is the authenticated user's client settings singleton. Update
// events for it are sparse, hence the Optional fields on SettingsUpdate.
type Settings struct {
	Theme                 string      `json:"theme,omitempty"`
	Locale                string      `json:"locale,omitempty"`
	ShowCurrentGame       bool        `json:"show_current_game,omitempty"`
	MessageDisplayCompact bool        `json:"message_display_compact,omitempty"`
	Status                string      `json:"status,omitempty"`
	GuildPositions        []Snowflake `json:"guild_positions,omitempty"`
	RestrictedGuilds      []Snowflake `json:"restricted_guilds,omitempty"`
}

type SettingsUpdate struct {
	Theme                 Optional[string]      `json:"theme"`
	Locale                Optional[string]      `json:"locale"`
	ShowCurrentGame       Optional[bool]        `json:"show_current_game"`
	MessageDisplayCompact Optional[bool]        `json:"message_display_compact"`
	Status                Optional[string]      `json:"status"`
	GuildPositions        Optional[[]Snowflake] `json:"guild_positions"`
	RestrictedGuilds      Optional[[]Snowflake] `json:"restricted_guilds"`
}

// Apply merges the fields present in the update onto the settings. Omitted
// keys keep their cached value, explicit nulls reset to the zero value.
func (s *Settings) Apply(u *SettingsUpdate) {
	applyOptional(&s.Theme, u.Theme)
	applyOptional(&s.Locale, u.Locale)
	applyOptional(&s.ShowCurrentGame, u.ShowCurrentGame)
	applyOptional(&s.MessageDisplayCompact, u.MessageDisplayCompact)
	applyOptional(&s.Status, u.Status)
	applyOptional(&s.GuildPositions, u.GuildPositions)
	applyOptional(&s.RestrictedGuilds, u.RestrictedGuilds)
}

func applyOptional[T any](dst *T, src Optional[T]) {
	if !src.Present {
		return
	}
	if src.Null {
		var zero T
		*dst = zero
		return
	}
	*dst = src.Value
}
