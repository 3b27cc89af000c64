package structs

// Role is a guild-scoped permission bundle. Positions within a guild are
// always a dense permutation of 0..len(roles)-1 with the default role at 0.
type Role struct {
	ID          Snowflake   `json:"id"`
	GuildID     Snowflake   `json:"guild_id,omitempty"`
	Name        string      `json:"name"`
	Color       int         `json:"color"`
	Position    int         `json:"position"`
	Permissions Permissions `json:"permissions"`
	Hoist       bool        `json:"hoist"`
	Mentionable bool        `json:"mentionable"`
	Managed     bool        `json:"managed"`
}

// IsEveryone reports whether this is the guild's default role. Its
// identifier always equals the guild identifier.
func (r *Role) IsEveryone() bool {
	return r.ID == r.GuildID
}

// Mention returns the string that mentions the role in message content.
func (r *Role) Mention() string {
	return "<@&" + r.ID.String() + ">"
}

// Patch copies mutable fields of in onto r. The identifier and owning
// guild never change.
func (r *Role) Patch(in *Role) {
	r.Name = in.Name
	r.Color = in.Color
	r.Position = in.Position
	r.Permissions = in.Permissions
	r.Hoist = in.Hoist
	r.Mentionable = in.Mentionable
	r.Managed = in.Managed
}
