package structs

// Member is the guild-scoped decoration of a User. It references its guild
// and roles by identifier rather than by pointer so that the guild remains
// the single owner of its object graph.
type Member struct {
	User     *User       `json:"user"`
	GuildID  Snowflake   `json:"guild_id,omitempty"`
	Nick     string      `json:"nick,omitempty"`
	RoleIDs  []Snowflake `json:"roles"`
	JoinedAt string      `json:"joined_at,omitempty"`
	Deaf     bool        `json:"deaf"`
	Mute     bool        `json:"mute"`
	Status   string      `json:"status,omitempty"`
	Activity string      `json:"activity,omitempty"`
}

// DisplayName is the nickname when set, the account name otherwise.
func (m *Member) DisplayName() string {
	if m.Nick != "" {
		return m.Nick
	}
	return m.User.Username
}

// Mention returns the nickname-mention form when the member has a
// nickname, the plain mention otherwise.
func (m *Member) Mention() string {
	if m.Nick != "" {
		return "<@!" + m.User.ID.String() + ">"
	}
	return m.User.Mention()
}

// HasRole reports whether the member holds the given role. Every member
// implicitly holds the guild's default role.
func (m *Member) HasRole(id Snowflake) bool {
	if id == m.GuildID {
		return true
	}
	for _, rid := range m.RoleIDs {
		if rid == id {
			return true
		}
	}
	return false
}

// RemoveRole drops the role from the member's role list if present.
func (m *Member) RemoveRole(id Snowflake) {
	for i, rid := range m.RoleIDs {
		if rid == id {
			m.RoleIDs = append(m.RoleIDs[:i], m.RoleIDs[i+1:]...)
			return
		}
	}
}
