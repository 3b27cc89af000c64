package structs

// VoiceState tracks a user's presence in a guild voice channel. A null
// channel id on the wire means the user disconnected and the entry is
// removed from the cache.
type VoiceState struct {
	UserID    Snowflake `json:"user_id"`
	GuildID   Snowflake `json:"guild_id,omitempty"`
	ChannelID Snowflake `json:"channel_id"`
	SessionID string    `json:"session_id"`
	SelfMute  bool      `json:"self_mute"`
	SelfDeaf  bool      `json:"self_deaf"`
	Mute      bool      `json:"mute"`
	Deaf      bool      `json:"deaf"`
}

// Copy returns a value snapshot, used for before/after event arguments.
func (v *VoiceState) Copy() *VoiceState {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
