package structs

import (
	"regexp"
	"strings"
)

type MessageType = int

const (
	MessageTypeDefault MessageType = 0
)

type Attachment struct {
	ID       Snowflake `json:"id"`
	Filename string    `json:"filename"`
	Size     int       `json:"size"`
	URL      string    `json:"url"`
	ProxyURL string    `json:"proxy_url,omitempty"`
}

type Embed struct {
	Title       string `json:"title,omitempty"`
	Type        string `json:"type,omitempty"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url,omitempty"`
}

// ReactionEmoji identifies an emoji on the wire: custom emoji carry an id,
// unicode emoji only a name.
type ReactionEmoji struct {
	ID   Snowflake `json:"id"`
	Name string    `json:"name"`
}

// Key is the identity used to merge reaction events: the custom emoji id
// when present, the unicode string otherwise.
func (e ReactionEmoji) Key() string {
	if e.ID != 0 {
		return e.ID.String()
	}
	return e.Name
}

// Reaction is the reference-counted aggregation of one emoji on a message.
type Reaction struct {
	Emoji ReactionEmoji `json:"emoji"`
	Count int           `json:"count"`
	Me    bool          `json:"me"`
}

// Message lives in a bounded, connection-wide ring buffer rather than
// being owned by its channel or guild.
type Message struct {
	ID              Snowflake     `json:"id"`
	ChannelID       Snowflake     `json:"channel_id"`
	GuildID         Snowflake     `json:"guild_id,omitempty"`
	Author          *User         `json:"author"`
	Content         string        `json:"content"`
	Timestamp       string        `json:"timestamp,omitempty"`
	EditedTimestamp string        `json:"edited_timestamp,omitempty"`
	TTS             bool          `json:"tts"`
	MentionEveryone bool          `json:"mention_everyone"`
	Mentions        []*User       `json:"mentions,omitempty"`
	MentionRoles    []Snowflake   `json:"mention_roles,omitempty"`
	Attachments     []Attachment  `json:"attachments,omitempty"`
	Embeds          []Embed       `json:"embeds,omitempty"`
	Reactions       []*Reaction   `json:"reactions,omitempty"`
	Pinned          bool          `json:"pinned"`
	Type            MessageType   `json:"type"`
	Nonce           string        `json:"nonce,omitempty"`
}

// Copy returns a shallow snapshot for before/after event arguments. The
// reaction list is cloned since it mutates in place.
func (m *Message) Copy() *Message {
	c := *m
	c.Reactions = make([]*Reaction, len(m.Reactions))
	for i, r := range m.Reactions {
		rc := *r
		c.Reactions[i] = &rc
	}
	return &c
}

func (m *Message) reaction(key string) *Reaction {
	for _, r := range m.Reactions {
		if r.Emoji.Key() == key {
			return r
		}
	}
	return nil
}

// AddReaction finds or creates the reaction for the emoji and increments
// its count. me marks whether the authenticated user placed it.
func (m *Message) AddReaction(emoji ReactionEmoji, me bool) *Reaction {
	r := m.reaction(emoji.Key())
	if r == nil {
		r = &Reaction{Emoji: emoji}
		m.Reactions = append(m.Reactions, r)
	}
	r.Count++
	if me {
		r.Me = true
	}
	return r
}

// RemoveReaction decrements the reaction count, dropping the entry when it
// reaches zero. Removing an uncached reaction is reported, not ignored.
func (m *Message) RemoveReaction(emoji ReactionEmoji, me bool) error {
	key := emoji.Key()
	r := m.reaction(key)
	if r == nil {
		return ErrReactionNotFound
	}
	r.Count--
	if me {
		r.Me = false
	}
	if r.Count <= 0 {
		for i, existing := range m.Reactions {
			if existing.Emoji.Key() == key {
				m.Reactions = append(m.Reactions[:i], m.Reactions[i+1:]...)
				break
			}
		}
	}
	return nil
}

// MessageUpdate is the sparse patch shape of a message edit. Only keys
// present on the wire overwrite the cached message.
type MessageUpdate struct {
	ID              Snowflake               `json:"id"`
	ChannelID       Snowflake               `json:"channel_id"`
	GuildID         Snowflake               `json:"guild_id,omitempty"`
	Author          *User                   `json:"author,omitempty"`
	Content         Optional[string]        `json:"content"`
	EditedTimestamp Optional[string]        `json:"edited_timestamp"`
	TTS             Optional[bool]          `json:"tts"`
	MentionEveryone Optional[bool]          `json:"mention_everyone"`
	Mentions        Optional[[]*User]       `json:"mentions"`
	MentionRoles    Optional[[]Snowflake]   `json:"mention_roles"`
	Attachments     Optional[[]Attachment]  `json:"attachments"`
	Embeds          Optional[[]Embed]       `json:"embeds"`
	Pinned          Optional[bool]          `json:"pinned"`
	Type            Optional[MessageType]   `json:"type"`
}

// Apply merges the patch field by field. Absent fields keep the cached
// value, explicit nulls reset.
func (m *Message) Apply(u *MessageUpdate) {
	applyOptional(&m.Content, u.Content)
	applyOptional(&m.EditedTimestamp, u.EditedTimestamp)
	applyOptional(&m.TTS, u.TTS)
	applyOptional(&m.MentionEveryone, u.MentionEveryone)
	applyOptional(&m.Mentions, u.Mentions)
	applyOptional(&m.MentionRoles, u.MentionRoles)
	applyOptional(&m.Attachments, u.Attachments)
	applyOptional(&m.Embeds, u.Embeds)
	applyOptional(&m.Pinned, u.Pinned)
	applyOptional(&m.Type, u.Type)
}

var (
	userMentionPattern    = regexp.MustCompile(`<@!?(\d+)>`)
	channelMentionPattern = regexp.MustCompile(`<#(\d+)>`)
	roleMentionPattern    = regexp.MustCompile(`<@&(\d+)>`)
)

// CleanContent renders the content with every mention form replaced by its
// display text: <@id> and <@!id> become @name, <#id> becomes #name, <@&id>
// becomes @role, and @everyone/@here are defused with a zero-width space.
// The guild may be nil for direct messages.
func (m *Message) CleanContent(g *Guild) string {
	content := m.Content

	content = userMentionPattern.ReplaceAllStringFunc(content, func(s string) string {
		id := parseMentionID(s)
		if g != nil {
			if member := g.Member(id); member != nil {
				return "@" + member.DisplayName()
			}
		}
		for _, u := range m.Mentions {
			if u.ID == id {
				return "@" + u.Username
			}
		}
		return s
	})

	content = channelMentionPattern.ReplaceAllStringFunc(content, func(s string) string {
		if g == nil {
			return s
		}
		if ch := g.Channel(parseMentionID(s)); ch != nil {
			return "#" + ch.Name
		}
		return s
	})

	content = roleMentionPattern.ReplaceAllStringFunc(content, func(s string) string {
		if g == nil {
			return s
		}
		if r := g.Role(parseMentionID(s)); r != nil {
			return "@" + r.Name
		}
		return s
	})

	content = strings.ReplaceAll(content, "@everyone", "@​everyone")
	content = strings.ReplaceAll(content, "@here", "@​here")
	return content
}

func parseMentionID(mention string) Snowflake {
	digits := strings.TrimFunc(mention, func(r rune) bool {
		return r < '0' || r > '9'
	})
	var id Snowflake
	for _, r := range digits {
		id = id*10 + Snowflake(r-'0')
	}
	return id
}
