package state

import (
	"log/slog"
	"sync"

	"github.com/lyrebird-dev/lyrebird/src/structs"
	"github.com/puzpuzpuz/xsync"
)

const DefaultMaxMessages = 5000

// State is the connection's cached object graph. Guilds own their
// channels, members, roles and voice states; users are shared across
// guilds through the concurrent user cache; messages live in a bounded
// ring evicted oldest first.
//
// All mutation happens on the single ingestion goroutine via Dispatch.
// The RWMutex only protects readers (accessors, handler goroutines, the
// status server) against that one writer.
type State struct {
	mu  sync.RWMutex
	log *slog.Logger

	user      *structs.User
	settings  *structs.Settings
	sessionID string

	guilds          map[structs.Snowflake]*structs.Guild
	privateChannels map[structs.Snowflake]*structs.PrivateChannel
	relationships   map[structs.Snowflake]*structs.Relationship

	// users is read concurrently by handler goroutines while the
	// ingestion loop writes, hence the concurrent map.
	users *xsync.MapOf[string, *structs.User]

	maxMessages int
	messages    []*structs.Message

	handlers Handlers
}

type Arguments struct {
	Logger      *slog.Logger
	MaxMessages int
	Handlers    Handlers
}

func NewState(args Arguments) *State {
	if args.Logger == nil {
		args.Logger = slog.Default()
	}
	if args.MaxMessages <= 0 {
		args.MaxMessages = DefaultMaxMessages
	}
	return &State{
		log:             args.Logger,
		guilds:          make(map[structs.Snowflake]*structs.Guild),
		privateChannels: make(map[structs.Snowflake]*structs.PrivateChannel),
		relationships:   make(map[structs.Snowflake]*structs.Relationship),
		users:           xsync.NewMapOf[*structs.User](),
		maxMessages:     args.MaxMessages,
		handlers:        args.Handlers,
	}
}

// storeUser interns a user payload into the shared cache. An already
// cached user is patched in place so that every member list holding the
// pointer observes the update.
func (s *State) storeUser(u *structs.User) *structs.User {
	if u == nil {
		return nil
	}
	cached, loaded := s.users.LoadOrStore(u.ID.String(), u)
	if loaded && cached != u {
		cached.Patch(u)
	}
	return cached
}

// User returns the cached user for the id, or nil.
func (s *State) User(id structs.Snowflake) *structs.User {
	u, _ := s.users.Load(id.String())
	return u
}

// ClientUser returns the authenticated identity.
func (s *State) ClientUser() *structs.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Settings returns the authenticated user's settings singleton.
func (s *State) Settings() *structs.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// SessionID returns the gateway session established by the snapshot.
func (s *State) SessionID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessionID
}

// Guild returns the cached guild for the id, or nil.
func (s *State) Guild(id structs.Snowflake) *structs.Guild {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.guilds[id]
}

// Guilds returns every cached guild, unavailable stubs included.
func (s *State) Guilds() []*structs.Guild {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*structs.Guild, 0, len(s.guilds))
	for _, g := range s.guilds {
		out = append(out, g)
	}
	return out
}

// PrivateChannel returns the cached direct-message channel for the id.
func (s *State) PrivateChannel(id structs.Snowflake) *structs.PrivateChannel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.privateChannels[id]
}

// AddPrivateChannel seeds the DM cache, used both by the patch engine and
// by the create-DM command whose result opens a new channel.
func (s *State) AddPrivateChannel(ch *structs.PrivateChannel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, u := range ch.Recipients {
		ch.Recipients[i] = s.storeUser(u)
	}
	s.privateChannels[ch.ID] = ch
}

// Relationship returns the relationship with the given user, or nil.
func (s *State) Relationship(userID structs.Snowflake) *structs.Relationship {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.relationships[userID]
}

// Message returns the cached message for the id, or nil. Lookup is a
// linear scan over the ring, newest first.
func (s *State) Message(id structs.Snowflake) *structs.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.message(id)
}

func (s *State) message(id structs.Snowflake) *structs.Message {
	for i := len(s.messages) - 1; i >= 0; i-- {
		if s.messages[i].ID == id {
			return s.messages[i]
		}
	}
	return nil
}

// MessageCount returns the number of cached messages.
func (s *State) MessageCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

func (s *State) addMessage(m *structs.Message) {
	if len(s.messages) >= s.maxMessages {
		drop := len(s.messages) - s.maxMessages + 1
		s.messages = append(s.messages[:0], s.messages[drop:]...)
	}
	s.messages = append(s.messages, m)
}

func (s *State) removeMessage(id structs.Snowflake) *structs.Message {
	for i, m := range s.messages {
		if m.ID == id {
			s.messages = append(s.messages[:i], s.messages[i+1:]...)
			return m
		}
	}
	return nil
}

// PermissionsFor resolves permissions by identifier, for callers outside
// the ingestion path such as the status server.
func (s *State) PermissionsFor(guildID, memberID, channelID structs.Snowflake) (structs.Permissions, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g := s.guilds[guildID]
	if g == nil {
		return 0, structs.ErrInvalidState
	}
	return g.PermissionsFor(g.Member(memberID), g.Channel(channelID))
}
