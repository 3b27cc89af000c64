package state

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lyrebird-dev/lyrebird/src/structs"
)

// Dispatch applies one dispatch envelope to the cache. It must only be
// called from a single goroutine; patches read-modify-write the shared
// graph and rely on receipt order for same-entity correctness.
//
// Unknown entities referenced by update/delete events are skipped with a
// debug log: the stream does not guarantee the snapshot already contained
// everything a late patch refers to. Reported anomalies (reaction
// bookkeeping) come back as errors and also reach the Error hook, but
// never abort ingestion.
func (s *State) Dispatch(t structs.EventName, d json.RawMessage) error {
	switch t {
	case structs.EventNameReady:
		return s.onReady(d)
	case structs.EventNameResumed:
		s.dispatch(t, s.handlers.Resumed)
		return nil
	case structs.EventNameMessageCreate:
		return s.onMessageCreate(d)
	case structs.EventNameMessageUpdate:
		return s.onMessageUpdate(d)
	case structs.EventNameMessageDelete:
		return s.onMessageDelete(d)
	case structs.EventNameReactionAdd:
		return s.onReactionAdd(d)
	case structs.EventNameReactionRemove:
		return s.onReactionRemove(d)
	case structs.EventNameGuildCreate:
		return s.onGuildCreate(d)
	case structs.EventNameGuildUpdate:
		return s.onGuildUpdate(d)
	case structs.EventNameGuildDelete:
		return s.onGuildDelete(d)
	case structs.EventNameGuildMemberAdd:
		return s.onGuildMemberAdd(d)
	case structs.EventNameGuildMemberUpdate:
		return s.onGuildMemberUpdate(d)
	case structs.EventNameGuildMemberRemove:
		return s.onGuildMemberRemove(d)
	case structs.EventNameGuildMembersChunk:
		return s.onGuildMembersChunk(d)
	case structs.EventNameGuildRoleCreate:
		return s.onGuildRoleCreate(d)
	case structs.EventNameGuildRoleUpdate:
		return s.onGuildRoleUpdate(d)
	case structs.EventNameGuildRoleDelete:
		return s.onGuildRoleDelete(d)
	case structs.EventNameChannelCreate, structs.EventNameChannelUpdate:
		return s.onChannelUpsert(t, d)
	case structs.EventNameChannelDelete:
		return s.onChannelDelete(d)
	case structs.EventNameVoiceStateUpdate:
		return s.onVoiceStateUpdate(d)
	case structs.EventNamePresenceUpdate:
		return s.onPresenceUpdate(d)
	case structs.EventNameUserUpdate:
		return s.onUserUpdate(d)
	case structs.EventNameUserSettingsUpdate:
		return s.onUserSettingsUpdate(d)
	case structs.EventNameRelationshipAdd:
		return s.onRelationshipAdd(d)
	case structs.EventNameRelationshipRemove:
		return s.onRelationshipRemove(d)
	case structs.EventNameTypingStart:
		return nil
	default:
		s.log.Debug("unhandled dispatch event", "event_name", t)
		return nil
	}
}

func (s *State) staleReference(t structs.EventName, kind string, id structs.Snowflake) error {
	s.log.Debug("event references unknown entity",
		"event_name", t, "entity_kind", kind, "entity_id", id.String())
	return nil
}

func (s *State) onMessageCreate(d json.RawMessage) error {
	m := &structs.Message{}
	if err := json.Unmarshal(d, m); err != nil {
		return fmt.Errorf("message create: %w", err)
	}
	m.Author = s.storeUser(m.Author)
	for i, u := range m.Mentions {
		m.Mentions[i] = s.storeUser(u)
	}
	s.mu.Lock()
	s.addMessage(m)
	s.mu.Unlock()

	if h := s.handlers.Message; h != nil {
		s.dispatch(structs.EventNameMessageCreate, func() { h(m) })
	}
	return nil
}

func (s *State) onMessageUpdate(d json.RawMessage) error {
	u := &structs.MessageUpdate{}
	if err := json.Unmarshal(d, u); err != nil {
		return fmt.Errorf("message update: %w", err)
	}

	s.mu.Lock()
	m := s.message(u.ID)
	var before *structs.Message
	if m == nil {
		// cache miss: materialize the message lazily from whatever the
		// patch carries
		m = &structs.Message{ID: u.ID, ChannelID: u.ChannelID, GuildID: u.GuildID}
		if u.Author != nil {
			m.Author = s.storeUser(u.Author)
		}
		m.Apply(u)
		s.addMessage(m)
	} else {
		before = m.Copy()
		m.Apply(u)
	}
	s.mu.Unlock()

	if h := s.handlers.MessageUpdate; h != nil {
		s.dispatch(structs.EventNameMessageUpdate, func() { h(before, m) })
	}
	return nil
}

func (s *State) onMessageDelete(d json.RawMessage) error {
	e := &structs.MessageDeleteEvent{}
	if err := json.Unmarshal(d, e); err != nil {
		return fmt.Errorf("message delete: %w", err)
	}
	s.mu.Lock()
	removed := s.removeMessage(e.ID)
	s.mu.Unlock()
	if removed == nil {
		return s.staleReference(structs.EventNameMessageDelete, "message", e.ID)
	}
	if h := s.handlers.MessageDelete; h != nil {
		s.dispatch(structs.EventNameMessageDelete, func() { h(removed) })
	}
	return nil
}

func (s *State) onReactionAdd(d json.RawMessage) error {
	e := &structs.MessageReactionEvent{}
	if err := json.Unmarshal(d, e); err != nil {
		return fmt.Errorf("reaction add: %w", err)
	}
	s.mu.Lock()
	m := s.message(e.MessageID)
	if m == nil {
		s.mu.Unlock()
		return s.staleReference(structs.EventNameReactionAdd, "message", e.MessageID)
	}
	me := s.user != nil && e.UserID == s.user.ID
	r := m.AddReaction(e.Emoji, me)
	s.mu.Unlock()

	if h := s.handlers.ReactionAdd; h != nil {
		s.dispatch(structs.EventNameReactionAdd, func() { h(m, r) })
	}
	return nil
}

func (s *State) onReactionRemove(d json.RawMessage) error {
	e := &structs.MessageReactionEvent{}
	if err := json.Unmarshal(d, e); err != nil {
		return fmt.Errorf("reaction remove: %w", err)
	}
	s.mu.Lock()
	m := s.message(e.MessageID)
	if m == nil {
		s.mu.Unlock()
		return s.staleReference(structs.EventNameReactionRemove, "message", e.MessageID)
	}
	me := s.user != nil && e.UserID == s.user.ID
	err := m.RemoveReaction(e.Emoji, me)
	s.mu.Unlock()

	if err != nil {
		// deliberately loud, unlike stale update/delete leniency
		s.reportError(structs.EventNameReactionRemove, err)
		return err
	}
	if h := s.handlers.ReactionRemove; h != nil {
		s.dispatch(structs.EventNameReactionRemove, func() { h(m, e.Emoji) })
	}
	return nil
}

func (s *State) onGuildCreate(d json.RawMessage) error {
	p := &structs.GuildPayload{}
	if err := json.Unmarshal(d, p); err != nil {
		return fmt.Errorf("guild create: %w", err)
	}

	if p.Unavailable {
		s.mu.Lock()
		stub := structs.NewGuild(p.ID)
		stub.Unavailable = true
		s.guilds[p.ID] = stub
		s.mu.Unlock()
		return nil
	}

	s.mu.Lock()
	g := s.buildGuild(p)
	s.guilds[g.ID] = g
	s.mu.Unlock()

	if h := s.handlers.GuildAvailable; h != nil {
		s.dispatch(structs.EventNameGuildCreate, func() { h(g) })
	}
	return nil
}

func (s *State) onGuildUpdate(d json.RawMessage) error {
	p := &structs.GuildPayload{}
	if err := json.Unmarshal(d, p); err != nil {
		return fmt.Errorf("guild update: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.guilds[p.ID]
	if g == nil {
		return s.staleReference(structs.EventNameGuildUpdate, "guild", p.ID)
	}
	// scalar fields only; collections are maintained by their own events
	g.Name = p.Name
	g.Region = p.Region
	g.VerificationLevel = p.VerificationLevel
	g.Icon = p.Icon
	g.Splash = p.Splash
	g.OwnerID = p.OwnerID
	g.MFALevel = p.MFALevel
	g.Features = p.Features
	g.AFKTimeout = p.AFKTimeout
	g.AFKChannelID = p.AFKChannelID
	return nil
}

func (s *State) onGuildDelete(d json.RawMessage) error {
	e := &structs.GuildDeleteEvent{}
	if err := json.Unmarshal(d, e); err != nil {
		return fmt.Errorf("guild delete: %w", err)
	}
	s.mu.Lock()
	g := s.guilds[e.ID]
	if g == nil {
		s.mu.Unlock()
		return s.staleReference(structs.EventNameGuildDelete, "guild", e.ID)
	}
	if e.Unavailable {
		// outage, not removal: keep the stub so a later GUILD_CREATE can
		// flip it back
		g.Unavailable = true
		s.mu.Unlock()
		if h := s.handlers.GuildUnavailable; h != nil {
			s.dispatch(structs.EventNameGuildDelete, func() { h(g) })
		}
		return nil
	}
	// removal cascades through everything the guild owns
	delete(s.guilds, e.ID)
	s.mu.Unlock()
	if h := s.handlers.GuildRemove; h != nil {
		s.dispatch(structs.EventNameGuildDelete, func() { h(g) })
	}
	return nil
}

func (s *State) onGuildMemberAdd(d json.RawMessage) error {
	p := &structs.MemberPayload{}
	if err := json.Unmarshal(d, p); err != nil {
		return fmt.Errorf("member add: %w", err)
	}
	s.mu.Lock()
	g := s.guilds[p.GuildID]
	if g == nil {
		s.mu.Unlock()
		return s.staleReference(structs.EventNameGuildMemberAdd, "guild", p.GuildID)
	}
	m := s.buildMember(g, p)
	g.AddMember(m)
	g.MemberCount++
	s.mu.Unlock()

	if h := s.handlers.MemberJoin; h != nil {
		s.dispatch(structs.EventNameGuildMemberAdd, func() { h(m) })
	}
	return nil
}

func (s *State) onGuildMemberUpdate(d json.RawMessage) error {
	p := &structs.MemberPayload{}
	if err := json.Unmarshal(d, p); err != nil {
		return fmt.Errorf("member update: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.guilds[p.GuildID]
	if g == nil {
		return s.staleReference(structs.EventNameGuildMemberUpdate, "guild", p.GuildID)
	}
	m := g.Member(p.User.ID)
	if m == nil {
		// possibly removed concurrently; not an error
		return s.staleReference(structs.EventNameGuildMemberUpdate, "member", p.User.ID)
	}
	s.storeUser(p.User)
	m.Nick = p.Nick
	m.RoleIDs = resolveRoleIDs(g, p.Roles)
	m.Deaf = p.Deaf
	m.Mute = p.Mute
	return nil
}

func (s *State) onGuildMemberRemove(d json.RawMessage) error {
	e := &structs.GuildMemberRemoveEvent{}
	if err := json.Unmarshal(d, e); err != nil {
		return fmt.Errorf("member remove: %w", err)
	}
	s.mu.Lock()
	g := s.guilds[e.GuildID]
	if g == nil {
		s.mu.Unlock()
		return s.staleReference(structs.EventNameGuildMemberRemove, "guild", e.GuildID)
	}
	m := g.Member(e.User.ID)
	if m == nil {
		s.mu.Unlock()
		return s.staleReference(structs.EventNameGuildMemberRemove, "member", e.User.ID)
	}
	g.RemoveMember(e.User.ID)
	g.MemberCount--
	s.mu.Unlock()

	if h := s.handlers.MemberRemove; h != nil {
		s.dispatch(structs.EventNameGuildMemberRemove, func() { h(m) })
	}
	return nil
}

func (s *State) onGuildMembersChunk(d json.RawMessage) error {
	e := &structs.GuildMembersChunkEvent{}
	if err := json.Unmarshal(d, e); err != nil {
		return fmt.Errorf("members chunk: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.guilds[e.GuildID]
	if g == nil {
		return s.staleReference(structs.EventNameGuildMembersChunk, "guild", e.GuildID)
	}
	// chunked members are already part of member_count
	for _, p := range e.Members {
		g.AddMember(s.buildMember(g, p))
	}
	return nil
}

func (s *State) onGuildRoleCreate(d json.RawMessage) error {
	e := &structs.GuildRoleEvent{}
	if err := json.Unmarshal(d, e); err != nil {
		return fmt.Errorf("role create: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.guilds[e.GuildID]
	if g == nil {
		return s.staleReference(structs.EventNameGuildRoleCreate, "guild", e.GuildID)
	}
	if existing := g.Role(e.Role.ID); existing != nil {
		// duplicate delivery: last write wins for the payload fields, but
		// the position was assigned on first delivery and must survive a
		// payload that omits it, or the dense 0..n-1 permutation breaks
		position := existing.Position
		existing.Patch(e.Role)
		existing.Position = position
		return nil
	}
	g.AddRole(e.Role)
	return nil
}

func (s *State) onGuildRoleUpdate(d json.RawMessage) error {
	e := &structs.GuildRoleEvent{}
	if err := json.Unmarshal(d, e); err != nil {
		return fmt.Errorf("role update: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.guilds[e.GuildID]
	if g == nil {
		return s.staleReference(structs.EventNameGuildRoleUpdate, "guild", e.GuildID)
	}
	r := g.Role(e.Role.ID)
	if r == nil {
		return s.staleReference(structs.EventNameGuildRoleUpdate, "role", e.Role.ID)
	}
	r.Patch(e.Role)
	return nil
}

func (s *State) onGuildRoleDelete(d json.RawMessage) error {
	e := &structs.GuildRoleDeleteEvent{}
	if err := json.Unmarshal(d, e); err != nil {
		return fmt.Errorf("role delete: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.guilds[e.GuildID]
	if g == nil {
		return s.staleReference(structs.EventNameGuildRoleDelete, "guild", e.GuildID)
	}
	if g.Role(e.RoleID) == nil {
		return s.staleReference(structs.EventNameGuildRoleDelete, "role", e.RoleID)
	}
	g.RemoveRole(e.RoleID)
	return nil
}

func (s *State) onChannelUpsert(t structs.EventName, d json.RawMessage) error {
	ch := &structs.Channel{}
	if err := json.Unmarshal(d, ch); err != nil {
		return fmt.Errorf("channel upsert: %w", err)
	}
	if ch.Type == structs.ChannelTypeDM {
		priv := &structs.PrivateChannel{}
		if err := json.Unmarshal(d, priv); err != nil {
			return fmt.Errorf("private channel: %w", err)
		}
		s.AddPrivateChannel(priv)
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.guilds[ch.GuildID]
	if g == nil {
		return s.staleReference(t, "guild", ch.GuildID)
	}
	g.AddChannel(ch)
	return nil
}

func (s *State) onChannelDelete(d json.RawMessage) error {
	ch := &structs.Channel{}
	if err := json.Unmarshal(d, ch); err != nil {
		return fmt.Errorf("channel delete: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if ch.Type == structs.ChannelTypeDM {
		delete(s.privateChannels, ch.ID)
		return nil
	}
	g := s.guilds[ch.GuildID]
	if g == nil {
		return s.staleReference(structs.EventNameChannelDelete, "guild", ch.GuildID)
	}
	g.RemoveChannel(ch.ID)
	return nil
}

func (s *State) onVoiceStateUpdate(d json.RawMessage) error {
	vs := &structs.VoiceState{}
	if err := json.Unmarshal(d, vs); err != nil {
		return fmt.Errorf("voice state update: %w", err)
	}
	s.mu.Lock()
	g := s.guilds[vs.GuildID]
	if g == nil {
		s.mu.Unlock()
		return s.staleReference(structs.EventNameVoiceStateUpdate, "guild", vs.GuildID)
	}
	before, after := g.UpdateVoiceState(vs)
	m := g.Member(vs.UserID)
	s.mu.Unlock()

	if h := s.handlers.VoiceStateUpdate; h != nil {
		s.dispatch(structs.EventNameVoiceStateUpdate, func() { h(m, before, after) })
	}
	return nil
}

func (s *State) onPresenceUpdate(d json.RawMessage) error {
	p := &structs.PresencePayload{}
	if err := json.Unmarshal(d, p); err != nil {
		return fmt.Errorf("presence update: %w", err)
	}
	if p.User == nil {
		return errors.New("presence update: missing user")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.guilds[p.GuildID]
	if g == nil {
		return s.staleReference(structs.EventNamePresenceUpdate, "guild", p.GuildID)
	}
	m := g.Member(p.User.ID)
	if m == nil {
		return s.staleReference(structs.EventNamePresenceUpdate, "member", p.User.ID)
	}
	if p.User.Username != "" {
		s.storeUser(p.User)
	}
	m.Status = p.Status
	m.Activity = p.Activity
	return nil
}

func (s *State) onUserUpdate(d json.RawMessage) error {
	u := &structs.User{}
	if err := json.Unmarshal(d, u); err != nil {
		return fmt.Errorf("user update: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		s.user = s.storeUser(u)
		return nil
	}
	s.user.Patch(u)
	return nil
}

func (s *State) onUserSettingsUpdate(d json.RawMessage) error {
	u := &structs.SettingsUpdate{}
	if err := json.Unmarshal(d, u); err != nil {
		return fmt.Errorf("settings update: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.settings == nil {
		s.settings = &structs.Settings{}
	}
	s.settings.Apply(u)
	return nil
}

func (s *State) onRelationshipAdd(d json.RawMessage) error {
	r := &structs.Relationship{}
	if err := json.Unmarshal(d, r); err != nil {
		return fmt.Errorf("relationship add: %w", err)
	}
	r.User = s.storeUser(r.User)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.relationships[r.ID] = r
	return nil
}

func (s *State) onRelationshipRemove(d json.RawMessage) error {
	r := &structs.Relationship{}
	if err := json.Unmarshal(d, r); err != nil {
		return fmt.Errorf("relationship remove: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.relationships[r.ID]; !ok {
		return s.staleReference(structs.EventNameRelationshipRemove, "relationship", r.ID)
	}
	delete(s.relationships, r.ID)
	return nil
}
