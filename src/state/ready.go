package state

import (
	"encoding/json"
	"fmt"

	"github.com/lyrebird-dev/lyrebird/src/structs"
)

// onReady ingests the bulk snapshot that bootstraps every cache: the
// authenticated user, all guild payloads (possibly unavailable stubs) and
// the open direct-message channels.
func (s *State) onReady(d json.RawMessage) error {
	e := &structs.ReadyEvent{}
	if err := json.Unmarshal(d, e); err != nil {
		return fmt.Errorf("ready: %w", err)
	}

	s.mu.Lock()
	s.sessionID = e.SessionID
	s.user = s.storeUser(e.User)
	if e.UserSettings != nil {
		s.settings = e.UserSettings
	}

	for _, p := range e.Guilds {
		if p.Unavailable {
			stub := structs.NewGuild(p.ID)
			stub.Unavailable = true
			s.guilds[p.ID] = stub
			continue
		}
		g := s.buildGuild(p)
		s.guilds[g.ID] = g
	}

	for _, r := range e.Relationships {
		r.User = s.storeUser(r.User)
		s.relationships[r.ID] = r
	}
	s.mu.Unlock()

	for _, ch := range e.PrivateChannels {
		s.AddPrivateChannel(ch)
	}

	s.dispatch(structs.EventNameReady, s.handlers.Ready)
	return nil
}

// buildGuild constructs the guild graph from one payload. Construction
// order is mandatory: roles first (members resolve into them), then
// members, then channels, and voice states last since they reference both.
// Callers hold the write lock.
func (s *State) buildGuild(p *structs.GuildPayload) *structs.Guild {
	g := structs.NewGuild(p.ID)
	g.Name = p.Name
	g.Region = p.Region
	g.VerificationLevel = p.VerificationLevel
	g.Icon = p.Icon
	g.Splash = p.Splash
	g.OwnerID = p.OwnerID
	g.MFALevel = p.MFALevel
	g.Features = p.Features
	g.MemberCount = p.MemberCount
	g.Large = p.Large
	g.AFKTimeout = p.AFKTimeout
	g.AFKChannelID = p.AFKChannelID

	for _, r := range p.Roles {
		r.GuildID = g.ID
		g.Roles = append(g.Roles, r)
	}

	for _, mp := range p.Members {
		g.AddMember(s.buildMember(g, mp))
	}

	for _, ch := range p.Channels {
		g.AddChannel(ch)
	}

	for _, vs := range p.VoiceStates {
		g.UpdateVoiceState(vs)
	}

	for _, pr := range p.Presences {
		if pr.User == nil {
			continue
		}
		if m := g.Member(pr.User.ID); m != nil {
			m.Status = pr.Status
			m.Activity = pr.Activity
		}
	}
	return g
}

// buildMember interns the member's user into the shared cache and resolves
// its role list. Role ids not present on the guild are dropped, never
// fatal: a large-guild snapshot may chunk members ahead of role data.
func (s *State) buildMember(g *structs.Guild, p *structs.MemberPayload) *structs.Member {
	return &structs.Member{
		User:     s.storeUser(p.User),
		GuildID:  g.ID,
		Nick:     p.Nick,
		RoleIDs:  resolveRoleIDs(g, p.Roles),
		JoinedAt: p.JoinedAt,
		Deaf:     p.Deaf,
		Mute:     p.Mute,
	}
}

func resolveRoleIDs(g *structs.Guild, ids []structs.Snowflake) []structs.Snowflake {
	resolved := make([]structs.Snowflake, 0, len(ids))
	for _, id := range ids {
		if g.Role(id) != nil {
			resolved = append(resolved, id)
		}
	}
	return resolved
}
