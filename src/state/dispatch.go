package state

import (
	"fmt"

	"github.com/lyrebird-dev/lyrebird/src/structs"
)

// Handlers are the application callbacks fired after a state mutation is
// applied. Each invocation runs on its own goroutine so a slow or broken
// handler never stalls the ingestion loop; panics are captured and routed
// to Error.
type Handlers struct {
	Ready            func()
	Resumed          func()
	Message          func(m *structs.Message)
	MessageUpdate    func(before, after *structs.Message)
	MessageDelete    func(m *structs.Message)
	ReactionAdd      func(m *structs.Message, r *structs.Reaction)
	ReactionRemove   func(m *structs.Message, emoji structs.ReactionEmoji)
	GuildAvailable   func(g *structs.Guild)
	GuildUnavailable func(g *structs.Guild)
	GuildRemove      func(g *structs.Guild)
	MemberJoin       func(m *structs.Member)
	MemberRemove     func(m *structs.Member)
	VoiceStateUpdate func(m *structs.Member, before, after *structs.VoiceState)

	// Error receives every anomaly the ingestion loop refuses to die on:
	// handler panics and reported patch failures.
	Error func(event structs.EventName, err error)
}

// dispatch fires one handler invocation for the event that caused it. The
// state mutation is already applied at this point, so the handler always
// observes a cache at least as current as its event.
func (s *State) dispatch(event structs.EventName, fn func()) {
	if fn == nil {
		return
	}
	go func() {
		defer func() {
			if r := recover(); r != nil {
				s.log.Error("event handler panicked", "event_name", event, "panic", r)
				s.reportError(event, fmt.Errorf("handler panic: %v", r))
			}
		}()
		fn()
	}()
}

func (s *State) reportError(event structs.EventName, err error) {
	if s.handlers.Error == nil {
		return
	}
	// the error hook gets the same isolation as any other handler
	go func() {
		defer func() {
			if r := recover(); r != nil {
				s.log.Error("error handler panicked", "panic", r)
			}
		}()
		s.handlers.Error(event, err)
	}()
}
