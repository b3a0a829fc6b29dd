// Package handler contains the per-message-type handlers the input phase
// dispatches. Handlers run on the game loop goroutine inside the input
// system's access scope, so they touch component stores directly and
// defer cross-cutting mutations to the event buses.
package handler

import (
	"go.uber.org/zap"

	"github.com/emberwild/server/internal/net"
	"github.com/emberwild/server/internal/protocol"
	"github.com/emberwild/server/internal/sim"
)

// Func handles one decoded client message.
type Func func(s *net.Session, raw []byte, rs *sim.Resources)

type entry struct {
	states []net.SessionState
	fn     Func
}

// Registry routes raw messages by their type tag, gated on session state.
type Registry struct {
	entries map[string]entry
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]entry, 32)}
}

func (r *Registry) Register(typ string, states []net.SessionState, fn Func) {
	r.entries[typ] = entry{states: states, fn: fn}
}

// Dispatch decodes the envelope and runs the matching handler. Unknown
// tags and wrong-state messages are logged and dropped; they never
// poison the stream.
func (r *Registry) Dispatch(s *net.Session, raw []byte, rs *sim.Resources) {
	base, err := protocol.DecodeBase(raw)
	if err != nil {
		rs.Log.Debug("undecodable message", zap.Uint64("session", s.ID), zap.Error(err))
		return
	}
	e, ok := r.entries[base.Type]
	if !ok {
		rs.Log.Debug("unknown message type",
			zap.Uint64("session", s.ID), zap.String("type", base.Type))
		return
	}
	state := s.State()
	allowed := false
	for _, st := range e.states {
		if st == state {
			allowed = true
			break
		}
	}
	if !allowed {
		rs.Log.Debug("message in wrong session state",
			zap.Uint64("session", s.ID),
			zap.String("type", base.Type),
			zap.String("state", state.String()))
		return
	}
	e.fn(s, raw, rs)
}

// RegisterAll wires every handler into the registry.
func RegisterAll(reg *Registry) {
	registering := []net.SessionState{net.StateRegistering}
	inWorld := []net.SessionState{net.StateInWorld}

	reg.Register(protocol.TypeRegister, registering, HandleRegister)

	reg.Register(protocol.TypeInputs, inWorld, HandleInputs)
	reg.Register(protocol.TypeControlEvent, inWorld, HandleControlEvent)
	reg.Register(protocol.TypePlayerPhysics, inWorld, HandlePlayerPhysics)
	reg.Register(protocol.TypeSetViewDistance, inWorld, HandleSetViewDistance)
	reg.Register(protocol.TypeBreakBlock, inWorld, HandleBreakBlock)
	reg.Register(protocol.TypePlaceBlock, inWorld, HandlePlaceBlock)
	reg.Register(protocol.TypeUnlockSkill, inWorld, HandleUnlockSkill)
	reg.Register(protocol.TypeRefundSkill, inWorld, HandleRefundSkill)
	reg.Register(protocol.TypeUnlockSkillGroup, inWorld, HandleUnlockSkillGroup)
	reg.Register(protocol.TypeSiteInfoRequest, inWorld, HandleSiteInfoRequest)
	reg.Register(protocol.TypeChunkRequest, inWorld, HandleChunkRequest)
	reg.Register(protocol.TypeChat, inWorld, HandleChat)
	reg.Register(protocol.TypeDisconnect, inWorld, HandleDisconnect)
}
