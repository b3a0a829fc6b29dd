// Package systems holds the per-phase simulation systems the runner
// executes each tick. Each system declares its access footprint; the
// runner batches non-conflicting systems within a phase.
package systems

import (
	"time"

	"go.uber.org/zap"

	"github.com/emberwild/server/internal/core/event"
	"github.com/emberwild/server/internal/core/system"
	"github.com/emberwild/server/internal/handler"
	"github.com/emberwild/server/internal/net"
	"github.com/emberwild/server/internal/sim"
)

// Input accepts new sessions, drains each session's inbound queue under
// the per-tick budget and dispatches handlers, and reaps dead sessions.
type Input struct {
	rs       *sim.Resources
	server   *net.Server
	handlers *handler.Registry
}

func NewInput(rs *sim.Resources, server *net.Server, handlers *handler.Registry) *Input {
	return &Input{rs: rs, server: server, handlers: handlers}
}

func (s *Input) Name() string       { return "input" }
func (s *Input) Phase() system.Phase { return system.PhaseInput }

// Handlers may touch nearly everything, so input claims a wide footprint
// and runs alone in its batch.
func (s *Input) Access() system.Access {
	return system.Access{
		Writes: []system.CompID{
			sim.CompPos, sim.CompVel, sim.CompOri, sim.CompController,
			sim.CompPresence, sim.CompStats, sim.CompHealth, sim.CompEnergy,
			sim.CompPoise, sim.CompInventory, sim.CompLoadout, sim.CompBody,
			sim.CompCharacter, sim.ResSessions, sim.ResUids,
		},
		Reads: []system.CompID{sim.CompForceUpdate, sim.ResTerrain},
	}
}

func (s *Input) Update(dt time.Duration) {
	rs := s.rs

	// Accept sessions queued since last tick.
	accepting := true
	for accepting {
		select {
		case sess := <-s.server.NewSessions():
			rs.Sessions.Add(sess)
		default:
			accepting = false
		}
	}

	budget := rs.Cfg.Network.MaxMessagesPerTick
	rs.Sessions.ForEach(func(sess *net.Session) {
		for i := 0; i < budget; i++ {
			select {
			case raw := <-sess.InQueue:
				s.handlers.Dispatch(sess, raw, rs)
			default:
				return
			}
		}
	})

	// Reap closed sessions: queue the disconnect for the apply phase,
	// which persists and despawns, then drop the session.
	var dead []uint64
	rs.Sessions.ForEach(func(sess *net.Session) {
		if sess.IsClosed() || sess.State() == net.StateDisconnecting {
			dead = append(dead, sess.ID)
		}
	})
	for _, id := range dead {
		if e, ok := rs.SessionEntity[id]; ok {
			rs.ServerEvents.EmitNow(event.ClientDisconnect{Entity: e})
		}
		sess := rs.Sessions.Get(id)
		if sess != nil {
			sess.Close()
		}
		rs.Sessions.Remove(id)
		s.server.NotifyDead(id)
		rs.Log.Info("session removed", zap.Uint64("session", id))
	}
}
