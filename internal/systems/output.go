package systems

import (
	"time"

	"github.com/emberwild/server/internal/charstate"
	"github.com/emberwild/server/internal/core/ecs"
	"github.com/emberwild/server/internal/core/system"
	"github.com/emberwild/server/internal/net"
	"github.com/emberwild/server/internal/protocol"
	"github.com/emberwild/server/internal/sim"
	"github.com/emberwild/server/internal/terrain"
)

// Output broadcasts per-tick entity state to each subscribed session and
// flushes every session's buffered messages to its writer goroutine.
type Output struct {
	rs *sim.Resources
}

func NewOutput(rs *sim.Resources) *Output { return &Output{rs: rs} }

func (s *Output) Name() string        { return "output" }
func (s *Output) Phase() system.Phase { return system.PhaseOutput }

func (s *Output) Access() system.Access {
	return system.Access{
		Reads: []system.CompID{
			sim.CompPos, sim.CompVel, sim.CompHealth, sim.CompCharacter,
			sim.CompPresence, sim.ResGrid, sim.ResUids,
		},
		Writes: []system.CompID{sim.ResSessions},
	}
}

func (s *Output) Update(dt time.Duration) {
	rs := s.rs

	for sessID, viewer := range rs.SessionEntity {
		sess := rs.Sessions.Get(sessID)
		if sess == nil || sess.State() != net.StateInWorld {
			continue
		}
		center, ok := rs.Stores.Pos.Get(viewer)
		if !ok {
			continue
		}
		pres, ok := rs.Stores.Presence.Get(viewer)
		if !ok {
			continue
		}
		radius := float64(pres.ViewDistance) * terrain.ChunkSize

		rs.Grid.InRadius(center.P.XY(), radius, func(e ecs.Entity) {
			s.syncEntity(sess, e)
		})
	}

	rs.Sessions.ForEach(func(sess *net.Session) {
		sess.FlushOutput()
	})
}

func (s *Output) syncEntity(sess *net.Session, e ecs.Entity) {
	rs := s.rs
	uid, ok := rs.Uids.Uid(e)
	if !ok {
		return
	}
	pos, ok := rs.Stores.Pos.Get(e)
	if !ok {
		return
	}
	msg := protocol.EntitySyncMsg{
		Type: protocol.TypeEntitySync,
		Uid:  uint64(uid),
		Pos:  [3]float64{pos.P.X, pos.P.Y, pos.P.Z},
	}
	if v, ok := rs.Stores.Vel.Get(e); ok {
		msg.Vel = [3]float64{v.V.X, v.V.Y, v.V.Z}
	}
	if ch, ok := rs.Stores.Character.Get(e); ok {
		msg.CharState = charstate.Name(ch.State)
	}
	if h, ok := rs.Stores.Health.Get(e); ok {
		msg.Health = h.Current
	}
	data, err := protocol.Encode(msg)
	if err != nil {
		return
	}
	sess.Send(data)
}
