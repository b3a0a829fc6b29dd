package handler

import (
	"encoding/json"

	"go.uber.org/zap"

	"github.com/emberwild/server/internal/comp"
	"github.com/emberwild/server/internal/core/ecs"
	"github.com/emberwild/server/internal/core/event"
	"github.com/emberwild/server/internal/net"
	"github.com/emberwild/server/internal/protocol"
	"github.com/emberwild/server/internal/sim"
	"github.com/emberwild/server/internal/terrain"
	"github.com/emberwild/server/internal/vmath"
)

func boundEntity(s *net.Session, rs *sim.Resources) (ecs.Entity, bool) {
	e, ok := rs.SessionEntity[s.ID]
	if !ok || !rs.World.Alive(e) {
		return 0, false
	}
	return e, true
}

// HandleInputs overwrites the controller's continuous inputs, latest wins.
// Dead characters and spectators have no controller to speak to.
func HandleInputs(s *net.Session, raw []byte, rs *sim.Resources) {
	var msg protocol.InputsMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		return
	}
	e, ok := boundEntity(s, rs)
	if !ok {
		return
	}
	if h, ok := rs.Stores.Health.Get(e); ok && h.IsDead {
		return
	}
	if p, ok := rs.Stores.Presence.Get(e); ok && p.Kind != comp.PresenceCharacter {
		return
	}
	in := comp.ControlInputs{
		MoveDir:   vmath.Vec2{X: msg.MoveDir[0], Y: msg.MoveDir[1]},
		LookDir:   vmath.Vec3{X: msg.LookDir[0], Y: msg.LookDir[1], Z: msg.LookDir[2]},
		Jump:      msg.Jump,
		Sneak:     msg.Sneak,
		Primary:   msg.Primary,
		Secondary: msg.Secondary,
		Roll:      msg.Roll,
		Glide:     msg.Glide,
		Wield:     msg.Wield,
	}
	switch msg.Climb {
	case "up":
		k := comp.ClimbUp
		in.Climb = &k
	case "down":
		k := comp.ClimbDown
		in.Climb = &k
	case "hold":
		k := comp.ClimbHold
		in.Climb = &k
	}
	rs.Stores.Controller.Mutate(e, func(c *comp.Controller) {
		// Rising edges buffer as one-shot actions so a press shorter
		// than a tick still fires.
		if in.Primary && !c.Inputs.Primary {
			c.PushAction(comp.ControlAction{Kind: comp.ActionPrimary})
		}
		if in.Secondary && !c.Inputs.Secondary {
			c.PushAction(comp.ControlAction{Kind: comp.ActionSecondary})
		}
		if in.Roll && !c.Inputs.Roll {
			c.PushAction(comp.ControlAction{Kind: comp.ActionRoll})
		}
		c.Inputs = in
	})
}

// HandleControlEvent routes one-shot control events. Respawn from a
// living character is dropped; the rest are queued on the controller for
// the character system.
func HandleControlEvent(s *net.Session, raw []byte, rs *sim.Resources) {
	var msg protocol.ControlEventMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		return
	}
	e, ok := boundEntity(s, rs)
	if !ok {
		return
	}
	switch msg.Event {
	case "respawn":
		h, ok := rs.Stores.Health.Get(e)
		if !ok || !h.IsDead {
			rs.Log.Debug("respawn from living character dropped", zap.Uint64("session", s.ID))
			return
		}
		rs.ServerEvents.EmitNow(event.Respawn{Entity: e})
	case "interact":
		rs.Stores.Controller.Mutate(e, func(c *comp.Controller) {
			c.PushEvent(comp.ControlEvent{Kind: comp.ControlInteract, Target: comp.Uid(msg.Target)})
		})
	case "toggle_wield":
		rs.Stores.Controller.Mutate(e, func(c *comp.Controller) {
			c.PushEvent(comp.ControlEvent{Kind: comp.ControlToggleWield})
		})
	case "swap_loadout":
		rs.Stores.Controller.Mutate(e, func(c *comp.Controller) {
			c.PushEvent(comp.ControlEvent{Kind: comp.ControlSwapLoadout})
		})
	default:
		rs.Log.Debug("unknown control event", zap.String("event", msg.Event))
	}
}

// HandlePlayerPhysics accepts the client-authoritative transform, unless
// a pending ForceUpdate or death makes the server authoritative.
func HandlePlayerPhysics(s *net.Session, raw []byte, rs *sim.Resources) {
	var msg protocol.PlayerPhysicsMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		return
	}
	e, ok := boundEntity(s, rs)
	if !ok {
		return
	}
	if rs.Stores.ForceUpdate.Has(e) {
		return
	}
	if h, ok := rs.Stores.Health.Get(e); ok && h.IsDead {
		return
	}
	rs.Stores.Pos.Mutate(e, func(p *comp.Pos) {
		p.P = vmath.Vec3{X: msg.Pos[0], Y: msg.Pos[1], Z: msg.Pos[2]}
	})
	rs.Stores.Vel.Mutate(e, func(v *comp.Vel) {
		v.V = vmath.Vec3{X: msg.Vel[0], Y: msg.Vel[1], Z: msg.Vel[2]}
	})
	rs.Stores.Ori.Mutate(e, func(o *comp.Ori) {
		o.Q = vmath.Quat{W: msg.Ori[0], X: msg.Ori[1], Y: msg.Ori[2], Z: msg.Ori[3]}.Normalized()
	})
}

// HandleSetViewDistance clamps the requested distance to the server cap
// and tells the client when it was corrected.
func HandleSetViewDistance(s *net.Session, raw []byte, rs *sim.Resources) {
	var msg protocol.SetViewDistanceMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		return
	}
	e, ok := boundEntity(s, rs)
	if !ok {
		return
	}
	vd := msg.ViewDistance
	maxVD := uint32(rs.Cfg.World.MaxViewDistance)
	if vd > maxVD {
		vd = maxVD
		corr, _ := protocol.Encode(protocol.SetViewDistanceMsg{
			Type:         protocol.TypeVDCorrection,
			ViewDistance: vd,
		})
		s.Send(corr)
	}
	rs.Stores.Presence.Mutate(e, func(p *comp.Presence) {
		p.ViewDistance = vd
	})
}

// HandleBreakBlock stages an air write; rights-gated on CanBuild.
func HandleBreakBlock(s *net.Session, raw []byte, rs *sim.Resources) {
	stageBlockEdit(s, raw, rs, true)
}

// HandlePlaceBlock stages a block write; rights-gated on CanBuild.
func HandlePlaceBlock(s *net.Session, raw []byte, rs *sim.Resources) {
	stageBlockEdit(s, raw, rs, false)
}

func stageBlockEdit(s *net.Session, raw []byte, rs *sim.Resources, breaking bool) {
	var msg protocol.BlockEditMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		return
	}
	e, ok := boundEntity(s, rs)
	if !ok {
		return
	}
	if !rs.Stores.CanBuild.Has(e) {
		rs.Log.Debug("block edit without build rights", zap.Uint64("session", s.ID))
		return
	}
	block := terrain.BlockAir
	if !breaking {
		block = terrain.Block(msg.Block)
		if block == terrain.BlockAir {
			return
		}
	}
	rs.BlockChange.Stage(terrain.BlockEdit{
		X: msg.Pos[0], Y: msg.Pos[1], Z: msg.Pos[2], Block: block,
	})
}

func HandleUnlockSkill(s *net.Session, raw []byte, rs *sim.Resources) {
	var msg protocol.SkillMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		return
	}
	e, ok := boundEntity(s, rs)
	if !ok {
		return
	}
	rs.Stores.Stats.Mutate(e, func(st *comp.Stats) {
		if err := st.Skills.Unlock(comp.SkillGroupID(msg.Group), comp.SkillID(msg.Skill)); err != nil {
			notify(s, err.Error())
		}
	})
}

func HandleRefundSkill(s *net.Session, raw []byte, rs *sim.Resources) {
	var msg protocol.SkillMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		return
	}
	e, ok := boundEntity(s, rs)
	if !ok {
		return
	}
	rs.Stores.Stats.Mutate(e, func(st *comp.Stats) {
		if err := st.Skills.Refund(comp.SkillID(msg.Skill)); err != nil {
			notify(s, err.Error())
		}
	})
}

func HandleUnlockSkillGroup(s *net.Session, raw []byte, rs *sim.Resources) {
	var msg protocol.SkillMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		return
	}
	e, ok := boundEntity(s, rs)
	if !ok {
		return
	}
	rs.Stores.Stats.Mutate(e, func(st *comp.Stats) {
		st.Skills.UnlockGroup(comp.SkillGroupID(msg.Group))
	})
}

// HandleSiteInfoRequest defers to the apply phase, which owns the reply.
func HandleSiteInfoRequest(s *net.Session, raw []byte, rs *sim.Resources) {
	var msg protocol.SiteInfoRequestMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		return
	}
	e, ok := boundEntity(s, rs)
	if !ok {
		return
	}
	rs.ServerEvents.EmitNow(event.RequestSiteInfo{Entity: e, SiteID: msg.SiteID})
}

// HandleDisconnect is the polite quit path.
func HandleDisconnect(s *net.Session, raw []byte, rs *sim.Resources) {
	if e, ok := boundEntity(s, rs); ok {
		rs.ServerEvents.EmitNow(event.ClientDisconnect{Entity: e})
	}
	s.SetState(net.StateDisconnecting)
}

func notify(s *net.Session, text string) {
	msg, _ := protocol.Encode(protocol.NotificationMsg{
		Type: protocol.TypeNotification,
		Text: text,
	})
	s.Send(msg)
}
