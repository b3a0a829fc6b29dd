package systems

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/emberwild/server/internal/charstate"
	"github.com/emberwild/server/internal/comp"
	"github.com/emberwild/server/internal/core/ecs"
	"github.com/emberwild/server/internal/core/event"
	"github.com/emberwild/server/internal/core/system"
	"github.com/emberwild/server/internal/persist"
	"github.com/emberwild/server/internal/protocol"
	"github.com/emberwild/server/internal/rtsim"
	"github.com/emberwild/server/internal/scripting"
	"github.com/emberwild/server/internal/sim"
	"github.com/emberwild/server/internal/vmath"
	"github.com/emberwild/server/internal/world"
)

// Apply drains the server event queue and mutates authoritative state.
// Strictly serial: it is the only writer during its phase, so variants
// can touch anything without coordination. Events referencing entities
// that died earlier in the same drain are dropped.
type Apply struct {
	rs *sim.Resources
}

func NewApply(rs *sim.Resources) *Apply { return &Apply{rs: rs} }

func (s *Apply) Name() string        { return "apply" }
func (s *Apply) Phase() system.Phase { return system.PhaseApply }

// Exclusive over everything it names; the phase holds no other systems.
func (s *Apply) Access() system.Access {
	return system.Access{
		Writes: []system.CompID{
			sim.CompPos, sim.CompVel, sim.CompOri, sim.CompHealth,
			sim.CompEnergy, sim.CompPoise, sim.CompStats, sim.CompInventory,
			sim.CompLoadout, sim.CompBody, sim.CompCharacter,
			sim.CompForceUpdate, sim.CompPresence, sim.ResSessions,
			sim.ResUids, sim.ResRtSim,
		},
		Reads: []system.CompID{sim.ResGrid},
	}
}

func (s *Apply) Update(dt time.Duration) {
	// Events emitted while applying land in the queue and are handled in
	// the same phase; the loop runs until the queue is quiet.
	for i := 0; i < 8; i++ {
		events := s.rs.ServerEvents.DrainAll()
		if len(events) == 0 {
			return
		}
		for _, ev := range events {
			s.apply(ev)
		}
	}
	if n := s.rs.ServerEvents.Len(); n > 0 {
		s.rs.Log.Warn("server event cascade did not settle", zap.Int("remaining", n))
	}
}

func (s *Apply) apply(ev event.ServerEvent) {
	switch e := ev.(type) {
	case event.Damage:
		s.applyDamage(e.Target, e.Amount, e.By, e.Cause)
	case event.PoiseChange:
		s.rs.Stores.Poise.Mutate(e.Target, func(p *comp.Poise) { p.Change(e.Amount) })
	case event.Knockback:
		s.rs.Stores.Vel.Mutate(e.Target, func(v *comp.Vel) { v.V = v.V.Add(e.Impulse) })
	case event.Explosion:
		s.applyExplosion(e)
	case event.Shockwave:
		s.applyShockwave(e)
	case event.BeamSegment:
		s.applyBeam(e)
	case event.MeleeHit:
		s.applyMeleeHit(e)
	case event.ShootProjectile:
		s.applyProjectile(e)
	case event.CreateNpc:
		s.spawnNpc(e)
	case event.Destroy:
		s.applyDestroy(e)
	case event.Delete:
		s.applyDelete(e.Entity)
	case event.Respawn:
		s.applyRespawn(e.Entity)
	case event.ClientDisconnect:
		s.applyDisconnect(e.Entity)
	case event.InitCharacterData:
		s.loadCharacter(e.Entity, e.CharacterID)
	case event.UpdateCharacterData:
		s.saveCharacter(e.Entity)
	case event.Chat:
		s.applyChat(e)
	case event.ChatCmd:
		s.applyChatCmd(e)
	case event.RequestSiteInfo:
		s.applySiteInfo(e)
	case event.Possess:
		s.applyPossess(e)
	case event.InventoryManip:
		s.applyInventoryManip(e)
	}
}

// applyDamage runs every health change. Hitting a dead entity is a no-op
// by Health.Change's contract; a kill queues Destroy.
func (s *Apply) applyDamage(target ecs.Entity, amount uint32, by *comp.Uid, cause comp.HealthSource) {
	h, ok := s.rs.Stores.Health.Get(target)
	if !ok || h.IsDead {
		return
	}
	if by != nil && !s.rs.Cfg.Server.PvpEnabled && s.isPlayer(target) {
		if att, ok := s.rs.Uids.Entity(*by); ok && s.isPlayer(att) {
			return
		}
	}
	h.Change(comp.HealthChange{Amount: -int32(amount), By: by, Cause: cause})
	if h.IsDead {
		s.rs.ServerEvents.EmitNow(event.Destroy{Entity: target, Cause: cause})
	}
}

func (s *Apply) isPlayer(e ecs.Entity) bool {
	return s.rs.Stores.Player.Has(e)
}

func (s *Apply) applyExplosion(e event.Explosion) {
	rs := s.rs
	rs.Grid.InRadius(e.Pos.XY(), e.Radius, func(target ecs.Entity) {
		p, ok := rs.Stores.Pos.Get(target)
		if !ok {
			return
		}
		d := p.P.Distance(e.Pos)
		if d > e.Radius {
			return
		}
		falloff := 1 - d/e.Radius
		s.applyDamage(target, uint32(float64(e.Power)*falloff), e.Owner, comp.HealthSourceExplosion)
		away := p.P.Sub(e.Pos).Normalized().Scale(12 * falloff)
		away.Z += 4 * falloff
		rs.Stores.Vel.Mutate(target, func(v *comp.Vel) { v.V = v.V.Add(away) })
	})
}

func (s *Apply) applyShockwave(e event.Shockwave) {
	rs := s.rs
	radius := e.Speed * e.Duration
	dir := e.Dir.XY().Normalized()
	var owner *comp.Uid
	if u, ok := rs.Uids.Uid(e.Owner); ok {
		owner = &u
	}
	rs.Grid.InRadius(e.Pos.XY(), radius, func(target ecs.Entity) {
		if target == e.Owner {
			return
		}
		p, ok := rs.Stores.Pos.Get(target)
		if !ok {
			return
		}
		to := p.P.XY().Sub(e.Pos.XY())
		if to.Magnitude() > radius || to.Normalized().Dot(dir) < 0 {
			return
		}
		s.applyDamage(target, e.Damage, owner, comp.HealthSourceShockwave)
		imp := to.Normalized().Scale(e.Knockback).WithZ(e.Knockback * 0.4)
		rs.Stores.Vel.Mutate(target, func(v *comp.Vel) { v.V = v.V.Add(imp) })
	})
}

func (s *Apply) applyBeam(e event.BeamSegment) {
	rs := s.rs
	dir := e.Dir.Normalized()
	var owner *comp.Uid
	if u, ok := rs.Uids.Uid(e.Owner); ok {
		owner = &u
	}
	rs.Grid.InRadius(e.Pos.XY(), e.Range, func(target ecs.Entity) {
		if target == e.Owner {
			return
		}
		p, ok := rs.Stores.Pos.Get(target)
		if !ok {
			return
		}
		to := p.P.Sub(e.Pos)
		along := to.Dot(dir)
		if along < 0 || along > e.Range {
			return
		}
		// Perpendicular distance from the beam line.
		if to.Sub(dir.Scale(along)).Magnitude() > 0.8 {
			return
		}
		s.applyDamage(target, e.Damage, owner, comp.HealthSourceBeam)
	})
}

// applyMeleeHit resolves the swing against the grid: every entity inside
// the range/angle arc takes damage and knockback. Mid-roll targets are
// immune while their dodge window is active.
func (s *Apply) applyMeleeHit(e event.MeleeHit) {
	rs := s.rs
	dir := e.Dir.XY().Normalized()
	halfAngle := e.Angle * math.Pi / 180 / 2
	var owner *comp.Uid
	if u, ok := rs.Uids.Uid(e.Owner); ok {
		owner = &u
	}
	rs.Grid.InRadius(e.Pos.XY(), e.Range, func(target ecs.Entity) {
		if target == e.Owner {
			return
		}
		p, ok := rs.Stores.Pos.Get(target)
		if !ok {
			return
		}
		to := p.P.XY().Sub(e.Pos.XY())
		if to.Magnitude() > e.Range {
			return
		}
		if !to.IsZero() {
			cos := to.Normalized().Dot(dir)
			if math.Acos(vmath.Clamp(cos, -1, 1)) > halfAngle {
				return
			}
		}
		if ch, ok := rs.Stores.Character.Get(target); ok && charstate.MeleeImmune(ch.State) {
			return
		}
		s.applyDamage(target, e.Damage, owner, comp.HealthSourceDamage)
		s.rs.ServerEvents.EmitNow(event.PoiseChange{Target: target, Amount: -int32(e.Damage / 2)})
		imp := to.Normalized().Scale(e.Knockback).WithZ(e.Knockback * 0.3)
		rs.Stores.Vel.Mutate(target, func(v *comp.Vel) { v.V = v.V.Add(imp) })
	})
}

// applyProjectile is a hitscan along the shot direction: the nearest
// entity within the corridor takes the hit.
func (s *Apply) applyProjectile(e event.ShootProjectile) {
	rs := s.rs
	const maxRange = 64.0
	dir := e.Dir.Normalized()
	var owner *comp.Uid
	if u, ok := rs.Uids.Uid(e.Owner); ok {
		owner = &u
	}
	var best ecs.Entity
	bestAlong := math.MaxFloat64
	rs.Grid.InRadius(e.Pos.XY(), maxRange, func(target ecs.Entity) {
		if target == e.Owner {
			return
		}
		p, ok := rs.Stores.Pos.Get(target)
		if !ok {
			return
		}
		to := p.P.Sub(e.Pos)
		along := to.Dot(dir)
		if along < 0 || along > maxRange {
			return
		}
		if to.Sub(dir.Scale(along)).Magnitude() > 1.0 {
			return
		}
		if along < bestAlong {
			bestAlong = along
			best = target
		}
	})
	if bestAlong < math.MaxFloat64 {
		s.applyDamage(best, e.Damage, owner, comp.HealthSourceProjectile)
	}
}

func (s *Apply) spawnNpc(e event.CreateNpc) {
	rs := s.rs
	st := rs.Stores
	ent := rs.World.CreateEntity()

	st.Pos.Set(ent, &comp.Pos{P: e.Pos})
	st.Vel.Set(ent, &comp.Vel{})
	st.Ori.Set(ent, &comp.Ori{Q: vmath.QuatIdentity()})
	st.PhysState.Set(ent, &comp.PhysicsState{})
	body := e.Body
	st.Body.Set(ent, &body)
	health := e.Health
	st.Health.Set(ent, &health)
	energy := comp.NewEnergy(100)
	st.Energy.Set(ent, &energy)
	poise := comp.NewPoise(60)
	st.Poise.Set(ent, &poise)
	stats := e.Stats
	st.Stats.Set(ent, &stats)
	loadout := e.Loadout
	st.Loadout.Set(ent, &loadout)
	st.Controller.Set(ent, &comp.Controller{})
	ch := charstate.NewCharacter()
	st.Character.Set(ent, &ch)
	uid := rs.Uids.Allocate(ent)
	st.UidComp.Set(ent, &uid)
	if e.RtSimID != 0 {
		id := rtsim.EntityID(e.RtSimID)
		st.RtSimLink.Set(ent, &id)
	}
}

// applyDestroy is death, not removal: loot drops, the kill is remembered,
// and NPCs get deleted. Dead players stay in the world until they respawn
// or disconnect.
func (s *Apply) applyDestroy(e event.Destroy) {
	rs := s.rs

	var alias string
	if st, ok := rs.Stores.Stats.Get(e.Entity); ok {
		alias = st.Name
	}

	if inv, ok := rs.Stores.Inventory.Get(e.Entity); ok {
		if dropped := inv.Drain(); len(dropped) > 0 {
			rs.Log.Debug("inventory dropped on death",
				zap.String("name", alias), zap.Int("items", len(dropped)))
		}
	}

	// Tell the killer's coarse brain about the fight, if the victim was
	// hit by a linked NPC or the victim itself is one.
	if link, ok := rs.Stores.RtSimLink.Get(e.Entity); ok {
		if re, ok := rs.RtSim.Get(*link); ok {
			re.Brain.Remember(rtsim.Memory{
				Kind: rtsim.MemoryCharacterFight,
				Data: "died",
				Time: rs.Time,
			})
		}
	}

	if alias != "" {
		text, _ := protocol.Encode(protocol.NotificationMsg{
			Type: protocol.TypeNotification,
			Text: alias + " died",
		})
		rs.Broadcast(text)
	}

	if s.isPlayer(e.Entity) {
		s.saveCharacter(e.Entity)
		return
	}
	if link, ok := rs.Stores.RtSimLink.Get(e.Entity); ok {
		rs.RtSim.Remove(*link)
	}
	rs.ServerEvents.EmitNow(event.Delete{Entity: e.Entity})
}

func (s *Apply) applyDelete(e ecs.Entity) {
	rs := s.rs
	rs.Uids.Release(e)
	if id, ok := rs.EntitySession[e]; ok {
		rs.UnbindSession(id)
	}
	rs.World.MarkForDestruction(e)
}

// applyRespawn revives a dead character at its waypoint and forces the
// client to accept the server position.
func (s *Apply) applyRespawn(e ecs.Entity) {
	rs := s.rs
	h, ok := rs.Stores.Health.Get(e)
	if !ok || !h.IsDead {
		rs.Log.Debug("respawn for living entity dropped", zap.Uint64("entity", uint64(e)))
		return
	}
	h.Revive(0.5)
	rs.Stores.Energy.Mutate(e, func(en *comp.Energy) {
		en.Change(comp.EnergyChange{Amount: int32(en.Maximum), Source: comp.EnergySourceRevive})
	})

	spawn := vmath.Vec3{X: 0, Y: 0, Z: 32}
	if wp, ok := rs.Stores.Waypoint.Get(e); ok {
		spawn = wp.Pos
	}
	rs.Stores.Pos.Mutate(e, func(p *comp.Pos) { p.P = spawn })
	rs.Stores.Vel.Mutate(e, func(v *comp.Vel) { v.V = vmath.Vec3{} })
	rs.Stores.Character.Mutate(e, func(ch *charstate.Character) {
		ch.State = &charstate.Idle{}
	})

	fu, ok := rs.Stores.ForceUpdate.Get(e)
	if !ok {
		fu = &comp.ForceUpdate{}
		rs.Stores.ForceUpdate.Set(e, fu)
	}
	fu.Counter++
	if sess := rs.SessionFor(e); sess != nil {
		msg, _ := protocol.Encode(protocol.ForceUpdateMsg{
			Type:    protocol.TypeForceUpdate,
			Counter: fu.Counter,
			Pos:     [3]float64{spawn.X, spawn.Y, spawn.Z},
		})
		sess.Send(msg)
	}
}

func (s *Apply) applyDisconnect(e ecs.Entity) {
	s.saveCharacter(e)
	s.applyDelete(e)
}

func (s *Apply) loadCharacter(e ecs.Entity, charID int64) {
	rs := s.rs
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	row, err := rs.Chars.LoadByID(ctx, int32(charID))
	if err != nil || row == nil {
		rs.Log.Error("character init load failed", zap.Int64("char", charID), zap.Error(err))
		return
	}
	rs.Stores.Pos.Mutate(e, func(p *comp.Pos) { p.P = row.Pos })
	rs.Stores.Stats.Mutate(e, func(st *comp.Stats) {
		st.Level = uint32(row.Level)
		st.Exp = uint32(row.Exp)
		st.Skills = row.Skills
		st.Skills.Points = uint16(row.SkillPoints)
	})
	if row.Waypoint != nil {
		rs.Stores.Waypoint.Set(e, &comp.Waypoint{Pos: *row.Waypoint})
	}
}

// saveCharacter snapshots the live entity back into its row.
func (s *Apply) saveCharacter(e ecs.Entity) {
	rs := s.rs
	pl, ok := rs.Stores.Player.Get(e)
	if !ok {
		return
	}
	row := &persist.CharacterRow{
		ID:    int32(pl.CharacterID),
		Alias: pl.Alias,
	}
	if st, ok := rs.Stores.Stats.Get(e); ok {
		row.Level = int32(st.Level)
		row.Exp = int64(st.Exp)
		row.SkillPoints = int32(st.Skills.Points)
		row.Skills = st.Skills
	}
	if h, ok := rs.Stores.Health.Get(e); ok {
		row.Health = float32(h.Current)
	}
	if p, ok := rs.Stores.Pos.Get(e); ok {
		row.Pos = p.P
	}
	if wp, ok := rs.Stores.Waypoint.Get(e); ok {
		pos := wp.Pos
		row.Waypoint = &pos
	}
	if inv, ok := rs.Stores.Inventory.Get(e); ok {
		for _, it := range inv.Slots {
			if it != nil {
				row.Inventory = append(row.Inventory, *it)
			}
		}
	}
	if l, ok := rs.Stores.Loadout.Get(e); ok {
		row.Loadout = append(row.Loadout, l.Slots[:]...)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rs.Chars.Save(ctx, row); err != nil {
		rs.Log.Error("character save failed", zap.String("alias", pl.Alias), zap.Error(err))
	}
}

func (s *Apply) applyChat(e event.Chat) {
	rs := s.rs
	out := protocol.ChatMsg{Type: protocol.TypeChatMsg, Text: e.Msg}
	if e.From != nil {
		out.From = uint64(*e.From)
		if ent, ok := rs.Uids.Entity(*e.From); ok {
			if st, ok := rs.Stores.Stats.Get(ent); ok {
				out.Name = st.Name
			}
		}
	}
	data, _ := protocol.Encode(out)
	rs.Broadcast(data)
}

func (s *Apply) applyChatCmd(e event.ChatCmd) {
	rs := s.rs
	sess := rs.SessionFor(e.Entity)
	if sess == nil {
		return
	}
	alias := ""
	if pl, ok := rs.Stores.Player.Get(e.Entity); ok {
		alias = pl.Alias
	}

	ctx := &scripting.CommandContext{
		CallerAlias: alias,
		CallerAdmin: rs.Stores.CanBuild.Has(e.Entity),
		Reply: func(msg string) {
			data, _ := protocol.Encode(protocol.NotificationMsg{
				Type: protocol.TypeNotification, Text: msg,
			})
			sess.Send(data)
		},
		Broadcast: func(msg string) {
			data, _ := protocol.Encode(protocol.ChatMsg{
				Type: protocol.TypeChatMsg, Text: msg,
			})
			rs.Broadcast(data)
		},
		GiveItem: func(itemID string, amount int) bool {
			pushed := false
			rs.Stores.Inventory.Mutate(e.Entity, func(inv *comp.Inventory) {
				pushed = inv.Push(comp.Item{
					ID: itemID, Name: itemID,
					Kind: comp.ItemIngredient, Amount: uint32(amount),
				})
			})
			return pushed
		},
		Teleport: func(x, y, z float64) bool {
			moved := rs.Stores.Pos.Mutate(e.Entity, func(p *comp.Pos) {
				p.P = vmath.Vec3{X: x, Y: y, Z: z}
			})
			if moved {
				fu, ok := rs.Stores.ForceUpdate.Get(e.Entity)
				if !ok {
					fu = &comp.ForceUpdate{}
					rs.Stores.ForceUpdate.Set(e.Entity, fu)
				}
				fu.Counter++
				msg, _ := protocol.Encode(protocol.ForceUpdateMsg{
					Type:    protocol.TypeForceUpdate,
					Counter: fu.Counter,
					Pos:     [3]float64{x, y, z},
				})
				sess.Send(msg)
			}
			return moved
		},
		SetTimeOfDay: func(secs float64) {
			rs.Time = secs
		},
	}
	rs.Scripts.Dispatch(e.Cmd, e.Args, ctx)
}

func (s *Apply) applySiteInfo(e event.RequestSiteInfo) {
	rs := s.rs
	sess := rs.SessionFor(e.Entity)
	if sess == nil {
		return
	}
	site, ok := rs.Sites.Get(world.SiteID(e.SiteID))
	if !ok {
		data, _ := protocol.Encode(protocol.NotificationMsg{
			Type: protocol.TypeNotification, Text: "unknown site",
		})
		sess.Send(data)
		return
	}
	data, _ := protocol.Encode(protocol.SiteInfoMsg{
		Type:   protocol.TypeSiteInfo,
		SiteID: uint64(site.ID),
		Name:   site.Name,
		Kind:   site.Kind.String(),
		Pos:    [2]float64{site.Pos.X, site.Pos.Y},
	})
	sess.Send(data)
}

// applyPossess moves client control from one body to another.
func (s *Apply) applyPossess(e event.Possess) {
	rs := s.rs
	from, ok1 := rs.Uids.Entity(e.Possessor)
	to, ok2 := rs.Uids.Entity(e.Possessee)
	if !ok1 || !ok2 {
		return
	}
	sessID, ok := rs.EntitySession[from]
	if !ok {
		return
	}
	if _, taken := rs.EntitySession[to]; taken {
		return
	}
	rs.UnbindSession(sessID)
	rs.BindSession(sessID, to)
	if !rs.Stores.Controller.Has(to) {
		rs.Stores.Controller.Set(to, &comp.Controller{})
	}
}

func (s *Apply) applyInventoryManip(e event.InventoryManip) {
	rs := s.rs
	rs.Stores.Inventory.Mutate(e.Entity, func(inv *comp.Inventory) {
		switch e.Kind {
		case event.ManipPickup:
			if e.Item != nil {
				inv.Push(*e.Item)
			}
		case event.ManipDrop:
			inv.Take(e.Slot)
		case event.ManipUse:
			it := inv.Get(e.Slot)
			if it == nil {
				return
			}
			if it.Kind == comp.ItemConsumable {
				rs.Stores.Health.Mutate(e.Entity, func(h *comp.Health) {
					h.Change(comp.HealthChange{Amount: 100, Cause: comp.HealthSourceRevive})
				})
				it.Amount--
				if it.Amount == 0 {
					inv.Take(e.Slot)
				}
			}
		case event.ManipSwap:
			a, b := inv.Get(e.Slot), inv.Get(e.Other)
			if e.Slot >= 0 && e.Slot < len(inv.Slots) && e.Other >= 0 && e.Other < len(inv.Slots) {
				inv.Slots[e.Slot], inv.Slots[e.Other] = b, a
			}
		}
	})
}
