// Package sim owns the shared simulation state: the ECS world, every
// component store, the event buses, and the singleton resources systems
// and message handlers operate on. Ownership of concurrent access is
// declared through system.Access footprints; everything here assumes the
// phase barriers the runner provides.
package sim

import (
	"go.uber.org/zap"

	"github.com/emberwild/server/internal/charstate"
	"github.com/emberwild/server/internal/comp"
	"github.com/emberwild/server/internal/config"
	"github.com/emberwild/server/internal/core/ecs"
	"github.com/emberwild/server/internal/core/event"
	"github.com/emberwild/server/internal/core/system"
	"github.com/emberwild/server/internal/net"
	"github.com/emberwild/server/internal/persist"
	"github.com/emberwild/server/internal/rtsim"
	"github.com/emberwild/server/internal/scripting"
	"github.com/emberwild/server/internal/spatial"
	"github.com/emberwild/server/internal/terrain"
	"github.com/emberwild/server/internal/world"
)

// CompID labels for the scheduler. A system naming one of these in its
// write set claims exclusive access for its batch.
const (
	CompPos         system.CompID = "pos"
	CompVel         system.CompID = "vel"
	CompOri         system.CompID = "ori"
	CompPhysState   system.CompID = "phys_state"
	CompForceUpdate system.CompID = "force_update"
	CompBody        system.CompID = "body"
	CompHealth      system.CompID = "health"
	CompEnergy      system.CompID = "energy"
	CompPoise       system.CompID = "poise"
	CompStats       system.CompID = "stats"
	CompInventory   system.CompID = "inventory"
	CompLoadout     system.CompID = "loadout"
	CompController  system.CompID = "controller"
	CompPresence    system.CompID = "presence"
	CompCharacter   system.CompID = "character"
	ResGrid         system.CompID = "spatial_grid"
	ResTerrain      system.CompID = "terrain"
	ResSessions     system.CompID = "sessions"
	ResRtSim        system.CompID = "rtsim"
	ResUids         system.CompID = "uids"
)

// Stores bundles every component storage, registered with the world's
// registry so destroy cleans all of them.
type Stores struct {
	Pos         *ecs.Store[comp.Pos]
	Vel         *ecs.Store[comp.Vel]
	Ori         *ecs.Store[comp.Ori]
	PhysState   *ecs.Store[comp.PhysicsState]
	ForceUpdate *ecs.Store[comp.ForceUpdate]
	Waypoint    *ecs.Store[comp.Waypoint]
	Body        *ecs.Store[comp.Body]
	Health      *ecs.Store[comp.Health]
	Energy      *ecs.Store[comp.Energy]
	Poise       *ecs.Store[comp.Poise]
	Stats       *ecs.Store[comp.Stats]
	Inventory   *ecs.Store[comp.Inventory]
	Loadout     *ecs.Store[comp.Loadout]
	Controller  *ecs.Store[comp.Controller]
	Presence    *ecs.Store[comp.Presence]
	Player      *ecs.Store[comp.Player]
	CanBuild    *ecs.Store[comp.CanBuild]
	Character   *ecs.Store[charstate.Character]
	UidComp     *ecs.Store[comp.Uid]
	RtSimLink   *ecs.Store[rtsim.EntityID]
}

func NewStores(w *ecs.World) *Stores {
	s := &Stores{
		Pos:         ecs.NewStore[comp.Pos](),
		Vel:         ecs.NewStore[comp.Vel](),
		Ori:         ecs.NewStore[comp.Ori](),
		PhysState:   ecs.NewStore[comp.PhysicsState](),
		ForceUpdate: ecs.NewStore[comp.ForceUpdate](),
		Waypoint:    ecs.NewStore[comp.Waypoint](),
		Body:        ecs.NewStore[comp.Body](),
		Health:      ecs.NewStore[comp.Health](),
		Energy:      ecs.NewStore[comp.Energy](),
		Poise:       ecs.NewStore[comp.Poise](),
		Stats:       ecs.NewStore[comp.Stats](),
		Inventory:   ecs.NewStore[comp.Inventory](),
		Loadout:     ecs.NewStore[comp.Loadout](),
		Controller:  ecs.NewStore[comp.Controller](),
		Presence:    ecs.NewStore[comp.Presence](),
		Player:      ecs.NewStore[comp.Player](),
		CanBuild:    ecs.NewStore[comp.CanBuild](),
		Character:   ecs.NewStore[charstate.Character](),
		UidComp:     ecs.NewStore[comp.Uid](),
		RtSimLink:   ecs.NewStore[rtsim.EntityID](),
	}
	reg := w.Registry()
	reg.Register(s.Pos)
	reg.Register(s.Vel)
	reg.Register(s.Ori)
	reg.Register(s.PhysState)
	reg.Register(s.ForceUpdate)
	reg.Register(s.Waypoint)
	reg.Register(s.Body)
	reg.Register(s.Health)
	reg.Register(s.Energy)
	reg.Register(s.Poise)
	reg.Register(s.Stats)
	reg.Register(s.Inventory)
	reg.Register(s.Loadout)
	reg.Register(s.Controller)
	reg.Register(s.Presence)
	reg.Register(s.Player)
	reg.Register(s.CanBuild)
	reg.Register(s.Character)
	reg.Register(s.UidComp)
	reg.Register(s.RtSimLink)
	return s
}

// Resources is the full dependency bundle systems and handlers receive.
type Resources struct {
	World  *ecs.World
	Stores *Stores

	Uids        *world.UidRegistry
	Sites       *world.Sites
	Grid        *spatial.Grid
	Terrain     *terrain.Grid
	BlockChange *terrain.BlockChange
	GenPool     *terrain.GenPool
	ChunkCache  map[terrain.ChunkKey][]byte // compressed payloads keyed by chunk

	LocalEvents  *event.Bus[event.LocalEvent]
	ServerEvents *event.Bus[event.ServerEvent]

	Sessions      *net.SessionStore
	SessionEntity map[uint64]ecs.Entity
	EntitySession map[ecs.Entity]uint64

	RtSim    *rtsim.RtSim
	Scripts  *scripting.Engine
	Accounts *persist.AccountRepo
	Chars    *persist.CharacterRepo

	Time   float64 // world seconds since boot
	TickNo uint64

	Cfg *config.Config
	Log *zap.Logger
}

// SessionFor returns the session owning an entity, nil when none.
func (r *Resources) SessionFor(e ecs.Entity) *net.Session {
	id, ok := r.EntitySession[e]
	if !ok {
		return nil
	}
	return r.Sessions.Get(id)
}

// BindSession links a session to its in-world entity.
func (r *Resources) BindSession(sessionID uint64, e ecs.Entity) {
	r.SessionEntity[sessionID] = e
	r.EntitySession[e] = sessionID
}

// UnbindSession removes both directions of the link.
func (r *Resources) UnbindSession(sessionID uint64) {
	if e, ok := r.SessionEntity[sessionID]; ok {
		delete(r.EntitySession, e)
		delete(r.SessionEntity, sessionID)
	}
}

// Broadcast sends an encoded message to every in-world session.
func (r *Resources) Broadcast(data []byte) {
	r.Sessions.ForEach(func(s *net.Session) {
		if s.State() == net.StateInWorld {
			s.Send(data)
		}
	})
}
