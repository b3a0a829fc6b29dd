// Package game assembles the server: configuration, storage, the network
// listener, the simulation resources and the phased tick loop.
package game

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/emberwild/server/internal/config"
	"github.com/emberwild/server/internal/core/ecs"
	"github.com/emberwild/server/internal/core/event"
	"github.com/emberwild/server/internal/core/system"
	"github.com/emberwild/server/internal/handler"
	"github.com/emberwild/server/internal/net"
	"github.com/emberwild/server/internal/persist"
	"github.com/emberwild/server/internal/rtsim"
	"github.com/emberwild/server/internal/scripting"
	"github.com/emberwild/server/internal/sim"
	"github.com/emberwild/server/internal/spatial"
	"github.com/emberwild/server/internal/systems"
	"github.com/emberwild/server/internal/terrain"
	"github.com/emberwild/server/internal/vmath"
	"github.com/emberwild/server/internal/world"
)

// Spatial grid tuning: fine cells 16 units, coarse cells 256, radii over
// the cutoff route to the coarse scale.
const (
	gridCellBits      = 4
	gridLargeCellBits = 8
	gridCutoff        = 4.0
)

const (
	autosaveEvery  = 30 * time.Second
	rtsimPopulation = 64
)

type Game struct {
	rs         *sim.Resources
	runner     *system.Runner
	server     *net.Server
	db         *persist.DB
	rtsimStore *rtsim.Store
	console    chan string
	log        *zap.Logger
}

func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Game, error) {
	db, err := persist.NewDB(ctx, cfg.Database, log)
	if err != nil {
		return nil, err
	}
	if err := persist.RunMigrations(ctx, db.Pool); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	scripts, err := scripting.NewEngine(cfg.Server.ScriptsDir, log)
	if err != nil {
		db.Close()
		return nil, err
	}

	sites := seedSites(cfg.World.Seed)

	rt := rtsim.New(sites, cfg.RtSim, log)
	store, err := rtsim.OpenStore(cfg.RtSim.DataPath)
	if err != nil {
		db.Close()
		return nil, err
	}
	if err := store.Load(ctx, rt); err != nil {
		store.Close()
		db.Close()
		return nil, fmt.Errorf("load rtsim: %w", err)
	}
	if rt.Len() == 0 {
		populateRtSim(rt, sites, cfg.World.Seed)
		log.Info("seeded rtsim population", zap.Int("entities", rt.Len()))
	}

	w := ecs.NewWorld()
	server := net.NewServer(cfg.Network.BindAddress,
		cfg.Network.InQueueSize, cfg.Network.OutQueueSize,
		cfg.Network.ReadTimeout, cfg.Network.WriteTimeout, log)

	rs := &sim.Resources{
		World:         w,
		Stores:        sim.NewStores(w),
		Uids:          world.NewUidRegistry(),
		Sites:         sites,
		Grid:          spatial.NewGrid(gridCellBits, gridLargeCellBits, gridCutoff),
		Terrain:       terrain.NewGrid(),
		BlockChange:   terrain.NewBlockChange(),
		GenPool:       terrain.NewGenPool(cfg.World.Seed, cfg.World.GenWorkers, log),
		ChunkCache:    make(map[terrain.ChunkKey][]byte, 256),
		LocalEvents:   event.NewBus[event.LocalEvent](),
		ServerEvents:  event.NewBus[event.ServerEvent](),
		Sessions:      net.NewSessionStore(),
		SessionEntity: make(map[uint64]ecs.Entity, 64),
		EntitySession: make(map[ecs.Entity]uint64, 64),
		RtSim:         rt,
		Scripts:       scripts,
		Accounts:      persist.NewAccountRepo(db),
		Chars:         persist.NewCharacterRepo(db),
		Cfg:           cfg,
		Log:           log,
	}

	handlers := handler.NewRegistry()
	handler.RegisterAll(handlers)

	runner := system.NewRunner(log)
	runner.Register(systems.NewTerrainIngest(rs))
	runner.Register(systems.NewInput(rs, server, handlers))
	runner.Register(systems.NewLocalApply(rs))
	runner.Register(systems.NewSpatial(rs))
	runner.Register(systems.NewCharacter(rs))
	runner.Register(systems.NewPhysics(rs))
	runner.Register(systems.NewApply(rs))
	runner.Register(systems.NewRtSimTick(rs))
	runner.Register(systems.NewOutput(rs))
	runner.Register(systems.NewCleanup(rs))
	runner.Plan()

	// Preload the spawn area so first logins land on solid ground.
	for x := int32(-2); x <= 2; x++ {
		for y := int32(-2); y <= 2; y++ {
			rs.GenPool.Request(terrain.ChunkKey{X: x, Y: y}, 0)
		}
	}

	return &Game{
		rs:         rs,
		runner:     runner,
		server:     server,
		db:         db,
		rtsimStore: store,
		console:    make(chan string, 16),
		log:        log,
	}, nil
}

// SubmitConsole queues an operator line for the next tick. Safe from any
// goroutine.
func (g *Game) SubmitConsole(line string) {
	select {
	case g.console <- line:
	default:
		g.log.Warn("console queue full, line dropped")
	}
}

// Run drives the tick loop until the context ends, then persists and
// shuts down.
func (g *Game) Run(ctx context.Context) error {
	listenErr := make(chan error, 1)
	go func() { listenErr <- g.server.Listen(ctx) }()

	tick := g.rs.Cfg.Network.TickRate
	ticker := time.NewTicker(tick)
	defer ticker.Stop()
	autosave := time.NewTicker(autosaveEvery)
	defer autosave.Stop()

	g.log.Info("server running",
		zap.String("bind", g.rs.Cfg.Network.BindAddress),
		zap.Duration("tick", tick))

	for {
		select {
		case <-ctx.Done():
			return g.shutdown()
		case err := <-listenErr:
			if err != nil {
				_ = g.shutdown()
				return err
			}
		case <-autosave.C:
			g.save()
		case <-ticker.C:
			g.drainConsole()
			g.runner.Tick(tick)
		}
	}
}

func (g *Game) drainConsole() {
	for {
		select {
		case line := <-g.console:
			g.handleConsole(line)
		default:
			return
		}
	}
}

// handleConsole runs operator input on the game loop: slash lines go to
// the script engine with a console-bound context, everything else is a
// server broadcast.
func (g *Game) handleConsole(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	if !strings.HasPrefix(line, "/") {
		g.rs.ServerEvents.EmitNow(event.Chat{Msg: "[server] " + line})
		return
	}
	fields := strings.Fields(line[1:])
	if len(fields) == 0 {
		return
	}
	g.rs.Scripts.Dispatch(fields[0], fields[1:], &scripting.CommandContext{
		CallerAlias: "console",
		CallerAdmin: true,
		Reply:       func(msg string) { g.log.Info("console", zap.String("reply", msg)) },
		Broadcast: func(msg string) {
			g.rs.ServerEvents.EmitNow(event.Chat{Msg: msg})
		},
		GiveItem:     func(string, int) bool { return false },
		Teleport:     func(float64, float64, float64) bool { return false },
		SetTimeOfDay: func(secs float64) { g.rs.Time = secs },
	})
}

func (g *Game) save() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := g.rtsimStore.Save(ctx, g.rs.RtSim); err != nil {
		g.log.Error("rtsim autosave failed", zap.Error(err))
	}
	for _, e := range sortedEntities(g.rs.EntitySession) {
		g.rs.ServerEvents.EmitNow(event.UpdateCharacterData{Entity: e})
	}
}

// sortedEntities gives a stable save order; map iteration is not.
func sortedEntities(m map[ecs.Entity]uint64) []ecs.Entity {
	out := make([]ecs.Entity, 0, len(m))
	for e := range m {
		out = append(out, e)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j] < out[j-1]; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

func (g *Game) shutdown() error {
	g.log.Info("shutting down")
	g.save()
	// One final tick flushes the queued character saves.
	g.runner.TickPhase(system.PhaseApply, g.rs.Cfg.Network.TickRate)
	g.rs.GenPool.Stop()
	g.rs.Scripts.Close()
	if err := g.rtsimStore.Close(); err != nil {
		g.log.Warn("rtsim store close failed", zap.Error(err))
	}
	g.db.Close()
	return nil
}

// seedSites builds the deterministic point-of-interest map for a world
// seed.
func seedSites(seed int64) *world.Sites {
	s := world.NewSites()
	rng := rand.New(rand.NewSource(seed))
	kinds := []struct {
		kind  world.SiteKind
		names []string
		count int
	}{
		{world.SiteSettlement, []string{"Fernwall", "Mosswick", "Coldbrook", "Oakspur"}, 4},
		{world.SiteCastle, []string{"Greyridge Keep", "Stonegate"}, 2},
		{world.SiteDungeon, []string{"Hollowpine Depths", "Nightbarrow"}, 2},
		{world.SiteCave, []string{"Quarryhill Cave"}, 1},
	}
	for _, k := range kinds {
		for i := 0; i < k.count; i++ {
			pos := vmath.Vec2{
				X: (rng.Float64() - 0.5) * 4096,
				Y: (rng.Float64() - 0.5) * 4096,
			}
			s.Add(k.names[i%len(k.names)], k.kind, pos)
		}
	}
	return s
}

// populateRtSim spawns the initial coarse population around the sites.
func populateRtSim(rt *rtsim.RtSim, sites *world.Sites, seed int64) {
	rng := rand.New(rand.NewSource(seed + 1))
	all := sites.All()
	if len(all) == 0 {
		return
	}
	for i := 0; i < rtsimPopulation; i++ {
		site := all[rng.Intn(len(all))]
		pos := site.Pos.Add(vmath.Vec2{
			X: (rng.Float64() - 0.5) * 512,
			Y: (rng.Float64() - 0.5) * 512,
		}).WithZ(32)
		rt.Spawn(rng.Uint64(), pos)
	}
}
