package rtsim

import (
	"testing"

	"go.uber.org/zap"

	"github.com/emberwild/server/internal/comp"
	"github.com/emberwild/server/internal/config"
	"github.com/emberwild/server/internal/vmath"
	"github.com/emberwild/server/internal/world"
)

func testSim(airships bool) (*RtSim, *world.Sites) {
	sites := world.NewSites()
	sites.Add("Fernwall", world.SiteSettlement, vmath.Vec2{X: 0, Y: 0})
	sites.Add("Greyridge Keep", world.SiteCastle, vmath.Vec2{X: 500, Y: 0})
	sites.Add("Hollowpine Depths", world.SiteDungeon, vmath.Vec2{X: 0, Y: 500})
	return New(sites, config.RtSimConfig{EnableAirships: airships}, zap.NewNop()), sites
}

func TestGenPureInSeed(t *testing.T) {
	for _, seed := range []uint64{0, 1, 42, 0xdeadbeef} {
		if GenBody(seed, false) != GenBody(seed, false) {
			t.Fatalf("seed %d: body not stable", seed)
		}
		if GenLevel(seed) != GenLevel(seed) {
			t.Fatalf("seed %d: level not stable", seed)
		}
		if GenName(seed) != GenName(seed) {
			t.Fatalf("seed %d: name not stable", seed)
		}
		a := GenLoadout(seed, GenBody(seed, false))
		b := GenLoadout(seed, GenBody(seed, false))
		if a.ActiveTool() != b.ActiveTool() {
			t.Fatalf("seed %d: loadout not stable", seed)
		}
		if lvl := GenLevel(seed); lvl < 1 || lvl > 30 {
			t.Fatalf("seed %d: level %d out of range", seed, lvl)
		}
	}
}

func TestBodyBuildVariesPerIndividual(t *testing.T) {
	// Dimensions draw from their own salt: two entities of the same kind
	// and species must still be able to differ in build, and the spread
	// stays inside the 0.9x-1.1x band.
	base := comp.HumanoidBody(0)
	radii := make(map[float64]bool)
	for seed := uint64(0); seed < 500; seed++ {
		b := GenBody(seed, false)
		if b.Kind != comp.BodyHumanoid || b.Species != 0 {
			continue
		}
		radii[b.Radius] = true
		if b.Radius < base.Radius*0.9-1e-9 || b.Radius > base.Radius*1.1+1e-9 {
			t.Fatalf("seed %d: radius %v outside the build band", seed, b.Radius)
		}
	}
	if len(radii) < 2 {
		t.Fatalf("got %d distinct builds across 500 seeds, want variation", len(radii))
	}
}

func TestAirshipsBehindFlag(t *testing.T) {
	// Find a seed whose genus draw lands in the airship band, then check
	// the flag routes it to bird instead.
	var seed uint64
	found := false
	for s := uint64(0); s < 5000; s++ {
		if GenBody(s, true).Kind == comp.BodyAirship {
			seed = s
			found = true
			break
		}
	}
	if !found {
		t.Skip("no airship seed in range")
	}
	if got := GenBody(seed, false).Kind; got != comp.BodyBird {
		t.Fatalf("airship seed with flag off = %v, want bird", got)
	}
}

func TestTravelStepAndArrival(t *testing.T) {
	r, _ := testSim(false)
	e := r.Spawn(1, vmath.Vec3{X: 2000, Y: 0})

	r.Tick(0)
	if e.Target == 0 {
		t.Fatal("entity should have chosen a target")
	}
	moved := vmath.Vec3{X: 2000, Y: 0}.Distance(e.Pos)
	if moved < travelStep-1e-9 || moved > travelStep+1e-9 {
		t.Fatalf("moved %.2f units, want %v", moved, travelStep)
	}

	// Drop it next to the target; one tick snaps to the site and clears.
	site, _ := r.sites.Get(e.Target)
	e.Pos = site.Pos.Add(vmath.Vec2{X: 10}).WithZ(0)
	r.Tick(1)
	if e.Target != 0 {
		t.Fatal("target should clear within arrival radius")
	}
	if e.Pos.XY() != site.Pos {
		t.Fatalf("arrival should snap to site, got %+v", e.Pos)
	}
	if len(e.Brain.Recall(MemoryVisitedSite)) != 1 {
		t.Fatal("arrival should record a visited-site memory")
	}
}

func TestSiteFilterByBodyKind(t *testing.T) {
	cases := []struct {
		kind comp.BodyKind
		site world.SiteKind
		want bool
	}{
		{comp.BodyHumanoid, world.SiteSettlement, true},
		{comp.BodyHumanoid, world.SiteCastle, true},
		{comp.BodyHumanoid, world.SiteDungeon, false},
		{comp.BodyShip, world.SiteSettlement, true},
		{comp.BodyShip, world.SiteCastle, false},
		{comp.BodyQuadruped, world.SiteDungeon, true},
		{comp.BodyQuadruped, world.SiteSettlement, false},
	}
	for _, tc := range cases {
		f := siteFilter(tc.kind)
		s := &world.Site{Kind: tc.site}
		if got := f(s); got != tc.want {
			t.Errorf("%v visiting %v = %v, want %v", tc.kind, tc.site, got, tc.want)
		}
	}
	if f := siteFilter(comp.BodyAirship); f != nil {
		t.Error("airships should accept every site")
	}
}

func TestPromoteDemotePreservesState(t *testing.T) {
	r, _ := testSim(false)
	e := r.Spawn(7, vmath.Vec3{X: 100, Y: 100})
	e.Brain.Remember(Memory{Kind: MemoryMood, Data: "wary", Time: 0})

	p := r.Promote(e.ID)
	if p == nil {
		t.Fatal("promote failed")
	}
	if p.Body != GenBody(7, false) {
		t.Fatal("promoted body must match seed derivation")
	}
	if r.Promote(e.ID) != nil {
		t.Fatal("double promote must fail")
	}

	// Loaded entities skip coarse ticks.
	before := e.Pos
	r.Tick(0)
	if e.Pos != before {
		t.Fatal("loaded entity must not be coarse-ticked")
	}

	newPos := vmath.Vec3{X: 150, Y: 90, Z: 5}
	brain := e.Brain
	brain.Remember(Memory{Kind: MemoryCharacterFight, Data: "Aldric", Time: 1})
	r.Demote(e.ID, newPos, brain)
	if e.Loaded {
		t.Fatal("demote should unload")
	}
	if e.Pos != newPos {
		t.Fatal("demote must preserve live position")
	}
	if len(e.Brain.Memories) != 2 {
		t.Fatal("demote must preserve brain")
	}
}

func TestMemoryTTL(t *testing.T) {
	var b Brain
	b.Remember(Memory{Kind: MemoryMood, Data: "old", Time: 0})
	b.Remember(Memory{Kind: MemoryMood, Data: "new", Time: MemoryTTL})
	b.Forget(MemoryTTL + 1)
	if len(b.Memories) != 1 || b.Memories[0].Data != "new" {
		t.Fatalf("forget kept %+v", b.Memories)
	}
}
