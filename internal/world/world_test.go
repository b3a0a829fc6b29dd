package world

import (
	"testing"

	"github.com/emberwild/server/internal/core/ecs"
	"github.com/emberwild/server/internal/vmath"
)

func TestUidsNeverReissued(t *testing.T) {
	r := NewUidRegistry()

	a := ecs.Entity(1)
	uidA := r.Allocate(a)
	r.Release(a)

	if _, ok := r.Entity(uidA); ok {
		t.Fatal("released uid still resolves")
	}

	b := ecs.Entity(2)
	uidB := r.Allocate(b)
	if uidB == uidA {
		t.Fatalf("uid %d reissued after release", uidA)
	}
	if got, ok := r.Entity(uidB); !ok || got != b {
		t.Fatal("fresh uid does not resolve")
	}
	if r.Len() != 1 {
		t.Fatalf("registry len = %d, want 1", r.Len())
	}
}

func TestUidBidirectional(t *testing.T) {
	r := NewUidRegistry()
	e := ecs.Entity(42)
	uid := r.Allocate(e)

	if got, ok := r.Uid(e); !ok || got != uid {
		t.Fatal("entity does not resolve to its uid")
	}
	if got, ok := r.Entity(uid); !ok || got != e {
		t.Fatal("uid does not resolve to its entity")
	}

	// Releasing an unknown entity is a no-op.
	r.Release(ecs.Entity(999))
	if r.Len() != 1 {
		t.Fatal("releasing unknown entity changed the registry")
	}
}

func TestSitesNearestOrderAndFilter(t *testing.T) {
	s := NewSites()
	s.Add("near-town", SiteSettlement, vmath.Vec2{X: 10})
	s.Add("far-town", SiteSettlement, vmath.Vec2{X: 100})
	s.Add("close-cave", SiteCave, vmath.Vec2{X: 5})

	got := s.Nearest(vmath.Vec2{}, 3, nil)
	if len(got) != 3 {
		t.Fatalf("got %d sites, want 3", len(got))
	}
	if got[0].Name != "close-cave" || got[1].Name != "near-town" || got[2].Name != "far-town" {
		t.Fatalf("order = %s, %s, %s", got[0].Name, got[1].Name, got[2].Name)
	}

	towns := s.Nearest(vmath.Vec2{}, 3, func(site *Site) bool {
		return site.Kind == SiteSettlement
	})
	if len(towns) != 2 || towns[0].Name != "near-town" {
		t.Fatalf("filtered = %+v", towns)
	}

	if limited := s.Nearest(vmath.Vec2{}, 1, nil); len(limited) != 1 {
		t.Fatalf("limit ignored: %d sites", len(limited))
	}
}

func TestSiteLookup(t *testing.T) {
	s := NewSites()
	id := s.Add("Fernwall", SiteSettlement, vmath.Vec2{X: 1, Y: 2})

	site, ok := s.Get(id)
	if !ok || site.Name != "Fernwall" || site.Kind.String() != "settlement" {
		t.Fatalf("lookup = %+v, ok=%v", site, ok)
	}
	if _, ok := s.Get(id + 1); ok {
		t.Fatal("unknown id resolved")
	}
	if s.Len() != 1 {
		t.Fatalf("len = %d, want 1", s.Len())
	}
}
