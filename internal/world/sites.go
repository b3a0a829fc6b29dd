package world

import (
	"sort"

	"github.com/emberwild/server/internal/vmath"
)

// SiteKind classifies a point of interest.
type SiteKind uint8

const (
	SiteSettlement SiteKind = iota
	SiteCastle
	SiteDungeon
	SiteCave
)

func (k SiteKind) String() string {
	switch k {
	case SiteSettlement:
		return "settlement"
	case SiteCastle:
		return "castle"
	case SiteDungeon:
		return "dungeon"
	case SiteCave:
		return "cave"
	default:
		return "unknown"
	}
}

// SiteID indexes into the site registry.
type SiteID uint32

// Site is a named world location NPCs travel between and clients can query.
type Site struct {
	ID   SiteID
	Name string
	Kind SiteKind
	Pos  vmath.Vec2
}

// Sites is the world's point-of-interest index. Built at startup, read-only
// during the tick, safe for concurrent reads.
type Sites struct {
	byID  map[SiteID]*Site
	order []SiteID
	next  SiteID
}

func NewSites() *Sites {
	return &Sites{byID: make(map[SiteID]*Site, 64)}
}

func (s *Sites) Add(name string, kind SiteKind, pos vmath.Vec2) SiteID {
	s.next++
	id := s.next
	s.byID[id] = &Site{ID: id, Name: name, Kind: kind, Pos: pos}
	s.order = append(s.order, id)
	return id
}

func (s *Sites) Get(id SiteID) (*Site, bool) {
	site, ok := s.byID[id]
	return site, ok
}

func (s *Sites) Len() int { return len(s.byID) }

// All returns sites in insertion order.
func (s *Sites) All() []*Site {
	out := make([]*Site, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out
}

// Nearest returns up to n sites sorted by distance from pos, filtered by
// the accept predicate (nil accepts everything).
func (s *Sites) Nearest(pos vmath.Vec2, n int, accept func(*Site) bool) []*Site {
	cand := make([]*Site, 0, len(s.byID))
	for _, id := range s.order {
		site := s.byID[id]
		if accept == nil || accept(site) {
			cand = append(cand, site)
		}
	}
	sort.Slice(cand, func(i, j int) bool {
		di := cand[i].Pos.Sub(pos)
		dj := cand[j].Pos.Sub(pos)
		return di.Dot(di) < dj.Dot(dj)
	})
	if len(cand) > n {
		cand = cand[:n]
	}
	return cand
}
