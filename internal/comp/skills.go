package comp

import "errors"

type SkillID string

type SkillGroupID string

var (
	ErrSkillLocked       = errors.New("skill group not unlocked")
	ErrInsufficientPoints = errors.New("insufficient skill points")
	ErrSkillNotKnown     = errors.New("skill not unlocked")
)

// SkillSet tracks unlocked skill groups, per-skill levels, and unspent
// points. Mutated only through the skill message handlers.
type SkillSet struct {
	Groups  map[SkillGroupID]bool
	Skills  map[SkillID]uint16
	Points  uint16
}

func NewSkillSet() SkillSet {
	return SkillSet{
		Groups: map[SkillGroupID]bool{"general": true},
		Skills: make(map[SkillID]uint16),
	}
}

func (s *SkillSet) UnlockGroup(g SkillGroupID) {
	s.Groups[g] = true
}

// Unlock spends one point to raise the skill by a level. The skill's group
// must already be unlocked.
func (s *SkillSet) Unlock(g SkillGroupID, id SkillID) error {
	if !s.Groups[g] {
		return ErrSkillLocked
	}
	if s.Points == 0 {
		return ErrInsufficientPoints
	}
	s.Points--
	s.Skills[id]++
	return nil
}

// Refund returns one level of the skill as an unspent point.
func (s *SkillSet) Refund(id SkillID) error {
	lvl, ok := s.Skills[id]
	if !ok || lvl == 0 {
		return ErrSkillNotKnown
	}
	if lvl == 1 {
		delete(s.Skills, id)
	} else {
		s.Skills[id] = lvl - 1
	}
	s.Points++
	return nil
}
