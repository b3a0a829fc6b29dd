package rtsim

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/emberwild/server/internal/comp"
)

// Generation is seed-deterministic: the same seed always reconstructs the
// same body, loadout, level and name, so entities persist as a seed plus
// mutable travel state. The salts are versioned; bumping genVersion
// invalidates existing saves, so it only moves with a world wipe.
const genVersion uint64 = 1

const (
	saltSpecies uint64 = 0x9e3779b97f4a7c15*genVersion + 1
	saltBody    uint64 = 0x9e3779b97f4a7c15*genVersion + 2
	saltLoadout uint64 = 0x9e3779b97f4a7c15*genVersion + 3
	saltLevel   uint64 = 0x9e3779b97f4a7c15*genVersion + 4
	saltGenus   uint64 = 0x9e3779b97f4a7c15*genVersion + 5
)

// mix is splitmix64, good enough to decorrelate seed+salt draws.
func mix(seed, salt uint64) uint64 {
	z := seed + salt*0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

//go:embed names.yaml
var namesRaw []byte

type nameTables struct {
	First []string `yaml:"first"`
	Last  []string `yaml:"last"`
}

var names nameTables

func init() {
	if err := yaml.Unmarshal(namesRaw, &names); err != nil {
		panic(fmt.Sprintf("rtsim: bad names.yaml: %v", err))
	}
}

// GenBody derives the entity's body from its seed. Airship bodies appear
// only when enabled; with the flag off those seeds fall back to birds.
func GenBody(seed uint64, airships bool) comp.Body {
	genus := mix(seed, saltGenus) % 100
	species := uint32(mix(seed, saltSpecies) % 8)
	var b comp.Body
	switch {
	case genus < 55:
		b = comp.HumanoidBody(species)
	case genus < 80:
		b = comp.Body{Kind: comp.BodyQuadruped, Species: species, Radius: 0.6, Height: 1.1}
	case genus < 92:
		b = comp.Body{Kind: comp.BodyBird, Species: species, Radius: 0.3, Height: 0.6}
	case genus < 97:
		b = comp.Body{Kind: comp.BodyShip, Species: species, Radius: 3.0, Height: 4.0}
	default:
		if airships {
			b = comp.Body{Kind: comp.BodyAirship, Species: species, Radius: 4.0, Height: 6.0}
		} else {
			b = comp.Body{Kind: comp.BodyBird, Species: species, Radius: 0.3, Height: 0.6}
		}
	}
	// Individual build spread, 0.90x to 1.10x, from its own salt so two
	// same-species entities still differ.
	scale := 0.9 + float64(mix(seed, saltBody)%21)/100
	b.Radius *= scale
	b.Height *= scale
	return b
}

// GenLoadout derives the equipped tool. Non-humanoids carry nothing.
func GenLoadout(seed uint64, body comp.Body) comp.Loadout {
	var l comp.Loadout
	if body.Kind != comp.BodyHumanoid {
		return l
	}
	tools := []comp.ToolKind{comp.ToolSword, comp.ToolAxe, comp.ToolHammer, comp.ToolBow, comp.ToolStaff}
	tool := tools[mix(seed, saltLoadout)%uint64(len(tools))]
	l.Equip(comp.SlotMainhand, &comp.Item{
		ID:     fmt.Sprintf("tool.%d", tool),
		Name:   "worn tool",
		Kind:   comp.ItemTool,
		Tool:   tool,
		Amount: 1,
	})
	return l
}

// GenLevel derives level in [1, 30].
func GenLevel(seed uint64) uint32 {
	return uint32(mix(seed, saltLevel)%30) + 1
}

// GenName derives a two-part display name.
func GenName(seed uint64) string {
	h := mix(seed, saltGenus)
	first := names.First[h%uint64(len(names.First))]
	last := names.Last[(h>>16)%uint64(len(names.Last))]
	return first + " " + last
}

// GenStats bundles the derived progression for promotion.
func GenStats(seed uint64) comp.Stats {
	s := comp.NewStats(GenName(seed))
	s.Level = GenLevel(seed)
	return s
}

// GenHealth scales maximum health with derived level.
func GenHealth(seed uint64) comp.Health {
	return comp.NewHealth(80 + GenLevel(seed)*12)
}
