package systems

import (
	"testing"
	"time"

	"github.com/emberwild/server/internal/charstate"
	"github.com/emberwild/server/internal/comp"
	"github.com/emberwild/server/internal/core/ecs"
	"github.com/emberwild/server/internal/sim"
	"github.com/emberwild/server/internal/vmath"
)

// spawnCharacter builds the full component set the character system joins.
func spawnCharacter(rs *sim.Resources) ecs.Entity {
	e := rs.World.CreateEntity()
	st := rs.Stores
	st.Pos.Set(e, &comp.Pos{P: vmath.Vec3{Z: 32}})
	st.Vel.Set(e, &comp.Vel{})
	st.Ori.Set(e, &comp.Ori{Q: vmath.QuatIdentity()})
	st.PhysState.Set(e, &comp.PhysicsState{OnGround: true})
	h := comp.NewHealth(100)
	st.Health.Set(e, &h)
	en := comp.NewEnergy(100)
	st.Energy.Set(e, &en)
	p := comp.NewPoise(100)
	st.Poise.Set(e, &p)
	st.Controller.Set(e, &comp.Controller{})
	ch := charstate.NewCharacter()
	st.Character.Set(e, &ch)
	return e
}

func TestEnergyRegenCarriesFractions(t *testing.T) {
	rs := testResources()
	sys := NewCharacter(rs)
	e := spawnCharacter(rs)

	rs.Stores.Energy.Mutate(e, func(en *comp.Energy) { en.Current = 50 })

	// Regen 10/s at 33ms ticks is 0.33 per tick: single ticks must not
	// round to zero forever.
	for i := 0; i < 30; i++ {
		sys.Update(33 * time.Millisecond)
	}
	en, _ := rs.Stores.Energy.Get(e)
	if en.Current < 58 || en.Current > 60 {
		t.Fatalf("energy after ~1s of regen = %d, want ~59-60", en.Current)
	}
}

func TestRegenStopsAtMaximum(t *testing.T) {
	rs := testResources()
	sys := NewCharacter(rs)
	e := spawnCharacter(rs)

	for i := 0; i < 10; i++ {
		sys.Update(33 * time.Millisecond)
	}
	if en, _ := rs.Stores.Energy.Get(e); en.Current != en.Maximum {
		t.Fatalf("full energy drifted: %d/%d", en.Current, en.Maximum)
	}
}

func TestPoiseBreakStuns(t *testing.T) {
	rs := testResources()
	sys := NewCharacter(rs)
	e := spawnCharacter(rs)

	rs.Stores.Poise.Mutate(e, func(p *comp.Poise) { p.Current = 0 })
	sys.Update(33 * time.Millisecond)

	ch, _ := rs.Stores.Character.Get(e)
	st, ok := ch.State.(*charstate.Stunned)
	if !ok {
		t.Fatalf("broken poise state = %T, want *Stunned", ch.State)
	}
	if st.WasWielded {
		t.Fatal("idle character stunned as wielded")
	}
	if p, _ := rs.Stores.Poise.Get(e); p.Current != p.Maximum {
		t.Fatalf("poise not refilled after break: %d", p.Current)
	}
}

func TestDeadCharacterDrainsController(t *testing.T) {
	rs := testResources()
	sys := NewCharacter(rs)
	e := spawnCharacter(rs)

	rs.Stores.Health.Mutate(e, func(h *comp.Health) {
		h.Current = 0
		h.IsDead = true
	})
	rs.Stores.Controller.Mutate(e, func(c *comp.Controller) {
		c.PushEvent(comp.ControlEvent{Kind: comp.ControlToggleWield})
		c.PushAction(comp.ControlAction{Kind: comp.ActionPrimary})
	})
	sys.Update(33 * time.Millisecond)

	ctrl, _ := rs.Stores.Controller.Get(e)
	if len(ctrl.Events) != 0 || len(ctrl.Actions) != 0 {
		t.Fatal("dead character kept buffered control input")
	}
	if ctrl.Inputs.Wield {
		t.Fatal("dead character processed toggle_wield")
	}
	if ch, _ := rs.Stores.Character.Get(e); charstate.Name(ch.State) != "idle" {
		t.Fatalf("dead character advanced its state to %s", charstate.Name(ch.State))
	}
}

func TestToggleWieldControlEvent(t *testing.T) {
	rs := testResources()
	sys := NewCharacter(rs)
	e := spawnCharacter(rs)

	rs.Stores.Controller.Mutate(e, func(c *comp.Controller) {
		c.PushEvent(comp.ControlEvent{Kind: comp.ControlToggleWield})
	})
	sys.Update(33 * time.Millisecond)

	if ctrl, _ := rs.Stores.Controller.Get(e); !ctrl.Inputs.Wield {
		t.Fatal("toggle_wield did not flip the wield input")
	}
}

func TestBufferedPressFiresWithinTick(t *testing.T) {
	rs := testResources()
	sys := NewCharacter(rs)
	e := spawnCharacter(rs)

	var l comp.Loadout
	l.Equip(comp.SlotMainhand, &comp.Item{ID: "sword", Kind: comp.ItemTool, Tool: comp.ToolSword})
	rs.Stores.Loadout.Set(e, &l)
	ch := charstate.NewCharacter()
	ch.State = &charstate.Wielding{}
	rs.Stores.Character.Set(e, &ch)

	// The press was released before the tick; only the buffered action
	// remains.
	rs.Stores.Controller.Mutate(e, func(c *comp.Controller) {
		c.PushAction(comp.ControlAction{Kind: comp.ActionPrimary})
	})
	sys.Update(33 * time.Millisecond)

	got, _ := rs.Stores.Character.Get(e)
	if _, ok := got.State.(*charstate.ComboMelee); !ok {
		t.Fatalf("buffered primary press gave %s, want combo_melee", charstate.Name(got.State))
	}
	ctrl, _ := rs.Stores.Controller.Get(e)
	if len(ctrl.Actions) != 0 {
		t.Fatal("live tick left actions buffered")
	}
	if ctrl.Inputs.Primary {
		t.Fatal("buffered action leaked into the persistent inputs")
	}
}

func TestSwapLoadoutControlEvent(t *testing.T) {
	rs := testResources()
	sys := NewCharacter(rs)
	e := spawnCharacter(rs)

	sword := &comp.Item{ID: "sword", Kind: comp.ItemTool, Tool: comp.ToolSword}
	bow := &comp.Item{ID: "bow", Kind: comp.ItemTool, Tool: comp.ToolBow}
	var l comp.Loadout
	l.Equip(comp.SlotMainhand, sword)
	l.Equip(comp.SlotOffhand, bow)
	rs.Stores.Loadout.Set(e, &l)

	rs.Stores.Controller.Mutate(e, func(c *comp.Controller) {
		c.PushEvent(comp.ControlEvent{Kind: comp.ControlSwapLoadout})
	})
	sys.Update(33 * time.Millisecond)

	got, _ := rs.Stores.Loadout.Get(e)
	if got.Equipped(comp.SlotMainhand) != bow || got.Equipped(comp.SlotOffhand) != sword {
		t.Fatal("swap_loadout did not exchange mainhand and offhand")
	}
}
