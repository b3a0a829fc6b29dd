package handler

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/emberwild/server/internal/charstate"
	"github.com/emberwild/server/internal/comp"
	"github.com/emberwild/server/internal/core/ecs"
	"github.com/emberwild/server/internal/net"
	"github.com/emberwild/server/internal/persist"
	"github.com/emberwild/server/internal/protocol"
	"github.com/emberwild/server/internal/sim"
	"github.com/emberwild/server/internal/vmath"
)

const dbTimeout = 5 * time.Second

// HandleRegister authenticates the account, loads or creates the named
// character, spawns its entity and moves the session in-world. Accounts
// are auto-created on first login.
func HandleRegister(s *net.Session, raw []byte, rs *sim.Resources) {
	var msg protocol.RegisterMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		registerFail(s, "malformed register")
		return
	}
	if msg.ProtocolVersion != protocol.Version {
		registerFail(s, "protocol version mismatch")
		return
	}
	if msg.Account == "" || msg.Password == "" || msg.CharacterName == "" {
		registerFail(s, "missing credentials")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	acct, err := rs.Accounts.Load(ctx, msg.Account)
	if err != nil {
		rs.Log.Error("account load failed", zap.String("account", msg.Account), zap.Error(err))
		registerFail(s, "internal error")
		return
	}
	if acct == nil {
		acct, err = rs.Accounts.Create(ctx, msg.Account, msg.Password, s.IP)
		if err != nil {
			rs.Log.Error("account create failed", zap.String("account", msg.Account), zap.Error(err))
			registerFail(s, "internal error")
			return
		}
		rs.Log.Info("account created", zap.String("account", msg.Account))
	} else {
		if acct.Banned {
			registerFail(s, "account banned")
			return
		}
		if !rs.Accounts.ValidatePassword(acct.PasswordHash, msg.Password) {
			registerFail(s, "bad credentials")
			return
		}
	}
	_ = rs.Accounts.UpdateLastActive(ctx, acct.Name, s.IP)

	row, err := loadOrCreateCharacter(ctx, rs, acct.Name, msg.CharacterName)
	if err != nil {
		rs.Log.Error("character load failed",
			zap.String("character", msg.CharacterName), zap.Error(err))
		registerFail(s, "internal error")
		return
	}
	if row == nil {
		registerFail(s, "character belongs to another account")
		return
	}

	e := spawnPlayer(rs, s, acct, row)
	uid, _ := rs.Uids.Uid(e)

	s.Account = acct.Name
	s.SetState(net.StateInWorld)
	rs.BindSession(s.ID, e)

	answer, _ := protocol.Encode(protocol.RegisterAnswerMsg{
		Type: protocol.TypeRegisterAnswer,
		Ok:   true,
		Uid:  uint64(uid),
	})
	s.Send(answer)
	rs.Log.Info("player entered world",
		zap.String("account", acct.Name),
		zap.String("character", row.Alias),
		zap.Uint64("uid", uint64(uid)))
}

// loadOrCreateCharacter returns nil when the alias exists under a
// different account.
func loadOrCreateCharacter(ctx context.Context, rs *sim.Resources, account, alias string) (*persist.CharacterRow, error) {
	existing, err := rs.Chars.LoadByAccount(ctx, account)
	if err != nil {
		return nil, err
	}
	for i := range existing {
		if existing[i].Alias == alias {
			return &existing[i], nil
		}
	}
	taken, err := rs.Chars.AliasExists(ctx, alias)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, nil
	}
	row := &persist.CharacterRow{
		AccountName: account,
		Alias:       alias,
		Level:       1,
		Health:      100,
		Pos:         vmath.Vec3{X: 0, Y: 0, Z: 32},
		Skills:      comp.NewSkillSet(),
	}
	if err := rs.Chars.Create(ctx, row); err != nil {
		return nil, err
	}
	return row, nil
}

func spawnPlayer(rs *sim.Resources, s *net.Session, acct *persist.AccountRow, row *persist.CharacterRow) ecs.Entity {
	st := rs.Stores
	e := rs.World.CreateEntity()

	st.Pos.Set(e, &comp.Pos{P: row.Pos})
	st.Vel.Set(e, &comp.Vel{})
	st.Ori.Set(e, &comp.Ori{Q: vmath.QuatIdentity()})
	st.PhysState.Set(e, &comp.PhysicsState{})
	st.Body.Set(e, func() *comp.Body {
		b := comp.HumanoidBody(uint32(row.Species))
		return &b
	}())

	health := comp.NewHealth(100 + uint32(row.Level)*10)
	if row.Health > 0 && uint32(row.Health) < health.Maximum {
		health.Current = uint32(row.Health)
	}
	st.Health.Set(e, &health)
	energy := comp.NewEnergy(100)
	st.Energy.Set(e, &energy)
	poise := comp.NewPoise(100)
	st.Poise.Set(e, &poise)

	stats := comp.NewStats(row.Alias)
	stats.Level = uint32(row.Level)
	stats.Exp = uint32(row.Exp)
	stats.Skills = row.Skills
	stats.Skills.Points = uint16(row.SkillPoints)
	st.Stats.Set(e, &stats)

	inv := comp.NewInventory(36)
	for _, it := range row.Inventory {
		inv.Push(it)
	}
	st.Inventory.Set(e, &inv)

	var loadout comp.Loadout
	for i, it := range row.Loadout {
		if it != nil && i < len(loadout.Slots) {
			loadout.Slots[i] = it
		}
	}
	st.Loadout.Set(e, &loadout)

	st.Controller.Set(e, &comp.Controller{})
	st.Presence.Set(e, &comp.Presence{ViewDistance: 4, Kind: comp.PresenceCharacter})
	st.Player.Set(e, &comp.Player{
		Alias:       row.Alias,
		CharacterID: int64(row.ID),
	})
	ch := charstate.NewCharacter()
	st.Character.Set(e, &ch)
	st.CanBuild.Set(e, &comp.CanBuild{})
	if row.Waypoint != nil {
		st.Waypoint.Set(e, &comp.Waypoint{Pos: *row.Waypoint})
	}

	uid := rs.Uids.Allocate(e)
	st.UidComp.Set(e, &uid)
	return e
}

func registerFail(s *net.Session, reason string) {
	answer, _ := protocol.Encode(protocol.RegisterAnswerMsg{
		Type:  protocol.TypeRegisterAnswer,
		Ok:    false,
		Error: reason,
	})
	s.Send(answer)
}
