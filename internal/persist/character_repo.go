package persist

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/emberwild/server/internal/comp"
	"github.com/emberwild/server/internal/vmath"
)

// CharacterRow mirrors the characters table. Skills, inventory and loadout
// live in JSONB columns so item and skill shapes can evolve without
// migrations.
type CharacterRow struct {
	ID          int32
	AccountName string
	Alias       string
	BodyKind    int16
	Species     int16
	Level       int32
	Exp         int64
	SkillPoints int32
	Health      float32
	Pos         vmath.Vec3
	Waypoint    *vmath.Vec3
	Skills      comp.SkillSet
	Inventory   []comp.Item
	Loadout     []*comp.Item
}

type CharacterRepo struct {
	db *DB
}

func NewCharacterRepo(db *DB) *CharacterRepo {
	return &CharacterRepo{db: db}
}

func (r *CharacterRepo) LoadByAccount(ctx context.Context, accountName string) ([]CharacterRow, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT id, account_name, alias, body_kind, species, level, exp, skill_points, health,
		        pos_x, pos_y, pos_z, waypoint_x, waypoint_y, waypoint_z,
		        skills, inventory, loadout
		 FROM characters
		 WHERE account_name = $1 AND deleted_at IS NULL
		 ORDER BY id`, accountName,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []CharacterRow
	for rows.Next() {
		c, err := scanCharacter(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *c)
	}
	return result, rows.Err()
}

func (r *CharacterRepo) LoadByID(ctx context.Context, id int32) (*CharacterRow, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT id, account_name, alias, body_kind, species, level, exp, skill_points, health,
		        pos_x, pos_y, pos_z, waypoint_x, waypoint_y, waypoint_z,
		        skills, inventory, loadout
		 FROM characters WHERE id = $1 AND deleted_at IS NULL`, id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return scanCharacter(rows)
}

func scanCharacter(rows pgx.Rows) (*CharacterRow, error) {
	c := &CharacterRow{}
	var wx, wy, wz *float64
	var skillsRaw, invRaw, loadoutRaw []byte
	if err := rows.Scan(
		&c.ID, &c.AccountName, &c.Alias, &c.BodyKind, &c.Species,
		&c.Level, &c.Exp, &c.SkillPoints, &c.Health,
		&c.Pos.X, &c.Pos.Y, &c.Pos.Z, &wx, &wy, &wz,
		&skillsRaw, &invRaw, &loadoutRaw,
	); err != nil {
		return nil, err
	}
	if wx != nil && wy != nil && wz != nil {
		c.Waypoint = &vmath.Vec3{X: *wx, Y: *wy, Z: *wz}
	}
	if err := json.Unmarshal(skillsRaw, &c.Skills); err != nil {
		return nil, err
	}
	if c.Skills.Groups == nil {
		c.Skills = comp.NewSkillSet()
	}
	if err := json.Unmarshal(invRaw, &c.Inventory); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(loadoutRaw, &c.Loadout); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *CharacterRepo) Create(ctx context.Context, c *CharacterRow) error {
	skills, inv, loadout, err := marshalBlobs(c)
	if err != nil {
		return err
	}
	return r.db.Pool.QueryRow(ctx,
		`INSERT INTO characters (
			account_name, alias, body_kind, species, level, exp, skill_points, health,
			pos_x, pos_y, pos_z, skills, inventory, loadout
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		RETURNING id`,
		c.AccountName, c.Alias, c.BodyKind, c.Species, c.Level, c.Exp, c.SkillPoints, c.Health,
		c.Pos.X, c.Pos.Y, c.Pos.Z, skills, inv, loadout,
	).Scan(&c.ID)
}

// Save writes back everything the simulation mutates: progression,
// health, position, waypoint and the JSONB blobs.
func (r *CharacterRepo) Save(ctx context.Context, c *CharacterRow) error {
	skills, inv, loadout, err := marshalBlobs(c)
	if err != nil {
		return err
	}
	var wx, wy, wz *float64
	if c.Waypoint != nil {
		wx, wy, wz = &c.Waypoint.X, &c.Waypoint.Y, &c.Waypoint.Z
	}
	_, err = r.db.Pool.Exec(ctx,
		`UPDATE characters SET
			level = $1, exp = $2, skill_points = $3, health = $4,
			pos_x = $5, pos_y = $6, pos_z = $7,
			waypoint_x = $8, waypoint_y = $9, waypoint_z = $10,
			skills = $11, inventory = $12, loadout = $13
		WHERE id = $14`,
		c.Level, c.Exp, c.SkillPoints, c.Health,
		c.Pos.X, c.Pos.Y, c.Pos.Z,
		wx, wy, wz,
		skills, inv, loadout, c.ID,
	)
	return err
}

func marshalBlobs(c *CharacterRow) (skills, inv, loadout []byte, err error) {
	if skills, err = json.Marshal(c.Skills); err != nil {
		return
	}
	if c.Inventory == nil {
		c.Inventory = []comp.Item{}
	}
	if inv, err = json.Marshal(c.Inventory); err != nil {
		return
	}
	if c.Loadout == nil {
		c.Loadout = []*comp.Item{}
	}
	loadout, err = json.Marshal(c.Loadout)
	return
}

func (r *CharacterRepo) AliasExists(ctx context.Context, alias string) (bool, error) {
	var exists bool
	err := r.db.Pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM characters WHERE alias = $1)`, alias,
	).Scan(&exists)
	return exists, err
}

func (r *CharacterRepo) CountByAccount(ctx context.Context, accountName string) (int, error) {
	var count int
	err := r.db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM characters WHERE account_name = $1 AND deleted_at IS NULL`,
		accountName,
	).Scan(&count)
	return count, err
}

func (r *CharacterRepo) SoftDelete(ctx context.Context, id int32) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE characters SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`,
		id,
	)
	return err
}

// ErrCharacterNotFound reports a lookup that matched no live row.
var ErrCharacterNotFound = errors.New("character not found")
