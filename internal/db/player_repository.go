package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/molinet/emberfall/internal/model"
)

// PlayerRepository persists character state.
type PlayerRepository struct {
	db *DB
}

// NewPlayerRepository creates a player repository.
func NewPlayerRepository(db *DB) *PlayerRepository {
	return &PlayerRepository{db: db}
}

// LoadByName loads a character by name. Returns nil, nil if not found.
func (r *PlayerRepository) LoadByName(ctx context.Context, name string) (*model.Player, error) {
	var p model.Player
	err := r.db.pool.QueryRow(ctx,
		`SELECT player_id, name, job, level, experience, hp, max_hp, mp, max_mp, x, y, banned
		 FROM characters WHERE name = $1`, name,
	).Scan(&p.ID, &p.Name, &p.Job, &p.Level, &p.Experience,
		&p.HP, &p.MaxHP, &p.MP, &p.MaxMP, &p.Pos.X, &p.Pos.Y, &p.Banned)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying character %q: %w", name, err)
	}
	return &p, nil
}

// MaxID returns the highest persisted character identifier, 0 when no
// characters exist. Used to seed the live ID allocator on startup.
func (r *PlayerRepository) MaxID(ctx context.Context) (uint32, error) {
	var id uint32
	err := r.db.pool.QueryRow(ctx,
		`SELECT COALESCE(MAX(player_id), 0) FROM characters`,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("querying max character id: %w", err)
	}
	return id, nil
}

// Upsert writes one character row, inserting on first save.
func (r *PlayerRepository) Upsert(ctx context.Context, account string, p model.Player) error {
	_, err := r.db.pool.Exec(ctx, upsertCharacterSQL,
		p.ID, account, p.Name, p.Job, p.Level, p.Experience,
		p.HP, p.MaxHP, p.MP, p.MaxMP, p.Pos.X, p.Pos.Y, p.Banned, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("upserting character %d: %w", p.ID, err)
	}
	return nil
}

// SaveAll writes a batch of characters in a single transaction.
// Either every row lands or none.
func (r *PlayerRepository) SaveAll(ctx context.Context, accounts map[uint32]string, players []model.Player) error {
	if len(players) == 0 {
		return nil
	}

	tx, err := r.db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin character batch: %w", err)
	}
	defer tx.Rollback(ctx)

	now := time.Now()
	for _, p := range players {
		_, err := tx.Exec(ctx, upsertCharacterSQL,
			p.ID, accounts[p.ID], p.Name, p.Job, p.Level, p.Experience,
			p.HP, p.MaxHP, p.MP, p.MaxMP, p.Pos.X, p.Pos.Y, p.Banned, now,
		)
		if err != nil {
			return fmt.Errorf("saving character %d: %w", p.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit character batch: %w", err)
	}
	return nil
}

const upsertCharacterSQL = `
	INSERT INTO characters (player_id, account, name, job, level, experience,
	                        hp, max_hp, mp, max_mp, x, y, banned, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	ON CONFLICT (player_id) DO UPDATE SET
		job = EXCLUDED.job,
		level = EXCLUDED.level,
		experience = EXCLUDED.experience,
		hp = EXCLUDED.hp,
		max_hp = EXCLUDED.max_hp,
		mp = EXCLUDED.mp,
		max_mp = EXCLUDED.max_mp,
		x = EXCLUDED.x,
		y = EXCLUDED.y,
		banned = EXCLUDED.banned,
		updated_at = EXCLUDED.updated_at`
