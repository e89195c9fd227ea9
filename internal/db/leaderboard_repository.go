package db

import (
	"context"
	"fmt"
	"time"

	"github.com/molinet/emberfall/internal/model"
)

// LeaderboardRepository persists ranking snapshots. The table mirrors
// the in-memory snapshot: replaced wholesale, never patched.
type LeaderboardRepository struct {
	db *DB
}

// NewLeaderboardRepository creates a leaderboard repository.
func NewLeaderboardRepository(db *DB) *LeaderboardRepository {
	return &LeaderboardRepository{db: db}
}

// Replace swaps the stored snapshot for the given one.
func (r *LeaderboardRepository) Replace(ctx context.Context, entries []model.LeaderboardEntry) error {
	tx, err := r.db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin leaderboard replace: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM leaderboard`); err != nil {
		return fmt.Errorf("clearing leaderboard: %w", err)
	}

	now := time.Now()
	for _, e := range entries {
		_, err := tx.Exec(ctx,
			`INSERT INTO leaderboard (rank, player_id, name, level, experience, job_name, refreshed_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			e.Rank, e.PlayerID, e.Name, e.Level, e.Experience, e.JobName, now,
		)
		if err != nil {
			return fmt.Errorf("inserting leaderboard rank %d: %w", e.Rank, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit leaderboard replace: %w", err)
	}
	return nil
}

// Load reads the stored snapshot in rank order.
func (r *LeaderboardRepository) Load(ctx context.Context) ([]model.LeaderboardEntry, error) {
	rows, err := r.db.pool.Query(ctx,
		`SELECT rank, player_id, name, level, experience, job_name
		 FROM leaderboard ORDER BY rank`)
	if err != nil {
		return nil, fmt.Errorf("querying leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []model.LeaderboardEntry
	for rows.Next() {
		var e model.LeaderboardEntry
		if err := rows.Scan(&e.Rank, &e.PlayerID, &e.Name, &e.Level, &e.Experience, &e.JobName); err != nil {
			return nil, fmt.Errorf("scanning leaderboard row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
