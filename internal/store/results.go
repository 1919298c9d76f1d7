// internal/store/results.go
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"matching-workers/internal/models"
)

// WriteCounts reports the rows written by one result persistence call.
type WriteCounts struct {
	MatchRows     int `json:"matchRows"`
	UnmatchedRows int `json:"unmatchedRows"`
}

// DiscardCounts reports the rows removed ahead of a re-run.
type DiscardCounts struct {
	MatchRows     int64 `json:"matchRows"`
	UnmatchedRows int64 `json:"unmatchedRows"`
}

// WriteRunResult persists one run transactionally. Each match is stored as
// two directed rows, one per participant, so "who is X matched with" is a
// single-key lookup from either side. Either every row lands or none do;
// a half-written run would break the one-match-per-participant guarantee
// downstream readers rely on.
func WriteRunResult(ctx context.Context, db *sql.DB, runID, populationID string, result *models.RunResult) (*WriteCounts, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin result transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	counts := &WriteCounts{}

	for _, m := range result.Matches {
		for _, dir := range [2][2]string{{m.AID, m.BID}, {m.BID, m.AID}} {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO matches (run_id, population_id, participant_id, partner_id, pair_score, created_at)
				VALUES ($1, $2, $3, $4, $5, $6)`,
				runID, populationID, dir[0], dir[1], m.Score, now); err != nil {
				return nil, fmt.Errorf("insert match %s-%s: %w", dir[0], dir[1], err)
			}
			counts.MatchRows++
		}
	}

	for _, u := range result.Unmatched {
		var bestScore sql.NullFloat64
		if u.BestScore != nil {
			bestScore = sql.NullFloat64{Float64: *u.BestScore, Valid: true}
		}
		var bestPartner sql.NullString
		if u.BestPartnerID != "" {
			bestPartner = sql.NullString{String: u.BestPartnerID, Valid: true}
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO unmatched_records (run_id, population_id, participant_id, reason, best_score, best_partner_id, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			runID, populationID, u.ParticipantID, string(u.Reason), bestScore, bestPartner, now); err != nil {
			return nil, fmt.Errorf("insert unmatched record for %s: %w", u.ParticipantID, err)
		}
		counts.UnmatchedRows++
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit result transaction: %w", err)
	}

	return counts, nil
}

// DiscardMatches removes every stored result for a population. Admin-driven
// re-runs call this before writing their own rows.
func DiscardMatches(ctx context.Context, db *sql.DB, populationID string) (*DiscardCounts, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin discard transaction: %w", err)
	}
	defer tx.Rollback()

	counts := &DiscardCounts{}

	res, err := tx.ExecContext(ctx, `DELETE FROM matches WHERE population_id = $1`, populationID)
	if err != nil {
		return nil, fmt.Errorf("delete matches: %w", err)
	}
	counts.MatchRows, _ = res.RowsAffected()

	res, err = tx.ExecContext(ctx, `DELETE FROM unmatched_records WHERE population_id = $1`, populationID)
	if err != nil {
		return nil, fmt.Errorf("delete unmatched records: %w", err)
	}
	counts.UnmatchedRows, _ = res.RowsAffected()

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit discard transaction: %w", err)
	}

	return counts, nil
}
