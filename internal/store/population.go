// internal/store/population.go
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"matching-workers/internal/models"
)

// LoadPopulation reads the materialized, decrypted questionnaire snapshot
// for one population. The surrounding application owns writing these rows;
// this side only ever reads them. Rows are ordered by participant id so a
// reload of the same population yields the same slice.
func LoadPopulation(ctx context.Context, db *sql.DB, populationID string) ([]models.Participant, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT participant_id, gender, interested_in, responses
		FROM population_members
		WHERE population_id = $1
		ORDER BY participant_id`, populationID)
	if err != nil {
		return nil, fmt.Errorf("query population %s: %w", populationID, err)
	}
	defer rows.Close()

	var participants []models.Participant
	for rows.Next() {
		var (
			p            models.Participant
			interestedIn []byte
			responses    []byte
		)
		if err := rows.Scan(&p.ID, &p.Gender, &interestedIn, &responses); err != nil {
			return nil, fmt.Errorf("scan population member: %w", err)
		}
		if err := json.Unmarshal(interestedIn, &p.InterestedIn); err != nil {
			return nil, fmt.Errorf("participant %s: parse interested_in: %w", p.ID, err)
		}
		if err := json.Unmarshal(responses, &p.Responses); err != nil {
			return nil, fmt.Errorf("participant %s: parse responses: %w", p.ID, err)
		}
		participants = append(participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read population %s: %w", populationID, err)
	}

	return participants, nil
}
