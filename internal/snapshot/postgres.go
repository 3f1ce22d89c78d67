// internal/snapshot/postgres.go
package snapshot

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"matching-engine/internal/common/errors"
	"matching-engine/internal/common/logger"
	"matching-engine/internal/models"
)

const (
	requestQuery = `
		SELECT id, category, title, description, required_skills, budget_min, budget_max,
		       estimated_hours, deadline, complexity, urgency, location, on_site_only, created_at
		FROM requests
		WHERE id = $1`

	candidateQuery = `
		SELECT id, skills, experience_years, hourly_rate, available_hours, location,
		       remote_only, completion_rate, average_rating, completed_projects
		FROM candidates
		WHERE id = $1`

	candidatePoolQuery = `
		SELECT c.id, c.skills, c.experience_years, c.hourly_rate, c.available_hours, c.location,
		       c.remote_only, c.completion_rate, c.average_rating, c.completed_projects
		FROM candidates c
		WHERE c.active = true AND $1 = ANY(c.categories)
		ORDER BY c.id`

	interactionsQuery = `
		SELECT user_id, item_id, strength, occurred_at
		FROM interactions
		WHERE occurred_at >= $1
		ORDER BY occurred_at`

	outcomesQuery = `
		SELECT factors, succeeded
		FROM engagement_outcomes
		ORDER BY closed_at`

	requestHistoryQuery = `
		SELECT id, category, created_at
		FROM requests
		WHERE category = $1 AND created_at >= $2
		ORDER BY created_at`

	openRequestsQuery = `
		SELECT id, category, title, description, required_skills, budget_min, budget_max,
		       estimated_hours, deadline, complexity, urgency, location, on_site_only, created_at
		FROM requests
		WHERE category = $1 AND status = 'open'
		ORDER BY created_at DESC`
)

// PostgresSource loads snapshots from the marketplace Postgres store.
// Skill tags and outcome factors live in jsonb columns; required skill
// lists are jsonb arrays of strings.
type PostgresSource struct {
	db     *sql.DB
	logger logger.Logger
}

func NewPostgresSource(db *sql.DB, log logger.Logger) *PostgresSource {
	return &PostgresSource{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "postgres-source"}),
	}
}

func (s *PostgresSource) Request(ctx context.Context, requestID string) (models.RequestSpec, error) {
	row := s.db.QueryRowContext(ctx, requestQuery, requestID)

	req, err := scanRequest(row)
	if err == sql.ErrNoRows {
		return models.RequestSpec{}, errors.NewRequestNotFoundError(requestID)
	}
	if err != nil {
		return models.RequestSpec{}, errors.NewSnapshotLoadFailedError("request", err)
	}
	return req, nil
}

func (s *PostgresSource) Candidate(ctx context.Context, candidateID string) (models.CandidateProfile, error) {
	row := s.db.QueryRowContext(ctx, candidateQuery, candidateID)

	cand, err := scanCandidate(row)
	if err == sql.ErrNoRows {
		return models.CandidateProfile{}, errors.NewCandidateNotFoundError(candidateID)
	}
	if err != nil {
		return models.CandidateProfile{}, errors.NewSnapshotLoadFailedError("candidate", err)
	}
	return cand, nil
}

func (s *PostgresSource) Candidates(ctx context.Context, category string) ([]models.CandidateProfile, error) {
	rows, err := s.db.QueryContext(ctx, candidatePoolQuery, category)
	if err != nil {
		return nil, errors.NewSnapshotLoadFailedError("candidates", err)
	}
	defer rows.Close()

	var pool []models.CandidateProfile
	for rows.Next() {
		cand, err := scanCandidate(rows)
		if err != nil {
			// One corrupt row must not sink the whole pool.
			s.logger.Warn("skipping unreadable candidate row", map[string]interface{}{"error": err.Error()})
			continue
		}
		pool = append(pool, cand)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewSnapshotLoadFailedError("candidates", err)
	}
	return pool, nil
}

func (s *PostgresSource) Interactions(ctx context.Context, lookback time.Duration) ([]models.InteractionRecord, error) {
	since := time.Now().Add(-lookback)
	rows, err := s.db.QueryContext(ctx, interactionsQuery, since)
	if err != nil {
		return nil, errors.NewSnapshotLoadFailedError("interactions", err)
	}
	defer rows.Close()

	var records []models.InteractionRecord
	for rows.Next() {
		var rec models.InteractionRecord
		if err := rows.Scan(&rec.UserID, &rec.ItemID, &rec.Strength, &rec.OccurredAt); err != nil {
			return nil, errors.NewSnapshotLoadFailedError("interactions", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewSnapshotLoadFailedError("interactions", err)
	}
	return records, nil
}

func (s *PostgresSource) Outcomes(ctx context.Context) ([]models.OutcomeRecord, error) {
	rows, err := s.db.QueryContext(ctx, outcomesQuery)
	if err != nil {
		return nil, errors.NewSnapshotLoadFailedError("outcomes", err)
	}
	defer rows.Close()

	var records []models.OutcomeRecord
	for rows.Next() {
		var rec models.OutcomeRecord
		var factorsJSON []byte
		if err := rows.Scan(&factorsJSON, &rec.Succeeded); err != nil {
			return nil, errors.NewSnapshotLoadFailedError("outcomes", err)
		}
		if err := json.Unmarshal(factorsJSON, &rec.Factors); err != nil {
			s.logger.Warn("skipping outcome with unreadable factors", map[string]interface{}{"error": err.Error()})
			continue
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewSnapshotLoadFailedError("outcomes", err)
	}
	return records, nil
}

func (s *PostgresSource) RequestHistory(ctx context.Context, category string, lookback time.Duration) ([]models.RequestSpec, error) {
	since := time.Now().Add(-lookback)
	rows, err := s.db.QueryContext(ctx, requestHistoryQuery, category, since)
	if err != nil {
		return nil, errors.NewSnapshotLoadFailedError("request history", err)
	}
	defer rows.Close()

	var history []models.RequestSpec
	for rows.Next() {
		var req models.RequestSpec
		if err := rows.Scan(&req.ID, &req.Category, &req.CreatedAt); err != nil {
			return nil, errors.NewSnapshotLoadFailedError("request history", err)
		}
		history = append(history, req)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewSnapshotLoadFailedError("request history", err)
	}
	return history, nil
}

func (s *PostgresSource) OpenRequests(ctx context.Context, category string) ([]models.RequestSpec, error) {
	rows, err := s.db.QueryContext(ctx, openRequestsQuery, category)
	if err != nil {
		return nil, errors.NewSnapshotLoadFailedError("open requests", err)
	}
	defer rows.Close()

	var pool []models.RequestSpec
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			s.logger.Warn("skipping unreadable request row", map[string]interface{}{"error": err.Error()})
			continue
		}
		pool = append(pool, req)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewSnapshotLoadFailedError("open requests", err)
	}
	return pool, nil
}

// ==========================================================================
// Row scanning
// ==========================================================================

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRequest(row rowScanner) (models.RequestSpec, error) {
	var req models.RequestSpec
	var skillsJSON []byte
	var deadline sql.NullTime
	var title, description, location sql.NullString

	err := row.Scan(
		&req.ID, &req.Category, &title, &description, &skillsJSON,
		&req.BudgetMin, &req.BudgetMax, &req.EstimatedHours, &deadline,
		&req.Complexity, &req.Urgency, &location, &req.OnSiteOnly, &req.CreatedAt,
	)
	if err != nil {
		return models.RequestSpec{}, err
	}

	req.Title = title.String
	req.Description = description.String
	req.Location = location.String
	if deadline.Valid {
		t := deadline.Time
		req.Deadline = &t
	}
	if len(skillsJSON) > 0 {
		if err := json.Unmarshal(skillsJSON, &req.RequiredSkills); err != nil {
			return models.RequestSpec{}, fmt.Errorf("decode required_skills: %w", err)
		}
	}
	return req, nil
}

func scanCandidate(row rowScanner) (models.CandidateProfile, error) {
	var cand models.CandidateProfile
	var skillsJSON []byte
	var location sql.NullString

	err := row.Scan(
		&cand.ID, &skillsJSON, &cand.ExperienceYears, &cand.HourlyRate,
		&cand.AvailableHours, &location, &cand.RemoteOnly,
		&cand.CompletionRate, &cand.AverageRating, &cand.CompletedProjects,
	)
	if err != nil {
		return models.CandidateProfile{}, err
	}

	cand.Location = location.String
	if len(skillsJSON) > 0 {
		if err := json.Unmarshal(skillsJSON, &cand.Skills); err != nil {
			return models.CandidateProfile{}, fmt.Errorf("decode skills: %w", err)
		}
	}
	return cand, nil
}
