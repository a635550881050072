package repository

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mdfarid01/RapidTrack/internal/domain"
)

type activityRepository struct {
	pool *pgxpool.Pool
}

// NewActivityRepository returns a Postgres-backed implementation.
func NewActivityRepository(pool *pgxpool.Pool) ActivityRepository {
	return &activityRepository{pool: pool}
}

func (r *activityRepository) Create(ctx context.Context, activity *domain.Activity) error {
	detail, err := json.Marshal(activity.Detail)
	if err != nil {
		return err
	}
	const query = `
        INSERT INTO activities (id, issue_id, actor_id, kind, detail, created_at)
        VALUES ($1,$2,$3,$4,$5,$6)`

	_, err = r.pool.Exec(ctx, query,
		activity.ID,
		activity.IssueID,
		activity.ActorID,
		activity.Kind,
		detail,
		activity.CreatedAt,
	)
	return err
}

func (r *activityRepository) ListByIssue(ctx context.Context, issueID string) ([]domain.Activity, error) {
	// seq is a bigserial; it breaks created_at ties by insertion order.
	const query = `
        SELECT id, issue_id, actor_id, kind, detail, created_at
        FROM activities WHERE issue_id=$1 ORDER BY created_at, seq`

	rows, err := r.pool.Query(ctx, query, issueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanActivities(rows)
}

func (r *activityRepository) ListRecent(ctx context.Context, limit int) ([]domain.Activity, error) {
	if limit <= 0 {
		limit = 20
	}
	const query = `
        SELECT id, issue_id, actor_id, kind, detail, created_at
        FROM activities ORDER BY created_at DESC, seq DESC LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanActivities(rows)
}

func scanActivities(rows pgx.Rows) ([]domain.Activity, error) {
	var result []domain.Activity
	for rows.Next() {
		var (
			activity domain.Activity
			detail   []byte
		)
		if err := rows.Scan(
			&activity.ID,
			&activity.IssueID,
			&activity.ActorID,
			&activity.Kind,
			&detail,
			&activity.CreatedAt,
		); err != nil {
			return nil, err
		}
		if len(detail) > 0 {
			if err := json.Unmarshal(detail, &activity.Detail); err != nil {
				return nil, err
			}
		}
		result = append(result, activity)
	}
	return result, rows.Err()
}
