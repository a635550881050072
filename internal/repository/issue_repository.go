package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mdfarid01/RapidTrack/internal/domain"
)

type issueRepository struct {
	pool *pgxpool.Pool
}

// NewIssueRepository returns a Postgres-backed implementation.
func NewIssueRepository(pool *pgxpool.Pool) IssueRepository {
	return &issueRepository{pool: pool}
}

const issueColumns = `id, title, description, department, status, priority,
               reporter_id, assignee_id, is_escalated, sla_status, due_by, created_at, updated_at`

func (r *issueRepository) Create(ctx context.Context, issue *domain.Issue) error {
	const query = `
        INSERT INTO issues (id, title, description, department, status, priority,
            reporter_id, assignee_id, is_escalated, sla_status, due_by, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`

	_, err := r.pool.Exec(ctx, query,
		issue.ID,
		issue.Title,
		issue.Description,
		issue.Department,
		issue.Status,
		issue.Priority,
		issue.ReporterID,
		issue.AssigneeID,
		issue.IsEscalated,
		issue.SLAStatus,
		issue.DueBy,
		issue.CreatedAt,
		issue.UpdatedAt,
	)
	return err
}

func (r *issueRepository) Update(ctx context.Context, issue *domain.Issue) error {
	const query = `
        UPDATE issues SET department=$1, status=$2, assignee_id=$3, is_escalated=$4,
            sla_status=$5, updated_at=$6
        WHERE id=$7`

	cmd, err := r.pool.Exec(ctx, query,
		issue.Department,
		issue.Status,
		issue.AssigneeID,
		issue.IsEscalated,
		issue.SLAStatus,
		issue.UpdatedAt,
		issue.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *issueRepository) AppendComment(ctx context.Context, issueID string, comment *domain.Comment) error {
	const query = `
        INSERT INTO issue_comments (id, issue_id, author_id, author_name, body, created_at)
        VALUES ($1,$2,$3,$4,$5,$6)`

	_, err := r.pool.Exec(ctx, query,
		comment.ID,
		issueID,
		comment.AuthorID,
		comment.AuthorName,
		comment.Body,
		comment.CreatedAt,
	)
	return err
}

func (r *issueRepository) GetByID(ctx context.Context, id string) (*domain.Issue, error) {
	query := fmt.Sprintf(`SELECT %s FROM issues WHERE id=$1`, issueColumns)

	var issue domain.Issue
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&issue.ID,
		&issue.Title,
		&issue.Description,
		&issue.Department,
		&issue.Status,
		&issue.Priority,
		&issue.ReporterID,
		&issue.AssigneeID,
		&issue.IsEscalated,
		&issue.SLAStatus,
		&issue.DueBy,
		&issue.CreatedAt,
		&issue.UpdatedAt,
	); err != nil {
		return nil, err
	}

	comments, err := r.listComments(ctx, id)
	if err != nil {
		return nil, err
	}
	issue.Comments = comments
	return &issue, nil
}

func (r *issueRepository) listComments(ctx context.Context, issueID string) ([]domain.Comment, error) {
	const query = `
        SELECT id, author_id, author_name, body, created_at
        FROM issue_comments WHERE issue_id=$1 ORDER BY created_at, seq`

	rows, err := r.pool.Query(ctx, query, issueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []domain.Comment
	for rows.Next() {
		var comment domain.Comment
		if err := rows.Scan(
			&comment.ID,
			&comment.AuthorID,
			&comment.AuthorName,
			&comment.Body,
			&comment.CreatedAt,
		); err != nil {
			return nil, err
		}
		comments = append(comments, comment)
	}
	return comments, rows.Err()
}

func (r *issueRepository) ListWithFilter(ctx context.Context, filter IssueFilter) ([]domain.Issue, error) {
	base := fmt.Sprintf(`SELECT %s FROM issues`, issueColumns)
	clauses := []string{"1=1"}
	args := []any{}

	if filter.ReporterID != nil {
		args = append(args, *filter.ReporterID)
		clauses = append(clauses, fmt.Sprintf("reporter_id=$%d", len(args)))
	}
	if filter.Department != nil {
		args = append(args, *filter.Department)
		clauses = append(clauses, fmt.Sprintf("department=$%d", len(args)))
	}
	if filter.AssigneeID != nil {
		args = append(args, *filter.AssigneeID)
		clauses = append(clauses, fmt.Sprintf("assignee_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Priorities) > 0 {
		placeholders := make([]string, len(filter.Priorities))
		for i, pr := range filter.Priorities {
			args = append(args, pr)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("priority IN (%s)", strings.Join(placeholders, ",")))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY updated_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanIssues(rows)
}

func (r *issueRepository) ListAll(ctx context.Context) ([]domain.Issue, error) {
	query := fmt.Sprintf(`SELECT %s FROM issues ORDER BY created_at`, issueColumns)

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanIssues(rows)
}

func scanIssues(rows pgx.Rows) ([]domain.Issue, error) {
	var result []domain.Issue
	for rows.Next() {
		var issue domain.Issue
		if err := rows.Scan(
			&issue.ID,
			&issue.Title,
			&issue.Description,
			&issue.Department,
			&issue.Status,
			&issue.Priority,
			&issue.ReporterID,
			&issue.AssigneeID,
			&issue.IsEscalated,
			&issue.SLAStatus,
			&issue.DueBy,
			&issue.CreatedAt,
			&issue.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, issue)
	}
	return result, rows.Err()
}
