package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/jobsitesnap/rescue-engine/internal/cluster"
	"github.com/jobsitesnap/rescue-engine/internal/config"
)

// Pool manages a PostgreSQL connection pool.
type Pool struct {
	db *sql.DB
}

// NewPool creates a new PostgreSQL connection pool.
func NewPool(cfg *config.DatabaseConfig) (*Pool, error) {
	if cfg.URL == "" {
		return nil, errors.New("database URL is required")
	}

	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(10 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Pool{db: db}, nil
}

// DB returns the underlying sql.DB for direct access.
func (p *Pool) DB() *sql.DB {
	return p.db
}

// Close closes the connection pool.
func (p *Pool) Close() error {
	if p.db != nil {
		if err := p.db.Close(); err != nil {
			return fmt.Errorf("closing database connection: %w", err)
		}
	}
	return nil
}

// Ping verifies the database is reachable.
func (p *Pool) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

// PhotoRepository is the PostgreSQL-backed Store implementation.
type PhotoRepository struct {
	pool *Pool
}

// NewPhotoRepository creates a repository on top of an existing pool.
func NewPhotoRepository(pool *Pool) *PhotoRepository {
	return &PhotoRepository{pool: pool}
}

// Candidates fetches the rescue pool: photos with no project assignment,
// not yet reviewed, and not soft-deleted. Ordering is stable so repeated
// scans over an unchanged library see the same input.
func (r *PhotoRepository) Candidates(ctx context.Context, q CandidateQuery) ([]cluster.CandidatePhoto, error) {
	if q.OrganizationID == "" {
		return nil, errors.New("organization ID is required")
	}

	query := `
		SELECT id, taken_at, created_at, latitude, longitude, gps_accuracy_m
		FROM photos
		WHERE organization_id = $1
		  AND project_id IS NULL
		  AND review_status = 'unreviewed'
		  AND deleted_at IS NULL
		ORDER BY COALESCE(taken_at, created_at), id
		LIMIT $2
	`

	rows, err := r.pool.db.QueryContext(ctx, query, q.OrganizationID, q.Limit)
	if err != nil {
		return nil, fmt.Errorf("querying candidates: %w", err)
	}
	defer rows.Close()

	var photos []cluster.CandidatePhoto
	for rows.Next() {
		var p cluster.CandidatePhoto
		if err := rows.Scan(&p.ID, &p.TakenAt, &p.CreatedAt, &p.Lat, &p.Lng, &p.AccuracyM); err != nil {
			return nil, fmt.Errorf("scanning candidate: %w", err)
		}
		photos = append(photos, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading candidates: %w", err)
	}
	return photos, nil
}

// CountCandidates returns the size of the rescue pool without fetching it.
func (r *PhotoRepository) CountCandidates(ctx context.Context, organizationID string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM photos
		WHERE organization_id = $1
		  AND project_id IS NULL
		  AND review_status = 'unreviewed'
		  AND deleted_at IS NULL
	`

	var count int
	if err := r.pool.db.QueryRowContext(ctx, query, organizationID).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting candidates: %w", err)
	}
	return count, nil
}

// CreateProject creates a project and moves the photos into it in one
// transaction. The UPDATE only touches photos that are still assignable;
// a row-count mismatch means another writer got there first, and the
// whole step rolls back.
func (r *PhotoRepository) CreateProject(ctx context.Context, organizationID, name string, photoIDs []string) (string, error) {
	if len(photoIDs) == 0 {
		return "", errors.New("project needs at least one photo")
	}

	tx, err := r.pool.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	projectID := uuid.NewString()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO projects (id, organization_id, name, created_at)
		VALUES ($1, $2, $3, NOW())
	`, projectID, organizationID, name)
	if err != nil {
		return "", fmt.Errorf("creating project: %w", err)
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE photos
		SET project_id = $1, review_status = 'organized', updated_at = NOW()
		WHERE organization_id = $2
		  AND id = ANY($3)
		  AND project_id IS NULL
		  AND deleted_at IS NULL
	`, projectID, organizationID, pq.Array(photoIDs))
	if err != nil {
		return "", fmt.Errorf("assigning photos: %w", err)
	}

	moved, err := result.RowsAffected()
	if err != nil {
		return "", fmt.Errorf("getting rows affected: %w", err)
	}
	if moved != int64(len(photoIDs)) {
		missing, err := r.unassignable(ctx, tx, organizationID, photoIDs)
		if err != nil {
			return "", err
		}
		return "", &ConflictError{PhotoIDs: missing}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing project: %w", err)
	}
	return projectID, nil
}

// MarkReviewed flags skipped photos so future scans leave them alone.
func (r *PhotoRepository) MarkReviewed(ctx context.Context, organizationID string, photoIDs []string) error {
	if len(photoIDs) == 0 {
		return nil
	}

	_, err := r.pool.db.ExecContext(ctx, `
		UPDATE photos
		SET review_status = 'reviewed', updated_at = NOW()
		WHERE organization_id = $1
		  AND id = ANY($2)
		  AND deleted_at IS NULL
	`, organizationID, pq.Array(photoIDs))
	if err != nil {
		return fmt.Errorf("marking photos reviewed: %w", err)
	}
	return nil
}

// Mark sets or clears the user classification on photos. Deleted photos
// are left alone; assigned and reviewed photos may still be relabeled.
func (r *PhotoRepository) Mark(ctx context.Context, organizationID string, photoIDs []string, classification string) (int, error) {
	if len(photoIDs) == 0 {
		return 0, nil
	}
	if !ValidClassification(classification) {
		return 0, fmt.Errorf("invalid classification %q", classification)
	}

	var label sql.NullString
	if classification != "" {
		label = sql.NullString{String: classification, Valid: true}
	}

	result, err := r.pool.db.ExecContext(ctx, `
		UPDATE photos
		SET user_classification = $3, updated_at = NOW()
		WHERE organization_id = $1
		  AND id = ANY($2)
		  AND deleted_at IS NULL
	`, organizationID, pq.Array(photoIDs), label)
	if err != nil {
		return 0, fmt.Errorf("marking photos: %w", err)
	}

	updated, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("getting rows affected: %w", err)
	}
	return int(updated), nil
}

// Revert undoes an apply: created projects are deleted, their photos go
// back to the unreviewed pool, and reviewed-only photos are reset too.
func (r *PhotoRepository) Revert(ctx context.Context, organizationID string, projectIDs, reviewedPhotoIDs []string) error {
	tx, err := r.pool.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if len(projectIDs) > 0 {
		_, err = tx.ExecContext(ctx, `
			UPDATE photos
			SET project_id = NULL, review_status = 'unreviewed', updated_at = NOW()
			WHERE organization_id = $1 AND project_id = ANY($2)
		`, organizationID, pq.Array(projectIDs))
		if err != nil {
			return fmt.Errorf("releasing photos: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			DELETE FROM projects
			WHERE organization_id = $1 AND id = ANY($2)
		`, organizationID, pq.Array(projectIDs))
		if err != nil {
			return fmt.Errorf("deleting projects: %w", err)
		}
	}

	if len(reviewedPhotoIDs) > 0 {
		_, err = tx.ExecContext(ctx, `
			UPDATE photos
			SET review_status = 'unreviewed', updated_at = NOW()
			WHERE organization_id = $1 AND id = ANY($2) AND project_id IS NULL
		`, organizationID, pq.Array(reviewedPhotoIDs))
		if err != nil {
			return fmt.Errorf("resetting reviewed photos: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing revert: %w", err)
	}
	return nil
}

// unassignable reports which of the requested photos can no longer be
// assigned, for the conflict error detail.
func (r *PhotoRepository) unassignable(ctx context.Context, tx *sql.Tx, organizationID string, photoIDs []string) ([]string, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT id FROM photos
		WHERE organization_id = $1
		  AND id = ANY($2)
		  AND project_id IS NULL
		  AND deleted_at IS NULL
	`, organizationID, pq.Array(photoIDs))
	if err != nil {
		return nil, fmt.Errorf("querying assignable photos: %w", err)
	}
	defer rows.Close()

	assignable := make(map[string]bool, len(photoIDs))
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning photo id: %w", err)
		}
		assignable[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading assignable photos: %w", err)
	}

	var missing []string
	for _, id := range photoIDs {
		if !assignable[id] {
			missing = append(missing, id)
		}
	}
	return missing, nil
}
