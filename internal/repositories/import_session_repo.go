package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/BradenHooton/roster/internal/database"
	"github.com/BradenHooton/roster/internal/models"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ImportSessionRepository persists imports that are waiting on a duplicate decision.
type ImportSessionRepository struct {
	pool *pgxpool.Pool
}

func NewImportSessionRepository(db *database.DB) *ImportSessionRepository {
	return &ImportSessionRepository{pool: db.Pool}
}

const importSessionColumns = `id::text, owner_id::text, file_name, status, payload, expires_at, created_at, updated_at`

func scanImportSessionRow(row rowScanner) (*models.ImportSession, error) {
	var s models.ImportSession
	var payload []byte

	err := row.Scan(
		&s.ID, &s.OwnerID, &s.FileName, &s.Status, &payload,
		&s.ExpiresAt, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	if err := json.Unmarshal(payload, &s.Payload); err != nil {
		return nil, fmt.Errorf("failed to decode import payload: %w", err)
	}

	return &s, nil
}

// Create stores a pending session and returns it with its generated id.
func (r *ImportSessionRepository) Create(ctx context.Context, s *models.ImportSession) (*models.ImportSession, error) {
	payload, err := json.Marshal(s.Payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode import payload: %w", err)
	}

	query := `
		INSERT INTO import_sessions (owner_id, file_name, status, payload, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + importSessionColumns

	created, err := scanImportSessionRow(r.pool.QueryRow(ctx, query,
		s.OwnerID, s.FileName, models.ImportStatusPending, payload, s.ExpiresAt,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create import session: %w", err)
	}
	return created, nil
}

func (r *ImportSessionRepository) GetByID(ctx context.Context, ownerID, id string) (*models.ImportSession, error) {
	query := `SELECT ` + importSessionColumns + ` FROM import_sessions WHERE id = $1 AND owner_id = $2`

	return scanImportSessionRow(r.pool.QueryRow(ctx, query, id, ownerID))
}

// Close moves a pending session to status. It returns ErrImportSessionClosed
// when the session is no longer pending.
func (r *ImportSessionRepository) Close(ctx context.Context, ownerID, id, status string) error {
	query := `
		UPDATE import_sessions
		SET status = $3, updated_at = $4
		WHERE id = $1 AND owner_id = $2 AND status = 'pending'
	`

	result, err := r.pool.Exec(ctx, query, id, ownerID, status, time.Now())
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrImportSessionClosed
	}
	return nil
}

// DeleteExpired removes sessions whose expiry is before now, whatever their status.
func (r *ImportSessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `DELETE FROM import_sessions WHERE expires_at < $1`

	result, err := r.pool.Exec(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired import sessions: %w", err)
	}
	return result.RowsAffected(), nil
}
