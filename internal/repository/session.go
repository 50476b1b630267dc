package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/quickshareqr/server-go/internal/model"
)

type SessionRepository interface {
	FindByID(ctx context.Context, id string) (*model.Session, error)
	Create(ctx context.Context, expiresAt time.Time) (*model.Session, error)
	// AppendFiles extends the session's file list in the order given and
	// returns the updated list. It returns (nil, nil) when the session is
	// missing or already expired.
	AppendFiles(ctx context.Context, id string, files model.FileList) (model.FileList, error)
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context) (int64, error)
}

// sessionDB is an interface satisfied by both *sqlx.DB and *sqlx.Tx
type sessionDB interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

type sessionRepo struct {
	db sessionDB
}

func NewSessionRepository(db *sqlx.DB) SessionRepository {
	return &sessionRepo{db: db}
}

func (r *sessionRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	var session model.Session
	err := r.db.GetContext(ctx, &session, `
		SELECT * FROM sessions WHERE id = $1
	`, id)
	return HandleNotFound(&session, err)
}

func (r *sessionRepo) Create(ctx context.Context, expiresAt time.Time) (*model.Session, error) {
	var session model.Session
	err := r.db.GetContext(ctx, &session, `
		INSERT INTO sessions (expires_at)
		VALUES ($1)
		RETURNING *
	`, expiresAt)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// AppendFiles concatenates onto the JSONB array in a single UPDATE, so two
// concurrent appends to the same session serialize on the row lock and neither
// batch is lost or interleaved.
func (r *sessionRepo) AppendFiles(ctx context.Context, id string, files model.FileList) (model.FileList, error) {
	var updated model.FileList
	err := r.db.GetContext(ctx, &updated, `
		UPDATE sessions SET
			files = files || $2::jsonb,
			updated_at = now()
		WHERE id = $1 AND expires_at > now()
		RETURNING files
	`, id, files)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *sessionRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM sessions WHERE id = $1
	`, id)
	return err
}

func (r *sessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM sessions WHERE expires_at < now()
	`)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
