package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "github.com/quickshareqr/server-go/internal/errors"
	"github.com/quickshareqr/server-go/internal/model"
	"github.com/quickshareqr/server-go/internal/repository"
	"github.com/quickshareqr/server-go/internal/util"
)

// SessionService owns the session lifecycle: creation with a fixed TTL, reads
// that enforce expiry lazily, and append-only file attachment.
type SessionService struct {
	sessionRepo repository.SessionRepository
	ttl         time.Duration
}

func NewSessionService(sessionRepo repository.SessionRepository, ttl time.Duration) *SessionService {
	return &SessionService{
		sessionRepo: sessionRepo,
		ttl:         ttl,
	}
}

func (s *SessionService) Create(ctx context.Context) (*model.Session, error) {
	expiresAt := time.Now().Add(s.ttl)

	session, err := s.sessionRepo.Create(ctx, expiresAt)
	if err != nil {
		return nil, apperrors.Database(fmt.Errorf("create session: %w", err))
	}

	log.Info().
		Str("sessionId", session.ID).
		Time("expiresAt", session.ExpiresAt).
		Msg("session created")

	return session, nil
}

// Get returns the session if it exists and is unexpired. An expired record is
// deleted on the spot and reported as not found, so expiry holds even between
// sweep passes.
func (s *SessionService) Get(ctx context.Context, id string) (*model.Session, error) {
	if !util.IsValidUUID(id) {
		return nil, apperrors.NotFound("Session")
	}

	session, err := s.sessionRepo.FindByID(ctx, id)
	if err != nil {
		return nil, apperrors.Database(fmt.Errorf("find session: %w", err))
	}
	if session == nil {
		return nil, apperrors.NotFound("Session")
	}

	if session.Expired(time.Now()) {
		if err := s.sessionRepo.Delete(ctx, id); err != nil {
			log.Warn().Err(err).Str("sessionId", id).Msg("failed to delete expired session")
		}
		return nil, apperrors.NotFound("Session")
	}

	return session, nil
}

// AppendFiles atomically extends the session's file list with the given batch
// and returns the updated list. The same lazy expiry check as Get applies.
func (s *SessionService) AppendFiles(ctx context.Context, id string, files model.FileList) (model.FileList, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	updated, err := s.sessionRepo.AppendFiles(ctx, id, files)
	if err != nil {
		return nil, apperrors.Database(fmt.Errorf("append files: %w", err))
	}
	if updated == nil {
		// Session raced to expiry between the check and the append.
		return nil, apperrors.NotFound("Session")
	}

	log.Info().
		Str("sessionId", id).
		Int("added", len(files)).
		Int("total", len(updated)).
		Msg("files appended to session")

	return updated, nil
}

// Sweep deletes every session whose TTL has elapsed.
func (s *SessionService) Sweep(ctx context.Context) (int64, error) {
	return s.sessionRepo.DeleteExpired(ctx)
}
