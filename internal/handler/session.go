package handler

import (
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/quickshareqr/server-go/internal/archive"
	"github.com/quickshareqr/server-go/internal/config"
	apperrors "github.com/quickshareqr/server-go/internal/errors"
	"github.com/quickshareqr/server-go/internal/model"
	"github.com/quickshareqr/server-go/internal/service"
	"github.com/quickshareqr/server-go/internal/sse"
)

// SessionHandler serves the mobile-to-PC transfer endpoints: session creation,
// session reads, and uploads into a session.
type SessionHandler struct {
	sessions     *service.SessionService
	store        ObjectStore
	broker       *sse.Broker
	uploadDir    string
	maxFileBytes int64
}

func NewSessionHandler(sessions *service.SessionService, store ObjectStore, broker *sse.Broker, uploadDir string, maxFileBytes int64) *SessionHandler {
	return &SessionHandler{
		sessions:     sessions,
		store:        store,
		broker:       broker,
		uploadDir:    uploadDir,
		maxFileBytes: maxFileBytes,
	}
}

// POST /api/create-session
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	session, err := h.sessions.Create(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to create session")
		writeError(w, apperrors.Internal("Failed to create session"))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"sessionId": session.ID,
	})
}

// GET /api/session/{sessionID}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")

	session, err := h.sessions.Get(r.Context(), id)
	if err != nil {
		if apperrors.IsNotFound(err) {
			writeError(w, apperrors.New(apperrors.ErrCodeNotFound, "Session not found or expired"))
			return
		}
		log.Error().Err(err).Str("sessionId", id).Msg("failed to fetch session")
		writeError(w, apperrors.Internal("Error fetching session"))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"session": sessionPayload(session),
	})
}

// POST /api/session/{sessionID}/upload
//
// Each file in the batch is stored independently: an empty file is skipped, a
// failed store upload drops only that file, and the batch succeeds as long as
// at least one file made it. The filesAdded event goes out only after the
// append is durably recorded.
func (h *SessionHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "sessionID")

	if _, err := h.sessions.Get(ctx, id); err != nil {
		if apperrors.IsNotFound(err) {
			writeError(w, apperrors.New(apperrors.ErrCodeNotFound, "Session not found or expired"))
			return
		}
		log.Error().Err(err).Str("sessionId", id).Msg("failed to fetch session")
		writeError(w, apperrors.Internal("Error uploading files to session"))
		return
	}

	if err := r.ParseMultipartForm(config.MultipartMemoryLimit); err != nil {
		writeError(w, apperrors.ValidationError("No files uploaded").WithCause(err))
		return
	}
	defer cleanupForm(r)

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		writeError(w, apperrors.ValidationError("No files uploaded"))
		return
	}
	if len(files) > config.MaxSessionUploadFiles {
		writeError(w, apperrors.InvalidInput("files", fmt.Sprintf("at most %d files per upload", config.MaxSessionUploadFiles)))
		return
	}

	uploaded := make(model.FileList, 0, len(files))
	for _, fh := range files {
		// Empty uploads produce no metadata and no notification.
		if fh.Size == 0 {
			continue
		}
		if fh.Size > h.maxFileBytes {
			log.Warn().Str("file", fh.Filename).Int64("size", fh.Size).Msg("session upload rejected: file too large")
			continue
		}

		meta, err := h.storeOne(r, id, fh)
		if err != nil {
			// One failing file does not abort the rest of the batch.
			log.Error().Err(err).Str("sessionId", id).Str("file", fh.Filename).Msg("session file upload failed")
			continue
		}
		uploaded = append(uploaded, meta)
	}

	if len(uploaded) == 0 {
		writeError(w, apperrors.ValidationError("No valid files were uploaded"))
		return
	}

	if _, err := h.sessions.AppendFiles(ctx, id, uploaded); err != nil {
		if apperrors.IsNotFound(err) {
			writeError(w, apperrors.New(apperrors.ErrCodeNotFound, "Session not found or expired"))
			return
		}
		log.Error().Err(err).Str("sessionId", id).Msg("failed to append files to session")
		writeError(w, apperrors.Internal("Error uploading files to session"))
		return
	}

	event, err := sse.FilesAdded(id, uploaded)
	if err == nil {
		err = h.broker.Publish(ctx, id, event)
	}
	if err != nil {
		// Best-effort channel: clients reconcile via the session read endpoint.
		log.Warn().Err(err).Str("sessionId", id).Msg("failed to publish filesAdded event")
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"files":   uploaded,
	})
}

func (h *SessionHandler) storeOne(r *http.Request, sessionID string, fh *multipart.FileHeader) (model.FileMeta, error) {
	tmpPath, err := spoolUpload(fh, h.uploadDir)
	if err != nil {
		return model.FileMeta{}, err
	}
	// The local copy goes away whether or not the store upload succeeds.
	defer archive.Cleanup(tmpPath)

	fileID := uuid.NewString()
	key := fmt.Sprintf("sessions/%s/%s", sessionID, fileID)
	contentType := contentTypeFor(fh)

	url, size, err := uploadFromFile(r.Context(), h.store, key, tmpPath, contentType)
	if err != nil {
		return model.FileMeta{}, err
	}

	return model.FileMeta{
		ID:   fileID,
		Name: fh.Filename,
		Type: contentType,
		Size: size,
		URL:  url,
	}, nil
}
