package handler

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/quickshareqr/server-go/internal/model"
	"github.com/quickshareqr/server-go/internal/service"
	"github.com/quickshareqr/server-go/internal/sse"
)

// memSessionRepo is an in-memory stand-in for the Postgres-backed repository.
type memSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*model.Session
	deleted  []string
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{sessions: make(map[string]*model.Session)}
}

func (m *memSessionRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	cp.Files = append(model.FileList{}, s.Files...)
	return &cp, nil
}

func (m *memSessionRepo) Create(ctx context.Context, expiresAt time.Time) (*model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	s := &model.Session{
		ID:        uuid.NewString(),
		Files:     model.FileList{},
		ExpiresAt: expiresAt,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.sessions[s.ID] = s
	return s, nil
}

func (m *memSessionRepo) AppendFiles(ctx context.Context, id string, files model.FileList) (model.FileList, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok || s.Expired(time.Now()) {
		return nil, nil
	}
	s.Files = append(s.Files, files...)
	s.UpdatedAt = time.Now()
	return append(model.FileList{}, s.Files...), nil
}

func (m *memSessionRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *memSessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	now := time.Now()
	for id, s := range m.sessions {
		if s.Expired(now) {
			delete(m.sessions, id)
			n++
		}
	}
	return n, nil
}

func (m *memSessionRepo) add(s *model.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
}

// fakeStore records uploads in memory. failWhen lets a test make specific
// uploads fail.
type fakeStore struct {
	mu       sync.Mutex
	objects  map[string][]byte
	failWhen func(key string, data []byte) bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: make(map[string][]byte)}
}

func (s *fakeStore) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	if s.failWhen != nil && s.failWhen(key, data) {
		return "", errors.New("object store unavailable")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	return "https://files.test/" + key, nil
}

func (s *fakeStore) object(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	return data, ok
}

func (s *fakeStore) keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.objects))
	for k := range s.objects {
		out = append(out, k)
	}
	return out
}

// newTestRouter wires handlers the same way main does.
func newTestRouter(repo *memSessionRepo, store ObjectStore, broker *sse.Broker, uploadDir string) http.Handler {
	svc := service.NewSessionService(repo, 10*time.Minute)

	uploadHandler := NewUploadHandler(store, uploadDir, 50<<20)
	sessionHandler := NewSessionHandler(svc, store, broker, uploadDir, 50<<20)
	eventsHandler := NewEventsHandler(broker, svc)

	r := chi.NewRouter()
	r.Post("/api/upload", uploadHandler.Direct)
	r.Post("/api/upload-folder", uploadHandler.Folder)
	r.Post("/api/create-session", sessionHandler.Create)
	r.Route("/api/session/{sessionID}", func(r chi.Router) {
		r.Get("/", sessionHandler.Get)
		r.Post("/upload", sessionHandler.Upload)
		r.Get("/events", eventsHandler.ServeHTTP)
	})
	return r
}

type filePart struct {
	field   string
	name    string
	content []byte
}

func multipartBody(t *testing.T, fields map[string]string, parts []filePart) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, p := range parts {
		fw, err := w.CreateFormFile(p.field, p.name)
		require.NoError(t, err)
		_, err = fw.Write(p.content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func activeSession(repo *memSessionRepo, files model.FileList) *model.Session {
	s := &model.Session{
		ID:        uuid.NewString(),
		Files:     files,
		ExpiresAt: time.Now().Add(10 * time.Minute),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if s.Files == nil {
		s.Files = model.FileList{}
	}
	repo.add(s)
	return s
}
