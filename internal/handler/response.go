package handler

import (
	"net/http"

	"github.com/quickshareqr/server-go/internal/httputil"
	"github.com/quickshareqr/server-go/internal/model"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	httputil.WriteJSON(w, status, data)
}

func writeError(w http.ResponseWriter, err error) {
	httputil.WriteError(w, err)
}

func sessionPayload(s *model.Session) map[string]any {
	return map[string]any{
		"id":        s.ID,
		"files":     s.Files,
		"expiresAt": s.ExpiresAt,
	}
}
