package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

type contextKey string

const sessionContextKey contextKey = "session"

// Handler carries the server's collaborators and implements the HTTP
// API.
type Handler struct {
	Gateway  Gateway
	Sessions *Sessions
	Jobs     *Jobs
	Blobs    BlobStore
	Logger   *zap.Logger

	// BulkConcurrency caps parallel transfers inside one bulk request.
	BulkConcurrency int
}

// NewHandler creates a Handler.
func NewHandler(gw Gateway, blobs BlobStore, logger *zap.Logger) *Handler {
	return &Handler{
		Gateway:         gw,
		Sessions:        NewSessions(),
		Jobs:            NewJobs(),
		Blobs:           blobs,
		Logger:          logger,
		BulkConcurrency: 4,
	}
}

// writeJSON encodes v with the given status.
func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError responds with the {"detail": ...} body every non-2xx
// response carries.
func (h *Handler) writeError(w http.ResponseWriter, status int, detail string) {
	h.writeJSON(w, status, map[string]string{"detail": detail})
}

// Ping responds to health checks.
func (h *Handler) Ping(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("pong"))
}

// AuthMiddleware protects routes by requiring a valid bearer token. The
// resolved session id is placed on the request context.
func (h *Handler) AuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			h.writeError(w, http.StatusUnauthorized, "Authorization token required")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			h.writeError(w, http.StatusUnauthorized, "Invalid authorization format")
			return
		}

		sessionID, ok := h.Sessions.SessionForToken(parts[1])
		if !ok {
			h.writeError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), sessionContextKey, sessionID)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// sessionFromContext returns the session id AuthMiddleware stored.
func sessionFromContext(ctx context.Context) string {
	id, _ := ctx.Value(sessionContextKey).(string)
	return id
}
