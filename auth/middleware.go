package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"alumnet/domain"
	"alumnet/errors"
)

type contextKey string

const participantKey contextKey = "participant_id"

// ParticipantFromContext returns the verified identity injected by
// Middleware.
func ParticipantFromContext(ctx context.Context) (domain.ParticipantID, bool) {
	p, ok := ctx.Value(participantKey).(domain.ParticipantID)
	return p, ok
}

// Middleware verifies the Bearer token and injects the verified
// participant identifier into the request context for downstream
// handlers.
func Middleware(verifier Verifier, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			writeAuthError(w, errors.ErrMissingToken)
			return
		}

		// Expecting the standard "Bearer <token>" format
		tokenStr := strings.TrimPrefix(header, "Bearer ")

		participant, err := verifier.Verify(tokenStr)
		if err != nil {
			writeAuthError(w, errors.ErrInvalidToken)
			return
		}

		ctx := context.WithValue(r.Context(), participantKey, participant)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// BearerFromRequest extracts the raw token from either the Authorization
// header or the "token" query parameter. Browsers cannot set headers on
// websocket handshakes, so the query parameter form exists for the live
// transport.
func BearerFromRequest(r *http.Request) (string, error) {
	if header := r.Header.Get("Authorization"); header != "" {
		return strings.TrimPrefix(header, "Bearer "), nil
	}
	if token := r.URL.Query().Get("token"); token != "" {
		return token, nil
	}
	return "", errors.ErrMissingToken
}

func writeAuthError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(errors.MapToHTTPStatus(err))
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
