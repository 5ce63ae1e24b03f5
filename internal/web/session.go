package web

import (
	"net/http"

	"github.com/JonMunkholm/bomview/internal/logging"
)

// SessionHeader lets API clients that do not keep cookies name their session.
const SessionHeader = "X-Session-ID"

// sessionMiddleware resolves the caller's table session from the session
// cookie (or SessionHeader), creating a fresh one when it is missing or has
// expired. The id is echoed back in both places.
func (s *Server) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requested := r.Header.Get(SessionHeader)
		if requested == "" {
			if c, err := r.Cookie(s.cfg.Session.CookieName); err == nil {
				requested = c.Value
			}
		}

		id, created := s.service.Session(requested)
		if created {
			logging.FromContext(r.Context()).Debug("session created",
				"session_id", id,
				"replaced", requested != "",
			)
		}

		if id != requested || created {
			http.SetCookie(w, &http.Cookie{
				Name:     s.cfg.Session.CookieName,
				Value:    id,
				Path:     "/",
				HttpOnly: true,
				Secure:   s.cfg.Session.SecureCookie,
				SameSite: http.SameSiteLaxMode,
				MaxAge:   int(s.cfg.Session.IdleTimeout.Seconds()),
			})
		}
		w.Header().Set(SessionHeader, id)

		ctx := logging.ContextWithSessionID(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
