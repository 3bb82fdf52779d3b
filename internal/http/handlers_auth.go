package http

import (
	"context"
	"errors"
	"net/http"

	"viajjo/internal/auth"
	applog "viajjo/internal/log"
	"viajjo/internal/storage"
	"viajjo/internal/tracker"
)

const sessionCookieName = "viajjo_session"

type userHandler func(w http.ResponseWriter, r *http.Request, email string)

// currentUser resolves the session cookie. Any failure counts as logged
// out; unexpected store errors are logged.
func (s *Server) currentUser(r *http.Request) (string, bool) {
	c, err := r.Cookie(sessionCookieName)
	if err != nil || c.Value == "" {
		return "", false
	}
	sess, err := s.auth.Resolve(r.Context(), c.Value)
	if err != nil {
		if !errors.Is(err, auth.ErrNoSession) {
			applog.FromContext(r.Context()).Warn("Session lookup failed", applog.FieldError, err)
		}
		return "", false
	}
	return sess.Email, true
}

// requireUser rejects requests without a session. HTMX callers are sent
// back to the login page.
func (s *Server) requireUser(next userHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		email, ok := s.currentUser(r)
		if !ok {
			if isHTMX(r) {
				NewHTMXResponse().Status(http.StatusUnauthorized).Redirect("/").Write(w)
				return
			}
			if r.Method == http.MethodGet {
				http.Redirect(w, r, "/", http.StatusSeeOther)
				return
			}
			http.Error(w, "login required", http.StatusUnauthorized)
			return
		}
		next(w, r, email)
	})
}

func (s *Server) setSessionCookie(w http.ResponseWriter, r *http.Request, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.auth.TokenTTL().Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	s.authenticate(w, r, "register", s.auth.Register)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	s.authenticate(w, r, "login", s.auth.Login)
}

type authFunc func(ctx context.Context, email, password string) (string, *tracker.UserRecord, error)

// authenticate runs register or login and starts the browser session.
func (s *Server) authenticate(w http.ResponseWriter, r *http.Request, action string, fn authFunc) {
	p := parseBody(w, r)
	if p == nil {
		return
	}
	email := p.Get("email")
	logger := applog.FromContext(r.Context())

	token, _, err := fn(r.Context(), email, p.Raw("password"))
	if err != nil {
		status := http.StatusUnprocessableEntity
		switch {
		case errors.Is(err, auth.ErrEmailExists):
			status = http.StatusConflict
		case errors.Is(err, auth.ErrInvalidCredentials):
			status = http.StatusUnauthorized
		case errors.Is(err, auth.ErrInvalidInput):
		default:
			s.metrics.IncAuth(action, "error")
			s.internalError(w, r, err)
			return
		}
		s.metrics.IncAuth(action, "rejected")
		if errors.Is(err, storage.ErrCorrupt) {
			logger.Warn("Stored user record is unreadable",
				applog.FieldOperation, action,
				applog.FieldEmail, email,
				applog.FieldError, err)
			ErrorResponse(status, userMessage(err)).Write(w)
			return
		}
		logger.Info("Authentication rejected",
			applog.FieldOperation, action,
			applog.FieldEmail, email,
			applog.FieldError, err)
		ErrorResponse(status, userMessage(err)).Write(w)
		return
	}

	s.metrics.IncAuth(action, "success")
	logger.Info("User authenticated", applog.FieldOperation, action, applog.FieldEmail, email)
	s.setSessionCookie(w, r, token)
	redirect(w, r, "/")
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(sessionCookieName); err == nil && c.Value != "" {
		if err := s.auth.Logout(r.Context(), c.Value); err != nil {
			applog.FromContext(r.Context()).Warn("Logout failed", applog.FieldError, err)
		}
	}
	s.metrics.IncAuth("logout", "success")
	clearSessionCookie(w, r)
	redirect(w, r, "/")
}
