package auth

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/pharmakart/pharmacy-api/api/web"
	"github.com/pharmakart/pharmacy-api/api/weberr"
	"github.com/pharmakart/pharmacy-api/core/claims"
)

const (
	sessionUserID = "user_id"
	sessionRole   = "role"
)

// sessionWriter delays the body so the session cookie can still be written
// after the wrapped handler ran.
type sessionWriter struct {
	http.ResponseWriter
	buf  bytes.Buffer
	code int
}

func (w *sessionWriter) WriteHeader(code int) { w.code = code }

func (w *sessionWriter) Write(b []byte) (int, error) { return w.buf.Write(b) }

func (w *sessionWriter) flush() error {
	if w.code != 0 {
		w.ResponseWriter.WriteHeader(w.code)
	}
	_, err := w.ResponseWriter.Write(w.buf.Bytes())
	return err
}

// LoadAndSave is the session middleware: it loads the session bound to the
// request cookie and commits any mutation back before the response leaves.
func LoadAndSave(s *scs.SessionManager) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			var token string
			if cookie, err := r.Cookie(s.Cookie.Name); err == nil {
				token = cookie.Value
			}

			ctx, err := s.Load(ctx, token)
			if err != nil {
				return fmt.Errorf("loading session: %w", err)
			}

			sw := &sessionWriter{ResponseWriter: w}
			herr := handler(ctx, sw, r.WithContext(ctx))

			switch s.Status(ctx) {
			case scs.Modified:
				token, expiry, err := s.Commit(ctx)
				if err != nil {
					return fmt.Errorf("committing session: %w", err)
				}
				s.WriteSessionCookie(ctx, w, token, expiry)
			case scs.Destroyed:
				s.WriteSessionCookie(ctx, w, "", time.Time{})
			}

			if err := sw.flush(); err != nil {
				return fmt.Errorf("writing buffered response: %w", err)
			}

			return herr
		}
		return h
	}
	return m
}

// Authenticate rejects requests without a logged-in session and loads the
// user's claims into the context for downstream handlers.
func Authenticate(s *scs.SessionManager) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			clm, ok := sessionClaims(ctx, s)
			if !ok {
				return weberr.NotAuthorized(errors.New("user not authenticated"))
			}

			return handler(claims.Set(ctx, clm), w, r)
		}
		return h
	}
	return m
}

// Admin is Authenticate plus an admin role check.
func Admin(s *scs.SessionManager) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			clm, ok := sessionClaims(ctx, s)
			if !ok {
				return weberr.NotAuthorized(errors.New("user not authenticated"))
			}

			if clm.Role != claims.RoleAdmin {
				return weberr.NotAuthorized(errors.New("admin role required"))
			}

			return handler(claims.Set(ctx, clm), w, r)
		}
		return h
	}
	return m
}

func sessionClaims(ctx context.Context, s *scs.SessionManager) (claims.Claims, bool) {
	id := s.GetString(ctx, sessionUserID)
	if id == "" {
		return claims.Claims{}, false
	}

	return claims.Claims{
		UserID: id,
		Role:   s.GetString(ctx, sessionRole),
	}, true
}

// login rotates the session token and binds it to the user. Rotation on
// privilege change blocks session fixation.
func login(ctx context.Context, s *scs.SessionManager, userID string, role string) error {
	if err := s.RenewToken(ctx); err != nil {
		return fmt.Errorf("renewing session token: %w", err)
	}

	s.Put(ctx, sessionUserID, userID)
	s.Put(ctx, sessionRole, role)
	return nil
}

func logout(ctx context.Context, s *scs.SessionManager) error {
	if err := s.Destroy(ctx); err != nil {
		return fmt.Errorf("destroying session: %w", err)
	}
	return nil
}
