package session

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Cookie names shared with the client.
const (
	CookieAuthenticated = "isAuthenticated"
	CookieUser          = "user"
)

type claims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

// Store reads and writes session cookies. The user cookie is a JWT signed
// with HS256 whose jti is the session id.
type Store struct {
	secret []byte
	secure bool
	expiry time.Duration
	clock  func() time.Time
	logger *slog.Logger
}

// NewStore creates a Store from a finalized Config.
func NewStore(cfg *Config, logger *slog.Logger) *Store {
	return &Store{
		secret: []byte(cfg.Secret),
		secure: cfg.CookieSecure,
		expiry: cfg.ExpiryDuration(),
		clock:  time.Now,
		logger: logger.With("system", "session"),
	}
}

// SetClock replaces the time source used for token expiry.
func (s *Store) SetClock(clock func() time.Time) {
	s.clock = clock
}

// Load hydrates the session for r. Missing, tampered or expired cookies
// yield an anonymous session.
func (s *Store) Load(r *http.Request) *Session {
	sess := &Session{store: s}

	flag, err := r.Cookie(CookieAuthenticated)
	if err != nil || flag.Value != "true" {
		return sess
	}
	token, err := r.Cookie(CookieUser)
	if err != nil {
		return sess
	}

	c, err := s.parse(token.Value)
	if err != nil {
		s.logger.Debug("session rejected", "error", err)
		return sess
	}

	sess.id = c.ID
	sess.user = Identity{Email: c.Email, Name: c.Name}
	sess.authenticated = true
	return sess
}

// Middleware attaches the loaded session to each request context.
func (s *Store) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), s.Load(r))))
	})
}

func (s *Store) write(w http.ResponseWriter, id Identity) (string, error) {
	now := s.clock()
	sid := uuid.NewString()
	expires := now.Add(s.expiry)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Email: id.Email,
		Name:  id.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sid,
			Subject:   id.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}

	http.SetCookie(w, s.cookie(CookieAuthenticated, "true", expires))
	http.SetCookie(w, s.cookie(CookieUser, signed, expires))

	s.logger.Info("session started", "session", sid, "email", id.Email)
	return sid, nil
}

func (s *Store) clear(w http.ResponseWriter) {
	for _, name := range []string{CookieAuthenticated, CookieUser} {
		c := s.cookie(name, "", time.Unix(0, 0))
		c.MaxAge = -1
		http.SetCookie(w, c)
	}
}

func (s *Store) cookie(name, value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (s *Store) parse(value string) (*claims, error) {
	c := &claims{}
	_, err := jwt.ParseWithClaims(value, c,
		func(t *jwt.Token) (any, error) {
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.clock),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if c.ID == "" {
		return nil, fmt.Errorf("%w: missing session id", ErrInvalidToken)
	}
	return c, nil
}
