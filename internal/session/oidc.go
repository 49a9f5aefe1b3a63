package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/JaimeStill/console/pkg/lifecycle"
	"github.com/JaimeStill/console/pkg/metrics"
)

const stateCookie = "oauthstate"

// ErrProviderUnavailable indicates OIDC discovery has not completed.
var ErrProviderUnavailable = errors.New("oidc provider unavailable")

// OIDC signs users in through an external OpenID Connect issuer.
type OIDC struct {
	cfg    OIDCConfig
	secure bool
	logger *slog.Logger

	mu       sync.RWMutex
	provider *oidc.Provider
	oauth    *oauth2.Config
}

// NewOIDC returns nil when no issuer is configured.
func NewOIDC(cfg *Config, logger *slog.Logger) *OIDC {
	if !cfg.OIDC.Enabled() {
		return nil
	}
	return &OIDC{
		cfg:    cfg.OIDC,
		secure: cfg.CookieSecure,
		logger: logger.With("system", "oidc", "issuer", cfg.OIDC.Issuer),
	}
}

// Name is the label shown on the login button.
func (o *OIDC) Name() string {
	return o.cfg.Name
}

// Start discovers the issuer during startup and registers a readiness check.
func (o *OIDC) Start(lc *lifecycle.Coordinator) error {
	lc.Check("oidc", lifecycle.CheckerFunc(o.ready))

	lc.OnStartup(func() {
		if err := o.discover(lc.Context()); err != nil {
			o.logger.Error("oidc discovery failed", "error", err)
			return
		}
		o.logger.Info("oidc provider ready")
	})
	return nil
}

func (o *OIDC) discover(ctx context.Context) error {
	provider, err := oidc.NewProvider(ctx, o.cfg.Issuer)
	if err != nil {
		return fmt.Errorf("check %s/.well-known/openid-configuration: %w", o.cfg.Issuer, err)
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	o.provider = provider
	o.oauth = &oauth2.Config{
		ClientID:     o.cfg.ClientID,
		ClientSecret: o.cfg.ClientSecret,
		RedirectURL:  o.cfg.RedirectURL,
		Endpoint:     provider.Endpoint(),
		Scopes:       []string{oidc.ScopeOpenID, "email", "profile"},
	}
	return nil
}

func (o *OIDC) ready() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.provider != nil
}

func (o *OIDC) client() (*oidc.Provider, *oauth2.Config, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.provider == nil {
		return nil, nil, ErrProviderUnavailable
	}
	return o.provider, o.oauth, nil
}

// AuthURL issues the state cookie and returns the issuer's login URL.
func (o *OIDC) AuthURL(w http.ResponseWriter, r *http.Request) (string, error) {
	_, cfg, err := o.client()
	if err != nil {
		return "", err
	}

	state, err := r.Cookie(stateCookie)
	if err != nil || state.Value == "" {
		state = o.stateCookie()
		http.SetCookie(w, state)
	}

	return cfg.AuthCodeURL(state.Value, oauth2.SetAuthURLParam("prompt", "login")), nil
}

// Exchange completes the callback: it verifies state, redeems the code and
// reads the user's profile.
func (o *OIDC) Exchange(w http.ResponseWriter, r *http.Request) (Identity, error) {
	provider, cfg, err := o.client()
	if err != nil {
		return Identity{}, err
	}

	state, _ := r.Cookie(stateCookie)
	if state == nil || r.FormValue("state") != state.Value {
		metrics.ObserveLogin("invalid_state")
		return Identity{}, ErrOAuthState
	}
	http.SetCookie(w, &http.Cookie{Name: stateCookie, Path: "/", MaxAge: -1})

	token, err := cfg.Exchange(r.Context(), r.FormValue("code"))
	if err != nil {
		metrics.ObserveLogin("error")
		return Identity{}, fmt.Errorf("exchange code: %w", err)
	}

	info, err := provider.UserInfo(r.Context(), oauth2.StaticTokenSource(token))
	if err != nil {
		metrics.ObserveLogin("error")
		return Identity{}, fmt.Errorf("user info: %w", err)
	}

	var profile struct {
		Name string `json:"name"`
	}
	if err := info.Claims(&profile); err != nil {
		o.logger.Warn("profile claims unreadable", "error", err)
	}
	if profile.Name == "" {
		profile.Name = info.Email
	}

	metrics.ObserveLogin("success")
	return Identity{Email: info.Email, Name: profile.Name}, nil
}

func (o *OIDC) stateCookie() *http.Cookie {
	b := make([]byte, 16)
	rand.Read(b)
	return &http.Cookie{
		Name:     stateCookie,
		Value:    base64.URLEncoding.EncodeToString(b),
		Path:     "/",
		Expires:  time.Now().Add(10 * time.Minute),
		HttpOnly: true,
		Secure:   o.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
