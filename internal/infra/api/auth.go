package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"wifi-voucher/internal/infra/logging"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// ===== Session/JWT primitives =====

type AuthConfig struct {
	HMACSecret   []byte
	PasswordHash []byte // bcrypt
	CookieName   string
	SecureCookie bool
	TTL          time.Duration
}

type AuthManager struct {
	cfg AuthConfig
	now func() time.Time
}

func NewAuthManager(secret, passwordHash string, secure bool, ttl time.Duration) *AuthManager {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &AuthManager{
		cfg: AuthConfig{
			HMACSecret:   []byte(secret),
			PasswordHash: []byte(passwordHash),
			CookieName:   "admin_session",
			SecureCookie: secure, // true in prod (TLS)
			TTL:          ttl,
		},
		now: time.Now,
	}
}

type AdminClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

var errBadPassword = errors.New("wrong password")

// CheckPassword compares against the configured bcrypt hash. An unset hash
// rejects every attempt.
func (a *AuthManager) CheckPassword(password string) error {
	if len(a.cfg.PasswordHash) == 0 || password == "" {
		return errBadPassword
	}
	if err := bcrypt.CompareHashAndPassword(a.cfg.PasswordHash, []byte(password)); err != nil {
		return errBadPassword
	}
	return nil
}

// Mint signs a session token and sets it as a cookie.
func (a *AuthManager) Mint(w http.ResponseWriter) (string, time.Time, error) {
	now := a.now()
	exp := now.Add(a.cfg.TTL)
	claims := AdminClaims{
		Role: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			Subject:   "admin",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.cfg.HMACSecret)
	if err != nil {
		return "", time.Time{}, err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     a.cfg.CookieName,
		Value:    signed,
		Path:     "/",
		MaxAge:   int(a.cfg.TTL.Seconds()),
		HttpOnly: true,
		Secure:   a.cfg.SecureCookie,
		SameSite: http.SameSiteStrictMode,
	})
	return signed, exp, nil
}

func (a *AuthManager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     a.cfg.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   a.cfg.SecureCookie,
		SameSite: http.SameSiteStrictMode,
	})
}

func (a *AuthManager) ParseFromRequest(r *http.Request) (*AdminClaims, error) {
	// Authorization: Bearer <jwt>
	if hdr := r.Header.Get("Authorization"); hdr != "" {
		if strings.HasPrefix(strings.ToLower(hdr), "bearer ") {
			return a.parse(strings.TrimSpace(hdr[7:]))
		}
		return nil, errors.New("unsupported authorization scheme")
	}
	if c, err := r.Cookie(a.cfg.CookieName); err == nil {
		return a.parse(c.Value)
	}
	return nil, errors.New("missing token")
}

func (a *AuthManager) parse(tok string) (*AdminClaims, error) {
	claims := &AdminClaims{}
	tkn, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (any, error) {
		return a.cfg.HMACSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil || !tkn.Valid || claims.Role != "admin" {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// RequireAdmin rejects requests without a valid admin session.
func (a *AuthManager) RequireAdmin(logger *zerolog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !a.Enabled() {
				logging.With(r.Context(), logger).Error().Msg("admin jwt secret is not configured")
				writeJSON(w, http.StatusForbidden, errorBody{Code: "forbidden", Message: "admin API disabled"})
				return
			}
			if _, err := a.ParseFromRequest(r); err != nil {
				writeError(w, r, logger, errUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Enabled reports whether admin sessions can be issued at all.
func (a *AuthManager) Enabled() bool {
	return len(a.cfg.HMACSecret) > 0 && len(a.cfg.PasswordHash) > 0
}
