package middleware

import (
	"errors"
	"net/http"
	"strings"

	"print-store/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const identityKey = "identity"

var errInvalidToken = errors.New("invalid or expired token")

// Claims is the payload of tokens issued by the storefront's account service.
type Claims struct {
	UserID  *int64 `json:"userId,omitempty"`
	Email   string `json:"email,omitempty"`
	IsAdmin bool   `json:"is_admin,omitempty"`
	jwt.RegisteredClaims
}

type Authenticator struct {
	secret []byte
}

func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret)}
}

// Parse validates an HS256 bearer token and returns the caller it names.
func (a *Authenticator) Parse(token string) (*model.Identity, error) {
	if len(a.secret) == 0 {
		return nil, errInvalidToken
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return nil, errInvalidToken
	}

	return &model.Identity{
		UserID:  claims.UserID,
		Email:   strings.TrimSpace(claims.Email),
		IsAdmin: claims.IsAdmin,
	}, nil
}

// Sign issues a token for identity; used by tooling and tests.
func (a *Authenticator) Sign(identity *model.Identity, claims jwt.RegisteredClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		UserID:           identity.UserID,
		Email:            identity.Email,
		IsAdmin:          identity.IsAdmin,
		RegisteredClaims: claims,
	})
	return token.SignedString(a.secret)
}

// RequireAuth rejects requests without a valid bearer token.
func (a *Authenticator) RequireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := bearerToken(c.Request())
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
			}
			identity, err := a.Parse(token)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
			}
			c.Set(identityKey, identity)
			return next(c)
		}
	}
}

// OptionalAuth attaches the caller when a valid token is present and lets
// anonymous requests through. An invalid token is still rejected.
func (a *Authenticator) OptionalAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := bearerToken(c.Request())
			if !ok {
				return next(c)
			}
			identity, err := a.Parse(token)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
			}
			c.Set(identityKey, identity)
			return next(c)
		}
	}
}

// RequireAdmin must run after RequireAuth.
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			identity := IdentityFrom(c)
			if identity == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
			}
			if !identity.IsAdmin {
				return echo.NewHTTPError(http.StatusForbidden, "admin access required")
			}
			return next(c)
		}
	}
}

// IdentityFrom returns the authenticated caller, or nil for anonymous requests.
func IdentityFrom(c echo.Context) *model.Identity {
	identity, _ := c.Get(identityKey).(*model.Identity)
	return identity
}

func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get(echo.HeaderAuthorization))
	if header == "" {
		return "", false
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
