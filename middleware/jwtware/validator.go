package jwtware

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
)

// roleHierarchy ranks roles for IsAtLeast checks on externally issued
// tokens. Locally issued tokens are validated by the application's own
// TokenService and never reach this table.
var roleHierarchy = map[string]int{
	"guest": 0,
	"user":  1,
	"admin": 2,
}

// keyfuncValidator validates externally issued tokens (e.g. from a JWK set)
// with a jwt.Keyfunc and exposes their claims through the AuthClaims
// interface.
type keyfuncValidator struct {
	keyFunc jwt.Keyfunc
}

// NewKeyfuncValidator wraps a jwt.Keyfunc as a TokenValidator.
func NewKeyfuncValidator(keyFunc jwt.Keyfunc) TokenValidator {
	if keyFunc == nil {
		panic("BLOG: JWT middleware configuration: keyfunc validator requires a KeyFunc.")
	}
	return &keyfuncValidator{keyFunc: keyFunc}
}

func (v *keyfuncValidator) Validate(tokenString string) (AuthClaims, error) {
	token, err := jwt.Parse(tokenString, v.keyFunc)
	if err != nil {
		if goerrors.Is(err, jwt.ErrTokenExpired) {
			return nil, goerrors.Wrap(err, goerrors.CategoryAuth, "Token expired.").
				WithTextCode("TOKEN_EXPIRED").
				WithCode(goerrors.CodeUnauthorized)
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryAuth, "Invalid token.").
			WithTextCode("INVALID_TOKEN").
			WithCode(goerrors.CodeUnauthorized)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, goerrors.New("Invalid token.", goerrors.CategoryAuth).
			WithTextCode("INVALID_TOKEN").
			WithCode(goerrors.CodeUnauthorized)
	}

	return mapClaims(claims), nil
}

// mapClaims adapts raw jwt.MapClaims to the AuthClaims interface.
type mapClaims jwt.MapClaims

var _ AuthClaims = mapClaims{}

func (m mapClaims) Subject() string {
	return m.stringClaim("sub")
}

func (m mapClaims) UserID() string {
	if uid := m.stringClaim("uid"); uid != "" {
		return uid
	}
	return m.Subject()
}

func (m mapClaims) Role() string {
	return m.stringClaim("role")
}

func (m mapClaims) HasRole(role string) bool {
	return m.Role() == role
}

func (m mapClaims) IsAtLeast(minRole string) bool {
	current, ok := roleHierarchy[m.Role()]
	if !ok {
		return false
	}
	min, ok := roleHierarchy[minRole]
	if !ok {
		return false
	}
	return current >= min
}

func (m mapClaims) Expires() time.Time {
	if exp, err := jwt.MapClaims(m).GetExpirationTime(); err == nil && exp != nil {
		return exp.Time
	}
	return time.Time{}
}

func (m mapClaims) stringClaim(name string) string {
	if raw, ok := m[name]; ok {
		if s, ok := raw.(string); ok {
			return s
		}
	}
	return ""
}
