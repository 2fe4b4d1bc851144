package jwtware_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-blog/middleware/jwtware"
)

type stubClaims struct {
	sub  string
	role string
}

func (s stubClaims) Subject() string { return s.sub }
func (s stubClaims) UserID() string  { return s.sub }
func (s stubClaims) Role() string    { return s.role }

func (s stubClaims) HasRole(role string) bool { return s.role == role }

func (s stubClaims) IsAtLeast(minRole string) bool {
	ranks := map[string]int{"user": 0, "admin": 1}
	mine, ok := ranks[s.role]
	if !ok {
		return false
	}
	want, ok := ranks[minRole]
	if !ok {
		return false
	}
	return mine >= want
}

type stubValidator struct {
	claims jwtware.AuthClaims
	err    error
}

func (s stubValidator) Validate(raw string) (jwtware.AuthClaims, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.claims, nil
}

// textCodeErrorHandler surfaces the structured failure so tests can tell
// rejection reasons apart.
func textCodeErrorHandler(c *fiber.Ctx, err error) error {
	status := fiber.StatusUnauthorized
	textCode := ""

	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		textCode = rich.TextCode
		if rich.Code != 0 {
			status = rich.Code
		}
	}

	return c.Status(status).JSON(fiber.Map{
		"success":   false,
		"text_code": textCode,
		"message":   err.Error(),
	})
}

func newGatedApp(cfg jwtware.Config) *fiber.App {
	app := fiber.New()
	app.Get("/protected", jwtware.New(cfg), func(c *fiber.Ctx) error {
		claims := c.Locals(cfg.ContextKey).(jwtware.AuthClaims)
		return c.JSON(fiber.Map{"subject": claims.UserID()})
	})
	return app
}

func doRequest(t *testing.T, app *fiber.App, header string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(fiber.MethodGet, "/protected", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}

	res, err := app.Test(req, -1)
	require.NoError(t, err)

	return res
}

func TestNew(t *testing.T) {
	claims := stubClaims{sub: "user-1", role: "user"}

	t.Run("missing token is rejected before validation", func(t *testing.T) {
		app := newGatedApp(jwtware.Config{
			ContextKey:     "user",
			TokenValidator: stubValidator{claims: claims},
		})

		res := doRequest(t, app, "")
		assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	})

	t.Run("wrong auth scheme is rejected", func(t *testing.T) {
		app := newGatedApp(jwtware.Config{
			ContextKey:     "user",
			TokenValidator: stubValidator{claims: claims},
		})

		res := doRequest(t, app, "Basic dXNlcjpwYXNz")
		assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	})

	t.Run("validator failures are rejected", func(t *testing.T) {
		app := newGatedApp(jwtware.Config{
			ContextKey:     "user",
			TokenValidator: stubValidator{err: errors.New("bad signature")},
		})

		res := doRequest(t, app, "Bearer some-token")
		assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	})

	t.Run("valid token reaches the handler with claims in locals", func(t *testing.T) {
		app := newGatedApp(jwtware.Config{
			ContextKey:     "user",
			TokenValidator: stubValidator{claims: claims},
		})

		res := doRequest(t, app, "Bearer some-token")
		assert.Equal(t, http.StatusOK, res.StatusCode)
	})

	t.Run("filter skips the gate entirely", func(t *testing.T) {
		app := fiber.New()
		app.Get("/protected", jwtware.New(jwtware.Config{
			ContextKey:     "user",
			TokenValidator: stubValidator{err: errors.New("never called")},
			Filter:         func(c *fiber.Ctx) bool { return true },
		}), func(c *fiber.Ctx) error {
			return c.SendStatus(fiber.StatusOK)
		})

		res := doRequest(t, app, "")
		assert.Equal(t, http.StatusOK, res.StatusCode)
	})

	t.Run("panics without any key material or validator", func(t *testing.T) {
		assert.Panics(t, func() {
			jwtware.New(jwtware.Config{})
		})
	})
}

func TestValidationListeners(t *testing.T) {
	claims := stubClaims{sub: "user-1", role: "user"}

	t.Run("listener failures reject the request", func(t *testing.T) {
		gone := goerrors.New("The user belonging to this token no longer exists.", goerrors.CategoryAuth).
			WithTextCode("USER_GONE").
			WithCode(goerrors.CodeUnauthorized)

		app := newGatedApp(jwtware.Config{
			ContextKey:     "user",
			TokenValidator: stubValidator{claims: claims},
			ErrorHandler:   textCodeErrorHandler,
			ValidationListeners: []jwtware.ValidationListener{
				func(c *fiber.Ctx, claims jwtware.AuthClaims) error {
					return gone
				},
			},
		})

		res := doRequest(t, app, "Bearer some-token")
		assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	})

	t.Run("listeners run after validation and see the claims", func(t *testing.T) {
		var seen string

		app := newGatedApp(jwtware.Config{
			ContextKey:     "user",
			TokenValidator: stubValidator{claims: claims},
			ValidationListeners: []jwtware.ValidationListener{
				func(c *fiber.Ctx, claims jwtware.AuthClaims) error {
					seen = claims.UserID()
					return nil
				},
			},
		})

		res := doRequest(t, app, "Bearer some-token")
		assert.Equal(t, http.StatusOK, res.StatusCode)
		assert.Equal(t, "user-1", seen)
	})
}

func TestAuthorizationChecks(t *testing.T) {
	t.Run("required role must match exactly", func(t *testing.T) {
		app := newGatedApp(jwtware.Config{
			ContextKey:     "user",
			TokenValidator: stubValidator{claims: stubClaims{sub: "user-1", role: "user"}},
			ErrorHandler:   textCodeErrorHandler,
			RequiredRole:   "admin",
		})

		res := doRequest(t, app, "Bearer some-token")
		assert.Equal(t, http.StatusForbidden, res.StatusCode)
	})

	t.Run("minimum role uses the hierarchy", func(t *testing.T) {
		app := newGatedApp(jwtware.Config{
			ContextKey:     "user",
			TokenValidator: stubValidator{claims: stubClaims{sub: "admin-1", role: "admin"}},
			ErrorHandler:   textCodeErrorHandler,
			MinimumRole:    "user",
		})

		res := doRequest(t, app, "Bearer some-token")
		assert.Equal(t, http.StatusOK, res.StatusCode)
	})
}
