package blog

import (
	"sort"

	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/google/uuid"

	"github.com/goliatone/go-blog/middleware/jwtware"
)

// Response is the uniform envelope every endpoint answers with.
type Response struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	Data    any          `json:"data,omitempty"`
	Errors  []FieldError `json:"errors,omitempty"`
}

// FieldError carries a field-level validation message.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// WriteSuccess renders the success envelope.
func WriteSuccess(c *fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// WriteError renders the failure envelope for any error. Unrecognized
// failures become a generic 500 so internals never leak to the client.
func WriteError(c *fiber.Ctx, err error) error {
	rich := asRichError(err)

	status := rich.Code
	if status == 0 {
		status = fiber.StatusInternalServerError
	}

	return c.Status(status).JSON(Response{
		Success: false,
		Message: rich.Message,
		Errors:  fieldErrors(rich),
	})
}

// NewErrorHandler returns the top-level fiber error handler: every failure
// that bubbles out of a handler is logged and mapped to the envelope here.
func NewErrorHandler(logger Logger) fiber.ErrorHandler {
	if logger == nil {
		logger = defLogger{}
	}

	return func(c *fiber.Ctx, err error) error {
		rich := asRichError(err)

		if rich.Code >= fiber.StatusInternalServerError {
			logger.Error(
				"request failed",
				"path", c.Path(),
				"category", rich.Category,
				"text_code", rich.TextCode,
				"error", err,
				"metadata", print.MaybePrettyJSON(rich.Metadata),
			)
		} else {
			logger.Info(
				"request rejected",
				"path", c.Path(),
				"text_code", rich.TextCode,
				"status", rich.Code,
			)
		}

		return WriteError(c, rich)
	}
}

func asRichError(err error) *goerrors.Error {
	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		return rich
	}

	var fiberErr *fiber.Error
	if goerrors.As(err, &fiberErr) {
		category := goerrors.CategoryInternal
		if fiberErr.Code < fiber.StatusInternalServerError {
			category = goerrors.CategoryBadInput
		}
		return goerrors.New(fiberErr.Message, category).WithCode(fiberErr.Code)
	}

	return goerrors.Wrap(err, goerrors.CategoryInternal, "An unexpected server error occurred").
		WithCode(goerrors.CodeInternal)
}

// fieldErrors flattens the validation metadata into a sorted errors array.
func fieldErrors(rich *goerrors.Error) []FieldError {
	if rich == nil || rich.Metadata == nil {
		return nil
	}

	raw, ok := rich.Metadata["fields"]
	if !ok {
		return nil
	}

	fields, ok := raw.(map[string]string)
	if !ok {
		return nil
	}

	out := make([]FieldError, 0, len(fields))
	for field, message := range fields {
		out = append(out, FieldError{Field: field, Message: message})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Field < out[j].Field })

	return out
}

// gateTokenValidator adapts the blog TokenValidator to the jwtware interface.
type gateTokenValidator struct {
	inner TokenValidator
}

func (g gateTokenValidator) Validate(raw string) (jwtware.AuthClaims, error) {
	claims, err := g.inner.Validate(raw)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// NewAuthGate builds the authentication middleware: token extraction,
// validation, and the subject-existence check, with claims and the resolved
// identity threaded through the request context for downstream gates and
// handlers.
func NewAuthGate(validator TokenValidator, provider IdentityProvider, cfg Config, logger Logger) fiber.Handler {
	if logger == nil {
		logger = defLogger{}
	}

	return jwtware.New(jwtware.Config{
		TokenValidator: gateTokenValidator{inner: validator},
		TokenLookup:    cfg.GetTokenLookup(),
		AuthScheme:     cfg.GetAuthScheme(),
		ContextKey:     cfg.GetContextKey(),
		ErrorHandler:   MakeAuthGateErrorHandler(logger),
		ValidationListeners: []jwtware.ValidationListener{
			SubjectExistsListener(provider, logger),
		},
	})
}

// SubjectExistsListener rejects tokens whose subject no longer exists in the
// store. On success the fresh identity replaces the token's view of the user
// in the request context.
func SubjectExistsListener(provider IdentityProvider, logger Logger) jwtware.ValidationListener {
	return func(c *fiber.Ctx, claims jwtware.AuthClaims) error {
		ident, err := provider.FindIdentityByID(c.UserContext(), claims.UserID())
		if err != nil {
			return err
		}

		ctx := WithIdentityContext(c.UserContext(), ident)
		if authClaims, ok := claims.(AuthClaims); ok {
			ctx = WithClaimsContext(ctx, authClaims)
		}
		c.SetUserContext(ctx)

		return nil
	}
}

// MakeAuthGateErrorHandler maps gate failures onto the error taxonomy:
// missing token, malformed token, expired token, vanished subject, or the
// one server-fault path (store failure during the subject check), which is
// logged at error level so telemetry can tell it apart from credential
// rejections.
func MakeAuthGateErrorHandler(logger Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var rich *goerrors.Error

		if goerrors.Is(err, jwtware.ErrJWTMissingOrMalformed) {
			rich = ErrNoToken
		} else if IsTokenExpiredError(err) {
			rich = ErrTokenExpired
		} else if goerrors.As(err, &rich) {
			// structured failure from the validator or a listener
		} else {
			rich = ErrTokenMalformed
		}

		if rich.Code >= fiber.StatusInternalServerError {
			logger.Error("auth gate server fault", "path", c.Path(), "error", err)
		} else {
			logger.Debug("auth gate rejection", "path", c.Path(), "text_code", rich.TextCode)
		}

		return WriteError(c, rich)
	}
}

// RequireRoles restricts a route to the given allow-list. The role is
// re-read from the store rather than the token, trading a lookup per request
// for immediate effect of role changes without re-login.
func RequireRoles(store Users, logger Logger, allowed ...UserRole) fiber.Handler {
	if logger == nil {
		logger = defLogger{}
	}

	return func(c *fiber.Ctx) error {
		ident, ok := IdentityFromContext(c.UserContext())
		if !ok {
			return WriteError(c, ErrUnauthorized)
		}

		uid, err := uuid.Parse(ident.ID())
		if err != nil {
			return WriteError(c, ErrUnauthorized)
		}

		user, err := store.GetByID(c.UserContext(), uid)
		if err != nil {
			if goerrors.IsNotFound(err) {
				return WriteError(c, ErrUnauthorized)
			}
			logger.Error("role gate store fault", "path", c.Path(), "error", err)
			return WriteError(c, ErrAuthCheckFailed)
		}

		permitted := false
		for _, role := range allowed {
			if user.Role == role {
				permitted = true
				break
			}
		}

		if !permitted {
			return WriteError(c, ErrForbidden)
		}

		// refresh the context identity so handlers observe the current role
		c.SetUserContext(WithIdentityContext(c.UserContext(), identityFromUser(user)))

		return c.Next()
	}
}
