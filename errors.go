package blog

import (
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	textCodeNoToken            = "NO_TOKEN"
	textCodeInvalidToken       = "INVALID_TOKEN"
	textCodeTokenExpired       = "TOKEN_EXPIRED"
	textCodeUserGone           = "USER_GONE"
	textCodeInvalidCredentials = "INVALID_CREDENTIALS"
	textCodeUnauthorized       = "UNAUTHORIZED"
	textCodeForbidden          = "FORBIDDEN"
	textCodeNotFound           = "NOT_FOUND"
	textCodeDuplicateEmail     = "DUPLICATE_EMAIL"
	textCodeAuthCheckFailed    = "AUTH_CHECK_FAILED"
	textCodeValidationFailed   = "VALIDATION_FAILED"
)

// ErrNoToken is returned when a protected route receives no token at all.
var ErrNoToken = goerrors.New("Access denied. No token provided.", goerrors.CategoryAuth).
	WithTextCode(textCodeNoToken).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenMalformed is returned for tokens that fail signature or payload checks.
var ErrTokenMalformed = goerrors.New("Invalid token.", goerrors.CategoryAuth).
	WithTextCode(textCodeInvalidToken).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenExpired is returned for tokens past their embedded expiry.
var ErrTokenExpired = goerrors.New("Token expired.", goerrors.CategoryAuth).
	WithTextCode(textCodeTokenExpired).
	WithCode(goerrors.CodeUnauthorized)

// ErrUserGone is returned when a valid token references a since-deleted account.
var ErrUserGone = goerrors.New("The user belonging to this token no longer exists.", goerrors.CategoryAuth).
	WithTextCode(textCodeUserGone).
	WithCode(goerrors.CodeUnauthorized)

// ErrInvalidCredentials covers both unknown identifiers and bad passwords so
// login responses do not reveal which half failed.
var ErrInvalidCredentials = goerrors.New("Invalid credentials", goerrors.CategoryAuth).
	WithTextCode(textCodeInvalidCredentials).
	WithCode(goerrors.CodeUnauthorized)

// ErrUnauthorized is returned by the role gate when the subject cannot be resolved.
var ErrUnauthorized = goerrors.New("User not found.", goerrors.CategoryAuth).
	WithTextCode(textCodeUnauthorized).
	WithCode(goerrors.CodeUnauthorized)

// ErrForbidden is returned when an authenticated subject lacks permission.
var ErrForbidden = goerrors.New("You do not have permission to perform this action.", goerrors.CategoryAuthz).
	WithTextCode(textCodeForbidden).
	WithCode(goerrors.CodeForbidden)

// ErrNotFound is the shared not-found error for users and posts.
var ErrNotFound = goerrors.New("Resource not found", goerrors.CategoryNotFound).
	WithTextCode(textCodeNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrDuplicateEmail is returned when the store's unique index rejects an email.
// The original API reports this as a 400 rather than a 409, which clients rely on.
var ErrDuplicateEmail = goerrors.New("User already exists with this email", goerrors.CategoryConflict).
	WithTextCode(textCodeDuplicateEmail).
	WithCode(goerrors.CodeBadRequest)

// ErrAuthCheckFailed marks the one auth-gate path that is a server fault
// rather than a client credential fault. Telemetry must distinguish it.
var ErrAuthCheckFailed = goerrors.New("Authorization check failed.", goerrors.CategoryInternal).
	WithTextCode(textCodeAuthCheckFailed).
	WithCode(goerrors.CodeInternal)

// ErrNoEmptyString rejects empty passwords before they reach bcrypt.
var ErrNoEmptyString = goerrors.New("password must not be empty", goerrors.CategoryBadInput).
	WithTextCode("EMPTY_PASSWORD").
	WithCode(goerrors.CodeBadRequest)

// notFound clones ErrNotFound with a resource-specific message and metadata.
func notFound(kind, identifier string) error {
	clone := ErrNotFound.Clone()
	if clone == nil {
		return ErrNotFound
	}
	clone.Message = kind + " not found"
	clone.Source = ErrNotFound
	return clone.WithMetadata(map[string]any{
		"resource":   kind,
		"identifier": identifier,
	})
}

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	var rich *goerrors.Error
	if goerrors.As(err, &rich) && rich.TextCode == textCodeTokenExpired {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	var rich *goerrors.Error
	if goerrors.As(err, &rich) && rich.TextCode == textCodeInvalidToken {
		return true
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}

// IsDuplicateEmailError reports whether err carries the duplicate email code.
func IsDuplicateEmailError(err error) bool {
	if err == nil {
		return false
	}
	var rich *goerrors.Error
	return goerrors.As(err, &rich) && rich.TextCode == textCodeDuplicateEmail
}
