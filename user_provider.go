package blog

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// UserProvider resolves identities against the Users repository.
type UserProvider struct {
	store  Users
	logger Logger
}

// NewUserProvider will create a new UserProvider
func NewUserProvider(store Users) *UserProvider {
	return &UserProvider{
		store:  store,
		logger: defLogger{},
	}
}

func (u *UserProvider) WithLogger(l Logger) *UserProvider {
	if l != nil {
		u.logger = l
	}
	return u
}

// VerifyIdentity will find the user, compare the password, and return the
// identity. Unknown emails and wrong passwords both come back as
// ErrInvalidCredentials so responses cannot be used to probe for accounts.
func (u UserProvider) VerifyIdentity(ctx context.Context, identifier, password string) (Identity, error) {
	user, err := u.store.GetByEmail(ctx, identifier)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to retrieve user during verification")
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		u.logger.Debug("VerifyIdentity password mismatch", "identifier", identifier)
		return nil, ErrInvalidCredentials
	}

	return identityFromUser(user), nil
}

// FindIdentityByID resolves the identity for a verified token subject.
// A missing record means the account was deleted after the token was
// issued; any other store failure is a server fault and must stay
// distinguishable from credential errors.
func (u UserProvider) FindIdentityByID(ctx context.Context, id string) (Identity, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrUserGone
	}

	user, err := u.store.GetByID(ctx, uid)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, ErrUserGone
		}
		return nil, errors.Wrap(err, ErrAuthCheckFailed.Category, ErrAuthCheckFailed.Message).
			WithTextCode(ErrAuthCheckFailed.TextCode).
			WithCode(ErrAuthCheckFailed.Code)
	}

	return identityFromUser(user), nil
}

var _ IdentityProvider = (*UserProvider)(nil)

type authIdentity struct {
	id       string
	username string
	email    string
	role     string
}

func identityFromUser(user *User) authIdentity {
	return authIdentity{
		id:       user.ID.String(),
		username: user.Name,
		email:    user.Email,
		role:     string(user.Role),
	}
}

func (a authIdentity) ID() string {
	return a.id
}

func (a authIdentity) Username() string {
	return a.username
}

func (a authIdentity) Email() string {
	return a.email
}

func (a authIdentity) Role() string {
	return a.role
}

var _ Identity = authIdentity{}
