package blog

import (
	"context"
	"database/sql"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Users is the user store. Uniqueness of email is enforced by the store's
// unique index; Create and Update surface violations as ErrDuplicateEmail so
// two concurrent registrations can never both succeed.
type Users interface {
	Create(ctx context.Context, record *User) (*User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context, pager Pager) ([]User, int, error)
	Update(ctx context.Context, id uuid.UUID, patch UserPatch) (*User, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type users struct {
	db *bun.DB
}

var _ Users = (*users)(nil)

func NewUsersRepository(db *bun.DB) Users {
	return &users{db: db}
}

func (a *users) Create(ctx context.Context, record *User) (*User, error) {
	prepareUserDefaults(record)

	if _, err := a.db.NewInsert().Model(record).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "could not create user")
	}

	return record, nil
}

func (a *users) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	record := &User{}
	err := a.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if isNoRows(err) {
			return nil, notFound("User", id.String())
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load user")
	}

	return record, nil
}

func (a *users) GetByEmail(ctx context.Context, email string) (*User, error) {
	record := &User{}
	err := a.db.NewSelect().
		Model(record).
		Where("?TableAlias.email = ?", strings.TrimSpace(email)).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if isNoRows(err) {
			return nil, notFound("User", email)
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load user")
	}

	return record, nil
}

func (a *users) List(ctx context.Context, pager Pager) ([]User, int, error) {
	records := make([]User, 0, pager.Limit)

	total, err := a.db.NewSelect().
		Model(&records).
		Order("created_at DESC").
		Limit(pager.Limit).
		Offset(pager.Offset()).
		ScanAndCount(ctx)

	if err != nil {
		return nil, 0, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to list users")
	}

	return records, total, nil
}

func (a *users) Update(ctx context.Context, id uuid.UUID, patch UserPatch) (*User, error) {
	record, err := a.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	columns := make([]string, 0, 4)

	if patch.Name != nil {
		record.Name = *patch.Name
		columns = append(columns, "name")
	}
	if patch.Email != nil {
		record.Email = strings.TrimSpace(*patch.Email)
		columns = append(columns, "email")
	}
	if patch.Role != nil {
		record.Role = *patch.Role
		columns = append(columns, "user_role")
	}

	if len(columns) == 0 {
		return record, nil
	}

	record.UpdatedAt = time.Now()
	columns = append(columns, "updated_at")

	if _, err := a.db.NewUpdate().
		Model(record).
		Column(columns...).
		WherePK().
		Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "could not update user")
	}

	return record, nil
}

func (a *users) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := a.db.NewDelete().
		Model((*User)(nil)).
		Where("id = ?", id).
		Exec(ctx)

	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "could not delete user")
	}

	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return notFound("User", id.String())
	}

	return nil
}

func prepareUserDefaults(record *User) {
	if record == nil {
		return
	}

	if record.Role == "" {
		record.Role = RoleUser
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	now := time.Now()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	if record.UpdatedAt.IsZero() {
		record.UpdatedAt = now
	}
}

func isNoRows(err error) bool {
	return goerrors.Is(err, sql.ErrNoRows)
}

// isUniqueViolation matches the constraint errors of the dialects we run
// against (modernc sqlite and postgres).
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "constraint failed: UNIQUE") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")
}
