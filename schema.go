package blog

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// CreateSchema creates the tables the repositories depend on. The unique
// index on users.email is the source of truth for duplicate registrations;
// application code only translates the violation, it never pre-checks as an
// authority.
func CreateSchema(ctx context.Context, db *bun.DB) error {
	if _, err := db.NewCreateTable().
		Model((*User)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed creating users table")
	}

	if _, err := db.NewCreateTable().
		Model((*Post)(nil)).
		IfNotExists().
		ForeignKey(`("author_id") REFERENCES "users" ("id")`).
		Exec(ctx); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed creating posts table")
	}

	return nil
}
