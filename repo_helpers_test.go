package blog_test

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	blog "github.com/goliatone/go-blog"
)

// newTestDB opens a private in-memory database with the schema applied.
// The single connection keeps the shared-cache database alive for the
// duration of the test.
func newTestDB(t *testing.T) *bun.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())

	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { db.Close() })

	require.NoError(t, blog.CreateSchema(context.Background(), db))

	return db
}

func seedUser(t *testing.T, store blog.Users, name, email string) *blog.User {
	t.Helper()

	hash, err := blog.HashPassword("Passw0rd")
	require.NoError(t, err)

	user, err := store.Create(context.Background(), &blog.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
	})
	require.NoError(t, err)

	return user
}

func seedPost(t *testing.T, store blog.Posts, author *blog.User, title string, createdAt time.Time) *blog.Post {
	t.Helper()

	post, err := store.Create(context.Background(), &blog.Post{
		Title:     title,
		Content:   "This content is long enough to publish.",
		AuthorID:  author.ID,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	})
	require.NoError(t, err)

	return post
}
