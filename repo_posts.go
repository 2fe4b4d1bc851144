package blog

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Posts is the post store. Reads load the author relation so list and get
// responses carry the author's public fields. AuthorID is immutable: Update
// only ever touches title and content.
type Posts interface {
	Create(ctx context.Context, record *Post) (*Post, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Post, error)
	List(ctx context.Context, pager Pager) ([]Post, int, error)
	ListByAuthor(ctx context.Context, authorID uuid.UUID, pager Pager) ([]Post, int, error)
	Update(ctx context.Context, id uuid.UUID, patch PostPatch) (*Post, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type posts struct {
	db *bun.DB
}

var _ Posts = (*posts)(nil)

func NewPostsRepository(db *bun.DB) Posts {
	return &posts{db: db}
}

func (a *posts) Create(ctx context.Context, record *Post) (*Post, error) {
	preparePostDefaults(record)

	if _, err := a.db.NewInsert().Model(record).Exec(ctx); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "could not create post")
	}

	// reload so the response carries the author relation
	return a.GetByID(ctx, record.ID)
}

func (a *posts) GetByID(ctx context.Context, id uuid.UUID) (*Post, error) {
	record := &Post{}
	err := a.db.NewSelect().
		Model(record).
		Relation("Author").
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if isNoRows(err) {
			return nil, notFound("Post", id.String())
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load post")
	}

	return record, nil
}

func (a *posts) List(ctx context.Context, pager Pager) ([]Post, int, error) {
	return a.list(ctx, pager, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q
	})
}

func (a *posts) ListByAuthor(ctx context.Context, authorID uuid.UUID, pager Pager) ([]Post, int, error) {
	return a.list(ctx, pager, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.author_id = ?", authorID)
	})
}

func (a *posts) list(ctx context.Context, pager Pager, apply func(*bun.SelectQuery) *bun.SelectQuery) ([]Post, int, error) {
	records := make([]Post, 0, pager.Limit)

	q := a.db.NewSelect().
		Model(&records).
		Relation("Author").
		Order("pst.created_at DESC").
		Limit(pager.Limit).
		Offset(pager.Offset())

	total, err := apply(q).ScanAndCount(ctx)
	if err != nil {
		return nil, 0, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to list posts")
	}

	return records, total, nil
}

func (a *posts) Update(ctx context.Context, id uuid.UUID, patch PostPatch) (*Post, error) {
	record, err := a.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	columns := make([]string, 0, 3)

	if patch.Title != nil {
		record.Title = *patch.Title
		columns = append(columns, "title")
	}
	if patch.Content != nil {
		record.Content = *patch.Content
		columns = append(columns, "content")
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
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "could not update post")
	}

	return record, nil
}

func (a *posts) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := a.db.NewDelete().
		Model((*Post)(nil)).
		Where("id = ?", id).
		Exec(ctx)

	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "could not delete post")
	}

	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return notFound("Post", id.String())
	}

	return nil
}

func preparePostDefaults(record *Post) {
	if record == nil {
		return
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
