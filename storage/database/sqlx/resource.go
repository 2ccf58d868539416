package sqlxrepos

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/erise-club/website/core"
	"github.com/erise-club/website/core/resource"
	"github.com/erise-club/website/storage/database"
)

type resourceRepository[T any] struct {
	db     core.DB
	schema resource.Schema
	sb     sq.StatementBuilderType
}

// NewResourceRepository returns a repository storing T rows in schema.Table.
// T must carry a `db` tag for "id" and every schema column.
func NewResourceRepository[T any](db *sqlx.DB, schema resource.Schema) resource.Repository[T] {
	return &resourceRepository[T]{
		db:     db,
		schema: schema,
		sb:     database.StatementBuilder(db.DriverName()),
	}
}

func (repo *resourceRepository[T]) QueryAll(ctx context.Context, ordering []core.DBOrdering) ([]T, error) {
	query, args, err := repo.sb.
		Select(repo.schema.SelectColumns()...).
		From(repo.schema.Table).
		OrderBy(core.OrderByClauses(ordering)...).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}

	rows := make([]T, 0)
	if err = repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, database.CheckConn(err)
	}
	return rows, nil
}

func (repo *resourceRepository[T]) Create(ctx context.Context, values map[string]interface{}) (int64, error) {
	// only known columns are written
	set := make(map[string]interface{}, len(repo.schema.Columns))
	for _, col := range repo.schema.Columns {
		set[col] = values[col]
	}

	query, args, err := repo.sb.
		Insert(repo.schema.Table).
		SetMap(set).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, errors.Wrap(err, "building query")
	}

	var id int64
	if err = repo.db.GetContext(ctx, &id, query, args...); err != nil {
		return 0, database.CheckConn(err)
	}
	return id, nil
}

func (repo *resourceRepository[T]) DeleteByID(ctx context.Context, ids ...int64) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := repo.sb.
		Delete(repo.schema.Table).
		Where(sq.Eq{"id": ids}).
		ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	_, err = repo.db.ExecContext(ctx, query, args...)
	return database.CheckConn(err)
}
