package resource

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erise-club/website/core"
)

type row struct {
	ID   int64
	Name string
}

type newRow struct {
	Name *string
}

func (n newRow) Values() map[string]interface{} {
	return map[string]interface{}{"name": Str(n.Name)}
}

type fakeRepo struct {
	rows     []row
	ordering []core.DBOrdering
	deleted  []int64
	err      error
}

func (r *fakeRepo) QueryAll(_ context.Context, ordering []core.DBOrdering) ([]row, error) {
	r.ordering = ordering
	return r.rows, r.err
}

func (r *fakeRepo) Create(_ context.Context, values map[string]interface{}) (int64, error) {
	if r.err != nil {
		return 0, r.err
	}
	name, _ := values["name"].(string)
	r.rows = append(r.rows, row{ID: int64(len(r.rows) + 1), Name: name})
	return int64(len(r.rows)), nil
}

func (r *fakeRepo) DeleteByID(_ context.Context, ids ...int64) error {
	r.deleted = append(r.deleted, ids...)
	return r.err
}

var testSchema = Schema{
	Name:      "rows",
	Table:     "rows",
	Columns:   []string{"name"},
	Ordering:  []core.DBOrdering{{Field: "id"}},
	Orderable: []string{"id", "name"},
}

func TestService_Query(t *testing.T) {
	ctx := context.Background()

	t.Run("empty is not nil", func(t *testing.T) {
		repo := &fakeRepo{}
		rows, err := NewService[row, newRow](testSchema, repo).Query(ctx, nil)
		require.NoError(t, err)
		assert.NotNil(t, rows)
		assert.Empty(t, rows)
		assert.Equal(t, testSchema.Ordering, repo.ordering)
	})

	t.Run("custom ordering", func(t *testing.T) {
		repo := &fakeRepo{}
		ordering := []core.DBOrdering{{Field: "name", Ascending: true}}
		_, err := NewService[row, newRow](testSchema, repo).Query(ctx, ordering)
		require.NoError(t, err)
		assert.Equal(t, ordering, repo.ordering)
	})

	t.Run("forbidden ordering", func(t *testing.T) {
		repo := &fakeRepo{}
		_, err := NewService[row, newRow](testSchema, repo).Query(ctx, []core.DBOrdering{{Field: "secret"}})
		verr, ok := err.(*core.ValidationError)
		require.True(t, ok, "got %v", err)
		assert.Equal(t, []core.FieldError{{Field: "ordering", Error: `cannot order by "secret"`}}, verr.Fields)
		assert.Nil(t, repo.ordering)
	})

	t.Run("store failure", func(t *testing.T) {
		boom := errors.New("boom")
		_, err := NewService[row, newRow](testSchema, &fakeRepo{err: boom}).Query(ctx, nil)
		assert.Equal(t, boom, errors.Cause(err))
	})
}

func TestService_CreateDelete(t *testing.T) {
	ctx := context.Background()
	repo := &fakeRepo{}
	svc := NewService[row, newRow](testSchema, repo)

	name := ""
	id, err := svc.Create(ctx, newRow{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	require.NoError(t, svc.Delete(ctx, 42))
	assert.Equal(t, []int64{42}, repo.deleted)

	repo.err = errors.New("boom")
	_, err = svc.Create(ctx, newRow{Name: &name})
	assert.Error(t, err)
	assert.Error(t, svc.Delete(ctx, 1))
}

func TestSchema(t *testing.T) {
	assert.Equal(t, []string{"id", "name"}, testSchema.SelectColumns())
	assert.True(t, testSchema.CanOrderBy("name"))
	assert.False(t, testSchema.CanOrderBy("name; DROP TABLE rows"))
	assert.Nil(t, Str(nil))
}
