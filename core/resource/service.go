// Package resource implements the list/create/delete contract shared by every
// managed club resource (events, team members, achievements).
package resource

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/erise-club/website/core"
)

type (
	// Schema describes how a resource is stored and listed.
	Schema struct {
		Name      string            // URL segment, e.g. "events"
		Table     string            // database table
		Columns   []string          // every column except "id"
		Ordering  []core.DBOrdering // default list ordering
		Orderable []string          // columns clients may order by
	}

	// Input is the flat field set supplied on create.
	Input interface {
		Values() map[string]interface{}
	}

	Repository[T any] interface {
		QueryAll(ctx context.Context, ordering []core.DBOrdering) ([]T, error)
		// Create inserts a row and returns its new identifier.
		Create(ctx context.Context, values map[string]interface{}) (int64, error)
		// DeleteByID does not fail on missing identifiers.
		DeleteByID(ctx context.Context, ids ...int64) error
	}

	Service[T any, N Input] struct {
		schema Schema
		repo   Repository[T]
	}
)

func (s Schema) CanOrderBy(field string) bool {
	for _, f := range s.Orderable {
		if f == field {
			return true
		}
	}
	return false
}

// SelectColumns returns "id" followed by every data column.
func (s Schema) SelectColumns() []string {
	cols := make([]string, 0, len(s.Columns)+1)
	cols = append(cols, "id")
	return append(cols, s.Columns...)
}

func NewService[T any, N Input](schema Schema, repo Repository[T]) *Service[T, N] {
	return &Service[T, N]{schema: schema, repo: repo}
}

func (svc *Service[T, N]) Schema() Schema { return svc.schema }

// Query lists every row, using the default ordering when none is given.
func (svc *Service[T, N]) Query(ctx context.Context, ordering []core.DBOrdering) ([]T, error) {
	if len(ordering) == 0 {
		ordering = svc.schema.Ordering
	}
	for _, ord := range ordering {
		if !svc.schema.CanOrderBy(ord.Field) {
			msg := fmt.Sprintf("cannot order by %q", ord.Field)
			return nil, core.NewValidationError(errors.New(msg), core.FieldError{Field: "ordering", Error: msg})
		}
	}

	rows, err := svc.repo.QueryAll(ctx, ordering)
	if err != nil {
		return nil, errors.Wrapf(err, "querying %s", svc.schema.Name)
	}
	if rows == nil {
		rows = []T{}
	}
	return rows, nil
}

func (svc *Service[T, N]) Create(ctx context.Context, data N) (int64, error) {
	id, err := svc.repo.Create(ctx, data.Values())
	if err != nil {
		return 0, errors.Wrapf(err, "creating %s", svc.schema.Name)
	}
	return id, nil
}

func (svc *Service[T, N]) Delete(ctx context.Context, id int64) error {
	if err := svc.repo.DeleteByID(ctx, id); err != nil {
		return errors.Wrapf(err, "deleting %s", svc.schema.Name)
	}
	return nil
}

// Str unwraps a required text field; a missing value is passed on as NULL.
func Str(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}
