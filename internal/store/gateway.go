package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"github.com/rodrigoprogmaster-prog/clinica/internal/domain"
)

// Table describes how an entity maps onto its Postgres table. Columns[0]
// must be the primary key.
type Table[T domain.Entity] struct {
	Name    string
	Columns []string
	OrderBy string
	Values  func(T) []any
}

// Gateway offers list / get / save (upsert) / delete over one table.
//
// A missing table (42P01) is not fatal: it is logged as a warning and the
// degraded value (empty list, nil, false) is returned with a nil error. Every
// other failure is logged as an error and returned alongside the same
// degraded value, so callers may either ignore it or surface it.
type Gateway[T domain.Entity] struct {
	q     Querier
	table Table[T]
	log   *slog.Logger
}

func NewGateway[T domain.Entity](q Querier, table Table[T], log *slog.Logger) *Gateway[T] {
	return &Gateway[T]{
		q:     q,
		table: table,
		log:   log.With("table", table.Name),
	}
}

func (g *Gateway[T]) Name() string { return g.table.Name }

func (g *Gateway[T]) List(ctx context.Context) ([]T, error) {
	query := psql.Select(g.table.Columns...).From(g.table.Name)
	if g.table.OrderBy != "" {
		query = query.OrderBy(g.table.OrderBy)
	}

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return []T{}, err
	}

	var out []T
	if err := pgxscan.Select(ctx, g.q, &out, sqlStr, args...); err != nil {
		return []T{}, g.degrade(ctx, "list", "", err)
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

// Get returns nil with a wrapped domain.ErrNotFound when the row is missing.
func (g *Gateway[T]) Get(ctx context.Context, id string) (*T, error) {
	sqlStr, args, err := psql.Select(g.table.Columns...).
		From(g.table.Name).
		Where(sq.Eq{g.table.Columns[0]: id}).
		ToSql()
	if err != nil {
		return nil, err
	}

	var out T
	if err := pgxscan.Get(ctx, g.q, &out, sqlStr, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) || pgxscan.NotFound(err) {
			return nil, fmt.Errorf("%s %s: %w", g.table.Name, id, domain.ErrNotFound)
		}
		return nil, g.degrade(ctx, "get", id, err)
	}
	return &out, nil
}

// Save upserts item by primary key. It reports whether the row was written.
func (g *Gateway[T]) Save(ctx context.Context, item T) (bool, error) {
	key := g.table.Columns[0]

	updates := make([]string, 0, len(g.table.Columns)-1)
	for _, c := range g.table.Columns[1:] {
		updates = append(updates, c+" = EXCLUDED."+c)
	}

	sqlStr, args, err := psql.Insert(g.table.Name).
		Columns(g.table.Columns...).
		Values(g.table.Values(item)...).
		Suffix("ON CONFLICT (" + key + ") DO UPDATE SET " + strings.Join(updates, ", ")).
		ToSql()
	if err != nil {
		return false, err
	}

	if _, err := g.q.Exec(ctx, sqlStr, args...); err != nil {
		return false, g.degrade(ctx, "save", item.Key(), err)
	}
	return true, nil
}

// Delete removes the row with id. Deleting a missing row is not an error.
func (g *Gateway[T]) Delete(ctx context.Context, id string) (bool, error) {
	sqlStr, args, err := psql.Delete(g.table.Name).
		Where(sq.Eq{g.table.Columns[0]: id}).
		ToSql()
	if err != nil {
		return false, err
	}

	if _, err := g.q.Exec(ctx, sqlStr, args...); err != nil {
		return false, g.degrade(ctx, "delete", id, err)
	}
	return true, nil
}

func (g *Gateway[T]) degrade(ctx context.Context, op, id string, err error) error {
	if IsUndefinedTable(err) {
		g.log.WarnContext(ctx, "table does not exist, returning empty result",
			slog.String("op", op),
		)
		return nil
	}

	g.log.ErrorContext(ctx, "gateway operation failed",
		slog.String("op", op),
		slog.String("id", id),
		slog.Any("error", err),
	)
	return mapError(err, g.table.Name, id)
}
