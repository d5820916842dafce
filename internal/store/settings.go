package store

import (
	"context"
	"errors"
	"log/slog"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
)

const settingsTable = "app_settings"

// SettingsGateway reads and writes app_settings rows by string key, with the
// same degradation rules as Gateway.
type SettingsGateway struct {
	q   Querier
	log *slog.Logger
}

func NewSettingsGateway(q Querier, log *slog.Logger) *SettingsGateway {
	return &SettingsGateway{q: q, log: log.With("table", settingsTable)}
}

// Get returns the value for key and whether it exists.
func (g *SettingsGateway) Get(ctx context.Context, key string) (string, bool, error) {
	sqlStr, args, err := psql.Select("value").From(settingsTable).Where(sq.Eq{"key": key}).ToSql()
	if err != nil {
		return "", false, err
	}

	var value string
	if err := g.q.QueryRow(ctx, sqlStr, args...).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, g.degrade(ctx, "get", key, err)
	}
	return value, true, nil
}

func (g *SettingsGateway) Set(ctx context.Context, key, value string) (bool, error) {
	sqlStr, args, err := psql.Insert(settingsTable).
		Columns("key", "value").
		Values(key, value).
		Suffix("ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value").
		ToSql()
	if err != nil {
		return false, err
	}

	if _, err := g.q.Exec(ctx, sqlStr, args...); err != nil {
		return false, g.degrade(ctx, "set", key, err)
	}
	return true, nil
}

// All returns every stored setting.
func (g *SettingsGateway) All(ctx context.Context) (map[string]string, error) {
	sqlStr, args, err := psql.Select("key", "value").From(settingsTable).ToSql()
	if err != nil {
		return map[string]string{}, err
	}

	rows, err := g.q.Query(ctx, sqlStr, args...)
	if err != nil {
		return map[string]string{}, g.degrade(ctx, "all", "", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return map[string]string{}, g.degrade(ctx, "all", "", err)
		}
		out[k] = v
	}
	if err := rows.Err(); err != nil {
		return map[string]string{}, g.degrade(ctx, "all", "", err)
	}
	return out, nil
}

func (g *SettingsGateway) degrade(ctx context.Context, op, key string, err error) error {
	if IsUndefinedTable(err) {
		g.log.WarnContext(ctx, "table does not exist, returning empty result", slog.String("op", op))
		return nil
	}
	g.log.ErrorContext(ctx, "settings operation failed",
		slog.String("op", op),
		slog.String("key", key),
		slog.Any("error", err),
	)
	return mapError(err, settingsTable, key)
}
