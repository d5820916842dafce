package store

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v2"

	"github.com/rodrigoprogmaster-prog/clinica/internal/domain"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool() error = %v", err)
	}
	t.Cleanup(mock.Close)
	return mock
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var undefinedTable = &pgconn.PgError{Code: "42P01", Message: `relation "consultation_types" does not exist`}

func TestGateway_List(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(mock pgxmock.PgxPoolIface)
		wantLen int
		wantErr bool
	}{
		{
			name: "rows",
			setup: func(mock pgxmock.PgxPoolIface) {
				rows := pgxmock.NewRows([]string{"id", "name", "price", "duration_minutes"}).
					AddRow("ct1", "Sessão", 150.0, 50).
					AddRow("ct2", "Avaliação", 200.0, 60)
				mock.ExpectQuery(`SELECT (.+) FROM consultation_types ORDER BY name ASC`).
					WillReturnRows(rows)
			},
			wantLen: 2,
		},
		{
			name: "missing table degrades silently",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT`).WillReturnError(undefinedTable)
			},
			wantLen: 0,
		},
		{
			name: "other error is returned with empty list",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT`).WillReturnError(errors.New("connection reset"))
			},
			wantLen: 0,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMock(t)
			tt.setup(mock)
			g := NewGateway(mock, ConsultationTypesTable, discard())

			got, err := g.List(context.Background())
			if (err != nil) != tt.wantErr {
				t.Fatalf("List() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got == nil {
				t.Fatal("List() returned nil slice")
			}
			if len(got) != tt.wantLen {
				t.Errorf("List() len = %d, want %d", len(got), tt.wantLen)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("unmet expectations: %v", err)
			}
		})
	}
}

func TestGateway_Get(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		mock := newMock(t)
		rows := pgxmock.NewRows([]string{"id", "date", "reason"}).AddRow("b1", "2025-03-10", "Congresso")
		mock.ExpectQuery(`SELECT (.+) FROM blocked_days WHERE id = \$1`).
			WithArgs("b1").
			WillReturnRows(rows)

		got, err := NewGateway(mock, BlockedDaysTable, discard()).Get(context.Background(), "b1")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got.Date != "2025-03-10" || got.Reason != "Congresso" {
			t.Errorf("Get() = %+v", got)
		}
	})

	t.Run("not found", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(`SELECT`).WithArgs(pgxmock.AnyArg()).WillReturnError(pgx.ErrNoRows)

		got, err := NewGateway(mock, BlockedDaysTable, discard()).Get(context.Background(), "nope")
		if !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("Get() error = %v, want ErrNotFound", err)
		}
		if got != nil {
			t.Errorf("Get() = %+v, want nil", got)
		}
	})

	t.Run("missing table", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(`SELECT`).WithArgs(pgxmock.AnyArg()).WillReturnError(undefinedTable)

		got, err := NewGateway(mock, BlockedDaysTable, discard()).Get(context.Background(), "b1")
		if err != nil || got != nil {
			t.Errorf("Get() = %v, %v; want nil, nil", got, err)
		}
	})
}

func TestGateway_Save(t *testing.T) {
	ct := domain.ConsultationType{ID: "ct1", Name: "Sessão", Price: 150, DurationMinutes: 50}

	tests := []struct {
		name    string
		err     error
		want    bool
		wantErr error
	}{
		{name: "upsert", want: true},
		{name: "missing table", err: undefinedTable, want: false},
		{name: "unique violation", err: &pgconn.PgError{Code: "23505"}, want: false, wantErr: domain.ErrAlreadyExists},
		{name: "not null violation", err: &pgconn.PgError{Code: "23502"}, want: false, wantErr: domain.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMock(t)
			exp := mock.ExpectExec(`INSERT INTO consultation_types \(id,name,price,duration_minutes\) VALUES \(\$1,\$2,\$3,\$4\) ON CONFLICT \(id\) DO UPDATE SET name = EXCLUDED.name, price = EXCLUDED.price, duration_minutes = EXCLUDED.duration_minutes`).
				WithArgs("ct1", "Sessão", 150.0, 50)
			if tt.err != nil {
				exp.WillReturnError(tt.err)
			} else {
				exp.WillReturnResult(pgxmock.NewResult("INSERT", 1))
			}

			got, err := NewGateway(mock, ConsultationTypesTable, discard()).Save(context.Background(), ct)
			if got != tt.want {
				t.Errorf("Save() = %v, want %v", got, tt.want)
			}
			if tt.wantErr == nil && err != nil {
				t.Errorf("Save() error = %v, want nil", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Save() error = %v, want %v", err, tt.wantErr)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("unmet expectations: %v", err)
			}
		})
	}
}

func TestGateway_Delete(t *testing.T) {
	mock := newMock(t)
	mock.ExpectExec(`DELETE FROM appointments WHERE id = \$1`).
		WithArgs("a1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(`DELETE FROM appointments`).
		WithArgs("a2").
		WillReturnError(undefinedTable)

	g := NewGateway(mock, AppointmentsTable, discard())

	ok, err := g.Delete(context.Background(), "a1")
	if !ok || err != nil {
		t.Errorf("Delete(a1) = %v, %v; want true, nil", ok, err)
	}
	ok, err = g.Delete(context.Background(), "a2")
	if ok || err != nil {
		t.Errorf("Delete(a2) = %v, %v; want false, nil", ok, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPatientsTable_NilAnamnesis(t *testing.T) {
	vals := PatientsTable.Values(domain.Patient{ID: "p1"})
	if len(vals) != len(PatientsTable.Columns) {
		t.Fatalf("Values() len = %d, want %d", len(vals), len(PatientsTable.Columns))
	}
	m, ok := vals[7].(map[string]any)
	if !ok || m == nil {
		t.Errorf("anamnesis = %#v, want empty map", vals[7])
	}
}

func TestSettingsGateway(t *testing.T) {
	t.Run("get missing key", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(`SELECT value FROM app_settings WHERE key = \$1`).
			WithArgs("password").
			WillReturnError(pgx.ErrNoRows)

		v, ok, err := NewSettingsGateway(mock, discard()).Get(context.Background(), "password")
		if v != "" || ok || err != nil {
			t.Errorf("Get() = %q, %v, %v", v, ok, err)
		}
	})

	t.Run("set upserts", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectExec(`INSERT INTO app_settings (.+) ON CONFLICT \(key\) DO UPDATE SET value = EXCLUDED.value`).
			WithArgs("profileImage", "data:image/png;base64,AAA").
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		ok, err := NewSettingsGateway(mock, discard()).Set(context.Background(), "profileImage", "data:image/png;base64,AAA")
		if !ok || err != nil {
			t.Errorf("Set() = %v, %v", ok, err)
		}
	})

	t.Run("all on missing table", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(`SELECT key, value FROM app_settings`).WillReturnError(undefinedTable)

		all, err := NewSettingsGateway(mock, discard()).All(context.Background())
		if err != nil || all == nil || len(all) != 0 {
			t.Errorf("All() = %v, %v; want empty map, nil", all, err)
		}
	})

	t.Run("all", func(t *testing.T) {
		mock := newMock(t)
		rows := pgxmock.NewRows([]string{"key", "value"}).
			AddRow("password", "x").
			AddRow("signatureImage", "y")
		mock.ExpectQuery(`SELECT key, value FROM app_settings`).WillReturnRows(rows)

		all, err := NewSettingsGateway(mock, discard()).All(context.Background())
		if err != nil {
			t.Fatalf("All() error = %v", err)
		}
		if all["password"] != "x" || all["signatureImage"] != "y" {
			t.Errorf("All() = %v", all)
		}
	})
}
