package database

import (
	"strings"
	"testing"
	"time"

	"github.com/rodrigoprogmaster-prog/clinica/config"
)

func TestDSN(t *testing.T) {
	cfg := Config{Host: "db", Port: 5433, User: "clinica", Password: "p@ss word", DBName: "clinica"}

	dsn := cfg.DSN()

	if !strings.HasPrefix(dsn, "postgres://clinica:") {
		t.Errorf("DSN() = %s, want postgres:// scheme with user", dsn)
	}
	if !strings.Contains(dsn, "@db:5433/clinica") {
		t.Errorf("DSN() = %s, want host, port and db name", dsn)
	}
	if !strings.HasSuffix(dsn, "sslmode=disable") {
		t.Errorf("DSN() = %s, want default sslmode=disable", dsn)
	}
	if strings.Contains(dsn, "p@ss word") {
		t.Errorf("DSN() = %s, password must be escaped", dsn)
	}
}

func TestFromCentralConfig(t *testing.T) {
	c := config.DatabaseConfig{
		Host:    "localhost",
		Port:    5432,
		DBName:  "clinica",
		SSLMode: "require",
		Pool: config.DatabasePoolConfig{
			MaxConns:           20,
			ConnMaxLifetimeMin: 0,
		},
	}

	got := FromCentralConfig(c)

	if got.MaxConns != 20 {
		t.Errorf("MaxConns = %d, want 20", got.MaxConns)
	}
	if got.ConnMaxLifetime() != 30*time.Minute {
		t.Errorf("ConnMaxLifetime() = %v, want default 30m", got.ConnMaxLifetime())
	}
	if !strings.HasSuffix(got.DSN(), "sslmode=require") {
		t.Errorf("DSN() = %s, want sslmode=require", got.DSN())
	}
}
