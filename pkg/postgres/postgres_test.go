package postgres

import (
	"strings"
	"testing"
)

func TestConfig_DSN(t *testing.T) {
	cfg := &Config{
		Host:     "db",
		Port:     5432,
		User:     "relay",
		Password: "p@ss word",
		Name:     "relay",
	}

	dsn := cfg.DSN()

	if !strings.HasPrefix(dsn, "postgres://relay:") {
		t.Errorf("DSN() = %q, want postgres:// scheme with user", dsn)
	}
	if !strings.Contains(dsn, "@db:5432/relay") {
		t.Errorf("DSN() = %q, want host, port and database", dsn)
	}
	if !strings.HasSuffix(dsn, "sslmode=disable") {
		t.Errorf("DSN() = %q, want default sslmode=disable", dsn)
	}
	if strings.Contains(dsn, "p@ss word") {
		t.Errorf("DSN() = %q, password is not escaped", dsn)
	}
}
