package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
)

func TestCreateAdminRequiresEmail(t *testing.T) {
	cmd := newRootCommand()
	cmd.SetArgs([]string{"create-admin", "--password", "pw"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "email") {
		t.Fatalf("want missing email error, got %v", err)
	}
}

func TestCreateAdminOnSQLite(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("LOG_MODE", "test")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", filepath.Join(t.TempDir(), "cli.db"))
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("METRICS_ENABLED", "false")
	t.Setenv("OTEL_ENABLED", "false")
	t.Setenv("BCRYPT_COST", "4")

	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetArgs([]string{"create-admin", "--email", "Ops@Example.com", "--password", "pw"})
	cmd.SetOut(&out)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("create-admin: %v", err)
	}
	if !strings.HasPrefix(out.String(), "admin ready: ops@example.com") {
		t.Fatalf("output: got=%q", out.String())
	}
}
