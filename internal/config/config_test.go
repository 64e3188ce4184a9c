package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
env: dev
http_server:
  address: localhost:8082
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Storage.Driver != "sqlite" {
		t.Errorf("Storage.Driver = %q, want sqlite", cfg.Storage.Driver)
	}
	if cfg.Auth.AdminToken != "dev-token" {
		t.Errorf("Auth.AdminToken = %q, want dev-token", cfg.Auth.AdminToken)
	}
	if cfg.Answers.LockResolved {
		t.Error("Answers.LockResolved should default to false")
	}
	if cfg.Answers.MinLength != 10 {
		t.Errorf("Answers.MinLength = %d, want 10", cfg.Answers.MinLength)
	}
	if cfg.Notification.Provider != "console" {
		t.Errorf("Notification.Provider = %q, want console", cfg.Notification.Provider)
	}
	if cfg.Notification.SendTimeout != 30*time.Second {
		t.Errorf("Notification.SendTimeout = %v, want 30s", cfg.Notification.SendTimeout)
	}
	if cfg.HTTPServer.ReadTimeout != 10*time.Second {
		t.Errorf("HTTPServer.ReadTimeout = %v, want 10s", cfg.HTTPServer.ReadTimeout)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("ANSWERS_LOCK_RESOLVED", "true")

	path := writeConfig(t, `
env: prod
storage:
  driver: sqlite
http_server:
  address: :8080
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Storage.Driver != "memory" {
		t.Errorf("Storage.Driver = %q, want memory from env", cfg.Storage.Driver)
	}
	if !cfg.Answers.LockResolved {
		t.Error("Answers.LockResolved should be true from env")
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "unknown driver",
			body: "env: dev\nstorage:\n  driver: mongo\nhttp_server:\n  address: :1\n",
			want: "storage.driver",
		},
		{
			name: "smtp without host",
			body: "env: dev\nnotification:\n  provider: smtp\nhttp_server:\n  address: :1\n",
			want: "smtp.host",
		},
		{
			name: "negative workers",
			body: "env: dev\nnotification:\n  workers: -1\nhttp_server:\n  address: :1\n",
			want: "workers",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
