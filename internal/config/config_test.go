package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	c, err := loadFile(filepath.Join(t.TempDir(), "config.json"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c != Default() {
		t.Errorf("config = %+v, want defaults", c)
	}
}

func TestLoadPartialFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(p, []byte(`{"log_level":"debug","pool":{"connect_timeout":"3s"}}`), 0o600); err != nil {
		t.Fatal(err)
	}

	c, err := loadFile(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", c.LogLevel)
	}
	if time.Duration(c.Pool.ConnectTimeout) != 3*time.Second {
		t.Errorf("ConnectTimeout = %v, want 3s", time.Duration(c.Pool.ConnectTimeout))
	}
	if c.Pool.MaxConns != DefaultMaxConns {
		t.Errorf("MaxConns = %d, want %d", c.Pool.MaxConns, DefaultMaxConns)
	}
	if c.Server.Listen != DefaultListen {
		t.Errorf("Listen = %q, want %q", c.Server.Listen, DefaultListen)
	}
}

func TestLoadInvalidDuration(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(p, []byte(`{"pool":{"connect_timeout":10}}`), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := loadFile(p); err == nil {
		t.Error("expected error for numeric duration")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.json")
	want := Default()
	want.Server.Listen = "0.0.0.0:9000"
	want.Pool.MaxConns = 4

	if err := saveFile(p, want); err != nil {
		t.Fatalf("saveFile() error = %v", err)
	}
	info, err := os.Stat(p)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("perm = %o, want 600", perm)
	}

	got, err := loadFile(p)
	if err != nil {
		t.Fatalf("loadFile() error = %v", err)
	}
	if got != want {
		t.Errorf("loaded = %+v, want %+v", got, want)
	}
}
