package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/tbourn/go-repair-scheduler/internal/config"
)

func TestOpenBackend(t *testing.T) {
	dir := t.TempDir()
	cases := []struct {
		name   string
		cfg    config.StorageConfig
		wantDB bool
	}{
		{"sqlite", config.StorageConfig{Backend: "sqlite", DBPath: filepath.Join(dir, "nested", "app.db")}, true},
		{"bolt", config.StorageConfig{Backend: "bolt", BoltPath: filepath.Join(dir, "a.bolt")}, false},
		{"file", config.StorageConfig{Backend: "file", Dir: filepath.Join(dir, "blobs")}, false},
		{"memory", config.StorageConfig{Backend: "memory"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			be, err := openBackend(tc.cfg)
			if err != nil {
				t.Fatalf("openBackend: %v", err)
			}
			defer func() {
				if err := be.close(); err != nil {
					t.Errorf("close: %v", err)
				}
			}()
			if (be.db != nil) != tc.wantDB {
				t.Fatalf("db present = %v; want %v", be.db != nil, tc.wantDB)
			}

			ctx := context.Background()
			if err := be.store.Set(ctx, "@appointments", "[]"); err != nil {
				t.Fatalf("Set: %v", err)
			}
			v, ok, err := be.store.Get(ctx, "@appointments")
			if err != nil || !ok || v != "[]" {
				t.Fatalf("Get = %q, %v, %v", v, ok, err)
			}
			if err := be.ready(ctx, "@appointments"); err != nil {
				t.Fatalf("ready: %v", err)
			}
		})
	}
}

func TestOpenBackend_Unknown(t *testing.T) {
	if _, err := openBackend(config.StorageConfig{Backend: "redis"}); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}
