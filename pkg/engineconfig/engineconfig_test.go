package engineconfig

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "engine.yaml")
	contents := `
mounts:
  - virtual: /Game/Content
    real: /data/game
  - virtual: /Engine/Content
    real: /data/engine
discovery_workers: 8
object_table_capacity: 4096
`
	if err := os.WriteFile(cfgPath, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(cfgPath, "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DiscoveryWorkers != 8 {
		t.Fatalf("DiscoveryWorkers = %d, want 8", cfg.DiscoveryWorkers)
	}
	if cfg.ObjectTableCapacity != 4096 {
		t.Fatalf("ObjectTableCapacity = %d, want 4096", cfg.ObjectTableCapacity)
	}
	if len(cfg.Mounts) != 2 {
		t.Fatalf("Mounts = %v, want 2 entries", cfg.Mounts)
	}

	mt := cfg.MountTable()
	got, ok := mt.Resolve("/Game/Content/Foo.lasset")
	if !ok || got != "/data/game/Foo.lasset" {
		t.Fatalf("MountTable Resolve = %q, %v", got, ok)
	}
}

func TestLoadWithoutConfigPathUsesDefaults(t *testing.T) {
	cfg, err := Load("", "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DiscoveryWorkers != 0 || cfg.ObjectTableCapacity != 0 {
		t.Fatalf("expected zero defaults, got %+v", cfg)
	}
}
