package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "engine.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadAppliesDefaultsForMissingFields(t *testing.T) {
	path := writeConfig(t, "data_dir: /tmp/blinkstore\n")
	opts, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if opts.PageSize != 4096 {
		t.Fatalf("expected default page_size 4096, got %d", opts.PageSize)
	}
	if opts.PoolCapacity != 256 {
		t.Fatalf("expected default pool_capacity 256, got %d", opts.PoolCapacity)
	}
	if opts.DataDir != "/tmp/blinkstore" {
		t.Fatalf("expected data_dir to round-trip, got %q", opts.DataDir)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, "page_size: 8192\npool_capacity: 64\n")
	opts, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if opts.PageSize != 8192 || opts.PoolCapacity != 64 {
		t.Fatalf("expected overrides to apply, got %+v", opts)
	}
}

func TestNewBufferPoolHonorsPageSize(t *testing.T) {
	opts := Options{PageSize: 2048, PoolCapacity: 4}
	bp := opts.NewBufferPool()
	if bp.PageDataSize() != 2048 {
		t.Fatalf("expected pool page size 2048, got %d", bp.PageDataSize())
	}
	if bp.Capacity() != 4 {
		t.Fatalf("expected pool capacity 4, got %d", bp.Capacity())
	}
}
