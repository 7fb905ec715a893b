package fs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestIdentityFile_EnsureCreatesOnce(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "state")
	f := NewIdentityFile(dir)
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	f.now = func() time.Time { return fixed }

	first, err := f.Ensure()
	if err != nil {
		t.Fatalf("Ensure() error = %v", err)
	}
	if _, err := uuid.Parse(first.DeviceID); err != nil {
		t.Errorf("DeviceID %q is not a uuid: %v", first.DeviceID, err)
	}
	if !first.CreatedAt.Equal(fixed) {
		t.Errorf("CreatedAt = %v, want %v", first.CreatedAt, fixed)
	}

	second, err := NewIdentityFile(dir).Ensure()
	if err != nil {
		t.Fatalf("second Ensure() error = %v", err)
	}
	if second.DeviceID != first.DeviceID {
		t.Errorf("DeviceID changed: %q -> %q", first.DeviceID, second.DeviceID)
	}

	info, err := os.Stat(f.Path())
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("mode = %v, want 0600", info.Mode().Perm())
	}
	if _, err := os.Stat(f.Path() + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file left behind")
	}
}

func TestIdentityFile_LoadMissing(t *testing.T) {
	id, err := NewIdentityFile(t.TempDir()).Load()
	if err != nil || id.DeviceID != "" {
		t.Errorf("Load() = %+v, %v; want zero, nil", id, err)
	}
}

func TestIdentityFile_LoadCorrupt(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, identityFileName), []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := NewIdentityFile(dir).Ensure(); err == nil {
		t.Error("Ensure() over corrupt file succeeded")
	}
}

func TestIdentityFile_SaveKeepsExplicitID(t *testing.T) {
	f := NewIdentityFile(t.TempDir())
	if err := f.Save(Identity{DeviceID: "phone-7"}); err != nil {
		t.Fatal(err)
	}
	id, err := f.Ensure()
	if err != nil || id.DeviceID != "phone-7" {
		t.Errorf("Ensure() = %+v, %v", id, err)
	}
}
