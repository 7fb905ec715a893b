package fs

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

const identityFileName = "identity.json"

// Identity is the persisted device identity.
type Identity struct {
	DeviceID  string    `json:"device_id"`
	CreatedAt time.Time `json:"created_at"`
}

// IdentityFile stores the device identity as JSON in a state directory.
type IdentityFile struct {
	dir string
	now func() time.Time
}

// NewIdentityFile creates an IdentityFile for the given directory.
func NewIdentityFile(dir string) *IdentityFile {
	return &IdentityFile{dir: dir, now: time.Now}
}

// Load reads the stored identity.
// Returns a zero Identity and nil error if no file exists yet.
func (r *IdentityFile) Load() (Identity, error) {
	data, err := os.ReadFile(r.Path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Identity{}, nil
		}
		return Identity{}, err
	}

	var id Identity
	if err := json.Unmarshal(data, &id); err != nil {
		return Identity{}, fmt.Errorf("parse %s: %w", r.Path(), err)
	}
	return id, nil
}

// Save persists id atomically (temp file, then rename).
func (r *IdentityFile) Save(id Identity) error {
	if err := os.MkdirAll(r.dir, 0o700); err != nil {
		return err
	}

	path := r.Path()
	tmp := path + ".tmp"

	data, err := json.MarshalIndent(id, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Ensure returns the stored identity, creating and saving a random one on
// first use.
func (r *IdentityFile) Ensure() (Identity, error) {
	id, err := r.Load()
	if err != nil {
		return Identity{}, err
	}
	if id.DeviceID != "" {
		return id, nil
	}

	id = Identity{DeviceID: uuid.NewString(), CreatedAt: r.now().UTC()}
	if err := r.Save(id); err != nil {
		return Identity{}, err
	}
	return id, nil
}

// Path returns the full path to the identity file.
func (r *IdentityFile) Path() string {
	return filepath.Join(r.dir, identityFileName)
}
