package testsupport

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
)

// Task is the record type used across the module's tests and examples. It
// owns its rows through the conventional user_id column.
type Task struct {
	ID     string `json:"id" bun:"id,pk" msgpack:"id"`
	UserID string `json:"user_id" bun:"user_id" msgpack:"user_id"`
	Title  string `json:"title" bun:"title" msgpack:"title"`
	Status string `json:"status" bun:"status" msgpack:"status"`
}

// RecordID implements scopedcache.Owned.
func (t *Task) RecordID() string { return t.ID }

// OwnerID implements scopedcache.Owned.
func (t *Task) OwnerID() string { return t.UserID }

// SetOwner implements scopedcache.Owned.
func (t *Task) SetOwner(id string) { t.UserID = id }

// NewTask builds a task fixture with a fresh identifier.
func NewTask(owner, title string) *Task {
	return &Task{
		ID:     uuid.New().String(),
		UserID: owner,
		Title:  title,
		Status: "open",
	}
}

// LoadFixtureJSON loads JSON test data from a fixture file and unmarshals
// it. The path is relative to the test package directory.
func LoadFixtureJSON(t *testing.T, path string, dest any) {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to load fixture from %s: %v", path, err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		t.Fatalf("failed to unmarshal JSON fixture from %s: %v", path, err)
	}
}

// FixturePath constructs a path to a fixture file relative to the testdata
// directory.
func FixturePath(filename string) string {
	return filepath.Join("testdata", filename)
}
