// Package testutil provides the PocketBase test app and an in-memory
// websocket connection used by tests across the module.
package testutil

import (
	"testing"

	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tests"

	_ "github.com/jhalickman/live-poll/pb_migrations"
)

// NewTestApp creates a PocketBase test instance backed by a temporary
// data directory. The module's migrations run on bootstrap, so the
// live poll collections are ready to use. Cleanup is automatic.
func NewTestApp(t *testing.T) core.App {
	t.Helper()

	app, err := tests.NewTestApp(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create test app: %v", err)
	}
	t.Cleanup(app.Cleanup)

	return app
}

// CreateTestOwner creates an auth record to act as a poll owner and
// returns its id.
func CreateTestOwner(t *testing.T, app core.App, email string) string {
	t.Helper()

	collection, err := app.FindCollectionByNameOrId("users")
	if err != nil {
		t.Fatalf("Failed to find users collection: %v", err)
	}

	record := core.NewRecord(collection)
	record.Set("email", email)
	record.Set("password", "test-password-123")

	if err := app.Save(record); err != nil {
		t.Fatalf("Failed to create test owner: %v", err)
	}
	return record.Id
}
