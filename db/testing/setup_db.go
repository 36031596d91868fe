// Package testing allows for spinning up a real resolver bbolt database for
// unit tests.
package testing

import (
	"testing"

	"github.com/restakelabs/resolver/db/iface"
	"github.com/restakelabs/resolver/db/kv"
	"github.com/restakelabs/resolver/types"
)

// SetupDB instantiates and returns a resolver database backed by a temporary
// directory, torn down automatically at the end of the test.
func SetupDB(t testing.TB, programID types.PublicKey) iface.Database {
	store, err := kv.NewKVStore(t.TempDir(), &kv.Config{ProgramID: programID})
	if err != nil {
		t.Fatalf("Failed to instantiate DB: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("Failed to close database: %v", err)
		}
	})
	return store
}
