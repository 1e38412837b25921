package payments

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/stretchr/testify/require"
)

// testClient connects to the Firestore emulator. Tests that need a live
// store skip when no emulator is running.
func testClient(t *testing.T) *firestore.Client {
	t.Helper()
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}
	fs, err := firestore.NewClient(context.Background(), "demo-firewand")
	require.NoError(t, err)
	t.Cleanup(func() { fs.Close() })
	return fs
}

// testConfig returns a config with collection names unique to the test,
// so runs never see each other's documents.
func testConfig() Config {
	n := time.Now().UnixNano()
	cfg := Config{
		CustomersCollection: fmt.Sprintf("customers-%d", n),
		ProductsCollection:  fmt.Sprintf("products-%d", n),
	}
	cfg.applyDefaults()
	return cfg
}
