//go:build pact
// +build pact

package pacttest

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

const (
	ProviderName = "inventory-api"
	ConsumerName = "inventory-portal"

	StateCatalogBaseline = "catalog with one category"
	StateProductInStock  = "product 1 has 5 units in stock"
	StateProductLowStock = "product 1 has 1 unit in stock"
	StateProductMissing  = "no product with id 404"
)

const (
	// UserToken and AdminToken are seeded into the provider's token store.
	UserToken  = "pact-user-token"
	AdminToken = "pact-admin-token"

	ExistingProductID int64 = 1
	MissingProductID  int64 = 404
	ExampleUnitPrice        = "10.00"
)

// PactDir returns the workspace-level directory for generated pact files.
func PactDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "pacts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact dir: %v", err)
	}
	return dir
}

// PactFile returns the canonical pact file path for the inventory portal consumer.
func PactFile(t testing.TB) string {
	t.Helper()
	return filepath.Join(PactDir(t), ConsumerName+"-"+ProviderName+".json")
}

// LogDir returns the log output directory for pact-go.
func LogDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "bin", "pact-logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact log dir: %v", err)
	}
	return dir
}

// ExampleOrderPayload orders two units of the seeded product.
func ExampleOrderPayload() map[string]any {
	return map[string]any{
		"userName":  "Pact Customer",
		"userEmail": "pact.customer@example.com",
		"lines": []map[string]any{
			{"productId": ExistingProductID, "quantity": 2},
		},
	}
}

// projectRoot walks up from this file to the workspace root.
func projectRoot(t testing.TB) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot determine caller for pact paths")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(file), "..", ".."))
}
