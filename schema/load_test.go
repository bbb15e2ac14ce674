package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const catalogYAML = `name: acme
objects:
  customer:
    label: Customer
    fields:
      - name: id
        type: id
      - name: email
        type: string
      - name: created
        type: timestamp
  payment:
    label: Payment
    fields:
      - name: id
        type: id
      - name: customer_id
        type: id
      - name: amount
        type: number
        unit: currency
      - name: status
        type: enum
        enum: [succeeded, failed]
      - name: created
        type: timestamp
relationships:
  - source: payment
    sourceField: customer_id
    target: customer
    targetField: id
`

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	cat, err := Load(writeCatalog(t, catalogYAML))
	require.NoError(t, err)

	require.Equal(t, "acme", cat.Name)
	require.Len(t, cat.Objects, 2)

	f, ok := cat.Field("payment", "amount")
	require.True(t, ok)
	require.Equal(t, TypeNumber, f.Type)
	require.Equal(t, "currency", f.Unit)

	f, _ = cat.Field("payment", "status")
	require.Equal(t, []string{"succeeded", "failed"}, f.Enum)

	require.Len(t, cat.Relationships, 1)
	require.Equal(t, "customer", cat.Relationships[0].Target)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadInvalidCatalog(t *testing.T) {
	bad := `name: acme
objects:
  payment:
    label: Payment
    fields:
      - name: id
        type: id
relationships:
  - source: payment
    sourceField: customer_id
    target: customer
    targetField: id
`
	_, err := Load(writeCatalog(t, bad))
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid catalog")
}
