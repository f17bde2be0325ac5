package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "rows.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadRows(t *testing.T) {
	path := writeCSV(t, "Date, Customer ,Total_Amount\n2025-01-05,John Smith, 500 \n2025-01-06,Alice Wong,120\n")

	rows, err := LoadRows(path)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	// Headers are lowercased and trimmed; values are trimmed.
	assert.Equal(t, "2025-01-05", rows[0]["date"])
	assert.Equal(t, "John Smith", rows[0]["customer"])
	assert.Equal(t, "500", rows[0]["total_amount"])
	assert.Equal(t, "Alice Wong", rows[1]["customer"])
}

func TestLoadRows_RaggedRows(t *testing.T) {
	path := writeCSV(t, "date,customer,amount\n2025-01-05,John Smith\n2025-01-06,Alice Wong,120,extra\n")

	rows, err := LoadRows(path)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	// Short rows leave trailing fields unset; long rows drop the excess.
	_, ok := rows[0]["amount"]
	assert.False(t, ok)
	assert.Equal(t, "120", rows[1]["amount"])
}

func TestLoadRows_EmptyFile(t *testing.T) {
	path := writeCSV(t, "")

	_, err := LoadRows(path)
	assert.Error(t, err)
}

func TestLoadRows_MissingFile(t *testing.T) {
	_, err := LoadRows(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}
