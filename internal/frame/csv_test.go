package frame

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCSV_UTF8(t *testing.T) {
	path := filepath.Join(t.TempDir(), "batch.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b\n1,méxico\n"), 0o644))

	tb, err := ReadCSV(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, tb.Columns())
	assert.Equal(t, "méxico", tb.Get(0, "b"))
}

func TestReadCSV_Latin1Fallback(t *testing.T) {
	// "Cuauhtémoc" with é as Latin-1 0xE9, invalid as UTF-8.
	data := append([]byte("name\nCuauht"), 0xE9)
	data = append(data, []byte("moc\n")...)

	path := filepath.Join(t.TempDir(), "latin1.csv")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	tb, err := ReadCSV(path)
	require.NoError(t, err)
	assert.Equal(t, "Cuauhtémoc", tb.Get(0, "name"))
}

func TestReadCSV_BOM(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("a\n1\n")...)
	path := filepath.Join(t.TempDir(), "bom.csv")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	tb, err := ReadCSV(path)
	require.NoError(t, err)
	assert.True(t, tb.HasColumn("a"))
}

func TestReadCSV_MissingFile(t *testing.T) {
	_, err := ReadCSV(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "nope.csv")
}

func TestWriteCSV_RoundTrip(t *testing.T) {
	tb, err := FromRecords([]string{"a", "b"}, [][]string{{"1", "x"}, {"2", ""}})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "out", "clean.csv")
	require.NoError(t, WriteCSV(tb, path))

	back, err := ReadCSV(path)
	require.NoError(t, err)
	assert.Equal(t, tb.Columns(), back.Columns())
	assert.Equal(t, tb.Records(), back.Records())
}
