package frame

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// ReadCSV reads a delimited-text file into a table, trying UTF-8 first and
// falling back to Latin-1 and Windows-1252 for files exported from legacy
// tooling. The first record is the header.
func ReadCSV(path string) (*Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "frame: read %s", path)
	}

	var lastErr error
	for _, dec := range []struct {
		name string
		enc  *encoding.Decoder
	}{
		{"utf-8", nil},
		{"latin-1", charmap.ISO8859_1.NewDecoder()},
		{"windows-1252", charmap.Windows1252.NewDecoder()},
	} {
		data := raw
		if dec.enc == nil {
			if !utf8.Valid(raw) {
				lastErr = eris.New("invalid UTF-8")
				continue
			}
		} else {
			data, err = dec.enc.Bytes(raw)
			if err != nil {
				lastErr = err
				continue
			}
		}
		t, err := parseCSV(data)
		if err != nil {
			lastErr = err
			continue
		}
		return t, nil
	}
	return nil, eris.Wrapf(lastErr, "frame: could not decode %s with any supported encoding", path)
}

func parseCSV(data []byte) (*Table, error) {
	// Strip a UTF-8 BOM if present so the first header cell parses clean.
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})

	r := csv.NewReader(bytes.NewReader(data))
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "frame: parse csv")
	}
	if len(records) == 0 {
		return nil, eris.New("frame: empty csv")
	}
	return FromRecords(records[0], records[1:])
}

// WriteCSV writes the table as UTF-8 CSV, creating parent directories as
// needed.
func WriteCSV(t *Table, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return eris.Wrapf(err, "frame: mkdir %s", dir)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "frame: create %s", path)
	}
	defer f.Close() //nolint:errcheck

	w := csv.NewWriter(f)
	if err := w.Write(t.Columns()); err != nil {
		return eris.Wrap(err, "frame: write header")
	}
	for _, rec := range t.Records() {
		if err := w.Write(rec); err != nil {
			return eris.Wrap(err, "frame: write record")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return eris.Wrapf(err, "frame: flush %s", path)
	}
	return f.Close()
}
