package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// table is a parsed CSV file whose columns are addressed by header name.
type table struct {
	header map[string]int
	rows   [][]string
}

func readTable(r io.Reader) (*table, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, errors.New("missing header row")
	}
	t := &table{header: make(map[string]int, len(records[0]))}
	for i, name := range records[0] {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		t.header[name] = i
	}
	t.rows = records[1:]
	return t, nil
}

// record is one row of a table. Lookups accept alternative column names,
// the first present one wins.
type record struct {
	t    *table
	line int
	row  []string
}

func (t *table) records() []record {
	out := make([]record, 0, len(t.rows))
	for i, row := range t.rows {
		out = append(out, record{t: t, line: i + 2, row: row})
	}
	return out
}

func (r record) lookup(names ...string) (string, bool) {
	for _, name := range names {
		if i, ok := r.t.header[name]; ok && i < len(r.row) {
			return strings.TrimSpace(r.row[i]), true
		}
	}
	return "", false
}

func (r record) errorf(format string, args ...any) error {
	return fmt.Errorf("line %d: %s", r.line, fmt.Sprintf(format, args...))
}

func (r record) str(names ...string) (string, error) {
	v, ok := r.lookup(names...)
	if !ok || v == "" {
		return "", r.errorf("column %q is required", names[0])
	}
	return v, nil
}

func (r record) optStr(names ...string) string {
	v, _ := r.lookup(names...)
	return v
}

func (r record) int64(names ...string) (int64, error) {
	v, err := r.str(names...)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, r.errorf("column %q: %q is not an integer", names[0], v)
	}
	return n, nil
}

// optInt64 returns nil for an empty or missing column.
func (r record) optInt64(names ...string) (*int64, error) {
	v, _ := r.lookup(names...)
	if v == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil, r.errorf("column %q: %q is not an integer", names[0], v)
	}
	return &n, nil
}

var timeLayouts = []string{time.RFC3339Nano, "2006-01-02 15:04:05.999999999Z07:00", "2006-01-02 15:04:05", "2006-01-02"}

func (r record) time(names ...string) (time.Time, error) {
	v, err := r.str(names...)
	if err != nil {
		return time.Time{}, err
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, r.errorf("column %q: %q is not a timestamp", names[0], v)
}
