// Package feedwriter renders a schedule bundle as GTFS text files.
package feedwriter

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/gocarina/gocsv"

	"geojson-gtfs/internal/gtfs"
)

// Written reports how many records went into each file.
type Written map[string]int

// WriteZip writes every non-empty file of b into a zip archive on w.
func WriteZip(w io.Writer, b *gtfs.Bundle) (Written, error) {
	zw := zip.NewWriter(w)
	written := Written{}
	for _, f := range b.Files() {
		if len(f.Records) == 0 {
			continue
		}
		entry, err := zw.Create(f.Name)
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", f.Name, err)
		}
		if err := WriteFile(entry, f); err != nil {
			return nil, err
		}
		written[f.Name] = len(f.Records)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close zip: %w", err)
	}
	return written, nil
}

// WriteDir writes every non-empty file of b into dir, creating it if needed.
func WriteDir(dir string, b *gtfs.Bundle) (Written, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	written := Written{}
	for _, f := range b.Files() {
		if len(f.Records) == 0 {
			continue
		}
		if err := writeFileAt(filepath.Join(dir, f.Name), f); err != nil {
			return nil, err
		}
		written[f.Name] = len(f.Records)
	}
	return written, nil
}

func writeFileAt(path string, f gtfs.File) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteFile(out, f); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// WriteFile writes f as CSV with a header row.
func WriteFile(w io.Writer, f gtfs.File) error {
	header := Header(f)
	cw := gocsv.DefaultCSVWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write %s: %w", f.Name, err)
	}
	row := make([]string, len(header))
	for _, rec := range f.Records {
		for i, col := range header {
			row[i] = formatValue(rec[col])
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write %s: %w", f.Name, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("write %s: %w", f.Name, err)
	}
	return nil
}

// Header lists the columns of f: the identity column first when any record has
// it, then every other column used by any record in sorted order.
func Header(f gtfs.File) []string {
	seen := map[string]struct{}{}
	for _, rec := range f.Records {
		for k := range rec {
			seen[k] = struct{}{}
		}
	}

	cols := make([]string, 0, len(seen))
	for k := range seen {
		if k == f.Identity {
			continue
		}
		cols = append(cols, k)
	}
	sort.Strings(cols)

	if _, ok := seen[f.Identity]; ok && f.Identity != "" {
		cols = append([]string{f.Identity}, cols...)
	}
	return cols
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case bool:
		if x {
			return "1"
		}
		return "0"
	default:
		return fmt.Sprint(x)
	}
}
