// Copyright (c) 2025 QueryDesk
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package export writes query results to files.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"querydesk/cli/internal/sqlexec"
	"querydesk/cli/internal/value"
)

// Supported output formats.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
	FormatXLSX = "xlsx"
)

var formats = []string{FormatXLSX, FormatJSON, FormatCSV}

// ResolveFormat returns the explicit format if given, otherwise the format
// implied by path's extension.
func ResolveFormat(path, explicit string) (string, error) {
	format := strings.ToLower(strings.TrimSpace(explicit))
	if format == "" {
		ext := filepath.Ext(path)
		if ext == "" || ext == "." {
			return "", fmt.Errorf("cannot infer output format from %q; use --format", path)
		}
		format = strings.ToLower(ext[1:])
	}
	if !slices.Contains(formats, format) {
		return "", fmt.Errorf("output format %q is not supported (use %s)", format, strings.Join(formats, ", "))
	}
	return format, nil
}

// ToFile writes resp to path in the given format, or the one implied by path.
func ToFile(path, format string, resp *sqlexec.QueryResponse) error {
	format, err := ResolveFormat(path, format)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, format, resp); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	slog.Debug("result exported", "path", path, "format", format, "rows", len(resp.Rows))
	return nil
}

// Write encodes resp to w.
func Write(w io.Writer, format string, resp *sqlexec.QueryResponse) error {
	switch format {
	case FormatCSV:
		return writeCSV(w, resp)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	case FormatXLSX:
		return writeXLSX(w, resp)
	default:
		return fmt.Errorf("output format %q is not supported", format)
	}
}

// writeCSV writes a header line and one line per row. NULL is an empty field.
func writeCSV(w io.Writer, resp *sqlexec.QueryResponse) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(resp.Columns); err != nil {
		return err
	}

	record := make([]string, len(resp.Columns))
	for _, row := range resp.Rows {
		for i := range record {
			record[i] = ""
			if i < len(row) {
				record[i] = csvField(row[i])
			}
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func csvField(v value.Value) string {
	if v.IsNull() {
		return ""
	}
	return v.String()
}
