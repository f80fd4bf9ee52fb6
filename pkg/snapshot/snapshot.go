// Package snapshot persists the intermediate tables as Parquet files.
// Parquet keeps column names, types and row order, so a snapshot read back
// is identical to the one written, and the pandas-based analysis tooling
// can consume the files directly.
package snapshot

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"
)

// Write serializes rows to path, replacing any previous snapshot. Snapshots
// are not versioned; each pipeline run overwrites the last one.
func Write[T any](path string, rows []T) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create snapshot %s: %w", filepath.Base(path), err)
	}

	w := parquet.NewGenericWriter[T](f)
	if _, err := w.Write(rows); err != nil {
		f.Close()
		return fmt.Errorf("write snapshot %s: %w", filepath.Base(path), err)
	}
	if err := w.Close(); err != nil {
		f.Close()
		return fmt.Errorf("close snapshot %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}

// Read loads a snapshot back into memory, preserving row order.
func Read[T any](path string) ([]T, error) {
	rows, err := parquet.ReadFile[T](path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", filepath.Base(path), err)
	}
	return rows, nil
}
