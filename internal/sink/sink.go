// Package sink turns a merged query result into output: ranked rows for the
// API and the NAME|REVENUE text file written by the CLI.
package sink

import (
	"bufio"
	"cmp"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"q5engine/internal/engine"
	"q5engine/internal/models"
)

func rows(r engine.Result) []models.NationRevenue {
	out := make([]models.NationRevenue, 0, len(r))
	for name, t := range r {
		if t.Revenue == 0 {
			continue
		}
		out = append(out, models.NationRevenue{Nation: name, Revenue: t.Revenue, LineItems: t.LineItems})
	}
	return out
}

// ByName returns nations with nonzero revenue, sorted by name.
func ByName(r engine.Result) []models.NationRevenue {
	out := rows(r)
	slices.SortFunc(out, func(a, b models.NationRevenue) int {
		return cmp.Compare(a.Nation, b.Nation)
	})
	return out
}

// ByRevenue returns nations with nonzero revenue, highest first. Ties are
// broken by name so the order is stable.
func ByRevenue(r engine.Result) []models.NationRevenue {
	out := rows(r)
	slices.SortFunc(out, func(a, b models.NationRevenue) int {
		if c := cmp.Compare(b.Revenue, a.Revenue); c != 0 {
			return c
		}
		return cmp.Compare(a.Nation, b.Nation)
	})
	return out
}

// FormatRevenue renders revenue with exactly two decimals, never exponent form.
func FormatRevenue(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// Format writes one NAME|REVENUE line per nation, sorted by name.
func Format(w io.Writer, r engine.Result) error {
	bw := bufio.NewWriter(w)
	for _, row := range ByName(r) {
		if _, err := fmt.Fprintf(bw, "%s|%s\n", row.Nation, FormatRevenue(row.Revenue)); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Write stores the result at path. Output goes to a temporary file in the
// same directory that is renamed into place, so path never holds a partial
// result.
func Write(path string, r engine.Result) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err = Format(tmp, r); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	if err = tmp.Chmod(0o644); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	return nil
}
