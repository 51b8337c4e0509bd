package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"
	"unsafe"

	"github.com/pierrec/lz4/v4"
	"golang.org/x/sync/errgroup"

	"q5engine/internal/metrics"
	"q5engine/internal/models"
)

// Positional column layout of every .tbl file. Extra trailing fields are
// ignored, so full dbgen output loads as well.
var (
	customerColumns = []string{"custkey", "name", "address", "nationkey"}
	ordersColumns   = []string{"orderkey", "custkey", "status", "totalprice", "orderdate"}
	lineitemColumns = []string{"orderkey", "partkey", "suppkey", "linenumber", "quantity", "extendedprice", "discount"}
	supplierColumns = []string{"suppkey", "name", "address", "nationkey"}
	nationColumns   = []string{"nationkey", "name", "regionkey"}
	regionColumns   = []string{"regionkey", "name"}
)

var sep = []byte{'|'}

// --- 1. FIELD PARSERS ---

func unsafeToString(b []byte) string {
	return unsafe.String(unsafe.SliceData(b), len(b))
}

// parseKey parses "123" -> 123. Only plain decimal digits are accepted.
func parseKey(b []byte) (int64, error) {
	if len(b) == 0 {
		return 0, errors.New("empty key")
	}
	var n int64
	for _, c := range b {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("not an integer: %q", b)
		}
		if n > (math.MaxInt64-9)/10 {
			return 0, fmt.Errorf("integer out of range: %q", b)
		}
		n = n*10 + int64(c-'0')
	}
	return n, nil
}

// parseAmount parses "123.45" -> 123.45.
func parseAmount(b []byte) (float64, error) {
	f, err := strconv.ParseFloat(unsafeToString(b), 64)
	if err != nil {
		// err references b's memory, so report from a copy
		return 0, fmt.Errorf("not a number: %q", string(b))
	}
	return f, nil
}

// parseDate parses "2021-07-25" -> 20210725 (YYYYMMDD).
func parseDate(b []byte) (int32, error) {
	if len(b) != 10 || b[4] != '-' || b[7] != '-' {
		return 0, fmt.Errorf("not a YYYY-MM-DD date: %q", b)
	}
	var v int32
	for i, c := range b {
		if i == 4 || i == 7 {
			continue
		}
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("not a YYYY-MM-DD date: %q", b)
		}
		v = v*10 + int32(c-'0')
	}
	month, day := v/100%100, v%100
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return 0, fmt.Errorf("date out of range: %q", b)
	}
	return v, nil
}

// ParseDate converts an ISO date used as a query bound.
func ParseDate(s string) (int32, error) {
	return parseDate([]byte(s))
}

// FormatDate is the inverse of ParseDate.
func FormatDate(d int32) string {
	return fmt.Sprintf("%04d-%02d-%02d", d/10000, d/100%100, d%100)
}

// splitFields fills dst with the leading fields of line and reports how many
// were present. Fields past len(dst) are left unsplit.
func splitFields(line []byte, dst [][]byte) int {
	rest := line
	for i := range dst {
		field, tail, found := bytes.Cut(rest, sep)
		dst[i] = field
		if !found {
			return i + 1
		}
		rest = tail
	}
	return len(dst)
}

// --- 2. FILE ACCESS ---

// readTable returns the raw content of <name>.tbl, falling back to an LZ4
// frame compressed <name>.tbl.lz4.
func readTable(dir, name string) ([]byte, error) {
	path := filepath.Join(dir, name+".tbl")
	content, err := os.ReadFile(path)
	if err == nil {
		return content, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read table %s: %w", name, err)
	}

	f, lzErr := os.Open(path + ".lz4")
	if lzErr != nil {
		if errors.Is(lzErr, fs.ErrNotExist) {
			return nil, fmt.Errorf("read table %s: %w", name, err)
		}
		return nil, fmt.Errorf("read table %s: %w", name, lzErr)
	}
	defer f.Close()

	content, err = io.ReadAll(lz4.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("read table %s: decompress %s: %w", name, f.Name(), err)
	}
	return content, nil
}

// eachLine calls fn for every non-empty line. lineNo starts at firstLine.
func eachLine(content []byte, firstLine int, fn func(line []byte, lineNo int) error) error {
	lineNo := firstLine
	for len(content) > 0 {
		line := content
		if i := bytes.IndexByte(content, '\n'); i != -1 {
			line, content = content[:i], content[i+1:]
		} else {
			content = nil
		}
		line = bytes.TrimSuffix(line, []byte{'\r'})
		if len(line) > 0 {
			if err := fn(line, lineNo); err != nil {
				return err
			}
		}
		lineNo++
	}
	return nil
}

// rowParser decodes the split fields of one row. On failure it returns the
// offending column index.
type rowParser[T any] func(fields [][]byte) (T, int, error)

func parseRows[T any](table string, columns []string, content []byte, firstLine int, parse rowParser[T]) ([]T, error) {
	rows := make([]T, 0, bytes.Count(content, []byte{'\n'})+1)
	fields := make([][]byte, len(columns))

	err := eachLine(content, firstLine, func(line []byte, lineNo int) error {
		if n := splitFields(line, fields); n < len(columns) {
			return &FormatError{
				Table: table,
				Line:  lineNo,
				Err:   fmt.Errorf("expected %d fields, got %d", len(columns), n),
			}
		}
		row, col, err := parse(fields)
		if err != nil {
			return &FormatError{Table: table, Line: lineNo, Column: columns[col], Err: err}
		}
		rows = append(rows, row)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func loadRows[T any](dir, table string, columns []string, parse rowParser[T]) ([]T, error) {
	content, err := readTable(dir, table)
	if err != nil {
		return nil, err
	}
	return parseRows(table, columns, content, 1, parse)
}

// --- 3. ROW DECODERS ---

func parseCustomer(f [][]byte) (c models.Customer, col int, err error) {
	if c.CustKey, err = parseKey(f[0]); err != nil {
		return c, 0, err
	}
	if c.NationKey, err = parseKey(f[3]); err != nil {
		return c, 3, err
	}
	return c, 0, nil
}

func parseOrder(f [][]byte) (o models.Order, col int, err error) {
	if o.OrderKey, err = parseKey(f[0]); err != nil {
		return o, 0, err
	}
	if o.CustKey, err = parseKey(f[1]); err != nil {
		return o, 1, err
	}
	if o.OrderDate, err = parseDate(f[4]); err != nil {
		return o, 4, err
	}
	return o, 0, nil
}

func parseSupplier(f [][]byte) (s models.Supplier, col int, err error) {
	if s.SuppKey, err = parseKey(f[0]); err != nil {
		return s, 0, err
	}
	if s.NationKey, err = parseKey(f[3]); err != nil {
		return s, 3, err
	}
	return s, 0, nil
}

func parseNation(f [][]byte) (n models.Nation, col int, err error) {
	if n.NationKey, err = parseKey(f[0]); err != nil {
		return n, 0, err
	}
	n.Name = string(f[1])
	if n.RegionKey, err = parseKey(f[2]); err != nil {
		return n, 2, err
	}
	return n, 0, nil
}

func parseRegion(f [][]byte) (r models.Region, col int, err error) {
	if r.RegionKey, err = parseKey(f[0]); err != nil {
		return r, 0, err
	}
	r.Name = string(f[1])
	return r, 0, nil
}

type lineItemRow struct {
	orderKey, suppKey int64
	price, discount   float64
}

func parseLineItem(f [][]byte) (li lineItemRow, col int, err error) {
	if li.orderKey, err = parseKey(f[0]); err != nil {
		return li, 0, err
	}
	if li.suppKey, err = parseKey(f[2]); err != nil {
		return li, 2, err
	}
	if li.price, err = parseAmount(f[5]); err != nil {
		return li, 5, err
	}
	if li.discount, err = parseAmount(f[6]); err != nil {
		return li, 6, err
	}
	return li, 0, nil
}

// --- 4. LINEITEM (PARALLEL) ---

// alignToLine moves pos to just past the next newline.
func alignToLine(content []byte, pos int) int {
	if pos <= 0 {
		return 0
	}
	if pos >= len(content) {
		return len(content)
	}
	if i := bytes.IndexByte(content[pos:], '\n'); i != -1 {
		return pos + i + 1
	}
	return len(content)
}

// lineChunks cuts content into at most n newline aligned, contiguous chunks.
// bounds[i]..bounds[i+1] is chunk i.
func lineChunks(content []byte, n int) []int {
	if n < 1 {
		n = 1
	}
	chunkSize := len(content) / n
	bounds := make([]int, n+1)
	for i := 1; i < n; i++ {
		bounds[i] = max(alignToLine(content, i*chunkSize), bounds[i-1])
	}
	bounds[n] = len(content)
	return bounds
}

func loadLineItems(ctx context.Context, dir string, numWorkers int) (LineItems, error) {
	content, err := readTable(dir, "lineitem")
	if err != nil {
		return LineItems{}, err
	}
	return parseLineItems(ctx, content, numWorkers)
}

func parseLineItems(ctx context.Context, content []byte, numWorkers int) (LineItems, error) {
	bounds := lineChunks(content, numWorkers)
	chunks := len(bounds) - 1

	// A. Count lines per chunk so errors carry file line numbers
	firstLines := make([]int, chunks)
	line := 1
	for i := 0; i < chunks; i++ {
		firstLines[i] = line
		line += bytes.Count(content[bounds[i]:bounds[i+1]], []byte{'\n'})
	}

	// B. Parse chunks in parallel
	parts := make([][]lineItemRow, chunks)
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < chunks; i++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rows, err := parseRows("lineitem", lineitemColumns, content[bounds[i]:bounds[i+1]], firstLines[i], parseLineItem)
			parts[i] = rows
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return LineItems{}, err
	}

	// C. Allocate columns once, copy in file order
	total := 0
	for _, p := range parts {
		total += len(p)
	}
	li := LineItems{
		OrderKeys:      make([]int64, 0, total),
		SuppKeys:       make([]int64, 0, total),
		ExtendedPrices: make([]float64, 0, total),
		Discounts:      make([]float64, 0, total),
	}
	for _, p := range parts {
		for _, r := range p {
			li.Append(r.orderKey, r.suppKey, r.price, r.discount)
		}
	}
	return li, nil
}

// --- 5. MAIN LOADER ---

// LoadTables reads the six tables from dir. Tables load concurrently; any
// I/O or format error aborts the whole load.
func LoadTables(ctx context.Context, dir string) (*Tables, error) {
	start := time.Now()
	slog.Info("loading tables", "dir", dir)

	t := &Tables{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		t.Customers, err = loadRows(dir, "customer", customerColumns, parseCustomer)
		return err
	})
	g.Go(func() (err error) {
		t.Orders, err = loadRows(dir, "orders", ordersColumns, parseOrder)
		return err
	})
	g.Go(func() (err error) {
		t.Suppliers, err = loadRows(dir, "supplier", supplierColumns, parseSupplier)
		return err
	})
	g.Go(func() (err error) {
		t.Nations, err = loadRows(dir, "nation", nationColumns, parseNation)
		return err
	})
	g.Go(func() (err error) {
		t.Regions, err = loadRows(dir, "region", regionColumns, parseRegion)
		return err
	})
	g.Go(func() (err error) {
		t.LineItems, err = loadLineItems(gctx, dir, runtime.NumCPU())
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	elapsed := time.Since(start)
	metrics.TableLoadDuration.Observe(elapsed.Seconds())
	c := t.Counts()
	slog.Info("tables loaded",
		"customer", c.Customer,
		"orders", c.Orders,
		"lineitem", c.LineItem,
		"supplier", c.Supplier,
		"nation", c.Nation,
		"region", c.Region,
		"elapsed", elapsed,
	)
	return t, nil
}
