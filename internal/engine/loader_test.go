package engine

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/pierrec/lz4/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sampleTables = map[string]string{
	"region.tbl": "2|ASIA\n3|EUROPE\n",
	"nation.tbl": "6|FRANCE|3\n8|INDIA|2\n18|CHINA|2\n",
	// dbgen style: more columns than needed and a trailing delimiter
	"customer.tbl": "1|Customer#1|addr 1|8|18-1|711.56|BUILDING|comment|\n" +
		"2|Customer#2|addr 2|18|28-2|121.65|AUTOMOBILE|comment|\n",
	"supplier.tbl": "10|Supplier#10|addr|8\n20|Supplier#20|addr|18\n",
	"orders.tbl": "100|1|O|1000.00|1994-03-01\n" +
		"101|2|F|200.00|1994-01-01\n" +
		"102|1|F|300.00|1995-01-01\n",
	"lineitem.tbl": "100|5|10|1|17|1000.00|0.10\n" +
		"100|6|20|2|3|500.00|0.00\n" +
		"\n" +
		"101|7|20|1|1|200.00|0.50\n" +
		"102|8|10|1|1|300.00|0.00\n",
}

func writeTables(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func withFile(name, content string) map[string]string {
	files := make(map[string]string, len(sampleTables))
	for k, v := range sampleTables {
		files[k] = v
	}
	files[name] = content
	return files
}

func TestLoadTables(t *testing.T) {
	dir := writeTables(t, sampleTables)

	tables, err := LoadTables(context.Background(), dir)
	require.NoError(t, err)

	c := tables.Counts()
	assert.Equal(t, 2, c.Region)
	assert.Equal(t, 3, c.Nation)
	assert.Equal(t, 2, c.Customer)
	assert.Equal(t, 2, c.Supplier)
	assert.Equal(t, 3, c.Orders)
	assert.Equal(t, 4, c.LineItem)

	assert.Equal(t, "INDIA", tables.Nations[1].Name)
	assert.Equal(t, int64(2), tables.Nations[1].RegionKey)
	assert.Equal(t, int32(19940301), tables.Orders[0].OrderDate)
	assert.Equal(t, int64(18), tables.Customers[1].NationKey)

	li := tables.LineItems
	assert.Equal(t, []int64{100, 100, 101, 102}, li.OrderKeys)
	assert.Equal(t, []int64{10, 20, 20, 10}, li.SuppKeys)
	assert.Equal(t, []float64{1000, 500, 200, 300}, li.ExtendedPrices)
	assert.Equal(t, []float64{0.10, 0, 0.50, 0}, li.Discounts)
}

func TestLoadTablesLZ4(t *testing.T) {
	files := withFile("lineitem.tbl", "")
	delete(files, "lineitem.tbl")
	dir := writeTables(t, files)

	var buf bytes.Buffer
	zw := lz4.NewWriter(&buf)
	_, err := zw.Write([]byte(sampleTables["lineitem.tbl"]))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lineitem.tbl.lz4"), buf.Bytes(), 0o644))

	tables, err := LoadTables(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 4, tables.LineItems.Len())
}

func TestLoadTablesMissingFile(t *testing.T) {
	files := withFile("orders.tbl", "")
	delete(files, "orders.tbl")
	dir := writeTables(t, files)

	_, err := LoadTables(context.Background(), dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.Contains(t, err.Error(), "orders")
}

func TestLoadTablesFormatErrors(t *testing.T) {
	tests := []struct {
		name   string
		file   string
		body   string
		line   int
		column string
	}{
		{"short row", "nation.tbl", "6|FRANCE|3\n8|INDIA\n", 2, ""},
		{"non-numeric key", "supplier.tbl", "10|S|a|8\nx1|S|a|8\n", 2, "suppkey"},
		{"bad date", "orders.tbl", "100|1|O|1.00|1994/03/01\n", 1, "orderdate"},
		{"bad month", "orders.tbl", "100|1|O|1.00|1994-13-01\n", 1, "orderdate"},
		{"bad price", "lineitem.tbl", "100|5|10|1|17|1000.00|0.10\n100|5|10|1|17|12,50|0.10\n", 2, "extendedprice"},
		{"empty discount", "lineitem.tbl", "100|5|10|1|17|1000.00|\n", 1, "discount"},
		{"negative key", "customer.tbl", "-1|C|a|8\n", 1, "custkey"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writeTables(t, withFile(tt.file, tt.body))

			tables, err := LoadTables(context.Background(), dir)
			require.Error(t, err)
			assert.Nil(t, tables)
			assert.ErrorIs(t, err, ErrDataFormat)

			var fe *FormatError
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, strings.TrimSuffix(tt.file, ".tbl"), fe.Table)
			assert.Equal(t, tt.line, fe.Line)
			assert.Zero(t, fe.Row)
			assert.Contains(t, err.Error(), "line "+strconv.Itoa(tt.line))
			assert.Equal(t, tt.column, fe.Column)
		})
	}
}

func TestParseLineItemsChunked(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 1000; i++ {
		b.WriteString("7|1|3|1|1|10.00|0.05\n")
	}
	content := []byte(b.String())

	for _, workers := range []int{1, 3, 8, 2000} {
		li, err := parseLineItems(context.Background(), content, workers)
		require.NoError(t, err)
		assert.Equal(t, 1000, li.Len(), "workers=%d", workers)
	}

	// line numbers survive chunking
	broken := append([]byte{}, content...)
	broken = append(broken, []byte("7|1|3|1|1|oops|0.05\n")...)
	_, err := parseLineItems(context.Background(), broken, 8)
	var fe *FormatError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, 1001, fe.Line)
}

func TestParseLineItemsKeepsFileOrder(t *testing.T) {
	var b strings.Builder
	for i := 1; i <= 300; i++ {
		b.WriteString(strings.Join([]string{strconv.Itoa(i), "1", "3", "1", "1", "10.00", "0.05"}, "|"))
		b.WriteString("\n")
	}
	li, err := parseLineItems(context.Background(), []byte(b.String()), 7)
	require.NoError(t, err)
	require.Equal(t, 300, li.Len())
	for i, k := range li.OrderKeys {
		require.Equal(t, int64(i+1), k)
	}
}

func TestLineChunks(t *testing.T) {
	content := []byte("aa\nbb\ncc\ndd\n")
	bounds := lineChunks(content, 3)
	require.Len(t, bounds, 4)
	assert.Equal(t, 0, bounds[0])
	assert.Equal(t, len(content), bounds[3])
	for i := 1; i < len(bounds)-1; i++ {
		assert.Equal(t, byte('\n'), content[bounds[i]-1], "chunk %d starts mid-line", i)
	}

	bounds = lineChunks(nil, 4)
	assert.Equal(t, []int{0, 0, 0, 0, 0}, bounds)
}

func TestFieldParsers(t *testing.T) {
	k, err := parseKey([]byte("99"))
	require.NoError(t, err)
	assert.Equal(t, int64(99), k)

	_, err = parseKey([]byte("99999999999999999999"))
	assert.Error(t, err)

	f, err := parseAmount([]byte("123.45"))
	require.NoError(t, err)
	assert.Equal(t, 123.45, f)

	d, err := parseDate([]byte("2023-12-01"))
	require.NoError(t, err)
	assert.Equal(t, int32(20231201), d)
	assert.Equal(t, "2023-12-01", FormatDate(d))

	_, err = ParseDate("2023-12-1")
	assert.Error(t, err)
}

func TestSplitFields(t *testing.T) {
	dst := make([][]byte, 3)
	assert.Equal(t, 3, splitFields([]byte("a|b|c|d|"), dst))
	assert.Equal(t, "c", string(dst[2]))
	assert.Equal(t, 2, splitFields([]byte("a|b"), dst))
	assert.Equal(t, 3, splitFields([]byte("a|b|"), dst))
	assert.Equal(t, "", string(dst[2]))
}
