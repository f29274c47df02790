package ingest

import (
	"math"
	"strconv"
	"strings"

	"github.com/mamadbah2/restock/internal/engine"
)

// Table is a header plus string rows, as read from one worksheet.
type Table struct {
	Header []string
	Rows   [][]string
}

// Column returns the index of name in the header, or -1.
func (t *Table) Column(name string) int {
	for i, h := range t.Header {
		if strings.TrimSpace(h) == name {
			return i
		}
	}
	return -1
}

// BOMTable converts t into the engine's bundle-definition table. A nil Table
// stays nil so the engine can tell an absent sheet from an empty one.
func (t *Table) BOMTable() *engine.BOMTable {
	if t == nil {
		return nil
	}
	return &engine.BOMTable{Header: t.Header, Rows: t.Rows}
}

// Tables groups the raw worksheets needed to build SKU records.
type Tables struct {
	Inventory   *Table
	Destination *Table
	Sales       *Table
	BOM         *Table
}

func value(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// number parses a spreadsheet cell leniently: thousands separators are
// stripped and anything unparseable counts as zero.
func number(raw string) float64 {
	v, _ := parseNumber(raw)
	return v
}

// parseNumber is number that also reports whether a non-empty cell had to be
// coerced to zero.
func parseNumber(raw string) (float64, bool) {
	raw = strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if raw == "" {
		return 0, true
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// coercions counts cells of one worksheet that were not numeric.
type coercions int

func (c *coercions) number(raw string) float64 {
	v, ok := parseNumber(raw)
	if !ok {
		*c++
	}
	return v
}
