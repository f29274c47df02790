package loader

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/mamadbah2/restock/internal/engine"
	"github.com/mamadbah2/restock/internal/service/ingest"
)

// RangeReader is the subset of the sheets repository the loader needs.
type RangeReader interface {
	ReadRange(ctx context.Context, sheetRange string) ([][]interface{}, error)
}

// Sheets names the worksheets of the source spreadsheet.
type Sheets struct {
	Inventory        string
	Destination      string
	Sales            string
	BOM              string
	Discontinued     string
	ChannelExclusive string

	// ListColumn is the SKU column of both list sheets.
	ListColumn string
}

// DefaultSheets matches the production spreadsheet.
func DefaultSheets() Sheets {
	return Sheets{
		Inventory:        "재고 시트",
		Destination:      "로켓그로스재고(매번입력)",
		Sales:            "매출시트",
		BOM:              "세트구성품",
		Discontinued:     "품절상품",
		ChannelExclusive: "쿠팡전용상품",
		ListColumn:       "sku",
	}
}

// Result is everything read from the spreadsheet for one run.
type Result struct {
	Tables ingest.Tables
	Lists  engine.ChannelLists
}

// Loader reads worksheets and reshapes them into tables.
type Loader struct {
	reader RangeReader
	sheets Sheets
	logger *zap.Logger
}

// New builds a Loader.
func New(reader RangeReader, sheets Sheets, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{reader: reader, sheets: sheets, logger: logger}
}

// Load reads all worksheets. Inventory, destination and sales are required;
// the bundle sheet and both lists are treated as absent when they cannot be read.
func (l *Loader) Load(ctx context.Context) (*Result, error) {
	inventory, err := l.read(ctx, l.sheets.Inventory)
	if err != nil {
		return nil, err
	}
	destination, err := l.read(ctx, l.sheets.Destination)
	if err != nil {
		return nil, err
	}
	sales, err := l.read(ctx, l.sheets.Sales)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Tables: ingest.Tables{
			Inventory:   HeaderTable(inventory),
			Destination: l.destinationTable(destination),
			Sales:       l.salesTable(sales),
		},
	}

	if values, err := l.read(ctx, l.sheets.BOM); err != nil {
		l.logger.Warn("bundle sheet unavailable", zap.String("sheet", l.sheets.BOM), zap.Error(err))
	} else {
		res.Tables.BOM = HeaderTable(values)
	}

	res.Lists.Discontinued = l.list(ctx, l.sheets.Discontinued)
	res.Lists.ChannelExclusive = l.list(ctx, l.sheets.ChannelExclusive)

	l.logger.Info("spreadsheet loaded",
		zap.Int("inventory_rows", len(res.Tables.Inventory.Rows)),
		zap.Int("destination_rows", len(res.Tables.Destination.Rows)),
		zap.Int("sales_rows", len(res.Tables.Sales.Rows)),
		zap.Bool("bom", res.Tables.BOM != nil),
		zap.Int("discontinued", len(res.Lists.Discontinued)),
		zap.Int("channel_exclusive", len(res.Lists.ChannelExclusive)),
	)
	return res, nil
}

func (l *Loader) read(ctx context.Context, sheet string) ([][]string, error) {
	values, err := l.reader.ReadRange(ctx, quoteSheet(sheet))
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	return stringify(values), nil
}

func (l *Loader) destinationTable(values [][]string) *ingest.Table {
	if len(values) < 2 {
		l.logger.Warn("destination sheet has no data rows", zap.String("sheet", l.sheets.Destination))
		return &ingest.Table{}
	}
	return TwoLevelHeaderTable(values)
}

func (l *Loader) salesTable(values [][]string) *ingest.Table {
	if len(values) < 3 {
		l.logger.Warn("sales sheet has no data rows", zap.String("sheet", l.sheets.Sales))
		return &ingest.Table{}
	}
	return &ingest.Table{Header: values[2], Rows: values[3:]}
}

func (l *Loader) list(ctx context.Context, sheet string) []string {
	values, err := l.read(ctx, sheet)
	if err != nil {
		l.logger.Warn("list sheet unavailable", zap.String("sheet", sheet), zap.Error(err))
		return nil
	}

	table := HeaderTable(values)
	idx := table.Column(l.sheets.ListColumn)
	if idx < 0 {
		l.logger.Warn("list sheet has no sku column", zap.String("sheet", sheet))
		return nil
	}

	var keys []string
	for _, row := range table.Rows {
		if idx < len(row) {
			if key := strings.TrimSpace(row[idx]); key != "" {
				keys = append(keys, key)
			}
		}
	}
	return keys
}

// HeaderTable treats the first row as the header.
func HeaderTable(values [][]string) *ingest.Table {
	if len(values) == 0 {
		return &ingest.Table{}
	}
	return &ingest.Table{Header: values[0], Rows: values[1:]}
}

// TwoLevelHeaderTable flattens a two-row header. Blank top-level cells take the
// value to their left, then both levels are joined with a space.
func TwoLevelHeaderTable(values [][]string) *ingest.Table {
	top, sub := values[0], values[1]
	width := len(top)
	if len(sub) > width {
		width = len(sub)
	}

	header := make([]string, width)
	last := ""
	for i := 0; i < width; i++ {
		h1 := strings.TrimSpace(at(top, i))
		if h1 == "" {
			h1 = last
		}
		last = h1
		h2 := strings.TrimSpace(at(sub, i))

		switch {
		case h1 != "" && h2 != "":
			header[i] = h1 + " " + h2
		case h1 != "":
			header[i] = h1
		default:
			header[i] = h2
		}
	}

	return &ingest.Table{Header: header, Rows: values[2:]}
}

func at(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

func stringify(values [][]interface{}) [][]string {
	out := make([][]string, len(values))
	for i, row := range values {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = cellString(v)
		}
		out[i] = cells
	}
	return out
}

func cellString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}
