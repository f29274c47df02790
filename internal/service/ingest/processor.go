package ingest

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/restock/internal/domain/models"
	"github.com/mamadbah2/restock/internal/engine"
)

// ErrMissingDataset is returned when a required worksheet was not supplied.
var ErrMissingDataset = errors.New("required dataset is missing")

const recentWindow = 7 * 24 * time.Hour

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02",
	"2006. 1. 2 15:04:05",
	"2006. 1. 2",
	"2006.01.02",
}

// Columns names the source columns read from each worksheet.
type Columns struct {
	InventoryKey        string
	InventoryName       string
	InventoryStock      string
	InventoryOptionCode string

	DestinationOptionID  string
	DestinationOrderable string
	DestinationInbound   string
	DestinationSales7D   string
	DestinationSales30D  string

	SalesKey  string
	SalesQty  string
	SalesDate string
}

// DefaultColumns matches the production spreadsheet.
func DefaultColumns() Columns {
	return Columns{
		InventoryKey:        "옵션ID_이이엘",
		InventoryName:       "구분값",
		InventoryStock:      "한국창고재고",
		InventoryOptionCode: "쿠팡로켓_옵션코드",

		DestinationOptionID:  "Option ID",
		DestinationOrderable: "Orderable quantity (real-time)",
		DestinationInbound:   "Pending inbounds (real-time)",
		DestinationSales7D:   "Recent sales quantity Last 7 days",
		DestinationSales30D:  "Recent sales quantity Last 30 days",

		SalesKey:  "옵션관리코드",
		SalesQty:  "수량",
		SalesDate: "날짜",
	}
}

// Dataset is the cleaned engine input.
type Dataset struct {
	Records []models.SKURecord
	// BOM is nil when no bundle sheet was supplied.
	BOM *engine.BOMTable
}

// Processor merges the raw worksheets into per-SKU records.
type Processor struct {
	columns  Columns
	layout   engine.BOMLayout
	excluded []string
	logger   *zap.Logger
}

// NewProcessor builds a Processor. Keys starting with any excluded prefix are
// dropped from the records and from the bundle sheet.
func NewProcessor(columns Columns, layout engine.BOMLayout, excluded []string, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{
		columns:  columns,
		layout:   layout,
		excluded: excluded,
		logger:   logger,
	}
}

type destinationTotals struct {
	stock   float64
	sales7  float64
	sales30 float64
}

// Process cleans and merges tables. now anchors the recent sales window.
func (p *Processor) Process(tables Tables, now time.Time) (*Dataset, error) {
	switch {
	case tables.Inventory == nil:
		return nil, fmt.Errorf("%w: inventory", ErrMissingDataset)
	case tables.Destination == nil:
		return nil, fmt.Errorf("%w: destination", ErrMissingDataset)
	case tables.Sales == nil:
		return nil, fmt.Errorf("%w: sales", ErrMissingDataset)
	}

	bom := p.filterBOM(tables.BOM)
	graph, err := engine.BuildGraph(bom, p.layout, p.logger)
	if err != nil {
		if !errors.Is(err, engine.ErrNoBOMTable) {
			return nil, fmt.Errorf("build bom graph: %w", err)
		}
		p.logger.Warn("bundle sheet absent, set sales are not redistributed")
		graph = engine.NewGraph()
	}

	order, records, optionIndex := p.readInventory(tables.Inventory)
	destination := p.readDestination(tables.Destination, optionIndex)
	monthly, weekly := p.readSales(tables.Sales, now)

	destShare := make(map[string]float64)
	originShare := make(map[string]float64)
	for _, set := range graph.Sets() {
		for _, c := range graph.Components(set) {
			if d, ok := destination[set]; ok {
				destShare[c.Key] += d.sales30 * float64(c.QtyPerSet)
			}
			originShare[c.Key] += monthly[set] * float64(c.QtyPerSet)
		}
	}

	out := make([]models.SKURecord, 0, len(order))
	excluded := 0
	for _, key := range order {
		if p.isExcluded(key) {
			excluded++
			continue
		}

		rec := records[key]
		if d, ok := destination[key]; ok {
			rec.DestinationStock = d.stock
			rec.DestinationSales7D = d.sales7
			rec.DestinationSales30D = d.sales30
		}
		rec.DirectDestinationSales30D = rec.DestinationSales30D
		rec.HasDirectSales = true
		rec.DestinationSales30D += destShare[key]
		rec.OriginSales30D = monthly[key] + originShare[key]
		rec.OriginSales7D = weekly[key]

		out = append(out, truncate(rec))
	}

	p.logger.Info("datasets merged",
		zap.Int("skus", len(out)),
		zap.Int("excluded", excluded),
		zap.Int("destination_mapped", len(destination)),
		zap.Int("sets", graph.Len()),
	)

	return &Dataset{Records: out, BOM: bom}, nil
}

func (p *Processor) readInventory(t *Table) ([]string, map[string]models.SKURecord, map[string]string) {
	keyIdx := t.Column(p.columns.InventoryKey)
	nameIdx := t.Column(p.columns.InventoryName)
	stockIdx := t.Column(p.columns.InventoryStock)
	codeIdx := t.Column(p.columns.InventoryOptionCode)

	if codeIdx < 0 {
		p.logger.Warn("inventory sheet has no option code column, destination data will not be merged",
			zap.String("column", p.columns.InventoryOptionCode))
	}

	var order []string
	records := make(map[string]models.SKURecord)
	optionIndex := make(map[string]string)
	dropped := 0
	var coerced coercions

	for _, row := range t.Rows {
		key := value(row, keyIdx)
		if key == "" {
			dropped++
			continue
		}

		code := value(row, codeIdx)
		if code != "" {
			if _, ok := optionIndex[code]; !ok {
				optionIndex[code] = key
			}
		}

		if existing, ok := records[key]; ok {
			p.logger.Warn("duplicate inventory row merged", zap.String("sku", key))
			existing.OriginStock += coerced.number(value(row, stockIdx))
			if existing.DestinationOptionCode == "" {
				existing.DestinationOptionCode = code
			}
			records[key] = existing
			continue
		}

		order = append(order, key)
		records[key] = models.SKURecord{
			Key:                   key,
			Name:                  value(row, nameIdx),
			OriginStock:           coerced.number(value(row, stockIdx)),
			DestinationOptionCode: code,
		}
	}

	if dropped > 0 {
		p.logger.Warn("inventory rows without sku dropped", zap.Int("rows", dropped))
	}
	p.warnCoerced("inventory", coerced)
	return order, records, optionIndex
}

func (p *Processor) readDestination(t *Table, optionIndex map[string]string) map[string]*destinationTotals {
	idIdx := t.Column(p.columns.DestinationOptionID)
	orderableIdx := t.Column(p.columns.DestinationOrderable)
	inboundIdx := t.Column(p.columns.DestinationInbound)
	sales7Idx := t.Column(p.columns.DestinationSales7D)
	sales30Idx := t.Column(p.columns.DestinationSales30D)

	totals := make(map[string]*destinationTotals)
	unmapped := 0
	var coerced coercions

	for _, row := range t.Rows {
		key, ok := optionIndex[value(row, idIdx)]
		if !ok {
			unmapped++
			continue
		}

		d, ok := totals[key]
		if !ok {
			d = &destinationTotals{}
			totals[key] = d
		}
		d.stock += coerced.number(value(row, orderableIdx)) + coerced.number(value(row, inboundIdx))
		d.sales7 += math.Max(0, coerced.number(value(row, sales7Idx)))
		d.sales30 += math.Max(0, coerced.number(value(row, sales30Idx)))
	}

	if unmapped > 0 {
		p.logger.Debug("destination rows without matching option code dropped", zap.Int("rows", unmapped))
	}
	p.warnCoerced("destination", coerced)
	return totals
}

func (p *Processor) readSales(t *Table, now time.Time) (map[string]float64, map[string]float64) {
	keyIdx := t.Column(p.columns.SalesKey)
	qtyIdx := t.Column(p.columns.SalesQty)
	dateIdx := t.Column(p.columns.SalesDate)

	monthly := make(map[string]float64)
	weekly := make(map[string]float64)

	if keyIdx < 0 || qtyIdx < 0 {
		p.logger.Warn("sales sheet lacks sku or quantity column, origin sales are zero")
		return monthly, weekly
	}
	if dateIdx < 0 {
		p.logger.Warn("sales sheet has no date column, recent sales are zero")
	}

	cutoff := now.Add(-recentWindow)
	badDates := 0
	var coerced coercions

	for _, row := range t.Rows {
		key := value(row, keyIdx)
		if key == "" {
			continue
		}
		qty := coerced.number(value(row, qtyIdx))

		if dateIdx < 0 {
			monthly[key] += qty
			continue
		}

		date, ok := parseDate(value(row, dateIdx))
		if !ok {
			badDates++
			continue
		}
		monthly[key] += qty
		if !date.Before(cutoff) {
			weekly[key] += qty
		}
	}

	if badDates > 0 {
		p.logger.Warn("sales rows with unparseable dates dropped", zap.Int("rows", badDates))
	}
	p.warnCoerced("sales", coerced)
	return monthly, weekly
}

func (p *Processor) warnCoerced(sheet string, n coercions) {
	if n > 0 {
		p.logger.Warn("non-numeric cells treated as zero", zap.String("sheet", sheet), zap.Int("cells", int(n)))
	}
}

func (p *Processor) filterBOM(t *Table) *engine.BOMTable {
	bom := t.BOMTable()
	if bom == nil || len(p.excluded) == 0 {
		return bom
	}

	setIdx := t.Column(p.layout.SetKeyColumn)
	if setIdx < 0 {
		return bom
	}

	rows := make([][]string, 0, len(bom.Rows))
	for _, row := range bom.Rows {
		if p.isExcluded(value(row, setIdx)) {
			continue
		}
		rows = append(rows, row)
	}
	return &engine.BOMTable{Header: bom.Header, Rows: rows}
}

func (p *Processor) isExcluded(key string) bool {
	for _, prefix := range p.excluded {
		if strings.HasPrefix(key, prefix) {
			return true
		}
	}
	return false
}

func parseDate(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// truncate drops fractional units from every count, matching the integer
// columns of the source sheets.
func truncate(rec models.SKURecord) models.SKURecord {
	rec.OriginStock = math.Trunc(rec.OriginStock)
	rec.DestinationStock = math.Trunc(rec.DestinationStock)
	rec.DestinationSales7D = math.Trunc(rec.DestinationSales7D)
	rec.DestinationSales30D = math.Trunc(rec.DestinationSales30D)
	rec.DirectDestinationSales30D = math.Trunc(rec.DirectDestinationSales30D)
	rec.OriginSales7D = math.Trunc(rec.OriginSales7D)
	rec.OriginSales30D = math.Trunc(rec.OriginSales30D)
	return rec
}
