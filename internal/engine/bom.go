package engine

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/mamadbah2/restock/internal/domain/models"
)

// ErrNoBOMTable is returned when the bundle-definition table was never supplied.
var ErrNoBOMTable = errors.New("bom table is absent")

var slotNumberPattern = regexp.MustCompile(`(\d+)`)

// BOMTable is the wide-format bundle-definition sheet: one row per set, with
// numbered component option/quantity column pairs.
type BOMTable struct {
	Header []string
	Rows   [][]string
}

// BOMLayout names the columns of a BOMTable.
type BOMLayout struct {
	SetKeyColumn string
	OptionMarker string

	// IDColumns are never read as component slots even if they contain digits.
	IDColumns []string

	// ComponentSeparator splits the option cell; the component key is the first part.
	ComponentSeparator string
}

// DefaultBOMLayout matches the production bundle sheet.
func DefaultBOMLayout() BOMLayout {
	return BOMLayout{
		SetKeyColumn:       "세트_ID",
		IDColumns:          []string{"세트명", "옵션", "세트_ID"},
		OptionMarker:       "옵션",
		ComponentSeparator: "/",
	}
}

// Component is one (component, quantity-per-set) entry of a set.
type Component struct {
	Key       string
	QtyPerSet int
}

// Graph holds the bipartite set/component relation in both directions.
type Graph struct {
	sets    map[string][]Component
	usage   map[string][]string
	setKeys []string
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{
		sets:  make(map[string][]Component),
		usage: make(map[string][]string),
	}
}

// AddEdge records that set uses qty units of component. Edges are kept in
// insertion order and a set is listed once per component in UsedBy.
func (g *Graph) AddEdge(setKey, componentKey string, qty int) {
	if _, ok := g.sets[setKey]; !ok {
		g.setKeys = append(g.setKeys, setKey)
	}
	g.sets[setKey] = append(g.sets[setKey], Component{Key: componentKey, QtyPerSet: qty})

	for _, existing := range g.usage[componentKey] {
		if existing == setKey {
			return
		}
	}
	g.usage[componentKey] = append(g.usage[componentKey], setKey)
}

// IsSet reports whether key is defined as a set.
func (g *Graph) IsSet(key string) bool {
	_, ok := g.sets[key]
	return ok
}

// Components returns the components of a set in slot order.
func (g *Graph) Components(setKey string) []Component {
	return g.sets[setKey]
}

// UsedBy returns the sets that consume componentKey.
func (g *Graph) UsedBy(componentKey string) []string {
	return g.usage[componentKey]
}

// IsRelated reports whether key takes part in any set relationship.
func (g *Graph) IsRelated(key string) bool {
	if g.IsSet(key) {
		return true
	}
	_, ok := g.usage[key]
	return ok
}

// QtyPer returns how many units of componentKey one setKey consumes, or 1 when
// setKey does not list the component.
func (g *Graph) QtyPer(setKey, componentKey string) int {
	for _, c := range g.sets[setKey] {
		if c.Key == componentKey {
			return c.QtyPerSet
		}
	}
	return 1
}

// Sets returns set keys in first-appearance order.
func (g *Graph) Sets() []string {
	return g.setKeys
}

// Len returns the number of sets.
func (g *Graph) Len() int {
	return len(g.setKeys)
}

// Edges flattens the graph.
func (g *Graph) Edges() []models.BOMEdge {
	var edges []models.BOMEdge
	for _, setKey := range g.setKeys {
		for _, c := range g.sets[setKey] {
			edges = append(edges, models.BOMEdge{SetKey: setKey, ComponentKey: c.Key, QtyPerSet: c.QtyPerSet})
		}
	}
	return edges
}

type slotColumns struct {
	number    int
	optionIdx int
	qtyIdx    int
}

// BuildGraph parses a wide-format BOM table. Slots with an empty option or a
// quantity that is not a positive integer are dropped.
func BuildGraph(table *BOMTable, layout BOMLayout, logger *zap.Logger) (*Graph, error) {
	if table == nil {
		return nil, ErrNoBOMTable
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	graph := NewGraph()
	setIdx := indexOf(table.Header, layout.SetKeyColumn)
	if setIdx < 0 {
		logger.Warn("bom table has no set key column", zap.String("column", layout.SetKeyColumn))
		return graph, nil
	}

	slots := layout.slots(table.Header)

	for rowNum, row := range table.Rows {
		setKey := strings.TrimSpace(cell(row, setIdx))
		if setKey == "" {
			continue
		}

		for _, slot := range slots {
			option := strings.TrimSpace(cell(row, slot.optionIdx))
			if option == "" {
				continue
			}
			componentKey := strings.TrimSpace(strings.SplitN(option, layout.ComponentSeparator, 2)[0])
			if componentKey == "" {
				continue
			}

			qty, err := parseQty(cell(row, slot.qtyIdx))
			if err != nil || qty <= 0 {
				logger.Debug("skip bom slot with invalid qty",
					zap.Int("row", rowNum),
					zap.String("set", setKey),
					zap.Int("slot", slot.number),
					zap.String("value", cell(row, slot.qtyIdx)))
				continue
			}

			graph.AddEdge(setKey, componentKey, qty)
		}
	}

	return graph, nil
}

func (l BOMLayout) slots(header []string) []slotColumns {
	byNumber := make(map[int]*slotColumns)

	for idx, name := range header {
		if contains(l.IDColumns, strings.TrimSpace(name)) {
			continue
		}
		match := slotNumberPattern.FindString(name)
		if match == "" {
			continue
		}
		number, err := strconv.Atoi(match)
		if err != nil {
			continue
		}

		slot, ok := byNumber[number]
		if !ok {
			slot = &slotColumns{number: number, optionIdx: -1, qtyIdx: -1}
			byNumber[number] = slot
		}
		if strings.Contains(name, l.OptionMarker) {
			slot.optionIdx = idx
		} else {
			slot.qtyIdx = idx
		}
	}

	slots := make([]slotColumns, 0, len(byNumber))
	for _, slot := range byNumber {
		if slot.optionIdx < 0 {
			continue
		}
		slots = append(slots, *slot)
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].number < slots[j].number })
	return slots
}

func parseQty(raw string) (int, error) {
	value := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("non-finite quantity %q", raw)
	}
	if math.Abs(f) > math.MaxInt32 {
		return 0, fmt.Errorf("quantity %q out of range", raw)
	}
	return int(f), nil
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func indexOf(header []string, name string) int {
	for i, h := range header {
		if strings.TrimSpace(h) == name {
			return i
		}
	}
	return -1
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
