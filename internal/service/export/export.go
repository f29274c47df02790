// Package export turns ranked recommendations into the tabular outputs the
// warehouse team works from: the full list and the capped daily work list.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/mamadbah2/restock/internal/domain/models"
)

// Header is the column row of the full recommendation table.
var Header = []string{"상품그룹", "sku", "상품명", "쿠팡재고", "쿠팡_재고소진_예상일", "입고수량"}

const urgentLabel = "긴급"

// WorkItem is one line of the daily work list.
type WorkItem struct {
	models.Recommendation
	Urgent bool
}

// ByGroupUrgency orders recommendations so that the group holding the
// soonest stockout comes first, then by group name and depletion days.
func ByGroupUrgency(recs []models.Recommendation) []models.Recommendation {
	groupMin := make(map[string]int)
	for _, r := range recs {
		if cur, ok := groupMin[r.DisplayGroup]; !ok || r.DisplayDepletionDays < cur {
			groupMin[r.DisplayGroup] = r.DisplayDepletionDays
		}
	}

	out := append([]models.Recommendation(nil), recs...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if groupMin[a.DisplayGroup] != groupMin[b.DisplayGroup] {
			return groupMin[a.DisplayGroup] < groupMin[b.DisplayGroup]
		}
		if a.DisplayGroup != b.DisplayGroup {
			return a.DisplayGroup < b.DisplayGroup
		}
		return a.DisplayDepletionDays < b.DisplayDepletionDays
	})
	return out
}

// DailyWorkList picks what can be packed in one day: empty destination slots
// first, then the soonest stockouts, then the fastest sellers, while the
// cumulative quantity stays within limit. The result is grouped by product
// group.
func DailyWorkList(recs []models.Recommendation, limit int) []WorkItem {
	ordered := append([]models.Recommendation(nil), recs...)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		aEmpty, bEmpty := a.DestinationStock == 0, b.DestinationStock == 0
		if aEmpty != bEmpty {
			return aEmpty
		}
		if a.DisplayDepletionDays != b.DisplayDepletionDays {
			return a.DisplayDepletionDays < b.DisplayDepletionDays
		}
		return a.DestinationVelocity > b.DestinationVelocity
	})

	var items []WorkItem
	total := 0
	for _, r := range ordered {
		total += r.TransferQty
		if total > limit {
			break
		}
		items = append(items, WorkItem{
			Recommendation: r,
			Urgent:         r.DisplayDepletionDays < 7 || r.DestinationStock <= 1,
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].DisplayGroup < items[j].DisplayGroup
	})
	return items
}

// Rows renders the full table, header included.
func Rows(recs []models.Recommendation) [][]string {
	rows := [][]string{Header}
	for _, r := range recs {
		rows = append(rows, row(r))
	}
	return rows
}

// WorkRows renders the daily work list with a trailing urgency column.
func WorkRows(items []WorkItem) [][]string {
	header := append(append([]string(nil), Header...), urgentLabel)
	rows := [][]string{header}
	for _, item := range items {
		flag := ""
		if item.Urgent {
			flag = urgentLabel
		}
		rows = append(rows, append(row(item.Recommendation), flag))
	}
	return rows
}

// SheetValues converts rows to the cell type the sheets API expects.
func SheetValues(rows [][]string) [][]interface{} {
	out := make([][]interface{}, len(rows))
	for i, r := range rows {
		cells := make([]interface{}, len(r))
		for j, c := range r {
			cells[j] = c
		}
		out[i] = cells
	}
	return out
}

// WriteCSV writes rows as CSV.
func WriteCSV(w io.Writer, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

func row(r models.Recommendation) []string {
	return []string{
		r.DisplayGroup,
		r.Key,
		r.Name,
		strconv.FormatFloat(r.DestinationStock, 'f', -1, 64),
		strconv.Itoa(r.DisplayDepletionDays),
		strconv.Itoa(r.TransferQty),
	}
}
