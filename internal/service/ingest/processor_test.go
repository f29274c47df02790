package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/mamadbah2/restock/internal/domain/models"
	"github.com/mamadbah2/restock/internal/engine"
)

var testNow = time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

func sampleTables() Tables {
	return Tables{
		Inventory: &Table{
			Header: []string{"옵션ID_이이엘", "구분값", "한국창고재고", "쿠팡로켓_옵션코드"},
			Rows: [][]string{
				{"mug_red", "빨간 머그", "1,200", "11111111111"},
				{"set_mug", "머그세트", "0", "22222222222"},
				{"", "no key", "5", ""},
				{"set_fhb_old", "old", "3", "33333333333"},
				{"mug_red", "dup", "10", ""},
			},
		},
		Destination: &Table{
			Header: []string{
				"Option ID",
				"Orderable quantity (real-time)",
				"Pending inbounds (real-time)",
				"Recent sales quantity Last 7 days",
				"Recent sales quantity Last 30 days",
			},
			Rows: [][]string{
				{"11111111111", "4", "2", "-3", "30"},
				{"22222222222", "1", "0", "2", "10"},
				{"99999999999", "5", "5", "5", "5"},
			},
		},
		Sales: &Table{
			Header: []string{"옵션관리코드", "수량", "날짜"},
			Rows: [][]string{
				{"mug_red", "3", "2025-06-09"},
				{"mug_red", "2", "2025-06-03"},
				{"set_mug", "1", "2025. 6. 8"},
				{"mug_red", "7", "not a date"},
			},
		},
		BOM: &Table{
			Header: []string{"세트명", "옵션", "세트_ID", "조합1_옵션", "조합1_개수"},
			Rows: [][]string{
				{"머그세트", "A", "set_mug", "mug_red/빨강", "2"},
				{"옛세트", "B", "set_fhb_x", "mug_red", "1"},
			},
		},
	}
}

func newTestProcessor() *Processor {
	return NewProcessor(DefaultColumns(), engine.DefaultBOMLayout(), []string{"set_fhb_"}, nil)
}

func TestProcess(t *testing.T) {
	ds, err := newTestProcessor().Process(sampleTables(), testNow)
	require.NoError(t, err)
	require.Len(t, ds.Records, 2)

	assert.Equal(t, models.SKURecord{
		Key:                       "mug_red",
		Name:                      "빨간 머그",
		OriginStock:               1210,
		DestinationStock:          6,
		DestinationOptionCode:     "11111111111",
		DestinationSales7D:        0,
		DestinationSales30D:       50,
		DirectDestinationSales30D: 30,
		HasDirectSales:            true,
		OriginSales7D:             3,
		OriginSales30D:            7,
	}, ds.Records[0])

	set := ds.Records[1]
	assert.Equal(t, "set_mug", set.Key)
	assert.Equal(t, 1.0, set.DestinationStock)
	assert.Equal(t, 2.0, set.DestinationSales7D)
	assert.Equal(t, 10.0, set.DestinationSales30D)
	assert.Equal(t, 1.0, set.OriginSales7D)
	assert.Equal(t, 1.0, set.OriginSales30D)

	require.NotNil(t, ds.BOM)
	assert.Len(t, ds.BOM.Rows, 1, "excluded sets are removed from the bundle sheet")
}

func TestProcess_WithoutBOM(t *testing.T) {
	tables := sampleTables()
	tables.BOM = nil

	ds, err := newTestProcessor().Process(tables, testNow)
	require.NoError(t, err)
	assert.Nil(t, ds.BOM)
	assert.Equal(t, 30.0, ds.Records[0].DestinationSales30D)
	assert.Equal(t, 5.0, ds.Records[0].OriginSales30D)
}

func TestProcess_MissingDataset(t *testing.T) {
	for _, name := range []string{"inventory", "destination", "sales"} {
		t.Run(name, func(t *testing.T) {
			tables := sampleTables()
			switch name {
			case "inventory":
				tables.Inventory = nil
			case "destination":
				tables.Destination = nil
			case "sales":
				tables.Sales = nil
			}

			_, err := newTestProcessor().Process(tables, testNow)
			assert.ErrorIs(t, err, ErrMissingDataset)
			assert.ErrorContains(t, err, name)
		})
	}
}

func TestProcess_SalesWithoutDateColumn(t *testing.T) {
	tables := sampleTables()
	tables.Sales = &Table{
		Header: []string{"옵션관리코드", "수량"},
		Rows:   [][]string{{"mug_red", "4"}, {"mug_red", "1"}},
	}
	tables.BOM = nil

	ds, err := newTestProcessor().Process(tables, testNow)
	require.NoError(t, err)
	assert.Equal(t, 5.0, ds.Records[0].OriginSales30D)
	assert.Zero(t, ds.Records[0].OriginSales7D)
}

func TestProcess_WarnsOnNonNumericCells(t *testing.T) {
	tables := sampleTables()
	tables.Inventory.Rows[1][2] = "many"
	tables.Destination.Rows[0][1] = "n/a"
	tables.Destination.Rows[1][4] = "?"
	tables.Sales.Rows[0][1] = "three"
	tables.BOM = nil

	core, logs := observer.New(zapcore.WarnLevel)
	processor := NewProcessor(DefaultColumns(), engine.DefaultBOMLayout(), []string{"set_fhb_"}, zap.New(core))

	ds, err := processor.Process(tables, testNow)
	require.NoError(t, err)
	assert.Zero(t, ds.Records[1].OriginStock)

	warned := map[string]int64{}
	for _, entry := range logs.FilterMessage("non-numeric cells treated as zero").All() {
		fields := entry.ContextMap()
		warned[fields["sheet"].(string)] = fields["cells"].(int64)
	}
	assert.Equal(t, map[string]int64{"inventory": 1, "destination": 2, "sales": 1}, warned)
}

func TestParseNumber(t *testing.T) {
	v, ok := parseNumber("")
	assert.True(t, ok)
	assert.Zero(t, v)

	v, ok = parseNumber("1,5")
	assert.True(t, ok)
	assert.Equal(t, 15.0, v)

	_, ok = parseNumber("abc")
	assert.False(t, ok)
}

func TestNumber(t *testing.T) {
	assert.Equal(t, 1200.0, number("1,200"))
	assert.Equal(t, 2.5, number(" 2.5 "))
	assert.Zero(t, number(""))
	assert.Zero(t, number("n/a"))
	assert.Zero(t, number("NaN"))
}

func TestParseDate(t *testing.T) {
	for _, raw := range []string{"2025-06-09", "2025/06/09", "2025. 6. 9", "2025-06-09 08:30:00", "2025-06-09T08:30:00+09:00"} {
		got, ok := parseDate(raw)
		require.True(t, ok, raw)
		assert.Equal(t, 2025, got.Year())
		assert.Equal(t, time.June, got.Month())
	}

	_, ok := parseDate("yesterday")
	assert.False(t, ok)
}
