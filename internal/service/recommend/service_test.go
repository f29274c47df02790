package recommend

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/restock/internal/domain/models"
	"github.com/mamadbah2/restock/internal/engine"
	"github.com/mamadbah2/restock/internal/repository/mongodb"
	"github.com/mamadbah2/restock/internal/service/ingest"
	"github.com/mamadbah2/restock/internal/service/loader"
)

var fixedNow = time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)

type fakeSource struct {
	result *loader.Result
	err    error
}

func (f fakeSource) Load(context.Context) (*loader.Result, error) {
	return f.result, f.err
}

type fakeStore struct {
	saved []models.RunReport
	err   error
}

func (f *fakeStore) SaveRun(_ context.Context, report models.RunReport) error {
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, report)
	return nil
}

func (f *fakeStore) LatestRun(context.Context) (*models.RunReport, error) {
	if len(f.saved) == 0 {
		return nil, mongodb.ErrNotFound
	}
	return &f.saved[len(f.saved)-1], nil
}

type fakeWriter struct {
	sheetRange string
	rows       [][]interface{}
	logRange   string
	logRows    [][]interface{}
	appendErr  error
}

func (f *fakeWriter) ReplaceRange(_ context.Context, sheetRange string, rows [][]interface{}) error {
	f.sheetRange = sheetRange
	f.rows = rows
	return nil
}

func (f *fakeWriter) WriteRow(_ context.Context, sheetRange string, values []interface{}) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.logRange = sheetRange
	f.logRows = append(f.logRows, values)
	return nil
}

type fakeNotifier struct {
	runs     []*models.RunReport
	failures []string
}

func (f *fakeNotifier) NotifyRun(_ context.Context, report *models.RunReport) error {
	f.runs = append(f.runs, report)
	return nil
}

func (f *fakeNotifier) NotifyFailure(_ context.Context, stage string, _ error) error {
	f.failures = append(f.failures, stage)
	return nil
}

func singleUnitSheet() *loader.Result {
	return &loader.Result{
		Tables: ingest.Tables{
			Inventory: &ingest.Table{
				Header: []string{"옵션ID_이이엘", "구분값", "한국창고재고", "쿠팡로켓_옵션코드"},
				Rows:   [][]string{{"1_cup_white", "흰 컵", "10", "12345678901"}},
			},
			Destination: &ingest.Table{
				Header: []string{
					"Option ID",
					"Orderable quantity (real-time)",
					"Pending inbounds (real-time)",
					"Recent sales quantity Last 7 days",
					"Recent sales quantity Last 30 days",
				},
				Rows: [][]string{{"12345678901", "0", "0", "7", "30"}},
			},
			Sales: &ingest.Table{Header: []string{"옵션관리코드", "수량", "날짜"}},
		},
	}
}

func newTestService(source DataSource, opts Options) *Service {
	opts.Clock = func() time.Time { return fixedNow }
	processor := ingest.NewProcessor(ingest.DefaultColumns(), engine.DefaultBOMLayout(), nil, nil)
	return NewService(source, processor, engine.New(engine.DefaultPolicy(), nil), opts, nil)
}

func TestRun(t *testing.T) {
	store := &fakeStore{}
	writer := &fakeWriter{}
	notifier := &fakeNotifier{}

	svc := newTestService(fakeSource{result: singleUnitSheet()}, Options{
		Store:       store,
		Writer:      writer,
		ResultRange: "입고추천!A1",
		RunLogRange: "실행기록!A1",
		Notifier:    notifier,
		UrgentDays:  5,
	})

	report, err := svc.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Recommendations, 1)
	assert.Equal(t, 8, report.TotalQty)
	assert.Equal(t, 1, report.UrgentCount)
	assert.Equal(t, []string{"1_cup_white"}, report.CorrectedSKUs)
	assert.Equal(t, fixedNow, report.RunAt)

	require.Len(t, store.saved, 1)
	assert.Equal(t, "입고추천!A1", writer.sheetRange)
	require.Len(t, writer.rows, 2)
	assert.Equal(t, "1_cup_white", writer.rows[1][1])
	assert.Equal(t, "실행기록!A1", writer.logRange)
	assert.Equal(t, [][]interface{}{{"2025-06-10 09:00:00", 1, 8, 1}}, writer.logRows)
	require.Len(t, notifier.runs, 1)

	latest, err := svc.Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 8, latest.TotalQty)
}

func TestRun_LoadFailureNotifies(t *testing.T) {
	notifier := &fakeNotifier{}
	svc := newTestService(fakeSource{err: errors.New("quota exceeded")}, Options{Notifier: notifier})

	_, err := svc.Run(context.Background())
	assert.ErrorContains(t, err, "data loading")
	assert.Equal(t, []string{"data loading"}, notifier.failures)
}

func TestRun_MissingDataset(t *testing.T) {
	sheet := singleUnitSheet()
	sheet.Tables.Sales = nil

	_, err := newTestService(fakeSource{result: sheet}, Options{}).Run(context.Background())
	assert.ErrorIs(t, err, ingest.ErrMissingDataset)
}

func TestRun_StoreFailureIsNotFatal(t *testing.T) {
	svc := newTestService(fakeSource{result: singleUnitSheet()}, Options{Store: &fakeStore{err: errors.New("down")}})

	report, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 8, report.TotalQty)

	latest, err := svc.Latest(context.Background())
	require.NoError(t, err, "falls back to the in-memory report")
	assert.Same(t, report, latest)
}

func TestRun_RunLogFailureIsNotFatal(t *testing.T) {
	writer := &fakeWriter{appendErr: errors.New("protected range")}
	svc := newTestService(fakeSource{result: singleUnitSheet()}, Options{
		Writer:      writer,
		ResultRange: "입고추천!A1",
		RunLogRange: "실행기록!A1",
	})

	report, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 8, report.TotalQty)
	assert.Len(t, writer.rows, 2, "result sheet is still replaced")
	assert.Empty(t, writer.logRows)
}

func TestLatest_NoRuns(t *testing.T) {
	_, err := newTestService(fakeSource{}, Options{Store: &fakeStore{}}).Latest(context.Background())
	assert.ErrorIs(t, err, ErrNoRuns)
}
