package sheets

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/mamadbah2/restock/internal/config"
)

// Repository defines the persistence operations supported by the Google Sheets adapter.
type Repository interface {
	WriteRow(ctx context.Context, sheetRange string, values []interface{}) error
	ReadRange(ctx context.Context, sheetRange string) ([][]interface{}, error)
	ReplaceRange(ctx context.Context, sheetRange string, rows [][]interface{}) error
}

// GoogleSheetRepository implements the Repository interface using the official Google Sheets API.
type GoogleSheetRepository struct {
	service       *sheetsapi.Service
	spreadsheetID string
	logger        *zap.Logger
}

// NewGoogleSheetRepository builds a Google Sheets backed repository instance.
func NewGoogleSheetRepository(ctx context.Context, cfg config.SheetsConfig, logger *zap.Logger) (Repository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	service, err := sheetsapi.NewService(ctx, option.WithCredentialsFile(cfg.CredentialsPath), option.WithScopes(sheetsapi.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sheets client: %w", err)
	}

	return &GoogleSheetRepository{
		service:       service,
		spreadsheetID: cfg.SpreadsheetID,
		logger:        logger,
	}, nil
}

// WriteRow appends the provided values to the supplied sheet range.
func (r *GoogleSheetRepository) WriteRow(ctx context.Context, sheetRange string, values []interface{}) error {
	if sheetRange == "" {
		return fmt.Errorf("sheetRange must not be empty")
	}

	payload := &sheetsapi.ValueRange{Values: [][]interface{}{values}}

	call := r.service.Spreadsheets.Values.Append(r.spreadsheetID, sheetRange, payload).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx)

	if _, err := call.Do(); err != nil {
		return fmt.Errorf("append row into range %s: %w", sheetRange, err)
	}

	r.logger.Debug("row appended to sheet", zap.String("range", sheetRange))
	return nil
}

// ReadRange fetches a rectangular data range from the spreadsheet. Numeric
// cells arrive as float64 and dates as their displayed text.
func (r *GoogleSheetRepository) ReadRange(ctx context.Context, sheetRange string) ([][]interface{}, error) {
	if sheetRange == "" {
		return nil, fmt.Errorf("sheetRange must not be empty")
	}

	resp, err := r.service.Spreadsheets.Values.Get(r.spreadsheetID, sheetRange).
		ValueRenderOption("UNFORMATTED_VALUE").
		DateTimeRenderOption("FORMATTED_STRING").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("read range %s: %w", sheetRange, err)
	}

	r.logger.Debug("range read from sheet", zap.String("range", sheetRange), zap.Int("rows", len(resp.Values)))
	return resp.Values, nil
}

// ReplaceRange clears the tab that owns sheetRange and writes rows starting at
// sheetRange's anchor cell.
func (r *GoogleSheetRepository) ReplaceRange(ctx context.Context, sheetRange string, rows [][]interface{}) error {
	if sheetRange == "" {
		return fmt.Errorf("sheetRange must not be empty")
	}

	tab := sheetRange
	if idx := strings.LastIndex(sheetRange, "!"); idx >= 0 {
		tab = sheetRange[:idx]
	}

	if _, err := r.service.Spreadsheets.Values.Clear(r.spreadsheetID, tab, &sheetsapi.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear range %s: %w", tab, err)
	}

	payload := &sheetsapi.ValueRange{Values: rows}
	call := r.service.Spreadsheets.Values.Update(r.spreadsheetID, sheetRange, payload).
		ValueInputOption("USER_ENTERED").
		Context(ctx)

	if _, err := call.Do(); err != nil {
		return fmt.Errorf("update range %s: %w", sheetRange, err)
	}

	r.logger.Info("range replaced in sheet", zap.String("range", sheetRange), zap.Int("rows", len(rows)))
	return nil
}
