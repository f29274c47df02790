package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/restock/internal/domain/models"
	"github.com/mamadbah2/restock/internal/server/handlers"
	"github.com/mamadbah2/restock/internal/service/ingest"
	"github.com/mamadbah2/restock/internal/service/recommend"
)

type fakeService struct {
	report *models.RunReport
	runErr error
	latest error
}

func (f *fakeService) Run(context.Context) (*models.RunReport, error) {
	return f.report, f.runErr
}

func (f *fakeService) Latest(context.Context) (*models.RunReport, error) {
	if f.latest != nil {
		return nil, f.latest
	}
	return f.report, nil
}

type fakeSender struct {
	channel, text string
	err           error
}

func (f *fakeSender) Send(_ context.Context, channel, text string) error {
	f.channel, f.text = channel, text
	return f.err
}

func sampleReport() *models.RunReport {
	return &models.RunReport{
		TotalQty: 8,
		Recommendations: []models.Recommendation{
			{Key: "1_cup_white", Name: "흰 컵", TransferQty: 8, DepletionDays: 0},
		},
	}
}

func newTestRouter(svc *fakeService, sender *fakeSender) http.Handler {
	return New(handlers.NewRecommendationHandler(svc, sender, 5, 5, nil), nil)
}

func serve(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	w := serve(newTestRouter(&fakeService{}, &fakeSender{}), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestRunRecommendations(t *testing.T) {
	w := serve(newTestRouter(&fakeService{report: sampleReport()}, &fakeSender{}), http.MethodPost, "/recommendations/run", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.RunResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 8, resp.Report.TotalQty)
	assert.Equal(t, "1_cup_white", resp.Report.Recommendations[0].Key)
	assert.Contains(t, resp.Summary, "흰 컵")
}

func TestRunRecommendations_Errors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{name: "missing dataset", err: fmt.Errorf("data processing: %w", ingest.ErrMissingDataset), status: http.StatusUnprocessableEntity},
		{name: "upstream failure", err: errors.New("data loading: quota"), status: http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(newTestRouter(&fakeService{runErr: tt.err}, &fakeSender{}), http.MethodPost, "/recommendations/run", "")
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestLatestRecommendations(t *testing.T) {
	w := serve(newTestRouter(&fakeService{report: sampleReport()}, &fakeSender{}), http.MethodGet, "/recommendations/latest", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(newTestRouter(&fakeService{latest: recommend.ErrNoRuns}, &fakeSender{}), http.MethodGet, "/recommendations/latest", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = serve(newTestRouter(&fakeService{latest: errors.New("mongo down")}, &fakeSender{}), http.MethodGet, "/recommendations/latest", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestSendMessage(t *testing.T) {
	sender := &fakeSender{}
	h := newTestRouter(&fakeService{}, sender)

	w := serve(h, http.MethodPost, "/send-message", `{"channel":"#ops","message":"restock at 3pm"}`)
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "#ops", sender.channel)
	assert.Equal(t, "restock at 3pm", sender.text)

	w = serve(h, http.MethodPost, "/send-message", `{"channel":"#ops"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	sender.err = errors.New("slack down")
	w = serve(h, http.MethodPost, "/send-message", `{"message":"hi"}`)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}
