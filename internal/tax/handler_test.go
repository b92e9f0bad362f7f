package tax

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	_ "github.com/fiberdesk/fiberdesk/testing"
)

func newTestRouter(repo *mockRepo) http.Handler {
	h := NewHandler(nil, NewService(repo, nil))
	r := chi.NewRouter()
	h.MountRoutes(r)
	return r
}

func TestListRecordsUsesSuccessEnvelope(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, nil)
	_, err := svc.Create(context.Background(), CreateRecordInput{
		TaxType: "vat", Period: "2026-02", AmountDue: d("1990"), DueDate: future(),
	})
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	newTestRouter(repo).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/tax-records", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var body struct {
		Success bool     `json:"success"`
		Data    []Record `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.True(t, body.Success)
	require.Len(t, body.Data, 1)
	require.Equal(t, "vat", body.Data[0].TaxType)
}

func TestPatchRecordByID(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, nil)
	rec, err := svc.Create(context.Background(), CreateRecordInput{
		TaxType: "vat", Period: "2026-02", AmountDue: d("1990"), DueDate: future(),
	})
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/tax-records/1",
		strings.NewReader(`{"status":"filed","filed_at":"2026-02-20"}`))
	newTestRouter(repo).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var updated Record
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &updated))
	require.Equal(t, rec.ID, updated.ID)
	require.Equal(t, StatusFiled, updated.Status)
	require.NotNil(t, updated.FiledAt)
}
