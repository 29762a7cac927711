package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/datsun80zx/payrep/internal/currency"
	"github.com/datsun80zx/payrep/internal/importer"
	"github.com/datsun80zx/payrep/internal/normalize"
	"github.com/datsun80zx/payrep/internal/payment"
	"github.com/datsun80zx/payrep/internal/store"
	"github.com/datsun80zx/payrep/internal/store/memory"
)

const uploadCSV = `Müşteri Adı Soyadı,Tarih,Tahsilat Şekli,Hesap Adı,Ödenen Tutar,Ödenen Döviz,Proje Adı
Ali Veli,05/01/2024,Nakit,Ofis,1000,TL,A
Ayşe Kaya,06/01/2024,Havale,Garanti,250,USD,B
,07/01/2024,Nakit,Ofis,100,TL,A
Mehmet,15/02/2024,Çek,Çek Portföy,40,USD,A
`

// newTestAPI wires the API to an in-memory store and a fixed rate table
func newTestAPI(t *testing.T, auth *Auth) (*API, *memory.Store) {
	t.Helper()

	st := memory.New()
	rates := currency.StaticSource{Table: currency.RateTable{payment.TL: decimal.RequireFromString("0.03")}}
	n := normalize.NewNormalizer()
	n.Now = func() time.Time { return time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC) }
	imp := importer.NewImporter(st, rates, zerolog.New(io.Discard)).WithNormalizer(n)

	a, err := New(st, imp, zerolog.New(io.Discard), Options{Auth: auth})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return a, st
}

func do(t *testing.T, h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func multipartUpload(t *testing.T, path, filename, content string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	part.Write([]byte(content))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode body: %v (body: %s)", err, rec.Body.String())
	}
}

func upload(t *testing.T, h http.Handler) importer.ImportResult {
	t.Helper()
	rec := do(t, h, multipartUpload(t, "/api/upload", "payments.csv", uploadCSV))
	if rec.Code != http.StatusCreated {
		t.Fatalf("upload status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var result importer.ImportResult
	decode(t, rec, &result)
	return result
}

func TestHandleHealth(t *testing.T) {
	a, _ := newTestAPI(t, nil)
	rec := do(t, a.Handler(), httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get(requestIDHeader) == "" {
		t.Error("missing request id header")
	}
}

func TestHandleUpload(t *testing.T) {
	a, _ := newTestAPI(t, nil)
	h := a.Handler()

	result := upload(t, h)
	if result.Processed != 3 || result.Failed != 1 {
		t.Errorf("processed/failed = %d/%d, want 3/1", result.Processed, result.Failed)
	}
	if len(result.Errors) != 1 || result.Errors[0].Row != 3 {
		t.Errorf("errors = %v", result.Errors)
	}

	again := do(t, h, multipartUpload(t, "/api/upload", "payments.csv", uploadCSV))
	if again.Code != http.StatusOK {
		t.Fatalf("re-upload status = %d", again.Code)
	}
	var dup importer.ImportResult
	decode(t, again, &dup)
	if !dup.AlreadyImported {
		t.Error("re-upload not flagged as already imported")
	}
}

func TestHandleUploadJSONRows(t *testing.T) {
	a, st := newTestAPI(t, nil)

	body := `{"filename":"client.xlsx","rows":[{"Customer":"Ali","Date":"05/01/2024","Method":"Cash","Account":"Office","Amount":"100","Currency":"USD","Project":"B"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/upload", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := do(t, a.Handler(), req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	stats, _ := st.Stats(context.Background())
	if stats.TotalRecords != 1 {
		t.Errorf("stored %d records, want 1", stats.TotalRecords)
	}
}

func TestHandleUploadJSONNumberCells(t *testing.T) {
	a, st := newTestAPI(t, nil)
	rows := `[{"Customer":"Ali","Date":45296,"Method":"Cash","Account":"Office","Amount":100,"Currency":"USD","Project":"A"},` +
		`{"Customer":"Veli","Date":45297,"Method":"Cash","Account":"Office","Amount":1000.125,"Currency":"USD","Project":"B"}]`

	analyze := httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader(`{"rows":`+rows+`}`))
	analyze.Header.Set("Content-Type", "application/json")
	rec := do(t, a.Handler(), analyze)
	if rec.Code != http.StatusOK {
		t.Fatalf("analyze status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var analysis importer.Analysis
	decode(t, rec, &analysis)
	if analysis.Valid != 2 {
		t.Errorf("analyze valid = %d, want 2 (errors %v)", analysis.Valid, analysis.Errors)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/upload", strings.NewReader(`{"filename":"sheet.xlsx","rows":`+rows+`}`))
	req.Header.Set("Content-Type", "application/json")
	rec = do(t, a.Handler(), req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("upload status = %d, body = %s", rec.Code, rec.Body.String())
	}

	records, err := st.ListPayments(context.Background(), store.Filter{})
	if err != nil {
		t.Fatalf("ListPayments() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("stored %d records, want 2", len(records))
	}
	if want := time.Date(2024, time.January, 5, 0, 0, 0, 0, time.UTC); !records[0].PaymentDate.Equal(want) {
		t.Errorf("serial date = %v, want %v", records[0].PaymentDate, want)
	}
	if !records[1].Amount.Equal(decimal.RequireFromString("1000.125")) {
		t.Errorf("amount = %s, want 1000.125", records[1].Amount)
	}
}

func TestHandleUploadMissingColumn(t *testing.T) {
	a, _ := newTestAPI(t, nil)
	rec := do(t, a.Handler(), multipartUpload(t, "/api/upload", "bad.csv", "Customer,Date\nAli,05/01/2024\n"))

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422 (body: %s)", rec.Code, rec.Body.String())
	}
}

func TestHandleAnalyze(t *testing.T) {
	a, st := newTestAPI(t, nil)
	rec := do(t, a.Handler(), multipartUpload(t, "/api/analyze", "payments.csv", uploadCSV))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var analysis importer.Analysis
	decode(t, rec, &analysis)
	if analysis.TotalRows != 4 || analysis.Valid != 3 {
		t.Errorf("rows/valid = %d/%d", analysis.TotalRows, analysis.Valid)
	}
	if stats, _ := st.Stats(context.Background()); stats.TotalRecords != 0 {
		t.Error("analyze persisted records")
	}
}

func TestPaymentsListAndDelete(t *testing.T) {
	a, _ := newTestAPI(t, nil)
	h := a.Handler()
	upload(t, h)

	rec := do(t, h, httptest.NewRequest(http.MethodGet, "/api/payments?start_date=2024-01-01&end_date=2024-01-31", nil))
	var list struct {
		Payments []payment.Record `json:"payments"`
		Count    int              `json:"count"`
	}
	decode(t, rec, &list)
	if list.Count != 2 {
		t.Fatalf("january count = %d, want 2", list.Count)
	}

	id := list.Payments[0].ID
	if rec := do(t, h, httptest.NewRequest(http.MethodDelete, "/api/payments/"+id, nil)); rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}
	if rec := do(t, h, httptest.NewRequest(http.MethodDelete, "/api/payments/"+id, nil)); rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rec.Code)
	}

	rec = do(t, h, httptest.NewRequest(http.MethodDelete, "/api/payments?start_date=2024-02-01&end_date=2024-02-29", nil))
	var ranged map[string]any
	decode(t, rec, &ranged)
	if ranged["deleted_count"] != float64(1) {
		t.Errorf("range delete = %v", ranged)
	}

	if rec := do(t, h, httptest.NewRequest(http.MethodDelete, "/api/payments", nil)); rec.Code != http.StatusBadRequest {
		t.Errorf("range delete without dates status = %d, want 400", rec.Code)
	}
	if rec := do(t, h, httptest.NewRequest(http.MethodDelete, "/api/payments?start_date=2024-03-01&end_date=2024-02-01", nil)); rec.Code != http.StatusBadRequest {
		t.Errorf("inverted range status = %d, want 400", rec.Code)
	}

	rec = do(t, h, httptest.NewRequest(http.MethodDelete, "/api/payments/all", nil))
	var cleared map[string]any
	decode(t, rec, &cleared)
	if cleared["deleted_count"] != float64(1) {
		t.Errorf("clear = %v", cleared)
	}
}

func TestHandleSetTax(t *testing.T) {
	a, st := newTestAPI(t, nil)
	h := a.Handler()
	upload(t, h)

	records, _ := st.ListPayments(context.Background(), store.Filter{})
	id := records[0].ID

	req := httptest.NewRequest(http.MethodPut, "/api/payments/"+id+"/tax",
		strings.NewReader(`{"includes_tax":true,"tax_amount":"152.54","tax_rate":"0.18","tax_note":"KDV"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := do(t, h, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var got payment.Record
	decode(t, rec, &got)
	if got.Tax == nil || got.Tax.Note != "KDV" || !got.Tax.Amount.Equal(decimal.RequireFromString("152.54")) {
		t.Errorf("tax = %+v", got.Tax)
	}
	if !got.AmountUSD.Equal(records[0].AmountUSD) {
		t.Error("tax annotation changed the converted amount")
	}
}

func TestReportEndpoints(t *testing.T) {
	a, _ := newTestAPI(t, nil)
	h := a.Handler()
	upload(t, h)

	rec := do(t, h, httptest.NewRequest(http.MethodGet, "/api/reports/monthly/2024/1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("monthly status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var monthly struct {
		Total decimal.Decimal `json:"total_usd"`
		Count int             `json:"count"`
	}
	decode(t, rec, &monthly)
	if monthly.Count != 2 || !monthly.Total.Equal(decimal.RequireFromString("280")) {
		t.Errorf("monthly = %+v, want 2 payments totaling 280", monthly)
	}

	rec = do(t, h, httptest.NewRequest(http.MethodGet, "/api/reports/yearly/2024", nil))
	var yearly struct {
		Total          decimal.Decimal   `json:"total_usd"`
		MonthlyReports []json.RawMessage `json:"monthly_reports"`
	}
	decode(t, rec, &yearly)
	if len(yearly.MonthlyReports) != 12 || !yearly.Total.Equal(decimal.RequireFromString("320")) {
		t.Errorf("yearly total = %s with %d months", yearly.Total, len(yearly.MonthlyReports))
	}

	if rec := do(t, h, httptest.NewRequest(http.MethodGet, "/api/reports/monthly/2024/13", nil)); rec.Code != http.StatusBadRequest {
		t.Errorf("month 13 status = %d, want 400", rec.Code)
	}

	rec = do(t, h, httptest.NewRequest(http.MethodGet, "/api/reports/weekly?date=2024-01-05&format=html", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Header().Get("Content-Type"), "text/html") {
		t.Errorf("weekly html status = %d, type = %s", rec.Code, rec.Header().Get("Content-Type"))
	}

	rec = do(t, h, httptest.NewRequest(http.MethodGet, "/api/reports/yearly/2024/export", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("export status = %d", rec.Code)
	}
	if !strings.Contains(rec.Header().Get("Content-Disposition"), "payments-2024.xlsx") {
		t.Errorf("Content-Disposition = %s", rec.Header().Get("Content-Disposition"))
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")) {
		t.Error("export is not a zip container")
	}
}

func TestAuthMiddleware(t *testing.T) {
	auth := NewAuth("test-secret", time.Hour)
	a, _ := newTestAPI(t, auth)
	h := a.Handler()

	if rec := do(t, h, httptest.NewRequest(http.MethodGet, "/api/health", nil)); rec.Code != http.StatusOK {
		t.Errorf("health without token = %d, want 200", rec.Code)
	}
	if rec := do(t, h, httptest.NewRequest(http.MethodGet, "/api/stats", nil)); rec.Code != http.StatusUnauthorized {
		t.Errorf("stats without token = %d, want 401", rec.Code)
	}

	token, _, err := auth.Issue("ops")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	if rec := do(t, h, req); rec.Code != http.StatusOK {
		t.Errorf("stats with token = %d, want 200", rec.Code)
	}

	other := NewAuth("other-secret", time.Hour)
	forged, _, _ := other.Issue("ops")
	req = httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	req.Header.Set("Authorization", "Bearer "+forged)
	if rec := do(t, h, req); rec.Code != http.StatusUnauthorized {
		t.Errorf("stats with foreign token = %d, want 401", rec.Code)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	a, _ := newTestAPI(t, nil)
	h := a.requestID(a.recovery(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})))

	rec := do(t, h, httptest.NewRequest(http.MethodGet, "/api/anything", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "boom") {
		t.Error("panic value leaked to client")
	}
}
