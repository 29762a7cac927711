package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/datsun80zx/payrep/internal/importer"
	"github.com/datsun80zx/payrep/internal/parser"
	"github.com/datsun80zx/payrep/internal/payment"
	"github.com/datsun80zx/payrep/internal/report"
	"github.com/datsun80zx/payrep/internal/store"
)

const dateLayout = "2006-01-02"

// rowsUpload is the JSON form of an upload: rows already read from the spreadsheet
type rowsUpload struct {
	Filename string            `json:"filename"`
	Rows     []parser.ValueRow `json:"rows"`
}

func isJSON(r *http.Request) bool {
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return mt == "application/json"
}

// uploadedFile returns the multipart "file" part
func uploadedFile(r *http.Request) (string, io.ReadCloser, error) {
	if err := r.ParseMultipartForm(importer.MaxUploadBytes); err != nil {
		return "", nil, fmt.Errorf("invalid upload: %w", err)
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return "", nil, fmt.Errorf("missing file field: %w", err)
	}
	return header.Filename, file, nil
}

func decodeRows(w http.ResponseWriter, r *http.Request) (*rowsUpload, error) {
	var req rowsUpload
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, importer.MaxUploadBytes))
	// numbers stay exact until the amount parser sees them
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		return nil, fmt.Errorf("invalid request body: %w", err)
	}
	if req.Filename == "" {
		req.Filename = "upload.json"
	}
	return &req, nil
}

func (a *API) handleUpload(w http.ResponseWriter, r *http.Request) {
	var (
		result *importer.ImportResult
		err    error
	)

	if isJSON(r) {
		req, derr := decodeRows(w, r)
		if derr != nil {
			writeError(w, r, http.StatusBadRequest, derr)
			return
		}
		result, err = a.importer.ImportRows(r.Context(), req.Filename, req.Rows)
	} else {
		name, file, ferr := uploadedFile(r)
		if ferr != nil {
			writeError(w, r, http.StatusBadRequest, ferr)
			return
		}
		defer file.Close()
		result, err = a.importer.ImportReader(r.Context(), name, file)
	}
	if err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}

	status := http.StatusCreated
	if result.AlreadyImported || result.BatchID == "" {
		status = http.StatusOK
	}
	writeJSON(w, status, result)
}

func (a *API) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var (
		analysis *importer.Analysis
		err      error
	)

	if isJSON(r) {
		req, derr := decodeRows(w, r)
		if derr != nil {
			writeError(w, r, http.StatusBadRequest, derr)
			return
		}
		analysis, err = a.importer.AnalyzeTable(r.Context(), req.Filename, parser.FromValues(req.Rows))
	} else {
		name, file, ferr := uploadedFile(r)
		if ferr != nil {
			writeError(w, r, http.StatusBadRequest, ferr)
			return
		}
		defer file.Close()
		analysis, err = a.importer.Analyze(r.Context(), name, file)
	}
	if err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

func parseDay(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return &t, nil
}

func filterFromQuery(r *http.Request) (store.Filter, error) {
	q := r.URL.Query()
	from, err := parseDay(q.Get("start_date"))
	if err != nil {
		return store.Filter{}, err
	}
	to, err := parseDay(q.Get("end_date"))
	if err != nil {
		return store.Filter{}, err
	}

	f := store.Filter{From: from, To: to, BatchID: q.Get("batch_id")}
	if p := q.Get("project"); p != "" {
		f.Project = payment.Project(strings.ToUpper(p))
		if !f.Project.Valid() {
			return store.Filter{}, fmt.Errorf("unknown project %q", p)
		}
	}
	return f, nil
}

func (a *API) handleListPayments(w http.ResponseWriter, r *http.Request) {
	f, err := filterFromQuery(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	records, err := a.store.ListPayments(r.Context(), f)
	if err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}
	if records == nil {
		records = []payment.Record{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"payments": records,
		"count":    len(records),
	})
}

func (a *API) handleGetPayment(w http.ResponseWriter, r *http.Request) {
	rec, err := a.store.GetPayment(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (a *API) handleDeletePayment(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := a.store.DeletePayment(r.Context(), id); err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": id})
}

// handleDeleteRange removes payments between start_date and end_date, both required
func (a *API) handleDeleteRange(w http.ResponseWriter, r *http.Request) {
	f, err := filterFromQuery(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	if f.From == nil || f.To == nil {
		writeError(w, r, http.StatusBadRequest, errors.New("start_date and end_date are required"))
		return
	}

	n, err := a.store.DeleteRange(r.Context(), *f.From, *f.To)
	if err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"deleted_count": n,
		"start_date":    f.From.Format(dateLayout),
		"end_date":      f.To.Format(dateLayout),
	})
}

func (a *API) handleClear(w http.ResponseWriter, r *http.Request) {
	n, err := a.store.Clear(r.Context())
	if err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted_count": n})
}

type taxRequest struct {
	IncludesTax bool            `json:"includes_tax"`
	TaxAmount   decimal.Decimal `json:"tax_amount"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
	TaxNote     string          `json:"tax_note"`
}

func (a *API) handleSetTax(w http.ResponseWriter, r *http.Request) {
	var req taxRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if req.TaxAmount.IsNegative() || req.TaxRate.IsNegative() {
		writeError(w, r, http.StatusBadRequest, errors.New("tax amount and rate must not be negative"))
		return
	}

	var tax *payment.TaxAnnotation
	if req.IncludesTax || !req.TaxAmount.IsZero() || req.TaxNote != "" {
		tax = &payment.TaxAnnotation{
			IncludesTax: req.IncludesTax,
			Amount:      req.TaxAmount,
			Rate:        req.TaxRate,
			Note:        req.TaxNote,
		}
	}

	rec, err := a.store.SetTax(r.Context(), mux.Vars(r)["id"], tax)
	if err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func wantsHTML(r *http.Request) bool {
	return r.URL.Query().Get("format") == "html"
}

func (a *API) writeHTML(w http.ResponseWriter, r *http.Request, render func(io.Writer) error) {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// handleWeekly lists every week, or only the week containing ?date=
func (a *API) handleWeekly(w http.ResponseWriter, r *http.Request) {
	date, err := parseDay(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	if date != nil {
		wk, err := a.generator.Week(r.Context(), *date)
		if err != nil {
			writeError(w, r, statusFor(err), err)
			return
		}
		if wantsHTML(r) {
			a.writeHTML(w, r, func(out io.Writer) error { return a.renderer.RenderWeekly(out, wk) })
			return
		}
		writeJSON(w, http.StatusOK, wk)
		return
	}

	reports, err := a.generator.Weekly(r.Context())
	if err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reports": reports})
}

func pathInt(r *http.Request, name string) (int, error) {
	n, err := strconv.Atoi(mux.Vars(r)[name])
	if err != nil {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return n, nil
}

func (a *API) handleMonthly(w http.ResponseWriter, r *http.Request) {
	year, err := pathInt(r, "year")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	month, err := pathInt(r, "month")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	mr, err := a.generator.Monthly(r.Context(), year, time.Month(month))
	if err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}
	if wantsHTML(r) {
		a.writeHTML(w, r, func(out io.Writer) error { return a.renderer.RenderMonthly(out, mr) })
		return
	}
	writeJSON(w, http.StatusOK, mr)
}

func (a *API) handleYearly(w http.ResponseWriter, r *http.Request) {
	yr, ok := a.yearly(w, r)
	if !ok {
		return
	}
	if wantsHTML(r) {
		a.writeHTML(w, r, func(out io.Writer) error { return a.renderer.RenderYearly(out, yr) })
		return
	}
	writeJSON(w, http.StatusOK, yr)
}

func (a *API) yearly(w http.ResponseWriter, r *http.Request) (*report.YearlyReport, bool) {
	year, err := pathInt(r, "year")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return nil, false
	}
	yr, err := a.generator.Yearly(r.Context(), year)
	if err != nil {
		writeError(w, r, statusFor(err), err)
		return nil, false
	}
	return yr, true
}

func (a *API) handleYearlyExport(w http.ResponseWriter, r *http.Request) {
	yr, ok := a.yearly(w, r)
	if !ok {
		return
	}
	a.writeWorkbook(w, r, fmt.Sprintf("payments-%d.xlsx", yr.Year), func(wb *report.Workbook) error {
		return wb.AddYearly(yr)
	})
}

func (a *API) handleWeeklyExport(w http.ResponseWriter, r *http.Request) {
	reports, err := a.generator.Weekly(r.Context())
	if err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}
	a.writeWorkbook(w, r, "weekly-reports.xlsx", func(wb *report.Workbook) error {
		for i := range reports {
			if err := wb.AddWeekly(&reports[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

func (a *API) writeWorkbook(w http.ResponseWriter, r *http.Request, filename string, fill func(*report.Workbook) error) {
	wb, err := report.NewWorkbook()
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	defer wb.Close()

	if err := fill(wb); err != nil {
		writeError(w, r, http.StatusInternalServerError, err)
		return
	}

	var buf bytes.Buffer
	if err := wb.Write(&buf); err != nil {
		writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (a *API) handleListBatches(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	batches, err := a.store.ListBatches(r.Context(), limit)
	if err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}
	if batches == nil {
		batches = []store.Batch{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"batches": batches})
}

func (a *API) handleStats(w http.ResponseWriter, r *http.Request) {
	st, err := a.store.Stats(r.Context())
	if err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}
