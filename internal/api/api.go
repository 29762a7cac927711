// Package api exposes imports, payments and reports over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/datsun80zx/payrep/internal/importer"
	"github.com/datsun80zx/payrep/internal/logger"
	"github.com/datsun80zx/payrep/internal/metrics"
	"github.com/datsun80zx/payrep/internal/parser"
	"github.com/datsun80zx/payrep/internal/report"
	"github.com/datsun80zx/payrep/internal/store"
)

type API struct {
	store         store.Store
	importer      *importer.Importer
	generator     *report.Generator
	renderer      *report.Renderer
	auth          *Auth
	log           zerolog.Logger
	allowedOrigin string
}

// Options configures optional API behaviour
type Options struct {
	// Auth enables bearer token checks when non-nil
	Auth          *Auth
	AllowedOrigin string
}

func New(st store.Store, imp *importer.Importer, log zerolog.Logger, opts Options) (*API, error) {
	renderer, err := report.NewRenderer()
	if err != nil {
		return nil, err
	}
	return &API{
		store:         st,
		importer:      imp,
		generator:     report.NewGenerator(st),
		renderer:      renderer,
		auth:          opts.Auth,
		log:           log,
		allowedOrigin: opts.AllowedOrigin,
	}, nil
}

// Router registers every route under /api
func (a *API) Router() *mux.Router {
	router := mux.NewRouter()
	r := router.PathPrefix("/api").Subrouter()

	r.HandleFunc("/health", a.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/upload", a.handleUpload).Methods(http.MethodPost)
	r.HandleFunc("/analyze", a.handleAnalyze).Methods(http.MethodPost)

	r.HandleFunc("/payments", a.handleListPayments).Methods(http.MethodGet)
	r.HandleFunc("/payments", a.handleDeleteRange).Methods(http.MethodDelete)
	r.HandleFunc("/payments/all", a.handleClear).Methods(http.MethodDelete)
	r.HandleFunc("/payments/{id}", a.handleGetPayment).Methods(http.MethodGet)
	r.HandleFunc("/payments/{id}", a.handleDeletePayment).Methods(http.MethodDelete)
	r.HandleFunc("/payments/{id}/tax", a.handleSetTax).Methods(http.MethodPut)

	r.HandleFunc("/reports/weekly", a.handleWeekly).Methods(http.MethodGet)
	r.HandleFunc("/reports/weekly/export", a.handleWeeklyExport).Methods(http.MethodGet)
	r.HandleFunc("/reports/monthly/{year:[0-9]+}/{month:[0-9]+}", a.handleMonthly).Methods(http.MethodGet)
	r.HandleFunc("/reports/yearly/{year:[0-9]+}", a.handleYearly).Methods(http.MethodGet)
	r.HandleFunc("/reports/yearly/{year:[0-9]+}/export", a.handleYearlyExport).Methods(http.MethodGet)

	r.HandleFunc("/batches", a.handleListBatches).Methods(http.MethodGet)
	r.HandleFunc("/stats", a.handleStats).Methods(http.MethodGet)

	return router
}

// Handler wraps the router with the middleware chain
func (a *API) Handler() http.Handler {
	return a.requestID(a.accessLog(a.recovery(a.securityHeaders(a.authenticate(a.Router())))))
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// statusFor maps domain errors onto HTTP statuses
func statusFor(err error) int {
	var (
		ffe *parser.FileFormatError
		aie *metrics.AggregationInputError
	)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrInvalidRange):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict
	case errors.As(err, &ffe):
		return http.StatusUnprocessableEntity
	case errors.As(err, &aie):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	// 5xx details stay in the log
	msg := err.Error()
	if status >= 500 {
		log := logger.FromContext(r.Context())
		log.Error().Err(err).Int("status", status).Msg("internal error")
		msg = "internal server error"
	}
	writeJSON(w, status, map[string]any{
		"error": msg,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
