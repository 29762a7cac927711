package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/datsun80zx/payrep/internal/api"
	"github.com/datsun80zx/payrep/internal/logger"
	"github.com/datsun80zx/payrep/internal/payment"
	"github.com/datsun80zx/payrep/internal/report"
)

func (a *app) handleServe(ctx context.Context) error {
	log, err := logger.WithLevel(logger.NewJSON(), a.cfg.LogLevel)
	if err != nil {
		return err
	}
	a.log = log

	imp, closeRates, err := a.newImporter(ctx)
	if err != nil {
		return err
	}
	defer closeRates()

	opts := api.Options{AllowedOrigin: a.cfg.AllowedOrigin}
	if a.cfg.AuthEnabled() {
		opts.Auth = api.NewAuth(a.cfg.AuthSecret, a.cfg.TokenTTL)
	} else {
		log.Warn().Msg("AUTH_SECRET not set, API is open")
	}

	handler, err := api.New(a.store, imp, log, opts)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              a.cfg.Address(),
		Handler:           handler.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", a.cfg.Address()).Msg("payrep api listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown error")
	}
	log.Info().Msg("server stopped")
	return nil
}

func (a *app) handleSchedule(ctx context.Context) error {
	st, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	gen := report.NewGenerator(st)
	loc := a.cfg.Location()

	c := cron.New(cron.WithLocation(loc))
	_, err = c.AddFunc(a.cfg.ReportSchedule, func() {
		// the run reports the last complete week
		day := payment.Day(time.Now().In(loc)).AddDate(0, 0, -7)
		files, err := renderWeekFiles(ctx, gen, day, a.cfg.ReportDir)
		if err != nil {
			a.log.Error().Err(err).Time("week_of", day).Msg("scheduled weekly report failed")
			return
		}
		a.log.Info().Strs("files", files).Msg("scheduled weekly report written")
	})
	if err != nil {
		return fmt.Errorf("invalid REPORT_SCHEDULE %q: %w", a.cfg.ReportSchedule, err)
	}

	c.Start()
	a.log.Info().
		Str("schedule", a.cfg.ReportSchedule).
		Str("timezone", loc.String()).
		Str("dir", a.cfg.ReportDir).
		Msg("weekly report scheduler started")

	<-ctx.Done()
	<-c.Stop().Done()
	a.log.Info().Msg("scheduler stopped")
	return nil
}

// renderWeekFiles writes the html and xlsx report of the week containing day into dir
func renderWeekFiles(ctx context.Context, gen *report.Generator, day time.Time, dir string) ([]string, error) {
	wr, err := gen.Week(ctx, day)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating report dir: %w", err)
	}

	base := filepath.Join(dir, "weekly_"+payment.DateKey(wr.StartDate))
	out := reportOutputs{html: base + ".html", xlsx: base + ".xlsx"}
	err = writeOutputs(out,
		func(rd *report.Renderer, f *os.File) error { return rd.RenderWeekly(f, wr) },
		func(wb *report.Workbook) error { return wb.AddWeekly(wr) })
	if err != nil {
		return nil, err
	}
	return []string{out.html, out.xlsx}, nil
}

func (a *app) handleToken(args []string) error {
	if !a.cfg.AuthEnabled() {
		return fmt.Errorf("AUTH_SECRET is not set, the API does not require tokens")
	}

	subject := "payrep"
	if len(args) > 0 {
		subject = args[0]
	}

	token, expires, err := api.NewAuth(a.cfg.AuthSecret, a.cfg.TokenTTL).Issue(subject)
	if err != nil {
		return err
	}

	fmt.Println("✅ Token issued")
	fmt.Printf("Subject:  %s\n", subject)
	fmt.Printf("Expires:  %s\n", expires.Format(time.RFC3339))
	fmt.Println()
	fmt.Println(token)
	return nil
}
