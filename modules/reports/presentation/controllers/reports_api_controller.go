package controllers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/sigos-etl/modules/reports/domain/report"
	"github.com/iota-uz/sigos-etl/modules/reports/infrastructure/persistence"
	"github.com/iota-uz/sigos-etl/modules/reports/services"
	"github.com/iota-uz/sigos-etl/pkg/httpapi"
)

type runService interface {
	Run(ctx context.Context, t report.Type, mode report.Mode, keepFiles bool) (services.RunReport, error)
}

type reportReader interface {
	All(ctx context.Context, def report.Definition) ([]map[string]any, error)
}

// ReportsAPIController exposes the pipeline over HTTP: a health probe, a
// run trigger, and read access to the loaded tables.
type ReportsAPIController struct {
	runner runService
	reader reportReader
	logger *logrus.Logger
}

func NewReportsAPIController(runner runService, reader reportReader, logger *logrus.Logger) *ReportsAPIController {
	return &ReportsAPIController{
		runner: runner,
		reader: reader,
		logger: logger,
	}
}

func (c *ReportsAPIController) Register(r *mux.Router) {
	r.HandleFunc("/", c.health).Methods(http.MethodGet)
	r.HandleFunc("/etl/run", c.triggerRun).Methods(http.MethodPost)
	r.HandleFunc("/data/general", c.dataHandler(report.General)).Methods(http.MethodGet)
	r.HandleFunc("/data/return", c.dataHandler(report.Return)).Methods(http.MethodGet)
}

func (c *ReportsAPIController) health(w http.ResponseWriter, _ *http.Request) {
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (c *ReportsAPIController) triggerRun(w http.ResponseWriter, r *http.Request) {
	t, err := report.ParseType(r.URL.Query().Get("report"))
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "invalid_report", err.Error(), nil)
		return
	}
	mode, err := report.ParseMode(r.URL.Query().Get("mode"))
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "invalid_mode", err.Error(), nil)
		return
	}
	keepFiles := r.URL.Query().Get("keep_files") == "true"

	run, err := c.runner.Run(r.Context(), t, mode, keepFiles)
	if err != nil {
		c.writeRunError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, run)
}

// writeRunError maps pipeline failures onto stable error codes so callers can
// distinguish "nothing to do" from data and infrastructure problems.
func (c *ReportsAPIController) writeRunError(w http.ResponseWriter, err error) {
	c.logger.WithError(err).Error("api: pipeline run failed")

	var cve *persistence.ConstraintViolationError
	var tse *persistence.TransientStoreError
	switch {
	case errors.Is(err, report.ErrNoInputFiles):
		_ = httpapi.WriteError(w, http.StatusConflict, "no_input_files", err.Error(), nil)
	case errors.Is(err, report.ErrMissingKeyColumn):
		_ = httpapi.WriteError(w, http.StatusUnprocessableEntity, "missing_key_column", err.Error(), nil)
	case errors.As(err, &cve):
		meta := map[string]string{"table": cve.Table}
		if cve.ChunkPath != "" {
			meta["chunk"] = cve.ChunkPath
		}
		_ = httpapi.WriteError(w, http.StatusUnprocessableEntity, "constraint_violation", err.Error(), meta)
	case errors.As(err, &tse):
		_ = httpapi.WriteError(w, http.StatusServiceUnavailable, "store_unavailable", err.Error(), map[string]string{"table": tse.Table})
	default:
		_ = httpapi.WriteError(w, http.StatusInternalServerError, "internal", err.Error(), nil)
	}
}

func (c *ReportsAPIController) dataHandler(t report.Type) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := c.reader.All(r.Context(), report.ForType(t))
		if err != nil {
			c.logger.WithError(err).Error("api: data read failed")
			_ = httpapi.WriteError(w, http.StatusServiceUnavailable, "store_unavailable", err.Error(), nil)
			return
		}
		if rows == nil {
			rows = []map[string]any{}
		}
		_ = httpapi.WriteJSON(w, http.StatusOK, rows)
	}
}
