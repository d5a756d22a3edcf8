package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/sigos-etl/modules/reports/domain/report"
	"github.com/iota-uz/sigos-etl/modules/reports/infrastructure/persistence"
	"github.com/iota-uz/sigos-etl/modules/reports/services"
	"github.com/iota-uz/sigos-etl/pkg/httpapi"
)

type fakeRunner struct {
	run  services.RunReport
	err  error
	typ  report.Type
	mode report.Mode
}

func (f *fakeRunner) Run(_ context.Context, t report.Type, m report.Mode, _ bool) (services.RunReport, error) {
	f.typ = t
	f.mode = m
	return f.run, f.err
}

type fakeReader struct {
	rows []map[string]any
	err  error
	def  report.Definition
}

func (f *fakeReader) All(_ context.Context, def report.Definition) ([]map[string]any, error) {
	f.def = def
	return f.rows, f.err
}

func newTestRouter(runner runService, reader reportReader) *mux.Router {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	r := mux.NewRouter()
	NewReportsAPIController(runner, reader, l).Register(r)
	return r
}

func TestHealth(t *testing.T) {
	t.Parallel()

	r := newTestRouter(&fakeRunner{}, &fakeReader{})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestTriggerRun(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{run: services.RunReport{RowsLoaded: 42}}
	r := newTestRouter(runner, &fakeReader{})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/etl/run?report=general&mode=incremental", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, report.General, runner.typ)
	assert.Equal(t, report.Incremental, runner.mode)

	var run services.RunReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &run))
	assert.Equal(t, 42, run.RowsLoaded)
}

func TestTriggerRunValidation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		query string
		code  string
	}{
		{"missing report", "?mode=full", "invalid_report"},
		{"bad report", "?report=bogus&mode=full", "invalid_report"},
		{"missing mode", "?report=general", "invalid_mode"},
		{"bad mode", "?report=general&mode=sideways", "invalid_mode"},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			r := newTestRouter(&fakeRunner{}, &fakeReader{})
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/etl/run"+c.query, nil))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			var env httpapi.Error
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
			assert.Equal(t, c.code, env.Code)
		})
	}
}

func TestTriggerRunErrorMapping(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"no input files", report.ErrNoInputFiles, http.StatusConflict, "no_input_files"},
		{"missing key column", report.ErrMissingKeyColumn, http.StatusUnprocessableEntity, "missing_key_column"},
		{
			"constraint violation",
			&persistence.ConstraintViolationError{Table: "general_reports", ChunkPath: "/tmp/x.csv", Err: errors.New("boom")},
			http.StatusUnprocessableEntity,
			"constraint_violation",
		},
		{
			"store unavailable",
			&persistence.TransientStoreError{Table: "general_reports", Attempts: 4, Err: errors.New("down")},
			http.StatusServiceUnavailable,
			"store_unavailable",
		},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, "internal"},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			r := newTestRouter(&fakeRunner{err: c.err}, &fakeReader{})
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/etl/run?report=general&mode=full", nil))

			assert.Equal(t, c.status, rec.Code)
			var env httpapi.Error
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
			assert.Equal(t, c.code, env.Code)
		})
	}
}

func TestDataEndpoints(t *testing.T) {
	t.Parallel()

	reader := &fakeReader{rows: []map[string]any{{"UC / MD": "100"}}}
	r := newTestRouter(&fakeRunner{}, reader)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/data/general", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "general_reports", reader.def.Table)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/data/return", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "return_reports", reader.def.Table)
}

func TestDataEndpointEmptyTable(t *testing.T) {
	t.Parallel()

	r := newTestRouter(&fakeRunner{}, &fakeReader{})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/data/general", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestDataEndpointStoreFailure(t *testing.T) {
	t.Parallel()

	r := newTestRouter(&fakeRunner{}, &fakeReader{err: errors.New("no connection")})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/data/general", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
