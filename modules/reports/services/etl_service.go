package services

import (
	"context"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/sigos-etl/modules/reports/domain/report"
	"github.com/iota-uz/sigos-etl/modules/reports/infrastructure/csvread"
)

// ReportStore is the destination the pipeline writes into.
type ReportStore interface {
	InitSchema(ctx context.Context) error
	Load(ctx context.Context, def report.Definition, mode report.Mode, batch report.Batch) (int, error)
}

// Extractor pulls fresh report exports from the portal into the downloads
// directory. Nil means the files are already on disk.
type Extractor interface {
	Extract(ctx context.Context, t report.Type, mode report.Mode) error
}

// RunReport summarises one completed pipeline run.
type RunReport struct {
	RunID        uuid.UUID     `json:"run_id"`
	Report       report.Type   `json:"report"`
	Mode         report.Mode   `json:"mode"`
	FilesRead    int           `json:"files_read"`
	FilesSkipped int           `json:"files_skipped"`
	RowsRead     int           `json:"rows_read"`
	RowsDeduped  int           `json:"rows_deduped"`
	RowsLoaded   int           `json:"rows_loaded"`
	StartedAt    time.Time     `json:"started_at"`
	Duration     time.Duration `json:"duration"`
}

// ETLService drives one report's pipeline end to end: extract (optional),
// read, transform, deduplicate, load, and consume the input files.
type ETLService struct {
	store        ReportStore
	extractor    Extractor
	transform    *TransformService
	downloadsDir string
	logger       *logrus.Logger
	m            *pipelineMetrics
}

func NewETLService(store ReportStore, extractor Extractor, transform *TransformService, downloadsDir string, logger *logrus.Logger) *ETLService {
	return &ETLService{
		store:        store,
		extractor:    extractor,
		transform:    transform,
		downloadsDir: downloadsDir,
		logger:       logger,
		m:            getPipelineMetrics(),
	}
}

// Run executes the pipeline for one report type. Input files are deleted only
// after a successful load, so any failure leaves the run replayable. With
// keepFiles set the inputs survive a successful run too.
func (s *ETLService) Run(ctx context.Context, t report.Type, mode report.Mode, keepFiles bool) (RunReport, error) {
	def := report.ForType(t)
	run := RunReport{
		RunID:     uuid.New(),
		Report:    t,
		Mode:      mode,
		StartedAt: time.Now(),
	}
	log := s.logger.WithFields(logrus.Fields{
		"run_id": run.RunID,
		"report": t,
		"mode":   mode,
	})
	log.Info("pipeline: run started")

	err := s.run(ctx, def, mode, keepFiles, &run, log)

	run.Duration = time.Since(run.StartedAt)
	status := "ok"
	if err != nil {
		status = "error"
		log.WithError(err).Error("pipeline: run failed")
	} else {
		log.WithFields(logrus.Fields{
			"files_read":  run.FilesRead,
			"rows_read":   run.RowsRead,
			"rows_loaded": run.RowsLoaded,
			"duration":    run.Duration,
		}).Info("pipeline: run complete")
	}
	s.m.runs.WithLabelValues(string(t), string(mode), status).Inc()
	s.m.runDuration.WithLabelValues(string(t), string(mode)).Observe(run.Duration.Seconds())
	return run, err
}

func (s *ETLService) run(ctx context.Context, def report.Definition, mode report.Mode, keepFiles bool, run *RunReport, log *logrus.Entry) error {
	if err := s.store.InitSchema(ctx); err != nil {
		return err
	}

	if s.extractor != nil {
		if err := s.extractor.Extract(ctx, def.Type, mode); err != nil {
			return err
		}
	}

	res, err := csvread.ReadDir(s.downloadsDir, def.FilePattern, def.KnownColumns, s.logger)
	if err != nil {
		return err
	}
	run.FilesRead = len(res.Paths)
	run.FilesSkipped = len(res.Skipped)
	if run.FilesSkipped > 0 {
		s.m.filesSkipped.WithLabelValues(string(def.Type)).Add(float64(run.FilesSkipped))
	}

	batch := s.transform.Transform(res.Tables, def, time.Now())
	run.RowsRead = len(batch.Records)

	batch = s.transform.Deduplicate(batch, def.DedupKeys)
	run.RowsDeduped = run.RowsRead - len(batch.Records)

	loaded, err := s.store.Load(ctx, def, mode, batch)
	if err != nil {
		return err
	}
	run.RowsLoaded = loaded

	if keepFiles {
		return nil
	}
	for _, p := range res.Paths {
		if err := os.Remove(p); err != nil {
			log.WithError(err).WithField("file", p).Warn("pipeline: could not remove consumed file")
		}
	}
	return nil
}
