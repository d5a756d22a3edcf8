package main

import (
	"github.com/iota-uz/sigos-etl/modules/reports/infrastructure/extraction"
	"github.com/iota-uz/sigos-etl/modules/reports/infrastructure/persistence"
	"github.com/iota-uz/sigos-etl/modules/reports/services"
	"github.com/iota-uz/sigos-etl/pkg/configuration"
)

// buildRepository wires the loader against the configured database.
func buildRepository(conf *configuration.Configuration) *persistence.ReportRepository {
	return persistence.NewReportRepository(
		persistence.PgxPoolFactory(conf.Database.Opts),
		persistence.RepositoryOptions{
			ChunkSize:      conf.Load.ChunkSize,
			MaxRetries:     conf.Load.MaxRetries,
			MaxBackoff:     conf.Load.MaxBackoff,
			FailedChunkDir: conf.Load.FailedChunkDir,
			Logger:         conf.Logger(),
		},
	)
}

// buildETL assembles the pipeline. With waitDownloads the run first announces
// the portal date windows and blocks until fresh exports land; otherwise it
// consumes whatever already sits in the downloads directory.
func buildETL(conf *configuration.Configuration, repo *persistence.ReportRepository, waitDownloads bool) *services.ETLService {
	logger := conf.Logger()

	var extractor services.Extractor
	if waitDownloads {
		extractor = extraction.NewManualExtractor(
			conf.Extraction.DownloadsDir,
			conf.Extraction.DownloadTimeout,
			conf.Extraction.CollectionStartDate(),
			conf.Extraction.WindowDays,
			logger,
		)
	}

	return services.NewETLService(
		repo,
		extractor,
		services.NewTransformService(logger),
		conf.Extraction.DownloadsDir,
		logger,
	)
}
