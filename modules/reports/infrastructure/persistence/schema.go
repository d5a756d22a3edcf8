package persistence

import (
	"context"
	_ "embed"

	gerrors "github.com/go-faster/errors"
)

//go:embed sql/init_tables.sql
var initTablesSQL string

// InitSchema materializes the destination tables. Every statement is
// create-if-absent, so running it at the start of each pipeline run is safe.
func (r *ReportRepository) InitSchema(ctx context.Context) error {
	pool, err := r.acquirePool(ctx)
	if err != nil {
		return gerrors.Wrap(err, "init schema: acquire pool")
	}
	if _, err := pool.Exec(ctx, initTablesSQL); err != nil {
		return gerrors.Wrap(err, "init schema")
	}
	r.opts.Logger.Info("loader: destination schema initialised")
	return nil
}
