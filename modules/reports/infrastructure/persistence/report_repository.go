package persistence

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	gerrors "github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/sigos-etl/modules/reports/domain/report"
)

// Pool is the subset of pgxpool.Pool the repository needs. It exists so tests
// can stand in a fake; *pgxpool.Pool satisfies it.
type Pool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Close()
}

// PoolFactory builds a fresh connection pool. The loader discards and rebuilds
// its pool when a transient connectivity failure triggers a retry.
type PoolFactory func(ctx context.Context) (Pool, error)

// PgxPoolFactory is the production PoolFactory over pgxpool.
func PgxPoolFactory(connString string) PoolFactory {
	return func(ctx context.Context) (Pool, error) {
		return pgxpool.New(ctx, connString)
	}
}

type RepositoryOptions struct {
	ChunkSize      int
	MaxRetries     int
	MaxBackoff     time.Duration
	FailedChunkDir string
	Logger         *logrus.Logger
	Rand           *rand.Rand
}

func (o *RepositoryOptions) setDefaults() {
	if o.ChunkSize <= 0 {
		o.ChunkSize = 1000
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.MaxBackoff <= 0 {
		o.MaxBackoff = 60 * time.Second
	}
	if o.Logger == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		o.Logger = l
	}
}

// ReportRepository owns all destination-table access: idempotent schema
// initialisation, the full/incremental cleanup-then-insert load sequence, and
// the read surface.
type ReportRepository struct {
	newPool PoolFactory
	pool    Pool
	opts    RepositoryOptions
	m       *metrics
}

func NewReportRepository(factory PoolFactory, opts RepositoryOptions) *ReportRepository {
	opts.setDefaults()
	return &ReportRepository{
		newPool: factory,
		opts:    opts,
		m:       getMetrics(),
	}
}

func (r *ReportRepository) acquirePool(ctx context.Context) (Pool, error) {
	if r.pool != nil {
		return r.pool, nil
	}
	pool, err := r.newPool(ctx)
	if err != nil {
		return nil, err
	}
	r.pool = pool
	return pool, nil
}

func (r *ReportRepository) resetPool() {
	if r.pool != nil {
		r.pool.Close()
		r.pool = nil
	}
}

func (r *ReportRepository) Close() {
	r.resetPool()
}

// Load applies the write policy for one batch: a cleanup transaction (full
// wipe or trailing-window delete), then chunked inserts inside a single
// transaction, retried with backoff on transient connectivity failures.
// Cleanup is never re-run on retry. Returns the number of rows inserted.
func (r *ReportRepository) Load(ctx context.Context, def report.Definition, mode report.Mode, batch report.Batch) (int, error) {
	if !batch.HasColumn(report.ColExecutionDate) {
		return 0, fmt.Errorf("%w: %s not in batch for table %s",
			report.ErrMissingKeyColumn, report.ColExecutionDate, def.Table)
	}

	if err := r.cleanup(ctx, def, mode, batch); err != nil {
		return 0, err
	}
	if len(batch.Records) == 0 {
		r.opts.Logger.WithField("table", def.Table).Info("loader: empty batch, nothing to insert")
		return 0, nil
	}

	attempts := 0
	for {
		n, err := r.insertAll(ctx, def, batch)
		if err == nil {
			r.m.rowsLoaded.WithLabelValues(def.Table, string(mode)).Add(float64(n))
			r.opts.Logger.WithFields(logrus.Fields{
				"table": def.Table,
				"mode":  mode,
				"rows":  n,
			}).Info("loader: insert complete")
			return n, nil
		}
		if !isTransient(err) {
			return 0, err
		}

		attempts++
		if attempts > r.opts.MaxRetries {
			return 0, &TransientStoreError{Table: def.Table, Attempts: attempts, Err: err}
		}
		r.m.loadRetries.WithLabelValues(def.Table).Inc()
		r.resetPool()
		delay := backoff(attempts, r.opts.MaxBackoff) + jitter(r.opts.Rand, r.opts.MaxBackoff/10)
		r.opts.Logger.WithError(err).WithFields(logrus.Fields{
			"table":   def.Table,
			"attempt": attempts,
			"backoff": delay,
		}).Warn("loader: transient store error, recreating pool and retrying insert")

		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(delay):
		}
	}
}

func (r *ReportRepository) cleanup(ctx context.Context, def report.Definition, mode report.Mode, batch report.Batch) error {
	pool, err := r.acquirePool(ctx)
	if err != nil {
		return gerrors.Wrap(err, "cleanup: acquire pool")
	}

	switch mode {
	case report.Full:
		tag, err := pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s", def.Table))
		if err != nil {
			return gerrors.Wrapf(err, "cleanup: full delete from %s", def.Table)
		}
		r.m.rowsDeleted.WithLabelValues(def.Table, string(mode)).Add(float64(tag.RowsAffected()))
		r.opts.Logger.WithFields(logrus.Fields{
			"table":   def.Table,
			"deleted": tag.RowsAffected(),
		}).Info("loader: table fully cleared")

	case report.Incremental:
		min, ok := batch.MinExecutionDate()
		if !ok {
			r.opts.Logger.WithField("table", def.Table).
				Warn("loader: batch has no execution dates, skipping incremental cleanup")
			return nil
		}
		// The batch is treated as the authoritative replacement for the
		// trailing window starting at its minimum execution date. That only
		// holds when the extraction window reaches at least that far back;
		// a shorter extraction would delete rows without replacing them.
		r.opts.Logger.WithFields(logrus.Fields{
			"table":  def.Table,
			"window": min.Format("2006-01-02"),
		}).Warn("loader: incremental cleanup assumes extraction covered the full window from this date")

		sql := fmt.Sprintf("DELETE FROM %s WHERE %s >= $1", def.Table, quoteIdent(report.ColExecutionDate))
		tag, err := pool.Exec(ctx, sql, min)
		if err != nil {
			return gerrors.Wrapf(err, "cleanup: incremental delete from %s", def.Table)
		}
		r.m.rowsDeleted.WithLabelValues(def.Table, string(mode)).Add(float64(tag.RowsAffected()))
		r.opts.Logger.WithFields(logrus.Fields{
			"table":   def.Table,
			"deleted": tag.RowsAffected(),
			"from":    min.Format("2006-01-02"),
		}).Info("loader: trailing window cleared")

	default:
		return fmt.Errorf("loader: unknown run mode %q", mode)
	}
	return nil
}

// insertAll writes the whole batch inside one transaction, chunk by chunk.
// A rejected chunk is dumped for inspection, the transaction rolled back, and
// the failure propagated: a failing chunk is never silently dropped.
func (r *ReportRepository) insertAll(ctx context.Context, def report.Definition, batch report.Batch) (int, error) {
	pool, err := r.acquirePool(ctx)
	if err != nil {
		return 0, err
	}
	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, err
	}

	inserted := 0
	for start := 0; start < len(batch.Records); start += r.opts.ChunkSize {
		end := start + r.opts.ChunkSize
		if end > len(batch.Records) {
			end = len(batch.Records)
		}
		chunk := batch.Records[start:end]

		sql, args := buildInsert(def.Table, batch.Columns, def, chunk)
		if _, err := tx.Exec(ctx, sql, args...); err != nil {
			_ = tx.Rollback(ctx)
			if isConstraint(err) {
				r.m.chunkFailures.WithLabelValues(def.Table).Inc()
				path := r.dumpChunk(def, batch.Columns, chunk, err)
				return 0, &ConstraintViolationError{Table: def.Table, ChunkPath: path, Err: err}
			}
			return 0, gerrors.Wrapf(err, "insert chunk %d..%d into %s", start, end, def.Table)
		}
		inserted += len(chunk)
		r.opts.Logger.WithFields(logrus.Fields{
			"table": def.Table,
			"rows":  len(chunk),
		}).Debug("loader: chunk inserted")
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, gerrors.Wrapf(err, "commit insert into %s", def.Table)
	}
	return inserted, nil
}

// All returns a table's full contents ordered by extraction timestamp
// descending, newest snapshot first.
func (r *ReportRepository) All(ctx context.Context, def report.Definition) ([]map[string]any, error) {
	pool, err := r.acquirePool(ctx)
	if err != nil {
		return nil, err
	}
	sql := fmt.Sprintf("SELECT * FROM %s ORDER BY %s DESC", def.Table, quoteIdent(report.ColExtractedAt))
	rows, err := pool.Query(ctx, sql)
	if err != nil {
		return nil, gerrors.Wrapf(err, "select from %s", def.Table)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	var out []map[string]any
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}
		row := make(map[string]any, len(fields))
		for i, fd := range fields {
			row[fd.Name] = values[i]
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
