package report

import "errors"

var (
	// ErrNoInputFiles: zero raw files matched the report's glob pattern.
	// Fatal to the run.
	ErrNoInputFiles = errors.New("no input files matched")

	// ErrUnparsableFile: one file exhausted every dialect-detection strategy.
	// The file is skipped; the batch continues.
	ErrUnparsableFile = errors.New("file exhausted all parse strategies")

	// ErrMissingKeyColumn: the execution-date column is absent after
	// normalization, so key-based operations cannot proceed. Fatal.
	ErrMissingKeyColumn = errors.New("execution date column missing from batch")
)
