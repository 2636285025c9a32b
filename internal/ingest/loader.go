package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/angelmondragon/stockroom-backend/pkg/db"
	pkgerrors "github.com/angelmondragon/stockroom-backend/pkg/errors"
	"github.com/angelmondragon/stockroom-backend/pkg/logger"
	"github.com/angelmondragon/stockroom-backend/pkg/metrics"
	"go.uber.org/multierr"
	"gorm.io/gorm"
)

// RowError describes one rejected source row.
type RowError struct {
	Line   int
	Reason string
	Err    error
}

func (e RowError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
	}
	return fmt.Sprintf("line %d: %s: %v", e.Line, e.Reason, e.Err)
}

func (e RowError) Unwrap() error {
	return e.Err
}

// Report summarises one loaded file.
type Report struct {
	Kind     string
	Read     int
	Inserted int
	Skipped  int
	// Rounded counts money values stored with fewer decimal places than the feed gave.
	Rounded  int
	Failures []RowError
}

// Err combines every row failure into a single error, or nil when all rows loaded.
func (r *Report) Err() error {
	if r == nil {
		return nil
	}
	var combined error
	for _, failure := range r.Failures {
		combined = multierr.Append(combined, failure)
	}
	return combined
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type rowParser func(h header, record []string) (any, []rowNote, error)

// Options tune the loader.
type Options struct {
	Delimiter rune
	Metrics   *metrics.IngestMetrics
}

// Loader writes flat-file inventory and order feeds into the store.
type Loader struct {
	dbClient  txRunner
	logg      *logger.Logger
	metrics   *metrics.IngestMetrics
	delimiter rune
}

// NewLoader constructs a loader; a zero delimiter means comma.
func NewLoader(dbClient txRunner, logg *logger.Logger, opts Options) (*Loader, error) {
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	delimiter := opts.Delimiter
	if delimiter == 0 {
		delimiter = ','
	}
	if delimiter == '"' || delimiter == '\r' || delimiter == '\n' {
		return nil, fmt.Errorf("invalid delimiter %q", delimiter)
	}
	return &Loader{
		dbClient:  dbClient,
		logg:      logg,
		metrics:   opts.Metrics,
		delimiter: delimiter,
	}, nil
}

// LoadInventory ingests an inventory feed.
func (l *Loader) LoadInventory(ctx context.Context, src io.Reader) (*Report, error) {
	return l.load(ctx, KindInventory, inventoryColumns, src, parseInventoryRow)
}

// LoadOrders ingests an orders feed. Rows referencing unknown products are skipped.
func (l *Loader) LoadOrders(ctx context.Context, src io.Reader) (*Report, error) {
	return l.load(ctx, KindOrders, orderColumns, src, parseOrderRow)
}

// LoadFile opens path and ingests it as the given kind.
func (l *Loader) LoadFile(ctx context.Context, kind, path string) (*Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, fmt.Sprintf("open %s feed", kind))
	}
	defer f.Close()

	switch kind {
	case KindInventory:
		return l.LoadInventory(ctx, f)
	case KindOrders:
		return l.LoadOrders(ctx, f)
	}
	return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown feed kind %q", kind))
}

func (l *Loader) load(ctx context.Context, kind string, columns []string, src io.Reader, parse rowParser) (*Report, error) {
	started := time.Now()
	ctx = l.logg.WithFields(ctx, map[string]any{"kind": kind, "operation": "ingest"})

	reader, err := newReader(src, l.delimiter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "open feed")
	}
	h, err := readHeader(reader, columns)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid feed header")
	}

	report := &Report{Kind: kind}
	err = l.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		for {
			record, readErr := reader.Read()
			if errors.Is(readErr, io.EOF) {
				return nil
			}
			if readErr != nil {
				var parseErr *csv.ParseError
				if !errors.As(readErr, &parseErr) {
					return readErr
				}
				report.Read++
				l.skip(ctx, report, RowError{Line: parseErr.StartLine, Reason: "malformed record", Err: parseErr.Err})
				continue
			}

			report.Read++
			line, _ := reader.FieldPos(0)
			if len(record) != h.width {
				l.skip(ctx, report, RowError{Line: line, Reason: fmt.Sprintf("expected %d fields, got %d", h.width, len(record))})
				continue
			}

			row, notes, parseErr := parse(h, record)
			if parseErr != nil {
				l.skip(ctx, report, RowError{Line: line, Reason: "invalid value", Err: parseErr})
				continue
			}

			insertErr := tx.Transaction(func(sp *gorm.DB) error {
				return sp.Create(row).Error
			})
			if insertErr != nil {
				if db.IsConstraintViolation(insertErr) {
					l.skip(ctx, report, RowError{Line: line, Reason: "constraint violation", Err: insertErr})
					continue
				}
				if db.IsNumericOutOfRange(insertErr) {
					l.skip(ctx, report, RowError{Line: line, Reason: "value out of range", Err: insertErr})
					continue
				}
				return fmt.Errorf("line %d: %w", line, insertErr)
			}

			report.Inserted++
			l.metrics.IncInserted(kind)
			for _, note := range notes {
				report.Rounded++
				l.logg.Warn(l.logg.WithFields(ctx, map[string]any{
					"line":   line,
					"column": note.Column,
					"raw":    note.Raw,
					"stored": note.Stored,
				}), "ingest value rounded")
			}
		}
	})
	l.metrics.ObserveDuration(kind, time.Since(started))
	if err != nil {
		// the file transaction rolled back
		report.Inserted = 0
		l.logg.Error(ctx, "ingest aborted", err)
		return report, pkgerrors.Wrap(pkgerrors.CodeInternal, err, fmt.Sprintf("load %s feed", kind))
	}

	l.logg.Info(l.logg.WithFields(ctx, map[string]any{
		"rows_read":      report.Read,
		"rows_inserted":  report.Inserted,
		"rows_skipped":   report.Skipped,
		"values_rounded": report.Rounded,
		"duration_ms":    time.Since(started).Milliseconds(),
	}), "ingest complete")
	return report, nil
}

func (l *Loader) skip(ctx context.Context, report *Report, failure RowError) {
	report.Skipped++
	report.Failures = append(report.Failures, failure)
	l.metrics.IncSkipped(report.Kind)

	fields := map[string]any{"line": failure.Line, "reason": failure.Reason}
	if failure.Err != nil {
		fields["error"] = failure.Err.Error()
	}
	l.logg.Warn(l.logg.WithFields(ctx, fields), "ingest row skipped")
}
