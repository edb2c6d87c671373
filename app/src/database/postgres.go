package database

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"amplification-report/app/src/domain"
	"amplification-report/app/src/infra"
	"amplification-report/app/src/shared/constants"

	"github.com/lib/pq"
)

// Config contains the configuration required to connect to a Postgres database.
type Config struct {
	DSN    string
	Runner CommandRunner
	Logger *infra.Logger
}

// Repository stores aggregation runs in Postgres.
type Repository struct {
	dsn    string
	runner CommandRunner
	logger *infra.Logger
}

const (
	// The run row and its measurements go in as one statement so a failed
	// write never leaves a run without its table.
	insertRunSQL = `
WITH run AS (
    INSERT INTO public.amplify_runs (id, process_count, template, pcdn, cdn, ratio, created_at)
    VALUES ($1::uuid, $2, $3, $4, $5, $6, $7)
    RETURNING id
)
INSERT INTO public.amplify_measurements (run_id, position, name, value)
SELECT run.id, m.position, m.name, m.value
FROM run, unnest($8::int[], $9::text[], $10::float8[]) AS m(position, name, value)
`
	selectRunColumns = `
SELECT id::text, process_count, template, pcdn, cdn, ratio, created_at
FROM public.amplify_runs
`
	selectRunByIDSQL   = selectRunColumns + "WHERE id = $1::uuid"
	selectLatestRunSQL = selectRunColumns + "ORDER BY created_at DESC, id DESC LIMIT 1"

	selectMeasurementsSQL = `
SELECT name, value FROM public.amplify_measurements WHERE run_id = $1::uuid ORDER BY position ASC
`
)

// New creates a repository backed by Postgres using a SQL command runner.
func New(cfg Config) (*Repository, error) {
	if cfg.DSN == "" {
		return nil, errors.New("postgres repository: DSN is required")
	}

	runner := cfg.Runner
	if runner == nil {
		runner = NewSQLRunner()
	}

	return &Repository{dsn: cfg.DSN, runner: runner, logger: cfg.Logger}, nil
}

// Close releases the connection pools held by the runner.
func (r *Repository) Close() error {
	return r.runner.Close()
}

// SaveRun inserts run with its measurements in table order.
func (r *Repository) SaveRun(ctx context.Context, run domain.Run) error {
	id, err := constants.ParseRunID(run.ID)
	if err != nil {
		return fmt.Errorf("postgres repository: %w", err)
	}

	positions := make([]int64, len(run.Measurements))
	names := make([]string, len(run.Measurements))
	values := make([]float64, len(run.Measurements))
	for i, m := range run.Measurements {
		positions[i] = int64(i)
		names[i] = m.Name
		values[i] = m.Value
	}

	createdAt := run.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	start := time.Now()
	_, err = r.runner.Exec(ctx, r.dsn, insertRunSQL,
		id, run.ProcessCount, run.Template,
		run.Amplification.PCDN, run.Amplification.CDN, run.Amplification.Ratio,
		createdAt.UTC(),
		pq.Array(positions), pq.Array(names), pq.Array(values),
	)
	infra.ObserveDBWrite(time.Since(start))
	if err != nil {
		if r.logger != nil {
			r.logger.Printf(ctx, "postgres repository: insert run failed id=%s measurements=%d: %v", id, len(names), err)
		}
		return fmt.Errorf("postgres repository: insert run: %w", err)
	}

	return nil
}

// RunByID returns the stored run with the given identifier.
func (r *Repository) RunByID(ctx context.Context, id string) (domain.Run, error) {
	runID, err := constants.ParseRunID(id)
	if err != nil {
		return domain.Run{}, fmt.Errorf("postgres repository: %w", err)
	}
	return r.queryRun(ctx, selectRunByIDSQL, runID)
}

// LatestRun returns the most recently created run.
func (r *Repository) LatestRun(ctx context.Context) (domain.Run, error) {
	return r.queryRun(ctx, selectLatestRunSQL)
}

func (r *Repository) queryRun(ctx context.Context, statement string, args ...any) (domain.Run, error) {
	output, err := r.runner.Exec(ctx, r.dsn, statement, args...)
	if err != nil {
		return domain.Run{}, fmt.Errorf("postgres repository: select run: %w", err)
	}

	records, err := readRecords(output, 7)
	if err != nil {
		return domain.Run{}, fmt.Errorf("postgres repository: select run parse: %w", err)
	}
	if len(records) == 0 {
		return domain.Run{}, domain.ErrNotFound
	}

	run, err := parseRun(records[0])
	if err != nil {
		return domain.Run{}, fmt.Errorf("postgres repository: select run parse: %w", err)
	}

	output, err = r.runner.Exec(ctx, r.dsn, selectMeasurementsSQL, run.ID)
	if err != nil {
		return domain.Run{}, fmt.Errorf("postgres repository: select measurements: %w", err)
	}

	records, err = readRecords(output, 2)
	if err != nil {
		return domain.Run{}, fmt.Errorf("postgres repository: select measurements parse: %w", err)
	}

	run.Measurements = make([]domain.Measurement, 0, len(records))
	for _, record := range records {
		value, err := parseFloat(record[1])
		if err != nil {
			return domain.Run{}, fmt.Errorf("postgres repository: measurement %q: %w", record[0], err)
		}
		run.Measurements = append(run.Measurements, domain.Measurement{Name: record[0], Value: value})
	}

	return run, nil
}

func parseRun(record []string) (domain.Run, error) {
	processCount, err := strconv.Atoi(strings.TrimSpace(record[1]))
	if err != nil {
		return domain.Run{}, fmt.Errorf("parse process count: %w", err)
	}

	var floats [3]float64
	for i := range floats {
		if floats[i], err = parseFloat(record[3+i]); err != nil {
			return domain.Run{}, err
		}
	}

	createdAt, err := time.Parse(constants.TimeFormat, record[6])
	if err != nil {
		return domain.Run{}, fmt.Errorf("parse timestamp: %w", err)
	}

	return domain.Run{
		ID:           record[0],
		ProcessCount: processCount,
		Template:     record[2],
		Amplification: domain.Amplification{
			PCDN:  floats[0],
			CDN:   floats[1],
			Ratio: floats[2],
		},
		CreatedAt: createdAt,
	}, nil
}

func readRecords(output string, columns int) ([][]string, error) {
	if strings.TrimSpace(output) == "" {
		return nil, nil
	}

	reader := csv.NewReader(strings.NewReader(output))
	reader.FieldsPerRecord = columns

	var records [][]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return nil, fmt.Errorf("parse csv: %w", err)
		}
		records = append(records, record)
	}
}

func parseFloat(input string) (float64, error) {
	value, err := strconv.ParseFloat(strings.TrimSpace(input), 64)
	if err != nil {
		return 0, fmt.Errorf("parse float: %w", err)
	}
	return value, nil
}

var _ domain.RunRepository = (*Repository)(nil)
