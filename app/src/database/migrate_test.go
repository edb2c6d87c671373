package database

import (
	"context"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mockDSN = "postgres://mock"

func newMockRunner(t *testing.T) (*SQLRunner, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	runner := NewSQLRunnerWithDB(mockDSN, db)
	t.Cleanup(func() { _ = runner.Close() })
	return runner, mock
}

func TestSQLRunnerCommandTag(t *testing.T) {
	runner, mock := newMockRunner(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO t (v) VALUES ($1)")).
		WithArgs(7).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("UPDATE t").WillReturnResult(sqlmock.NewResult(0, 2))

	tag, err := runner.Exec(context.Background(), mockDSN, "INSERT INTO t (v) VALUES ($1)", 7)
	require.NoError(t, err)
	assert.Equal(t, "INSERT 0 3", tag)

	tag, err = runner.Exec(context.Background(), mockDSN, "UPDATE t SET v = 1")
	require.NoError(t, err)
	assert.Equal(t, "UPDATE 2", tag)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLRunnerSelectAsCSV(t *testing.T) {
	t.Log("Шаг 1: запрос возвращает две строки")
	runner, mock := newMockRunner(t)
	mock.ExpectQuery("SELECT name, value").WillReturnRows(
		sqlmock.NewRows([]string{"name", "value"}).
			AddRow("CDN", 20.0).
			AddRow([]byte("P,CDN"), 0.25),
	)

	output, err := runner.Exec(context.Background(), mockDSN, "SELECT name, value FROM m")
	require.NoError(t, err)

	t.Log("Шаг 2: значения с запятыми экранируются")
	assert.Equal(t, "CDN,20\n\"P,CDN\",0.25\n", output)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLRunnerEmptyResults(t *testing.T) {
	runner, mock := newMockRunner(t)
	mock.ExpectQuery("SELECT").WillReturnRows(sqlmock.NewRows([]string{"id"}))

	output, err := runner.Exec(context.Background(), mockDSN, "SELECT id FROM t")
	require.NoError(t, err)
	assert.Empty(t, output)

	output, err = runner.Exec(context.Background(), mockDSN, "   ")
	require.NoError(t, err)
	assert.Empty(t, output)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLRunnerHonoursContext(t *testing.T) {
	runner, _ := newMockRunner(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := runner.Exec(ctx, mockDSN, "SELECT 1")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRepositoryRoundTripThroughSQLRunner(t *testing.T) {
	runner, mock := newMockRunner(t)
	repo, err := New(Config{DSN: mockDSN, Runner: runner})
	require.NoError(t, err)

	t.Log("Шаг 1: сохраняем run")
	run := sampleRun()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO public.amplify_runs")).
		WithArgs(testRunID, 2, run.Template, 5.0, 20.0, 0.25,
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"run_id"}))
	require.NoError(t, repo.SaveRun(context.Background(), run))

	t.Log("Шаг 2: читаем его обратно")
	mock.ExpectQuery(regexp.QuoteMeta(strings.TrimSpace(selectRunByIDSQL))).
		WithArgs(testRunID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "process_count", "template", "pcdn", "cdn", "ratio", "created_at"}).
			AddRow(testRunID, int64(2), run.Template, 5.0, 20.0, 0.25, run.CreatedAt))
	mock.ExpectQuery(regexp.QuoteMeta(strings.TrimSpace(selectMeasurementsSQL))).
		WithArgs(testRunID).
		WillReturnRows(sqlmock.NewRows([]string{"name", "value"}).AddRow("CDN", 20.0).AddRow("PCDN", 5.0))

	got, err := repo.RunByID(context.Background(), testRunID)
	require.NoError(t, err)

	assert.Equal(t, run.Measurements, got.Measurements)
	assert.Equal(t, run.Amplification, got.Amplification)
	assert.True(t, got.CreatedAt.Equal(run.CreatedAt))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "", formatValue(nil))
	assert.Equal(t, "1e+16", formatValue(1e16))
	assert.Equal(t, "abc", formatValue([]byte("abc")))
	assert.Equal(t, "2024-03-01T09:00:00Z", formatValue(time.Date(2024, 3, 1, 12, 0, 0, 0, time.FixedZone("MSK", 3*3600))))
	assert.Equal(t, "42", formatValue(int64(42)))
}
