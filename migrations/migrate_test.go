package migrations

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"0002_b.sql": {Data: []byte("CREATE TABLE b (id INT);")},
		"0001_a.sql": {Data: []byte("CREATE TABLE a (id INT);")},
		"README.md":  {Data: []byte("ignored")},
	}
}

func expectPreamble(mock sqlmock.Sqlmock) {
	mock.ExpectExec(`SELECT pg_advisory_lock\(\$1\)`).WithArgs(advisoryLockID).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS schema_migrations`).WillReturnResult(sqlmock.NewResult(0, 0))
}

func TestApply_runsPendingInOrder(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	expectPreamble(mock)
	mock.ExpectQuery(`SELECT EXISTS`).WithArgs("0001_a.sql").WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(`SELECT EXISTS`).WithArgs("0002_b.sql").WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TABLE b`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`INSERT INTO schema_migrations`).WithArgs("0002_b.sql").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectExec(`SELECT pg_advisory_unlock\(\$1\)`).WithArgs(advisoryLockID).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, apply(context.Background(), db, testFS()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApply_failedMigrationRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	expectPreamble(mock)
	mock.ExpectQuery(`SELECT EXISTS`).WithArgs("0001_a.sql").WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TABLE a`).WillReturnError(errors.New("syntax error"))
	mock.ExpectRollback()
	mock.ExpectExec(`SELECT pg_advisory_unlock`).WillReturnResult(sqlmock.NewResult(0, 0))

	err = apply(context.Background(), db, testFS())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "0001_a.sql")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEmbeddedSchema(t *testing.T) {
	raw, err := migrationFiles.ReadFile("0001_init.sql")
	require.NoError(t, err)
	schema := string(raw)
	assert.Contains(t, schema, "CHECK (ticket_availability >= 0)")
	assert.Contains(t, schema, "CHECK (tickets_booked >= 1)")
	assert.NotContains(t, schema, "REFERENCES events", "bookings must survive event deletion")
}
