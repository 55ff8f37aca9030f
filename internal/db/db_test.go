package db

import (
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	return gdb, mock
}

func TestCreateViews(t *testing.T) {
	gdb, mock := newMockDB(t)

	mock.ExpectExec(regexp.QuoteMeta("CREATE OR REPLACE VIEW active_jobs")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("CREATE OR REPLACE VIEW transactions_history")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, createViews(gdb))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateViewsStopsOnError(t *testing.T) {
	gdb, mock := newMockDB(t)

	mock.ExpectExec(regexp.QuoteMeta("CREATE OR REPLACE VIEW active_jobs")).
		WillReturnError(errors.New("permission denied"))

	err := createViews(gdb)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "permission denied")
	assert.NoError(t, mock.ExpectationsWereMet())
}
