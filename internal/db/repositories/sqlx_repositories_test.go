package repositories

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"label-cabinet/backstage/internal/constants"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { raw.Close() })
	return sqlx.NewDb(raw, "postgres"), mock
}

func TestKeysRepo_GetStatus(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewApiKeysRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta(constants.GetStatusByApiKey)).
		WithArgs("bsk_1").
		WillReturnRows(sqlmock.NewRows([]string{"key", "label", "status"}).AddRow("bsk_1", "royalty-import", true))

	key, err := repo.GetStatus(context.Background(), "bsk_1")
	require.NoError(t, err)
	assert.Equal(t, "royalty-import", key.Label)
	assert.True(t, key.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestKeysRepo_GetStatus_Unknown(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewApiKeysRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta(constants.GetStatusByApiKey)).
		WithArgs("nope").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetStatus(context.Background(), "nope")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestKeysRepo_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewApiKeysRepo(db)

	mock.ExpectExec(regexp.QuoteMeta(constants.InsertApiKey)).
		WithArgs("bsk_2", "exports").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), "bsk_2", "exports"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepo_FinanceSummary(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewReportRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta(constants.FinanceSummary)).
		WillReturnRows(sqlmock.NewRows([]string{
			"total_balance", "pending_withdrawals", "pending_amount", "paid_out", "total_payouts",
		}).AddRow("1250.50", 3, "300.00", "900.00", "2451.00"))

	summary, err := repo.FinanceSummary(context.Background())
	require.NoError(t, err)
	assert.True(t, summary.TotalBalance.Equal(decimal.RequireFromString("1250.50")))
	assert.Equal(t, int64(3), summary.PendingWithdrawals)
	assert.True(t, summary.TotalPayouts.Equal(decimal.NewFromInt(2451)))
	assert.NoError(t, mock.ExpectationsWereMet())
}
