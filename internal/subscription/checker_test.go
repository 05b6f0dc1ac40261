// internal/subscription/checker_test.go
package subscription

import (
	"context"
	"errors"
	"testing"

	"school-pickup/internal/common/database"
	apperrors "school-pickup/internal/common/errors"
	"school-pickup/internal/common/logger"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

const existsQuery = `SELECT EXISTS\(\s*SELECT 1 FROM school_subscriptions\s*WHERE school_id = \$1 AND status = 'ACTIVE' AND deleted_at IS NULL`

func createTestChecker(t *testing.T, withCache bool) (*Checker, sqlmock.Sqlmock, redismock.ClientMock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	var (
		rdb       *redis.Client
		redisMock redismock.ClientMock
	)
	if withCache {
		rdb, redisMock = redismock.NewClientMock()
	}
	return NewChecker(database.WrapPostgres(db), rdb, logger.NewTestLogger(t)), mock, redisMock
}

// ==========================
// Core Functionality Tests
// ==========================

func TestChecker_CacheMiss(t *testing.T) {
	c, mock, redisMock := createTestChecker(t, true)

	redisMock.ExpectGet("school-sub:5").RedisNil()
	mock.ExpectQuery(existsQuery).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	redisMock.ExpectSet("school-sub:5", "true", CacheTTL).SetVal("OK")

	active, err := c.IsSchoolSubscriptionActive(context.Background(), 5)
	require.NoError(t, err)
	assert.True(t, active)
	assert.NoError(t, mock.ExpectationsWereMet())
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestChecker_CacheHit(t *testing.T) {
	c, mock, redisMock := createTestChecker(t, true)

	redisMock.ExpectGet("school-sub:5").SetVal("true")

	active, err := c.IsSchoolSubscriptionActive(context.Background(), 5)
	require.NoError(t, err)
	assert.True(t, active)
	assert.NoError(t, mock.ExpectationsWereMet())
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestChecker_InactiveIsNeverCached(t *testing.T) {
	c, mock, redisMock := createTestChecker(t, true)

	// Lapsed: the answer is not stored and any cached entry is dropped.
	redisMock.ExpectGet("school-sub:5").RedisNil()
	mock.ExpectQuery(existsQuery).WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	redisMock.ExpectDel("school-sub:5").SetVal(0)

	// Renewed: the next lookup reads the database again.
	redisMock.ExpectGet("school-sub:5").RedisNil()
	mock.ExpectQuery(existsQuery).WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	redisMock.ExpectSet("school-sub:5", "true", CacheTTL).SetVal("OK")

	first, err := c.IsSchoolSubscriptionActive(context.Background(), 5)
	require.NoError(t, err)
	second, err := c.IsSchoolSubscriptionActive(context.Background(), 5)
	require.NoError(t, err)

	assert.False(t, first)
	assert.True(t, second)
	assert.NoError(t, mock.ExpectationsWereMet())
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestChecker_StaleNegativeEntryIsIgnored(t *testing.T) {
	c, mock, redisMock := createTestChecker(t, true)

	redisMock.ExpectGet("school-sub:5").SetVal("false")
	mock.ExpectQuery(existsQuery).WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	redisMock.ExpectSet("school-sub:5", "true", CacheTTL).SetVal("OK")

	active, err := c.IsSchoolSubscriptionActive(context.Background(), 5)
	require.NoError(t, err)
	assert.True(t, active)
	assert.NoError(t, mock.ExpectationsWereMet())
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestChecker_CacheErrorsFallBackToDatabase(t *testing.T) {
	c, mock, redisMock := createTestChecker(t, true)

	redisMock.ExpectGet("school-sub:5").SetErr(errors.New("connection reset"))
	mock.ExpectQuery(existsQuery).WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	redisMock.ExpectSet("school-sub:5", "true", CacheTTL).SetErr(errors.New("connection reset"))

	active, err := c.IsSchoolSubscriptionActive(context.Background(), 5)
	require.NoError(t, err)
	assert.True(t, active)
}

func TestChecker_WithoutCache(t *testing.T) {
	c, mock, _ := createTestChecker(t, false)

	mock.ExpectQuery(existsQuery).WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	active, err := c.IsSchoolSubscriptionActive(context.Background(), 7)
	require.NoError(t, err)
	assert.True(t, active)
	assert.NoError(t, c.Invalidate(context.Background(), 7))
}

// ==========================
// Error Handling Tests
// ==========================

func TestChecker_DatabaseError(t *testing.T) {
	c, mock, redisMock := createTestChecker(t, true)

	redisMock.ExpectGet("school-sub:5").RedisNil()
	mock.ExpectQuery(existsQuery).WithArgs(int64(5)).WillReturnError(errors.New("connection refused"))

	_, err := c.IsSchoolSubscriptionActive(context.Background(), 5)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeSubscriptionCheckFailed))
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestChecker_Invalidate(t *testing.T) {
	c, _, redisMock := createTestChecker(t, true)

	redisMock.ExpectDel("school-sub:5").SetVal(1)

	assert.NoError(t, c.Invalidate(context.Background(), 5))
	assert.NoError(t, redisMock.ExpectationsWereMet())
}
