package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestPool(t *testing.T, cfg PoolConfig) *PoolManager {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	pm, err := NewPoolManager(db, cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = pm.Close() })
	return pm
}

type poolRecord struct {
	ID    uint `gorm:"primaryKey"`
	Value string
}

func TestDefaultPoolConfig(t *testing.T) {
	cfg := DefaultPoolConfig()
	assert.Equal(t, 10, cfg.MaxIdleConns)
	assert.Equal(t, 100, cfg.MaxOpenConns)
	assert.Equal(t, time.Hour, cfg.ConnMaxLifetime)
	assert.Equal(t, 10*time.Minute, cfg.ConnMaxIdleTime)
}

func TestNewPoolManager(t *testing.T) {
	t.Run("nil db", func(t *testing.T) {
		_, err := NewPoolManager(nil, DefaultPoolConfig(), zap.NewNop())
		assert.Error(t, err)
	})

	t.Run("ping and stats", func(t *testing.T) {
		pm := newTestPool(t, DefaultPoolConfig())

		require.NoError(t, pm.Ping(context.Background()))

		stats := pm.GetStats()
		assert.Equal(t, 100, stats.MaxOpenConnections)
	})
}

func TestPoolManager_Close(t *testing.T) {
	pm := newTestPool(t, DefaultPoolConfig())

	require.NoError(t, pm.Close())
	// Close is idempotent.
	require.NoError(t, pm.Close())

	err := pm.Ping(context.Background())
	assert.Error(t, err)
}

func TestPoolManager_WithTransaction(t *testing.T) {
	pm := newTestPool(t, DefaultPoolConfig())
	require.NoError(t, pm.DB().AutoMigrate(&poolRecord{}))

	t.Run("commit", func(t *testing.T) {
		err := pm.WithTransaction(context.Background(), func(tx *gorm.DB) error {
			return tx.Create(&poolRecord{Value: "kept"}).Error
		})
		require.NoError(t, err)

		var count int64
		require.NoError(t, pm.DB().Model(&poolRecord{}).Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})

	t.Run("rollback on error", func(t *testing.T) {
		failure := errors.New("abort")
		err := pm.WithTransaction(context.Background(), func(tx *gorm.DB) error {
			if err := tx.Create(&poolRecord{Value: "dropped"}).Error; err != nil {
				return err
			}
			return failure
		})
		assert.ErrorIs(t, err, failure)

		var count int64
		require.NoError(t, pm.DB().Model(&poolRecord{}).Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})
}

func TestPoolManager_WithTransactionRetry(t *testing.T) {
	pm := newTestPool(t, DefaultPoolConfig())
	require.NoError(t, pm.DB().AutoMigrate(&poolRecord{}))

	t.Run("retries transient failures", func(t *testing.T) {
		attempts := 0
		err := pm.WithTransactionRetry(context.Background(), 3, func(tx *gorm.DB) error {
			attempts++
			if attempts < 3 {
				return errors.New("deadlock detected")
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, attempts)
	})

	t.Run("permanent failure returns immediately", func(t *testing.T) {
		attempts := 0
		failure := errors.New("constraint violation")
		err := pm.WithTransactionRetry(context.Background(), 3, func(tx *gorm.DB) error {
			attempts++
			return failure
		})
		assert.ErrorIs(t, err, failure)
		assert.Equal(t, 1, attempts)
	})
}

func TestIsRetryableError(t *testing.T) {
	assert.False(t, isRetryableError(nil))
	assert.True(t, isRetryableError(errors.New("deadlock detected")))
	assert.True(t, isRetryableError(errors.New("ERROR: serialization failure (SQLSTATE 40001)")))
	assert.True(t, isRetryableError(errors.New("read tcp: connection reset by peer")))
	assert.True(t, isRetryableError(errors.New("driver: bad connection")))
	assert.False(t, isRetryableError(errors.New("UNIQUE constraint failed")))
}
