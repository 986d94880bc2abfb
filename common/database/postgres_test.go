package database

import (
	"testing"

	"mining-etl/common/config"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigurePool_Defaults(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	ConfigurePool(db, &config.DatabaseConfig{})

	assert.Equal(t, DefaultMaxConns, db.Stats().MaxOpenConnections)
}

func TestConfigurePool_FromConfig(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	ConfigurePool(db, &config.DatabaseConfig{MaxConns: 10, MaxIdle: 20})

	assert.Equal(t, 10, db.Stats().MaxOpenConnections)
}

func TestClose_Nil(t *testing.T) {
	assert.NoError(t, Close(nil))
}
