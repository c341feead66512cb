package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunMigrations_Idempotent(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()

	version, err := RunMigrations(ctx, testDSN)
	require.NoError(t, err)
	assert.Equal(t, int64(4), version)
}

func TestNew(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()

	d, err := New(ctx, testDSN, 2)
	require.NoError(t, err)
	defer d.Close()

	assert.Equal(t, int32(2), d.Pool().Config().MaxConns)

	_, err = New(ctx, "postgres://%zz", 0)
	assert.Error(t, err)
}
