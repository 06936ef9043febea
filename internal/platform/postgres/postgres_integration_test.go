//go:build integration

package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contactbook/pkg/testutil/containers"
)

func TestOpen(t *testing.T) {
	pg := containers.GetManager().GetPostgres(t)

	db, err := Open(context.Background(), pg.DSN)
	require.NoError(t, err)
	defer db.Close()

	var one int
	require.NoError(t, db.QueryRowContext(context.Background(), "SELECT 1").Scan(&one))
	assert.Equal(t, 1, one)
}
