package db

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.hackfix.me/switchyard/db/queries"
)

func TestInit(t *testing.T) {
	t.Parallel()

	d, err := Open(context.Background(),
		fmt.Sprintf("file:db-%s?mode=memory&cache=shared", rand.Text()), time.Now)
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })

	version, err := queries.Version(d.NewContext(), d)
	assert.Error(t, err, "_meta shouldn't exist before Init")
	assert.False(t, version.Valid)

	logger := slog.New(slog.DiscardHandler)
	require.NoError(t, d.Init("v1.0.0", logger))
	// Init is idempotent and keeps the original version.
	require.NoError(t, d.Init("v2.0.0", logger))

	version, err = queries.Version(d.NewContext(), d)
	require.NoError(t, err)
	assert.True(t, version.Valid)
	assert.Equal(t, "v1.0.0", version.V)

	tables, err := queries.GetAllTables(d.NewContext(), d)
	require.NoError(t, err)
	assert.Equal(t, map[string]struct{}{"users": {}, "todos": {}, "products": {}}, tables)
}
