package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/uptimer/internal/domain/monitor"
	uperrors "github.com/alexisbeaulieu97/uptimer/pkg/errors"
)

func TestStoreIntegration(t *testing.T) {
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set; skipping postgres integration test")
	}

	ctx := context.Background()
	store, err := Open(ctx, dsn, 10)
	require.NoError(t, err)
	t.Cleanup(store.Close)
	require.NoError(t, store.Migrate(ctx))

	created, err := store.CreateMonitor(ctx, monitor.Monitor{Name: "g", URL: "https://example.com"})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	fetched, err := store.GetMonitor(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, created.Name, fetched.Name)

	require.NoError(t, store.DeleteMonitor(ctx, created.ID))

	_, err = store.GetMonitor(ctx, created.ID)
	var notFound *uperrors.NotFoundError
	require.ErrorAs(t, err, &notFound)

	err = store.DeleteMonitor(ctx, created.ID)
	require.ErrorAs(t, err, &notFound)
}
