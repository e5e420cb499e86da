package repository

import (
	"admissions-portal/internal/dbtest"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhookEventRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewWebhookEventRepository(dbtest.Open(t))

	seen, err := repo.Exists(ctx, "evt_1")
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, repo.MarkProcessed(ctx, nil, "evt_1", "payment.captured"))

	seen, err = repo.Exists(ctx, "evt_1")
	require.NoError(t, err)
	assert.True(t, seen)

	err = repo.MarkProcessed(ctx, nil, "evt_1", "payment.captured")
	require.Error(t, err)
	assert.True(t, IsDuplicateKey(err), "got %v", err)
}
