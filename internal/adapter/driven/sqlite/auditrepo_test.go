package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsdelta/deltagate/internal/domain/model"
)

func TestAuditRepoAppendAndListRecent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAuditRepo(db)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		err := repo.Append(ctx, model.AuditEntry{
			Time:      base.Add(time.Duration(i) * time.Minute),
			Level:     "WARN",
			Message:   "workspace probe failed",
			RequestID: "req-1",
			Attrs:     `{"host":"acme.cloud.databricks.com"}`,
		})
		require.NoError(t, err)
	}

	entries, err := repo.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	// Newest first.
	assert.Equal(t, base.Add(2*time.Minute), entries[0].Time)
	assert.Equal(t, base, entries[2].Time)
	assert.Equal(t, "WARN", entries[0].Level)
	assert.Equal(t, "req-1", entries[0].RequestID)
	assert.JSONEq(t, `{"host":"acme.cloud.databricks.com"}`, entries[0].Attrs)
}

func TestAuditRepoListRecentLimit(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAuditRepo(db)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Append(ctx, model.AuditEntry{
			Level:   "ERROR",
			Message: "operation failed",
			Attrs:   "{}",
		}))
	}

	entries, err := repo.ListRecent(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestAuditRepoListRecentEmpty(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAuditRepo(db)

	entries, err := repo.ListRecent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestAuditRepoAppendZeroTime(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAuditRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Append(ctx, model.AuditEntry{Level: "INFO", Message: "started", Attrs: "{}"}))

	entries, err := repo.ListRecent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.False(t, entries[0].Time.IsZero(), "a zero entry time is replaced with now")
}
