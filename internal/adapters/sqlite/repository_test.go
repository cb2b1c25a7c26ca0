package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"copyTradeEngine/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockLogger implements ports.Logger for testing
type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

// setupTestDB creates a temporary database for testing
func setupTestDB(t *testing.T) (*Repository, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "copy-trade-test-*")
	require.NoError(t, err)

	dbPath := filepath.Join(tmpDir, "test.db")
	repo, err := NewRepository(Config{
		DBPath: dbPath,
		Logger: &mockLogger{},
	})
	require.NoError(t, err)

	cleanup := func() {
		repo.Close()
		os.RemoveAll(tmpDir)
	}
	return repo, cleanup
}

func auditRecord(copyID string, status domain.CopyStatus) *domain.CopyAuditRecord {
	now := time.Now()
	return &domain.CopyAuditRecord{
		CopyID:          copyID,
		FollowerID:      "f1",
		LeaderID:        "leader-1",
		OriginalTradeID: "trade-100",
		Symbol:          "ETHUSDT",
		Signature:       "deadbeef",
		Status:          status,
		TradeID:         "order-1",
		CopyValue:       10000,
		RequestedAt:     now.Add(-time.Second),
		CompletedAt:     now,
	}
}

func TestRepository_RecordAndFindAuditRecord(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, repo.RecordResult(ctx, auditRecord("copy-1", domain.StatusExecuted)))

	found, err := repo.FindByCopyID(ctx, "copy-1")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "copy-1", found.CopyID)
	assert.Equal(t, domain.StatusExecuted, found.Status)
	assert.Equal(t, "order-1", found.TradeID)
	assert.Equal(t, 10000.0, found.CopyValue)
}

func TestRepository_FindByCopyID_NotFound(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	found, err := repo.FindByCopyID(context.Background(), "copy-missing")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestRepository_FindByCopyID_ReturnsMostRecent(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	older := auditRecord("copy-1", domain.StatusFailed)
	older.CompletedAt = time.Now().Add(-time.Hour)
	require.NoError(t, repo.RecordResult(ctx, older))
	require.NoError(t, repo.RecordResult(ctx, auditRecord("copy-1", domain.StatusExecuted)))

	found, err := repo.FindByCopyID(ctx, "copy-1")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, domain.StatusExecuted, found.Status)
}

func TestRepository_RecordResult_NullableFields(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	rec := auditRecord("copy-1", domain.StatusSkipped)
	rec.TradeID = ""
	rec.CopyValue = 0
	rec.Error = "risk score above tolerance"
	require.NoError(t, repo.RecordResult(ctx, rec))

	found, err := repo.FindByCopyID(ctx, "copy-1")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Empty(t, found.TradeID)
	assert.Equal(t, "risk score above tolerance", found.Error)
}

func TestRepository_HasLeader(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	known, err := repo.HasLeader(ctx, "leader-1")
	require.NoError(t, err)
	assert.False(t, known)

	require.NoError(t, repo.AdjustFollowers(ctx, "leader-1", 1))
	known, err = repo.HasLeader(ctx, "leader-1")
	require.NoError(t, err)
	assert.True(t, known)
}

func TestRepository_RecordBatch_Accumulates(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, repo.RecordBatch(ctx, "leader-1", 3, 1, 30000))
	require.NoError(t, repo.RecordBatch(ctx, "leader-1", 2, 0, 20000))

	leaders, err := repo.TopLeaders(ctx, "all", 10)
	require.NoError(t, err)
	require.Len(t, leaders, 1)

	ls := leaders[0]
	assert.Equal(t, int64(6), ls.TotalCopies)
	assert.Equal(t, 50000.0, ls.CopiedVolume)
	assert.InDelta(t, 5.0/6.0, ls.SuccessRate, 1e-9)
}

func TestRepository_AdjustFollowers_Decrements(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, repo.AdjustFollowers(ctx, "leader-1", 3))
	require.NoError(t, repo.AdjustFollowers(ctx, "leader-1", -1))

	leaders, err := repo.TopLeaders(ctx, "all", 10)
	require.NoError(t, err)
	require.Len(t, leaders, 1)
	assert.Equal(t, int64(2), leaders[0].FollowersCount)
}

func TestRepository_AdjustFollowers_NeverNegative(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, repo.AdjustFollowers(ctx, "leader-1", 2))
	require.NoError(t, repo.AdjustFollowers(ctx, "leader-1", -5))

	leaders, err := repo.TopLeaders(ctx, "all", 10)
	require.NoError(t, err)
	require.Len(t, leaders, 1)
	assert.Equal(t, int64(0), leaders[0].FollowersCount)
}

func TestRepository_TopLeaders_OrderAndTier(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, repo.AdjustFollowers(ctx, "leader-big", 12000))
	require.NoError(t, repo.AdjustFollowers(ctx, "leader-small", 50))
	require.NoError(t, repo.RecordBatch(ctx, "leader-big", 10, 0, 100000))
	require.NoError(t, repo.RecordBatch(ctx, "leader-small", 1, 1, 1000))

	leaders, err := repo.TopLeaders(ctx, "all", 10)
	require.NoError(t, err)
	require.Len(t, leaders, 2)

	// Same return percentage; follower count breaks the tie.
	assert.Equal(t, "leader-big", leaders[0].LeaderID)
	assert.Equal(t, domain.TierDiamond, leaders[0].Tier)
	assert.Equal(t, domain.TierBronze, leaders[1].Tier)
}

func TestRepository_TopLeaders_UnknownTimeframeFallsBack(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, repo.AdjustFollowers(ctx, "leader-1", 1))

	leaders, err := repo.TopLeaders(ctx, "bogus", 10)
	require.NoError(t, err)
	assert.Len(t, leaders, 1)
}

func TestRepository_TopLeaders_RespectsLimit(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	for _, id := range []string{"l1", "l2", "l3"} {
		require.NoError(t, repo.AdjustFollowers(ctx, id, 1))
	}

	leaders, err := repo.TopLeaders(ctx, "all", 2)
	require.NoError(t, err)
	assert.Len(t, leaders, 2)
}
