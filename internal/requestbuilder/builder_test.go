package requestbuilder

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"copyTradeEngine/internal/domain"
)

type mockLogger struct {
	debugMsgs []string
	infoMsgs  []string
	warnMsgs  []string
	errorMsgs []string
}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {
	m.debugMsgs = append(m.debugMsgs, msg)
}

func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{}) {
	m.infoMsgs = append(m.infoMsgs, msg)
}

func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{}) {
	m.warnMsgs = append(m.warnMsgs, msg)
}

func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
	m.errorMsgs = append(m.errorMsgs, msg)
}

func newTestBuilder(t *testing.T) (*Builder, *domain.Signer, *mockLogger) {
	t.Helper()
	signer, err := domain.NewSigner("test-secret")
	require.NoError(t, err)
	logger := &mockLogger{}
	builder, err := New(signer, logger)
	require.NoError(t, err)
	return builder, signer, logger
}

func leaderTrade() *domain.LeaderTrade {
	return &domain.LeaderTrade{
		TradeID:   "trade-100",
		LeaderID:  "leader-1",
		Symbol:    "ETHUSDT",
		Action:    domain.ActionBuy,
		Quantity:  100,
		Price:     1000.0,
		Timestamp: time.Now(),
	}
}

func settings(followerID string, ratio, maxAmount float64) domain.FollowerCopySettings {
	return domain.FollowerCopySettings{
		FollowerID:    followerID,
		LeaderID:      "leader-1",
		CopyRatio:     ratio,
		MaxCopyAmount: maxAmount,
		MaxRiskScore:  10,
	}
}

func TestBuild_ScalesQuantityByRatio(t *testing.T) {
	builder, signer, _ := newTestBuilder(t)

	reqs := builder.Build(context.Background(), leaderTrade(), []domain.FollowerCopySettings{
		settings("f1", 0.1, 50000),
	})
	require.Len(t, reqs, 1)

	req := reqs[0]
	assert.Equal(t, int64(10), req.Quantity)
	assert.Equal(t, 10000.0, req.CopyValue())
	assert.Equal(t, "f1", req.FollowerID)
	assert.Equal(t, "trade-100", req.OriginalTradeID)
	assert.True(t, signer.Verify(req))
}

func TestBuild_ResizesDownToCap(t *testing.T) {
	builder, _, _ := newTestBuilder(t)

	// 100 * 0.5 = 50 units at 1000 = 50000 notional, over the 20000 cap.
	reqs := builder.Build(context.Background(), leaderTrade(), []domain.FollowerCopySettings{
		settings("f1", 0.5, 20000),
	})
	require.Len(t, reqs, 1)

	assert.Equal(t, int64(20), reqs[0].Quantity)
	assert.Equal(t, 20000.0, reqs[0].CopyValue())
}

func TestBuild_DropsBelowOneUnit(t *testing.T) {
	builder, _, logger := newTestBuilder(t)

	trade := leaderTrade()
	trade.Quantity = 5 // 5 * 0.1 = 0.5, floors to 0

	reqs := builder.Build(context.Background(), trade, []domain.FollowerCopySettings{
		settings("f1", 0.1, 50000),
	})
	assert.Empty(t, reqs)
	assert.NotEmpty(t, logger.debugMsgs)
	assert.Empty(t, logger.warnMsgs)
}

func TestBuild_DropsWhenCapAffordsNothing(t *testing.T) {
	builder, _, _ := newTestBuilder(t)

	// Cap of 500 at price 1000 affords zero whole units.
	reqs := builder.Build(context.Background(), leaderTrade(), []domain.FollowerCopySettings{
		settings("f1", 0.5, 500),
	})
	assert.Empty(t, reqs)
}

func TestBuild_OneBadFollowerDoesNotAbortOthers(t *testing.T) {
	builder, _, logger := newTestBuilder(t)

	bad := settings("f-bad", 0.1, 50000)
	bad.CopyRatio = 5.0 // Invalid, fails settings validation

	reqs := builder.Build(context.Background(), leaderTrade(), []domain.FollowerCopySettings{
		settings("f1", 0.1, 50000),
		bad,
		settings("f3", 0.2, 50000),
	})
	require.Len(t, reqs, 2)
	assert.Equal(t, "f1", reqs[0].FollowerID)
	assert.Equal(t, "f3", reqs[1].FollowerID)
	assert.NotEmpty(t, logger.warnMsgs)
}

func TestBuild_RejectsInvalidTrade(t *testing.T) {
	builder, _, _ := newTestBuilder(t)

	trade := leaderTrade()
	trade.Quantity = -1

	reqs := builder.Build(context.Background(), trade, []domain.FollowerCopySettings{
		settings("f1", 0.1, 50000),
	})
	assert.Empty(t, reqs)
}

// Every built request respects the notional cap and the one-unit floor,
// regardless of ratio, cap, and trade size.
func TestBuild_CapAndFloorHoldUnderRandomInputs(t *testing.T) {
	builder, signer, _ := newTestBuilder(t)
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 500; i++ {
		trade := leaderTrade()
		trade.Quantity = rng.Int63n(1000) + 1
		trade.Price = float64(rng.Intn(5000)+1) + rng.Float64()

		s := settings("f1", 0.01+rng.Float64()*0.99, float64(rng.Intn(100000)+1))

		reqs := builder.Build(context.Background(), trade, []domain.FollowerCopySettings{s})
		if len(reqs) == 0 {
			continue
		}
		req := reqs[0]
		assert.GreaterOrEqual(t, req.Quantity, int64(1))
		assert.LessOrEqual(t, req.CopyValue(), s.MaxCopyAmount+1e-6)
		assert.LessOrEqual(t, req.Quantity, trade.Quantity)
		assert.True(t, signer.Verify(req))
	}
}
