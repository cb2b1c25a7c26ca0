package risk

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"copyTradeEngine/internal/domain"
	"copyTradeEngine/internal/ports"
)

type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

type mockScorer struct {
	scores map[string]float64
	err    error
}

func (m *mockScorer) Score(ctx context.Context, followerID, symbol string, quantity int64, action domain.TradeAction) (float64, error) {
	if m.err != nil {
		return 0, m.err
	}
	return m.scores[followerID], nil
}

type mockMessenger struct {
	sent []ports.Message
}

func (m *mockMessenger) Send(ctx context.Context, msg ports.Message) error {
	m.sent = append(m.sent, msg)
	return nil
}

func request(followerID string) *domain.CopyTradeRequest {
	return &domain.CopyTradeRequest{
		FollowerID:      followerID,
		LeaderID:        "leader-1",
		OriginalTradeID: "trade-100",
		Symbol:          "ETHUSDT",
		Action:          domain.ActionBuy,
		Quantity:        10,
		Price:           1000,
	}
}

func followerSettings(followerID string, tolerance float64) map[string]domain.FollowerCopySettings {
	return map[string]domain.FollowerCopySettings{
		followerID: {
			FollowerID:    followerID,
			LeaderID:      "leader-1",
			CopyRatio:     0.1,
			MaxCopyAmount: 50000,
			MaxRiskScore:  tolerance,
		},
	}
}

func TestFilter_AdmitsWithinTolerance(t *testing.T) {
	scorer := &mockScorer{scores: map[string]float64{"f1": 4.5}}
	msgr := &mockMessenger{}
	gate, err := NewGate(scorer, msgr, &mockLogger{})
	require.NoError(t, err)

	req := request("f1")
	admitted, skipped := gate.Filter(context.Background(), []*domain.CopyTradeRequest{req}, followerSettings("f1", 5))

	require.Len(t, admitted, 1)
	assert.Empty(t, skipped)
	assert.Equal(t, 4.5, admitted[0].RiskScore)
	assert.Empty(t, msgr.sent)
}

func TestFilter_AdmitsAtExactTolerance(t *testing.T) {
	scorer := &mockScorer{scores: map[string]float64{"f1": 5.0}}
	gate, err := NewGate(scorer, &mockMessenger{}, &mockLogger{})
	require.NoError(t, err)

	admitted, skipped := gate.Filter(context.Background(), []*domain.CopyTradeRequest{request("f1")}, followerSettings("f1", 5))
	assert.Len(t, admitted, 1)
	assert.Empty(t, skipped)
}

func TestFilter_SuppressesAboveToleranceAndNotifies(t *testing.T) {
	scorer := &mockScorer{scores: map[string]float64{"f1": 8.2}}
	msgr := &mockMessenger{}
	gate, err := NewGate(scorer, msgr, &mockLogger{})
	require.NoError(t, err)

	admitted, skipped := gate.Filter(context.Background(), []*domain.CopyTradeRequest{request("f1")}, followerSettings("f1", 5))

	assert.Empty(t, admitted)
	require.Len(t, skipped, 1)
	assert.Equal(t, domain.StatusSkipped, skipped[0].Status)
	assert.Equal(t, "f1", skipped[0].FollowerID)

	require.Len(t, msgr.sent, 1)
	assert.Equal(t, "f1", msgr.sent[0].Recipient)
}

func TestFilter_ScoringFailureFailsClosed(t *testing.T) {
	scorer := &mockScorer{err: ports.ErrRiskScoreUnavailable}
	gate, err := NewGate(scorer, &mockMessenger{}, &mockLogger{})
	require.NoError(t, err)

	admitted, skipped := gate.Filter(context.Background(), []*domain.CopyTradeRequest{request("f1")}, followerSettings("f1", 10))

	assert.Empty(t, admitted)
	require.Len(t, skipped, 1)
	assert.Equal(t, domain.StatusSkipped, skipped[0].Status)
}

func TestFilter_MissingSettingsFailsClosed(t *testing.T) {
	scorer := &mockScorer{scores: map[string]float64{"f1": 1.0}}
	gate, err := NewGate(scorer, &mockMessenger{}, &mockLogger{})
	require.NoError(t, err)

	admitted, skipped := gate.Filter(context.Background(), []*domain.CopyTradeRequest{request("f1")}, nil)

	assert.Empty(t, admitted)
	require.Len(t, skipped, 1)
}

func TestFilter_MixedBatch(t *testing.T) {
	scorer := &mockScorer{scores: map[string]float64{"f-low": 2, "f-high": 9}}
	gate, err := NewGate(scorer, &mockMessenger{}, &mockLogger{})
	require.NoError(t, err)

	settings := map[string]domain.FollowerCopySettings{
		"f-low":  {FollowerID: "f-low", LeaderID: "leader-1", CopyRatio: 0.1, MaxCopyAmount: 50000, MaxRiskScore: 5},
		"f-high": {FollowerID: "f-high", LeaderID: "leader-1", CopyRatio: 0.1, MaxCopyAmount: 50000, MaxRiskScore: 5},
	}
	admitted, skipped := gate.Filter(context.Background(),
		[]*domain.CopyTradeRequest{request("f-low"), request("f-high")}, settings)

	require.Len(t, admitted, 1)
	assert.Equal(t, "f-low", admitted[0].FollowerID)
	require.Len(t, skipped, 1)
	assert.Equal(t, "f-high", skipped[0].FollowerID)
}
