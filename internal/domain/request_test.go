package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRequest() *CopyTradeRequest {
	return &CopyTradeRequest{
		FollowerID:      "follower-1",
		LeaderID:        "leader-1",
		OriginalTradeID: "trade-100",
		Symbol:          "ETHUSDT",
		Action:          ActionBuy,
		Quantity:        10,
		Price:           1000.0,
		CopyRatio:       0.1,
		MaxCopyAmount:   50000.0,
		Timestamp:       time.Now(),
	}
}

func TestSigner_SignAndVerify(t *testing.T) {
	signer, err := NewSigner("test-secret")
	require.NoError(t, err)

	req := testRequest()
	req.Signature = signer.Sign(req)

	assert.True(t, signer.Verify(req))
	// Signing is deterministic for identical canonical fields.
	assert.Equal(t, req.Signature, signer.Sign(req))
}

func TestSigner_MutationInvalidatesSignature(t *testing.T) {
	signer, err := NewSigner("test-secret")
	require.NoError(t, err)

	mutations := map[string]func(r *CopyTradeRequest){
		"follower": func(r *CopyTradeRequest) { r.FollowerID = "other" },
		"leader":   func(r *CopyTradeRequest) { r.LeaderID = "other" },
		"trade":    func(r *CopyTradeRequest) { r.OriginalTradeID = "other" },
		"symbol":   func(r *CopyTradeRequest) { r.Symbol = "BTCUSDT" },
		"quantity": func(r *CopyTradeRequest) { r.Quantity = 11 },
		"price":    func(r *CopyTradeRequest) { r.Price = 1000.01 },
	}

	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			req := testRequest()
			req.Signature = signer.Sign(req)
			mutate(req)
			assert.False(t, signer.Verify(req), "mutated %s should invalidate signature", name)
		})
	}
}

func TestSigner_DifferentKeysDisagree(t *testing.T) {
	signerA, err := NewSigner("key-a")
	require.NoError(t, err)
	signerB, err := NewSigner("key-b")
	require.NoError(t, err)

	req := testRequest()
	req.Signature = signerA.Sign(req)

	assert.True(t, signerA.Verify(req))
	assert.False(t, signerB.Verify(req))
}

func TestSigner_RejectsEmptyKey(t *testing.T) {
	_, err := NewSigner("")
	assert.Error(t, err)
}

func TestSigner_RejectsMalformedSignature(t *testing.T) {
	signer, err := NewSigner("test-secret")
	require.NoError(t, err)

	req := testRequest()
	req.Signature = "not-hex"
	assert.False(t, signer.Verify(req))
}

func TestCopyTradeRequest_CopyValue(t *testing.T) {
	req := testRequest()
	assert.Equal(t, 10000.0, req.CopyValue())
}
