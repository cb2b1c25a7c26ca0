// Package binanceclient implements the order-placement and balance
// oracle collaborators against Binance futures.
package binanceclient

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"copyTradeEngine/internal/domain"
	"copyTradeEngine/internal/ports"

	"github.com/adshao/go-binance/v2/common"
	"github.com/adshao/go-binance/v2/futures"
)

const (
	// Base URLs
	baseURLProduction = "https://fapi.binance.com"
	baseURLTestnet    = "https://testnet.binancefuture.com"
)

// Client implements ports.OrderPlacer and ports.BalanceOracle using the
// go-binance library. Copy metadata is folded into the client order id so
// copies stay distinguishable from organic orders on the venue.
type Client struct {
	futuresClient *futures.Client
	logger        ports.Logger
	quoteAsset    string
}

// Config holds configuration specific to the Binance client adapter.
type Config struct {
	APIKey     string
	SecretKey  string
	UseTestnet bool
	QuoteAsset string // Asset balances are read in (default "USDT")
	Logger     ports.Logger
}

// New creates a new Binance client adapter.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for Binance client")
	}
	if cfg.APIKey == "" || cfg.SecretKey == "" {
		cfg.Logger.Warn(context.Background(), "APIKey or SecretKey is empty. Client will only work for public endpoints.")
	}

	client := futures.NewClient(cfg.APIKey, cfg.SecretKey)

	// Set BaseURL directly instead of using global futures.UseTestnet
	if cfg.UseTestnet {
		client.BaseURL = baseURLTestnet
		cfg.Logger.Info(context.Background(), "Binance client configured for Testnet", map[string]interface{}{"baseURL": client.BaseURL})
	} else {
		client.BaseURL = baseURLProduction
		cfg.Logger.Info(context.Background(), "Binance client configured for Production", map[string]interface{}{"baseURL": client.BaseURL})
	}

	quoteAsset := cfg.QuoteAsset
	if quoteAsset == "" {
		quoteAsset = "USDT"
	}

	return &Client{
		futuresClient: client,
		logger:        cfg.Logger,
		quoteAsset:    quoteAsset,
	}, nil
}

// handleError translates common Binance API errors into standardized ports errors.
func (c *Client) handleError(ctx context.Context, err error, operation string) error {
	if err == nil {
		return nil
	}

	fields := map[string]interface{}{"operation": operation, "originalError": err.Error()}

	var apiErr *common.APIError
	if errors.As(err, &apiErr) {
		fields["apiErrorCode"] = apiErr.Code
		fields["apiErrorMessage"] = apiErr.Message

		// Map specific Binance error codes to custom errors
		var mappedErr error
		switch apiErr.Code {
		case -1003: // Too many requests
			mappedErr = ports.ErrRateLimited
		case -1022: // Signature for this request is not valid
			mappedErr = ports.ErrAuthenticationFailed
		case -2010: // New order rejected
			mappedErr = ports.ErrOrderPlacementFailed
		case -2014, -2015: // API-key invalid or lacks permissions
			mappedErr = ports.ErrAuthenticationFailed
		case -2019, -3005: // Insufficient margin/balance
			mappedErr = ports.ErrInsufficientFunds
		case -4003, -4014: // Qty/price not within permissible range
			mappedErr = ports.ErrInvalidRequest
		default:
			mappedErr = ports.ErrUnknown
		}
		finalErr := fmt.Errorf("%s failed: %w: %w", operation, mappedErr, err)
		c.logger.Error(ctx, err, fmt.Sprintf("%s failed with API error", operation), fields)
		return finalErr
	}

	// Handle non-API errors (network, context cancellation, etc.)
	var finalErr error
	if errors.Is(err, context.DeadlineExceeded) {
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrTimeout, err)
	} else if errors.Is(err, context.Canceled) {
		finalErr = fmt.Errorf("%s operation canceled: %w: %w", operation, ports.ErrContextCanceled, err)
	} else if strings.Contains(err.Error(), "use of closed network connection") ||
		strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "connection reset by peer") {
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrConnectionFailed, err)
	} else {
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrUnknown, err)
	}

	c.logger.Error(ctx, err, fmt.Sprintf("%s failed", operation), fields)
	return finalErr
}

// PlaceOrder submits a market order tagged with the copy metadata.
func (c *Client) PlaceOrder(ctx context.Context, req ports.OrderRequest) (*ports.OrderResult, error) {
	op := "PlaceOrder"

	side := futures.SideTypeBuy
	if req.Action == domain.ActionSell {
		side = futures.SideTypeSell
	}

	svc := c.futuresClient.NewCreateOrderService().
		Symbol(req.Symbol).
		Side(side).
		Type(futures.OrderTypeMarket).
		Quantity(strconv.FormatInt(req.Quantity, 10)).
		NewClientOrderID(clientOrderID(req))

	order, err := svc.Do(ctx)
	if err != nil {
		return nil, c.handleError(ctx, err, op)
	}

	avgPrice, err := strconv.ParseFloat(order.AvgPrice, 64)
	if err != nil {
		avgPrice = 0 // AvgPrice may be empty until the order fills
	}

	c.logger.Debug(ctx, op+" successful", map[string]interface{}{
		"symbol":  req.Symbol,
		"side":    side,
		"orderID": order.OrderID,
	})
	return &ports.OrderResult{
		Status:    string(order.Status),
		TradeID:   strconv.FormatInt(order.OrderID, 10),
		AvgPrice:  avgPrice,
		Timestamp: time.UnixMilli(order.UpdateTime),
	}, nil
}

// Snapshot reads the account's available balance in the quote asset.
// The adapter holds one API key, so every follower id resolves to the
// same venue account; per-follower accounts need a keyed client pool or
// a broker-side sub-account API.
func (c *Client) Snapshot(ctx context.Context, followerID string) (ports.AccountSnapshot, error) {
	op := "Snapshot"
	account, err := c.futuresClient.NewGetAccountService().Do(ctx)
	if err != nil {
		return ports.AccountSnapshot{}, c.handleError(ctx, err, op)
	}

	for _, bal := range account.Assets {
		if bal.Asset != c.quoteAsset {
			continue
		}
		available, err := strconv.ParseFloat(bal.AvailableBalance, 64)
		if err != nil {
			parseErr := fmt.Errorf("could not parse balance '%s' for asset %s: %w", bal.AvailableBalance, c.quoteAsset, err)
			return ports.AccountSnapshot{}, c.handleError(ctx, parseErr, op)
		}
		return ports.AccountSnapshot{AvailableBalance: available, Active: account.CanTrade}, nil
	}

	err = fmt.Errorf("asset %s not found in account balance", c.quoteAsset)
	return ports.AccountSnapshot{}, c.handleError(ctx, err, op)
}

// Ping checks the connectivity to the exchange API.
func (c *Client) Ping(ctx context.Context) error {
	op := "Ping"
	if err := c.futuresClient.NewPingService().Do(ctx); err != nil {
		return c.handleError(ctx, fmt.Errorf("ping failed: %w", err), op)
	}
	c.logger.Debug(ctx, op+" successful")
	return nil
}

// clientOrderID packs the copy identity into the venue's client order id.
// Binance caps the field at 36 characters, so only the discriminating
// parts are kept.
func clientOrderID(req ports.OrderRequest) string {
	id := fmt.Sprintf("cp-%s-%s", req.Metadata["original_trade_id"], req.UserID)
	if len(id) > 36 {
		id = id[:36]
	}
	return id
}
