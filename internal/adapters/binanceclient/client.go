// Package binanceclient adapts the Binance spot API to the venue price
// source and order placer ports. It is the one live venue the paper bot can
// scan alongside the synthetic feed; the simulator itself never places real
// orders through it.
package binanceclient

import (
	"context"
	"errors"
	"fmt"

	"github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/common"
	"github.com/shopspring/decimal"

	"arbSimBot/internal/domain"
	"arbSimBot/internal/ports"
)

const (
	// Base URLs
	baseURLProduction = "https://api.binance.com"
	baseURLTestnet    = "https://testnet.binance.vision"
)

// Client implements ports.VenuePriceSource and ports.OrderPlacer using the
// go-binance library.
type Client struct {
	spotClient *binance.Client
	logger     ports.Logger
}

// Config holds configuration specific to the Binance client adapter.
type Config struct {
	APIKey     string
	SecretKey  string
	UseTestnet bool
	Logger     ports.Logger
}

// New creates a new Binance client adapter. Public ticker endpoints work
// without credentials; PlaceOrder requires them.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for Binance client")
	}
	if cfg.APIKey == "" || cfg.SecretKey == "" {
		cfg.Logger.Warn(context.Background(), "APIKey or SecretKey is empty. Client will only work for public endpoints.")
	}

	client := binance.NewClient(cfg.APIKey, cfg.SecretKey)

	// Set BaseURL directly instead of using the global UseTestnet toggle
	if cfg.UseTestnet {
		client.BaseURL = baseURLTestnet
		cfg.Logger.Info(context.Background(), "Binance client configured for Testnet", map[string]interface{}{"baseURL": client.BaseURL})
	} else {
		client.BaseURL = baseURLProduction
		cfg.Logger.Info(context.Background(), "Binance client configured for Production", map[string]interface{}{"baseURL": client.BaseURL})
	}

	return &Client{spotClient: client, logger: cfg.Logger}, nil
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

		var mappedErr error
		switch apiErr.Code {
		case -1003: // Too many requests
			mappedErr = ports.ErrRateLimited
		case -1021: // Timestamp outside of the recvWindow
			mappedErr = ports.ErrTimeout
		case -1022: // Signature not valid
			mappedErr = ports.ErrAuthenticationFailed
		case -1100, -1101, -1102, -1103, -1104, -1105, -1106, -1111, -1121: // Parameter/symbol errors
			mappedErr = ports.ErrInvalidRequest
		case -2010: // New order rejected
			mappedErr = ports.ErrOrderPlacementFailed
		case -2014, -2015: // API-key invalid / permissions
			mappedErr = ports.ErrInvalidAPIKeys
		case -3005: // Insufficient balance
			mappedErr = ports.ErrInsufficientFunds
		default:
			mappedErr = ports.ErrUnknown
		}
		c.logger.Error(ctx, mappedErr, "Binance API error", fields)
		return fmt.Errorf("%w: %s (code %d)", mappedErr, apiErr.Message, apiErr.Code)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		c.logger.Error(ctx, ports.ErrTimeout, "Binance request timed out", fields)
		return fmt.Errorf("%w: %v", ports.ErrTimeout, err)
	}

	c.logger.Error(ctx, err, "Unhandled Binance client error", fields)
	return fmt.Errorf("%w: %v", ports.ErrExchangeUnavailable, err)
}

// Ping checks the connectivity to the exchange API.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.spotClient.NewPingService().Do(ctx); err != nil {
		return c.handleError(ctx, err, "Ping")
	}
	return nil
}

// GetPrice retrieves the last ticker price for a symbol, implementing the
// venue price source port.
func (c *Client) GetPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	prices, err := c.spotClient.NewListPricesService().Symbol(symbol).Do(ctx)
	if err != nil {
		return decimal.Zero, c.handleError(ctx, err, "GetPrice")
	}
	if len(prices) == 0 {
		return decimal.Zero, fmt.Errorf("%w: %s", ports.ErrNoQuote, symbol)
	}
	price, err := decimal.NewFromString(prices[0].Price)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse ticker price %q for %s: %w", prices[0].Price, symbol, err)
	}
	return price, nil
}

// PlaceOrder submits a spot market order, implementing the order placer
// seam a live deployment would substitute for the simulator. Returns the
// volume-weighted fill price and the summed commissions.
func (c *Client) PlaceOrder(ctx context.Context, venue, symbol string, side domain.OrderSide, quantity decimal.Decimal) (decimal.Decimal, decimal.Decimal, error) {
	sideType := binance.SideTypeBuy
	if side == domain.Sell {
		sideType = binance.SideTypeSell
	}

	resp, err := c.spotClient.NewCreateOrderService().
		Symbol(symbol).
		Side(sideType).
		Type(binance.OrderTypeMarket).
		Quantity(quantity.String()).
		Do(ctx)
	if err != nil {
		return decimal.Zero, decimal.Zero, c.handleError(ctx, err, "PlaceOrder")
	}

	var notional, filled, fees decimal.Decimal
	for _, fill := range resp.Fills {
		p, perr := decimal.NewFromString(fill.Price)
		if perr != nil {
			return decimal.Zero, decimal.Zero, fmt.Errorf("failed to parse fill price %q: %w", fill.Price, perr)
		}
		q, qerr := decimal.NewFromString(fill.Quantity)
		if qerr != nil {
			return decimal.Zero, decimal.Zero, fmt.Errorf("failed to parse fill quantity %q: %w", fill.Quantity, qerr)
		}
		fee, ferr := decimal.NewFromString(fill.Commission)
		if ferr != nil {
			return decimal.Zero, decimal.Zero, fmt.Errorf("failed to parse fill commission %q: %w", fill.Commission, ferr)
		}
		notional = notional.Add(p.Mul(q))
		filled = filled.Add(q)
		fees = fees.Add(fee)
	}
	if filled.IsZero() {
		return decimal.Zero, decimal.Zero, fmt.Errorf("%w: order %d reported no fills", ports.ErrOrderPlacementFailed, resp.OrderID)
	}

	avgPrice := notional.Div(filled)
	c.logger.Info(ctx, "Spot market order placed", map[string]interface{}{
		"symbol": symbol, "side": string(side), "orderID": resp.OrderID,
		"avgPrice": avgPrice.String(), "fees": fees.String(),
	})
	return avgPrice, fees, nil
}
