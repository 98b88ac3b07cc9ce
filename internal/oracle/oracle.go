package oracle

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"updown/internal/models"
)

// ErrUnavailable is returned when a price cannot be obtained from the
// requested source.
var ErrUnavailable = errors.New("price unavailable")

// PriceOracle serves current prices for bettable assets. Callers prefer
// LivePrice and fall back to CachedPrice; total unavailability is a hard
// stop for the operation at hand.
type PriceOracle interface {
	LivePrice(ctx context.Context, asset models.Asset) (decimal.Decimal, error)
	CachedPrice(ctx context.Context, asset models.Asset) (decimal.Decimal, error)
}

// Resolve applies the live-then-cached policy shared by prediction
// creation and evaluation.
func Resolve(ctx context.Context, o PriceOracle, asset models.Asset) (decimal.Decimal, error) {
	price, err := o.LivePrice(ctx, asset)
	if err == nil {
		return price, nil
	}
	price, cerr := o.CachedPrice(ctx, asset)
	if cerr == nil {
		return price, nil
	}
	return decimal.Zero, ErrUnavailable
}
