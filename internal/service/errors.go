package service

import "errors"

// Rejection reasons surfaced to the API layer. None of them are retried
// automatically; PriceUnavailable during evaluation instead defers the
// prediction to the next tick.
var (
	ErrValidation           = errors.New("invalid request")
	ErrVerificationRequired = errors.New("identity verification required")
	ErrAssetUnavailable     = errors.New("asset unknown or inactive")
	ErrInvalidSlot          = errors.New("slot is no longer open for bets")
	ErrNoActiveSlot         = errors.New("no active slot for this moment")
	ErrDuplicatePrediction  = errors.New("a bet already exists for this slot")
	ErrPriceUnavailable     = errors.New("price unavailable")
)
