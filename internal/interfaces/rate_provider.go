package interfaces

import (
	"errors"

	"github.com/shopspring/decimal"
)

// ErrRateUnavailable means no rate exists for the requested pair. The
// engine never fabricates a default rate.
var ErrRateUnavailable = errors.New("exchange rate unavailable")

// RateProvider supplies exchange rates from an external source.
type RateProvider interface {
	GetRate(fromCode, toCode string) (decimal.Decimal, error)
}
