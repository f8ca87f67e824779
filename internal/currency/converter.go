package currency

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"github.com/moneta-app/moneta/internal/apperr"
	"github.com/moneta-app/moneta/internal/interfaces"
)

// ValidCode reports whether code is a recognized ISO 4217 currency.
func ValidCode(code string) bool {
	return money.GetCurrency(code) != nil
}

// MinorUnits returns the number of decimal places of the currency's minor
// unit (2 for USD, 0 for JPY). Unknown codes default to 2.
func MinorUnits(code string) int32 {
	c := money.GetCurrency(code)
	if c == nil {
		return 2
	}
	return int32(c.Fraction)
}

// Convert translates amount from one currency to another using the supplied
// rate provider. Equal codes are an identity. The result is rounded
// half-to-even to the target currency's minor-unit precision. A missing
// rate is a CurrencyMismatch; no default rate is ever assumed.
func Convert(amount decimal.Decimal, fromCode, toCode string, rates interfaces.RateProvider) (decimal.Decimal, error) {
	if fromCode == toCode {
		return amount, nil
	}
	rate, err := rates.GetRate(fromCode, toCode)
	if err != nil {
		return decimal.Zero, apperr.Errorf(apperr.KindCurrencyMismatch, "currency_mismatch",
			"no rate from %s to %s: %v", fromCode, toCode, err)
	}
	return amount.Mul(rate).RoundBank(MinorUnits(toCode)), nil
}
