package currency

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moneta-app/moneta/internal/apperr"
	"github.com/moneta-app/moneta/internal/interfaces"
)

func TestValidCode(t *testing.T) {
	assert.True(t, ValidCode("USD"))
	assert.True(t, ValidCode("JPY"))
	assert.False(t, ValidCode("XXX_NOT_A_CODE"))
	assert.False(t, ValidCode(""))
}

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, int32(2), MinorUnits("USD"))
	assert.Equal(t, int32(0), MinorUnits("JPY"))
	assert.Equal(t, int32(2), MinorUnits("NOPE"))
}

func TestConvertIdentity(t *testing.T) {
	amount := decimal.RequireFromString("123.456")
	got, err := Convert(amount, "USD", "USD", NewStaticRates())
	require.NoError(t, err)
	assert.True(t, amount.Equal(got), "identity conversion must not round")
}

func TestConvertMissingRate(t *testing.T) {
	_, err := Convert(decimal.NewFromInt(10), "USD", "EUR", NewStaticRates())
	require.Error(t, err)
	assert.Equal(t, apperr.KindCurrencyMismatch, apperr.KindOf(err))
}

func TestConvertRoundsHalfToEven(t *testing.T) {
	rates := NewStaticRates().Set("USD", "EUR", decimal.RequireFromString("0.5"))

	// 0.25 and 0.35 both sit exactly on the half; banker's rounding sends
	// each to the even neighbour.
	got, err := Convert(decimal.RequireFromString("0.25"), "USD", "EUR", rates)
	require.NoError(t, err)
	assert.Equal(t, "0.12", got.StringFixed(2))

	got, err = Convert(decimal.RequireFromString("0.35"), "USD", "EUR", rates)
	require.NoError(t, err)
	assert.Equal(t, "0.18", got.StringFixed(2))
}

func TestConvertZeroPrecisionTarget(t *testing.T) {
	rates := NewStaticRates().Set("USD", "JPY", decimal.RequireFromString("150"))
	got, err := Convert(decimal.RequireFromString("10.003"), "USD", "JPY", rates)
	require.NoError(t, err)
	assert.Equal(t, "1500", got.String(), "JPY has no minor unit")
}

func TestStaticRates(t *testing.T) {
	rates := NewStaticRates().Set("GBP", "USD", decimal.RequireFromString("1.27"))

	rate, err := rates.GetRate("GBP", "USD")
	require.NoError(t, err)
	assert.Equal(t, "1.27", rate.String())

	_, err = rates.GetRate("USD", "GBP")
	assert.ErrorIs(t, err, interfaces.ErrRateUnavailable)
}
