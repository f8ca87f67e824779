package currency

import (
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/moneta-app/moneta/internal/interfaces"
)

// StaticRates is an in-memory RateProvider for tests and local runs. Rates
// are directional: setting USD->EUR does not imply EUR->USD.
type StaticRates struct {
	mu    sync.RWMutex
	rates map[string]decimal.Decimal
}

func NewStaticRates() *StaticRates {
	return &StaticRates{rates: make(map[string]decimal.Decimal)}
}

func (s *StaticRates) Set(fromCode, toCode string, rate decimal.Decimal) *StaticRates {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rates[pairKey(fromCode, toCode)] = rate
	return s
}

func (s *StaticRates) GetRate(fromCode, toCode string) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rate, ok := s.rates[pairKey(fromCode, toCode)]
	if !ok {
		return decimal.Zero, interfaces.ErrRateUnavailable
	}
	return rate, nil
}

func pairKey(fromCode, toCode string) string {
	return fmt.Sprintf("%s/%s", fromCode, toCode)
}

var _ interfaces.RateProvider = (*StaticRates)(nil)
