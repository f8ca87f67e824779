package ledger

import (
	"time"

	"github.com/moneta-app/moneta/internal/models"
)

// Config carries the ledger engine tunables. Overdraft policy is
// per-account-kind rather than hard-coded: whether Card accounts may go
// negative is a deployment decision.
type Config struct {
	// MaxCommitRetries bounds the optimistic-concurrency retry loop.
	MaxCommitRetries int
	// RetryBackoff is the base delay between retries; the actual delay is
	// jittered between one and two times this value.
	RetryBackoff time.Duration
	// CacheTTL applies to cached account entries. Correctness never
	// depends on it; commits invalidate explicitly.
	CacheTTL time.Duration
	// AllowOverdraft maps account kinds that may carry a negative balance.
	AllowOverdraft map[models.AccountKind]bool
}

func DefaultConfig() Config {
	return Config{
		MaxCommitRetries: 5,
		RetryBackoff:     10 * time.Millisecond,
		CacheTTL:         5 * time.Minute,
		AllowOverdraft: map[models.AccountKind]bool{
			models.AccountCard: true,
		},
	}
}

func (c Config) overdraftAllowed(kind models.AccountKind) bool {
	return c.AllowOverdraft[kind]
}
