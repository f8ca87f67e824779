package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountKind distinguishes account types that carry different overdraft
// policies.
type AccountKind string

const (
	AccountCash AccountKind = "Cash"
	AccountBank AccountKind = "Bank"
	AccountCard AccountKind = "Card"
)

func (k AccountKind) Valid() bool {
	switch k {
	case AccountCash, AccountBank, AccountCard:
		return true
	}
	return false
}

// Account holds a single owner's balance in one currency. Balance and
// Version are mutated only through version-checked commits; everything else
// is metadata.
type Account struct {
	ID           uuid.UUID       `json:"id"`
	OwnerID      uuid.UUID       `json:"owner_id"`
	Name         string          `json:"name"`
	Kind         AccountKind     `json:"kind"`
	CurrencyCode string          `json:"currency_code"`
	Balance      decimal.Decimal `json:"balance"`
	IsDeleted    bool            `json:"is_deleted"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	Version      int64           `json:"version"`
}

// Clone returns a deep copy so stores can hand out accounts without
// exposing internal state.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	cp := *a
	return &cp
}

// AccountPatch carries the mutable metadata fields of an account. Nil
// fields are left unchanged.
type AccountPatch struct {
	Name *string      `json:"name,omitempty"`
	Kind *AccountKind `json:"kind,omitempty"`
}
