package models

import (
	"sync"
	"time"
)

// UserProfile mirrors the backend's /users/me response.
type UserProfile struct {
	ID            int64     `json:"id"`
	WalletAddress string    `json:"wallet_address"`
	Balance       int64     `json:"balance"`
	CreatedAt     time.Time `json:"created_at"`
}

// BalanceView caches the last server-confirmed in-game balance. It is never
// mutated optimistically; only profile refreshes write it, last write wins by
// refresh timestamp rather than arrival order.
type BalanceView struct {
	mu        sync.Mutex
	balance   int64
	updatedAt time.Time
}

// Set applies a refreshed balance taken at the given time. A refresh that
// raced and arrived late is discarded.
func (v *BalanceView) Set(balance int64, at time.Time) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !at.After(v.updatedAt) {
		return false
	}
	v.balance = balance
	v.updatedAt = at
	return true
}

func (v *BalanceView) Get() int64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.balance
}

func (v *BalanceView) UpdatedAt() time.Time {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.updatedAt
}
