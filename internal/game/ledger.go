package game

import (
	"sync"

	"roulette-live-client/internal/models"
)

// PhaseSource is the slice of round state the ledger needs for its guards.
// *State satisfies it.
type PhaseSource interface {
	Phase() models.Phase
	SpinID() string
}

// Ledger tracks the locally-staked amounts for the active round. Newly
// placed amounts are pending until the server acknowledges them; a rejection
// rolls pending back so the ledger always reflects the last confirmed state.
type Ledger struct {
	mu        sync.Mutex
	phases    PhaseSource
	view      *models.BalanceView
	spinID    string
	confirmed map[models.BetKey]int64
	pending   map[models.BetKey]int64
}

func NewLedger(phases PhaseSource, view *models.BalanceView) *Ledger {
	return &Ledger{
		phases:    phases,
		view:      view,
		confirmed: make(map[models.BetKey]int64),
		pending:   make(map[models.BetKey]int64),
	}
}

// Place stages a bet. Only allowed during BETTING; the balance check is
// advisory (the server is authoritative and may still reject).
func (l *Ledger) Place(key models.BetKey, amount int64) error {
	if err := key.Validate(); err != nil {
		return err
	}
	if amount <= 0 {
		return models.ErrInvalidAmount
	}
	if l.phases.Phase() != models.PhaseBetting {
		return models.ErrWrongPhase
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if amount > l.view.Get()-l.totalLocked() {
		return models.ErrInsufficientBalance
	}
	l.pending[key] += amount
	return nil
}

// MarkConfirmed promotes all pending stakes after a server ack.
func (l *Ledger) MarkConfirmed() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, amount := range l.pending {
		l.confirmed[key] += amount
	}
	l.pending = make(map[models.BetKey]int64)
}

// Rollback drops pending stakes after a server rejection, restoring the last
// confirmed state.
func (l *Ledger) Rollback() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pending = make(map[models.BetKey]int64)
}

// Unstage withdraws a single staged amount that never reached the server.
// Earlier pending stakes, already sent and merely unacked, stay put.
func (l *Ledger) Unstage(key models.BetKey, amount int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pending[key] -= amount
	if l.pending[key] <= 0 {
		delete(l.pending, key)
	}
}

// Clear empties the ledger entirely. Called after a successful server-side
// cancellation, never speculatively before one.
func (l *Ledger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.confirmed = make(map[models.BetKey]int64)
	l.pending = make(map[models.BetKey]int64)
}

// StartRound clears the ledger for a newly confirmed round. Repeated calls
// with the same spin id are no-ops, so the clear happens exactly once per
// round start.
func (l *Ledger) StartRound(spinID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if spinID == "" || spinID == l.spinID {
		return
	}
	l.spinID = spinID
	l.confirmed = make(map[models.BetKey]int64)
	l.pending = make(map[models.BetKey]int64)
}

// Total returns the sum of confirmed and pending stakes.
func (l *Ledger) Total() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.totalLocked()
}

func (l *Ledger) totalLocked() int64 {
	var total int64
	for _, amount := range l.confirmed {
		total += amount
	}
	for _, amount := range l.pending {
		total += amount
	}
	return total
}

// Bets returns a merged copy of the staked amounts.
func (l *Ledger) Bets() map[models.BetKey]int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[models.BetKey]int64, len(l.confirmed)+len(l.pending))
	for key, amount := range l.confirmed {
		out[key] += amount
	}
	for key, amount := range l.pending {
		out[key] += amount
	}
	return out
}

// WireBets returns the merged confirmed and pending stakes keyed in wire
// form, for read surfaces that must keep showing confirmed chips.
func (l *Ledger) WireBets() map[string]int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]int64, len(l.confirmed)+len(l.pending))
	for key, amount := range l.confirmed {
		out[key.String()] += amount
	}
	for key, amount := range l.pending {
		out[key.String()] += amount
	}
	return out
}

// Pending returns a copy of the not-yet-acknowledged stakes, keyed in wire
// form for the place_bet payload.
func (l *Ledger) Pending() map[string]int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]int64, len(l.pending))
	for key, amount := range l.pending {
		out[key.String()] = amount
	}
	return out
}

// PayoutPreview settles the current ledger against a hypothetical winning
// number. Display only; the server's bet_result is authoritative.
func (l *Ledger) PayoutPreview(winning int) int64 {
	return Settle(l.Bets(), winning)
}
