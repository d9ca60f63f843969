package models

// Phase is the stage of a roulette round.
type Phase string

const (
	// PhaseBetting is the window in which bets may be placed or cancelled.
	PhaseBetting Phase = "BETTING"
	// PhaseLocked means the betting window has closed but the wheel has not started.
	PhaseLocked Phase = "LOCKED"
	// PhaseSpinning means the wheel is in motion.
	PhaseSpinning Phase = "SPINNING"
	// PhaseResults means the winning number is final and payouts have resolved.
	PhaseResults Phase = "RESULTS"
)

var phaseOrdinal = map[Phase]int{
	PhaseBetting:  0,
	PhaseLocked:   1,
	PhaseSpinning: 2,
	PhaseResults:  3,
}

// Ordinal returns the phase's position in the round cycle, or -1 for an
// unknown phase.
func (p Phase) Ordinal() int {
	if ord, ok := phaseOrdinal[p]; ok {
		return ord
	}
	return -1
}

func (p Phase) Valid() bool {
	return p.Ordinal() >= 0
}

// LastNumbersCap bounds the winning-number history, most-recent-last.
const LastNumbersCap = 10

// Round is the client's view of the server-authoritative round.
type Round struct {
	SpinID        string `json:"spin_id"`
	Phase         Phase  `json:"phase"`
	Timer         int    `json:"timer"`
	WinningNumber *int   `json:"winning_number"`
	LastNumbers   []int  `json:"last_numbers"`
}

// Clone returns a deep copy so callers can hand rounds across goroutines.
func (r *Round) Clone() *Round {
	if r == nil {
		return nil
	}
	cp := *r
	if r.WinningNumber != nil {
		n := *r.WinningNumber
		cp.WinningNumber = &n
	}
	cp.LastNumbers = append([]int(nil), r.LastNumbers...)
	return &cp
}
