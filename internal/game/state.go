package game

import (
	"sync"

	log "github.com/sirupsen/logrus"

	"roulette-live-client/internal/metrics"
	"roulette-live-client/internal/models"
)

// PhaseHook runs on phase entry, exactly once per transition. It is a pure
// function of the transition itself, never of incidental re-reads.
type PhaseHook func(prev, next models.Phase)

// finishedSpinsCap bounds how many concluded spin ids are remembered for
// replay suppression across a round boundary.
const finishedSpinsCap = 16

// State reconciles authoritative round snapshots with locally-observed
// transition signals. Snapshots may arrive duplicated or reordered; the
// merge rule is monotonic per spin, so applying the same input twice yields
// the same derived state and nothing ever moves backward.
type State struct {
	mu       sync.Mutex
	round    *models.Round
	finished map[string]bool
	order    []string
	hooks    []PhaseHook
}

func NewState() *State {
	return &State{finished: make(map[string]bool)}
}

// OnPhaseChange registers a hook fired on every phase entry.
func (s *State) OnPhaseChange(hook PhaseHook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, hook)
}

// Round returns a copy of the current round, or nil before the first
// authoritative snapshot.
func (s *State) Round() *models.Round {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.round.Clone()
}

func (s *State) Phase() models.Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.round == nil {
		return ""
	}
	return s.round.Phase
}

func (s *State) SpinID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.round == nil {
		return ""
	}
	return s.round.SpinID
}

// ApplySnapshot merges a full authoritative round. The snapshot is accepted
// iff it is not behind the current state: same spin with an equal or later
// phase, or a spin we have not already seen conclude. Stale and duplicate
// snapshots are dropped with a counter; the next snapshot self-corrects, so
// there is no retry.
func (s *State) ApplySnapshot(r models.Round) bool {
	if r.SpinID == "" || !r.Phase.Valid() {
		metrics.RecordDroppedFrame("malformed")
		log.WithFields(log.Fields{"spin_id": r.SpinID, "phase": r.Phase}).
			Debug("dropping malformed round snapshot")
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.finished[r.SpinID] && (s.round == nil || s.round.SpinID != r.SpinID) {
		metrics.RecordStaleSnapshot()
		return false
	}

	prev := models.Phase("")
	if s.round != nil {
		prev = s.round.Phase
		if s.round.SpinID == r.SpinID && r.Phase.Ordinal() < s.round.Phase.Ordinal() {
			metrics.RecordStaleSnapshot()
			log.WithFields(log.Fields{
				"spin_id": r.SpinID,
				"have":    s.round.Phase,
				"got":     r.Phase,
			}).Debug("dropping out-of-order round snapshot")
			return false
		}
		if s.round.SpinID != r.SpinID {
			// The previous spin is over from our point of view.
			s.markFinished(s.round.SpinID)
		}
	}

	if len(r.LastNumbers) > models.LastNumbersCap {
		r.LastNumbers = r.LastNumbers[len(r.LastNumbers)-models.LastNumbersCap:]
	}
	s.round = r.Clone()
	s.firePhaseChange(prev, r.Phase)
	return true
}

// SpinStart applies the locally-observed early spin signal: it records the
// previewed winning number and advances to SPINNING ahead of the next full
// snapshot. It never regresses the phase and repeating it is a no-op.
func (s *State) SpinStart(winning int) bool {
	if !models.ValidNumber(winning) {
		metrics.RecordDroppedFrame("malformed")
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.round == nil {
		// Nothing to advance; rounds are never locally fabricated.
		metrics.RecordDroppedFrame("stale")
		return false
	}
	if s.round.Phase.Ordinal() >= models.PhaseSpinning.Ordinal() {
		return false
	}

	prev := s.round.Phase
	n := winning
	s.round.Phase = models.PhaseSpinning
	s.round.WinningNumber = &n
	s.firePhaseChange(prev, models.PhaseSpinning)
	return true
}

// BetResult concludes the current spin: phase moves to RESULTS, the winning
// number is recorded and appended to the bounded history, and the spin is
// remembered as finished so replayed end-of-round frames are dropped.
func (s *State) BetResult(winning int) bool {
	if !models.ValidNumber(winning) {
		metrics.RecordDroppedFrame("malformed")
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.round == nil {
		metrics.RecordDroppedFrame("stale")
		return false
	}
	if s.round.Phase == models.PhaseResults {
		// Duplicate result frame for a spin already concluded.
		metrics.RecordStaleSnapshot()
		return false
	}

	prev := s.round.Phase
	n := winning
	s.round.Phase = models.PhaseResults
	s.round.WinningNumber = &n
	s.round.LastNumbers = append(s.round.LastNumbers, winning)
	if len(s.round.LastNumbers) > models.LastNumbersCap {
		s.round.LastNumbers = s.round.LastNumbers[len(s.round.LastNumbers)-models.LastNumbersCap:]
	}
	s.markFinished(s.round.SpinID)
	s.firePhaseChange(prev, models.PhaseResults)
	return true
}

// Invalidate discards all locally-derived round state. Used on reconnect:
// ordering across a connection gap is not guaranteed, so nothing derived
// before the gap survives until a fresh authoritative snapshot arrives.
func (s *State) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.round = nil
	s.finished = make(map[string]bool)
	s.order = nil
}

func (s *State) markFinished(spinID string) {
	if s.finished[spinID] {
		return
	}
	s.finished[spinID] = true
	s.order = append(s.order, spinID)
	if len(s.order) > finishedSpinsCap {
		delete(s.finished, s.order[0])
		s.order = s.order[1:]
	}
}

func (s *State) firePhaseChange(prev, next models.Phase) {
	if prev == next {
		return
	}
	for _, hook := range s.hooks {
		hook(prev, next)
	}
}
