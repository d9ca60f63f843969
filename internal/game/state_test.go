package game

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"roulette-live-client/internal/models"
)

func snapshot(spinID string, phase models.Phase, timer int) models.Round {
	return models.Round{SpinID: spinID, Phase: phase, Timer: timer}
}

func TestApplySnapshotAdvancesPhase(t *testing.T) {
	s := NewState()

	require.True(t, s.ApplySnapshot(snapshot("spin-1", models.PhaseBetting, 20)))
	require.Equal(t, models.PhaseBetting, s.Phase())
	require.Equal(t, "spin-1", s.SpinID())

	require.True(t, s.ApplySnapshot(snapshot("spin-1", models.PhaseLocked, 0)))
	require.Equal(t, models.PhaseLocked, s.Phase())
}

func TestApplySnapshotRejectsStale(t *testing.T) {
	s := NewState()
	require.True(t, s.ApplySnapshot(snapshot("spin-1", models.PhaseSpinning, 0)))

	// Same spin, earlier phase: dropped.
	require.False(t, s.ApplySnapshot(snapshot("spin-1", models.PhaseBetting, 20)))
	require.Equal(t, models.PhaseSpinning, s.Phase())

	// A new spin id supersedes, and replays of the superseded spin are dropped.
	require.True(t, s.ApplySnapshot(snapshot("spin-2", models.PhaseBetting, 20)))
	require.False(t, s.ApplySnapshot(snapshot("spin-1", models.PhaseResults, 0)))
	require.Equal(t, "spin-2", s.SpinID())
}

func TestApplySnapshotIdempotent(t *testing.T) {
	s := NewState()
	snap := snapshot("spin-9", models.PhaseBetting, 15)
	snap.LastNumbers = []int{4, 21, 2}

	require.True(t, s.ApplySnapshot(snap))
	first := s.Round()

	s.ApplySnapshot(snap)
	second := s.Round()
	require.Equal(t, first, second)
}

func TestApplySnapshotRejectsMalformed(t *testing.T) {
	s := NewState()
	require.False(t, s.ApplySnapshot(snapshot("", models.PhaseBetting, 10)))
	require.False(t, s.ApplySnapshot(snapshot("spin-1", models.Phase("intermission"), 10)))
	require.Nil(t, s.Round())
}

func TestApplySnapshotTruncatesHistory(t *testing.T) {
	s := NewState()
	snap := snapshot("spin-1", models.PhaseBetting, 20)
	for i := 0; i < models.LastNumbersCap+5; i++ {
		snap.LastNumbers = append(snap.LastNumbers, i%37)
	}

	require.True(t, s.ApplySnapshot(snap))
	got := s.Round().LastNumbers
	require.Len(t, got, models.LastNumbersCap)
	// Most recent entries survive.
	require.Equal(t, snap.LastNumbers[len(snap.LastNumbers)-models.LastNumbersCap:], got)
}

func TestPhaseHooksFireOncePerTransition(t *testing.T) {
	s := NewState()
	var transitions []string
	s.OnPhaseChange(func(prev, next models.Phase) {
		transitions = append(transitions, fmt.Sprintf("%s->%s", prev, next))
	})

	s.ApplySnapshot(snapshot("spin-1", models.PhaseBetting, 20))
	s.ApplySnapshot(snapshot("spin-1", models.PhaseBetting, 12)) // timer tick only
	s.ApplySnapshot(snapshot("spin-1", models.PhaseLocked, 0))

	require.Equal(t, []string{"->BETTING", "BETTING->LOCKED"}, transitions)
}

func TestSpinStartSetsPreview(t *testing.T) {
	s := NewState()
	require.False(t, s.SpinStart(17), "no round yet")

	s.ApplySnapshot(snapshot("spin-1", models.PhaseLocked, 0))
	require.True(t, s.SpinStart(17))

	round := s.Round()
	require.Equal(t, models.PhaseSpinning, round.Phase)
	require.NotNil(t, round.WinningNumber)
	require.Equal(t, 17, *round.WinningNumber)

	// Re-delivery is a no-op, never a regression.
	require.False(t, s.SpinStart(17))
	require.Equal(t, models.PhaseSpinning, s.Phase())
}

func TestSpinStartRejectsInvalidNumber(t *testing.T) {
	s := NewState()
	s.ApplySnapshot(snapshot("spin-1", models.PhaseLocked, 0))
	require.False(t, s.SpinStart(37))
	require.False(t, s.SpinStart(-1))
	require.Equal(t, models.PhaseLocked, s.Phase())
}

func TestBetResultFinishesRound(t *testing.T) {
	s := NewState()
	s.ApplySnapshot(snapshot("spin-1", models.PhaseSpinning, 0))

	require.True(t, s.BetResult(26))
	round := s.Round()
	require.Equal(t, models.PhaseResults, round.Phase)
	require.Equal(t, []int{26}, round.LastNumbers)

	// Duplicate result frame for the same spin is dropped.
	require.False(t, s.BetResult(26))
	require.Len(t, s.Round().LastNumbers, 1)
}

func TestBetResultSuppressesReplaySnapshots(t *testing.T) {
	s := NewState()
	s.ApplySnapshot(snapshot("spin-1", models.PhaseSpinning, 0))
	require.True(t, s.BetResult(8))
	require.True(t, s.ApplySnapshot(snapshot("spin-2", models.PhaseBetting, 20)))

	// An end-of-round snapshot for the concluded spin arrives late.
	require.False(t, s.ApplySnapshot(snapshot("spin-1", models.PhaseResults, 0)))
	require.Equal(t, "spin-2", s.SpinID())
}

func TestFinishedSpinSetBounded(t *testing.T) {
	s := NewState()
	for i := 0; i < finishedSpinsCap+8; i++ {
		spin := fmt.Sprintf("spin-%d", i)
		require.True(t, s.ApplySnapshot(snapshot(spin, models.PhaseSpinning, 0)))
		require.True(t, s.BetResult(i%37))
	}

	// The earliest spins have been evicted, so a replayed snapshot for one
	// of them now reads as a brand new round. That is the accepted cost of
	// keeping the set bounded.
	require.True(t, s.ApplySnapshot(snapshot("spin-0", models.PhaseBetting, 20)))
}

func TestInvalidateDiscardsDerivedState(t *testing.T) {
	s := NewState()
	s.ApplySnapshot(snapshot("spin-1", models.PhaseSpinning, 0))
	s.BetResult(32)

	s.Invalidate()
	require.Nil(t, s.Round())

	// After a reconnect the next snapshot is authoritative, even for a spin
	// that concluded before the gap.
	require.True(t, s.ApplySnapshot(snapshot("spin-1", models.PhaseBetting, 20)))
}
