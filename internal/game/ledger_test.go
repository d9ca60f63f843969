package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"roulette-live-client/internal/models"
)

type fixedPhase struct {
	phase  models.Phase
	spinID string
}

func (f *fixedPhase) Phase() models.Phase { return f.phase }
func (f *fixedPhase) SpinID() string      { return f.spinID }

func newTestLedger(phase models.Phase, balance int64) (*Ledger, *fixedPhase) {
	src := &fixedPhase{phase: phase, spinID: "spin-1"}
	view := &models.BalanceView{}
	view.Set(balance, time.Now())
	return NewLedger(src, view), src
}

func TestPlaceRequiresBettingPhase(t *testing.T) {
	for _, phase := range []models.Phase{models.PhaseLocked, models.PhaseSpinning, models.PhaseResults} {
		ledger, _ := newTestLedger(phase, 100)
		err := ledger.Place(models.BetKey{Type: models.BetRed}, 10)
		require.ErrorIs(t, err, models.ErrWrongPhase)
		require.Zero(t, ledger.Total())
		require.Empty(t, ledger.Bets())
	}
}

func TestPlaceAdvisoryBalanceCheck(t *testing.T) {
	ledger, _ := newTestLedger(models.PhaseBetting, 100)

	require.NoError(t, ledger.Place(models.BetKey{Type: models.BetRed}, 60))
	require.ErrorIs(t, ledger.Place(models.BetKey{Type: models.BetBlack}, 50), models.ErrInsufficientBalance)
	require.NoError(t, ledger.Place(models.BetKey{Type: models.BetBlack}, 40))
	require.EqualValues(t, 100, ledger.Total())
}

func TestPlaceRejectsBadInput(t *testing.T) {
	ledger, _ := newTestLedger(models.PhaseBetting, 100)

	require.Error(t, ledger.Place(models.BetKey{Type: "corner"}, 10))
	require.Error(t, ledger.Place(models.BetKey{Type: models.BetStraight, Target: 40}, 10))
	require.ErrorIs(t, ledger.Place(models.BetKey{Type: models.BetRed}, 0), models.ErrInvalidAmount)
	require.ErrorIs(t, ledger.Place(models.BetKey{Type: models.BetRed}, -5), models.ErrInvalidAmount)
	require.Empty(t, ledger.Bets())
}

func TestRollbackRestoresConfirmedState(t *testing.T) {
	ledger, _ := newTestLedger(models.PhaseBetting, 1000)

	require.NoError(t, ledger.Place(models.BetKey{Type: models.BetRed}, 25))
	ledger.MarkConfirmed()
	require.NoError(t, ledger.Place(models.BetKey{Type: models.BetRed}, 15))
	require.NoError(t, ledger.Place(models.BetKey{Type: models.BetOdd}, 30))

	ledger.Rollback()

	bets := ledger.Bets()
	require.Equal(t, map[models.BetKey]int64{
		{Type: models.BetRed}: 25,
	}, bets)
	require.EqualValues(t, 25, ledger.Total())
}

func TestUnstageRemovesOnlyTheGivenStake(t *testing.T) {
	ledger, _ := newTestLedger(models.PhaseBetting, 1000)

	// An earlier stake is sent but still unacked when a second one fails
	// to go out; only the second may be withdrawn.
	require.NoError(t, ledger.Place(models.BetKey{Type: models.BetRed}, 25))
	require.NoError(t, ledger.Place(models.BetKey{Type: models.BetOdd}, 10))

	ledger.Unstage(models.BetKey{Type: models.BetOdd}, 10)

	require.Equal(t, map[string]int64{"red": 25}, ledger.Pending())
	require.EqualValues(t, 25, ledger.Total())

	// A partial top-up keeps the remainder staged.
	require.NoError(t, ledger.Place(models.BetKey{Type: models.BetRed}, 15))
	ledger.Unstage(models.BetKey{Type: models.BetRed}, 15)
	require.Equal(t, map[string]int64{"red": 25}, ledger.Pending())
}

func TestWireBetsKeepsConfirmedStakes(t *testing.T) {
	ledger, _ := newTestLedger(models.PhaseBetting, 1000)

	require.NoError(t, ledger.Place(models.BetKey{Type: models.BetStraight, Target: 17}, 10))
	ledger.MarkConfirmed()
	require.NoError(t, ledger.Place(models.BetKey{Type: models.BetStraight, Target: 17}, 5))
	require.NoError(t, ledger.Place(models.BetKey{Type: models.BetRed}, 25))

	require.Equal(t, map[string]int64{"straight-17": 15, "red": 25}, ledger.WireBets())

	// Confirmation must not make the chips disappear from the read surface.
	ledger.MarkConfirmed()
	require.Empty(t, ledger.Pending())
	require.Equal(t, map[string]int64{"straight-17": 15, "red": 25}, ledger.WireBets())
}

func TestMarkConfirmedPromotesPending(t *testing.T) {
	ledger, _ := newTestLedger(models.PhaseBetting, 1000)

	require.NoError(t, ledger.Place(models.BetKey{Type: models.BetStraight, Target: 17}, 10))
	require.Equal(t, map[string]int64{"straight-17": 10}, ledger.Pending())

	ledger.MarkConfirmed()
	require.Empty(t, ledger.Pending())
	require.EqualValues(t, 10, ledger.Total())
}

func TestStartRoundClearsExactlyOnce(t *testing.T) {
	ledger, _ := newTestLedger(models.PhaseBetting, 1000)
	ledger.StartRound("spin-1")

	require.NoError(t, ledger.Place(models.BetKey{Type: models.BetRed}, 25))
	ledger.MarkConfirmed()

	// Re-announcements of the same round keep the ledger intact.
	ledger.StartRound("spin-1")
	require.EqualValues(t, 25, ledger.Total())
	ledger.StartRound("")
	require.EqualValues(t, 25, ledger.Total())

	ledger.StartRound("spin-2")
	require.Zero(t, ledger.Total())
	require.Empty(t, ledger.Bets())
}

func TestClearEmptiesEverything(t *testing.T) {
	ledger, _ := newTestLedger(models.PhaseBetting, 1000)
	require.NoError(t, ledger.Place(models.BetKey{Type: models.BetRed}, 25))
	ledger.MarkConfirmed()
	require.NoError(t, ledger.Place(models.BetKey{Type: models.BetEven}, 10))

	ledger.Clear()
	require.Zero(t, ledger.Total())
	require.Empty(t, ledger.Pending())
}

func TestPayoutPreviewMatchesSettle(t *testing.T) {
	ledger, _ := newTestLedger(models.PhaseBetting, 1000)
	require.NoError(t, ledger.Place(models.BetKey{Type: models.BetStraight, Target: 17}, 10))
	require.NoError(t, ledger.Place(models.BetKey{Type: models.BetRed}, 5))

	require.EqualValues(t, 360, ledger.PayoutPreview(17))
	require.EqualValues(t, 10, ledger.PayoutPreview(5))
	require.Zero(t, ledger.PayoutPreview(2))
}
