package gateway

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"roulette-live-client/internal/chain"
	"roulette-live-client/internal/game"
	"roulette-live-client/internal/models"
	"roulette-live-client/internal/session"
	"roulette-live-client/internal/store"
)

type stateResponse struct {
	Connected bool             `json:"connected"`
	Balance   int64            `json:"balance"`
	Bets      map[string]int64 `json:"bets"`
	Staked    int64            `json:"staked"`
}

func newTestGateway(t *testing.T) (*Gateway, *game.State, *game.Ledger) {
	t.Helper()

	state := game.NewState()
	view := &models.BalanceView{}
	view.Set(1000, time.Now())
	ledger := game.NewLedger(state, view)
	sess := session.New("ws://127.0.0.1:1/ws", "t", state, ledger, nil, view)
	orch := chain.NewOrchestrator(nil, nil, store.NewMemoryStore(), view, "0xcasino", chain.DefaultTokenDecimals, time.Second)
	t.Cleanup(orch.Close)

	return New(state, ledger, sess, orch, view), state, ledger
}

func getState(t *testing.T, g *Gateway) stateResponse {
	t.Helper()
	w := httptest.NewRecorder()
	req, err := http.NewRequest(http.MethodGet, "/state", nil)
	require.NoError(t, err)
	g.Router().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp stateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestGetStateKeepsConfirmedBets(t *testing.T) {
	g, state, ledger := newTestGateway(t)

	require.True(t, state.ApplySnapshot(models.Round{SpinID: "spin-1", Phase: models.PhaseBetting, Timer: 20}))
	require.NoError(t, ledger.Place(models.BetKey{Type: models.BetRed}, 25))

	resp := getState(t, g)
	require.EqualValues(t, 25, resp.Staked)
	require.Equal(t, map[string]int64{"red": 25}, resp.Bets)

	// The server ack promotes the stake; the read surface must not show
	// the chips vanishing.
	ledger.MarkConfirmed()

	resp = getState(t, g)
	require.EqualValues(t, 25, resp.Staked)
	require.NotEmpty(t, resp.Bets)
	require.Equal(t, map[string]int64{"red": 25}, resp.Bets)
}

func TestGetStateBeforeFirstSnapshot(t *testing.T) {
	g, _, _ := newTestGateway(t)

	resp := getState(t, g)
	require.False(t, resp.Connected)
	require.EqualValues(t, 1000, resp.Balance)
	require.Empty(t, resp.Bets)
	require.Zero(t, resp.Staked)
}
