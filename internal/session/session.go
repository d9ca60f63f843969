package session

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"roulette-live-client/internal/game"
	"roulette-live-client/internal/metrics"
	"roulette-live-client/internal/models"
)

const (
	chatHistoryCap = 50
	dialTimeout    = 10 * time.Second
	initialBackoff = time.Second
	maxBackoff     = 30 * time.Second
)

// RESTClient is the slice of the backend REST surface the session needs for
// balance refreshes and bet cancellation.
type RESTClient interface {
	Me(ctx context.Context) (*models.UserProfile, error)
	CancelBets(ctx context.Context, spinID string) error
}

// Session owns the live connection to the casino and routes every inbound
// frame to the round state or the bet ledger. It reconnects on its own; a
// reconnect discards all locally-derived round state, because ordering
// across the gap is not guaranteed.
type Session struct {
	url    string
	token  string
	state  *game.State
	ledger *game.Ledger
	rest   RESTClient
	view   *models.BalanceView

	connected atomic.Bool

	mu           sync.Mutex
	conn         *websocket.Conn
	chat         []models.ChatMessage
	lastWinnings *int64
	lastError    string
}

func New(url, token string, state *game.State, ledger *game.Ledger, rest RESTClient, view *models.BalanceView) *Session {
	return &Session{
		url:    url,
		token:  token,
		state:  state,
		ledger: ledger,
		rest:   rest,
		view:   view,
	}
}

// Run connects and processes frames until the context is cancelled,
// redialing with backoff after every drop.
func (s *Session) Run(ctx context.Context) {
	backoff := initialBackoff
	first := true

	for {
		if ctx.Err() != nil {
			return
		}

		conn, err := s.dial(ctx)
		if err != nil {
			log.WithError(err).Warn("websocket dial failed")
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			if backoff *= 2; backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}
		backoff = initialBackoff

		if !first {
			// Nothing derived before the gap survives it.
			s.state.Invalidate()
			metrics.RecordReconnect()
			s.refreshProfile(ctx)
		}
		first = false

		s.setConn(conn)
		log.WithField("url", s.url).Info("websocket connected")

		s.readLoop(ctx, conn)

		s.setConn(nil)
		conn.Close()
		log.Info("websocket disconnected")
	}
}

// Connected reports connection health as a plain boolean signal.
func (s *Session) Connected() bool {
	return s.connected.Load()
}

// PlaceBet stages a bet in the ledger and submits all pending stakes. The
// stake is rolled back if it cannot be sent: the server never saw it.
func (s *Session) PlaceBet(key models.BetKey, amount int64) error {
	if !s.Connected() {
		return models.ErrNotConnected
	}
	if err := s.ledger.Place(key, amount); err != nil {
		return err
	}

	payload := placeBetPayload{Bets: []map[string]int64{s.ledger.Pending()}}
	if err := s.send(MsgPlaceBet, payload); err != nil {
		// Withdraw only the stake that never went out; earlier pending
		// stakes were delivered and are the server's to ack or reject.
		s.ledger.Unstage(key, amount)
		return err
	}
	return nil
}

// CancelAll voids the round's bets through the backend. The ledger is
// cleared only after the server confirms; a rejection leaves it untouched.
func (s *Session) CancelAll(ctx context.Context) error {
	if s.state.Phase() != models.PhaseBetting {
		return models.ErrWrongPhase
	}
	spinID := s.state.SpinID()
	if spinID == "" {
		return models.ErrNoRound
	}
	if err := s.rest.CancelBets(ctx, spinID); err != nil {
		return err
	}
	s.ledger.Clear()
	return nil
}

// SendChat submits a chat message.
func (s *Session) SendChat(message string) error {
	if !s.Connected() {
		return models.ErrNotConnected
	}
	return s.send(MsgSendChat, sendChatPayload{Message: message})
}

// Chat returns the chat history, oldest-first.
func (s *Session) Chat() []models.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.ChatMessage(nil), s.chat...)
}

// LastWinnings returns the payout of the most recent settled round, or nil
// before the first result.
func (s *Session) LastWinnings() *int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastWinnings == nil {
		return nil
	}
	v := *s.lastWinnings
	return &v
}

// LastError returns the most recent server-sent error message, if any.
func (s *Session) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastError
}

func (s *Session) dial(ctx context.Context) (*websocket.Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: dialTimeout}
	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	conn, _, err := dialer.DialContext(dialCtx, s.url+"?token="+s.token, nil)
	return conn, err
}

func (s *Session) setConn(conn *websocket.Conn) {
	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()
	s.connected.Store(conn != nil)
}

func (s *Session) readLoop(ctx context.Context, conn *websocket.Conn) {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		var env Envelope
		if err := conn.ReadJSON(&env); err != nil {
			if ctx.Err() == nil && websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.WithError(err).Warn("websocket read failed")
			}
			return
		}
		s.handle(ctx, &env)
	}
}

// handle routes one frame. Frames are processed in arrival order; a handler
// runs to completion before the next frame is read.
func (s *Session) handle(ctx context.Context, env *Envelope) {
	switch env.Type {
	case MsgGameState:
		var round models.Round
		if err := json.Unmarshal(env.Payload, &round); err != nil {
			metrics.RecordDroppedFrame("malformed")
			log.WithError(err).Debug("bad game_state payload")
			return
		}
		if s.state.ApplySnapshot(round) {
			s.ledger.StartRound(round.SpinID)
		}

	case MsgSpinStart:
		var p spinStartPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			metrics.RecordDroppedFrame("malformed")
			return
		}
		s.state.SpinStart(p.WinningNumber)

	case MsgBetResult:
		var p betResultPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			metrics.RecordDroppedFrame("malformed")
			return
		}
		if s.state.BetResult(p.WinNum) {
			s.mu.Lock()
			w := p.Winnings
			s.lastWinnings = &w
			s.mu.Unlock()
			s.refreshProfile(ctx)
		}

	case MsgBalanceNote:
		// Signal only; the authoritative number comes from the profile.
		s.refreshProfile(ctx)

	case MsgBetPlaced:
		var p betPlacedPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			metrics.RecordDroppedFrame("malformed")
			log.WithError(err).Debug("bad bet_placed payload")
			return
		}
		s.ledger.MarkConfirmed()
		log.WithField("spin_id", p.SpinID).Debug("bet confirmed")

	case MsgNewChat:
		var msg models.ChatMessage
		if err := json.Unmarshal(env.Payload, &msg); err != nil {
			metrics.RecordDroppedFrame("malformed")
			return
		}
		s.appendChat(msg)

	case MsgRecentChat:
		var msgs []models.ChatMessage
		if err := json.Unmarshal(env.Payload, &msgs); err != nil {
			metrics.RecordDroppedFrame("malformed")
			return
		}
		s.mu.Lock()
		s.chat = normalizeChat(msgs)
		if len(s.chat) > chatHistoryCap {
			s.chat = s.chat[len(s.chat)-chatHistoryCap:]
		}
		s.mu.Unlock()

	case MsgServerError:
		var p errorPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			metrics.RecordDroppedFrame("malformed")
			log.WithError(err).Debug("bad error payload")
			return
		}
		s.mu.Lock()
		s.lastError = p.text()
		s.mu.Unlock()
		// A rejection voids whatever was optimistically staged.
		s.ledger.Rollback()
		log.WithFields(log.Fields{"code": p.Code, "message": p.text()}).
			Warn("server error")

	default:
		metrics.RecordDroppedFrame("unknown_type")
		log.WithField("type", env.Type).Debug("unknown message type")
	}
}

func (s *Session) appendChat(msg models.ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chat = append(s.chat, msg)
	if len(s.chat) > chatHistoryCap {
		s.chat = s.chat[len(s.chat)-chatHistoryCap:]
	}
}

func (s *Session) refreshProfile(ctx context.Context) {
	taken := time.Now()
	profile, err := s.rest.Me(ctx)
	if err != nil {
		log.WithError(err).Warn("profile refresh failed")
		return
	}
	s.view.Set(profile.Balance, taken)
}

func (s *Session) send(msgType string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return models.ErrNotConnected
	}
	return s.conn.WriteJSON(Envelope{Type: msgType, Payload: raw})
}
