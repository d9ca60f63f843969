package session

import (
	"encoding/json"
	"sort"

	"roulette-live-client/internal/models"
)

// Inbound message types.
const (
	MsgGameState   = "game_state"
	MsgSpinStart   = "spin_start"
	MsgBetResult   = "bet_result"
	MsgBalanceNote = "balance_update"
	MsgBetPlaced   = "bet_placed"
	MsgNewChat     = "new_chat_message"
	MsgRecentChat  = "recent_chat_messages"
	MsgServerError = "error"
)

// Outbound message types.
const (
	MsgPlaceBet = "place_bet"
	MsgSendChat = "send_chat_message"
)

// Envelope is the wire frame for every message in both directions.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type spinStartPayload struct {
	WinningNumber int `json:"winningNumber"`
}

type betResultPayload struct {
	Winnings int64 `json:"winnings"`
	WinNum   int   `json:"winNum"`
}

type betPlacedPayload struct {
	SpinID string `json:"spin_id"`
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail"`
}

func (p errorPayload) text() string {
	if p.Message != "" {
		return p.Message
	}
	return p.Detail
}

type placeBetPayload struct {
	Bets []map[string]int64 `json:"bets"`
}

type sendChatPayload struct {
	Message string `json:"message"`
}

// normalizeChat returns the messages oldest-first regardless of the order
// the backend delivered them in.
func normalizeChat(messages []models.ChatMessage) []models.ChatMessage {
	out := append([]models.ChatMessage(nil), messages...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SentAt.Before(out[j].SentAt)
	})
	return out
}
