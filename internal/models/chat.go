package models

import "time"

type ChatMessage struct {
	Username      string    `json:"username"`
	Message       string    `json:"message"`
	WalletAddress string    `json:"wallet_address,omitempty"`
	SentAt        time.Time `json:"sent_at,omitempty"`
}
