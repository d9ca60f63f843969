package models

import (
	"errors"
	"fmt"
)

// Client-side precondition failures. None of these ever reach the network.
var (
	ErrWrongPhase          = errors.New("action not allowed in current phase")
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrOperationInProgress = errors.New("operation already in progress")
	ErrVoucherReused       = errors.New("claim voucher nonce already used")
	ErrNotConnected        = errors.New("session not connected")
	ErrTokenExpired        = errors.New("access token expired")
	ErrNoRound             = errors.New("no round received yet")
)

// ServerRejection is an authoritative backend refusal. The ledger rolls back
// to its last confirmed state and the message is surfaced to the user.
type ServerRejection struct {
	Code    string
	Message string
}

func (e *ServerRejection) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("server rejected request (%s): %s", e.Code, e.Message)
	}
	return fmt.Sprintf("server rejected request: %s", e.Message)
}

// ChainError is an external transaction that was rejected, reverted or timed
// out. The failing step is retained so a manual retry can resume; it is never
// retried automatically.
type ChainError struct {
	Step TransferStatus
	Err  error
}

func (e *ChainError) Error() string {
	return fmt.Sprintf("chain operation failed at %s: %v", e.Step, e.Err)
}

func (e *ChainError) Unwrap() error {
	return e.Err
}
