package models

import "time"

type TransferKind string

const (
	TransferDeposit TransferKind = "deposit"
	TransferClaim   TransferKind = "claim"
)

// TransferStatus tracks a value-transfer operation through its steps.
type TransferStatus string

const (
	StatusIdle TransferStatus = "idle"

	// Deposit flow.
	StatusCheckingAllowance       TransferStatus = "checking_allowance"
	StatusApproving               TransferStatus = "approving"
	StatusAwaitingApprovalConfirm TransferStatus = "awaiting_approval_confirmation"
	StatusDepositing              TransferStatus = "depositing"
	StatusAwaitingDepositConfirm  TransferStatus = "awaiting_deposit_confirmation"

	// Claim flow.
	StatusRequestingVoucher    TransferStatus = "requesting_voucher"
	StatusSubmittingClaim      TransferStatus = "submitting_claim"
	StatusAwaitingClaimConfirm TransferStatus = "awaiting_claim_confirmation"

	StatusCompleted TransferStatus = "completed"
	StatusFailed    TransferStatus = "failed"
)

// InFlight reports whether the status denotes an operation that is neither
// settled nor available for a new request.
func (s TransferStatus) InFlight() bool {
	switch s {
	case StatusIdle, StatusCompleted, StatusFailed, "":
		return false
	}
	return true
}

// TransferOperation is the durable record of one deposit or claim. It is
// owned by the orchestrator for its whole lifetime and reset to Idle only
// after Completed or Failed has been acknowledged.
type TransferOperation struct {
	ID         string         `json:"id"`
	Kind       TransferKind   `json:"kind"`
	Amount     int64          `json:"amount"`
	Status     TransferStatus `json:"status"`
	FailedStep TransferStatus `json:"failed_step,omitempty"`
	Error      string         `json:"error,omitempty"`
	TxHash     string         `json:"tx_hash,omitempty"`
	Nonce      string         `json:"nonce,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// ClaimVoucher is a server-issued, single-use signed authorization to claim
// tokens on-chain. A nonce is consumed by exactly one successful claim.
type ClaimVoucher struct {
	Amount    int64     `json:"amount"`
	Nonce     string    `json:"nonce"`
	Signature string    `json:"signature"`
	IssuedAt  time.Time `json:"issued_at"`
}
