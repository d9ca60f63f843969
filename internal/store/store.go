package store

import (
	"roulette-live-client/internal/models"
)

// Store persists value-transfer state across process restarts and navigation
// gaps. A transfer that was submitted on-chain must never be re-submitted
// just because the client came back with empty memory.
type Store interface {
	// SaveOperation overwrites the durable record for the operation's kind.
	SaveOperation(op *models.TransferOperation) error

	// LoadOperation returns the saved record for a kind, or nil when no
	// operation has ever been persisted (or the record expired).
	LoadOperation(kind models.TransferKind) (*models.TransferOperation, error)

	// MarkNonceUsed records a claim-voucher nonce as consumed.
	MarkNonceUsed(nonce string) error

	// NonceUsed reports whether a claim-voucher nonce was consumed before.
	NonceUsed(nonce string) (bool, error)

	Close() error
}
