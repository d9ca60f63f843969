package store

import "time"

const (
	KeyTransfer  = "wallet:%s:transfer:%s"
	KeyUsedNonce = "wallet:%s:nonce:%s"

	TTLTransfer  = 7 * 24 * time.Hour // 7 days
	TTLUsedNonce = 30 * 24 * time.Hour
)
