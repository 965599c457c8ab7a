package entities

import "time"

// LedgerState is the singleton record created by initialization
type LedgerState struct {
	OwnerID   string    `db:"owner_id" json:"ownerId"`
	CreatedAt time.Time `db:"created_at" json:"createdTime"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedTime"`
}

// IsOwner reports whether the account is the ledger owner
func (s *LedgerState) IsOwner(accountID string) bool {
	return s.OwnerID == accountID
}
