package models

import (
	"time"
)

// Claim is the permanent record that a user obtained a benefit's reward.
// The composite unique index on (user_id, benefit_id) is what guarantees
// at most one claim per pair even under concurrent allocation; the
// allocator treats a violation as "already claimed".
type Claim struct {
	ID        string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID    string `gorm:"type:uuid;not null;uniqueIndex:idx_claims_user_benefit" json:"user_id"`
	BenefitID string `gorm:"type:uuid;not null;uniqueIndex:idx_claims_user_benefit" json:"benefit_id"`

	// CodeID references the redemption code assigned to this claim, for
	// codepool benefits only.
	CodeID *string `gorm:"type:uuid" json:"code_id,omitempty"`

	// SnapshotData holds the serialized activity counters the advanced-mode
	// decision was based on, for later audit.
	SnapshotData string `gorm:"type:text" json:"snapshot_data,omitempty"`

	ClaimedAt time.Time `gorm:"autoCreateTime" json:"claimed_at"`
}
