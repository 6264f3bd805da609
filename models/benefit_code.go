package models

import (
	"time"
)

// BenefitCode is one unit of a codepool benefit's redemption pool. It
// transitions exactly once from unclaimed to claimed and is never deleted
// or reverted.
type BenefitCode struct {
	ID        string `gorm:"primaryKey;type:uuid" json:"id"`
	BenefitID string `gorm:"type:uuid;index;not null" json:"benefit_id"`

	// Content is the redemption code or link handed to the claimant.
	Content string `gorm:"type:text;not null" json:"-"`

	IsClaimed       bool       `gorm:"default:false;index" json:"is_claimed"`
	ClaimedByUserID *string    `gorm:"type:uuid" json:"claimed_by_user_id,omitempty"`
	ClaimedAt       *time.Time `json:"claimed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
