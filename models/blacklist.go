package models

import (
	"time"
)

// PersonalBlacklistEntry bars a forum identity from every benefit owned by
// the blacklisting creator. It has no effect on other creators' benefits.
type PersonalBlacklistEntry struct {
	ID                  string `gorm:"primaryKey;type:uuid" json:"id"`
	CreatorID           string `gorm:"type:uuid;index;not null" json:"creator_id"`
	BlacklistedUsername string `gorm:"index;not null" json:"blacklisted_username"`
	Reason              string `gorm:"size:500" json:"reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// GlobalBlacklistEntry bars a forum identity from every benefit on the
// platform. Only admins issue these.
type GlobalBlacklistEntry struct {
	ID                  string `gorm:"primaryKey;type:uuid" json:"id"`
	BlacklistedUsername string `gorm:"index;not null" json:"blacklisted_username"`
	Reason              string `gorm:"size:500" json:"reason,omitempty"`
	AdminID             string `gorm:"type:uuid;not null" json:"admin_id"`

	CreatedAt time.Time `json:"created_at"`
}
