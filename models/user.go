package models

import (
	"time"
)

// Trust level bounds as defined by the forum: 0 = new user, 5 = legend.
const (
	MinTrustLevel = 0
	MaxTrustLevel = 5

	// AdminTrustLevel and above may manage the global blacklist.
	AdminTrustLevel = 4
)

// User is the local account for a forum identity. Created on the first
// OAuth login; trust level and status flags are refreshed on every
// subsequent login from the identity provider.
type User struct {
	ID        string `gorm:"primaryKey;type:uuid" json:"id"`
	ForumID   int64  `gorm:"uniqueIndex;not null" json:"forum_id"`
	Username  string `gorm:"index;not null" json:"username"`
	Name      string `json:"name,omitempty"`
	AvatarURL string `gorm:"type:text" json:"avatar_url,omitempty"`

	TrustLevel int  `gorm:"default:0" json:"trust_level"`
	IsActive   bool `gorm:"default:true" json:"is_active"`
	IsSilenced bool `gorm:"default:false" json:"is_silenced"`

	IsGloballyBlacklisted bool `gorm:"default:false" json:"is_globally_blacklisted"`
	AdvancedModeAgreed    bool `gorm:"default:false" json:"advanced_mode_agreed"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
