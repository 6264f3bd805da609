package models

import (
	"time"
)

// BenefitKind selects the reward mechanism.
type BenefitKind string

const (
	BenefitKindContent  BenefitKind = "content"  // shared content, optional claim ceiling
	BenefitKindCodePool BenefitKind = "codepool" // one redemption code per claimant
)

func (k BenefitKind) Valid() bool {
	return k == BenefitKindContent || k == BenefitKindCodePool
}

// BenefitVisibility controls whether an access secret gates the benefit.
type BenefitVisibility string

const (
	BenefitVisibilityPublic  BenefitVisibility = "public"
	BenefitVisibilityPrivate BenefitVisibility = "private"
)

func (v BenefitVisibility) Valid() bool {
	return v == BenefitVisibilityPublic || v == BenefitVisibilityPrivate
}

// QualificationMode is the eligibility strictness tier.
type QualificationMode string

const (
	ModeBasic    QualificationMode = "basic"    // trust level only
	ModeAdvanced QualificationMode = "advanced" // trust level + forum activity thresholds
)

func (m QualificationMode) Valid() bool {
	return m == ModeBasic || m == ModeAdvanced
}

// Benefit is a reward campaign: eligibility rules plus a reward mechanism.
// Kind, visibility, mode and the activity thresholds are immutable after
// creation; only title/description/content/ceiling/active flag mutate.
type Benefit struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"id"`
	Title       string `gorm:"not null" json:"title"`
	Slug        string `gorm:"index" json:"slug"`
	Description string `gorm:"type:text" json:"description,omitempty"`

	// Content is the reward payload for content benefits. Never exposed in
	// listings; claimants receive it in the claim result.
	Content string `gorm:"type:text" json:"-"`

	Kind       BenefitKind       `gorm:"not null;default:'content'" json:"kind"`
	Visibility BenefitVisibility `gorm:"not null;default:'public'" json:"visibility"`

	// AccessSecretHash holds the bcrypt hash of the access secret for
	// private benefits.
	AccessSecretHash string `gorm:"type:text" json:"-"`

	Mode          QualificationMode `gorm:"not null;default:'basic'" json:"mode"`
	MinTrustLevel int               `gorm:"default:0" json:"min_trust_level"`

	// Advanced-mode activity thresholds. Nil or zero means no requirement.
	MinLikesGiven      *int `json:"min_likes_given,omitempty"`
	MinLikesReceived   *int `json:"min_likes_received,omitempty"`
	MinTopicsEntered   *int `json:"min_topics_entered,omitempty"`
	MinPostsRead       *int `json:"min_posts_read,omitempty"`
	MinDaysVisited     *int `json:"min_days_visited,omitempty"`
	MinTopicsStarted   *int `json:"min_topics_started,omitempty"`
	MinPostsWritten    *int `json:"min_posts_written,omitempty"`
	MinTimeReadSeconds *int `json:"min_time_read_seconds,omitempty"`

	IsActive    bool   `gorm:"default:true" json:"is_active"`
	TotalClaims int64  `gorm:"default:0" json:"total_claims"`
	MaxClaims   *int64 `json:"max_claims,omitempty"` // content kind only

	CreatorID string `gorm:"type:uuid;index;not null" json:"creator_id"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ActivityRequirement is one configured advanced-mode threshold paired with
// the metric it constrains.
type ActivityRequirement struct {
	Metric string
	Min    int
}

// Requirements returns the configured activity thresholds in a fixed order.
// Unset and zero thresholds are filtered out: zero means "no requirement",
// never "must have exactly zero".
func (b *Benefit) Requirements() []ActivityRequirement {
	candidates := []struct {
		metric string
		min    *int
	}{
		{"likesGiven", b.MinLikesGiven},
		{"likesReceived", b.MinLikesReceived},
		{"topicsEntered", b.MinTopicsEntered},
		{"postsRead", b.MinPostsRead},
		{"daysVisited", b.MinDaysVisited},
		{"topicsStarted", b.MinTopicsStarted},
		{"postsWritten", b.MinPostsWritten},
		{"timeReadSeconds", b.MinTimeReadSeconds},
	}

	var reqs []ActivityRequirement
	for _, c := range candidates {
		if c.min != nil && *c.min > 0 {
			reqs = append(reqs, ActivityRequirement{Metric: c.metric, Min: *c.min})
		}
	}
	return reqs
}
