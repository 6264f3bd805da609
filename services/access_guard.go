// services/access_guard.go
package services

import (
	"benefit-distribution-system/models"
	"benefit-distribution-system/utils"

	"gorm.io/gorm"
)

// AccessGuard decides whether a benefit is reachable for a caller at all:
// blacklist enforcement, inactive-benefit hiding, and the private access
// secret gate. Pure read checks, no side effects. Callers surface a hidden
// benefit as "not found", never "forbidden", so blacklisted users cannot
// probe for existence.
type AccessGuard struct {
	DB *gorm.DB
}

func NewAccessGuard(db *gorm.DB) *AccessGuard {
	return &AccessGuard{DB: db}
}

// IsGloballyBlacklisted reports whether a username is barred platform-wide.
// Both the user flag and the blacklist table count; the flag is refreshed
// when an admin edits the list, but the table is authoritative.
func (g *AccessGuard) IsGloballyBlacklisted(user *models.User) (bool, error) {
	if user.IsGloballyBlacklisted {
		return true, nil
	}
	var count int64
	err := g.DB.Model(&models.GlobalBlacklistEntry{}).
		Where("blacklisted_username = ?", user.Username).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// IsPersonallyBlacklisted reports whether the benefit's creator has barred
// this username. Only that creator's benefits are affected.
func (g *AccessGuard) IsPersonallyBlacklisted(creatorID, username string) (bool, error) {
	var count int64
	err := g.DB.Model(&models.PersonalBlacklistEntry{}).
		Where("creator_id = ? AND blacklisted_username = ?", creatorID, username).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ResolveVisibility decides whether the caller may see a benefit at all.
// caller may be nil for anonymous reads. Inactive benefits stay visible to
// their own creator for management, invisible to everyone else.
func (g *AccessGuard) ResolveVisibility(benefit *models.Benefit, caller *models.User) (bool, error) {
	if caller != nil && benefit.CreatorID == caller.ID {
		return true, nil
	}
	if !benefit.IsActive {
		return false, nil
	}
	if caller == nil {
		return true, nil
	}

	global, err := g.IsGloballyBlacklisted(caller)
	if err != nil {
		return false, err
	}
	if global {
		return false, nil
	}

	personal, err := g.IsPersonallyBlacklisted(benefit.CreatorID, caller.Username)
	if err != nil {
		return false, err
	}
	return !personal, nil
}

// VerifyPrivateAccess checks the supplied secret for private benefits.
// Public benefits always pass.
func (g *AccessGuard) VerifyPrivateAccess(benefit *models.Benefit, suppliedSecret string) bool {
	if benefit.Visibility != models.BenefitVisibilityPrivate {
		return true
	}
	if benefit.AccessSecretHash == "" {
		return false
	}
	return utils.VerifyAccessSecret(benefit.AccessSecretHash, suppliedSecret)
}
