// services/eligibility.go
package services

import (
	"context"
	"fmt"

	"benefit-distribution-system/models"

	"gorm.io/gorm"
)

// Verdict is the structured outcome of an eligibility evaluation. Expected
// business denials live here, not in errors.
type Verdict struct {
	Eligible bool   `json:"eligible"`
	Reason   string `json:"reason,omitempty"`

	// Missing lists every unmet advanced-mode requirement, not just the
	// first, so the caller can show a complete checklist.
	Missing []string `json:"missing_requirements,omitempty"`

	// NeedsConsent marks the specific denial where the user has not yet
	// agreed to advanced-mode data sharing; the caller should prompt for
	// consent rather than just reject.
	NeedsConsent bool `json:"needs_consent,omitempty"`

	// Retryable marks transient denials (activity data unavailable).
	Retryable bool `json:"retryable,omitempty"`

	// Snapshot holds the activity counters an advanced-mode decision was
	// based on, so the allocator can persist them without a second fetch.
	Snapshot *ActivitySummary `json:"-"`
}

func denied(reason string) Verdict {
	return Verdict{Eligible: false, Reason: reason}
}

// EligibilityEvaluator produces claim verdicts. Checks run cheapest-first
// and short-circuit: the reputation fetch only happens when everything
// local already passed.
type EligibilityEvaluator struct {
	DB         *gorm.DB
	Guard      *AccessGuard
	Reputation ReputationProvider
}

func NewEligibilityEvaluator(db *gorm.DB, guard *AccessGuard, reputation ReputationProvider) *EligibilityEvaluator {
	return &EligibilityEvaluator{DB: db, Guard: guard, Reputation: reputation}
}

// HasClaimed reports whether the user already holds a claim for the
// benefit. Advisory outside a transaction; the allocator re-checks.
func (e *EligibilityEvaluator) HasClaimed(userID, benefitID string) (bool, error) {
	var count int64
	err := e.DB.Model(&models.Claim{}).
		Where("user_id = ? AND benefit_id = ?", userID, benefitID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// remainingCapacity reports whether the benefit can still be claimed:
// content benefits against their ceiling, codepool benefits against the
// count of unclaimed codes.
func (e *EligibilityEvaluator) remainingCapacity(benefit *models.Benefit) (bool, error) {
	switch benefit.Kind {
	case models.BenefitKindCodePool:
		var available int64
		err := e.DB.Model(&models.BenefitCode{}).
			Where("benefit_id = ? AND is_claimed = ?", benefit.ID, false).
			Count(&available).Error
		if err != nil {
			return false, err
		}
		return available > 0, nil
	default:
		if benefit.MaxClaims == nil {
			return true, nil
		}
		return benefit.TotalClaims < *benefit.MaxClaims, nil
	}
}

// Evaluate runs the full check sequence for (user, benefit) and returns a
// structured verdict. Infrastructure failures (storage unreachable) come
// back as errors; business denials never do.
func (e *EligibilityEvaluator) Evaluate(ctx context.Context, user *models.User, benefit *models.Benefit) (Verdict, error) {
	if !benefit.IsActive {
		return denied("benefit is no longer active"), nil
	}

	global, err := e.Guard.IsGloballyBlacklisted(user)
	if err != nil {
		return Verdict{}, err
	}
	if global {
		return denied("you are not allowed to claim benefits"), nil
	}
	personal, err := e.Guard.IsPersonallyBlacklisted(benefit.CreatorID, user.Username)
	if err != nil {
		return Verdict{}, err
	}
	if personal {
		return denied("the creator has blocked you from their benefits"), nil
	}

	claimed, err := e.HasClaimed(user.ID, benefit.ID)
	if err != nil {
		return Verdict{}, err
	}
	if claimed {
		return denied(models.MsgAlreadyClaimed), nil
	}

	capacity, err := e.remainingCapacity(benefit)
	if err != nil {
		return Verdict{}, err
	}
	if !capacity {
		return denied(models.MsgBenefitExhausted), nil
	}

	if user.TrustLevel < benefit.MinTrustLevel {
		return denied(fmt.Sprintf(
			"requires trust level %d or above, you are level %d",
			benefit.MinTrustLevel, user.TrustLevel,
		)), nil
	}

	if benefit.Mode == models.ModeBasic {
		return Verdict{Eligible: true}, nil
	}

	// Advanced mode from here on.
	if !user.AdvancedModeAgreed {
		return Verdict{
			Eligible:     false,
			Reason:       "you must agree to advanced-mode data sharing first",
			NeedsConsent: true,
		}, nil
	}

	summary, err := e.Reputation.FetchSummary(ctx, user.Username)
	if err != nil {
		// Gateway trouble is a transient denial, never a hard failure.
		return Verdict{
			Eligible:  false,
			Reason:    models.ErrUpstreamUnavailable.Error(),
			Retryable: true,
		}, nil
	}

	var missing []string
	for _, req := range benefit.Requirements() {
		current := summary.Metric(req.Metric)
		if current < req.Min {
			missing = append(missing, fmt.Sprintf(
				"requires %s >= %d, currently %d", req.Metric, req.Min, current,
			))
		}
	}
	if len(missing) > 0 {
		return Verdict{
			Eligible: false,
			Reason:   "activity requirements not met",
			Missing:  missing,
			Snapshot: summary,
		}, nil
	}

	return Verdict{Eligible: true, Snapshot: summary}, nil
}
