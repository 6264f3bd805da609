// services/claim_allocator.go
package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"benefit-distribution-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ClaimResult is the reward handed back for a successful allocation.
type ClaimResult struct {
	ClaimID   string    `json:"claim_id"`
	BenefitID string    `json:"benefit_id"`
	Reward    string    `json:"reward"`
	CodeID    *string   `json:"code_id,omitempty"`
	ClaimedAt time.Time `json:"claimed_at"`
}

// ClaimAllocator performs the actual reward assignment. The eligibility
// verdict it receives is advisory under concurrency, so every decisive
// check (prior claim, remaining capacity, code availability) is re-run
// inside the transaction that does the write.
type ClaimAllocator struct {
	DB        *gorm.DB
	Evaluator *EligibilityEvaluator
}

func NewClaimAllocator(db *gorm.DB, evaluator *EligibilityEvaluator) *ClaimAllocator {
	return &ClaimAllocator{DB: db, Evaluator: evaluator}
}

// Claim evaluates eligibility and, if the verdict allows, allocates the
// reward. A non-eligible verdict comes back with a nil result and nil
// error; allocation races surface as ErrAlreadyClaimed or
// ErrBenefitExhausted with the same wording the pre-check uses.
func (a *ClaimAllocator) Claim(ctx context.Context, user *models.User, benefit *models.Benefit) (*ClaimResult, Verdict, error) {
	verdict, err := a.Evaluator.Evaluate(ctx, user, benefit)
	if err != nil {
		return nil, Verdict{}, err
	}
	if !verdict.Eligible {
		return nil, verdict, nil
	}

	result, err := a.Allocate(ctx, user, benefit, verdict.Snapshot)
	if err != nil {
		return nil, verdict, err
	}
	return result, verdict, nil
}

// Allocate runs the allocation transaction. The activity snapshot, when
// present, was fetched during evaluation; no network call happens while
// the transaction is open.
func (a *ClaimAllocator) Allocate(ctx context.Context, user *models.User, benefit *models.Benefit, snapshot *ActivitySummary) (*ClaimResult, error) {
	var snapshotData string
	if benefit.Mode == models.ModeAdvanced && snapshot != nil {
		if raw, err := json.Marshal(snapshot); err == nil {
			snapshotData = string(raw)
		}
	}

	now := time.Now()
	claim := models.Claim{
		ID:           uuid.NewString(),
		UserID:       user.ID,
		BenefitID:    benefit.ID,
		SnapshotData: snapshotData,
		ClaimedAt:    now,
	}
	var reward string

	err := a.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The pre-check outside the transaction is only optimistic; this
		// one decides.
		var existing int64
		if err := tx.Model(&models.Claim{}).
			Where("user_id = ? AND benefit_id = ?", user.ID, benefit.ID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return models.ErrAlreadyClaimed
		}

		switch benefit.Kind {
		case models.BenefitKindCodePool:
			code, err := claimOneCode(tx, benefit.ID, user.ID, now)
			if err != nil {
				return err
			}
			claim.CodeID = &code.ID
			reward = code.Content

			if err := tx.Model(&models.Benefit{}).
				Where("id = ?", benefit.ID).
				UpdateColumn("total_claims", gorm.Expr("total_claims + 1")).Error; err != nil {
				return err
			}

		default:
			// Counter increment and ceiling check in one conditional
			// update, so two racing claims can never both pass.
			res := tx.Model(&models.Benefit{}).
				Where("id = ? AND (max_claims IS NULL OR total_claims < max_claims)", benefit.ID).
				UpdateColumn("total_claims", gorm.Expr("total_claims + 1"))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return models.ErrBenefitExhausted
			}
			reward = benefit.Content
		}

		if err := tx.Create(&claim).Error; err != nil {
			// A concurrent commit that won the (user, benefit) race trips
			// the unique index; report it exactly like the pre-check.
			if isUniqueViolation(err) {
				return models.ErrAlreadyClaimed
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &ClaimResult{
		ClaimID:   claim.ID,
		BenefitID: benefit.ID,
		Reward:    reward,
		CodeID:    claim.CodeID,
		ClaimedAt: claim.ClaimedAt,
	}, nil
}

// claimOneCode assigns exactly one unclaimed code to the user. Selection
// is a compare-and-set: the conditional update only succeeds if the code
// is still unclaimed, so two transactions can never take the same unit.
// Losing a race moves on to the next candidate.
func claimOneCode(tx *gorm.DB, benefitID, userID string, now time.Time) (*models.BenefitCode, error) {
	for {
		var code models.BenefitCode
		err := tx.Where("benefit_id = ? AND is_claimed = ?", benefitID, false).
			Order("created_at, id").
			First(&code).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrBenefitExhausted
		}
		if err != nil {
			return nil, err
		}

		res := tx.Model(&models.BenefitCode{}).
			Where("id = ? AND is_claimed = ?", code.ID, false).
			Updates(map[string]interface{}{
				"is_claimed":         true,
				"claimed_by_user_id": userID,
				"claimed_at":         now,
			})
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 1 {
			code.IsClaimed = true
			code.ClaimedByUserID = &userID
			code.ClaimedAt = &now
			return &code, nil
		}
		// Someone else claimed this unit between the select and the
		// update; the next select sees their commit and picks another.
	}
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "UNIQUE constraint")
}
