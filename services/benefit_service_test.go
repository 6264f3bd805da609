package services

import (
	"testing"

	"benefit-distribution-system/models"

	"gorm.io/gorm"
)

// A claim can commit between a benefit being loaded for patching and the
// patch being written. The patch write must not touch total_claims, or it
// would roll the counter back past claims already made.
func TestPersistPatchPreservesClaimCounter(t *testing.T) {
	db := setupTestDB(t)
	guard := NewAccessGuard(db)
	evaluator := NewEligibilityEvaluator(db, guard, &fakeReputation{})
	allocator := NewClaimAllocator(db, evaluator)
	service := NewBenefitService(db, guard, evaluator, allocator)

	creator := createUser(t, db, "creator", 3)
	benefit := createContentBenefit(t, db, creator, nil)

	// Load the row the way the update handler does.
	var stale models.Benefit
	if err := db.First(&stale, "id = ?", benefit.ID).Error; err != nil {
		t.Fatalf("load benefit: %v", err)
	}

	// A claim commits in between, via the allocator's conditional update.
	if err := db.Model(&models.Benefit{}).
		Where("id = ?", benefit.ID).
		UpdateColumn("total_claims", gorm.Expr("total_claims + 1")).Error; err != nil {
		t.Fatalf("increment counter: %v", err)
	}

	stale.Title = "Renamed"
	stale.Description = "patched"
	if err := service.persistPatch(&stale); err != nil {
		t.Fatalf("persist patch: %v", err)
	}

	var stored models.Benefit
	if err := db.First(&stored, "id = ?", benefit.ID).Error; err != nil {
		t.Fatalf("reload benefit: %v", err)
	}
	if stored.TotalClaims != 1 {
		t.Errorf("total_claims = %d, want the committed claim kept", stored.TotalClaims)
	}
	if stored.Title != "Renamed" || stored.Description != "patched" {
		t.Errorf("patched fields not written: %+v", stored)
	}
}

// The active flag is mutable and must be writable back to false through
// the column-restricted patch.
func TestPersistPatchWritesZeroValues(t *testing.T) {
	db := setupTestDB(t)
	guard := NewAccessGuard(db)
	evaluator := NewEligibilityEvaluator(db, guard, &fakeReputation{})
	allocator := NewClaimAllocator(db, evaluator)
	service := NewBenefitService(db, guard, evaluator, allocator)

	creator := createUser(t, db, "creator", 3)
	benefit := createContentBenefit(t, db, creator, nil)

	benefit.IsActive = false
	benefit.Description = ""
	if err := service.persistPatch(benefit); err != nil {
		t.Fatalf("persist patch: %v", err)
	}

	var stored models.Benefit
	if err := db.First(&stored, "id = ?", benefit.ID).Error; err != nil {
		t.Fatalf("reload benefit: %v", err)
	}
	if stored.IsActive {
		t.Error("is_active = true, want deactivation persisted")
	}
}
