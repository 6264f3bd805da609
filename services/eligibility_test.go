package services

import (
	"context"
	"testing"

	"benefit-distribution-system/models"

	"github.com/google/uuid"
)

func TestEvaluateBasicChecks(t *testing.T) {
	db := setupTestDB(t)
	guard := NewAccessGuard(db)
	reputation := &fakeReputation{}
	evaluator := NewEligibilityEvaluator(db, guard, reputation)
	ctx := context.Background()

	creator := createUser(t, db, "creator", 3)
	user := createUser(t, db, "member", 2)

	t.Run("inactive benefit denied", func(t *testing.T) {
		benefit := createContentBenefit(t, db, creator, nil)
		benefit.IsActive = false

		verdict, err := evaluator.Evaluate(ctx, user, benefit)
		if err != nil {
			t.Fatalf("evaluate: %v", err)
		}
		if verdict.Eligible {
			t.Error("inactive benefit should deny")
		}
	})

	t.Run("globally blacklisted denied regardless of trust", func(t *testing.T) {
		banned := createUser(t, db, "banned", 5)
		db.Create(&models.GlobalBlacklistEntry{
			ID:                  uuid.NewString(),
			BlacklistedUsername: "banned",
			AdminID:             creator.ID,
		})
		benefit := createContentBenefit(t, db, creator, nil)

		verdict, err := evaluator.Evaluate(ctx, banned, benefit)
		if err != nil {
			t.Fatalf("evaluate: %v", err)
		}
		if verdict.Eligible {
			t.Error("globally blacklisted user should be denied")
		}
	})

	t.Run("personally blacklisted denied only for that creator", func(t *testing.T) {
		disliked := createUser(t, db, "disliked", 5)
		db.Create(&models.PersonalBlacklistEntry{
			ID:                  uuid.NewString(),
			CreatorID:           creator.ID,
			BlacklistedUsername: "disliked",
		})
		benefit := createContentBenefit(t, db, creator, nil)

		verdict, _ := evaluator.Evaluate(ctx, disliked, benefit)
		if verdict.Eligible {
			t.Error("personally blacklisted user should be denied")
		}

		other := createUser(t, db, "other", 0)
		otherBenefit := createContentBenefit(t, db, other, nil)
		verdict, _ = evaluator.Evaluate(ctx, disliked, otherBenefit)
		if !verdict.Eligible {
			t.Errorf("personal blacklist leaked onto another creator: %s", verdict.Reason)
		}
	})

	t.Run("already claimed denied with allocator wording", func(t *testing.T) {
		benefit := createContentBenefit(t, db, creator, nil)
		db.Create(&models.Claim{
			ID:        uuid.NewString(),
			UserID:    user.ID,
			BenefitID: benefit.ID,
		})

		verdict, _ := evaluator.Evaluate(ctx, user, benefit)
		if verdict.Eligible {
			t.Error("claimed benefit should deny")
		}
		if verdict.Reason != models.MsgAlreadyClaimed {
			t.Errorf("reason = %q, want %q", verdict.Reason, models.MsgAlreadyClaimed)
		}
	})

	t.Run("exhausted content benefit denied with allocator wording", func(t *testing.T) {
		benefit := createContentBenefit(t, db, creator, int64Ptr(1))
		db.Model(benefit).Update("total_claims", 1)
		benefit.TotalClaims = 1

		verdict, _ := evaluator.Evaluate(ctx, user, benefit)
		if verdict.Eligible {
			t.Error("exhausted benefit should deny")
		}
		if verdict.Reason != models.MsgBenefitExhausted {
			t.Errorf("reason = %q, want %q", verdict.Reason, models.MsgBenefitExhausted)
		}
	})

	t.Run("empty code pool denied", func(t *testing.T) {
		benefit := createPoolBenefit(t, db, creator, nil)

		verdict, _ := evaluator.Evaluate(ctx, user, benefit)
		if verdict.Eligible {
			t.Error("empty pool should deny")
		}
		if verdict.Reason != models.MsgBenefitExhausted {
			t.Errorf("reason = %q, want %q", verdict.Reason, models.MsgBenefitExhausted)
		}
	})

	t.Run("trust level threshold is inclusive", func(t *testing.T) {
		benefit := createContentBenefit(t, db, creator, nil)
		db.Model(benefit).Update("min_trust_level", 2)
		benefit.MinTrustLevel = 2

		verdict, _ := evaluator.Evaluate(ctx, user, benefit) // level 2
		if !verdict.Eligible {
			t.Errorf("level 2 user should pass a level-2 gate: %s", verdict.Reason)
		}

		newbie := createUser(t, db, "newbie", 1)
		verdict, _ = evaluator.Evaluate(ctx, newbie, benefit)
		if verdict.Eligible {
			t.Error("level 1 user should fail a level-2 gate")
		}
	})
}

func TestEvaluateTrustMonotonicity(t *testing.T) {
	db := setupTestDB(t)
	evaluator := NewEligibilityEvaluator(db, NewAccessGuard(db), &fakeReputation{})
	ctx := context.Background()

	creator := createUser(t, db, "creator", 3)
	user := createUser(t, db, "member", 2)
	benefit := createContentBenefit(t, db, creator, nil)

	// Raising min_trust_level can only flip eligible -> ineligible.
	wasEligible := true
	for level := models.MinTrustLevel; level <= models.MaxTrustLevel; level++ {
		benefit.MinTrustLevel = level
		verdict, err := evaluator.Evaluate(ctx, user, benefit)
		if err != nil {
			t.Fatalf("evaluate at level %d: %v", level, err)
		}
		if verdict.Eligible && !wasEligible {
			t.Fatalf("eligibility regained at min_trust_level=%d", level)
		}
		wasEligible = verdict.Eligible
	}
}

func TestEvaluateAdvancedMode(t *testing.T) {
	db := setupTestDB(t)
	reputation := &fakeReputation{}
	evaluator := NewEligibilityEvaluator(db, NewAccessGuard(db), reputation)
	ctx := context.Background()

	creator := createUser(t, db, "creator", 3)

	newAdvancedBenefit := func(postsRead int) *models.Benefit {
		benefit := &models.Benefit{
			ID:           uuid.NewString(),
			Title:        "Active reader reward",
			Content:      "reward",
			Kind:         models.BenefitKindContent,
			Visibility:   models.BenefitVisibilityPublic,
			Mode:         models.ModeAdvanced,
			MinPostsRead: intPtr(postsRead),
			IsActive:     true,
			CreatorID:    creator.ID,
		}
		if err := db.Create(benefit).Error; err != nil {
			t.Fatalf("create advanced benefit: %v", err)
		}
		return benefit
	}

	t.Run("consent required before any gateway call", func(t *testing.T) {
		user := createUser(t, db, "noconsent", 3)
		called := false
		reputation.fetchFn = func(ctx context.Context, username string) (*ActivitySummary, error) {
			called = true
			return &ActivitySummary{}, nil
		}

		verdict, _ := evaluator.Evaluate(ctx, user, newAdvancedBenefit(100))
		if verdict.Eligible {
			t.Error("user without consent should be denied")
		}
		if !verdict.NeedsConsent {
			t.Error("denial should carry the consent flag")
		}
		if called {
			t.Error("gateway must not be called before consent")
		}
	})

	t.Run("gateway failure is a transient denial", func(t *testing.T) {
		user := createUser(t, db, "unlucky", 3)
		db.Model(user).Update("advanced_mode_agreed", true)
		user.AdvancedModeAgreed = true

		reputation.fetchFn = func(ctx context.Context, username string) (*ActivitySummary, error) {
			return nil, models.ErrUpstreamUnavailable
		}

		verdict, err := evaluator.Evaluate(ctx, user, newAdvancedBenefit(100))
		if err != nil {
			t.Fatalf("gateway failure must not be a hard error: %v", err)
		}
		if verdict.Eligible {
			t.Error("gateway failure should deny")
		}
		if !verdict.Retryable {
			t.Error("gateway failure should be marked retryable")
		}
	})

	t.Run("every failing metric is reported, formatted", func(t *testing.T) {
		user := createUser(t, db, "reader", 3)
		db.Model(user).Update("advanced_mode_agreed", true)
		user.AdvancedModeAgreed = true

		benefit := newAdvancedBenefit(500)
		benefit.MinLikesGiven = intPtr(50)
		db.Save(benefit)

		reputation.fetchFn = func(ctx context.Context, username string) (*ActivitySummary, error) {
			return &ActivitySummary{PostsRead: 300, LikesGiven: 10}, nil
		}

		verdict, _ := evaluator.Evaluate(ctx, user, benefit)
		if verdict.Eligible {
			t.Fatal("unmet thresholds should deny")
		}
		if len(verdict.Missing) != 2 {
			t.Fatalf("missing = %v, want both failing metrics", verdict.Missing)
		}
		want := "requires postsRead >= 500, currently 300"
		found := false
		for _, m := range verdict.Missing {
			if m == want {
				found = true
			}
		}
		if !found {
			t.Errorf("missing = %v, want entry %q", verdict.Missing, want)
		}
	})

	t.Run("inclusive thresholds and zero means no requirement", func(t *testing.T) {
		user := createUser(t, db, "exactly", 3)
		db.Model(user).Update("advanced_mode_agreed", true)
		user.AdvancedModeAgreed = true

		benefit := newAdvancedBenefit(500)
		benefit.MinLikesGiven = intPtr(0) // not a requirement
		db.Save(benefit)

		reputation.fetchFn = func(ctx context.Context, username string) (*ActivitySummary, error) {
			return &ActivitySummary{PostsRead: 500, LikesGiven: 0}, nil
		}

		verdict, _ := evaluator.Evaluate(ctx, user, benefit)
		if !verdict.Eligible {
			t.Errorf("exactly meeting a threshold should pass: %s / %v", verdict.Reason, verdict.Missing)
		}
		if verdict.Snapshot == nil {
			t.Error("eligible advanced verdict should carry the snapshot")
		}
	})

	t.Run("lowering a metric never turns failing into passing", func(t *testing.T) {
		user := createUser(t, db, "declining", 3)
		db.Model(user).Update("advanced_mode_agreed", true)
		user.AdvancedModeAgreed = true

		benefit := newAdvancedBenefit(500)

		passed := true
		for postsRead := 600; postsRead >= 0; postsRead -= 100 {
			current := postsRead
			reputation.fetchFn = func(ctx context.Context, username string) (*ActivitySummary, error) {
				return &ActivitySummary{PostsRead: current}, nil
			}
			verdict, err := evaluator.Evaluate(ctx, user, benefit)
			if err != nil {
				t.Fatalf("evaluate at postsRead=%d: %v", postsRead, err)
			}
			if verdict.Eligible && !passed {
				t.Fatalf("eligibility regained as postsRead dropped to %d", postsRead)
			}
			passed = verdict.Eligible
		}
	})
}
