// services/benefit_service.go
package services

import (
	"errors"
	"log"
	"strconv"

	"benefit-distribution-system/models"
	"benefit-distribution-system/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// BenefitService is the lifecycle manager for benefit definitions and
// their code pools, plus the claim endpoints that drive the allocation
// engine.
type BenefitService struct {
	DB        *gorm.DB
	Guard     *AccessGuard
	Evaluator *EligibilityEvaluator
	Allocator *ClaimAllocator
}

func NewBenefitService(db *gorm.DB, guard *AccessGuard, evaluator *EligibilityEvaluator, allocator *ClaimAllocator) *BenefitService {
	return &BenefitService{DB: db, Guard: guard, Evaluator: evaluator, Allocator: allocator}
}

// CurrentUser pulls the authenticated user the middleware stored, nil for
// anonymous-allowed routes.
func CurrentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals("user").(*models.User)
	return user
}

// loadVisible fetches a benefit and applies the access guard. Hidden and
// absent benefits are indistinguishable: both are ErrNotFound.
func (s *BenefitService) loadVisible(c *fiber.Ctx, id string) (*models.Benefit, error) {
	var benefit models.Benefit
	if err := s.DB.First(&benefit, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}

	visible, err := s.Guard.ResolveVisibility(&benefit, CurrentUser(c))
	if err != nil {
		return nil, err
	}
	if !visible {
		return nil, models.ErrNotFound
	}
	return &benefit, nil
}

// --- Creation & mutation ---

// CreateBenefit creates a benefit definition, hashing the access secret
// for private ones and seeding the code pool for codepool ones. The pool
// insert happens in the same transaction as the benefit row, so a
// codepool benefit always exists with at least its initial pool.
func (s *BenefitService) CreateBenefit(c *fiber.Ctx) error {
	user := CurrentUser(c)

	var req struct {
		Title        string                   `json:"title"`
		Description  string                   `json:"description"`
		Content      string                   `json:"content"`
		Kind         models.BenefitKind       `json:"kind"`
		Visibility   models.BenefitVisibility `json:"visibility"`
		AccessSecret string                   `json:"access_secret"`
		Mode         models.QualificationMode `json:"mode"`

		MinTrustLevel int      `json:"min_trust_level"`
		MaxClaims     *int64   `json:"max_claims"`
		Codes         []string `json:"codes"`

		MinLikesGiven      *int `json:"min_likes_given"`
		MinLikesReceived   *int `json:"min_likes_received"`
		MinTopicsEntered   *int `json:"min_topics_entered"`
		MinPostsRead       *int `json:"min_posts_read"`
		MinDaysVisited     *int `json:"min_days_visited"`
		MinTopicsStarted   *int `json:"min_topics_started"`
		MinPostsWritten    *int `json:"min_posts_written"`
		MinTimeReadSeconds *int `json:"min_time_read_seconds"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if req.Kind == "" {
		req.Kind = models.BenefitKindContent
	}
	if req.Visibility == "" {
		req.Visibility = models.BenefitVisibilityPublic
	}
	if req.Mode == "" {
		req.Mode = models.ModeBasic
	}

	switch {
	case req.Title == "":
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Title is required"})
	case !req.Kind.Valid():
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Unknown benefit kind"})
	case !req.Visibility.Valid():
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Unknown visibility"})
	case !req.Mode.Valid():
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Unknown qualification mode"})
	case req.MinTrustLevel < models.MinTrustLevel || req.MinTrustLevel > models.MaxTrustLevel:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "min_trust_level must be between 0 and 5"})
	}

	if req.Kind == models.BenefitKindContent && req.Content == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Content is required for content benefits"})
	}
	if req.Kind == models.BenefitKindCodePool {
		if len(req.Codes) == 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "At least one code is required for codepool benefits"})
		}
		if req.MaxClaims != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "max_claims is implicit in the pool size for codepool benefits"})
		}
	}
	if req.MaxClaims != nil && *req.MaxClaims < 1 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "max_claims must be positive"})
	}
	if req.Visibility == models.BenefitVisibilityPrivate && req.AccessSecret == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Access secret is required for private benefits"})
	}

	benefit := models.Benefit{
		ID:            uuid.NewString(),
		Title:         req.Title,
		Slug:          slug.Make(req.Title),
		Description:   req.Description,
		Content:       req.Content,
		Kind:          req.Kind,
		Visibility:    req.Visibility,
		Mode:          req.Mode,
		MinTrustLevel: req.MinTrustLevel,
		MaxClaims:     req.MaxClaims,
		IsActive:      true,
		CreatorID:     user.ID,

		MinLikesGiven:      req.MinLikesGiven,
		MinLikesReceived:   req.MinLikesReceived,
		MinTopicsEntered:   req.MinTopicsEntered,
		MinPostsRead:       req.MinPostsRead,
		MinDaysVisited:     req.MinDaysVisited,
		MinTopicsStarted:   req.MinTopicsStarted,
		MinPostsWritten:    req.MinPostsWritten,
		MinTimeReadSeconds: req.MinTimeReadSeconds,
	}

	if req.Visibility == models.BenefitVisibilityPrivate {
		hash, err := utils.HashAccessSecret(req.AccessSecret)
		if err != nil {
			log.Printf("[BENEFIT] hashing access secret failed: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create benefit"})
		}
		benefit.AccessSecretHash = hash
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&benefit).Error; err != nil {
			return err
		}
		if benefit.Kind == models.BenefitKindCodePool {
			return insertCodes(tx, benefit.ID, req.Codes)
		}
		return nil
	})
	if err != nil {
		log.Printf("[BENEFIT] DB error creating benefit: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create benefit"})
	}

	return c.Status(fiber.StatusCreated).JSON(benefit)
}

func insertCodes(tx *gorm.DB, benefitID string, codes []string) error {
	units := make([]models.BenefitCode, 0, len(codes))
	for _, content := range codes {
		if content == "" {
			continue
		}
		units = append(units, models.BenefitCode{
			ID:        uuid.NewString(),
			BenefitID: benefitID,
			Content:   content,
		})
	}
	if len(units) == 0 {
		return errors.New("no usable codes supplied")
	}
	return tx.Create(&units).Error
}

// UpdateBenefit applies a sparse patch, creator-only. Mutability is
// enumerated per field: title, description and the active flag always;
// content and max_claims only for content benefits. Kind, visibility,
// mode, thresholds and the code pool never change after creation.
func (s *BenefitService) UpdateBenefit(c *fiber.Ctx) error {
	user := CurrentUser(c)

	benefit, err := s.loadVisible(c, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	if benefit.CreatorID != user.ID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Only the creator can update a benefit"})
	}

	var req struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
		Content     *string `json:"content"`
		IsActive    *bool   `json:"is_active"`
		MaxClaims   *int64  `json:"max_claims"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if req.Title != nil {
		if *req.Title == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Title cannot be empty"})
		}
		benefit.Title = *req.Title
		benefit.Slug = slug.Make(*req.Title)
	}
	if req.Description != nil {
		benefit.Description = *req.Description
	}
	if req.Content != nil {
		if benefit.Kind != models.BenefitKindContent {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Only content benefits carry editable content"})
		}
		benefit.Content = *req.Content
	}
	if req.MaxClaims != nil {
		if benefit.Kind != models.BenefitKindContent {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Codepool capacity is fixed by its pool"})
		}
		if *req.MaxClaims < benefit.TotalClaims {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "max_claims cannot drop below claims already made"})
		}
		benefit.MaxClaims = req.MaxClaims
	}
	if req.IsActive != nil {
		benefit.IsActive = *req.IsActive
	}

	if err := s.persistPatch(benefit); err != nil {
		log.Printf("[BENEFIT] DB error updating benefit %s: %v", benefit.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update benefit"})
	}
	return c.JSON(benefit)
}

// persistPatch writes only the mutable columns. total_claims belongs to
// the allocator's conditional update; writing the whole row could roll
// back a claim committed since the benefit was loaded.
func (s *BenefitService) persistPatch(benefit *models.Benefit) error {
	return s.DB.Model(benefit).
		Select("title", "slug", "description", "content", "max_claims", "is_active", "updated_at").
		Updates(benefit).Error
}

// AddCodes augments a codepool benefit's pool, creator-only.
func (s *BenefitService) AddCodes(c *fiber.Ctx) error {
	user := CurrentUser(c)

	benefit, err := s.loadVisible(c, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	if benefit.CreatorID != user.ID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Only the creator can add codes"})
	}
	if benefit.Kind != models.BenefitKindCodePool {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Only codepool benefits have codes"})
	}

	var req struct {
		Codes []string `json:"codes"`
	}
	if err := c.BodyParser(&req); err != nil || len(req.Codes) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "codes is required"})
	}

	if err := insertCodes(s.DB, benefit.ID, req.Codes); err != nil {
		log.Printf("[BENEFIT] DB error adding codes to %s: %v", benefit.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to add codes"})
	}
	return c.JSON(fiber.Map{"message": "Codes added", "added": len(req.Codes)})
}

// --- Reads ---

// ListActive returns active benefits visible to the caller, newest first.
func (s *BenefitService) ListActive(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "100"))
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	offset, _ := strconv.Atoi(c.Query("offset", "0"))
	if offset < 0 {
		offset = 0
	}

	var benefits []models.Benefit
	if err := s.DB.Where("is_active = ?", true).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&benefits).Error; err != nil {
		log.Printf("[BENEFIT] DB error listing benefits: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch benefits"})
	}

	caller := CurrentUser(c)
	visible := make([]models.Benefit, 0, len(benefits))
	for i := range benefits {
		ok, err := s.Guard.ResolveVisibility(&benefits[i], caller)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch benefits"})
		}
		if ok {
			visible = append(visible, benefits[i])
		}
	}
	return c.JSON(visible)
}

// ListMine returns the caller's own benefits, inactive ones included.
func (s *BenefitService) ListMine(c *fiber.Ctx) error {
	user := CurrentUser(c)

	var benefits []models.Benefit
	if err := s.DB.Where("creator_id = ?", user.ID).
		Order("created_at DESC").
		Find(&benefits).Error; err != nil {
		log.Printf("[BENEFIT] DB error listing own benefits: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch benefits"})
	}
	return c.JSON(benefits)
}

// GetBenefit returns one benefit, subject to the access guard.
func (s *BenefitService) GetBenefit(c *fiber.Ctx) error {
	benefit, err := s.loadVisible(c, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(benefit)
}

// CheckEligibility runs the evaluator without allocating anything.
func (s *BenefitService) CheckEligibility(c *fiber.Ctx) error {
	user := CurrentUser(c)

	benefit, err := s.loadVisible(c, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}

	verdict, err := s.Evaluator.Evaluate(c.UserContext(), user, benefit)
	if err != nil {
		log.Printf("[BENEFIT] eligibility evaluation failed for %s: %v", benefit.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to evaluate eligibility"})
	}
	return c.JSON(verdict)
}

// ClaimBenefit is the claim entry point: guard, private secret, verdict,
// then the allocation transaction.
func (s *BenefitService) ClaimBenefit(c *fiber.Ctx) error {
	user := CurrentUser(c)

	benefit, err := s.loadVisible(c, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}

	var req struct {
		AccessSecret string `json:"access_secret"`
	}
	// The body is optional for public benefits.
	_ = c.BodyParser(&req)

	if !s.Guard.VerifyPrivateAccess(benefit, req.AccessSecret) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Wrong access secret"})
	}

	result, verdict, err := s.Allocator.Claim(c.UserContext(), user, benefit)
	if err != nil {
		return respondError(c, err)
	}
	if result == nil {
		// Conflict denials use the same status and shape as the
		// allocator's transaction-abort path, so callers cannot tell which
		// layer refused.
		switch verdict.Reason {
		case models.MsgAlreadyClaimed:
			return respondError(c, models.ErrAlreadyClaimed)
		case models.MsgBenefitExhausted:
			return respondError(c, models.ErrBenefitExhausted)
		}
		status := fiber.StatusForbidden
		if verdict.Retryable {
			status = fiber.StatusServiceUnavailable
		}
		return c.Status(status).JSON(verdict)
	}

	return c.JSON(fiber.Map{
		"message": "Benefit claimed",
		"data":    result,
	})
}

// ListClaims returns a benefit's claim records, creator-only.
func (s *BenefitService) ListClaims(c *fiber.Ctx) error {
	user := CurrentUser(c)

	benefit, err := s.loadVisible(c, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	if benefit.CreatorID != user.ID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Only the creator can view claims"})
	}

	var claims []models.Claim
	if err := s.DB.Where("benefit_id = ?", benefit.ID).
		Order("claimed_at DESC").
		Find(&claims).Error; err != nil {
		log.Printf("[BENEFIT] DB error listing claims for %s: %v", benefit.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch claims"})
	}
	return c.JSON(claims)
}

// CreatorStats aggregates the caller's campaign numbers.
func (s *BenefitService) CreatorStats(c *fiber.Ctx) error {
	user := CurrentUser(c)

	var totalBenefits, totalCodes, availableCodes, blacklisted int64
	var totalClaims int64

	if err := s.DB.Model(&models.Benefit{}).
		Where("creator_id = ?", user.ID).
		Count(&totalBenefits).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to compute stats"})
	}
	if err := s.DB.Model(&models.Benefit{}).
		Where("creator_id = ?", user.ID).
		Select("COALESCE(SUM(total_claims), 0)").
		Scan(&totalClaims).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to compute stats"})
	}
	if err := s.DB.Model(&models.BenefitCode{}).
		Joins("JOIN benefits ON benefits.id = benefit_codes.benefit_id").
		Where("benefits.creator_id = ?", user.ID).
		Count(&totalCodes).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to compute stats"})
	}
	if err := s.DB.Model(&models.BenefitCode{}).
		Joins("JOIN benefits ON benefits.id = benefit_codes.benefit_id").
		Where("benefits.creator_id = ? AND benefit_codes.is_claimed = ?", user.ID, false).
		Count(&availableCodes).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to compute stats"})
	}
	if err := s.DB.Model(&models.PersonalBlacklistEntry{}).
		Where("creator_id = ?", user.ID).
		Count(&blacklisted).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to compute stats"})
	}

	return c.JSON(fiber.Map{
		"total_benefits":    totalBenefits,
		"total_claims":      totalClaims,
		"total_codes":       totalCodes,
		"available_codes":   availableCodes,
		"blacklisted_users": blacklisted,
	})
}

// respondError maps sentinel errors onto HTTP statuses; anything
// unexpected is a plain server error.
func respondError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": models.ErrNotFound.Error()})
	case errors.Is(err, models.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": models.ErrForbidden.Error()})
	case errors.Is(err, models.ErrAlreadyClaimed):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": models.ErrAlreadyClaimed.Error()})
	case errors.Is(err, models.ErrBenefitExhausted):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": models.ErrBenefitExhausted.Error()})
	case errors.Is(err, models.ErrUpstreamUnavailable):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": models.ErrUpstreamUnavailable.Error()})
	default:
		log.Printf("[HTTP] unexpected error: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
	}
}
