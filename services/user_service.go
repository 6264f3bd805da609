// services/user_service.go
package services

import (
	"errors"
	"log"
	"strconv"

	"benefit-distribution-system/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserService owns local accounts: creation on first login, refresh on
// every login, the advanced-mode consent flag, and the user read
// endpoints.
type UserService struct {
	DB *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{DB: db}
}

func (s *UserService) GetByID(id string) (*models.User, error) {
	var user models.User
	if err := s.DB.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// UpsertFromProfile creates the local account on first login and
// refreshes trust level, name and status flags on every later one. Local
// state (blacklist flag, consent) is never touched by the refresh.
func (s *UserService) UpsertFromProfile(profile *ForumProfile, forumBaseURL string) (*models.User, error) {
	var user models.User
	err := s.DB.First(&user, "forum_id = ?", profile.ID).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		user = models.User{
			ID:         uuid.NewString(),
			ForumID:    profile.ID,
			Username:   profile.Username,
			Name:       profile.Name,
			TrustLevel: profile.TrustLevel,
			IsActive:   profile.Active,
			IsSilenced: profile.Silenced,
			AvatarURL:  profile.AvatarURL(forumBaseURL),
		}
		if err := s.DB.Create(&user).Error; err != nil {
			return nil, err
		}
		log.Printf("[USER] created account for forum user %s (%d)", profile.Username, profile.ID)
		return &user, nil

	case err != nil:
		return nil, err
	}

	user.Username = profile.Username
	user.Name = profile.Name
	user.TrustLevel = profile.TrustLevel
	user.IsActive = profile.Active
	user.IsSilenced = profile.Silenced
	if avatar := profile.AvatarURL(forumBaseURL); avatar != "" {
		user.AvatarURL = avatar
	}
	if err := s.DB.Save(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// AgreeAdvancedMode records the caller's consent to advanced-mode data
// sharing.
func (s *UserService) AgreeAdvancedMode(c *fiber.Ctx) error {
	user := CurrentUser(c)

	if err := s.DB.Model(user).Update("advanced_mode_agreed", true).Error; err != nil {
		log.Printf("[USER] DB error recording consent for %s: %v", user.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to record agreement"})
	}
	return c.JSON(fiber.Map{
		"message": "Advanced mode agreement recorded",
		"data":    fiber.Map{"advanced_mode_agreed": true},
	})
}

// Me returns the caller's own account.
func (s *UserService) Me(c *fiber.Ctx) error {
	return c.JSON(CurrentUser(c))
}

// MyClaims lists the caller's claim records, newest first.
func (s *UserService) MyClaims(c *fiber.Ctx) error {
	user := CurrentUser(c)

	limit, _ := strconv.Atoi(c.Query("limit", "100"))
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	offset, _ := strconv.Atoi(c.Query("offset", "0"))
	if offset < 0 {
		offset = 0
	}

	var claims []models.Claim
	if err := s.DB.Where("user_id = ?", user.ID).
		Order("claimed_at DESC").
		Limit(limit).Offset(offset).
		Find(&claims).Error; err != nil {
		log.Printf("[USER] DB error listing claims for %s: %v", user.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch claims"})
	}
	return c.JSON(claims)
}

// GetUser returns another user's public account data.
func (s *UserService) GetUser(c *fiber.Ctx) error {
	user, err := s.GetByID(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	if user == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}
	return c.JSON(user)
}
