// services/blacklist_service.go
package services

import (
	"log"

	"benefit-distribution-system/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BlacklistService manages the personal (creator-scoped) and global
// (admin-issued) denial lists the access guard enforces.
type BlacklistService struct {
	DB *gorm.DB
}

func NewBlacklistService(db *gorm.DB) *BlacklistService {
	return &BlacklistService{DB: db}
}

// --- Personal blacklist (any creator) ---

// AddPersonal bars a username from the caller's own benefits.
func (s *BlacklistService) AddPersonal(c *fiber.Ctx) error {
	user := CurrentUser(c)

	var req struct {
		Username string `json:"username"`
		Reason   string `json:"reason"`
	}
	if err := c.BodyParser(&req); err != nil || req.Username == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "username is required"})
	}
	if req.Username == user.Username {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "You cannot blacklist yourself"})
	}

	var existing int64
	if err := s.DB.Model(&models.PersonalBlacklistEntry{}).
		Where("creator_id = ? AND blacklisted_username = ?", user.ID, req.Username).
		Count(&existing).Error; err != nil {
		log.Printf("[BLACKLIST] DB error checking personal entry: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to add blacklist entry"})
	}
	if existing > 0 {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "User is already on your blacklist"})
	}

	entry := models.PersonalBlacklistEntry{
		ID:                  uuid.NewString(),
		CreatorID:           user.ID,
		BlacklistedUsername: req.Username,
		Reason:              req.Reason,
	}
	if err := s.DB.Create(&entry).Error; err != nil {
		log.Printf("[BLACKLIST] DB error adding personal entry: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to add blacklist entry"})
	}
	return c.Status(fiber.StatusCreated).JSON(entry)
}

// ListPersonal returns the caller's blacklist.
func (s *BlacklistService) ListPersonal(c *fiber.Ctx) error {
	user := CurrentUser(c)

	var entries []models.PersonalBlacklistEntry
	if err := s.DB.Where("creator_id = ?", user.ID).
		Order("created_at DESC").
		Find(&entries).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch blacklist"})
	}
	return c.JSON(entries)
}

// RemovePersonal lifts a personal entry, creator-only.
func (s *BlacklistService) RemovePersonal(c *fiber.Ctx) error {
	user := CurrentUser(c)

	res := s.DB.Where("id = ? AND creator_id = ?", c.Params("id"), user.ID).
		Delete(&models.PersonalBlacklistEntry{})
	if res.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to remove entry"})
	}
	if res.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Entry not found"})
	}
	return c.JSON(fiber.Map{"message": "Entry removed"})
}

// --- Global blacklist (admins only; route guard checks trust level) ---

// AddGlobal bars a username platform-wide and flips the user flag so the
// cheap check catches them without a table lookup.
func (s *BlacklistService) AddGlobal(c *fiber.Ctx) error {
	admin := CurrentUser(c)

	var req struct {
		Username string `json:"username"`
		Reason   string `json:"reason"`
	}
	if err := c.BodyParser(&req); err != nil || req.Username == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "username is required"})
	}

	var existing int64
	if err := s.DB.Model(&models.GlobalBlacklistEntry{}).
		Where("blacklisted_username = ?", req.Username).
		Count(&existing).Error; err != nil {
		log.Printf("[BLACKLIST] DB error checking global entry: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to add blacklist entry"})
	}
	if existing > 0 {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "User is already globally blacklisted"})
	}

	entry := models.GlobalBlacklistEntry{
		ID:                  uuid.NewString(),
		BlacklistedUsername: req.Username,
		Reason:              req.Reason,
		AdminID:             admin.ID,
	}
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).
			Where("username = ?", req.Username).
			Update("is_globally_blacklisted", true).Error
	})
	if err != nil {
		log.Printf("[BLACKLIST] DB error adding global entry: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to add blacklist entry"})
	}
	return c.Status(fiber.StatusCreated).JSON(entry)
}

// ListGlobal returns the platform-wide blacklist.
func (s *BlacklistService) ListGlobal(c *fiber.Ctx) error {
	var entries []models.GlobalBlacklistEntry
	if err := s.DB.Order("created_at DESC").Find(&entries).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch blacklist"})
	}
	return c.JSON(entries)
}

// RemoveGlobal lifts a global entry and clears the user flag.
func (s *BlacklistService) RemoveGlobal(c *fiber.Ctx) error {
	var entry models.GlobalBlacklistEntry
	if err := s.DB.First(&entry, "id = ?", c.Params("id")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Entry not found"})
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&entry).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).
			Where("username = ?", entry.BlacklistedUsername).
			Update("is_globally_blacklisted", false).Error
	})
	if err != nil {
		log.Printf("[BLACKLIST] DB error removing global entry: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to remove entry"})
	}
	return c.JSON(fiber.Map{"message": "Entry removed"})
}
