package services

import (
	"context"
	"testing"

	"benefit-distribution-system/models"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}

	// A single connection keeps every session on the same in-memory
	// database.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap test db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.AutoMigrate(
		&models.User{},
		&models.Benefit{},
		&models.BenefitCode{},
		&models.Claim{},
		&models.PersonalBlacklistEntry{},
		&models.GlobalBlacklistEntry{},
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

var testForumID int64

func createUser(t *testing.T, db *gorm.DB, username string, trustLevel int) *models.User {
	t.Helper()
	testForumID++
	user := &models.User{
		ID:         uuid.NewString(),
		ForumID:    testForumID,
		Username:   username,
		TrustLevel: trustLevel,
		IsActive:   true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return user
}

func createContentBenefit(t *testing.T, db *gorm.DB, creator *models.User, maxClaims *int64) *models.Benefit {
	t.Helper()
	benefit := &models.Benefit{
		ID:         uuid.NewString(),
		Title:      "Welcome pack",
		Content:    "enjoy the goodies",
		Kind:       models.BenefitKindContent,
		Visibility: models.BenefitVisibilityPublic,
		Mode:       models.ModeBasic,
		IsActive:   true,
		MaxClaims:  maxClaims,
		CreatorID:  creator.ID,
	}
	if err := db.Create(benefit).Error; err != nil {
		t.Fatalf("create content benefit: %v", err)
	}
	return benefit
}

func createPoolBenefit(t *testing.T, db *gorm.DB, creator *models.User, codes []string) *models.Benefit {
	t.Helper()
	benefit := &models.Benefit{
		ID:         uuid.NewString(),
		Title:      "Game keys",
		Kind:       models.BenefitKindCodePool,
		Visibility: models.BenefitVisibilityPublic,
		Mode:       models.ModeBasic,
		IsActive:   true,
		CreatorID:  creator.ID,
	}
	if err := db.Create(benefit).Error; err != nil {
		t.Fatalf("create pool benefit: %v", err)
	}
	for _, code := range codes {
		unit := &models.BenefitCode{
			ID:        uuid.NewString(),
			BenefitID: benefit.ID,
			Content:   code,
		}
		if err := db.Create(unit).Error; err != nil {
			t.Fatalf("create code %s: %v", code, err)
		}
	}
	return benefit
}

// fakeReputation is a function-field fake for the reputation gateway.
type fakeReputation struct {
	fetchFn func(ctx context.Context, username string) (*ActivitySummary, error)
}

func (f *fakeReputation) FetchSummary(ctx context.Context, username string) (*ActivitySummary, error) {
	if f.fetchFn != nil {
		return f.fetchFn(ctx, username)
	}
	return &ActivitySummary{}, nil
}

func intPtr(v int) *int       { return &v }
func int64Ptr(v int64) *int64 { return &v }
