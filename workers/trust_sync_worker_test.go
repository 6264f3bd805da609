package workers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"benefit-distribution-system/models"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupWorkerDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.AutoMigrate(&models.User{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

var forumIDSeq int64

func staleUser(t *testing.T, db *gorm.DB, username string, trustLevel int, updatedAt time.Time) *models.User {
	t.Helper()
	forumIDSeq++
	user := &models.User{
		ID:         uuid.NewString(),
		ForumID:    forumIDSeq,
		Username:   username,
		TrustLevel: trustLevel,
		IsActive:   true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	// Backdate past the refresh hooks.
	if err := db.Model(user).UpdateColumn("updated_at", updatedAt).Error; err != nil {
		t.Fatalf("backdate user: %v", err)
	}
	return user
}

func TestSyncBatchRefreshesStaleUsers(t *testing.T) {
	db := setupWorkerDB(t)

	levels := map[string]int{"promoted": 4, "steady": 2}
	mux := http.NewServeMux()
	mux.HandleFunc("/u/", func(w http.ResponseWriter, r *http.Request) {
		username := r.URL.Path[len("/u/") : len(r.URL.Path)-len(".json")]
		level, ok := levels[username]
		if !ok {
			http.NotFound(w, r)
			return
		}
		var payload forumUserPayload
		payload.User.Username = username
		payload.User.TrustLevel = level
		json.NewEncoder(w).Encode(payload)
	})
	forum := httptest.NewServer(mux)
	defer forum.Close()

	twoDaysAgo := time.Now().Add(-48 * time.Hour)
	promoted := staleUser(t, db, "promoted", 2, twoDaysAgo)
	steady := staleUser(t, db, "steady", 2, twoDaysAgo)
	broken := staleUser(t, db, "vanished", 3, twoDaysAgo)
	fresh := staleUser(t, db, "fresh", 1, time.Now())

	worker := NewTrustSyncWorker(db, forum.URL)
	if err := worker.syncBatch(context.Background()); err != nil {
		t.Fatalf("syncBatch: %v", err)
	}

	reload := func(id string) models.User {
		var u models.User
		if err := db.First(&u, "id = ?", id).Error; err != nil {
			t.Fatalf("reload %s: %v", id, err)
		}
		return u
	}

	if got := reload(promoted.ID); got.TrustLevel != 4 {
		t.Errorf("promoted trust_level = %d, want 4", got.TrustLevel)
	}
	if got := reload(steady.ID); got.TrustLevel != 2 {
		t.Errorf("steady trust_level = %d, want 2", got.TrustLevel)
	}

	// A broken profile keeps its level but leaves the stale window.
	got := reload(broken.ID)
	if got.TrustLevel != 3 {
		t.Errorf("vanished trust_level = %d, want unchanged 3", got.TrustLevel)
	}
	if !got.UpdatedAt.After(twoDaysAgo.Add(time.Hour)) {
		t.Error("vanished user should be touched so it does not pin the batch")
	}

	// Recently refreshed accounts are skipped entirely.
	if got := reload(fresh.ID); got.TrustLevel != 1 {
		t.Errorf("fresh trust_level = %d, want untouched 1", got.TrustLevel)
	}
}

func TestSyncBatchEmptyWindow(t *testing.T) {
	db := setupWorkerDB(t)
	staleUser(t, db, "current", 2, time.Now())

	worker := NewTrustSyncWorker(db, "http://127.0.0.1:0")
	if err := worker.syncBatch(context.Background()); err != nil {
		t.Fatalf("syncBatch with no stale users: %v", err)
	}
}
