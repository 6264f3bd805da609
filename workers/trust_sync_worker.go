// workers/trust_sync_worker.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"benefit-distribution-system/models"

	"gorm.io/gorm"
)

// forumUserPayload matches the forum's public user endpoint.
type forumUserPayload struct {
	User struct {
		Username   string `json:"username"`
		TrustLevel int    `json:"trust_level"`
	} `json:"user"`
}

// TrustSyncWorker periodically refreshes trust levels for accounts that
// have not logged in for a while. Logins already refresh on their own;
// this keeps long-idle creators' levels from going stale, since their
// benefits stay claimable while they are away.
type TrustSyncWorker struct {
	db           *gorm.DB
	forumBaseURL string
	interval     time.Duration
	staleAfter   time.Duration
	batchSize    int
	httpClient   *http.Client
}

func NewTrustSyncWorker(db *gorm.DB, forumBaseURL string) *TrustSyncWorker {
	return &TrustSyncWorker{
		db:           db,
		forumBaseURL: forumBaseURL,
		interval:     1 * time.Hour,
		staleAfter:   24 * time.Hour,
		batchSize:    50,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (w *TrustSyncWorker) Start(ctx context.Context) {
	log.Println("[TRUST_SYNC] starting trust level sync worker")
	go w.run(ctx)
}

func (w *TrustSyncWorker) run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := w.syncBatch(ctx); err != nil {
				log.Printf("[TRUST_SYNC] batch failed: %v", err)
			}
		case <-ctx.Done():
			log.Println("[TRUST_SYNC] stopping")
			return
		}
	}
}

// syncBatch refreshes the stalest accounts first. Per-user fetch errors
// are logged and skipped; one unreachable profile must not stall the rest.
func (w *TrustSyncWorker) syncBatch(ctx context.Context) error {
	cutoff := time.Now().Add(-w.staleAfter)

	var users []models.User
	if err := w.db.Where("updated_at < ?", cutoff).
		Order("updated_at").
		Limit(w.batchSize).
		Find(&users).Error; err != nil {
		return fmt.Errorf("select stale users: %w", err)
	}
	if len(users) == 0 {
		return nil
	}

	updated := 0
	for i := range users {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		level, err := w.fetchTrustLevel(ctx, users[i].Username)
		if err != nil {
			log.Printf("[TRUST_SYNC] fetch failed for %s: %v", users[i].Username, err)
			// Touch updated_at anyway so one broken profile does not pin
			// the batch window.
			w.db.Model(&users[i]).Update("updated_at", time.Now())
			continue
		}

		updates := map[string]interface{}{"updated_at": time.Now()}
		if level != users[i].TrustLevel {
			updates["trust_level"] = level
			updated++
		}
		if err := w.db.Model(&users[i]).Updates(updates).Error; err != nil {
			log.Printf("[TRUST_SYNC] update failed for %s: %v", users[i].Username, err)
		}
	}

	if updated > 0 {
		log.Printf("[TRUST_SYNC] refreshed %d users, %d trust levels changed", len(users), updated)
	}
	return nil
}

func (w *TrustSyncWorker) fetchTrustLevel(ctx context.Context, username string) (int, error) {
	endpoint := fmt.Sprintf("%s/u/%s.json", w.forumBaseURL, url.PathEscape(username))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("profile endpoint returned %d", resp.StatusCode)
	}

	var payload forumUserPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return 0, err
	}
	return payload.User.TrustLevel, nil
}
