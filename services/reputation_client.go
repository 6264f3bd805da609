// services/reputation_client.go
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"

	"benefit-distribution-system/models"
	"benefit-distribution-system/utils"
)

// ActivitySummary carries a user's forum activity counters as reported by
// the public summary endpoint. Field tags follow the forum's payload.
type ActivitySummary struct {
	LikesGiven      int `json:"likes_given"`
	LikesReceived   int `json:"likes_received"`
	TopicsEntered   int `json:"topics_entered"`
	PostsRead       int `json:"posts_read_count"`
	DaysVisited     int `json:"days_visited"`
	TopicsStarted   int `json:"topic_count"`
	PostsWritten    int `json:"post_count"`
	TimeReadSeconds int `json:"time_read"`

	RecentTimeReadSeconds int `json:"recent_time_read"`
	BookmarkCount         int `json:"bookmark_count"`
}

// Metric returns the counter for an advanced-mode requirement metric.
func (s *ActivitySummary) Metric(name string) int {
	switch name {
	case "likesGiven":
		return s.LikesGiven
	case "likesReceived":
		return s.LikesReceived
	case "topicsEntered":
		return s.TopicsEntered
	case "postsRead":
		return s.PostsRead
	case "daysVisited":
		return s.DaysVisited
	case "topicsStarted":
		return s.TopicsStarted
	case "postsWritten":
		return s.PostsWritten
	case "timeReadSeconds":
		return s.TimeReadSeconds
	}
	return 0
}

// ReputationProvider is what the eligibility evaluator needs from the
// forum: current activity counters for a username.
type ReputationProvider interface {
	FetchSummary(ctx context.Context, username string) (*ActivitySummary, error)
}

// ReputationClient fetches activity summaries from the forum's public API.
// Pure I/O boundary; it makes no eligibility decisions.
type ReputationClient struct {
	BaseURL string // e.g. "https://linux.do"
	Client  *http.Client
}

func NewReputationClient(baseURL string) *ReputationClient {
	return &ReputationClient{
		BaseURL: baseURL,
		Client:  utils.HTTPClient,
	}
}

// FetchSummary retrieves the user_summary block for a username. Every
// failure mode (network, status, decode, missing block) collapses into
// ErrUpstreamUnavailable: the caller treats it as transient and retryable.
func (c *ReputationClient) FetchSummary(ctx context.Context, username string) (*ActivitySummary, error) {
	endpoint := fmt.Sprintf("%s/u/%s/summary.json", c.BaseURL, url.PathEscape(username))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, models.ErrUpstreamUnavailable
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		log.Printf("[REPUTATION] summary fetch failed for %s: %v", username, err)
		return nil, models.ErrUpstreamUnavailable
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		log.Printf("[REPUTATION] summary for %s returned %d", username, resp.StatusCode)
		return nil, models.ErrUpstreamUnavailable
	}

	var payload struct {
		UserSummary *ActivitySummary `json:"user_summary"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || payload.UserSummary == nil {
		log.Printf("[REPUTATION] unexpected summary payload for %s", username)
		return nil, models.ErrUpstreamUnavailable
	}

	return payload.UserSummary, nil
}
