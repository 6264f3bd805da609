// services/login_state.go
package services

import (
	"log"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
)

// LoginStateStore holds pending OAuth handshake states. Each state is
// single-use and expires after the TTL; the sweeper evicts whatever was
// never redeemed. Owned explicitly by the auth flow instead of living in a
// package-level map so a second instance gets its own, clearly-scoped set.
type LoginStateStore struct {
	mu     sync.Mutex
	states map[string]loginState
	ttl    time.Duration

	scheduler gocron.Scheduler
}

type loginState struct {
	redirectURL string
	expiresAt   time.Time
}

func NewLoginStateStore(ttl time.Duration) *LoginStateStore {
	return &LoginStateStore{
		states: make(map[string]loginState),
		ttl:    ttl,
	}
}

// Issue registers a new handshake and returns its state token.
func (s *LoginStateStore) Issue(redirectURL string) string {
	state := uuid.NewString()
	s.mu.Lock()
	s.states[state] = loginState{
		redirectURL: redirectURL,
		expiresAt:   time.Now().Add(s.ttl),
	}
	s.mu.Unlock()
	return state
}

// Take redeems a state token exactly once. Expired or unknown tokens fail.
func (s *LoginStateStore) Take(state string) (redirectURL string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, found := s.states[state]
	if !found {
		return "", false
	}
	delete(s.states, state)
	if time.Now().After(entry.expiresAt) {
		return "", false
	}
	return entry.redirectURL, true
}

// Sweep drops expired entries and reports how many were evicted.
func (s *LoginStateStore) Sweep() int {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for state, entry := range s.states {
		if now.After(entry.expiresAt) {
			delete(s.states, state)
			evicted++
		}
	}
	return evicted
}

// StartSweeper schedules periodic eviction of abandoned handshakes.
func (s *LoginStateStore) StartSweeper(interval time.Duration) {
	sched, _ := gocron.NewScheduler()
	sched.Start()
	s.scheduler = sched

	_, _ = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			if n := s.Sweep(); n > 0 {
				log.Printf("[LOGIN_STATE] evicted %d expired handshake states", n)
			}
		}),
	)
}

// StopSweeper shuts the eviction job down.
func (s *LoginStateStore) StopSweeper() {
	if s.scheduler != nil {
		_ = s.scheduler.Shutdown()
	}
}
