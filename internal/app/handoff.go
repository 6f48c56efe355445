package app

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"hotel_storefront/internal/domain"
)

type handoffEntry struct {
	h       domain.Handoff
	expires time.Time
}

// HandoffStore passes checkout state to the payment view. Entries stay in
// process memory and can be taken exactly once.
type HandoffStore struct {
	ttl time.Duration
	now func() time.Time

	mu    sync.Mutex
	items map[string]handoffEntry
}

func NewHandoffStore(ttl time.Duration) *HandoffStore {
	return &HandoffStore{ttl: ttl, now: time.Now, items: map[string]handoffEntry{}}
}

func (s *HandoffStore) Put(h domain.Handoff) string {
	token := uuid.NewString()
	s.mu.Lock()
	s.items[token] = handoffEntry{h: h, expires: s.now().Add(s.ttl)}
	s.mu.Unlock()
	return token
}

// Take removes and returns the entry for token.
func (s *HandoffStore) Take(token string) (domain.Handoff, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.items[token]
	if !ok {
		return domain.Handoff{}, false
	}
	delete(s.items, token)
	if s.now().After(e.expires) {
		return domain.Handoff{}, false
	}
	return e.h, true
}

func (s *HandoffStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	n := 0
	for k, e := range s.items {
		if now.After(e.expires) {
			delete(s.items, k)
			n++
		}
	}
	return n
}
