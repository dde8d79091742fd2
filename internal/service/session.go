package service

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/devAIAmiable/assubot-v2-sub001/internal/model"
)

var (
	// ErrSessionNotFound is returned for unknown or expired session IDs.
	ErrSessionNotFound = errors.New("session: not found")
	// ErrStaleGeneration is returned when a recompute finished after a newer
	// one already replaced the session's offers.
	ErrStaleGeneration = errors.New("session: stale generation")
)

// Session is one comparison session: the ranked offers of the latest run
// plus the append-only question ledger. The generation counter guards
// against a stale in-flight recompute overwriting a newer result set.
type Session struct {
	ID         string
	UserID     string
	Category   model.InsuranceCategory
	Criteria   model.ComparisonCriteria
	Offers     []model.Offer
	Questions  []model.AskedQuestion
	Generation uint64
	CreatedAt  time.Time
	LastActive time.Time
}

// SessionStore keeps comparison sessions in memory with TTL eviction. Each
// session's state is private to that session; the store only guards the map
// itself.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	done     chan struct{}
	stopOnce sync.Once
}

// NewSessionStore creates a store whose sessions expire after ttl of
// inactivity. A background sweep evicts expired sessions.
func NewSessionStore(ttl time.Duration) *SessionStore {
	s := &SessionStore{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		done:     make(chan struct{}),
	}
	go s.sweep()
	return s
}

func (s *SessionStore) sweep() {
	interval := s.ttl / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			cutoff := time.Now().Add(-s.ttl)
			s.mu.Lock()
			for id, sess := range s.sessions {
				if sess.LastActive.Before(cutoff) {
					delete(s.sessions, id)
				}
			}
			s.mu.Unlock()
		case <-s.done:
			return
		}
	}
}

// Close stops the eviction sweep.
func (s *SessionStore) Close() {
	s.stopOnce.Do(func() { close(s.done) })
}

// Create registers a new session and returns it.
func (s *SessionStore) Create(userID string, category model.InsuranceCategory, criteria model.ComparisonCriteria, offers []model.Offer) *Session {
	now := time.Now()
	sess := &Session{
		ID:         uuid.NewString(),
		UserID:     userID,
		Category:   category,
		Criteria:   criteria,
		Offers:     offers,
		Questions:  []model.AskedQuestion{},
		Generation: 1,
		CreatedAt:  now,
		LastActive: now,
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	return sess
}

// Get returns a snapshot of the session. The offer and question slices are
// copied so callers cannot mutate stored state.
func (s *SessionStore) Get(id string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	sess.LastActive = time.Now()
	return snapshot(sess), nil
}

// BeginRerun reserves the next generation for a session recompute and
// returns it. The matching ReplaceOffers call must carry this generation.
func (s *SessionStore) BeginRerun(id string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return 0, ErrSessionNotFound
	}
	sess.Generation++
	return sess.Generation, nil
}

// ReplaceOffers installs a recomputed result set and discards the question
// ledger (a resubmitted form starts a fresh results view). The write is
// rejected when a newer generation has already been reserved, so a slow
// stale recompute can never overwrite a newer one.
func (s *SessionStore) ReplaceOffers(id string, generation uint64, category model.InsuranceCategory, criteria model.ComparisonCriteria, offers []model.Offer) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	if generation != sess.Generation {
		return Session{}, ErrStaleGeneration
	}
	sess.Category = category
	sess.Criteria = criteria
	sess.Offers = offers
	sess.Questions = []model.AskedQuestion{}
	sess.LastActive = time.Now()
	return snapshot(sess), nil
}

// AppendQuestion appends one ledger entry and returns the updated snapshot.
// The ledger is append-only; existing entries are never rewritten.
func (s *SessionStore) AppendQuestion(id string, question model.AskedQuestion) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	sess.Questions = append(sess.Questions, question)
	sess.LastActive = time.Now()
	return snapshot(sess), nil
}

// Delete removes a session, if present.
func (s *SessionStore) Delete(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

func snapshot(sess *Session) Session {
	out := *sess
	out.Offers = make([]model.Offer, len(sess.Offers))
	for i, o := range sess.Offers {
		out.Offers[i] = o.Clone()
	}
	out.Questions = append([]model.AskedQuestion(nil), sess.Questions...)
	return out
}
