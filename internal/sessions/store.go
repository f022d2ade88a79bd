package sessions

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shopfloor/measure-backend/internal/platform/logger"
)

const (
	StatusPendingCalibration = "pending_calibration"
	StatusCalibrated         = "calibrated"

	DefaultTTL = time.Hour
)

// Session is a short-lived calibration workflow token. It lives only in
// process memory; the durable user entry is written when the session
// completes.
type Session struct {
	SessionID           string    `json:"session_id"`
	RollNumber          string    `json:"roll_number"`
	Name                string    `json:"name"`
	CreatedAt           time.Time `json:"created_at"`
	Status              string    `json:"status"`
	CalibrationRequired bool      `json:"calibration_required"`
}

// Store holds active calibration sessions behind a mutex. Each server owns
// exactly one instance; tests construct their own.
type Store struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]*Session
	log      *logger.Logger
}

func NewStore(ttl time.Duration, baseLog *logger.Logger) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		ttl:      ttl,
		sessions: make(map[string]*Session),
		log:      baseLog.With("component", "SessionStore"),
	}
}

// Create registers a new pending session. Sessions are never de-duplicated:
// the same roll number may hold several concurrently. Expired sessions are
// swept on the way in.
func (s *Store) Create(rollNumber, name string, calibrationRequired bool) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweepLocked()

	session := &Session{
		SessionID:           uuid.NewString(),
		RollNumber:          rollNumber,
		Name:                name,
		CreatedAt:           time.Now(),
		Status:              StatusPendingCalibration,
		CalibrationRequired: calibrationRequired,
	}
	s.sessions[session.SessionID] = session
	return session
}

// Get returns a copy of the session, or nil for unknown or swept ids.
func (s *Store) Get(sessionID string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return nil
	}
	copied := *session
	return &copied
}

// Complete transitions a session to calibrated. Completing an already
// calibrated session leaves it untouched and still reports true; callers
// distinguish the idempotent case by checking status beforehand.
func (s *Store) Complete(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return false
	}
	session.Status = StatusCalibrated
	return true
}

// SweepExpired drops every session older than the TTL regardless of status
// and reports how many were removed.
func (s *Store) SweepExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweepLocked()
}

func (s *Store) sweepLocked() int {
	cutoff := time.Now().Add(-s.ttl)
	removed := 0
	for id, session := range s.sessions {
		if session.CreatedAt.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		s.log.Debug("Swept expired sessions", "removed", removed)
	}
	return removed
}
