// Package otp implements the password reset flow with single-use numeric codes.
package otp

import (
	"crypto/subtle"
	"strings"
	"sync"
	"time"
)

// MaxAttempts is how many wrong guesses a code survives.
const MaxAttempts = 5

// Entry is a code bound to an email address.
type Entry struct {
	Code      string
	ExpiresAt time.Time
	Failures  int
}

// Store keeps at most one live code per email address.
type Store interface {
	Put(email string, e Entry)
	Get(email string) (Entry, bool)
	Delete(email string)
	DeleteExpired(now time.Time) int

	// Take atomically consumes the live code of email if it equals code and
	// reports the resulting state: Verified on a match, AwaitingOTP after a
	// wrong guess, Idle when no live code remains.
	Take(email, code string, now time.Time) State
}

// MemoryStore is a process-local Store. Codes do not survive a restart and
// are not shared between processes.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]Entry
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]Entry)}
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Put binds e to email, replacing any earlier code.
func (s *MemoryStore) Put(email string, e Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[normalize(email)] = e
}

// Get returns the code bound to email.
func (s *MemoryStore) Get(email string) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[normalize(email)]
	return e, ok
}

// Delete invalidates the code bound to email.
func (s *MemoryStore) Delete(email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, normalize(email))
}

// Take compares and consumes under one lock, so a code verifies at most once.
// The code is discarded after MaxAttempts wrong guesses.
func (s *MemoryStore) Take(email, code string, now time.Time) State {
	key := normalize(email)
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return Idle
	}
	if !now.Before(e.ExpiresAt) {
		delete(s.entries, key)
		return Idle
	}
	if subtle.ConstantTimeCompare([]byte(e.Code), []byte(code)) == 1 {
		delete(s.entries, key)
		return Verified
	}
	e.Failures++
	if e.Failures >= MaxAttempts {
		delete(s.entries, key)
		return Idle
	}
	s.entries[key] = e
	return AwaitingOTP
}

// DeleteExpired evicts every code that expired before now and returns how many were removed.
func (s *MemoryStore) DeleteExpired(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for email, e := range s.entries {
		if !now.Before(e.ExpiresAt) {
			delete(s.entries, email)
			n++
		}
	}
	return n
}

// Len returns the number of stored codes.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
