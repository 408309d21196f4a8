package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/isdelr/mediinsight-be/internal/mail"
	"github.com/rs/zerolog/log"
)

// ErrInvalidCode is returned when no live code matches.
var ErrInvalidCode = errors.New("invalid OTP")

// State is the position of an email address in the reset flow.
type State int

const (
	Idle State = iota
	AwaitingOTP
	Verified
)

func (s State) String() string {
	switch s {
	case AwaitingOTP:
		return "awaiting_otp"
	case Verified:
		return "verified"
	}
	return "idle"
}

const codeDigits = 6

// PasswordResetter updates the stored secret of the account registered under email.
type PasswordResetter interface {
	ResetPassword(ctx context.Context, email, newPassword string) error
}

// RequestOutcome reports what happened to a reset request. The request itself
// always succeeds; a delivery failure is only a warning.
type RequestOutcome struct {
	State       State
	Delivered   bool
	DeliveryErr error
}

// ResetService runs the Idle -> AwaitingOTP -> Verified -> Idle flow.
type ResetService struct {
	store  Store
	users  PasswordResetter
	mailer mail.Sender
	ttl    time.Duration
	now    func() time.Time
}

// NewResetService creates a ResetService. Codes expire after ttl.
func NewResetService(store Store, users PasswordResetter, mailer mail.Sender, ttl time.Duration) *ResetService {
	return &ResetService{store: store, users: users, mailer: mailer, ttl: ttl, now: time.Now}
}

// RequestReset binds a fresh code to email and mails it.
func (s *ResetService) RequestReset(ctx context.Context, email string) (RequestOutcome, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return RequestOutcome{}, fmt.Errorf("email is required")
	}
	code, err := generateCode()
	if err != nil {
		return RequestOutcome{}, fmt.Errorf("failed to generate code: %w", err)
	}
	s.store.Put(email, Entry{Code: code, ExpiresAt: s.now().Add(s.ttl)})

	outcome := RequestOutcome{State: AwaitingOTP, Delivered: true}
	body := fmt.Sprintf("Your OTP to reset MediInsight password is: %s\nIt expires in %s.", code, s.ttl)
	if err := s.mailer.Send(ctx, email, "MediInsight Password Reset", body); err != nil {
		log.Warn().Err(err).Str("email", email).Msg("Failed to deliver reset code")
		outcome.Delivered = false
		outcome.DeliveryErr = err
	}
	return outcome, nil
}

// Verify checks code against the live code for email. A match consumes the
// code before the password is replaced, so concurrent attempts with the same
// code succeed at most once. A mismatch leaves the password unchanged.
func (s *ResetService) Verify(ctx context.Context, email, code, newPassword string) (State, error) {
	if newPassword == "" {
		return s.State(email), fmt.Errorf("new password is required")
	}

	switch state := s.store.Take(email, strings.TrimSpace(code), s.now()); state {
	case Verified:
	case AwaitingOTP:
		return AwaitingOTP, ErrInvalidCode
	default:
		return Idle, ErrInvalidCode
	}

	if err := s.users.ResetPassword(ctx, strings.TrimSpace(email), newPassword); err != nil {
		// the code is spent; the caller has to request a new one
		return Idle, fmt.Errorf("failed to update password: %w", err)
	}
	return Verified, nil
}

// State returns where email currently is in the flow.
func (s *ResetService) State(email string) State {
	if _, ok := s.live(email); ok {
		return AwaitingOTP
	}
	return Idle
}

// Sweep evicts expired codes and returns how many were removed.
func (s *ResetService) Sweep() int {
	return s.store.DeleteExpired(s.now())
}

func (s *ResetService) live(email string) (Entry, bool) {
	entry, ok := s.store.Get(email)
	if !ok {
		return Entry{}, false
	}
	if !s.now().Before(entry.ExpiresAt) {
		s.store.Delete(email)
		return Entry{}, false
	}
	return entry, true
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", codeDigits, n.Int64()+100000), nil
}
