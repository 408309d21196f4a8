package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/mediinsight-be/internal/database"
	"github.com/isdelr/mediinsight-be/internal/models"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

// UserServiceProvider defines the interface for user services.
type UserServiceProvider interface {
	CreateUser(ctx context.Context, username, email, password string) (models.User, error)
	AuthenticateUser(ctx context.Context, username, password string) (models.User, error)
	GetUserByUsername(ctx context.Context, username string) (models.User, error)
	ResetPassword(ctx context.Context, email, newPassword string) error
	ListUsers(ctx context.Context) ([]models.User, error)
	CountUsers(ctx context.Context) (int, error)
}

// UserService is the credential store.
type UserService struct {
	db   *sql.DB
	cost int
	now  func() time.Time

	// compared against when the username is unknown, so both failure paths pay for a bcrypt check
	dummyHash []byte
}

// NewUserService creates a new UserService.
func NewUserService(db *sql.DB) *UserService {
	return newUserService(db, bcrypt.DefaultCost)
}

func newUserService(db *sql.DB, cost int) *UserService {
	dummy, _ := bcrypt.GenerateFromPassword([]byte("mediinsight"), cost)
	return &UserService{db: db, cost: cost, now: time.Now, dummyHash: dummy}
}

const userColumns = "id, username, email, password_hash, is_admin, created_at"

// GetUserByUsername retrieves a single user by username, including the password hash.
func (s *UserService) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE username = ?", username)
	return scanUser(row)
}

// GetUserByEmail retrieves a single user by email, including the password hash.
func (s *UserService) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE email = ?", normalizeEmail(email))
	return scanUser(row)
}

// CreateUser registers a new user, hashing their password. Username and
// email must both be unused.
func (s *UserService) CreateUser(ctx context.Context, username, email, password string) (models.User, error) {
	return s.createUser(ctx, username, email, password, false)
}

func (s *UserService) createUser(ctx context.Context, username, email, password string, isAdmin bool) (models.User, error) {
	username = strings.TrimSpace(username)
	email = normalizeEmail(email)
	if username == "" || email == "" || password == "" {
		return models.User{}, fmt.Errorf("username, email and password are required")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hashedPassword),
		IsAdmin:      isAdmin,
		CreatedAt:    s.now().UTC(),
	}

	err = database.WithTx(ctx, s.db, func(tx database.DBTX) error {
		var n int
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE username = ?", username).Scan(&n); err != nil {
			return storageErr("check username", err)
		}
		if n > 0 {
			return ErrDuplicateUsername
		}
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE email = ?", email).Scan(&n); err != nil {
			return storageErr("check email", err)
		}
		if n > 0 {
			return ErrDuplicateEmail
		}

		_, err := tx.ExecContext(ctx,
			"INSERT INTO users("+userColumns+") VALUES(?, ?, ?, ?, ?, ?)",
			user.ID, user.Username, user.Email, user.PasswordHash, user.IsAdmin, database.FormatTime(user.CreatedAt))
		if err != nil {
			return uniqueViolation(err)
		}
		return nil
	})
	if err != nil {
		return models.User{}, err
	}

	// Return user without password hash
	user.PasswordHash = ""
	return user, nil
}

// AuthenticateUser verifies a user's credentials. Unknown users and wrong
// passwords both yield ErrInvalidCredentials; only the log tells them apart.
func (s *UserService) AuthenticateUser(ctx context.Context, username, password string) (models.User, error) {
	user, err := s.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
			log.Debug().Str("username", username).Msg("authentication failed: user not found")
			return models.User{}, ErrInvalidCredentials
		}
		return models.User{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		log.Debug().Str("username", username).Msg("authentication failed: invalid password")
		return models.User{}, ErrInvalidCredentials
	}

	// Don't send the password hash to the client
	user.PasswordHash = ""
	return user, nil
}

// ResetPassword replaces the password of the user registered under email.
func (s *UserService) ResetPassword(ctx context.Context, email, newPassword string) error {
	if newPassword == "" {
		return fmt.Errorf("new password is required")
	}
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.cost)
	if err != nil {
		return fmt.Errorf("failed to hash new password: %w", err)
	}

	res, err := s.db.ExecContext(ctx, "UPDATE users SET password_hash = ? WHERE email = ?", string(hashedPassword), normalizeEmail(email))
	if err != nil {
		return storageErr("update password", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storageErr("update password", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// EnsureAdmin seeds one admin account when none exists. It reports whether an
// account was created. The credentials are a setup-time default meant to be
// rotated after first login.
func (s *UserService) EnsureAdmin(ctx context.Context, username, email, password string) (bool, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE is_admin = TRUE").Scan(&n); err != nil {
		return false, storageErr("count admins", err)
	}
	if n > 0 {
		return false, nil
	}
	if _, err := s.createUser(ctx, username, email, password, true); err != nil {
		return false, fmt.Errorf("failed to seed admin account: %w", err)
	}
	return true, nil
}

// ListUsers returns every account ordered by username, without password hashes.
func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY username")
	if err != nil {
		return nil, storageErr("list users", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = ""
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list users", err)
	}
	return users, nil
}

// CountUsers returns the number of registered accounts.
func (s *UserService) CountUsers(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&n); err != nil {
		return 0, storageErr("count users", err)
	}
	return n, nil
}

// normalizeEmail is the stored form of an address; lookups compare against it.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func scanUser(scanner interface{ Scan(...any) error }) (models.User, error) {
	var (
		user      models.User
		createdAt string
	)
	err := scanner.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.IsAdmin, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, storageErr("scan user", err)
	}
	if user.CreatedAt, err = database.ParseTime(createdAt); err != nil {
		return models.User{}, storageErr("parse user time", err)
	}
	return user, nil
}

// uniqueViolation maps a UNIQUE constraint failure that slipped past the
// pre-insert checks (a concurrent writer in the other process) to the
// matching duplicate error.
func uniqueViolation(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "users.username"):
		return ErrDuplicateUsername
	case strings.Contains(msg, "users.email"):
		return ErrDuplicateEmail
	}
	return storageErr("insert user", err)
}
