package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/KrizTahimic/CSSECDV-Case-Study-OnlineEnrollmentSystem-sub000/internal/domain"
	"github.com/KrizTahimic/CSSECDV-Case-Study-OnlineEnrollmentSystem-sub000/internal/observability"
	"github.com/KrizTahimic/CSSECDV-Case-Study-OnlineEnrollmentSystem-sub000/internal/repository"
	"github.com/KrizTahimic/CSSECDV-Case-Study-OnlineEnrollmentSystem-sub000/internal/security"
)

// AuthService orchestrates the credential store, token service, lockout
// counter, and re-authentication gate. Emails are kept case-sensitive as
// registered.
type AuthService struct {
	users        repository.UserRepository
	tokens       *security.JWTManager
	lockout      LockoutCounter
	reauth       ReauthStore
	events       *observability.SecurityEventLogger
	historyLimit int
	minAge       time.Duration
	now          func() time.Time
}

func NewAuthService(
	users repository.UserRepository,
	tokens *security.JWTManager,
	lockout LockoutCounter,
	reauth ReauthStore,
	events *observability.SecurityEventLogger,
	historyLimit int,
	minAge time.Duration,
) *AuthService {
	if historyLimit <= 0 {
		historyLimit = 5
	}
	return &AuthService{
		users:        users,
		tokens:       tokens,
		lockout:      lockout,
		reauth:       reauth,
		events:       events,
		historyLimit: historyLimit,
		minAge:       minAge,
		now:          time.Now,
	}
}

type RegisterInput struct {
	Email            string
	Password         string
	FirstName        string
	LastName         string
	Role             string
	SecurityQuestion string
	SecurityAnswer   string
}

type LoginInput struct {
	Email    string
	Password string
	IP       string
}

// LoginResult is what a successful login or registration returns. The
// last-login fields describe the *previous* login and are absent the first
// time an account signs in.
type LoginResult struct {
	Token       string
	ExpiresAt   time.Time
	Email       string
	FirstName   string
	LastName    string
	Role        string
	LastLoginAt *time.Time
	LastLoginIP string
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*LoginResult, error) {
	in.Email = strings.TrimSpace(in.Email)
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return nil, fmt.Errorf("invalid email")
	}
	if strings.TrimSpace(in.FirstName) == "" || strings.TrimSpace(in.LastName) == "" {
		return nil, fmt.Errorf("first and last name are required")
	}
	if !domain.ValidRole(in.Role) {
		return nil, ErrInvalidRole
	}
	if in.SecurityQuestion != "" {
		if !security.ValidSecurityQuestion(in.SecurityQuestion) {
			return nil, ErrInvalidSecurityQuestion
		}
		if in.SecurityAnswer == "" {
			return nil, fmt.Errorf("security answer is required")
		}
	}
	if err := security.ValidatePasswordComplexity(in.Password); err != nil {
		return nil, err
	}

	if _, err := s.users.FindByEmail(in.Email); err == nil {
		return nil, ErrUserExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := security.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	user := &domain.User{
		Email:             in.Email,
		FirstName:         strings.TrimSpace(in.FirstName),
		LastName:          strings.TrimSpace(in.LastName),
		Role:              in.Role,
		PasswordHash:      hash,
		PasswordHistory:   domain.PasswordHistory{hash},
		PasswordChangedAt: s.now().UTC(),
		SecurityQuestion:  in.SecurityQuestion,
	}
	if in.SecurityAnswer != "" {
		answerHash, err := security.HashPassword(in.SecurityAnswer)
		if err != nil {
			return nil, err
		}
		user.SecurityAnswerHash = answerHash
	}
	if err := s.users.Create(user); err != nil {
		return nil, err
	}

	token, err := s.tokens.IssueToken(user.Email, user.Role)
	if err != nil {
		return nil, err
	}
	return &LoginResult{
		Token:     token,
		ExpiresAt: s.now().Add(s.tokens.TTL()),
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Role:      user.Role,
	}, nil
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	locked, err := s.lockout.IsLocked(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if locked {
		s.events.AuthFailure(ctx, in.Email, in.IP, "account_locked")
		observability.RecordLogin(ctx, "locked")
		return nil, ErrAccountLocked
	}

	user, err := s.users.FindByEmail(in.Email)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		// Unknown user and wrong password both count against the lockout
		// window and surface the same generic error.
		if recErr := s.lockout.RecordFailedAttempt(ctx, in.Email); recErr != nil {
			return nil, recErr
		}
		s.events.AuthFailure(ctx, in.Email, in.IP, "user_not_found")
		observability.RecordLogin(ctx, "failure")
		return nil, ErrInvalidCredentials
	}

	ok, err := security.VerifyPassword(user.PasswordHash, in.Password)
	if err != nil {
		return nil, err
	}
	if !ok {
		if recErr := s.lockout.RecordFailedAttempt(ctx, in.Email); recErr != nil {
			return nil, recErr
		}
		s.events.AuthFailure(ctx, in.Email, in.IP, "invalid_password")
		observability.RecordLogin(ctx, "failure")
		if attempts := s.lockout.FailedAttempts(ctx, in.Email); attempts >= s.lockout.Threshold() {
			s.events.AccountLockout(ctx, in.Email, attempts)
			observability.RecordLockout(ctx)
		}
		return nil, ErrInvalidCredentials
	}

	s.lockout.ResetFailedAttempts(ctx, in.Email)

	previousAt := user.LastLoginAt
	previousIP := user.LastLoginIP
	now := s.now().UTC()
	user.PreviousLoginAt = previousAt
	user.PreviousLoginIP = previousIP
	user.LastLoginAt = &now
	if in.IP != "" {
		user.LastLoginIP = in.IP
	} else {
		user.LastLoginIP = "unknown"
	}
	if err := s.users.Update(user); err != nil {
		return nil, err
	}

	token, err := s.tokens.IssueToken(user.Email, user.Role)
	if err != nil {
		return nil, err
	}
	s.events.AuthSuccess(ctx, user.Email, in.IP)
	observability.RecordLogin(ctx, "success")

	return &LoginResult{
		Token:       token,
		ExpiresAt:   now.Add(s.tokens.TTL()),
		Email:       user.Email,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		Role:        user.Role,
		LastLoginAt: previousAt,
		LastLoginIP: previousIP,
	}, nil
}

// Reauthenticate re-verifies the password for a live session and grants a
// single-use marker for the presented token. It deliberately bypasses the
// lockout counter: the caller already holds a valid token.
func (s *AuthService) Reauthenticate(ctx context.Context, token, email, password string) error {
	user, err := s.users.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.events.ReauthFailure(ctx, email)
			observability.RecordReauth(ctx, "failure")
			return ErrInvalidCredentials
		}
		return err
	}
	ok, err := security.VerifyPassword(user.PasswordHash, password)
	if err != nil {
		return err
	}
	if !ok {
		s.events.ReauthFailure(ctx, email)
		observability.RecordReauth(ctx, "failure")
		return ErrInvalidCredentials
	}
	if err := s.reauth.Grant(ctx, token); err != nil {
		return err
	}
	s.events.ReauthSuccess(ctx, email)
	observability.RecordReauth(ctx, "success")
	return nil
}

// ChangePassword consumes the caller's re-auth marker, then applies the
// password policy in order: current-password check, complexity, minimum age,
// history.
func (s *AuthService) ChangePassword(ctx context.Context, token, email, currentPassword, newPassword string) error {
	if err := s.reauth.Consume(ctx, token); err != nil {
		if errors.Is(err, ErrReauthRequired) {
			s.events.PasswordChangeFailure(ctx, email, "reauth_required")
			observability.RecordPasswordChange(ctx, "failure")
		}
		return err
	}

	user, err := s.users.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidCredentials
		}
		return err
	}

	ok, err := security.VerifyPassword(user.PasswordHash, currentPassword)
	if err != nil {
		return err
	}
	if !ok {
		s.events.PasswordChangeFailure(ctx, email, "invalid_current_password")
		observability.RecordPasswordChange(ctx, "failure")
		return ErrInvalidCredentials
	}

	if err := security.ValidatePasswordComplexity(newPassword); err != nil {
		s.events.PasswordChangeFailure(ctx, email, "weak_password")
		observability.RecordPasswordChange(ctx, "failure")
		return err
	}

	if !user.PasswordChangedAt.IsZero() && s.now().UTC().Sub(user.PasswordChangedAt) < s.minAge {
		s.events.PasswordChangeFailure(ctx, email, "password_too_new")
		observability.RecordPasswordChange(ctx, "failure")
		return ErrPasswordTooNew
	}

	// Reuse is checked by re-deriving against each historical hash's own
	// salt; encoded-string equality would always miss.
	for _, oldHash := range user.PasswordHistory {
		reused, err := security.VerifyPassword(oldHash, newPassword)
		if err != nil {
			return err
		}
		if reused {
			s.events.PasswordChangeFailure(ctx, email, "password_reused")
			observability.RecordPasswordChange(ctx, "failure")
			return ErrPasswordReused
		}
	}

	newHash, err := security.HashPassword(newPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = newHash
	user.PasswordHistory = user.PasswordHistory.Append(newHash, s.historyLimit)
	user.PasswordChangedAt = s.now().UTC()
	if err := s.users.Update(user); err != nil {
		return err
	}

	s.events.PasswordChange(ctx, email)
	observability.RecordPasswordChange(ctx, "success")
	return nil
}

func (s *AuthService) UserByID(id string) (*domain.User, error) {
	user, err := s.users.FindByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	return user, err
}

func (s *AuthService) UserByEmail(email string) (*domain.User, error) {
	user, err := s.users.FindByEmail(email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	return user, err
}

func (s *AuthService) Users(role string) ([]domain.User, error) {
	if role != "" {
		return s.users.FindByRole(role)
	}
	return s.users.List()
}
