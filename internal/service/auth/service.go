package auth

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"
	"unicode"

	"pharmacy-store/internal/domain"
	"pharmacy-store/internal/logging"
	mailer "pharmacy-store/internal/mail"
	tokenrepo "pharmacy-store/internal/repository/token"
	userrepo "pharmacy-store/internal/repository/user"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Options tunes token lifetimes and the links placed in emails.
type Options struct {
	BaseURL        string
	AccessTTL      time.Duration
	VerifyTTL      time.Duration
	ResetTTL       time.Duration
	PasswordMinLen int
}

func (o Options) withDefaults() Options {
	if o.AccessTTL <= 0 {
		o.AccessTTL = 48 * time.Hour
	}
	if o.VerifyTTL <= 0 {
		o.VerifyTTL = 24 * time.Hour
	}
	if o.ResetTTL <= 0 {
		o.ResetTTL = time.Hour
	}
	if o.PasswordMinLen <= 0 {
		o.PasswordMinLen = 8
	}
	return o
}

// Service handles sign-up, email verification, password reset and
// session tokens.
type Service struct {
	users  userrepo.Repository
	tokens *tokenManager
	mail   mailer.Sender
	opts   Options
	logger *zap.Logger
	now    func() time.Time
}

func New(users userrepo.Repository, tokens tokenrepo.Repository, sender mailer.Sender, opts Options, logger *zap.Logger) *Service {
	s := &Service{
		users:  users,
		mail:   sender,
		opts:   opts.withDefaults(),
		logger: logging.OrNop(logger),
		now:    time.Now,
	}
	s.tokens = newTokenManager(tokens, func() time.Time { return s.now() })
	return s
}

type SignupInput struct {
	Email    string
	Password string
	FullName string
	Phone    string
}

// Session is the result of a successful login.
type Session struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// Signup creates an unverified user and mails the verification link.
// The user row is only committed once the mail was handed to the relay.
func (s *Service) Signup(ctx context.Context, in SignupInput) (*domain.User, error) {
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	password := strings.TrimSpace(in.Password)
	if err := validatePassword(password, s.opts.PasswordMinLen); err != nil {
		return nil, err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	verify, err := randomToken()
	if err != nil {
		return nil, err
	}

	u := domain.User{
		Email:        email,
		PasswordHash: string(hashed),
		FullName:     strings.TrimSpace(in.FullName),
		Phone:        strings.TrimSpace(in.Phone),
		Role:         domain.RoleUser,
	}
	vt := tokenrepo.Token{Token: verify, Kind: tokenrepo.KindVerifyEmail, ExpiresAt: s.now().Add(s.opts.VerifyTTL)}
	created, err := s.users.Register(ctx, u, vt, func(created *domain.User) error {
		return s.mail.Send(ctx, mailer.VerifyEmail(s.opts.BaseURL, created.Email, created.FullName, verify))
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("auth: user registered", zap.String("user_id", created.ID))
	return created, nil
}

func (s *Service) VerifyEmail(ctx context.Context, token string) (*domain.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, domain.ErrInvalidToken
	}
	return s.users.ConsumeVerification(ctx, token, s.now())
}

// RequestPasswordReset mails a reset link. Unknown addresses succeed
// silently.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	u, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}
	tok, err := randomToken()
	if err != nil {
		return err
	}
	reset := tokenrepo.Token{Token: tok, UserID: u.ID, Kind: tokenrepo.KindResetPassword, ExpiresAt: s.now().Add(s.opts.ResetTTL)}
	return s.users.ReplaceResetToken(ctx, reset, func() error {
		return s.mail.Send(ctx, mailer.PasswordReset(s.opts.BaseURL, u.Email, u.FullName, tok))
	})
}

func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.ErrInvalidToken
	}
	password := strings.TrimSpace(newPassword)
	if err := validatePassword(password, s.opts.PasswordMinLen); err != nil {
		return err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.users.ResetPassword(ctx, token, string(hashed), s.now())
}

// Login validates credentials and issues an access token.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	password = strings.TrimSpace(password)
	u, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	if !u.EmailVerified {
		return nil, domain.ErrEmailNotVerified
	}
	token, expiresAt, err := s.tokens.Issue(ctx, u.ID, s.opts.AccessTTL)
	if err != nil {
		return nil, err
	}
	return &Session{User: u, Token: token, ExpiresAt: expiresAt}, nil
}

func (s *Service) Logout(ctx context.Context, token string) error {
	return s.tokens.Revoke(ctx, token)
}

// LookupByToken returns the user bound to a valid access token.
func (s *Service) LookupByToken(ctx context.Context, token string) (*domain.User, error) {
	userID, ok := s.tokens.Validate(ctx, token)
	if !ok {
		return nil, domain.ErrInvalidToken
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidToken
		}
		return nil, err
	}
	return u, nil
}

func (s *Service) Me(ctx context.Context, userID string) (*domain.User, error) {
	return s.users.GetByID(ctx, userID)
}

// PurgeExpiredTokens deletes access, verification and reset tokens past
// their expiry.
func (s *Service) PurgeExpiredTokens(ctx context.Context) (int64, error) {
	n, err := s.tokens.Purge(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("expired tokens purged", zap.Int64("count", n))
	}
	return n, nil
}

// AccessTTLSeconds exposes the access token lifetime in seconds.
func (s *Service) AccessTTLSeconds() int {
	return int(s.opts.AccessTTL.Seconds())
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", domain.Invalidf("email", "required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", domain.Invalidf("email", "invalid address")
	}
	return email, nil
}

func validatePassword(p string, min int) error {
	trimmed := strings.TrimSpace(p)
	if len([]rune(trimmed)) < min {
		return domain.Invalidf("password", "must be at least %d characters", min)
	}
	var hasUpper, hasLower, hasDigit bool
	for _, r := range trimmed {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasUpper || !hasLower || !hasDigit {
		return domain.Invalidf("password", "must contain at least 1 uppercase letter, 1 lowercase letter, and 1 number")
	}
	return nil
}
