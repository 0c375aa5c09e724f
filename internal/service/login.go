package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"sendit/messenger/internal/model"
	"sendit/messenger/internal/pkg/apperr"
	"sendit/messenger/internal/pkg/notify"
	"sendit/messenger/internal/repository"
)

// ChallengeLifetime is how long an issued OTP challenge can be verified.
const ChallengeLifetime = 3 * time.Minute

type LoginState string

const (
	StateTokenIssued     LoginState = "TokenIssued"
	StateChallengeIssued LoginState = "ChallengeIssued"
)

// LoginResult carries a token when State is StateTokenIssued, and the email
// the code was sent to when State is StateChallengeIssued.
type LoginResult struct {
	State LoginState
	Auth  *AuthResult
	Email string
}

// CodeGenerator creates TOTP secrets and derives and checks their codes.
type CodeGenerator interface {
	NewSecret(account string) (string, error)
	Code(secret string, t time.Time) (string, error)
	Validate(code, secret string, t time.Time) bool
}

type LoginConfig struct {
	NotifyTimeout time.Duration
	MaxAttempts   int
}

type loginService struct {
	identity   IdentityService
	accounts   repository.AccountRepository
	challenges repository.ChallengeRepository
	gateway    notify.Gateway
	codes      CodeGenerator
	tokens     TokenGenerator
	cfg        LoginConfig
	logger     *slog.Logger
	now        func() time.Time
}

func NewLoginService(
	identity IdentityService,
	accounts repository.AccountRepository,
	challenges repository.ChallengeRepository,
	gateway notify.Gateway,
	codes CodeGenerator,
	tokens TokenGenerator,
	cfg LoginConfig,
	logger *slog.Logger,
) LoginService {
	if cfg.NotifyTimeout <= 0 {
		cfg.NotifyTimeout = 10 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	return &loginService{
		identity:   identity,
		accounts:   accounts,
		challenges: challenges,
		gateway:    gateway,
		codes:      codes,
		tokens:     tokens,
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
	}
}

func (s *loginService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	account, err := s.identity.VerifyCredential(ctx, input.Email, input.Password)
	if err != nil {
		loginsTotal.WithLabelValues("rejected").Inc()
		return nil, err
	}

	if !account.TwoFactorEnabled {
		auth, err := issueToken(s.tokens, account)
		if err != nil {
			return nil, err
		}
		loginsTotal.WithLabelValues("token_issued").Inc()
		return &LoginResult{State: StateTokenIssued, Auth: auth}, nil
	}

	if err := s.issueChallenge(ctx, account); err != nil {
		loginsTotal.WithLabelValues("challenge_failed").Inc()
		return nil, err
	}

	loginsTotal.WithLabelValues("challenge_issued").Inc()
	return &LoginResult{State: StateChallengeIssued, Email: account.Email}, nil
}

// issueChallenge delivers a fresh code and then stores its challenge,
// replacing any earlier challenge for the same email.
func (s *loginService) issueChallenge(ctx context.Context, account *model.Account) error {
	secret, err := s.codes.NewSecret(account.Email)
	if err != nil {
		return apperr.Internal("failed to generate otp secret", err)
	}

	issuedAt := s.now()
	code, err := s.codes.Code(secret, issuedAt)
	if err != nil {
		return apperr.Internal("failed to generate otp", err)
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.cfg.NotifyTimeout)
	defer cancel()

	if err := s.gateway.SendCode(sendCtx, account.Email, code); err != nil {
		s.logger.ErrorContext(ctx, "failed to deliver otp", "user_id", account.ID, "error", err)
		return apperr.Wrap(apperr.CodeNotificationFailure, "Failed to send OTP", err)
	}

	challenge := &model.Challenge{
		Secret:    secret,
		Email:     account.Email,
		IssuedAt:  issuedAt,
		ExpiresAt: issuedAt.Add(ChallengeLifetime),
	}
	if err := s.challenges.Save(ctx, challenge); err != nil {
		return apperr.Internal("failed to store otp challenge", err)
	}

	return nil
}

func (s *loginService) VerifyOTP(ctx context.Context, input VerifyOTPInput) (*AuthResult, error) {
	email := strings.TrimSpace(input.Email)
	code := strings.TrimSpace(input.Code)
	if email == "" || code == "" {
		return nil, apperr.New(apperr.CodeMissingInput, "Email and OTP are required")
	}

	result, outcome, err := s.verify(ctx, email, code)
	otpVerificationsTotal.WithLabelValues(outcome).Inc()
	return result, err
}

func (s *loginService) verify(ctx context.Context, email, code string) (*AuthResult, string, error) {
	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		return nil, "unknown_account", lookupError(err, "User")
	}

	challenge, err := s.challenges.Get(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "no_challenge", apperr.New(apperr.CodeChallengeNotFound, "OTP not found")
		}
		return nil, "error", apperr.Internal("failed to load otp challenge", err)
	}

	now := s.now()
	if challenge.Expired(now) {
		if err := s.challenges.Delete(ctx, email); err != nil {
			s.logger.WarnContext(ctx, "failed to delete expired otp challenge", "error", err)
		}
		return nil, "expired", apperr.New(apperr.CodeChallengeNotFound, "OTP expired")
	}

	if !s.codes.Validate(code, challenge.Secret, now) {
		attempts, discarded, err := s.challenges.RecordFailure(ctx, email, s.cfg.MaxAttempts)
		if err != nil {
			s.logger.WarnContext(ctx, "failed to record otp failure", "error", err)
		} else if discarded {
			s.logger.WarnContext(ctx, "otp challenge discarded after repeated failures",
				"user_id", account.ID, "attempts", attempts)
		}
		return nil, "mismatch", apperr.New(apperr.CodeOTPMismatch, "Invalid OTP")
	}

	consumed, err := s.challenges.Consume(ctx, challenge)
	if err != nil {
		return nil, "error", apperr.Internal("failed to consume otp challenge", err)
	}
	if !consumed {
		return nil, "no_challenge", apperr.New(apperr.CodeChallengeNotFound, "OTP not found")
	}

	auth, err := issueToken(s.tokens, account)
	if err != nil {
		return nil, "error", err
	}
	return auth, "accepted", nil
}
