// Package services contains server-side business logic. This file implements
// AuthService, which handles signup, account activation, login and the
// issuing and rotation of tokens.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/cryptox"
	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/auth"
	"github.com/dmitrijs2005/authkeeper/internal/server/config"
	"github.com/dmitrijs2005/authkeeper/internal/server/mailer"
	"github.com/dmitrijs2005/authkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/repomanager"
)

const (
	opSignup   = "signup"
	opLogin    = "login"
	opActivate = "activate"
	opRefresh  = "refresh"
	opMe       = "me"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// SignupResult carries the id the store assigned to a new user.
type SignupResult struct {
	UserID string
}

// AuthService provides authentication-related operations:
//   - Signup: create unconfirmed users and issue activation tokens
//   - Activate: confirm a user with an activation token
//   - Login: verify credentials and mint an access/refresh pair
//   - Refresh: consume a refresh token and mint a new pair
//   - Me: read the caller's account
//
// Settings are copied out of config.Config at construction; nothing in the
// service is mutated afterwards, so one instance serves concurrent requests.
type AuthService struct {
	repos   repomanager.RepositoryManager
	hasher  cryptox.PasswordHasher
	signer  auth.Signer
	mailer  mailer.Mailer
	metrics *metrics.Recorder
	logger  logging.Logger
	now     func() time.Time

	secret        []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	activationTTL time.Duration
}

// Option customises an AuthService built by NewAuthService.
type Option func(*AuthService)

// WithSigner replaces the default HS256 JWT signer.
func WithSigner(s auth.Signer) Option { return func(a *AuthService) { a.signer = s } }

// WithMailer sets where activation tokens are delivered.
func WithMailer(m mailer.Mailer) Option { return func(a *AuthService) { a.mailer = m } }

// WithMetrics counts every operation's outcome on r.
func WithMetrics(r *metrics.Recorder) Option { return func(a *AuthService) { a.metrics = r } }

// WithClock sets the time source used for issuing and expiring tokens.
func WithClock(now func() time.Time) Option { return func(a *AuthService) { a.now = now } }

// WithLogger sets the service logger, tagged with module=auth.
func WithLogger(l logging.Logger) Option {
	return func(a *AuthService) { a.logger = l.With("module", "auth") }
}

// NewAuthService constructs an AuthService over the given repositories and
// hasher. Without options it signs HS256 JWTs, mails nothing and logs nowhere.
func NewAuthService(m repomanager.RepositoryManager, hasher cryptox.PasswordHasher, cfg config.Config, opts ...Option) *AuthService {
	s := &AuthService{
		repos:         m,
		hasher:        hasher,
		signer:        auth.JWTSigner{},
		logger:        logging.Discard(),
		now:           time.Now,
		secret:        []byte(cfg.SecretKey),
		accessTTL:     cfg.AccessTokenTTL,
		refreshTTL:    cfg.RefreshTokenTTL,
		activationTTL: cfg.ActivationTokenTTL,
	}
	for _, o := range opts {
		o(s)
	}
	if s.mailer == nil {
		s.mailer = mailer.NewLogMailer(s.logger)
	}
	return s
}

// Signup validates the input, stores a new unconfirmed user with a hashed
// password and issues an activation token for it.
//
// If the activation token cannot be signed or stored the user stays in place,
// unconfirmed, and the error is returned.
func (s *AuthService) Signup(ctx context.Context, username, email, password string) (res *SignupResult, err error) {
	defer func() { s.metrics.Observe(opSignup, err) }()

	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if err := validateSignup(username, email, password); err != nil {
		return nil, err
	}

	digest, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	users := s.repos.Users()
	if _, err := users.Create(ctx, &models.User{
		UserName:     username,
		Email:        email,
		PasswordHash: digest,
		Role:         models.RoleNormal,
	}); err != nil {
		return nil, fmt.Errorf("error creating user: %w", storageError(err))
	}

	user, err := users.GetUserByLogin(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("error re-reading user: %v: %w", err, common.ErrorStorageFailure)
	}

	now := s.now()
	token, err := s.signer.Sign(s.secret, user.ID, models.TokenKindActivation, s.activationTTL, now)
	if err != nil {
		s.logger.Error(ctx, "activation token not signed", "user_id", user.ID, "error", err)
		return nil, fmt.Errorf("error signing activation token: %w", err)
	}

	if err := s.repos.Tokens().Create(ctx, models.NewToken(user.ID, token, models.TokenKindActivation, now, s.activationTTL)); err != nil {
		s.logger.Error(ctx, "activation token not stored", "user_id", user.ID, "error", err)
		return nil, fmt.Errorf("error storing activation token: %v: %w", err, common.ErrorStorageFailure)
	}

	if err := s.mailer.SendActivation(ctx, user.Email, user.UserName, token); err != nil {
		s.logger.Warn(ctx, "activation mail failed", "user_id", user.ID, "error", err)
	}

	s.logger.Info(ctx, "user signed up", "user_id", user.ID, "username", user.UserName)
	return &SignupResult{UserID: user.ID}, nil
}

// Activate confirms the user an activation token was issued for. Unknown
// tokens and tokens of another kind yield common.ErrorNotFound, expired ones
// common.ErrTokenExpired. Activating an already confirmed user succeeds.
func (s *AuthService) Activate(ctx context.Context, token string) (err error) {
	defer func() { s.metrics.Observe(opActivate, err) }()

	if token == "" {
		return fmt.Errorf("empty activation token: %w", common.ErrorNotFound)
	}

	rec, err := s.repos.Tokens().FindByToken(ctx, token)
	if err != nil {
		return fmt.Errorf("error searching activation token: %w", storageError(err))
	}
	if rec.Kind != models.TokenKindActivation {
		return fmt.Errorf("token is not an activation token: %w", common.ErrorNotFound)
	}
	if rec.Expired(s.now()) {
		return common.ErrTokenExpired
	}

	if err := s.repos.Users().SetConfirmed(ctx, rec.UserID); err != nil {
		return fmt.Errorf("error confirming user: %w", storageError(err))
	}

	s.logger.Info(ctx, "user activated", "user_id", rec.UserID)
	return nil
}

// Login verifies the password of username and, on success, returns a new
// TokenPair. Unknown users and wrong passwords both yield
// common.ErrorUnauthorized.
func (s *AuthService) Login(ctx context.Context, username, password string) (pair *TokenPair, err error) {
	defer func() { s.metrics.Observe(opLogin, err) }()

	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, fmt.Errorf("missing credentials: %w", common.ErrorUnauthorized)
	}

	user, err := s.repos.Users().GetUserByLogin(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("unknown user %q: %w", username, common.ErrorUnauthorized)
		}
		return nil, fmt.Errorf("error searching user: %w", storageError(err))
	}

	ok, err := s.checkPassword(password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("error verifying password: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("incorrect password for %q: %w", username, common.ErrorUnauthorized)
	}

	now := s.now()
	pair, err = s.signTokenPair(user.ID, now)
	if err != nil {
		return nil, err
	}

	if err := s.repos.WithTx(ctx, func(ctx context.Context, repos repomanager.Repositories) error {
		return s.storeTokenPair(ctx, repos, user.ID, pair, now)
	}); err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "user logged in", "user_id", user.ID)
	return pair, nil
}

// Refresh consumes a refresh token and returns a new TokenPair. Each refresh
// token works once: it is deleted in the same transaction that stores its
// successors, and of two concurrent calls only one gets through.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (pair *TokenPair, err error) {
	defer func() { s.metrics.Observe(opRefresh, err) }()

	if refreshToken == "" {
		return nil, fmt.Errorf("empty refresh token: %w", common.ErrorNotFound)
	}

	rec, err := s.repos.Tokens().FindByToken(ctx, refreshToken)
	if err != nil {
		return nil, fmt.Errorf("error searching refresh token: %w", storageError(err))
	}
	if rec.Kind != models.TokenKindRefresh {
		return nil, fmt.Errorf("token is not a refresh token: %w", common.ErrorNotFound)
	}
	now := s.now()
	if rec.Expired(now) {
		return nil, common.ErrTokenExpired
	}

	next, err := s.signTokenPair(rec.UserID, now)
	if err != nil {
		return nil, err
	}

	if err := s.repos.WithTx(ctx, func(ctx context.Context, repos repomanager.Repositories) error {
		if err := repos.Tokens().Delete(ctx, refreshToken); err != nil {
			return fmt.Errorf("error deleting refresh token: %w", storageError(err))
		}
		return s.storeTokenPair(ctx, repos, rec.UserID, next, now)
	}); err != nil {
		return nil, err
	}

	return next, nil
}

// Me returns the account of userID without its password digest.
func (s *AuthService) Me(ctx context.Context, userID string) (user *models.User, err error) {
	defer func() { s.metrics.Observe(opMe, err) }()

	user, err = s.repos.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error searching user: %w", storageError(err))
	}
	user.PasswordHash = ""
	return user, nil
}

// --- helpers below ---

func (s *AuthService) checkPassword(password, digest string) (bool, error) {
	ok, err := s.hasher.Verify(password, digest)
	if err != nil && errors.Is(err, common.ErrorCryptoFailure) {
		// digest written by the other algorithm
		return cryptox.VerifyAny(password, digest)
	}
	return ok, err
}

// signTokenPair signs an access and a refresh token for userID. It runs
// before any transaction is opened.
func (s *AuthService) signTokenPair(userID string, now time.Time) (*TokenPair, error) {
	access, err := s.signer.Sign(s.secret, userID, models.TokenKindAccess, s.accessTTL, now)
	if err != nil {
		return nil, fmt.Errorf("error signing access token: %w", err)
	}
	refresh, err := s.signer.Sign(s.secret, userID, models.TokenKindRefresh, s.refreshTTL, now)
	if err != nil {
		return nil, fmt.Errorf("error signing refresh token: %w", err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// storeTokenPair writes the records of pair through repos. Any storage
// failure is reported as common.ErrorStorageFailure.
func (s *AuthService) storeTokenPair(ctx context.Context, repos repomanager.Repositories, userID string, pair *TokenPair, now time.Time) error {
	tokens := repos.Tokens()
	if err := tokens.Create(ctx, models.NewToken(userID, pair.AccessToken, models.TokenKindAccess, now, s.accessTTL)); err != nil {
		return fmt.Errorf("error storing access token: %v: %w", err, common.ErrorStorageFailure)
	}
	if err := tokens.Create(ctx, models.NewToken(userID, pair.RefreshToken, models.TokenKindRefresh, now, s.refreshTTL)); err != nil {
		return fmt.Errorf("error storing refresh token: %v: %w", err, common.ErrorStorageFailure)
	}
	return nil
}

// storageError keeps errors that already carry a kind the callers act on and
// files everything else under common.ErrorStorageFailure.
func storageError(err error) error {
	switch {
	case errors.Is(err, common.ErrorNotFound),
		errors.Is(err, common.ErrorConflict),
		errors.Is(err, common.ErrorStorageFailure):
		return err
	default:
		return fmt.Errorf("%v: %w", err, common.ErrorStorageFailure)
	}
}

func validateSignup(username, email, password string) error {
	if username == "" {
		return fmt.Errorf("username is required: %w", common.ErrorValidation)
	}
	if password == "" {
		return fmt.Errorf("password is required: %w", common.ErrorValidation)
	}
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" || domain == "" || strings.Contains(domain, "@") {
		return fmt.Errorf("malformed email: %w", common.ErrorValidation)
	}
	return nil
}
