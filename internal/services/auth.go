package services

//go:generate mockgen -source=auth.go -destination=auth_mock.go -package=services

import (
	"context"
	"errors"
	"strconv"

	"github.com/sbilibin2017/gw-user-auth/internal/jwt"
	"github.com/sbilibin2017/gw-user-auth/internal/logger"
	"github.com/sbilibin2017/gw-user-auth/internal/models"
	"github.com/sbilibin2017/gw-user-auth/internal/repositories"
)

// Error variables
var (
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")
)

// UserReader defines read-only operations for users.
// Lookups return (nil, nil) when the user does not exist.
type UserReader interface {
	GetByEmailOrUsername(ctx context.Context, email, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

// UserWriter defines write operations for users.
type UserWriter interface {
	Save(ctx context.Context, email, username, passwordHash string) (*models.User, error)
}

// PasswordHasher hashes and verifies passwords.
// Verify with an empty digest never matches but costs as much as a real comparison.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, digest string) bool
}

// TokenIssuer mints and verifies bearer tokens.
type TokenIssuer interface {
	Generate(ctx context.Context, userID int64) (string, error)
	GetSubject(ctx context.Context, tokenString string) (string, error)
}

// AuthService handles registration, login and token authentication.
type AuthService struct {
	reader UserReader
	writer UserWriter
	hasher PasswordHasher
	tokens TokenIssuer
}

// NewAuthService creates a new AuthService instance.
func NewAuthService(reader UserReader, writer UserWriter, hasher PasswordHasher, tokens TokenIssuer) *AuthService {
	return &AuthService{
		reader: reader,
		writer: writer,
		hasher: hasher,
		tokens: tokens,
	}
}

// Register creates a new user and returns a token for it.
func (svc *AuthService) Register(ctx context.Context, email, username, password string) (*models.AuthResult, error) {
	if err := ValidateRegister(email, username, password); err != nil {
		logger.Log.Infow("registration rejected", "err", err)
		return nil, err
	}
	email = NormalizeEmail(email)

	existing, err := svc.reader.GetByEmailOrUsername(ctx, email, username)
	if err != nil {
		logger.Log.Errorw("failed to check user exists", "err", err)
		return nil, err
	}
	if existing != nil {
		logger.Log.Debugw("user already exists", "username", username, "email", email)
		return nil, ErrUserAlreadyExists
	}

	hash, err := svc.hasher.Hash(password)
	if err != nil {
		logger.Log.Errorw("failed to hash password", "err", err)
		return nil, err
	}

	user, err := svc.writer.Save(ctx, email, username, hash)
	if errors.Is(err, repositories.ErrUserConflict) {
		// Lost a race with a concurrent registration
		logger.Log.Debugw("user already exists", "username", username, "email", email)
		return nil, ErrUserAlreadyExists
	}
	if err != nil {
		logger.Log.Errorw("failed to save user", "err", err)
		return nil, err
	}

	token, err := svc.tokens.Generate(ctx, user.ID)
	if err != nil {
		logger.Log.Errorw("failed to generate JWT", "err", err)
		return nil, err
	}

	logger.Log.Infow("user registered", "user_id", user.ID)
	return &models.AuthResult{Token: token, Username: user.Username}, nil
}

// Login authenticates a user by email and password and returns a token.
// Unknown email and wrong password yield the same error.
func (svc *AuthService) Login(ctx context.Context, email, password string) (*models.AuthResult, error) {
	if err := ValidateLogin(email); err != nil {
		logger.Log.Infow("login rejected", "err", err)
		return nil, err
	}
	email = NormalizeEmail(email)

	user, err := svc.reader.GetByEmail(ctx, email)
	if err != nil {
		logger.Log.Errorw("failed to get user", "err", err)
		return nil, err
	}

	// Unknown emails still pay for a bcrypt comparison so both failures take as long
	var digest string
	if user != nil {
		digest = user.PasswordHash
	}
	if !svc.hasher.Verify(password, digest) || user == nil {
		logger.Log.Debugw("invalid credentials", "email", email)
		return nil, ErrInvalidCredentials
	}

	token, err := svc.tokens.Generate(ctx, user.ID)
	if err != nil {
		logger.Log.Errorw("failed to generate JWT", "err", err)
		return nil, err
	}

	logger.Log.Infow("user logged in", "user_id", user.ID)
	return &models.AuthResult{Token: token, Username: user.Username}, nil
}

// Authenticate resolves an Authorization header value to the user it was issued for.
// Header, token and unknown-user failures all yield ErrUnauthorized.
// Store errors are returned as is.
func (svc *AuthService) Authenticate(ctx context.Context, authHeader string) (*models.User, error) {
	tokenString, err := jwt.ParseBearer(authHeader)
	if err != nil {
		logger.Log.Infow("authorization failed", "err", err)
		return nil, ErrUnauthorized
	}

	subject, err := svc.tokens.GetSubject(ctx, tokenString)
	if err != nil {
		logger.Log.Infow("authorization failed", "err", err)
		return nil, ErrUnauthorized
	}

	userID, err := strconv.ParseInt(subject, 10, 64)
	if err != nil {
		logger.Log.Infow("authorization failed", "err", "subject is not a user id", "subject", subject)
		return nil, ErrUnauthorized
	}

	user, err := svc.reader.GetByID(ctx, userID)
	if err != nil {
		logger.Log.Errorw("failed to get user", "user_id", userID, "err", err)
		return nil, err
	}
	if user == nil {
		logger.Log.Infow("authorization failed", "err", "user not found", "user_id", userID)
		return nil, ErrUnauthorized
	}

	return user, nil
}
