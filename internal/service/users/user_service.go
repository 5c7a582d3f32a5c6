package users

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Domenick1991/gulfair/internal/domain"
	"github.com/Domenick1991/gulfair/internal/loyalty"
	"github.com/Domenick1991/gulfair/internal/repository"
	"github.com/sirupsen/logrus"
)

type UserUseCase interface {
	Register(ctx context.Context, input RegisterInput) (*domain.User, error)
	Login(ctx context.Context, input LoginInput) (*LoginResult, error)
	List(ctx context.Context) ([]domain.User, error)
	Get(ctx context.Context, id int64) (*domain.User, error)
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) (bool, error)
}

type TokenIssuer interface {
	Generate(userID int64, username string) (string, time.Time, error)
}

type RegisterInput struct {
	Username    string
	Email       string
	Password    string
	FirstName   string
	LastName    string
	PhoneNumber string
}

// LoginInput carries the raw identifiers; exactly one of them must be set.
type LoginInput struct {
	Username          string
	Email             string
	FalconFlyerNumber string
	Password          string
}

type LoginResult struct {
	Token     string    `json:"token"`
	Message   string    `json:"message"`
	ExpiresAt time.Time `json:"expires_at"`
}

type UserService struct {
	repo   repository.UserRepository
	hasher PasswordHasher
	tokens TokenIssuer
	log    logrus.FieldLogger
}

func NewUserService(repo repository.UserRepository, hasher PasswordHasher, tokens TokenIssuer, log logrus.FieldLogger) *UserService {
	return &UserService{repo: repo, hasher: hasher, tokens: tokens, log: log}
}

func (s *UserService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.TrimSpace(input.Email)
	if username == "" || email == "" || input.Password == "" {
		return nil, domain.Invalidf("username, email and password are required")
	}

	exists, err := s.repo.Exists(ctx, username, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrUserExists
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		PhoneNumber:  input.PhoneNumber,
		LoyaltyTier:  loyalty.TierBlue,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"user_id": user.ID, "username": user.Username}).Info("user registered")
	return user, nil
}

func (s *UserService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	id, err := domain.NewLoginIdentifier(input.Username, input.Email, input.FalconFlyerNumber)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.GetByIdentifier(ctx, id)
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	ok, err := s.hasher.Compare(user.PasswordHash, input.Password)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.log.WithField("identifier", id.Kind.String()).Info("login rejected")
		return nil, domain.ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.Generate(user.ID, user.Username)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, Message: "Login successful", ExpiresAt: expiresAt}, nil
}

func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	return s.repo.List(ctx)
}

func (s *UserService) Get(ctx context.Context, id int64) (*domain.User, error) {
	return s.repo.GetByID(ctx, id)
}

var _ UserUseCase = (*UserService)(nil)
