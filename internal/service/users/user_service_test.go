package users

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Domenick1991/gulfair/internal/auth"
	"github.com/Domenick1991/gulfair/internal/domain"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetByIdentifier(ctx context.Context, id domain.LoginIdentifier) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context) ([]domain.User, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.User), args.Error(1)
}

func (m *MockUserRepository) Exists(ctx context.Context, username, email string) (bool, error) {
	args := m.Called(ctx, username, email)
	return args.Bool(0), args.Error(1)
}

func newService(repo *MockUserRepository) (*UserService, *auth.TokenService) {
	log, _ := test.NewNullLogger()
	tokens := auth.NewTokenService("test-secret", 24*time.Hour)
	return NewUserService(repo, auth.NewBcryptHasher(bcrypt.MinCost), tokens, log), tokens
}

func TestUserService_Register(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		repo := &MockUserRepository{}
		service, _ := newService(repo)
		ctx := context.Background()

		repo.On("Exists", ctx, "fatima", "fatima@example.com").Return(false, nil).Once()
		repo.On("Create", ctx, mock.AnythingOfType("*domain.User")).
			Run(func(args mock.Arguments) {
				args.Get(1).(*domain.User).ID = 7
			}).
			Return(nil).Once()

		user, err := service.Register(ctx, RegisterInput{
			Username: " fatima ",
			Email:    "fatima@example.com",
			Password: "s3cret",
		})

		require.NoError(t, err)
		assert.Equal(t, int64(7), user.ID)
		assert.Equal(t, "fatima", user.Username)
		assert.Equal(t, "Blue", user.LoyaltyTier)
		assert.NotEqual(t, "s3cret", user.PasswordHash)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("s3cret")))
		repo.AssertExpectations(t)
	})

	t.Run("Duplicate", func(t *testing.T) {
		repo := &MockUserRepository{}
		service, _ := newService(repo)
		ctx := context.Background()

		repo.On("Exists", ctx, "fatima", "fatima@example.com").Return(true, nil).Once()

		_, err := service.Register(ctx, RegisterInput{Username: "fatima", Email: "fatima@example.com", Password: "x"})

		assert.ErrorIs(t, err, domain.ErrUserExists)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("Missing Fields", func(t *testing.T) {
		repo := &MockUserRepository{}
		service, _ := newService(repo)

		_, err := service.Register(context.Background(), RegisterInput{Username: "fatima"})

		assert.Equal(t, domain.KindInvalid, domain.KindOf(err))
		repo.AssertExpectations(t)
	})
}

func storedUser(t *testing.T, password string) *domain.User {
	hash, err := auth.NewBcryptHasher(bcrypt.MinCost).Hash(password)
	require.NoError(t, err)
	return &domain.User{ID: 7, Username: "fatima", Email: "fatima@example.com", PasswordHash: hash}
}

func TestUserService_Login(t *testing.T) {
	t.Run("By Username", func(t *testing.T) {
		repo := &MockUserRepository{}
		service, tokens := newService(repo)
		ctx := context.Background()
		id := domain.LoginIdentifier{Kind: domain.IdentifierUsername, Value: "fatima"}

		repo.On("GetByIdentifier", ctx, id).Return(storedUser(t, "s3cret"), nil).Once()

		res, err := service.Login(ctx, LoginInput{Username: "fatima", Password: "s3cret"})

		require.NoError(t, err)
		assert.Equal(t, "Login successful", res.Message)
		claims, err := tokens.Validate(res.Token)
		require.NoError(t, err)
		assert.Equal(t, int64(7), claims.UserID)
		assert.Equal(t, "7", claims.Subject)
		assert.WithinDuration(t, time.Now().Add(24*time.Hour), res.ExpiresAt, time.Minute)
		repo.AssertExpectations(t)
	})

	t.Run("By Falcon Flyer Number", func(t *testing.T) {
		repo := &MockUserRepository{}
		service, _ := newService(repo)
		ctx := context.Background()
		id := domain.LoginIdentifier{Kind: domain.IdentifierMembershipNumber, Value: "FF12345678"}

		repo.On("GetByIdentifier", ctx, id).Return(storedUser(t, "s3cret"), nil).Once()

		_, err := service.Login(ctx, LoginInput{FalconFlyerNumber: "ff12345678", Password: "s3cret"})

		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("Wrong Password", func(t *testing.T) {
		repo := &MockUserRepository{}
		service, _ := newService(repo)
		ctx := context.Background()

		repo.On("GetByIdentifier", ctx, mock.Anything).Return(storedUser(t, "s3cret"), nil).Once()

		_, err := service.Login(ctx, LoginInput{Email: "fatima@example.com", Password: "wrong"})

		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})

	t.Run("Unknown User", func(t *testing.T) {
		repo := &MockUserRepository{}
		service, _ := newService(repo)
		ctx := context.Background()

		repo.On("GetByIdentifier", ctx, mock.Anything).Return(nil, domain.ErrUserNotFound).Once()

		_, err := service.Login(ctx, LoginInput{Username: "nobody", Password: "x"})

		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})

	t.Run("Two Identifiers", func(t *testing.T) {
		repo := &MockUserRepository{}
		service, _ := newService(repo)

		_, err := service.Login(context.Background(), LoginInput{Username: "fatima", Email: "f@example.com", Password: "x"})

		assert.ErrorIs(t, err, domain.ErrInvalidLoginIdentifier)
		repo.AssertExpectations(t)
	})

	t.Run("Repository Error", func(t *testing.T) {
		repo := &MockUserRepository{}
		service, _ := newService(repo)
		ctx := context.Background()
		dbErr := errors.New("connection reset")

		repo.On("GetByIdentifier", ctx, mock.Anything).Return(nil, dbErr).Once()

		_, err := service.Login(ctx, LoginInput{Username: "fatima", Password: "x"})

		assert.ErrorIs(t, err, dbErr)
	})
}

func TestUserService_Get(t *testing.T) {
	repo := &MockUserRepository{}
	service, _ := newService(repo)
	ctx := context.Background()

	repo.On("GetByID", ctx, int64(99)).Return(nil, domain.ErrUserNotFound).Once()

	_, err := service.Get(ctx, 99)

	assert.ErrorIs(t, err, domain.ErrUserNotFound)
	repo.AssertExpectations(t)
}
