package users_test

import (
	"context"
	"testing"
	"time"

	"carryconnect/internal/models"
	"carryconnect/internal/modules/users"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type MockUserRepository struct{ mock.Mock }

func (m *MockUserRepository) FindByID(ctx context.Context, userID int64) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetProfile(ctx context.Context, userID int64) (*models.UserProfile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserProfile), args.Error(1)
}

func TestRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("hashes the password and defaults the role", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := users.NewService(repo, "secret", time.Hour)

		repo.On("Create", ctx, mock.AnythingOfType("*models.User")).
			Run(func(args mock.Arguments) {
				u := args.Get(1).(*models.User)
				assert.Equal(t, models.RoleBoth, u.Role)
				assert.NotEqual(t, "hunter22", u.PasswordHash)
				assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("hunter22")))
				u.ID = 1
			}).
			Return(&models.User{ID: 1, Username: "alice", Role: models.RoleBoth}, nil)

		resp, err := svc.Register(ctx, models.RegisterRequest{
			Username: "alice",
			Password: "hunter22",
			FullName: "Alice Doe",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, resp.AccessToken)
		assert.Equal(t, "alice", resp.User.Username)
	})

	t.Run("duplicate username", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := users.NewService(repo, "secret", time.Hour)

		repo.On("Create", ctx, mock.AnythingOfType("*models.User")).Return(nil, models.ErrConflict)

		_, err := svc.Register(ctx, models.RegisterRequest{
			Username: "alice",
			Password: "hunter22",
			FullName: "Alice Doe",
		})
		assert.ErrorIs(t, err, models.ErrConflict)
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter22"), bcrypt.MinCost)
	require.NoError(t, err)
	stored := &models.User{ID: 1, Username: "alice", PasswordHash: string(hash), Role: models.RoleBoth}

	t.Run("valid credentials", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := users.NewService(repo, "secret", time.Hour)
		repo.On("FindByUsername", ctx, "alice").Return(stored, nil)

		resp, err := svc.Login(ctx, models.LoginRequest{Username: "alice", Password: "hunter22"})
		require.NoError(t, err)
		assert.NotEmpty(t, resp.AccessToken)
	})

	t.Run("wrong password", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := users.NewService(repo, "secret", time.Hour)
		repo.On("FindByUsername", ctx, "alice").Return(stored, nil)

		_, err := svc.Login(ctx, models.LoginRequest{Username: "alice", Password: "wrong"})
		assert.ErrorIs(t, err, models.ErrInvalidCredentials)
	})

	t.Run("unknown username maps to invalid credentials", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := users.NewService(repo, "secret", time.Hour)
		repo.On("FindByUsername", ctx, "ghost").Return(nil, models.ErrNotFound)

		_, err := svc.Login(ctx, models.LoginRequest{Username: "ghost", Password: "whatever"})
		assert.ErrorIs(t, err, models.ErrInvalidCredentials)
	})
}
