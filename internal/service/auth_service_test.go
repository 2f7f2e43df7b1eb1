package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"kbine/internal/auth"
	"kbine/internal/model"
)

// MockUserRepository is a mock implementation of repository.UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindByPhone(ctx context.Context, phone string) (*model.User, error) {
	args := m.Called(ctx, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindByPhoneOrCreate(ctx context.Context, user *model.User) (*model.User, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) ListByRole(ctx context.Context, role model.UserRole) ([]model.User, error) {
	args := m.Called(ctx, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.User), args.Error(1)
}

// MockTokenStore is a mock implementation of auth.TokenStoreInterface.
type MockTokenStore struct {
	mock.Mock
}

func (m *MockTokenStore) StoreRefreshToken(ctx context.Context, tokenID string, userID, phone, role string, ttl time.Duration) error {
	args := m.Called(ctx, tokenID, userID, phone, role, ttl)
	return args.Error(0)
}

func (m *MockTokenStore) GetRefreshToken(ctx context.Context, tokenID string) (string, string, string, error) {
	args := m.Called(ctx, tokenID)
	return args.String(0), args.String(1), args.String(2), args.Error(3)
}

func (m *MockTokenStore) DeleteRefreshToken(ctx context.Context, tokenID string) error {
	args := m.Called(ctx, tokenID)
	return args.Error(0)
}

func (m *MockTokenStore) StoreOTP(ctx context.Context, phone, codeHash string) error {
	args := m.Called(ctx, phone, codeHash)
	return args.Error(0)
}

func (m *MockTokenStore) GetOTP(ctx context.Context, phone string) (string, error) {
	args := m.Called(ctx, phone)
	return args.String(0), args.Error(1)
}

func (m *MockTokenStore) DeleteOTP(ctx context.Context, phone string) error {
	args := m.Called(ctx, phone)
	return args.Error(0)
}

func (m *MockTokenStore) ReserveOTPSlot(ctx context.Context, phone string, window time.Duration) (bool, error) {
	args := m.Called(ctx, phone, window)
	return args.Bool(0), args.Error(1)
}

func newTestAuthService(userRepo *MockUserRepository, store *MockTokenStore) AuthService {
	return NewAuthService(userRepo, auth.NewJWTService("test-secret"), store)
}

func TestRequestOTP(t *testing.T) {
	t.Run("stores only the code hash", func(t *testing.T) {
		store := new(MockTokenStore)
		store.On("ReserveOTPSlot", mock.Anything, "0707080910", mock.Anything).Return(true, nil)
		store.On("StoreOTP", mock.Anything, "0707080910", mock.MatchedBy(func(hash string) bool {
			return len(hash) > 6 && hash[:4] == "$2a$"
		})).Return(nil)
		svc := newTestAuthService(new(MockUserRepository), store)

		err := svc.RequestOTP(context.Background(), "07 07 08 09 10")

		require.NoError(t, err)
		store.AssertExpectations(t)
	})

	t.Run("throttled", func(t *testing.T) {
		store := new(MockTokenStore)
		store.On("ReserveOTPSlot", mock.Anything, "0707080910", mock.Anything).Return(false, nil)
		svc := newTestAuthService(new(MockUserRepository), store)

		err := svc.RequestOTP(context.Background(), "0707080910")

		assert.ErrorIs(t, err, ErrOTPThrottled)
		store.AssertNotCalled(t, "StoreOTP", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("invalid phone", func(t *testing.T) {
		svc := newTestAuthService(new(MockUserRepository), new(MockTokenStore))

		err := svc.RequestOTP(context.Background(), "123")

		assert.ErrorIs(t, err, ErrInvalidPhone)
	})
}

func TestVerifyOTP(t *testing.T) {
	hashOf := func(t *testing.T, code string) string {
		t.Helper()
		hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.MinCost)
		require.NoError(t, err)
		return string(hash)
	}

	t.Run("creates the user on first login", func(t *testing.T) {
		user := &model.User{ID: uuid.New(), Phone: "0707080910", Role: model.UserRoleClient}

		store := new(MockTokenStore)
		userRepo := new(MockUserRepository)
		store.On("GetOTP", mock.Anything, "0707080910").Return(hashOf(t, "482913"), nil)
		store.On("DeleteOTP", mock.Anything, "0707080910").Return(nil)
		store.On("StoreRefreshToken", mock.Anything, mock.Anything, user.ID.String(), "0707080910", "client", auth.RefreshTokenExpiry).Return(nil)
		userRepo.On("FindByPhoneOrCreate", mock.Anything, mock.AnythingOfType("*model.User")).Return(user, nil)
		svc := newTestAuthService(userRepo, store)

		access, refresh, got, err := svc.VerifyOTP(context.Background(), "0707080910", "482913")

		require.NoError(t, err)
		assert.NotEmpty(t, access)
		assert.NotEmpty(t, refresh)
		assert.Equal(t, user, got)
		store.AssertCalled(t, "DeleteOTP", mock.Anything, "0707080910")
	})

	t.Run("wrong code", func(t *testing.T) {
		store := new(MockTokenStore)
		store.On("GetOTP", mock.Anything, "0707080910").Return(hashOf(t, "482913"), nil)
		svc := newTestAuthService(new(MockUserRepository), store)

		_, _, _, err := svc.VerifyOTP(context.Background(), "0707080910", "000000")

		assert.ErrorIs(t, err, ErrInvalidOTP)
		store.AssertNotCalled(t, "DeleteOTP", mock.Anything, mock.Anything)
	})

	t.Run("expired code", func(t *testing.T) {
		store := new(MockTokenStore)
		store.On("GetOTP", mock.Anything, "0707080910").Return("", assert.AnError)
		svc := newTestAuthService(new(MockUserRepository), store)

		_, _, _, err := svc.VerifyOTP(context.Background(), "0707080910", "482913")

		assert.ErrorIs(t, err, ErrInvalidOTP)
	})
}

func TestRefreshToken(t *testing.T) {
	t.Run("valid refresh token", func(t *testing.T) {
		jwtService := auth.NewJWTService("test-secret")
		user := &model.User{ID: uuid.New(), Phone: "0707080910", Role: model.UserRoleClient}
		tokenID, refreshToken, err := jwtService.GenerateRefreshToken(user.ID, user.Phone, string(user.Role))
		require.NoError(t, err)

		store := new(MockTokenStore)
		userRepo := new(MockUserRepository)
		store.On("GetRefreshToken", mock.Anything, tokenID).Return(user.ID.String(), user.Phone, "client", nil)
		userRepo.On("FindByPhone", mock.Anything, user.Phone).Return(user, nil)
		svc := NewAuthService(userRepo, jwtService, store)

		access, err := svc.RefreshToken(context.Background(), refreshToken)

		require.NoError(t, err)
		assert.NotEmpty(t, access)
	})

	t.Run("revoked refresh token", func(t *testing.T) {
		jwtService := auth.NewJWTService("test-secret")
		tokenID, refreshToken, err := jwtService.GenerateRefreshToken(uuid.New(), "0707080910", "client")
		require.NoError(t, err)

		store := new(MockTokenStore)
		store.On("GetRefreshToken", mock.Anything, tokenID).Return("", "", "", assert.AnError)
		svc := NewAuthService(new(MockUserRepository), jwtService, store)

		_, err = svc.RefreshToken(context.Background(), refreshToken)

		assert.ErrorIs(t, err, ErrInvalidRefreshToken)
	})

	t.Run("garbage token", func(t *testing.T) {
		svc := newTestAuthService(new(MockUserRepository), new(MockTokenStore))

		_, err := svc.RefreshToken(context.Background(), "not-a-jwt")

		assert.ErrorIs(t, err, ErrInvalidRefreshToken)
	})
}

func TestLogout(t *testing.T) {
	jwtService := auth.NewJWTService("test-secret")
	tokenID, refreshToken, err := jwtService.GenerateRefreshToken(uuid.New(), "0707080910", "client")
	require.NoError(t, err)

	store := new(MockTokenStore)
	store.On("DeleteRefreshToken", mock.Anything, tokenID).Return(nil)
	svc := NewAuthService(new(MockUserRepository), jwtService, store)

	require.NoError(t, svc.Logout(context.Background(), refreshToken))
	store.AssertExpectations(t)
}
