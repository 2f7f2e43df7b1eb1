package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"kbine/internal/auth"
	"kbine/internal/logger"
	"kbine/internal/model"
	"kbine/internal/repository"
)

const (
	bcryptCost    = 10
	otpRateWindow = time.Minute
)

var (
	// ErrInvalidOTP is returned when the code is wrong or expired.
	ErrInvalidOTP = errors.New("invalid or expired code")
	// ErrOTPThrottled is returned when a code was requested too recently.
	ErrOTPThrottled = errors.New("a code was already sent, try again later")
	// ErrInvalidRefreshToken is returned when refresh token is invalid or expired.
	ErrInvalidRefreshToken = errors.New("invalid or expired refresh token")
)

// AuthService handles phone-number authentication with one-time codes.
type AuthService interface {
	RequestOTP(ctx context.Context, phone string) error
	VerifyOTP(ctx context.Context, phone, code string) (accessToken, refreshToken string, user *model.User, err error)
	RefreshToken(ctx context.Context, refreshToken string) (accessToken string, err error)
	Logout(ctx context.Context, refreshToken string) error
}

type authService struct {
	userRepo   repository.UserRepository
	jwtService *auth.JWTService
	tokenStore auth.TokenStoreInterface
	validator  *PhoneValidator
	logger     *zap.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(userRepo repository.UserRepository, jwtService *auth.JWTService, tokenStore auth.TokenStoreInterface) AuthService {
	return &authService{
		userRepo:   userRepo,
		jwtService: jwtService,
		tokenStore: tokenStore,
		validator:  NewPhoneValidator(),
		logger:     logger.Get().Named("auth"),
	}
}

// RequestOTP issues a one-time code for a phone number. Only the bcrypt
// hash of the code is stored; SMS delivery is owned by a collaborator.
func (s *authService) RequestOTP(ctx context.Context, phone string) error {
	if err := s.validator.ValidatePhone(phone); err != nil {
		return err
	}
	phone = s.validator.Normalize(phone)

	ok, err := s.tokenStore.ReserveOTPSlot(ctx, phone, otpRateWindow)
	if err != nil {
		return fmt.Errorf("reserve otp slot: %w", err)
	}
	if !ok {
		return ErrOTPThrottled
	}

	code, err := generateOTP()
	if err != nil {
		return fmt.Errorf("generate otp: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcryptCost)
	if err != nil {
		return fmt.Errorf("hash otp: %w", err)
	}

	if err := s.tokenStore.StoreOTP(ctx, phone, string(hash)); err != nil {
		return fmt.Errorf("store otp: %w", err)
	}

	// The SMS gateway picks the code up from here in production; logging
	// at debug keeps local development usable.
	s.logger.Debug("otp issued", zap.String("phone", s.validator.Mask(phone)), zap.String("code", code))
	return nil
}

// VerifyOTP checks the code, creating the user on first login, and
// returns access and refresh tokens.
func (s *authService) VerifyOTP(ctx context.Context, phone, code string) (string, string, *model.User, error) {
	if err := s.validator.ValidatePhone(phone); err != nil {
		return "", "", nil, err
	}
	phone = s.validator.Normalize(phone)

	hash, err := s.tokenStore.GetOTP(ctx, phone)
	if err != nil {
		return "", "", nil, ErrInvalidOTP
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)); err != nil {
		return "", "", nil, ErrInvalidOTP
	}

	// Single use.
	_ = s.tokenStore.DeleteOTP(ctx, phone)

	user, err := s.userRepo.FindByPhoneOrCreate(ctx, &model.User{
		Phone: phone,
		Role:  model.UserRoleClient,
	})
	if err != nil {
		return "", "", nil, fmt.Errorf("find or create user: %w", err)
	}

	accessToken, err := s.jwtService.GenerateAccessToken(user.ID, user.Phone, string(user.Role))
	if err != nil {
		return "", "", nil, fmt.Errorf("generate access token: %w", err)
	}

	tokenID, refreshToken, err := s.jwtService.GenerateRefreshToken(user.ID, user.Phone, string(user.Role))
	if err != nil {
		return "", "", nil, fmt.Errorf("generate refresh token: %w", err)
	}

	if err := s.tokenStore.StoreRefreshToken(ctx, tokenID, user.ID.String(), user.Phone, string(user.Role), auth.RefreshTokenExpiry); err != nil {
		return "", "", nil, fmt.Errorf("store refresh token: %w", err)
	}

	return accessToken, refreshToken, user, nil
}

// RefreshToken validates a refresh token and returns a new access token.
func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (string, error) {
	tokenID, err := s.jwtService.ExtractTokenID(refreshToken)
	if err != nil {
		return "", ErrInvalidRefreshToken
	}

	userID, phone, _, err := s.tokenStore.GetRefreshToken(ctx, tokenID)
	if err != nil {
		return "", ErrInvalidRefreshToken
	}

	user, err := s.userRepo.FindByPhone(ctx, phone)
	if err != nil || user.ID.String() != userID {
		return "", ErrInvalidRefreshToken
	}

	return s.jwtService.GenerateAccessToken(user.ID, user.Phone, string(user.Role))
}

// Logout revokes a refresh token.
func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	tokenID, err := s.jwtService.ExtractTokenID(refreshToken)
	if err != nil {
		return ErrInvalidRefreshToken
	}
	return s.tokenStore.DeleteRefreshToken(ctx, tokenID)
}

// generateOTP returns a 6-digit numeric code from crypto/rand.
func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
